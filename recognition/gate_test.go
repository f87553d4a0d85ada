package recognition

import (
	"image"
	"testing"
)

func eyePoints(n int) []image.Point {
	pts := make([]image.Point, n)
	for i := range pts {
		pts[i] = image.Pt(i, i)
	}
	return pts
}

func frontalLandmarks() map[string][]image.Point {
	return map[string][]image.Point{
		LandmarkLeftEye:  eyePoints(6),
		LandmarkRightEye: eyePoints(6),
		LandmarkNose:     eyePoints(4),
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     int
	}{
		{"zero distance", 0, 100},
		{"distance 0.3", 0.3, 70},
		{"distance 0.5 rounds", 0.5, 50},
		{"distance 0.9", 0.9, 10},
		{"distance 1", 1, 0},
		{"distance above 1 clamps to 0", 1.7, 0},
		{"large distance clamps to 0", 42, 0},
		{"negative distance clamps to 100", -0.5, 100},
		{"rounds half up", 0.305, 70},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Confidence(tc.distance)
			if got != tc.want {
				t.Errorf("Confidence(%v) = %d; want %d", tc.distance, got, tc.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("Confidence(%v) = %d; out of [0,100]", tc.distance, got)
			}
		})
	}
}

func TestGateEvaluate(t *testing.T) {
	gate := NewGate(50)

	tests := []struct {
		name           string
		probe          Probe
		claimed        string
		wantOutcome    GateOutcome
		wantConfidence int
	}{
		{
			name:           "accepted above threshold",
			probe:          Probe{Label: "alice", Distance: 0.3, Landmarks: frontalLandmarks()},
			claimed:        "alice",
			wantOutcome:    GateAccepted,
			wantConfidence: 70,
		},
		{
			name:           "accepted exactly at threshold",
			probe:          Probe{Label: "alice", Distance: 0.5, Landmarks: frontalLandmarks()},
			claimed:        "alice",
			wantOutcome:    GateAccepted,
			wantConfidence: 50,
		},
		{
			name:           "low confidence below threshold",
			probe:          Probe{Label: "alice", Distance: 0.9, Landmarks: frontalLandmarks()},
			claimed:        "alice",
			wantOutcome:    GateLowConfidence,
			wantConfidence: 10,
		},
		{
			name:        "name mismatch beats everything",
			probe:       Probe{Label: "bob", Distance: 0, Landmarks: frontalLandmarks()},
			claimed:     "alice",
			wantOutcome: GateNameMismatch,
		},
		{
			name:        "missing landmarks",
			probe:       Probe{Label: "alice", Distance: 0.1},
			claimed:     "alice",
			wantOutcome: GatePoseInvalid,
		},
		{
			name: "too few left eye points",
			probe: Probe{Label: "alice", Distance: 0.1, Landmarks: map[string][]image.Point{
				LandmarkLeftEye:  eyePoints(5),
				LandmarkRightEye: eyePoints(6),
			}},
			claimed:     "alice",
			wantOutcome: GatePoseInvalid,
		},
		{
			name: "missing right eye group",
			probe: Probe{Label: "alice", Distance: 0.1, Landmarks: map[string][]image.Point{
				LandmarkLeftEye: eyePoints(6),
			}},
			claimed:     "alice",
			wantOutcome: GatePoseInvalid,
		},
		{
			name: "pose is checked before confidence",
			probe: Probe{Label: "alice", Distance: 5.0, Landmarks: map[string][]image.Point{
				LandmarkLeftEye: eyePoints(2),
			}},
			claimed:     "alice",
			wantOutcome: GatePoseInvalid,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := gate.Evaluate(tc.probe, tc.claimed)
			if got.Outcome != tc.wantOutcome {
				t.Errorf("Evaluate outcome = %v; want %v", got.Outcome, tc.wantOutcome)
			}
			if tc.wantOutcome == GateAccepted || tc.wantOutcome == GateLowConfidence {
				if got.Confidence != tc.wantConfidence {
					t.Errorf("Evaluate confidence = %d; want %d", got.Confidence, tc.wantConfidence)
				}
			}
		})
	}
}

func TestGateThresholdIsConfiguration(t *testing.T) {
	strict := NewGate(90)
	probe := Probe{Label: "alice", Distance: 0.3, Landmarks: frontalLandmarks()}

	got := strict.Evaluate(probe, "alice")
	if got.Outcome != GateLowConfidence {
		t.Errorf("threshold 90 outcome = %v; want GateLowConfidence", got.Outcome)
	}
	if got.Confidence != 70 {
		t.Errorf("confidence = %d; want 70", got.Confidence)
	}
}
