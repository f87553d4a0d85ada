package recognition

import (
	"context"
	"image"
	"strings"
	"testing"
	"time"
)

type fakeSource struct {
	opened    bool
	failAfter int // reads start failing once this many succeeded; <0 never fails
	reads     int
}

func (s *fakeSource) IsOpened() bool { return s.opened }

func (s *fakeSource) Read() (image.Image, bool) {
	if s.failAfter >= 0 && s.reads >= s.failAfter {
		return nil, false
	}
	s.reads++
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), true
}

func newFakeSource() *fakeSource {
	return &fakeSource{opened: true, failAfter: -1}
}

// fakeLocator returns one scripted probe set per call, repeating the last
// script entry once exhausted.
type fakeLocator struct {
	script [][]Probe
	calls  int
}

func (l *fakeLocator) Locate(frame image.Image) ([]Probe, error) {
	i := l.calls
	l.calls++
	if i >= len(l.script) {
		i = len(l.script) - 1
	}
	if i < 0 {
		return nil, nil
	}
	return l.script[i], nil
}

type fakeEvidence struct {
	saves []string
}

func (e *fakeEvidence) Save(frame image.Image, identity string, when time.Time) (string, error) {
	e.saves = append(e.saves, identity)
	return "/evidence/" + identity + ".jpg", nil
}

type sinkCall struct {
	studentID    string
	displayName  string
	evidencePath string
	confidence   int
}

type fakeSink struct {
	calls []sinkCall
}

func (s *fakeSink) MarkAttendance(studentID, displayName string, sessionID *uint, evidencePath string, confidence int) error {
	s.calls = append(s.calls, sinkCall{studentID, displayName, evidencePath, confidence})
	return nil
}

func newTestVerifier(source FrameSource, locator FaceLocator, evidence *fakeEvidence, sink *fakeSink) (*Verifier, *[]time.Duration) {
	v := NewVerifier(source, locator, evidence, sink, NewGate(50), 3, time.Second)
	v.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	var slept []time.Duration
	v.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return v, &slept
}

func aliceProbe(distance float64) Probe {
	return Probe{Label: "alice", Distance: distance, Landmarks: frontalLandmarks()}
}

func TestVerifyAcceptedFirstAttempt(t *testing.T) {
	locator := &fakeLocator{script: [][]Probe{{aliceProbe(0.3)}}}
	evidence := &fakeEvidence{}
	sink := &fakeSink{}
	v, slept := newTestVerifier(newFakeSource(), locator, evidence, sink)

	var notified []string
	ok, msg := v.Verify(context.Background(), "S001", "alice", nil, func(success bool, message string) {
		notified = append(notified, message)
	})

	if !ok {
		t.Fatalf("Verify failed: %s", msg)
	}
	if !strings.Contains(msg, "70") || !strings.Contains(msg, "1") {
		t.Errorf("success message %q should contain confidence 70 and attempt 1", msg)
	}
	if len(evidence.saves) != 1 {
		t.Errorf("evidence saves = %d; want 1", len(evidence.saves))
	}
	if len(sink.calls) != 1 {
		t.Fatalf("sink calls = %d; want 1", len(sink.calls))
	}
	if sink.calls[0].confidence != 70 || sink.calls[0].studentID != "S001" {
		t.Errorf("sink call = %+v; want confidence 70 for S001", sink.calls[0])
	}
	if len(*slept) != 0 {
		t.Errorf("unexpected backoff on immediate accept: %v", *slept)
	}
	if len(notified) != 1 || notified[0] != msg {
		t.Errorf("notifier got %v; want the terminal message %q", notified, msg)
	}
}

func TestVerifyNeverRecognizedExhaustsRetries(t *testing.T) {
	// No probe ever matches the claimed identity.
	locator := &fakeLocator{script: [][]Probe{{{Label: "bob", Distance: 0.1, Landmarks: frontalLandmarks()}}}}
	source := newFakeSource()
	v, slept := newTestVerifier(source, locator, &fakeEvidence{}, &fakeSink{})

	ok, msg := v.Verify(context.Background(), "S001", "alice", nil, nil)

	if ok {
		t.Fatal("Verify succeeded; want failure")
	}
	if msg != "Face not recognized after maximum retries." {
		t.Errorf("message = %q; want not-recognized", msg)
	}
	if source.reads != 3 {
		t.Errorf("frame reads = %d; want exactly 3", source.reads)
	}
	if locator.calls != 3 {
		t.Errorf("locator calls = %d; want exactly 3", locator.calls)
	}
	if len(*slept) != 0 {
		t.Errorf("unmatched frames must not pay the low-confidence backoff: %v", *slept)
	}
}

func TestVerifyPoseInvalidThenAcceptAtThreshold(t *testing.T) {
	poseProbe := Probe{Label: "alice", Distance: 0.2, Landmarks: map[string][]image.Point{
		LandmarkLeftEye:  eyePoints(3),
		LandmarkRightEye: eyePoints(6),
	}}
	locator := &fakeLocator{script: [][]Probe{
		{poseProbe},
		{aliceProbe(0.5)}, // confidence exactly 50, the threshold
	}}
	evidence := &fakeEvidence{}
	sink := &fakeSink{}
	v, slept := newTestVerifier(newFakeSource(), locator, evidence, sink)

	var progress []string
	ok, msg := v.Verify(context.Background(), "S001", "alice", nil, func(success bool, message string) {
		progress = append(progress, message)
	})

	if !ok {
		t.Fatalf("Verify failed: %s", msg)
	}
	if !strings.Contains(msg, "Attempt 2") {
		t.Errorf("message = %q; want accept on attempt 2", msg)
	}
	if len(evidence.saves) != 1 || len(sink.calls) != 1 {
		t.Errorf("evidence saves = %d, sink calls = %d; want exactly one of each", len(evidence.saves), len(sink.calls))
	}
	if sink.calls[0].confidence != 50 {
		t.Errorf("confidence = %d; want threshold value 50 accepted", sink.calls[0].confidence)
	}
	if len(*slept) != 0 {
		t.Errorf("pose failures must not pay the low-confidence backoff: %v", *slept)
	}
	if len(progress) < 1 || !strings.Contains(progress[0], "not frontal enough") || !strings.Contains(progress[0], "1/3") {
		t.Errorf("pose progress message = %v; want attempt/budget guidance", progress)
	}
}

func TestVerifyLowConfidenceExhausted(t *testing.T) {
	locator := &fakeLocator{script: [][]Probe{{aliceProbe(0.9)}}}
	source := newFakeSource()
	sink := &fakeSink{}
	v, slept := newTestVerifier(source, locator, &fakeEvidence{}, sink)

	var progress []string
	ok, msg := v.Verify(context.Background(), "S001", "alice", nil, func(success bool, message string) {
		progress = append(progress, message)
	})

	if ok {
		t.Fatal("Verify succeeded; want low-confidence failure")
	}
	if !strings.Contains(msg, "10%") || !strings.Contains(msg, "50%") || !strings.Contains(msg, "No more retries") {
		t.Errorf("message = %q; want final confidence, the 50 minimum and no-more-retries", msg)
	}
	if source.reads != 3 {
		t.Errorf("frame reads = %d; want 3", source.reads)
	}
	if len(sink.calls) != 0 {
		t.Errorf("sink calls = %d; want 0", len(sink.calls))
	}
	// Backoff only between attempts, never after the last one.
	if len(*slept) != 2 {
		t.Errorf("backoffs = %v; want exactly 2 of 1s", *slept)
	}
	// Intermediate messages carry the upcoming/total attempt counts.
	if len(progress) != 3 {
		t.Fatalf("progress messages = %d; want 2 retry notices plus terminal", len(progress))
	}
	if !strings.Contains(progress[0], "(2/3)") || !strings.Contains(progress[1], "(3/3)") {
		t.Errorf("retry notices = %v; want (2/3) then (3/3)", progress[:2])
	}
}

func TestVerifyCaptureFailureIsImmediatelyFatal(t *testing.T) {
	source := newFakeSource()
	source.failAfter = 0
	locator := &fakeLocator{script: [][]Probe{{aliceProbe(0.1)}}}
	v, _ := newTestVerifier(source, locator, &fakeEvidence{}, &fakeSink{})

	ok, msg := v.Verify(context.Background(), "S001", "alice", nil, nil)

	if ok {
		t.Fatal("Verify succeeded with a dead camera")
	}
	if msg != "Failed to capture frame." {
		t.Errorf("message = %q; want capture failure", msg)
	}
	if locator.calls != 0 {
		t.Errorf("locator ran %d times after capture failure; want 0", locator.calls)
	}
}

func TestVerifyCaptureFailureOnSecondAttempt(t *testing.T) {
	source := newFakeSource()
	source.failAfter = 1
	locator := &fakeLocator{script: [][]Probe{{aliceProbe(0.9)}}}
	v, _ := newTestVerifier(source, locator, &fakeEvidence{}, &fakeSink{})

	ok, msg := v.Verify(context.Background(), "S001", "alice", nil, nil)

	if ok || msg != "Failed to capture frame." {
		t.Errorf("got (%v, %q); want capture failure on attempt 2", ok, msg)
	}
	if source.reads != 1 {
		t.Errorf("frame reads = %d; want 1 successful read before failure", source.reads)
	}
}

func TestVerifyCameraNotStarted(t *testing.T) {
	source := &fakeSource{opened: false}
	v, _ := newTestVerifier(source, &fakeLocator{}, &fakeEvidence{}, &fakeSink{})

	ok, msg := v.Verify(context.Background(), "S001", "alice", nil, nil)

	if ok || msg != "Camera not started." {
		t.Errorf("got (%v, %q); want camera-not-started failure", ok, msg)
	}
}

func TestVerifyCancelDuringBackoff(t *testing.T) {
	locator := &fakeLocator{script: [][]Probe{{aliceProbe(0.9)}}}
	v := NewVerifier(newFakeSource(), locator, &fakeEvidence{}, &fakeSink{}, NewGate(50), 3, time.Second)
	v.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	ok, msg := v.Verify(context.Background(), "S001", "alice", nil, nil)

	if ok || msg != "Verification canceled." {
		t.Errorf("got (%v, %q); want cancellation at the backoff point", ok, msg)
	}
}

func TestVerifyPicksClaimedIdentityAmongMultipleFaces(t *testing.T) {
	locator := &fakeLocator{script: [][]Probe{{
		{Label: "bob", Distance: 0.05, Landmarks: frontalLandmarks()},
		aliceProbe(0.4),
		{Label: "carol", Distance: 0.1, Landmarks: frontalLandmarks()},
	}}}
	sink := &fakeSink{}
	v, _ := newTestVerifier(newFakeSource(), locator, &fakeEvidence{}, sink)

	ok, msg := v.Verify(context.Background(), "S001", "alice", nil, nil)

	if !ok {
		t.Fatalf("Verify failed: %s", msg)
	}
	if len(sink.calls) != 1 || sink.calls[0].displayName != "alice" {
		t.Errorf("sink calls = %+v; want one mark for alice", sink.calls)
	}
	if sink.calls[0].confidence != 60 {
		t.Errorf("confidence = %d; want 60 from alice's own distance, not bob's", sink.calls[0].confidence)
	}
}

func TestSleepContextHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Minute); err == nil {
		t.Error("sleepContext returned nil for a canceled context")
	}

	start := time.Now()
	if err := sleepContext(context.Background(), 5*time.Millisecond); err != nil {
		t.Errorf("sleepContext returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("sleepContext returned after %v; want at least 5ms", elapsed)
	}
}
