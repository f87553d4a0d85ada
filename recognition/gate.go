package recognition

import "math"

// GateOutcome classifies one verification attempt. Outcomes are terminal for
// the attempt, not for the run; the verifier decides what each one costs.
type GateOutcome int

const (
	// GateAccepted means the probe matched the claimed identity with enough
	// confidence to mark attendance.
	GateAccepted GateOutcome = iota
	// GateLowConfidence means the label matched but the confidence score fell
	// below the configured minimum.
	GateLowConfidence
	// GatePoseInvalid means the face was not frontal enough for a reliable
	// measurement; the attempt is discarded without judging confidence.
	GatePoseInvalid
	// GateNameMismatch means the probe's best match is not the identity the
	// caller is trying to verify. A confident match for someone else is still
	// a rejection: this is claim verification, not open-set search.
	GateNameMismatch
)

// GateResult carries the attempt outcome and, for confidence-based outcomes,
// the computed 0-100 score.
type GateResult struct {
	Outcome    GateOutcome
	Confidence int
}

// Gate converts match distances into accept/reject decisions under a
// configured confidence policy and a landmark-based pose check.
type Gate struct {
	// MinConfidence is the lowest 0-100 score that is accepted.
	MinConfidence int
	// MinEyePoints is the minimum landmark point count required per eye for
	// the face to count as frontal.
	MinEyePoints int
}

// NewGate returns a gate with the given minimum confidence and the standard
// six-point eye landmark requirement.
func NewGate(minConfidence int) *Gate {
	return &Gate{MinConfidence: minConfidence, MinEyePoints: 6}
}

// Confidence converts an embedding distance to an integer score in [0, 100].
// Distances above 1 clamp to 0 rather than going negative.
func Confidence(distance float64) int {
	score := int(math.Round((1 - distance) * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Evaluate judges one probe against the claimed identity.
func (g *Gate) Evaluate(probe Probe, claimedIdentity string) GateResult {
	if probe.Label != claimedIdentity {
		return GateResult{Outcome: GateNameMismatch}
	}

	if !g.poseValid(probe) {
		return GateResult{Outcome: GatePoseInvalid}
	}

	confidence := Confidence(probe.Distance)
	if confidence >= g.MinConfidence {
		return GateResult{Outcome: GateAccepted, Confidence: confidence}
	}
	return GateResult{Outcome: GateLowConfidence, Confidence: confidence}
}

// poseValid requires both eye landmark groups to be present with enough
// points that the face is plausibly frontal and fully visible.
func (g *Gate) poseValid(probe Probe) bool {
	if probe.Landmarks == nil {
		return false
	}
	left, ok := probe.Landmarks[LandmarkLeftEye]
	if !ok || len(left) < g.MinEyePoints {
		return false
	}
	right, ok := probe.Landmarks[LandmarkRightEye]
	if !ok || len(right) < g.MinEyePoints {
		return false
	}
	return true
}
