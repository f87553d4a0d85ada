package recognition

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Verifier drives the bounded capture/match/gate retry loop for a single
// claimed identity. Each call to Verify owns its attempt state, so concurrent
// runs (if a caller ever permits them) cannot corrupt each other's counters.
// The verifier assumes exclusive use of the frame source for the duration of
// a run.
type Verifier struct {
	Source   FrameSource
	Locator  FaceLocator
	Evidence EvidenceStore
	Sink     AttendanceSink
	Gate     *Gate

	// MaxRetries bounds the number of attempts per run.
	MaxRetries int
	// RetryDelay is the fixed pause after a low-confidence rejection, giving
	// the subject time to reposition. Pose failures do not pay it.
	RetryDelay time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewVerifier wires a verifier with the standard clock and sleeper.
func NewVerifier(source FrameSource, locator FaceLocator, evidence EvidenceStore, sink AttendanceSink, gate *Gate, maxRetries int, retryDelay time.Duration) *Verifier {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &Verifier{
		Source:     source,
		Locator:    locator,
		Evidence:   evidence,
		Sink:       sink,
		Gate:       gate,
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Verify runs up to MaxRetries attempts to confirm that the face in front of
// the camera belongs to the claimed identity, marking attendance exactly once
// on success. It returns (success, human-readable message); the same pair is
// delivered to notify, which may be nil. Frame acquisition failure ends the
// run immediately: a dead camera will not heal itself mid-loop.
func (v *Verifier) Verify(ctx context.Context, studentID, studentName string, sessionID *uint, notify Notifier) (bool, string) {
	if v.Source == nil || !v.Source.IsOpened() {
		return v.report(notify, false, "Camera not started.")
	}

	for attempt := 1; attempt <= v.MaxRetries; attempt++ {
		frame, ok := v.Source.Read()
		if !ok {
			return v.report(notify, false, "Failed to capture frame.")
		}
		log.Printf("verify: captured frame (attempt %d/%d) for %s", attempt, v.MaxRetries, studentName)

		probes, err := v.Locator.Locate(frame)
		if err != nil {
			log.Printf("verify: face location failed on attempt %d: %v", attempt, err)
			continue
		}

		probe, found := findProbe(probes, studentName)
		if !found {
			log.Printf("verify: no face matching %q in frame (attempt %d/%d)", studentName, attempt, v.MaxRetries)
			continue
		}

		result := v.Gate.Evaluate(probe, studentName)
		switch result.Outcome {
		case GatePoseInvalid:
			v.notify(notify, false, fmt.Sprintf("Face not frontal enough (Attempt %d/%d). Please adjust position.", attempt, v.MaxRetries))
			continue

		case GateAccepted:
			evidencePath, err := v.Evidence.Save(frame, studentID, v.now())
			if err != nil {
				return v.report(notify, false, fmt.Sprintf("Failed to save attendance snapshot: %v", err))
			}
			if err := v.Sink.MarkAttendance(studentID, studentName, sessionID, evidencePath, result.Confidence); err != nil {
				return v.report(notify, false, fmt.Sprintf("Failed to record attendance: %v", err))
			}
			return v.report(notify, true, fmt.Sprintf("Attendance marked for %s (Confidence: %d%% | Attempt %d)", studentName, result.Confidence, attempt))

		case GateLowConfidence:
			if attempt < v.MaxRetries {
				v.notify(notify, false, fmt.Sprintf("Confidence too low (%d%%). Retrying... (%d/%d)", result.Confidence, attempt+1, v.MaxRetries))
				if err := v.sleep(ctx, v.RetryDelay); err != nil {
					return v.report(notify, false, "Verification canceled.")
				}
				continue
			}
			return v.report(notify, false, fmt.Sprintf("Face recognized but confidence too low (%d%%). Minimum required: %d%%. No more retries.", result.Confidence, v.Gate.MinConfidence))

		case GateNameMismatch:
			// findProbe already filtered by label; a mismatch here means the
			// locator and gate disagree, which costs the attempt like any
			// unmatched frame.
			log.Printf("verify: probe label %q does not match claim %q (attempt %d/%d)", probe.Label, studentName, attempt, v.MaxRetries)
			continue
		}
	}

	return v.report(notify, false, "Face not recognized after maximum retries.")
}

// findProbe returns the first probe whose provisional label equals the
// claimed identity.
func findProbe(probes []Probe, claimedIdentity string) (Probe, bool) {
	for _, p := range probes {
		if p.Label == claimedIdentity {
			return p, true
		}
	}
	return Probe{}, false
}

func (v *Verifier) notify(notify Notifier, success bool, message string) {
	if notify != nil {
		notify(success, message)
	}
}

// report delivers a terminal outcome to the notifier and returns it.
func (v *Verifier) report(notify Notifier, success bool, message string) (bool, string) {
	v.notify(notify, success, message)
	return success, message
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
