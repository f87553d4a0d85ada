package recognition

import (
	"image"
	"time"
)

// Landmark group names produced by the face locator. The pose gate only
// requires the eye groups, but locators typically supply the full set.
const (
	LandmarkLeftEye  = "left_eye"
	LandmarkRightEye = "right_eye"
	LandmarkNose     = "nose_bridge"
)

// Probe is one detected face in one frame, ready for verification. The
// locator resolves the provisional label and its gallery distance in the same
// pass that produces the embedding, so the verifier never has to re-run the
// nearest-neighbor search.
type Probe struct {
	// bounding region in source-image pixel coordinates
	Top, Right, Bottom, Left int

	// fixed-dimension face embedding extracted from the region crop
	Embedding []float32

	// named landmark point groups (left_eye, right_eye, nose_bridge, ...)
	Landmarks map[string][]image.Point

	// best-matching gallery label and its Euclidean distance
	Label    string
	Distance float64
}

// FrameSource supplies successive frames from a live feed. Read returning
// ok=false is fatal for a verification run.
type FrameSource interface {
	IsOpened() bool
	Read() (image.Image, bool)
}

// FaceLocator detects faces in a frame and returns fully-resolved probes.
type FaceLocator interface {
	Locate(frame image.Image) ([]Probe, error)
}

// EvidenceStore persists the accepted frame as an image artifact and returns
// the path it was written to.
type EvidenceStore interface {
	Save(frame image.Image, identity string, when time.Time) (string, error)
}

// AttendanceSink durably records one attendance event. Idempotency across
// calls is the sink's concern, not the verifier's.
type AttendanceSink interface {
	MarkAttendance(studentID, displayName string, sessionID *uint, evidencePath string, confidence int) error
}

// Notifier receives progress and terminal outcome messages during a run. It
// is optional; a nil Notifier disables reporting without changing behavior.
type Notifier func(success bool, message string)
