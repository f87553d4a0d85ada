package media

import (
	"fmt"
	"image"
	"log"

	"gocv.io/x/gocv"

	"github.com/campus-hub/attendance-backend/recognition"
)

// Locator combines face detection, landmark prediction, embedding extraction
// and gallery matching into a single pass: every probe it returns already
// carries its best gallery label and the raw distance, so downstream code
// never re-runs the nearest-neighbor search.
type Locator struct {
	detector  *DNNFaceDetector
	landmarks *LandmarkModel
	embedder  *EmbeddingModel
	gallery   *recognition.Gallery
}

var _ recognition.FaceLocator = (*Locator)(nil)

// NewLocator wires the detection pipeline over a loaded gallery.
func NewLocator(detector *DNNFaceDetector, landmarks *LandmarkModel, embedder *EmbeddingModel, gallery *recognition.Gallery) (*Locator, error) {
	if detector == nil || !detector.Enabled {
		return nil, fmt.Errorf("face detector is not available")
	}
	if embedder == nil || !embedder.Enabled {
		return nil, fmt.Errorf("embedding model is not available")
	}
	if gallery == nil || gallery.Len() == 0 {
		return nil, recognition.ErrEmptyGallery
	}
	return &Locator{
		detector:  detector,
		landmarks: landmarks,
		embedder:  embedder,
		gallery:   gallery,
	}, nil
}

// Locate detects all faces in the frame and resolves each to a probe.
func (l *Locator) Locate(frame image.Image) ([]recognition.Probe, error) {
	mat, err := frameToBGR(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	boxes := l.detector.DetectFaces(mat)
	if len(boxes) == 0 {
		return nil, nil
	}

	probes := make([]recognition.Probe, 0, len(boxes))
	for _, box := range boxes {
		rect := image.Rect(box.Left, box.Top, box.Right, box.Bottom)
		region := mat.Region(rect)

		embedding := l.embedder.ExtractEmbedding(region)
		if embedding == nil {
			region.Close()
			log.Printf("locator: skipping face at %v, embedding extraction failed", rect)
			continue
		}

		landmarks := l.landmarks.DetectLandmarks(region, box)
		region.Close()

		label, distance, err := recognition.Match(embedding, l.gallery)
		if err != nil {
			return nil, fmt.Errorf("gallery match failed: %w", err)
		}

		probes = append(probes, recognition.Probe{
			Top:       box.Top,
			Right:     box.Right,
			Bottom:    box.Bottom,
			Left:      box.Left,
			Embedding: embedding,
			Landmarks: landmarks,
			Label:     label,
			Distance:  distance,
		})
	}
	return probes, nil
}

// frameToBGR converts a decoded frame into the BGR Mat the DNN models expect.
func frameToBGR(frame image.Image) (gocv.Mat, error) {
	rgb, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to convert frame to Mat: %w", err)
	}

	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)
	rgb.Close()
	return bgr, nil
}
