package media

import (
	"image"
	"log"

	"gocv.io/x/gocv"

	"github.com/campus-hub/attendance-backend/recognition"
)

// Standard 68-point landmark index ranges (iBUG annotation order).
var landmarkGroups = []struct {
	name       string
	start, end int // end exclusive
}{
	{"jaw", 0, 17},
	{"left_eyebrow", 17, 22},
	{"right_eyebrow", 22, 27},
	{recognition.LandmarkNose, 27, 31},
	{"nose_tip", 31, 36},
	{recognition.LandmarkLeftEye, 36, 42},
	{recognition.LandmarkRightEye, 42, 48},
	{"outer_lip", 48, 60},
	{"inner_lip", 60, 68},
}

// LandmarkModel predicts 68 facial landmark points from a face crop using a
// DNN regressor (e.g. PFLD exported to ONNX).
type LandmarkModel struct {
	Net     gocv.Net
	Enabled bool

	InputSizeW int
	InputSizeH int
}

// NewLandmarkModel loads the landmark regression network.
func NewLandmarkModel(modelPath string) *LandmarkModel {
	if modelPath == "" {
		log.Println("landmarks: model path is empty, disabling landmark model")
		return &LandmarkModel{Enabled: false}
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		log.Printf("landmarks: ERROR - ReadNet returned an empty network for %s", modelPath)
		return &LandmarkModel{Enabled: false}
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)
	log.Printf("landmarks: successfully loaded landmark model")

	return &LandmarkModel{
		Net:        net,
		Enabled:    true,
		InputSizeW: 112,
		InputSizeH: 112,
	}
}

func (m *LandmarkModel) Close() {
	if m != nil && m.Enabled {
		m.Net.Close()
		m.Enabled = false
	}
}

// DetectLandmarks predicts landmark groups for one face region. Points are
// translated back to source-image coordinates using the box origin. Returns
// nil when the model is disabled or the prediction is unusable; the pose gate
// treats that as a non-frontal face.
func (m *LandmarkModel) DetectLandmarks(faceRegion gocv.Mat, box FaceBox) map[string][]image.Point {
	if m == nil || !m.Enabled || faceRegion.Empty() {
		return nil
	}

	blob := gocv.BlobFromImage(faceRegion, 1.0/255.0, image.Pt(m.InputSizeW, m.InputSizeH), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	m.Net.SetInput(blob, "")
	output := m.Net.Forward("")
	defer output.Close()

	flattened := output.Reshape(1, 1)
	defer flattened.Close()

	// Output is 136 normalized values: x0,y0,x1,y1,... relative to the crop.
	if flattened.Cols() < 136 {
		log.Printf("landmarks: unexpected output size %d, want >= 136", flattened.Cols())
		return nil
	}

	boxW := float32(box.Right - box.Left)
	boxH := float32(box.Bottom - box.Top)
	points := make([]image.Point, 68)
	for i := 0; i < 68; i++ {
		x := flattened.GetFloatAt(0, i*2)
		y := flattened.GetFloatAt(0, i*2+1)
		points[i] = image.Pt(
			box.Left+int(x*boxW),
			box.Top+int(y*boxH),
		)
	}

	groups := make(map[string][]image.Point, len(landmarkGroups))
	for _, g := range landmarkGroups {
		groups[g.name] = points[g.start:g.end]
	}
	return groups
}
