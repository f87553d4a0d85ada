package media

import (
	"fmt"
	"image"
	"log"
	"sync"

	"gocv.io/x/gocv"
)

// Camera wraps a gocv video capture device as a frame source for the
// verification engine. Reads are serialized; the verification worker is the
// only consumer during a run.
type Camera struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	device  int
}

// OpenCamera opens the capture device with the given index.
func OpenCamera(device int) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera device %d: %w", device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("camera device %d is not available", device)
	}
	log.Printf("camera: opened device %d", device)
	return &Camera{capture: capture, device: device}, nil
}

// IsOpened reports whether the capture device is usable.
func (c *Camera) IsOpened() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil && c.capture.IsOpened()
}

// Read grabs one frame and converts it to an image.Image. ok=false means the
// device failed to deliver a frame.
func (c *Camera) Read() (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, false
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if !c.capture.Read(&mat) || mat.Empty() {
		return nil, false
	}

	img, err := mat.ToImage()
	if err != nil {
		log.Printf("camera: failed to convert frame: %v", err)
		return nil, false
	}
	return img, true
}

// Close releases the capture device.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	log.Printf("camera: closed device %d", c.device)
	return err
}
