package capture

import (
	"fmt"
	"strconv"

	"gocv.io/x/gocv"
)

// Source supplies frames in sequence. It is a pull-based iterator with no
// frame-rate guarantee; Next returns false when the stream ends.
type Source interface {
	Next(frame *gocv.Mat) bool
	Close() error
}

// Camera reads frames from a local device or an RTSP/file URL.
type Camera struct {
	capture *gocv.VideoCapture
}

// Open connects to the camera. The URL is either a device index ("0") or a
// stream URL. Failure to open the frame source is the one fatal startup
// error for the whole system.
func Open(url string) (*Camera, error) {
	var capture *gocv.VideoCapture
	var err error

	if device, convErr := strconv.Atoi(url); convErr == nil {
		capture, err = gocv.VideoCaptureDevice(device)
	} else {
		capture, err = gocv.OpenVideoCapture(url)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %q: %w", url, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("camera %q is not opened", url)
	}
	return &Camera{capture: capture}, nil
}

func (c *Camera) Next(frame *gocv.Mat) bool {
	if ok := c.capture.Read(frame); !ok || frame.Empty() {
		return false
	}
	return true
}

func (c *Camera) Close() error {
	return c.capture.Close()
}
