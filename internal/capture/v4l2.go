package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// genericBackend drives a V4L2 video device through OpenCV. Devices report
// their own geometry, so frames are resampled to the target size on the way
// out.
type genericBackend struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	device  int
	width   int
	height  int
}

// newGenericBackend probes device indices 0..ProbeDevices-1 and binds to the
// first one that accepts the configuration and yields a test frame. Devices
// that fail the test capture are released before the next index is probed.
func newGenericBackend(config Config) (*genericBackend, error) {
	for idx := 0; idx < config.ProbeDevices; idx++ {
		capture, err := gocv.OpenVideoCapture(idx)
		if err != nil {
			continue
		}

		capture.Set(gocv.VideoCaptureFrameWidth, float64(config.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(config.Height))
		capture.Set(gocv.VideoCaptureFPS, float64(config.FPS))

		// One test capture decides whether the device actually delivers.
		probe := gocv.NewMat()
		ok := capture.Read(&probe)
		empty := probe.Empty()
		probe.Close()

		if !ok || empty {
			capture.Close()
			continue
		}

		return &genericBackend{
			capture: capture,
			device:  idx,
			width:   config.Width,
			height:  config.Height,
		}, nil
	}

	return nil, fmt.Errorf("no video device in 0..%d accepted %dx%d", config.ProbeDevices-1, config.Width, config.Height)
}

// Capture reads one frame and resamples it to the target geometry.
// Transient read failures return nil.
func (b *genericBackend) Capture() *gocv.Mat {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.capture == nil {
		return nil
	}

	mat := gocv.NewMat()
	if ok := b.capture.Read(&mat); !ok {
		mat.Close()
		return nil
	}
	if mat.Empty() {
		mat.Close()
		return nil
	}

	return EnsureSize(&mat, b.width, b.height)
}

// Release closes the video device. Further captures return nil.
func (b *genericBackend) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.capture == nil {
		return nil
	}

	err := b.capture.Close()
	b.capture = nil
	return err
}

func (b *genericBackend) Kind() BackendKind {
	return Generic
}

// Device reports the bound /dev/video index.
func (b *genericBackend) Device() int {
	return b.device
}
