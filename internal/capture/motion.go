package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame-differencing parameters.
const (
	// motionBlurKernel is the Gaussian kernel size used to suppress sensor
	// noise before differencing.
	motionBlurKernel = 21

	// motionDiffThreshold is the per-pixel intensity delta that counts as
	// change.
	motionDiffThreshold = 25
)

// MotionGate decides whether a frame differs enough from its predecessor to
// be worth running landmark inference on. The first frame only establishes
// the baseline and never reads as motion.
type MotionGate struct {
	mu        sync.Mutex
	threshold float64
	baseline  gocv.Mat
	primed    bool
}

// NewMotionGate creates a gate that opens when more than thresholdPercent of
// pixels changed between consecutive frames.
func NewMotionGate(thresholdPercent float64) *MotionGate {
	return &MotionGate{
		threshold: thresholdPercent,
		baseline:  gocv.NewMat(),
	}
}

// Changed reports whether the frame moved past the gate, along with the
// percentage of pixels that changed. Nil or empty frames never pass.
func (g *MotionGate) Changed(frame *gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(motionBlurKernel, motionBlurKernel), 0, 0, gocv.BorderDefault)

	if !g.primed {
		blurred.CopyTo(&g.baseline)
		g.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.baseline, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, motionDiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols()) * 100.0

	blurred.CopyTo(&g.baseline)

	return changed > g.threshold, changed
}

// Close releases the baseline frame.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.baseline.Empty() {
		g.baseline.Close()
		g.baseline = gocv.NewMat()
	}
	g.primed = false
}
