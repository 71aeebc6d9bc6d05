package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand-landmark provider implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected hand, or nil
	// when no hand is confidently detected.
	Detect(frame *gocv.Mat) (*HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for landmark detection.
type Config struct {
	// MaxHands is the maximum number of hands the provider tracks. The
	// detector still surfaces at most one hand per frame.
	MaxHands int

	// ModelComplexity selects inference speed vs. accuracy; 0 is fastest.
	ModelComplexity int

	// MinDetectionConfidence is the minimum detection confidence (0.0-1.0).
	MinDetectionConfidence float64

	// MinTrackingConfidence is the minimum tracking confidence (0.0-1.0).
	MinTrackingConfidence float64

	// ScriptPath overrides the discovered worker script location.
	ScriptPath string
}

// DefaultConfig returns a Config tuned for a single hand on embedded hardware.
func DefaultConfig() Config {
	return Config{
		MaxHands:               1,
		ModelComplexity:        0,
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
	}
}
