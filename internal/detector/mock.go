package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results, either as a fixed hand or
// as a scripted per-frame sequence.
type MockDetector struct {
	mu    sync.Mutex
	hand  *HandLandmarks
	queue []*HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHand sets the hand that will be returned by Detect. Pass nil for no hand.
func (m *MockDetector) SetHand(hand *HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hand = hand
}

// Queue appends scripted per-frame results; each Detect call consumes one
// entry (nil entries mean no hand) before falling back to the fixed hand.
func (m *MockDetector) Queue(hands ...*HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, hands...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next scripted result, the fixed hand, or the configured
// error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.hand, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// OpenPalmLandmarks returns a preset hand with all five fingers extended,
// the shape that triggers the open-palm gesture.
func OpenPalmLandmarks() *HandLandmarks {
	lm := &HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	lm.Points[Wrist] = Point{X: 0.50, Y: 0.80}

	// Thumb extended to the side
	lm.Points[ThumbCMC] = Point{X: 0.55, Y: 0.75}
	lm.Points[ThumbMCP] = Point{X: 0.62, Y: 0.70}
	lm.Points[ThumbIP] = Point{X: 0.68, Y: 0.65}
	lm.Points[ThumbTip] = Point{X: 0.73, Y: 0.60}

	// Index finger extended upward
	lm.Points[IndexMCP] = Point{X: 0.55, Y: 0.68}
	lm.Points[IndexPIP] = Point{X: 0.57, Y: 0.55}
	lm.Points[IndexDIP] = Point{X: 0.58, Y: 0.45}
	lm.Points[IndexTip] = Point{X: 0.58, Y: 0.35}

	// Middle finger extended upward (slightly longer)
	lm.Points[MiddleMCP] = Point{X: 0.50, Y: 0.66}
	lm.Points[MiddlePIP] = Point{X: 0.50, Y: 0.52}
	lm.Points[MiddleDIP] = Point{X: 0.50, Y: 0.40}
	lm.Points[MiddleTip] = Point{X: 0.50, Y: 0.28}

	// Ring finger extended upward
	lm.Points[RingMCP] = Point{X: 0.45, Y: 0.68}
	lm.Points[RingPIP] = Point{X: 0.43, Y: 0.55}
	lm.Points[RingDIP] = Point{X: 0.42, Y: 0.45}
	lm.Points[RingTip] = Point{X: 0.42, Y: 0.35}

	// Pinky finger extended upward
	lm.Points[PinkyMCP] = Point{X: 0.40, Y: 0.70}
	lm.Points[PinkyPIP] = Point{X: 0.37, Y: 0.60}
	lm.Points[PinkyDIP] = Point{X: 0.35, Y: 0.50}
	lm.Points[PinkyTip] = Point{X: 0.34, Y: 0.42}

	return lm
}

// PinchLandmarks returns a preset hand with the thumb and index finger tips
// touching and the remaining fingers curled, the shape that triggers the
// pinch gesture.
func PinchLandmarks() *HandLandmarks {
	lm := &HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	lm.Points[Wrist] = Point{X: 0.50, Y: 0.80}

	// Thumb reaching toward the index tip
	lm.Points[ThumbCMC] = Point{X: 0.55, Y: 0.75}
	lm.Points[ThumbMCP] = Point{X: 0.58, Y: 0.68}
	lm.Points[ThumbIP] = Point{X: 0.55, Y: 0.60}
	lm.Points[ThumbTip] = Point{X: 0.52, Y: 0.53}

	// Index finger curled down to meet the thumb
	lm.Points[IndexMCP] = Point{X: 0.55, Y: 0.68}
	lm.Points[IndexPIP] = Point{X: 0.54, Y: 0.56}
	lm.Points[IndexDIP] = Point{X: 0.53, Y: 0.54}
	lm.Points[IndexTip] = Point{X: 0.52, Y: 0.52}

	// Middle finger curled
	lm.Points[MiddleMCP] = Point{X: 0.50, Y: 0.66}
	lm.Points[MiddlePIP] = Point{X: 0.50, Y: 0.60}
	lm.Points[MiddleDIP] = Point{X: 0.49, Y: 0.64}
	lm.Points[MiddleTip] = Point{X: 0.48, Y: 0.68}

	// Ring finger curled
	lm.Points[RingMCP] = Point{X: 0.45, Y: 0.68}
	lm.Points[RingPIP] = Point{X: 0.45, Y: 0.62}
	lm.Points[RingDIP] = Point{X: 0.44, Y: 0.66}
	lm.Points[RingTip] = Point{X: 0.43, Y: 0.70}

	// Pinky finger curled
	lm.Points[PinkyMCP] = Point{X: 0.40, Y: 0.70}
	lm.Points[PinkyPIP] = Point{X: 0.40, Y: 0.65}
	lm.Points[PinkyDIP] = Point{X: 0.39, Y: 0.68}
	lm.Points[PinkyTip] = Point{X: 0.38, Y: 0.72}

	return lm
}

// FistLandmarks returns a preset hand with all fingers curled and the thumb
// folded across the palm, a shape that triggers no gesture.
func FistLandmarks() *HandLandmarks {
	lm := &HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	lm.Points[Wrist] = Point{X: 0.50, Y: 0.80}

	// Thumb folded across the palm, tip clear of the index tip
	lm.Points[ThumbCMC] = Point{X: 0.55, Y: 0.75}
	lm.Points[ThumbMCP] = Point{X: 0.56, Y: 0.70}
	lm.Points[ThumbIP] = Point{X: 0.50, Y: 0.69}
	lm.Points[ThumbTip] = Point{X: 0.46, Y: 0.70}

	// Index finger curled
	lm.Points[IndexMCP] = Point{X: 0.55, Y: 0.68}
	lm.Points[IndexPIP] = Point{X: 0.55, Y: 0.62}
	lm.Points[IndexDIP] = Point{X: 0.53, Y: 0.64}
	lm.Points[IndexTip] = Point{X: 0.52, Y: 0.67}

	// Middle finger curled
	lm.Points[MiddleMCP] = Point{X: 0.50, Y: 0.66}
	lm.Points[MiddlePIP] = Point{X: 0.50, Y: 0.60}
	lm.Points[MiddleDIP] = Point{X: 0.49, Y: 0.63}
	lm.Points[MiddleTip] = Point{X: 0.48, Y: 0.66}

	// Ring finger curled
	lm.Points[RingMCP] = Point{X: 0.45, Y: 0.68}
	lm.Points[RingPIP] = Point{X: 0.45, Y: 0.62}
	lm.Points[RingDIP] = Point{X: 0.45, Y: 0.65}
	lm.Points[RingTip] = Point{X: 0.44, Y: 0.68}

	// Pinky finger curled
	lm.Points[PinkyMCP] = Point{X: 0.40, Y: 0.70}
	lm.Points[PinkyPIP] = Point{X: 0.41, Y: 0.66}
	lm.Points[PinkyDIP] = Point{X: 0.41, Y: 0.69}
	lm.Points[PinkyTip] = Point{X: 0.41, Y: 0.71}

	return lm
}
