// Package gesture classifies hand landmarks into discrete gesture labels
// using threshold geometry on normalized image-space coordinates.
package gesture

import (
	"fmt"
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// Gesture is the classification outcome for one frame. Exactly one label is
// produced per detected hand.
type Gesture string

const (
	None     Gesture = "none"
	Pinch    Gesture = "pinch"
	OpenPalm Gesture = "open_palm"
)

// ParseGesture maps a configuration name to its Gesture label.
func ParseGesture(name string) (Gesture, error) {
	switch Gesture(name) {
	case Pinch, OpenPalm:
		return Gesture(name), nil
	case None:
		return None, nil
	}
	return None, fmt.Errorf("unknown gesture %q", name)
}

// Finger identifies one digit by its tip and the proximal joint used as the
// extension reference.
type Finger struct {
	Name  string
	Tip   int
	Joint int
}

// Fingers lists the five digits in thumb-to-pinky order.
var Fingers = [5]Finger{
	{"thumb", detector.ThumbTip, detector.ThumbMCP},
	{"index", detector.IndexTip, detector.IndexPIP},
	{"middle", detector.MiddleTip, detector.MiddlePIP},
	{"ring", detector.RingTip, detector.RingPIP},
	{"pinky", detector.PinkyTip, detector.PinkyPIP},
}

// Config holds the classification thresholds and the gesture test order.
// The defaults are empirically chosen for normalized coordinates and tolerate
// one noisy or occluded digit in the open-palm count.
type Config struct {
	// ExtendThreshold is the minimum margin by which a fingertip must be
	// farther from the wrist than its proximal joint to count as extended.
	ExtendThreshold float64

	// PinchThreshold is the maximum thumb-tip to index-tip distance for a
	// pinch.
	PinchThreshold float64

	// MinExtendedFingers is how many of the five digits must be extended
	// for an open palm.
	MinExtendedFingers int

	// Precedence orders the gesture tests; the first that holds wins, so
	// the outcome is mutually exclusive per frame.
	Precedence []Gesture
}

// DefaultConfig returns the stock thresholds: 0.05 margins, 4-of-5 fingers,
// pinch tested before open palm.
func DefaultConfig() Config {
	return Config{
		ExtendThreshold:    0.05,
		PinchThreshold:     0.05,
		MinExtendedFingers: 4,
		Precedence:         []Gesture{Pinch, OpenPalm},
	}
}

// Classifier maps one hand's landmarks to a gesture label. It is stateless;
// the same landmarks always classify the same way.
type Classifier struct {
	config Config
}

// New creates a Classifier, rejecting configurations that name an unknown
// gesture or test the same gesture twice.
func New(config Config) (*Classifier, error) {
	if config.ExtendThreshold <= 0 {
		return nil, fmt.Errorf("extend threshold %.3f must be positive", config.ExtendThreshold)
	}
	if config.PinchThreshold <= 0 {
		return nil, fmt.Errorf("pinch threshold %.3f must be positive", config.PinchThreshold)
	}
	if config.MinExtendedFingers < 1 || config.MinExtendedFingers > len(Fingers) {
		return nil, fmt.Errorf("min extended fingers %d out of range [1, %d]", config.MinExtendedFingers, len(Fingers))
	}
	if len(config.Precedence) == 0 {
		return nil, fmt.Errorf("precedence must name at least one gesture")
	}
	seen := make(map[Gesture]bool, len(config.Precedence))
	for _, g := range config.Precedence {
		if g != Pinch && g != OpenPalm {
			return nil, fmt.Errorf("precedence names unknown gesture %q", g)
		}
		if seen[g] {
			return nil, fmt.Errorf("precedence tests %q twice", g)
		}
		seen[g] = true
	}
	return &Classifier{config: config}, nil
}

// Config returns the thresholds the classifier was built with.
func (c *Classifier) Config() Config {
	return c.config
}

// Distance returns the Euclidean distance between two keypoints in
// normalized image-space units.
func Distance(a, b detector.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// FingerExtended reports whether the finger's tip is farther from the wrist
// than its proximal joint by more than the extend threshold. The margin makes
// the test robust to landmark jitter.
func (c *Classifier) FingerExtended(hand *detector.HandLandmarks, finger Finger) bool {
	wrist := hand.Points[detector.Wrist]
	tipDist := Distance(wrist, hand.Points[finger.Tip])
	jointDist := Distance(wrist, hand.Points[finger.Joint])
	return tipDist-jointDist > c.config.ExtendThreshold
}

// ExtendedCount returns how many of the five digits are extended.
func (c *Classifier) ExtendedCount(hand *detector.HandLandmarks) int {
	count := 0
	for _, f := range Fingers {
		if c.FingerExtended(hand, f) {
			count++
		}
	}
	return count
}

// IsPinch reports whether the thumb and index fingertips are within the pinch
// threshold of each other.
func (c *Classifier) IsPinch(hand *detector.HandLandmarks) bool {
	return Distance(hand.Points[detector.ThumbTip], hand.Points[detector.IndexTip]) < c.config.PinchThreshold
}

// IsOpenPalm reports whether at least MinExtendedFingers digits are extended.
func (c *Classifier) IsOpenPalm(hand *detector.HandLandmarks) bool {
	return c.ExtendedCount(hand) >= c.config.MinExtendedFingers
}

// Classify maps the hand to exactly one gesture label. Tests run in the
// configured precedence order, so a hand satisfying several gestures gets the
// first one. A nil hand classifies as None.
func (c *Classifier) Classify(hand *detector.HandLandmarks) Gesture {
	if hand == nil {
		return None
	}
	for _, g := range c.config.Precedence {
		switch g {
		case Pinch:
			if c.IsPinch(hand) {
				return Pinch
			}
		case OpenPalm:
			if c.IsOpenPalm(hand) {
				return OpenPalm
			}
		}
	}
	return None
}
