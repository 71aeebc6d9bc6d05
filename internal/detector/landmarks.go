// Package detector provides the hand-landmark provider interface and types
// for gesture classification.
package detector

// Hand landmark indices following the MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point is a keypoint in normalized image coordinates: x and y are in [0, 1]
// relative to frame width and height.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HandLandmarks is one detected hand: exactly 21 keypoints in the MediaPipe
// index order. Partial detections are never surfaced; a hand either has all
// 21 points or is dropped at the provider boundary.
type HandLandmarks struct {
	Points     [NumLandmarks]Point `json:"points"`
	Handedness string              `json:"handedness"` // "Left" or "Right"
	Score      float64             `json:"score"`
}
