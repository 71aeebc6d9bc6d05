package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockSource is a test frame source. It synthesizes blank BGR frames at a
// fixed geometry and records capture and release traffic so tests can assert
// on loop behaviour.
type MockSource struct {
	mu        sync.Mutex
	width     int
	height    int
	kind      BackendKind
	misses    int
	limit     int
	captures  int
	delivered int
	releases  int
	released  bool
}

// NewMockSource creates a source that yields unlimited frames of the given
// geometry and reports the Generic backend kind.
func NewMockSource(width, height int) *MockSource {
	return &MockSource{
		width:  width,
		height: height,
		kind:   Generic,
		limit:  -1,
	}
}

// SetKind overrides the reported backend kind.
func (s *MockSource) SetKind(kind BackendKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kind = kind
}

// MissNext makes the next n captures return nil, simulating transient
// failures.
func (s *MockSource) MissNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.misses = n
}

// LimitFrames caps how many frames the source will deliver; captures past
// the limit return nil. Negative means unlimited.
func (s *MockSource) LimitFrames(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = n
}

// Capture returns a fresh blank frame, or nil when released, missing, or out
// of frames. The caller owns the returned Mat.
func (s *MockSource) Capture() *gocv.Mat {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.captures++

	if s.released {
		return nil
	}
	if s.misses > 0 {
		s.misses--
		return nil
	}
	if s.limit >= 0 && s.delivered >= s.limit {
		return nil
	}

	s.delivered++
	mat := gocv.NewMatWithSize(s.height, s.width, gocv.MatTypeCV8UC3)
	return &mat
}

// Release marks the source released. Calls are counted so tests can verify
// the exactly-once teardown contract.
func (s *MockSource) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releases++
	s.released = true
}

// Kind reports the configured backend kind.
func (s *MockSource) Kind() BackendKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

// Captures reports how many capture calls the source has seen.
func (s *MockSource) Captures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captures
}

// Releases reports how many release calls the source has seen.
func (s *MockSource) Releases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases
}
