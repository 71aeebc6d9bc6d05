package capture

import (
	"context"
	"errors"
	"testing"
)

// TestOpen_RealCamera probes whatever camera hardware the host actually has.
// It passes trivially on machines without one.
func TestOpen_RealCamera(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	src, err := Open(context.Background(), Auto, Config{})
	if errors.Is(err, ErrNoBackendAvailable) {
		t.Skip("no camera hardware available")
	}
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Release()

	if kind := src.Kind(); kind != DirectMemory && kind != Generic {
		t.Errorf("Kind() = %q, want a known backend", kind)
	}

	// A transient nil is acceptable; a frame must match the default
	// geometry.
	if frame := src.Capture(); frame != nil {
		defer frame.Close()
		if frame.Cols() != DefaultWidth || frame.Rows() != DefaultHeight {
			t.Errorf("frame geometry = %dx%d, want %dx%d",
				frame.Cols(), frame.Rows(), DefaultWidth, DefaultHeight)
		}
	}
}
