package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestNewMotionGate(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
	}{
		{name: "default threshold", threshold: 1.0},
		{name: "high threshold", threshold: 5.0},
		{name: "low threshold", threshold: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewMotionGate(tt.threshold)
			if g == nil {
				t.Fatal("NewMotionGate returned nil")
			}
			defer g.Close()

			if g.threshold != tt.threshold {
				t.Errorf("threshold = %f, want %f", g.threshold, tt.threshold)
			}
			if g.primed {
				t.Error("gate should not be primed before the first frame")
			}
		})
	}
}

func TestMotionGate_NilFrame(t *testing.T) {
	g := NewMotionGate(1.0)
	defer g.Close()

	changed, percent := g.Changed(nil)
	if changed {
		t.Error("nil frame should never pass the gate")
	}
	if percent != 0 {
		t.Errorf("nil frame percent = %f, want 0", percent)
	}
	if g.primed {
		t.Error("nil frame should not prime the baseline")
	}
}

func TestMotionGate_FirstFramePrimesBaseline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(1.0)
	defer g.Close()

	frame := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer frame.Close()

	changed, percent := g.Changed(&frame)
	if changed {
		t.Error("first frame should only establish the baseline")
	}
	if percent != 0 {
		t.Errorf("first frame percent = %f, want 0", percent)
	}
	if !g.primed {
		t.Error("gate should be primed after the first frame")
	}
}

func TestMotionGate_NoMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(1.0)
	defer g.Close()

	frame1 := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	g.Changed(&frame1)

	changed, percent := g.Changed(&frame2)
	if changed {
		t.Errorf("identical frames should not pass the gate, percent = %f", percent)
	}
}

func TestMotionGate_WithMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(1.0)
	defer g.Close()

	black := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer black.Close()

	white := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	g.Changed(&black)

	changed, percent := g.Changed(&white)
	if !changed {
		t.Errorf("black to white should pass the gate, percent = %f", percent)
	}
	if percent < 50.0 {
		t.Errorf("percent = %f, expected > 50 for a full-frame change", percent)
	}
}

func TestMotionGate_CloseThenReuse(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(1.0)

	frame := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer frame.Close()

	g.Changed(&frame)
	g.Close()

	// A closed gate starts over: the next frame primes a fresh baseline.
	changed, _ := g.Changed(&frame)
	if changed {
		t.Error("first frame after close should not pass the gate")
	}
	g.Close()
}

func TestMotionGate_CloseIsIdempotent(t *testing.T) {
	g := NewMotionGate(1.0)
	g.Close()
	g.Close()
}
