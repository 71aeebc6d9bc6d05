package capture

import (
	"testing"
)

func TestMockSource_Defaults(t *testing.T) {
	src := NewMockSource(320, 240)

	if src.Kind() != Generic {
		t.Errorf("Kind = %q, want %q", src.Kind(), Generic)
	}
	if src.Captures() != 0 || src.Releases() != 0 {
		t.Error("fresh source should have no recorded traffic")
	}
}

func TestMockSource_SetKind(t *testing.T) {
	src := NewMockSource(320, 240)
	src.SetKind(DirectMemory)

	if src.Kind() != DirectMemory {
		t.Errorf("Kind = %q, want %q", src.Kind(), DirectMemory)
	}
}

func TestMockSource_MissNext(t *testing.T) {
	src := NewMockSource(320, 240)
	src.MissNext(2)

	if frame := src.Capture(); frame != nil {
		frame.Close()
		t.Fatal("first scripted miss should return nil")
	}
	if frame := src.Capture(); frame != nil {
		frame.Close()
		t.Fatal("second scripted miss should return nil")
	}
	if src.Captures() != 2 {
		t.Errorf("Captures = %d, want 2", src.Captures())
	}
}

func TestMockSource_DeliversFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	src := NewMockSource(320, 240)
	defer src.Release()

	frame := src.Capture()
	if frame == nil {
		t.Fatal("expected a frame")
	}
	defer frame.Close()

	if frame.Cols() != 320 || frame.Rows() != 240 {
		t.Errorf("frame is %dx%d, want 320x240", frame.Cols(), frame.Rows())
	}
	if frame.Channels() != 3 {
		t.Errorf("frame has %d channels, want 3", frame.Channels())
	}
}

func TestMockSource_LimitFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	src := NewMockSource(320, 240)
	defer src.Release()
	src.LimitFrames(3)

	for i := 0; i < 3; i++ {
		frame := src.Capture()
		if frame == nil {
			t.Fatalf("capture %d should deliver a frame", i)
		}
		frame.Close()
	}

	if frame := src.Capture(); frame != nil {
		frame.Close()
		t.Error("capture past the limit should return nil")
	}
}

func TestMockSource_MissesDoNotConsumeLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	src := NewMockSource(320, 240)
	defer src.Release()
	src.LimitFrames(1)
	src.MissNext(2)

	if frame := src.Capture(); frame != nil {
		frame.Close()
		t.Fatal("miss should return nil")
	}
	if frame := src.Capture(); frame != nil {
		frame.Close()
		t.Fatal("miss should return nil")
	}

	frame := src.Capture()
	if frame == nil {
		t.Fatal("limit should still allow one frame after the misses")
	}
	frame.Close()
}

func TestMockSource_ReleaseStopsDelivery(t *testing.T) {
	src := NewMockSource(320, 240)
	src.Release()

	if frame := src.Capture(); frame != nil {
		frame.Close()
		t.Error("released source should return nil")
	}

	src.Release()
	if src.Releases() != 2 {
		t.Errorf("Releases = %d, want 2 raw calls recorded", src.Releases())
	}
}
