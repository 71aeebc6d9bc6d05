package config_test

import (
	"strings"
	"testing"

	"github.com/ayusman/mudra/internal/config"
)

func TestLoadFromReader_EmptyKeepsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def := config.Default()
	if cfg.Camera.Backend != def.Camera.Backend {
		t.Errorf("backend = %q, want %q", cfg.Camera.Backend, def.Camera.Backend)
	}
	if cfg.Camera.Width != 320 || cfg.Camera.Height != 240 || cfg.Camera.FPS != 30 {
		t.Errorf("camera geometry = %dx%d@%d, want 320x240@30", cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)
	}
	if !cfg.Camera.Evict {
		t.Error("eviction should default to enabled")
	}
	if cfg.Gesture.ExtendThreshold != 0.05 || cfg.Gesture.PinchThreshold != 0.05 {
		t.Errorf("thresholds = %.3f/%.3f, want 0.05/0.05", cfg.Gesture.ExtendThreshold, cfg.Gesture.PinchThreshold)
	}
	if cfg.Actions.CooldownSeconds != 1.0 {
		t.Errorf("cooldown = %.2f, want 1.00", cfg.Actions.CooldownSeconds)
	}
}

func TestLoadFromReader_OverridesKeepUnnamedDefaults(t *testing.T) {
	t.Parallel()
	yaml := `
camera:
  backend: generic
  fps: 15
loop:
  duration_seconds: 0
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Camera.Backend != config.BackendGeneric {
		t.Errorf("backend = %q, want generic", cfg.Camera.Backend)
	}
	if cfg.Camera.FPS != 15 {
		t.Errorf("fps = %d, want 15", cfg.Camera.FPS)
	}
	if cfg.Camera.Width != 320 {
		t.Errorf("width = %d, want default 320", cfg.Camera.Width)
	}
	if cfg.Loop.DurationSeconds != 0 {
		t.Errorf("duration = %.1f, want 0 (unbounded)", cfg.Loop.DurationSeconds)
	}
	if cfg.Loop.ReportEvery != 30 {
		t.Errorf("report_every = %d, want default 30", cfg.Loop.ReportEvery)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	yaml := `
camera:
  backend: auto
  lens_cap: removed
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
	if !strings.Contains(err.Error(), "lens_cap") {
		t.Errorf("error should name the unknown field, got: %v", err)
	}
}

func TestValidate_InvalidBackend(t *testing.T) {
	t.Parallel()
	yaml := `
camera:
  backend: firewire
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid backend, got nil")
	}
	if !strings.Contains(err.Error(), "firewire") {
		t.Errorf("error should quote the bad backend, got: %v", err)
	}
}

func TestValidate_DuplicatePrecedence(t *testing.T) {
	t.Parallel()
	yaml := `
gesture:
  precedence: [pinch, pinch]
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for duplicate precedence entry, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error should mention duplicate, got: %v", err)
	}
}

func TestValidate_UnknownHookGesture(t *testing.T) {
	t.Parallel()
	yaml := `
actions:
  hooks:
    wave: ["notify-send", "hello"]
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown hook gesture, got nil")
	}
	if !strings.Contains(err.Error(), "wave") {
		t.Errorf("error should name the unknown gesture, got: %v", err)
	}
}

func TestValidate_JoinsMultipleFailures(t *testing.T) {
	t.Parallel()
	yaml := `
camera:
  fps: 0
gesture:
  min_extended_fingers: 9
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	msg := err.Error()
	if !strings.Contains(msg, "camera.fps") || !strings.Contains(msg, "min_extended_fingers") {
		t.Errorf("error should report both failures, got: %v", err)
	}
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	if err := config.Validate(&cfg); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}
