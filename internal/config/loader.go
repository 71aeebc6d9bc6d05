package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidGestureNames lists the gesture labels that may appear in
// gesture.precedence and actions.hooks.
var ValidGestureNames = []string{"pinch", "open_palm"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	// Camera
	if !cfg.Camera.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("camera.backend %q is invalid; valid values: auto, direct, generic", cfg.Camera.Backend))
	}
	if cfg.Camera.Width <= 0 || cfg.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera geometry %dx%d is invalid; both dimensions must be positive", cfg.Camera.Width, cfg.Camera.Height))
	}
	if cfg.Camera.FPS <= 0 {
		errs = append(errs, fmt.Errorf("camera.fps %d is invalid; must be positive", cfg.Camera.FPS))
	}
	if cfg.Camera.ProbeDevices < 1 || cfg.Camera.ProbeDevices > 16 {
		errs = append(errs, fmt.Errorf("camera.probe_devices %d is out of range [1, 16]", cfg.Camera.ProbeDevices))
	}

	// Detector
	if cfg.Detector.MaxHands < 1 {
		errs = append(errs, fmt.Errorf("detector.max_hands %d is invalid; must be at least 1", cfg.Detector.MaxHands))
	}
	if cfg.Detector.ModelComplexity < 0 || cfg.Detector.ModelComplexity > 1 {
		errs = append(errs, fmt.Errorf("detector.model_complexity %d is out of range [0, 1]", cfg.Detector.ModelComplexity))
	}
	if c := cfg.Detector.MinDetectionConfidence; c < 0 || c > 1 {
		errs = append(errs, fmt.Errorf("detector.min_detection_confidence %.2f is out of range [0, 1]", c))
	}
	if c := cfg.Detector.MinTrackingConfidence; c < 0 || c > 1 {
		errs = append(errs, fmt.Errorf("detector.min_tracking_confidence %.2f is out of range [0, 1]", c))
	}

	// Gesture thresholds
	if cfg.Gesture.ExtendThreshold <= 0 {
		errs = append(errs, fmt.Errorf("gesture.extend_threshold %.3f is invalid; must be positive", cfg.Gesture.ExtendThreshold))
	}
	if cfg.Gesture.PinchThreshold <= 0 {
		errs = append(errs, fmt.Errorf("gesture.pinch_threshold %.3f is invalid; must be positive", cfg.Gesture.PinchThreshold))
	}
	if n := cfg.Gesture.MinExtendedFingers; n < 1 || n > 5 {
		errs = append(errs, fmt.Errorf("gesture.min_extended_fingers %d is out of range [1, 5]", n))
	}
	seen := make(map[string]int, len(cfg.Gesture.Precedence))
	for i, name := range cfg.Gesture.Precedence {
		if !slices.Contains(ValidGestureNames, name) {
			errs = append(errs, fmt.Errorf("gesture.precedence[%d] %q is not a known gesture; valid values: pinch, open_palm", i, name))
			continue
		}
		if prev, ok := seen[name]; ok {
			errs = append(errs, fmt.Errorf("gesture.precedence[%d] %q is a duplicate of precedence[%d]", i, name, prev))
		}
		seen[name] = i
	}
	if len(cfg.Gesture.Precedence) == 0 {
		errs = append(errs, errors.New("gesture.precedence must name at least one gesture"))
	}

	// Actions
	if cfg.Actions.CooldownSeconds < 0 {
		errs = append(errs, fmt.Errorf("actions.cooldown_seconds %.2f is invalid; must not be negative", cfg.Actions.CooldownSeconds))
	}
	if cfg.Actions.RecordSeconds <= 0 {
		errs = append(errs, fmt.Errorf("actions.record_seconds %.2f is invalid; must be positive", cfg.Actions.RecordSeconds))
	}
	if cfg.Actions.HookTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("actions.hook_timeout_seconds %.2f is invalid; must be positive", cfg.Actions.HookTimeoutSeconds))
	}
	for name, argv := range cfg.Actions.Hooks {
		if !slices.Contains(ValidGestureNames, name) {
			errs = append(errs, fmt.Errorf("actions.hooks key %q is not a known gesture; valid values: pinch, open_palm", name))
		}
		if len(argv) == 0 {
			errs = append(errs, fmt.Errorf("actions.hooks[%q] is empty; a hook needs at least a command name", name))
		}
	}

	// Audio
	if cfg.Audio.Channels <= 0 {
		errs = append(errs, fmt.Errorf("audio.channels %d is invalid; must be positive", cfg.Audio.Channels))
	}
	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d is invalid; must be positive", cfg.Audio.SampleRate))
	}
	if cfg.Audio.Bits != 16 && cfg.Audio.Bits != 24 && cfg.Audio.Bits != 32 {
		errs = append(errs, fmt.Errorf("audio.bits %d is invalid; valid values: 16, 24, 32", cfg.Audio.Bits))
	}
	if cfg.Audio.Fragments <= 0 || cfg.Audio.FragmentSize <= 0 {
		errs = append(errs, fmt.Errorf("audio fragmentation %dx%d is invalid; both values must be positive", cfg.Audio.Fragments, cfg.Audio.FragmentSize))
	}
	if cfg.Audio.Tinyplay == "" || cfg.Audio.Tinycap == "" {
		errs = append(errs, errors.New("audio.tinyplay and audio.tinycap must not be empty"))
	}

	// Loop
	if cfg.Loop.DurationSeconds < 0 {
		errs = append(errs, fmt.Errorf("loop.duration_seconds %.2f is invalid; use 0 for an unbounded run", cfg.Loop.DurationSeconds))
	}
	if cfg.Loop.ReportEvery <= 0 {
		errs = append(errs, fmt.Errorf("loop.report_every %d is invalid; must be positive", cfg.Loop.ReportEvery))
	}
	if cfg.Loop.MotionGate && cfg.Loop.MotionThreshold <= 0 {
		errs = append(errs, fmt.Errorf("loop.motion_threshold %.2f is invalid while the motion gate is enabled", cfg.Loop.MotionThreshold))
	}

	// Soft issues
	if cfg.Journal.Path == "" && cfg.Server.ListenAddr != "" {
		slog.Warn("server is enabled without a journal; the run and event endpoints will not be served")
	}

	return errors.Join(errs...)
}
