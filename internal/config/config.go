// Package config provides the configuration schema and loader for the mudra
// perception daemon.
package config

// LogLevel controls log verbosity for the daemon.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Backend selects the camera acquisition strategy.
type Backend string

const (
	// BackendAuto tries the direct-memory backend first and falls back to
	// probing generic video devices.
	BackendAuto Backend = "auto"

	// BackendDirect uses only the direct-memory (MIPI) backend.
	BackendDirect Backend = "direct"

	// BackendGeneric uses only the generic V4L2 backend.
	BackendGeneric Backend = "generic"
)

// IsValid reports whether b is a recognised backend selector.
func (b Backend) IsValid() bool {
	switch b {
	case BackendAuto, BackendDirect, BackendGeneric:
		return true
	}
	return false
}

// Config is the root configuration structure for mudra.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader];
// absent fields keep the values from [Default].
type Config struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Gesture  GestureConfig  `yaml:"gesture"`
	Actions  ActionsConfig  `yaml:"actions"`
	Audio    AudioConfig    `yaml:"audio"`
	Loop     LoopConfig     `yaml:"loop"`
	Journal  JournalConfig  `yaml:"journal"`
	Server   ServerConfig   `yaml:"server"`
}

// CameraConfig holds frame-source settings.
type CameraConfig struct {
	// Backend selects the acquisition strategy.
	Backend Backend `yaml:"backend"`

	// Width and Height are the target frame geometry in pixels.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// FPS is the requested capture frame rate.
	FPS int `yaml:"fps"`

	// ProbeDevices is how many generic video device indices (0..N-1) the
	// auto fallback probes before giving up.
	ProbeDevices int `yaml:"probe_devices"`

	// ShimPath overrides the discovered location of the direct-memory
	// capture shim. Leave empty to search the usual locations.
	ShimPath string `yaml:"shim_path"`

	// Evict runs the best-effort device reclaim step before opening.
	Evict bool `yaml:"evict"`
}

// DetectorConfig holds hand-landmark provider settings.
type DetectorConfig struct {
	// ScriptPath overrides the discovered location of the landmark worker
	// script. Leave empty to search the usual locations.
	ScriptPath string `yaml:"script_path"`

	// MaxHands caps how many hands the provider reports per frame.
	MaxHands int `yaml:"max_hands"`

	// ModelComplexity selects inference speed vs. accuracy (0 is fastest).
	ModelComplexity int `yaml:"model_complexity"`

	// MinDetectionConfidence and MinTrackingConfidence gate detections.
	MinDetectionConfidence float64 `yaml:"min_detection_confidence"`
	MinTrackingConfidence  float64 `yaml:"min_tracking_confidence"`
}

// GestureConfig holds classification thresholds. The defaults are empirically
// chosen for normalized image-space coordinates.
type GestureConfig struct {
	// ExtendThreshold is the minimum tip-beyond-joint wrist distance margin
	// for a finger to count as extended.
	ExtendThreshold float64 `yaml:"extend_threshold"`

	// PinchThreshold is the maximum thumb-tip to index-tip distance for a
	// pinch.
	PinchThreshold float64 `yaml:"pinch_threshold"`

	// MinExtendedFingers is how many of the five fingers must be extended
	// for an open palm.
	MinExtendedFingers int `yaml:"min_extended_fingers"`

	// Precedence orders the gesture tests; the first that holds wins.
	Precedence []string `yaml:"precedence"`
}

// ActionsConfig binds gestures to their side effects.
type ActionsConfig struct {
	// CooldownSeconds is the minimum interval between two triggers of the
	// same gesture.
	CooldownSeconds float64 `yaml:"cooldown_seconds"`

	// PlayPrimary and PlayFallback are the audio cues for a pinch; the
	// fallback is tried when the primary fails.
	PlayPrimary  string `yaml:"play_primary"`
	PlayFallback string `yaml:"play_fallback"`

	// RecordPath and RecordSeconds configure the open-palm recording.
	RecordPath    string  `yaml:"record_path"`
	RecordSeconds float64 `yaml:"record_seconds"`

	// Hooks maps a gesture name to a command argv run after its action.
	Hooks map[string][]string `yaml:"hooks"`

	// HookTimeoutSeconds bounds each hook command.
	HookTimeoutSeconds float64 `yaml:"hook_timeout_seconds"`
}

// AudioConfig holds the fixed hardware parameters for the ALSA capture and
// playback utilities.
type AudioConfig struct {
	Card           int `yaml:"card"`
	PlaybackDevice int `yaml:"playback_device"`
	CaptureDevice  int `yaml:"capture_device"`
	Channels       int `yaml:"channels"`
	SampleRate     int `yaml:"sample_rate"`
	Bits           int `yaml:"bits"`
	Fragments      int `yaml:"fragments"`
	FragmentSize   int `yaml:"fragment_size"`

	// Tinyplay and Tinycap name the playback/capture binaries; bare names
	// are resolved against PATH.
	Tinyplay string `yaml:"tinyplay"`
	Tinycap  string `yaml:"tinycap"`
}

// LoopConfig holds perception-loop settings.
type LoopConfig struct {
	// DurationSeconds bounds the run; 0 means run until cancelled.
	DurationSeconds float64 `yaml:"duration_seconds"`

	// ReportEvery is how many processed frames between FPS reports.
	ReportEvery int `yaml:"report_every"`

	// MotionGate skips landmark inference while the scene is static.
	MotionGate bool `yaml:"motion_gate"`

	// MotionThreshold is the percentage of changed pixels that counts as
	// motion when the gate is enabled.
	MotionThreshold float64 `yaml:"motion_threshold"`
}

// JournalConfig configures the optional sqlite event journal.
type JournalConfig struct {
	// Path is the sqlite database file; empty disables the journal.
	Path string `yaml:"path"`
}

// ServerConfig configures the optional status/telemetry HTTP server.
type ServerConfig struct {
	// ListenAddr is the TCP address to listen on (e.g., ":8080");
	// empty disables the server.
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the built-in configuration: a 320x240@30 auto-selected
// camera, single-hand detection, the stock thresholds, and a 60 second run.
func Default() Config {
	return Config{
		LogLevel: LogInfo,
		Camera: CameraConfig{
			Backend:      BackendAuto,
			Width:        320,
			Height:       240,
			FPS:          30,
			ProbeDevices: 4,
			Evict:        true,
		},
		Detector: DetectorConfig{
			MaxHands:               1,
			ModelComplexity:        0,
			MinDetectionConfidence: 0.5,
			MinTrackingConfidence:  0.5,
		},
		Gesture: GestureConfig{
			ExtendThreshold:    0.05,
			PinchThreshold:     0.05,
			MinExtendedFingers: 4,
			Precedence:         []string{"pinch", "open_palm"},
		},
		Actions: ActionsConfig{
			CooldownSeconds:    1.0,
			PlayPrimary:        "beep.wav",
			PlayFallback:       "welcome.wav",
			RecordPath:         "user.wav",
			RecordSeconds:      2.0,
			HookTimeoutSeconds: 5.0,
		},
		Audio: AudioConfig{
			Card:           0,
			PlaybackDevice: 0,
			CaptureDevice:  1,
			Channels:       4,
			SampleRate:     48000,
			Bits:           16,
			Fragments:      4,
			FragmentSize:   512,
			Tinyplay:       "tinyplay",
			Tinycap:        "tinycap",
		},
		Loop: LoopConfig{
			DurationSeconds: 60,
			ReportEvery:     30,
			MotionThreshold: 1.0,
		},
	}
}
