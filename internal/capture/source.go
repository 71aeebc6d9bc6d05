// Package capture acquires video frames from contended camera hardware
// through one of two mutually exclusive backends: a direct-memory MIPI
// pipeline and a generic V4L2 device. A FrameSource selects a working backend
// at open time and normalizes every frame to BGR at the configured geometry.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture geometry for the target hardware.
const (
	DefaultWidth        = 320
	DefaultHeight       = 240
	DefaultFPS          = 30
	DefaultProbeDevices = 4
)

// ErrNoBackendAvailable is returned by Open when no viable backend is found
// under automatic selection.
var ErrNoBackendAvailable = errors.New("no camera backend available")

// BackendKind identifies the active hardware-access strategy of an opened
// FrameSource. It is set once at open time and never changes until release.
type BackendKind string

const (
	// DirectMemory is the low-latency MIPI pipeline reached through the
	// vendor capture shim.
	DirectMemory BackendKind = "direct_memory"

	// Generic is a V4L2 video device driven through OpenCV.
	Generic BackendKind = "generic"
)

// Preference selects which backends Open may try.
type Preference string

const (
	// Auto tries DirectMemory first and falls back to probing Generic
	// device indices.
	Auto Preference = "auto"

	// PreferDirect tries only the direct-memory backend.
	PreferDirect Preference = "direct"

	// PreferGeneric tries only the generic backend.
	PreferGeneric Preference = "generic"
)

// IsValid reports whether p is a recognised preference.
func (p Preference) IsValid() bool {
	switch p {
	case Auto, PreferDirect, PreferGeneric:
		return true
	}
	return false
}

// BackendError reports that an explicitly requested backend could not be
// opened. Auto selection never produces one; it falls through instead.
type BackendError struct {
	Kind BackendKind
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend unavailable: %v", e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Backend is one concrete hardware acquisition strategy. Capture returns nil
// on any transient failure; errors never propagate past the backend boundary.
type Backend interface {
	Capture() *gocv.Mat
	Release() error
	Kind() BackendKind
}

// Config holds frame-source settings.
type Config struct {
	// Width and Height are the target frame geometry; every captured frame
	// comes back BGR at exactly this size.
	Width  int
	Height int

	// FPS is the requested capture rate.
	FPS int

	// ProbeDevices is how many generic device indices (0..N-1) automatic
	// fallback probes.
	ProbeDevices int

	// ShimPath overrides the discovered direct-memory shim location.
	ShimPath string

	// Reclaimer evicts contending device holders before open. nil skips
	// eviction. Reclaim failures are logged, never propagated.
	Reclaimer Reclaimer

	// DirectOpener and GenericOpener override backend construction; tests
	// inject fakes here. nil selects the real hardware backends.
	DirectOpener  func(Config) (Backend, error)
	GenericOpener func(Config) (Backend, error)
}

// withDefaults fills zero fields with the package defaults.
func (c Config) withDefaults() Config {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}
	if c.ProbeDevices <= 0 {
		c.ProbeDevices = DefaultProbeDevices
	}
	if c.DirectOpener == nil {
		c.DirectOpener = func(cfg Config) (Backend, error) { return newDirectBackend(cfg) }
	}
	if c.GenericOpener == nil {
		c.GenericOpener = func(cfg Config) (Backend, error) { return newGenericBackend(cfg) }
	}
	return c
}

// FrameSource owns exclusive access to one camera through its selected
// backend. It is safe for use from one goroutine at a time.
type FrameSource struct {
	mu       sync.Mutex
	backend  Backend
	kind     BackendKind
	released bool
}

// Open selects a backend per the preference and returns a FrameSource bound
// to it. Device eviction runs first when a Reclaimer is configured; eviction
// is hygiene, not a precondition, so its failures are logged and swallowed.
//
// Under Auto the direct-memory backend is tried first; any failure falls
// through to probing generic device indices. An explicit preference tries
// only that backend and surfaces a *BackendError on failure.
func Open(ctx context.Context, pref Preference, config Config) (*FrameSource, error) {
	config = config.withDefaults()

	if config.Reclaimer != nil {
		if err := config.Reclaimer.Reclaim(ctx); err != nil {
			slog.Debug("device reclaim finished with errors", "err", err)
		}
	}

	switch pref {
	case Auto:
		if b, err := config.DirectOpener(config); err == nil {
			slog.Info("camera backend selected", "backend", DirectMemory)
			return newFrameSource(b), nil
		} else {
			slog.Debug("direct-memory backend unavailable, trying generic", "err", err)
		}
		if b, err := config.GenericOpener(config); err == nil {
			slog.Info("camera backend selected", "backend", Generic)
			return newFrameSource(b), nil
		} else {
			slog.Debug("generic backend unavailable", "err", err)
		}
		return nil, ErrNoBackendAvailable

	case PreferDirect:
		b, err := config.DirectOpener(config)
		if err != nil {
			return nil, &BackendError{Kind: DirectMemory, Err: err}
		}
		return newFrameSource(b), nil

	case PreferGeneric:
		b, err := config.GenericOpener(config)
		if err != nil {
			return nil, &BackendError{Kind: Generic, Err: err}
		}
		return newFrameSource(b), nil
	}

	return nil, fmt.Errorf("unknown backend preference %q", pref)
}

func newFrameSource(b Backend) *FrameSource {
	return &FrameSource{
		backend: b,
		kind:    b.Kind(),
	}
}

// Capture returns the next frame as a BGR Mat at the configured geometry, or
// nil on any transient failure. The caller owns the returned Mat and must
// close it. Capturing from a released source returns nil.
func (s *FrameSource) Capture() *gocv.Mat {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil
	}
	return s.backend.Capture()
}

// Release tears down the active backend. It is idempotent: the second and
// later calls are no-ops, so the backend teardown runs at most once.
func (s *FrameSource) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return
	}
	s.released = true

	if err := s.backend.Release(); err != nil {
		slog.Warn("camera backend release failed", "backend", s.kind, "err", err)
	}
}

// Kind reports the backend this source is bound to.
func (s *FrameSource) Kind() BackendKind {
	return s.kind
}
