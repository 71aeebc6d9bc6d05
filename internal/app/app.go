// Package app assembles the mudra daemon: it builds the frame source,
// landmark detector, gesture classifier, action dispatcher and the optional
// journal and telemetry surfaces from one configuration, then drives the
// perception loop.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/audio"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"golang.org/x/sync/errgroup"
)

// App owns the wired components for one daemon process.
type App struct {
	config config.Config

	loop   *Loop
	store  *store.Store
	hub    *server.Hub
	server *server.Server
}

// New wires an App from the configuration. The camera is not opened here;
// acquisition happens when Run starts the loop.
func New(cfg config.Config) (*App, error) {
	classifier, err := buildClassifier(cfg.Gesture)
	if err != nil {
		return nil, err
	}

	device := audio.New(audio.Config{
		Card:           cfg.Audio.Card,
		PlaybackDevice: cfg.Audio.PlaybackDevice,
		CaptureDevice:  cfg.Audio.CaptureDevice,
		Channels:       cfg.Audio.Channels,
		SampleRate:     cfg.Audio.SampleRate,
		Bits:           cfg.Audio.Bits,
		Fragments:      cfg.Audio.Fragments,
		FragmentSize:   cfg.Audio.FragmentSize,
		Tinyplay:       cfg.Audio.Tinyplay,
		Tinycap:        cfg.Audio.Tinycap,
	})

	dispatcher, err := buildDispatcher(device, cfg.Actions)
	if err != nil {
		return nil, err
	}

	a := &App{config: cfg}

	if cfg.Journal.Path != "" {
		st, err := store.New(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		a.store = st
	}
	if cfg.Server.ListenAddr != "" {
		a.hub = server.NewHub()
	}

	var journal *Journal
	if a.store != nil {
		journal = NewJournal(a.store)
	}
	var motion *capture.MotionGate
	if cfg.Loop.MotionGate {
		motion = capture.NewMotionGate(cfg.Loop.MotionThreshold)
	}

	loop, err := NewLoop(LoopConfig{
		OpenSource:  sourceOpener(cfg.Camera),
		Detector:    buildDetector(cfg.Detector),
		Classifier:  classifier,
		Dispatcher:  dispatcher,
		Journal:     journal,
		Events:      a.hub,
		Motion:      motion,
		Duration:    secondsToDuration(cfg.Loop.DurationSeconds),
		ReportEvery: cfg.Loop.ReportEvery,
	})
	if err != nil {
		if a.store != nil {
			a.store.Close()
		}
		return nil, err
	}
	a.loop = loop

	if cfg.Server.ListenAddr != "" {
		a.server = server.New(server.Config{
			Store:  a.store,
			Status: loop.Status,
			Events: a.hub,
		})
	}

	return a, nil
}

// Run executes the perception loop, and the HTTP server when configured,
// until the run completes or ctx is cancelled. A completed loop shuts the
// server down with it.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		_, err := a.loop.Run(ctx)
		return err
	})

	if a.server != nil {
		addr := a.config.Server.ListenAddr
		g.Go(func() error {
			slog.Info("telemetry server listening", "addr", addr)
			return a.server.Run(ctx, addr)
		})
	}

	return g.Wait()
}

// Loop exposes the perception loop, mainly for status queries.
func (a *App) Loop() *Loop {
	return a.loop
}

// Close releases resources that outlive a run.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// sourceOpener binds the camera configuration into the startup callback the
// loop invokes to acquire frames.
func sourceOpener(cfg config.CameraConfig) func(ctx context.Context) (Source, error) {
	pref := capture.Auto
	switch cfg.Backend {
	case config.BackendDirect:
		pref = capture.PreferDirect
	case config.BackendGeneric:
		pref = capture.PreferGeneric
	}

	ccfg := capture.Config{
		Width:        cfg.Width,
		Height:       cfg.Height,
		FPS:          cfg.FPS,
		ProbeDevices: cfg.ProbeDevices,
		ShimPath:     cfg.ShimPath,
	}
	if cfg.Evict {
		ccfg.Reclaimer = capture.NewCameraReclaimer()
	}

	return func(ctx context.Context) (Source, error) {
		src, err := capture.Open(ctx, pref, ccfg)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}

// buildDetector prefers the MediaPipe worker and falls back to the inert
// mock when the worker script is not installed, so the daemon still runs on
// hosts without the landmark stack.
func buildDetector(cfg config.DetectorConfig) detector.Detector {
	dcfg := detector.DefaultConfig()
	dcfg.ScriptPath = cfg.ScriptPath
	if cfg.MaxHands > 0 {
		dcfg.MaxHands = cfg.MaxHands
	}
	if cfg.ModelComplexity > 0 {
		dcfg.ModelComplexity = cfg.ModelComplexity
	}
	if cfg.MinDetectionConfidence > 0 {
		dcfg.MinDetectionConfidence = cfg.MinDetectionConfidence
	}
	if cfg.MinTrackingConfidence > 0 {
		dcfg.MinTrackingConfidence = cfg.MinTrackingConfidence
	}

	det, err := detector.NewMediaPipeDetector(dcfg)
	if err != nil {
		slog.Warn("landmark worker unavailable, detections disabled", "err", err)
		return detector.NewMockDetector()
	}
	return det
}

func buildClassifier(cfg config.GestureConfig) (*gesture.Classifier, error) {
	gcfg := gesture.Config{
		ExtendThreshold:    cfg.ExtendThreshold,
		PinchThreshold:     cfg.PinchThreshold,
		MinExtendedFingers: cfg.MinExtendedFingers,
	}
	for _, name := range cfg.Precedence {
		g, err := gesture.ParseGesture(name)
		if err != nil {
			return nil, fmt.Errorf("gesture precedence: %w", err)
		}
		gcfg.Precedence = append(gcfg.Precedence, g)
	}
	classifier, err := gesture.New(gcfg)
	if err != nil {
		return nil, fmt.Errorf("gesture thresholds: %w", err)
	}
	return classifier, nil
}

func buildDispatcher(device *audio.Device, cfg config.ActionsConfig) (*action.Dispatcher, error) {
	hooks := make(map[gesture.Gesture][]string, len(cfg.Hooks))
	for name, argv := range cfg.Hooks {
		g, err := gesture.ParseGesture(name)
		if err != nil {
			return nil, fmt.Errorf("action hooks: %w", err)
		}
		if len(argv) == 0 {
			continue
		}
		hooks[g] = argv
	}

	return action.New(device, device, action.Config{
		Cooldown:       secondsToDuration(cfg.CooldownSeconds),
		PlayPrimary:    cfg.PlayPrimary,
		PlayFallback:   cfg.PlayFallback,
		RecordPath:     cfg.RecordPath,
		RecordDuration: secondsToDuration(cfg.RecordSeconds),
		Hooks:          hooks,
		HookTimeout:    secondsToDuration(cfg.HookTimeoutSeconds),
	}), nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
