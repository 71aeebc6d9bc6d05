// Command mudra runs the hand-gesture perception daemon: it watches the
// camera, classifies pinch and open-palm gestures and fires the configured
// audio actions.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/observe"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the YAML configuration file (empty uses built-in defaults)")
	duration := flag.Float64("duration", -1, "seconds to run, 0 runs until interrupted (overrides the config)")
	backend := flag.String("backend", "", "camera backend: auto, direct or generic (overrides the config)")
	listen := flag.String("listen", "", "status server address such as :8080 (overrides the config)")
	journal := flag.String("journal", "", "sqlite journal path (overrides the config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "mudra: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "mudra: %v\n", err)
		}
		return 1
	}
	if err := applyFlags(cfg, *duration, *backend, *listen, *journal); err != nil {
		fmt.Fprintf(os.Stderr, "mudra: %v\n", err)
		return 1
	}

	slog.SetDefault(newLogger(cfg.LogLevel))

	slog.Info("mudra starting",
		"config", *configPath,
		"backend", cfg.Camera.Backend,
		"duration_seconds", cfg.Loop.DurationSeconds,
		"listen_addr", cfg.Server.ListenAddr,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("metrics provider init failed", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()

	application, err := app.New(*cfg)
	if err != nil {
		slog.Error("initialisation failed", "err", err)
		return 1
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// loadConfig reads the file at path, or returns the built-in defaults when no
// path is given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.Load(path)
}

// applyFlags lays the command line overrides over the loaded configuration.
func applyFlags(cfg *config.Config, duration float64, backend, listen, journal string) error {
	if duration >= 0 {
		cfg.Loop.DurationSeconds = duration
	}
	if backend != "" {
		b := config.Backend(backend)
		if !b.IsValid() {
			return fmt.Errorf("unknown backend %q; valid values: auto, direct, generic", backend)
		}
		cfg.Camera.Backend = b
	}
	if listen != "" {
		cfg.Server.ListenAddr = listen
	}
	if journal != "" {
		cfg.Journal.Path = journal
	}
	return nil
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
