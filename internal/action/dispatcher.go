// Package action maps recognized gestures to their side effects and
// rate-limits them. Actions run inline on the caller's goroutine; the
// perception loop tolerates the frame drops that blocking playback or
// recording causes.
package action

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// DefaultCooldown is the minimum interval between two triggers of the same
// gesture.
const DefaultCooldown = time.Second

// Player plays a WAV file, blocking until playback completes.
type Player interface {
	Play(ctx context.Context, path string) error
}

// Recorder captures audio into a WAV file, blocking for the full duration.
type Recorder interface {
	Record(ctx context.Context, path string, duration time.Duration) error
}

// Outcome labels how a dispatch ended.
type Outcome string

const (
	// OutcomeDone means the primary action succeeded.
	OutcomeDone Outcome = "done"

	// OutcomeFallback means the primary cue failed and the fallback
	// played instead.
	OutcomeFallback Outcome = "fallback"

	// OutcomeFailed means the action and any fallback failed. The
	// failure is logged; it never stops the perception loop.
	OutcomeFailed Outcome = "failed"

	// OutcomeCooldown means the trigger was suppressed by the
	// per-gesture rate limit.
	OutcomeCooldown Outcome = "cooldown"

	// OutcomeIgnored means no action is bound to the gesture.
	OutcomeIgnored Outcome = "ignored"
)

// Result reports one dispatch.
type Result struct {
	Gesture  gesture.Gesture
	Outcome  Outcome
	Duration time.Duration
	Err      error
}

// Executed reports whether an action actually ran.
func (r Result) Executed() bool {
	switch r.Outcome {
	case OutcomeDone, OutcomeFallback, OutcomeFailed:
		return true
	}
	return false
}

// Config holds dispatcher settings.
type Config struct {
	// Cooldown is the per-gesture re-trigger interval. Zero selects
	// DefaultCooldown; negative disables rate limiting.
	Cooldown time.Duration

	// PlayPrimary and PlayFallback are the pinch cue files. The fallback
	// is tried once when the primary fails.
	PlayPrimary  string
	PlayFallback string

	// RecordPath and RecordDuration configure the open-palm recording.
	RecordPath     string
	RecordDuration time.Duration

	// Hooks maps a gesture to a command argv run after its action
	// completes. Hook failures are logged and do not affect the result.
	Hooks map[gesture.Gesture][]string

	// HookTimeout bounds each hook command.
	HookTimeout time.Duration

	// Clock supplies the time base for cooldown checks; tests inject a
	// fake. nil selects time.Now.
	Clock func() time.Time

	// RunHook overrides hook execution; tests inject a recorder. nil
	// selects the real command runner.
	RunHook func(ctx context.Context, argv []string) error
}

// withDefaults fills zero fields with the package defaults.
func (c Config) withDefaults() Config {
	if c.Cooldown == 0 {
		c.Cooldown = DefaultCooldown
	}
	if c.RecordDuration <= 0 {
		c.RecordDuration = 2 * time.Second
	}
	if c.HookTimeout <= 0 {
		c.HookTimeout = 10 * time.Second
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.RunHook == nil {
		c.RunHook = runHookCommand
	}
	return c
}

// Dispatcher routes gestures to actions with per-gesture cooldowns. It is
// safe for concurrent use.
type Dispatcher struct {
	config   Config
	player   Player
	recorder Recorder

	mu   sync.Mutex
	last map[gesture.Gesture]time.Time
}

// New creates a Dispatcher. A nil player or recorder turns the affected
// action into a logged failure rather than a crash.
func New(player Player, recorder Recorder, config Config) *Dispatcher {
	return &Dispatcher{
		config:   config.withDefaults(),
		player:   player,
		recorder: recorder,
		last:     make(map[gesture.Gesture]time.Time),
	}
}

// Dispatch runs the action bound to the gesture and reports how it went.
// The cooldown window is claimed before the action runs, so a slow action
// also absorbs re-triggers that arrive while it is still executing.
func (d *Dispatcher) Dispatch(ctx context.Context, g gesture.Gesture) Result {
	if g == gesture.None {
		return Result{Gesture: g, Outcome: OutcomeIgnored}
	}

	now := d.config.Clock()

	d.mu.Lock()
	if prev, ok := d.last[g]; ok && d.config.Cooldown > 0 && now.Sub(prev) < d.config.Cooldown {
		d.mu.Unlock()
		slog.Debug("gesture suppressed by cooldown", "gesture", g, "since_last", now.Sub(prev))
		return Result{Gesture: g, Outcome: OutcomeCooldown}
	}
	d.last[g] = now
	d.mu.Unlock()

	var (
		outcome Outcome
		err     error
	)
	switch g {
	case gesture.Pinch:
		outcome, err = d.playCue(ctx)
	case gesture.OpenPalm:
		outcome, err = d.record(ctx)
	default:
		return Result{Gesture: g, Outcome: OutcomeIgnored}
	}

	d.runHook(ctx, g)

	result := Result{
		Gesture:  g,
		Outcome:  outcome,
		Duration: d.config.Clock().Sub(now),
		Err:      err,
	}
	if err != nil {
		slog.Error("gesture action failed", "gesture", g, "outcome", outcome, "err", err)
	} else {
		slog.Info("gesture action finished", "gesture", g, "outcome", outcome, "duration", result.Duration)
	}
	return result
}

// playCue plays the primary cue, falling back once.
func (d *Dispatcher) playCue(ctx context.Context) (Outcome, error) {
	if d.player == nil {
		return OutcomeFailed, errors.New("no playback device")
	}

	err := d.player.Play(ctx, d.config.PlayPrimary)
	if err == nil {
		return OutcomeDone, nil
	}
	slog.Warn("primary cue failed, trying fallback", "path", d.config.PlayPrimary, "err", err)

	fallbackErr := d.player.Play(ctx, d.config.PlayFallback)
	if fallbackErr == nil {
		return OutcomeFallback, nil
	}
	return OutcomeFailed, errors.Join(err, fallbackErr)
}

func (d *Dispatcher) record(ctx context.Context) (Outcome, error) {
	if d.recorder == nil {
		return OutcomeFailed, errors.New("no capture device")
	}

	if err := d.recorder.Record(ctx, d.config.RecordPath, d.config.RecordDuration); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeDone, nil
}

// runHook executes the configured post-action command for the gesture.
func (d *Dispatcher) runHook(ctx context.Context, g gesture.Gesture) {
	argv := d.config.Hooks[g]
	if len(argv) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.HookTimeout)
	defer cancel()

	if err := d.config.RunHook(ctx, argv); err != nil {
		slog.Warn("gesture hook failed", "gesture", g, "command", argv[0], "err", err)
	}
}

