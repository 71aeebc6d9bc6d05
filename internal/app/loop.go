package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/observe"
	"github.com/ayusman/mudra/internal/server"
	"gocv.io/x/gocv"
)

// State labels a phase of the perception loop lifecycle.
type State string

const (
	// StateStarting covers backend selection and resource acquisition.
	StateStarting State = "starting"

	// StateRunning is the steady capture, classify, dispatch cycle.
	StateRunning State = "running"

	// StateDraining means the run is over and resources are being
	// released.
	StateDraining State = "draining"

	// StateClosed means teardown finished and the totals are final.
	StateClosed State = "closed"
)

// DefaultReportEvery is the frame interval between capture-rate reports.
const DefaultReportEvery = 30

// missBackoff paces retries while the source returns no frames, so a stalled
// camera does not spin the loop hot.
const missBackoff = 10 * time.Millisecond

// Source supplies frames to the loop. *capture.FrameSource is the production
// implementation.
type Source interface {
	Capture() *gocv.Mat
	Release()
	Kind() capture.BackendKind
}

// Dispatcher consumes classified gestures. *action.Dispatcher is the
// production implementation.
type Dispatcher interface {
	Dispatch(ctx context.Context, g gesture.Gesture) action.Result
}

// Totals are the final counters of one run.
type Totals struct {
	Frames     int64
	Misses     int64
	Detections int64
	Actions    int64
	Elapsed    time.Duration
}

// LoopConfig assembles the collaborators of a perception loop.
type LoopConfig struct {
	// OpenSource acquires the frame source during startup. Required.
	OpenSource func(ctx context.Context) (Source, error)

	// Detector produces hand landmarks. The loop closes it during
	// teardown. Required.
	Detector detector.Detector

	// Classifier maps landmarks to gestures. Required.
	Classifier *gesture.Classifier

	// Dispatcher runs gesture actions. Required.
	Dispatcher Dispatcher

	// Journal records the run and its executed actions. Optional.
	Journal *Journal

	// Events receives one message per executed action. Optional.
	Events *server.Hub

	// Motion skips landmark inference while the scene is static. The loop
	// closes it during teardown. Optional.
	Motion *capture.MotionGate

	// Metrics receives counters and latencies. nil selects the process
	// default set.
	Metrics *observe.Metrics

	// Duration bounds the run; zero runs until the context is cancelled.
	Duration time.Duration

	// ReportEvery is how many processed frames between capture-rate
	// reports. Zero selects DefaultReportEvery.
	ReportEvery int

	// Clock supplies the loop time base; tests inject a fake. nil selects
	// time.Now.
	Clock func() time.Time
}

// Loop drives one perception run: it captures frames, detects a hand,
// classifies its gesture and dispatches the bound action, keeping counters
// for the status surface along the way. A Loop runs at most once.
type Loop struct {
	config LoopConfig

	mu         sync.Mutex
	started    bool
	state      State
	source     Source
	fps        float64
	frames     int64
	misses     int64
	detections int64
	actions    int64

	// FPS window bookkeeping, touched only by the Run goroutine.
	windowStart  time.Time
	windowFrames int64
}

// NewLoop validates the collaborators and returns a ready-to-run Loop.
func NewLoop(config LoopConfig) (*Loop, error) {
	if config.OpenSource == nil {
		return nil, errors.New("frame source opener is required")
	}
	if config.Detector == nil {
		return nil, errors.New("detector is required")
	}
	if config.Classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if config.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if config.Metrics == nil {
		config.Metrics = observe.DefaultMetrics()
	}
	if config.ReportEvery <= 0 {
		config.ReportEvery = DefaultReportEvery
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Loop{config: config, state: StateStarting}, nil
}

// Run executes the loop until the configured duration elapses or ctx is
// cancelled, whichever comes first; both end the run within one iteration.
// The frame source is released exactly once on every path out of Run.
// Cancellation is a normal way to stop, not an error.
func (l *Loop) Run(ctx context.Context) (Totals, error) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return Totals{}, errors.New("perception loop already started")
	}
	l.started = true
	l.state = StateStarting
	l.mu.Unlock()

	start := l.config.Clock()

	src, err := l.config.OpenSource(ctx)
	if err != nil {
		l.setState(StateClosed)
		return Totals{}, fmt.Errorf("open frame source: %w", err)
	}
	l.mu.Lock()
	l.source = src
	l.mu.Unlock()

	if err := l.config.Journal.StartRun(string(src.Kind()), start); err != nil {
		slog.Warn("journal run not recorded", "err", err)
	}

	var deadline time.Time
	if l.config.Duration > 0 {
		deadline = start.Add(l.config.Duration)
	}

	l.setState(StateRunning)
	slog.Info("perception loop running",
		"backend", src.Kind(),
		"duration", l.config.Duration)

	l.windowStart = start
	for ctx.Err() == nil {
		if !deadline.IsZero() && !l.config.Clock().Before(deadline) {
			break
		}
		l.iterate(ctx)
	}

	l.setState(StateDraining)
	src.Release()
	if err := l.config.Detector.Close(); err != nil {
		slog.Warn("detector close failed", "err", err)
	}
	if l.config.Motion != nil {
		l.config.Motion.Close()
	}

	totals := l.totals()
	totals.Elapsed = l.config.Clock().Sub(start)
	if err := l.config.Journal.FinishRun(totals, l.config.Clock()); err != nil {
		slog.Warn("journal run not finalized", "err", err)
	}

	l.setState(StateClosed)
	slog.Info("perception loop closed",
		"frames", totals.Frames,
		"misses", totals.Misses,
		"detections", totals.Detections,
		"actions", totals.Actions,
		"elapsed", totals.Elapsed.Round(time.Millisecond))
	return totals, nil
}

// iterate processes one frame. A nil capture counts as a miss and is skipped;
// every delivered frame is closed before returning.
func (l *Loop) iterate(ctx context.Context) {
	began := l.config.Clock()

	frame := l.source.Capture()
	if frame == nil {
		l.mu.Lock()
		l.misses++
		l.mu.Unlock()
		l.config.Metrics.RecordMiss(ctx)
		time.Sleep(missBackoff)
		return
	}
	defer frame.Close()

	l.mu.Lock()
	l.frames++
	frames := l.frames
	l.mu.Unlock()
	l.config.Metrics.RecordFrame(ctx, string(l.source.Kind()))
	defer func() {
		l.config.Metrics.RecordFrameLatency(ctx, l.config.Clock().Sub(began))
		l.report(frames)
	}()

	if l.config.Motion != nil {
		if moved, _ := l.config.Motion.Changed(frame); !moved {
			return
		}
	}

	hand, err := l.config.Detector.Detect(frame)
	if err != nil {
		slog.Warn("hand detection failed", "err", err)
		return
	}
	if hand == nil {
		return
	}

	l.mu.Lock()
	l.detections++
	l.mu.Unlock()
	l.config.Metrics.RecordDetection(ctx)

	g := l.config.Classifier.Classify(hand)
	if g == gesture.None {
		return
	}
	l.config.Metrics.RecordGesture(ctx, string(g))
	l.dispatch(ctx, g)
}

// dispatch hands the gesture to the dispatcher and journals the result when
// an action actually ran. Suppressed and ignored triggers leave no trace
// beyond metrics.
func (l *Loop) dispatch(ctx context.Context, g gesture.Gesture) {
	result := l.config.Dispatcher.Dispatch(ctx, g)
	l.config.Metrics.RecordDispatch(ctx, string(g), string(result.Outcome), result.Duration)
	if !result.Executed() {
		return
	}

	l.mu.Lock()
	l.actions++
	l.mu.Unlock()

	at := l.config.Clock()
	if err := l.config.Journal.RecordAction(result, at); err != nil {
		slog.Warn("journal event not recorded", "err", err)
	}
	if l.config.Events != nil {
		l.config.Events.Publish(ActionEvent{
			At:         at,
			Gesture:    result.Gesture,
			Outcome:    result.Outcome,
			DurationMs: result.Duration.Milliseconds(),
			Error:      errText(result.Err),
		})
	}
}

// report logs the capture rate once per ReportEvery processed frames.
func (l *Loop) report(frames int64) {
	if frames%int64(l.config.ReportEvery) != 0 {
		return
	}
	now := l.config.Clock()
	elapsed := now.Sub(l.windowStart)
	window := frames - l.windowFrames
	l.windowStart = now
	l.windowFrames = frames
	if elapsed <= 0 {
		return
	}

	fps := float64(window) / elapsed.Seconds()
	l.mu.Lock()
	l.fps = fps
	l.mu.Unlock()
	slog.Info("capture rate", "fps", fps, "frames", frames)
}

// State reports the current lifecycle phase.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Status snapshots the loop for the HTTP status surface. It is safe to call
// from any goroutine at any point in the lifecycle.
func (l *Loop) Status() server.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := server.Status{
		State:      string(l.state),
		Frames:     l.frames,
		Misses:     l.misses,
		Detections: l.detections,
		Actions:    l.actions,
		FPS:        l.fps,
	}
	if l.source != nil {
		s.Backend = string(l.source.Kind())
	}
	return s
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

func (l *Loop) totals() Totals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Totals{
		Frames:     l.frames,
		Misses:     l.misses,
		Detections: l.detections,
		Actions:    l.actions,
	}
}

// ActionEvent is the message published on the WebSocket hub for each
// executed action.
type ActionEvent struct {
	At         time.Time       `json:"at"`
	Gesture    gesture.Gesture `json:"gesture"`
	Outcome    action.Outcome  `json:"outcome"`
	DurationMs int64           `json:"duration_ms"`
	Error      string          `json:"error,omitempty"`
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
