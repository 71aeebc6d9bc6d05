package app

import (
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/store"
	"github.com/google/uuid"
)

// Journal persists one run and its executed actions to the sqlite store.
// A nil *Journal is valid and records nothing, so the loop never branches
// on whether journaling is enabled.
type Journal struct {
	store *store.Store
	runID string
}

// NewJournal wraps a store for a single run.
func NewJournal(st *store.Store) *Journal {
	return &Journal{store: st}
}

// RunID returns the identifier of the active run, or "" before StartRun.
func (j *Journal) RunID() string {
	if j == nil {
		return ""
	}
	return j.runID
}

// StartRun creates the run row that subsequent events attach to.
func (j *Journal) StartRun(backend string, at time.Time) error {
	if j == nil {
		return nil
	}
	run := &store.Run{
		ID:        uuid.New().String(),
		StartedAt: at,
		Backend:   backend,
	}
	if err := j.store.Runs().Create(run); err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	j.runID = run.ID
	return nil
}

// RecordAction appends one executed action to the active run.
func (j *Journal) RecordAction(result action.Result, at time.Time) error {
	if j == nil || j.runID == "" {
		return nil
	}
	e := &store.Event{
		ID:         uuid.New().String(),
		RunID:      j.runID,
		At:         at,
		Gesture:    string(result.Gesture),
		Outcome:    string(result.Outcome),
		DurationMs: result.Duration.Milliseconds(),
	}
	if result.Err != nil {
		e.Detail = result.Err.Error()
	}
	if err := j.store.Events().Create(e); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// FinishRun stamps the end time and final counters on the active run.
func (j *Journal) FinishRun(totals Totals, at time.Time) error {
	if j == nil || j.runID == "" {
		return nil
	}
	run, err := j.store.Runs().GetByID(j.runID)
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}
	run.EndedAt = &at
	run.Frames = totals.Frames
	run.Detections = totals.Detections
	run.Actions = totals.Actions
	if err := j.store.Runs().Update(run); err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}
