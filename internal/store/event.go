package store

import (
	"database/sql"
	"time"
)

// Event represents one dispatched action stored in the journal.
type Event struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	At         time.Time `json:"at"`
	Gesture    string    `json:"gesture"`
	Outcome    string    `json:"outcome"`
	DurationMs int64     `json:"duration_ms"`
	Detail     string    `json:"detail,omitempty"`
}

// EventRepository provides CRUD operations for events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts a new event into the journal.
func (r *EventRepository) Create(e *Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO events (id, run_id, at, gesture, outcome, duration_ms, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RunID, e.At, e.Gesture, e.Outcome, e.DurationMs, e.Detail,
	)
	return err
}

// ListByRun retrieves all events of a run in dispatch order.
func (r *EventRepository) ListByRun(runID string) ([]*Event, error) {
	rows, err := r.db.Query(
		`SELECT id, run_id, at, gesture, outcome, duration_ms, detail
		 FROM events WHERE run_id = ? ORDER BY at`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Recent retrieves the most recent events across all runs, newest first.
func (r *EventRepository) Recent(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, run_id, at, gesture, outcome, duration_ms, detail
		 FROM events ORDER BY at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	var events []*Event
	for rows.Next() {
		e := &Event{}

		err := rows.Scan(&e.ID, &e.RunID, &e.At, &e.Gesture, &e.Outcome, &e.DurationMs, &e.Detail)
		if err != nil {
			return nil, err
		}

		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
