package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Run represents one perception-loop run stored in the journal.
type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Backend    string     `json:"backend"`
	Frames     int64      `json:"frames"`
	Detections int64      `json:"detections"`
	Actions    int64      `json:"actions"`
}

// RunRepository provides CRUD operations for runs.
type RunRepository struct {
	db *sql.DB
}

// Runs returns the run repository for this store.
func (s *Store) Runs() *RunRepository {
	return &RunRepository{db: s.db}
}

// Create inserts a new run into the journal.
func (r *RunRepository) Create(run *Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO runs (id, started_at, backend, frames, detections, actions)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.Backend, run.Frames, run.Detections, run.Actions,
	)
	return err
}

// Update writes the run's end time and totals back to the journal.
func (r *RunRepository) Update(run *Run) error {
	var endedAt any
	if run.EndedAt != nil {
		endedAt = *run.EndedAt
	}

	result, err := r.db.Exec(
		`UPDATE runs SET ended_at = ?, backend = ?, frames = ?, detections = ?, actions = ?
		 WHERE id = ?`,
		endedAt, run.Backend, run.Frames, run.Detections, run.Actions, run.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(id string) (*Run, error) {
	run := &Run{}
	var endedAt sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, started_at, ended_at, backend, frames, detections, actions
		 FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.StartedAt, &endedAt, &run.Backend, &run.Frames, &run.Detections, &run.Actions)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if endedAt.Valid {
		run.EndedAt = &endedAt.Time
	}
	return run, nil
}

// List retrieves the most recent runs, newest first.
func (r *RunRepository) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, started_at, ended_at, backend, frames, detections, actions
		 FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var endedAt sql.NullTime

		err := rows.Scan(&run.ID, &run.StartedAt, &endedAt, &run.Backend, &run.Frames, &run.Detections, &run.Actions)
		if err != nil {
			return nil, err
		}

		if endedAt.Valid {
			run.EndedAt = &endedAt.Time
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}
