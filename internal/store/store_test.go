package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "journal.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	tables := []string{"runs", "events"}
	for _, table := range tables {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}
}

func TestRunRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	runs := s.Runs()

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	run := &Run{
		ID:        "run-1",
		StartedAt: started,
		Backend:   "direct_memory",
	}
	if err := runs.Create(run); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := runs.GetByID("run-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.ID != "run-1" {
		t.Errorf("ID = %q, want run-1", got.ID)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %s, want %s", got.StartedAt, started)
	}
	if got.Backend != "direct_memory" {
		t.Errorf("Backend = %q, want direct_memory", got.Backend)
	}
	if got.EndedAt != nil {
		t.Errorf("EndedAt = %v, want nil for a live run", got.EndedAt)
	}
}

func TestRunRepository_CreateFillsStartTime(t *testing.T) {
	s := newTestStore(t)

	run := &Run{ID: "run-1"}
	if err := s.Runs().Create(run); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if run.StartedAt.IsZero() {
		t.Error("Create should fill a zero StartedAt")
	}
}

func TestRunRepository_Update(t *testing.T) {
	s := newTestStore(t)
	runs := s.Runs()

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	run := &Run{ID: "run-1", StartedAt: started, Backend: "generic"}
	if err := runs.Create(run); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ended := started.Add(time.Minute)
	run.EndedAt = &ended
	run.Frames = 1800
	run.Detections = 420
	run.Actions = 3
	if err := runs.Update(run); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := runs.GetByID("run-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.EndedAt == nil || !got.EndedAt.Equal(ended) {
		t.Errorf("EndedAt = %v, want %s", got.EndedAt, ended)
	}
	if got.Frames != 1800 || got.Detections != 420 || got.Actions != 3 {
		t.Errorf("totals = %d/%d/%d, want 1800/420/3", got.Frames, got.Detections, got.Actions)
	}
}

func TestRunRepository_UpdateMissingRun(t *testing.T) {
	s := newTestStore(t)

	err := s.Runs().Update(&Run{ID: "nope"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRunRepository_GetMissingRun(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Runs().GetByID("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRunRepository_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	runs := s.Runs()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := &Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := runs.Create(run); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	got, err := runs.List(2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "run-c" || got[1].ID != "run-b" {
		t.Errorf("order = %s, %s; want run-c, run-b", got[0].ID, got[1].ID)
	}
}

func TestEventRepository_CreateAndListByRun(t *testing.T) {
	s := newTestStore(t)

	run := &Run{ID: "run-1", StartedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	if err := s.Runs().Create(run); err != nil {
		t.Fatalf("Create run: %v", err)
	}

	events := s.Events()
	base := run.StartedAt
	inserts := []*Event{
		{ID: "ev-1", RunID: "run-1", At: base.Add(1 * time.Second), Gesture: "pinch", Outcome: "done", DurationMs: 250},
		{ID: "ev-2", RunID: "run-1", At: base.Add(5 * time.Second), Gesture: "open_palm", Outcome: "done", DurationMs: 2000},
		{ID: "ev-3", RunID: "run-1", At: base.Add(9 * time.Second), Gesture: "pinch", Outcome: "fallback", DurationMs: 300},
	}
	for _, e := range inserts {
		if err := events.Create(e); err != nil {
			t.Fatalf("Create %s: %v", e.ID, err)
		}
	}

	got, err := events.ListByRun("run-1")
	if err != nil {
		t.Fatalf("ListByRun: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"ev-1", "ev-2", "ev-3"} {
		if got[i].ID != want {
			t.Errorf("event %d = %s, want %s", i, got[i].ID, want)
		}
	}
	if got[0].DurationMs != 250 {
		t.Errorf("DurationMs = %d, want 250", got[0].DurationMs)
	}
	if got[1].Gesture != "open_palm" || got[1].Outcome != "done" {
		t.Errorf("event 1 = %s/%s", got[1].Gesture, got[1].Outcome)
	}
}

func TestEventRepository_RecentNewestFirst(t *testing.T) {
	s := newTestStore(t)

	run := &Run{ID: "run-1", StartedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	if err := s.Runs().Create(run); err != nil {
		t.Fatalf("Create run: %v", err)
	}

	events := s.Events()
	base := run.StartedAt
	for i, id := range []string{"ev-1", "ev-2", "ev-3"} {
		e := &Event{ID: id, RunID: "run-1", At: base.Add(time.Duration(i) * time.Minute), Gesture: "pinch", Outcome: "done"}
		if err := events.Create(e); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	got, err := events.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "ev-3" || got[1].ID != "ev-2" {
		t.Errorf("order = %s, %s; want ev-3, ev-2", got[0].ID, got[1].ID)
	}
}
