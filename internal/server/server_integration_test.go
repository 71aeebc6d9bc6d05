package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/store"
)

func TestAPI_JournalWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	defer s.Close()

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	run := &store.Run{ID: "run-1", StartedAt: started, Backend: "generic"}
	if err := s.Runs().Create(run); err != nil {
		t.Fatalf("create run: %v", err)
	}
	for i, gesture := range []string{"pinch", "open_palm", "pinch"} {
		event := &store.Event{
			ID:      "ev-" + gesture + "-" + string(rune('a'+i)),
			RunID:   "run-1",
			At:      started.Add(time.Duration(i+1) * time.Second),
			Gesture: gesture,
			Outcome: "done",
		}
		if err := s.Events().Create(event); err != nil {
			t.Fatalf("create event: %v", err)
		}
	}

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// List runs.
	resp, err := client.Get(ts.URL + "/api/runs")
	if err != nil {
		t.Fatalf("GET /api/runs: %v", err)
	}
	var runsBody struct {
		Runs []*store.Run `json:"runs"`
	}
	json.NewDecoder(resp.Body).Decode(&runsBody)
	resp.Body.Close()
	if len(runsBody.Runs) != 1 || runsBody.Runs[0].ID != "run-1" {
		t.Fatalf("runs = %+v, want one run-1", runsBody.Runs)
	}

	// Fetch one run.
	resp, err = client.Get(ts.URL + "/api/runs/run-1")
	if err != nil {
		t.Fatalf("GET /api/runs/run-1: %v", err)
	}
	var gotRun store.Run
	json.NewDecoder(resp.Body).Decode(&gotRun)
	resp.Body.Close()
	if gotRun.Backend != "generic" {
		t.Errorf("run backend = %q, want generic", gotRun.Backend)
	}

	// Missing run is a 404.
	resp, err = client.Get(ts.URL + "/api/runs/nope")
	if err != nil {
		t.Fatalf("GET /api/runs/nope: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing run status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	// Recent events, newest first.
	resp, err = client.Get(ts.URL + "/api/events?limit=2")
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	var eventsBody struct {
		Events []*store.Event `json:"events"`
	}
	json.NewDecoder(resp.Body).Decode(&eventsBody)
	resp.Body.Close()
	if len(eventsBody.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(eventsBody.Events))
	}
	if eventsBody.Events[0].Gesture != "pinch" {
		t.Errorf("newest event gesture = %q, want pinch", eventsBody.Events[0].Gesture)
	}

	// Per-run listing in dispatch order.
	resp, err = client.Get(ts.URL + "/api/events?run=run-1")
	if err != nil {
		t.Fatalf("GET /api/events?run=run-1: %v", err)
	}
	json.NewDecoder(resp.Body).Decode(&eventsBody)
	resp.Body.Close()
	if len(eventsBody.Events) != 3 {
		t.Fatalf("run events = %d, want 3", len(eventsBody.Events))
	}
	if eventsBody.Events[0].Gesture != "pinch" || eventsBody.Events[1].Gesture != "open_palm" {
		t.Errorf("order = %s, %s; want pinch, open_palm", eventsBody.Events[0].Gesture, eventsBody.Events[1].Gesture)
	}
}
