package api

import (
	"net/http"

	"github.com/ayusman/mudra/internal/store"
)

// defaultEventLimit caps an unqualified event listing.
const defaultEventLimit = 50

// EventsHandler serves the dispatched-action journal.
type EventsHandler struct {
	store *store.Store
}

// NewEventsHandler creates a new EventsHandler with the given store.
func NewEventsHandler(s *store.Store) *EventsHandler {
	return &EventsHandler{store: s}
}

type listEventsResponse struct {
	Events []*store.Event `json:"events"`
}

// ServeHTTP handles GET /api/events, newest first. An optional run query
// parameter restricts the listing to one run in dispatch order.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var (
		events []*store.Event
		err    error
	)
	if runID := r.URL.Query().Get("run"); runID != "" {
		events, err = h.store.Events().ListByRun(runID)
	} else {
		events, err = h.store.Events().Recent(queryLimit(r, defaultEventLimit))
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	if events == nil {
		events = []*store.Event{}
	}
	writeJSON(w, http.StatusOK, listEventsResponse{Events: events})
}
