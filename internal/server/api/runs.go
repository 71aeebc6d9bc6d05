package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/store"
)

// defaultRunLimit caps an unqualified run listing.
const defaultRunLimit = 20

// RunsHandler serves the run journal.
type RunsHandler struct {
	store *store.Store
}

// NewRunsHandler creates a new RunsHandler with the given store.
func NewRunsHandler(s *store.Store) *RunsHandler {
	return &RunsHandler{store: s}
}

type listRunsResponse struct {
	Runs []*store.Run `json:"runs"`
}

// ServeHTTP routes /api/runs and /api/runs/{id}.
func (h *RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/runs")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}
	h.get(w, r, path)
}

// list handles GET /api/runs, newest first.
func (h *RunsHandler) list(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.Runs().List(queryLimit(r, defaultRunLimit))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	if runs == nil {
		runs = []*store.Run{}
	}
	writeJSON(w, http.StatusOK, listRunsResponse{Runs: runs})
}

// get handles GET /api/runs/{id}.
func (h *RunsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	run, err := h.store.Runs().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	writeJSON(w, http.StatusOK, run)
}
