package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"sliderlabel/pkg/map/labels"
)

// maxRequestBytes caps a placement request body.
const maxRequestBytes = 32 << 20

// defaultRunsLimit is used when GET /api/runs has no limit parameter.
const defaultRunsLimit = 50

// PlaceHandler exposes placement runs.
type PlaceHandler struct {
	mgr *labels.Manager
}

// NewPlaceHandler creates a new placement handler.
func NewPlaceHandler(mgr *labels.Manager) *PlaceHandler {
	return &PlaceHandler{mgr: mgr}
}

// HandlePlace handles POST /api/place.
func (h *PlaceHandler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	var req labels.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	run, err := h.mgr.Place(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, run)
}

// HandleRuns handles GET /api/runs.
func (h *PlaceHandler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.mgr.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		writeJSON(w, []any{})
		return
	}
	writeJSON(w, runs)
}

// HandleRun handles GET /api/runs/{id}.
func (h *PlaceHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.mgr.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, run)
}
