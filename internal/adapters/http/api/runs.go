// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

// submitRequest mirrors the OpenAPI schema for POST /runs.
type submitRequest struct {
	RequestID string         `json:"request_id,omitempty"`
	StartWeek int            `json:"start_week"`
	Entries   []entryRequest `json:"entries"`
	Trials    int            `json:"trials"`
	Seed      int64          `json:"seed"`
}

func (r submitRequest) validate() error {
	switch {
	case r.StartWeek < 1:
		return errors.New("start_week must be positive")
	case len(r.Entries) == 0:
		return errors.New("at least one entry is required")
	case r.Trials < 1:
		return errors.New("trials must be positive")
	}
	return nil
}

// submitResponse acknowledges an accepted run.
type submitResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// RunsHandler handles asynchronous simulation submissions and lookups.
type RunsHandler struct {
	deps Dependencies
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps Dependencies) *RunsHandler {
	return &RunsHandler{deps: deps}
}

// HandleRuns dispatches POST /runs (submit) and GET /runs?id= (lookup).
func (h *RunsHandler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		h.handleGet(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *RunsHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	runID, err := h.deps.SubmitSimulation(r.Context(), req.RequestID, req.StartWeek, toEntries(req.Entries), req.Trials, req.Seed)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{RunID: runID, Status: "queued"})
}

func (h *RunsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("id")
	if runID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	run, err := h.deps.SimulationRun(r.Context(), runID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
