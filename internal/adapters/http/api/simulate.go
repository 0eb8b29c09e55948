// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

// simulateRequest mirrors the OpenAPI schema for POST /simulate.
type simulateRequest struct {
	StartWeek int            `json:"start_week"`
	Entries   []entryRequest `json:"entries"`
	Trials    int            `json:"trials"`
	Seed      int64          `json:"seed"`
}

func (r simulateRequest) validate() error {
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

// SimulateHandler handles Monte Carlo simulation requests.
type SimulateHandler struct {
	deps Dependencies
}

// NewSimulateHandler creates a new simulate handler.
func NewSimulateHandler(deps Dependencies) *SimulateHandler {
	return &SimulateHandler{deps: deps}
}

// HandlePostSimulate handles POST /simulate requests.
func (h *SimulateHandler) HandlePostSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	result, err := h.deps.SimulateSeason(r.Context(), req.StartWeek, toEntries(req.Entries), req.Trials, req.Seed)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
