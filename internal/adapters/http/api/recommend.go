// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

// recommendRequest mirrors the OpenAPI schema for POST /recommend.
type recommendRequest struct {
	Week    int            `json:"week"`
	Entries []entryRequest `json:"entries"`
}

func (r recommendRequest) validate() error {
	switch {
	case r.Week < 1:
		return errors.New("week must be positive")
	case len(r.Entries) == 0:
		return errors.New("at least one entry is required")
	}
	return nil
}

type recommendResponse struct {
	Week  int            `json:"week"`
	Picks map[int]string `json:"picks"`
}

// RecommendHandler handles pick recommendation requests.
type RecommendHandler struct {
	deps Dependencies
}

// NewRecommendHandler creates a new recommend handler.
func NewRecommendHandler(deps Dependencies) *RecommendHandler {
	return &RecommendHandler{deps: deps}
}

// HandlePostRecommend handles POST /recommend requests.
func (h *RecommendHandler) HandlePostRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	picks, err := h.deps.Recommend(r.Context(), req.Week, toEntries(req.Entries))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendResponse{Week: req.Week, Picks: picks})
}
