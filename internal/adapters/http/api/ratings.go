// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/survivor/internal/domain/model"
)

// resultRequest mirrors the OpenAPI schema for one game result.
type resultRequest struct {
	Week      int    `json:"week"`
	Home      string `json:"home"`
	Away      string `json:"away"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
}

// resultsRequest mirrors the OpenAPI schema for POST /results.
type resultsRequest struct {
	ThroughWeek int             `json:"through_week"`
	Results     []resultRequest `json:"results"`
}

func (r resultsRequest) validate() error {
	if r.ThroughWeek < 1 {
		return errors.New("through_week must be positive")
	}
	for _, res := range r.Results {
		if res.Week < 1 || res.Home == "" || res.Away == "" {
			return errors.New("each result needs a week, home, and away")
		}
	}
	return nil
}

type ackResponse struct {
	Status string `json:"status"`
}

// RatingsHandler handles rating reads and result ingestion.
type RatingsHandler struct {
	deps Dependencies
}

// NewRatingsHandler creates a new ratings handler.
func NewRatingsHandler(deps Dependencies) *RatingsHandler {
	return &RatingsHandler{deps: deps}
}

// HandlePostResults handles POST /results requests.
func (h *RatingsHandler) HandlePostResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req resultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	results := make([]model.GameResult, len(req.Results))
	for i, res := range req.Results {
		results[i] = model.GameResult{
			Week:      res.Week,
			Home:      res.Home,
			Away:      res.Away,
			HomeScore: res.HomeScore,
			AwayScore: res.AwayScore,
		}
	}
	if err := h.deps.UpdateRatings(r.Context(), req.ThroughWeek, results); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "applied"})
}

// HandleGetRatings handles GET /ratings requests.
func (h *RatingsHandler) HandleGetRatings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	ratings, err := h.deps.Ratings(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ratings)
}
