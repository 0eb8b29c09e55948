// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/survivor/internal/adapters/standings"
	app "github.com/okian/survivor/internal/app"
	"github.com/okian/survivor/internal/domain/model"
	"github.com/okian/survivor/internal/domain/rating"
	"github.com/okian/survivor/internal/domain/recommend"
	"github.com/okian/survivor/internal/domain/simulate"
	"github.com/okian/survivor/internal/domain/winprob"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	WeekSummary(ctx context.Context, week int, useMarket bool) ([]model.WeekSummary, error)
	Recommend(ctx context.Context, week int, entries []model.Entry) (map[int]string, error)
	SimulateSeason(ctx context.Context, startWeek int, entries []model.Entry, trials int, seed int64) (model.SimulationResult, error)
	SubmitSimulation(ctx context.Context, requestID string, startWeek int, entries []model.Entry, trials int, seed int64) (string, error)
	SimulationRun(ctx context.Context, runID string) (model.SimulationRun, error)
	UpdateRatings(ctx context.Context, throughWeek int, results []model.GameResult) error
	Ratings(ctx context.Context) (map[string]float64, error)
	Standings(ctx context.Context, n int) ([]standings.Entry, error)
	TeamRank(ctx context.Context, team string) (standings.Entry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	summaryHandler   *SummaryHandler
	recommendHandler *RecommendHandler
	simulateHandler  *SimulateHandler
	ratingsHandler   *RatingsHandler
	runsHandler      *RunsHandler
	standingsHandler *StandingsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		summaryHandler:   NewSummaryHandler(deps),
		recommendHandler: NewRecommendHandler(deps),
		simulateHandler:  NewSimulateHandler(deps),
		ratingsHandler:   NewRatingsHandler(deps),
		runsHandler:      NewRunsHandler(deps),
		standingsHandler: NewStandingsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/summary", MetricsMiddleware(s.summaryHandler.HandleGetSummary, "summary"))
	mux.HandleFunc("/recommend", MetricsMiddleware(s.recommendHandler.HandlePostRecommend, "recommend"))
	mux.HandleFunc("/simulate", MetricsMiddleware(s.simulateHandler.HandlePostSimulate, "simulate"))
	mux.HandleFunc("/results", MetricsMiddleware(s.ratingsHandler.HandlePostResults, "results"))
	mux.HandleFunc("/ratings", MetricsMiddleware(s.ratingsHandler.HandleGetRatings, "ratings"))
	mux.HandleFunc("/runs", MetricsMiddleware(s.runsHandler.HandleRuns, "runs"))
	mux.HandleFunc("/standings", MetricsMiddleware(s.standingsHandler.HandleGetStandings, "standings"))
	mux.HandleFunc("/rank", MetricsMiddleware(s.standingsHandler.HandleGetTeamRank, "rank"))
}

// entryRequest carries one pool entry's committed picks, keyed by week.
type entryRequest struct {
	Committed map[int]string `json:"committed"`
}

func toEntries(reqs []entryRequest) []model.Entry {
	entries := make([]model.Entry, len(reqs))
	for i, r := range reqs {
		entries[i] = model.Entry{Committed: r.Committed}
	}
	return entries
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps domain sentinels to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidWeek),
		errors.Is(err, model.ErrInvalidEntryCount),
		errors.Is(err, simulate.ErrInvalidTrialCount):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, standings.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, winprob.ErrMissingGame),
		errors.Is(err, recommend.ErrInsufficientTeams),
		errors.Is(err, rating.ErrUnknownTeam):
		writeError(w, http.StatusUnprocessableEntity, "unprocessable", err)
	case errors.Is(err, app.ErrRunNotFound),
		errors.Is(err, standings.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, app.ErrDuplicateSubmission):
		writeError(w, http.StatusConflict, "duplicate", err)
	case errors.Is(err, app.ErrQueueFull):
		writeError(w, http.StatusServiceUnavailable, "queue_full", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
