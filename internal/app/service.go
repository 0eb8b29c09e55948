// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/survivor/internal/adapters/mq/queue"
	"github.com/okian/survivor/internal/adapters/mq/worker"
	"github.com/okian/survivor/internal/adapters/standings"
	"github.com/okian/survivor/internal/domain/dedupe"
	"github.com/okian/survivor/internal/domain/model"
	"github.com/okian/survivor/internal/domain/popularity"
	"github.com/okian/survivor/internal/domain/rating"
	"github.com/okian/survivor/internal/domain/recommend"
	"github.com/okian/survivor/internal/domain/simulate"
	"github.com/okian/survivor/internal/domain/situation"
	"github.com/okian/survivor/internal/domain/value"
	"github.com/okian/survivor/internal/domain/winprob"
	"github.com/okian/survivor/internal/seasondata"
	"github.com/okian/survivor/pkg/logger"
	"github.com/okian/survivor/pkg/metrics"
)

// pipeline bundles one win-probability variant (ratings-only or
// market-blended) with the models derived from it. Both variants share the
// same rating store and schedule.
type pipeline struct {
	probs       *winprob.Model
	pops        *popularity.Model
	ranker      *value.Ranker
	recommender *recommend.Recommender
}

// Service wires the season slate, the rating store, and the pick models
// behind a small call surface.
type Service struct {
	mu sync.RWMutex

	// Core components
	schedule  *model.Schedule
	ratings   *rating.Store
	base      pipeline // ratings-only probabilities
	market    pipeline // market-blended probabilities
	simulator *simulate.Simulator

	// Async simulation pipeline
	jobQueue *queue.InMemoryQueue
	pool     *worker.Pool
	deduper  dedupe.Deduper
	runsMu   sync.RWMutex
	runs     map[string]*model.SimulationRun

	// Standings store, kept in sync with the rating store
	standings *standings.TreapStore

	// Configuration
	games        []model.Game
	baseline     map[string]float64
	spreads      map[int]map[string]float64
	injuries     map[string]float64
	observedPops map[int]map[string]float64

	maxEntries      int
	workers         int
	useMarket       bool
	marketWeight    float64
	kFactor         float64
	homeAdvantage   float64
	restWeight      float64
	travelWeight    float64
	timeZoneWeight  float64
	altitudeWeight  float64
	futureThreshold float64
	burnPenalty     float64
	queueCapacity   int
	poolWorkers     int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSchedule overrides the embedded season slate.
func WithSchedule(games []model.Game) Option {
	return func(s *Service) {
		s.games = games
	}
}

// WithBaselineRatings overrides the embedded prior-season ratings.
func WithBaselineRatings(ratings map[string]float64) Option {
	return func(s *Service) {
		s.baseline = ratings
	}
}

// WithSpreads supplies market point spreads keyed by week, then home team.
// Spreads are from the home team's perspective (negative: home favored).
func WithSpreads(spreads map[int]map[string]float64) Option {
	return func(s *Service) {
		s.spreads = spreads
	}
}

// WithInjuries supplies rating-point penalties for teams with notable
// absences.
func WithInjuries(injuries map[string]float64) Option {
	return func(s *Service) {
		s.injuries = injuries
	}
}

// WithObservedPopularity supplies observed pick shares keyed by week, then
// team. Observed values replace the heuristic for those teams.
func WithObservedPopularity(observed map[int]map[string]float64) Option {
	return func(s *Service) {
		s.observedPops = observed
	}
}

// WithMaxEntries caps the number of pool entries per request.
func WithMaxEntries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithWorkers sets the number of concurrent simulation workers.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMarket makes market-blended probabilities the default for
// recommendations and simulations.
func WithMarket(use bool) Option {
	return func(s *Service) {
		s.useMarket = use
	}
}

// WithMarketWeight sets the blend weight given to the market-implied
// probability. 1 means market only.
func WithMarketWeight(w float64) Option {
	return func(s *Service) {
		if w >= 0 && w <= 1 {
			s.marketWeight = w
		}
	}
}

// WithKFactor sets the Elo update step size.
func WithKFactor(k float64) Option {
	return func(s *Service) {
		if k > 0 {
			s.kFactor = k
		}
	}
}

// WithHomeAdvantage sets the home-field bonus in rating points.
func WithHomeAdvantage(points float64) Option {
	return func(s *Service) {
		s.homeAdvantage = points
	}
}

// WithSituationWeights sets the rest, travel, time-zone, and altitude
// adjustment weights, in rating points.
func WithSituationWeights(rest, travel, timeZone, altitude float64) Option {
	return func(s *Service) {
		s.restWeight = rest
		s.travelWeight = travel
		s.timeZoneWeight = timeZone
		s.altitudeWeight = altitude
	}
}

// WithFutureThreshold sets the win-probability floor for a future game to
// count toward a team's future value.
func WithFutureThreshold(t float64) Option {
	return func(s *Service) {
		if t >= 0 && t <= 1 {
			s.futureThreshold = t
		}
	}
}

// WithBurnPenalty sets the expected-value penalty per point of future value
// burned by picking a team now.
func WithBurnPenalty(p float64) Option {
	return func(s *Service) {
		if p >= 0 {
			s.burnPenalty = p
		}
	}
}

// WithQueueCapacity caps how many simulation jobs may wait in the queue.
func WithQueueCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueCapacity = n
		}
	}
}

// WithPoolWorkers sets how many workers drain the simulation queue. Each
// job already fans out across CPUs, so this stays small.
func WithPoolWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.poolWorkers = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxEntries:      20,
		workers:         runtime.NumCPU(),
		useMarket:       false,
		marketWeight:    0.7,
		kFactor:         20,
		homeAdvantage:   65,
		restWeight:      5,
		travelWeight:    2,
		timeZoneWeight:  6,
		altitudeWeight:  25,
		futureThreshold: 0.60,
		burnPenalty:     0.05,
		queueCapacity:   64,
		poolWorkers:     2,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the season slate and builds the model pipelines. It is
// idempotent.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	games := s.games
	if games == nil {
		loaded, err := seasondata.Games()
		if err != nil {
			return fmt.Errorf("load schedule: %w", err)
		}
		games = loaded
	}
	games = applySpreads(games, s.spreads)

	baseline := s.baseline
	if baseline == nil {
		loaded, err := seasondata.BaselineRatings()
		if err != nil {
			return fmt.Errorf("load baseline ratings: %w", err)
		}
		baseline = loaded
	}

	schedule, err := model.NewSchedule(games)
	if err != nil {
		return fmt.Errorf("build schedule: %w", err)
	}
	s.schedule = schedule

	s.ratings = rating.NewStore(baseline,
		rating.WithKFactor(s.kFactor),
		rating.WithHomeAdvantage(s.homeAdvantage),
	)
	adjuster := situation.New(
		situation.WithRestWeight(s.restWeight),
		situation.WithTravelWeight(s.travelWeight),
		situation.WithTimeZoneWeight(s.timeZoneWeight),
		situation.WithAltitudeWeight(s.altitudeWeight),
	)

	s.base = s.buildPipeline(adjuster, false)
	s.market = s.buildPipeline(adjuster, true)

	s.simulator = simulate.New(s.pipelineFor(s.useMarket).probs, s.schedule,
		simulate.WithWorkers(s.workers),
		simulate.WithMaxEntries(s.maxEntries),
	)

	s.standings = standings.NewTreapStore(ctx)
	for team, points := range s.ratings.Ratings() {
		if err := s.standings.Upsert(ctx, team, points); err != nil {
			return fmt.Errorf("seed standings: %w", err)
		}
	}

	s.runs = make(map[string]*model.SimulationRun)
	s.deduper = dedupe.NewInMemoryDeduper()
	s.jobQueue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueCapacity),
		queue.WithBufferSize(s.queueCapacity),
	)
	s.pool = worker.NewPool(s.poolWorkers, s.jobQueue, s.simulator, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "survivor service started",
		logger.Int("weeks", s.schedule.Weeks()),
		logger.Int("games", len(s.schedule.Games())),
		logger.Int("teams", len(s.ratings.Ratings())),
		logger.Int("workers", s.workers),
		logger.Any("useMarket", s.useMarket),
	)

	return nil
}

func (s *Service) buildPipeline(adjuster *situation.Adjuster, useMarket bool) pipeline {
	probs := winprob.New(s.ratings, adjuster, s.schedule,
		winprob.WithMarket(useMarket),
		winprob.WithMarketWeight(s.marketWeight),
		winprob.WithInjuries(s.injuries),
	)
	pops := popularity.New(probs, s.schedule,
		popularity.WithObserved(s.observedPops),
	)
	ranker := value.New(probs, pops, s.schedule,
		value.WithFutureThreshold(s.futureThreshold),
		value.WithBurnPenalty(s.burnPenalty),
	)
	recommender := recommend.New(ranker,
		recommend.WithMaxEntries(s.maxEntries),
	)
	return pipeline{probs: probs, pops: pops, ranker: ranker, recommender: recommender}
}

func (s *Service) pipelineFor(useMarket bool) *pipeline {
	if useMarket {
		return &s.market
	}
	return &s.base
}

// applySpreads copies games and attaches market lines where available.
func applySpreads(games []model.Game, spreads map[int]map[string]float64) []model.Game {
	if len(spreads) == 0 {
		return games
	}
	out := make([]model.Game, len(games))
	copy(out, games)
	for i := range out {
		week, ok := spreads[out[i].Week]
		if !ok {
			continue
		}
		if line, ok := week[out[i].Home]; ok {
			v := line
			out[i].Spread = &v
		}
	}
	return out
}

// WeekSummary computes the per-team outlook for one week: win probability,
// expected pick popularity, future value, and expected value, sorted by
// expected value.
func (s *Service) WeekSummary(ctx context.Context, week int, useMarket bool) ([]model.WeekSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}

	rows, err := s.pipelineFor(useMarket).ranker.Rank(ctx, week, nil)
	if err != nil {
		metrics.RecordEngineError("service", "summary")
		return nil, err
	}
	metrics.RecordSummaryComputed()
	return rows, nil
}

// Recommend assigns one distinct pick per entry for the given week. Entries
// carry their committed picks from earlier weeks; assignment is greedy in
// entry order.
func (s *Service) Recommend(ctx context.Context, week int, entries []model.Entry) (map[int]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}

	picks, err := s.pipelineFor(s.useMarket).recommender.Recommend(ctx, week, entries)
	if err != nil {
		metrics.RecordEngineError("service", "recommend")
		return nil, err
	}
	metrics.RecordRecommendation()
	s.logger.Info(ctx, "recommended picks",
		logger.Int("week", week),
		logger.Int("entries", len(entries)),
	)
	return picks, nil
}

// SimulateSeason estimates each entry's survival curve from startWeek to
// the end of the season with a Monte Carlo run. A fixed seed reproduces the
// run exactly regardless of worker count.
func (s *Service) SimulateSeason(ctx context.Context, startWeek int, entries []model.Entry, trials int, seed int64) (model.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.SimulationResult{}, ErrNotStarted
	}

	began := time.Now()
	result, err := s.simulator.Run(ctx, startWeek, entries, trials, seed)
	if err != nil {
		metrics.RecordEngineError("service", "simulate")
		return model.SimulationResult{}, err
	}
	elapsed := time.Since(began)
	metrics.RecordSimulation(trials, elapsed.Seconds())
	s.logger.Info(ctx, "simulation complete",
		logger.String("runID", result.RunID),
		logger.Int("trials", trials),
		logger.Int64("seed", seed),
		logger.Float64("overall", result.OverallProbability),
		logger.Any("elapsed", elapsed),
	)
	return result, nil
}

// UpdateRatings applies game results through the given week to the rating
// store. Results for weeks already applied are skipped, so replaying a
// feed is safe. The write lock serializes the update against summary,
// recommendation and simulation reads so no ranking pass can observe a
// half-applied week.
func (s *Service) UpdateRatings(ctx context.Context, throughWeek int, results []model.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}

	if err := s.ratings.UpdateThrough(throughWeek, results); err != nil {
		metrics.RecordEngineError("service", "update")
		return err
	}
	for team, points := range s.ratings.Ratings() {
		if err := s.standings.Upsert(ctx, team, points); err != nil {
			metrics.RecordEngineError("service", "standings_sync")
			return fmt.Errorf("sync standings: %w", err)
		}
	}
	metrics.RecordRatingUpdate()
	s.logger.Info(ctx, "ratings updated",
		logger.Int("throughWeek", throughWeek),
		logger.Int("results", len(results)),
		logger.Int("appliedThrough", s.ratings.AppliedThrough()),
	)
	return nil
}

// Standings returns the top n teams by current power rating.
func (s *Service) Standings(ctx context.Context, n int) ([]standings.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	rows, err := s.standings.TopN(ctx, n)
	if err != nil {
		metrics.RecordEngineError("service", "standings")
		return nil, err
	}
	return rows, nil
}

// TeamRank returns one team's position in the power rankings.
func (s *Service) TeamRank(ctx context.Context, team string) (standings.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return standings.Entry{}, ErrNotStarted
	}
	entry, err := s.standings.Rank(ctx, team)
	if err != nil {
		metrics.RecordEngineError("service", "team_rank")
		return standings.Entry{}, err
	}
	return entry, nil
}

// SubmitSimulation queues a simulation for background execution and returns
// its run ID. A non-empty requestID makes the submission idempotent:
// resubmitting the same ID is rejected rather than queued twice.
func (s *Service) SubmitSimulation(ctx context.Context, requestID string, startWeek int, entries []model.Entry, trials int, seed int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return "", ErrNotStarted
	}

	// Reject malformed jobs up front so the caller hears about it
	// synchronously instead of through a failed run.
	if startWeek < 1 || startWeek > s.schedule.Weeks() {
		return "", fmt.Errorf("%w: %d", model.ErrInvalidWeek, startWeek)
	}
	if len(entries) == 0 || len(entries) > s.maxEntries {
		return "", fmt.Errorf("%w: %d", model.ErrInvalidEntryCount, len(entries))
	}
	if trials < 1 {
		return "", fmt.Errorf("%w: %d", simulate.ErrInvalidTrialCount, trials)
	}

	if requestID != "" && s.deduper.SeenAndRecord(ctx, requestID) {
		metrics.RecordJobDeduplicated()
		return "", fmt.Errorf("%w: %s", ErrDuplicateSubmission, requestID)
	}

	runID := uuid.New().String()
	run := &model.SimulationRun{
		RunID:       runID,
		Status:      model.RunQueued,
		StartWeek:   startWeek,
		EntryCount:  len(entries),
		Trials:      trials,
		Seed:        seed,
		SubmittedAt: time.Now(),
	}
	s.runsMu.Lock()
	s.runs[runID] = run
	s.runsMu.Unlock()

	job := queue.Job{
		RunID:      runID,
		StartWeek:  startWeek,
		Entries:    entries,
		Trials:     trials,
		Seed:       seed,
		EnqueuedAt: time.Now(),
	}
	if !s.jobQueue.Enqueue(ctx, job) {
		// Roll back so the caller can retry with the same request ID.
		if requestID != "" {
			s.deduper.Unrecord(ctx, requestID)
		}
		s.runsMu.Lock()
		delete(s.runs, runID)
		s.runsMu.Unlock()
		metrics.RecordEngineError("service", "submit")
		if s.jobQueue.IsClosed() {
			return "", fmt.Errorf("%w: submit", queue.ErrStopped)
		}
		return "", ErrQueueFull
	}

	s.logger.Info(ctx, "simulation queued",
		logger.String("runID", runID),
		logger.Int("startWeek", startWeek),
		logger.Int("entries", len(entries)),
		logger.Int("trials", trials),
	)
	return runID, nil
}

// SimulationRun returns the tracked state of a submitted run.
func (s *Service) SimulationRun(ctx context.Context, runID string) (model.SimulationRun, error) {
	s.mu.RLock()
	if !s.started {
		s.mu.RUnlock()
		return model.SimulationRun{}, ErrNotStarted
	}
	s.mu.RUnlock()

	s.runsMu.RLock()
	defer s.runsMu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return model.SimulationRun{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return *run, nil
}

// Started marks a run as picked up by a worker. Part of the worker.Sink
// contract.
func (s *Service) Started(ctx context.Context, runID string) {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	if run, ok := s.runs[runID]; ok {
		run.Status = model.RunRunning
	}
}

// Complete records a finished simulation. Part of the worker.Sink contract.
func (s *Service) Complete(ctx context.Context, runID string, result model.SimulationResult) {
	now := time.Now()
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	if run, ok := s.runs[runID]; ok {
		run.Status = model.RunCompleted
		run.CompletedAt = &now
		run.Result = &result
	}
}

// Fail records a run that ended in error. Part of the worker.Sink contract.
func (s *Service) Fail(ctx context.Context, runID string, err error) {
	now := time.Now()
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	if run, ok := s.runs[runID]; ok {
		run.Status = model.RunFailed
		run.CompletedAt = &now
		run.Error = err.Error()
	}
}

// Shutdown drains the async pipeline and releases background resources.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}

	if err := s.pool.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown worker pool: %w", err)
	}
	if err := s.standings.Close(); err != nil {
		return fmt.Errorf("close standings: %w", err)
	}
	s.started = false
	return nil
}

// Ratings returns a snapshot of the current power ratings.
func (s *Service) Ratings(ctx context.Context) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.ratings.Ratings(), nil
}

// Weeks returns the highest week number in the schedule.
func (s *Service) Weeks(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return 0, ErrNotStarted
	}
	return s.schedule.Weeks(), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"maxEntries": s.maxEntries,
		"workers":    s.workers,
		"useMarket":  s.useMarket,
	}
	if s.started {
		stats["weeks"] = s.schedule.Weeks()
		stats["games"] = len(s.schedule.Games())
		stats["teams"] = len(s.ratings.Ratings())
		stats["appliedThrough"] = s.ratings.AppliedThrough()
		stats["queueDepth"] = s.jobQueue.Len(context.Background())
		s.runsMu.RLock()
		stats["runs"] = len(s.runs)
		s.runsMu.RUnlock()
	}
	return stats
}
