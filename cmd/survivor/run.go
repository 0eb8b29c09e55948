package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/survivor/internal/adapters/export"
	"github.com/okian/survivor/internal/adapters/http/api"
	"github.com/okian/survivor/internal/adapters/http/site"
	"github.com/okian/survivor/internal/adapters/http/swagger"
	app "github.com/okian/survivor/internal/app"
	"github.com/okian/survivor/internal/config"
	"github.com/okian/survivor/internal/domain/model"
	"github.com/okian/survivor/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// newService loads config, initializes logging, and starts the engine.
func newService(ctx context.Context, market bool) (*app.Service, *config.Config, error) {
	if err := logger.Init(); err != nil {
		return nil, nil, fmt.Errorf("initialize logging: %w", err)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithLogger(logger.Get()),
		app.WithMaxEntries(cfg.MaxEntries),
		app.WithWorkers(cfg.SimulationWorkers),
		app.WithMarket(market || cfg.UseMarket),
		app.WithMarketWeight(cfg.MarketWeight),
		app.WithKFactor(cfg.KFactor),
		app.WithHomeAdvantage(cfg.HomeAdvantage),
		app.WithSituationWeights(cfg.RestWeight, cfg.TravelWeight, cfg.TimeZoneWeight, cfg.AltitudeWeight),
		app.WithFutureThreshold(cfg.FutureThreshold),
		app.WithBurnPenalty(cfg.BurnPenalty),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("start service: %w", err)
	}
	return svc, cfg, nil
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, cfg, err := newService(ctx, false)
	if err != nil {
		return err
	}
	log := logger.Get()

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)
	site.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := svc.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("service shutdown failed: %w", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}

func runStandings(ctx context.Context, limit int) error {
	svc, _, err := newService(ctx, false)
	if err != nil {
		return err
	}

	rows, err := svc.Standings(ctx, limit)
	if err != nil {
		return fmt.Errorf("fetch standings: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tTEAM\tRATING")
	for _, row := range rows {
		fmt.Fprintf(w, "%d\t%s\t%.1f\n", row.Rank, row.Team, row.Rating)
	}
	return w.Flush()
}

func runSummary(ctx context.Context, week int, market bool) error {
	svc, _, err := newService(ctx, market)
	if err != nil {
		return err
	}

	rows, err := svc.WeekSummary(ctx, week, market)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintf(w, "TEAM\tOPPONENT\tSITE\tWIN%%\tPOP%%\tFUTURE\tEV\n")
	for _, row := range rows {
		site := "away"
		if row.Home {
			site = "home"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%.1f\t%.2f\t%.3f\n",
			row.Team, row.Opponent, site,
			row.WinProbability*100, row.Popularity*100,
			row.FutureValue, row.ExpectedValue)
	}
	return w.Flush()
}

func runRecommend(ctx context.Context, week, entryCount int, picksFile string, market bool) error {
	svc, _, err := newService(ctx, market)
	if err != nil {
		return err
	}

	entries, err := loadEntries(picksFile, entryCount)
	if err != nil {
		return err
	}

	picks, err := svc.Recommend(ctx, week, entries)
	if err != nil {
		return err
	}

	indexes := make([]int, 0, len(picks))
	for i := range picks {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		fmt.Printf("entry %d: %s\n", i+1, picks[i])
	}
	return nil
}

func runSimulate(ctx context.Context, startWeek, entryCount int, picksFile string, trials int, seed int64, market bool) error {
	svc, cfg, err := newService(ctx, market)
	if err != nil {
		return err
	}

	entries, err := loadEntries(picksFile, entryCount)
	if err != nil {
		return err
	}
	if trials < 1 {
		trials = cfg.SimulationTrials
	}
	if seed == 0 {
		seed = cfg.SimulationSeed
	}

	result, err := svc.SimulateSeason(ctx, startWeek, entries, trials, seed)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintf(w, "WEEK\tSURVIVAL%%\n")
	for _, point := range result.Curve {
		fmt.Fprintf(w, "%d\t%.2f\n", point.Week, point.Probability*100)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\noverall survival: %.2f%% (%d trials, seed %d, run %s)\n",
		result.OverallProbability*100, result.Trials, result.Seed, result.RunID)
	return nil
}

func runUpdate(ctx context.Context, throughWeek int, resultsFile string) error {
	svc, _, err := newService(ctx, false)
	if err != nil {
		return err
	}

	results, err := loadResults(resultsFile)
	if err != nil {
		return err
	}

	if err := svc.UpdateRatings(ctx, throughWeek, results); err != nil {
		return err
	}

	ratings, err := svc.Ratings(ctx)
	if err != nil {
		return err
	}
	type teamRating struct {
		team   string
		rating float64
	}
	sorted := make([]teamRating, 0, len(ratings))
	for team, r := range ratings {
		sorted = append(sorted, teamRating{team, r})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].rating != sorted[j].rating {
			return sorted[i].rating > sorted[j].rating
		}
		return sorted[i].team < sorted[j].team
	})

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintf(w, "TEAM\tRATING\n")
	for _, tr := range sorted {
		fmt.Fprintf(w, "%s\t%.1f\n", tr.team, tr.rating)
	}
	return w.Flush()
}

func runExport(ctx context.Context, week int, outFile string, withSim bool, trials int, seed int64, market bool) error {
	svc, cfg, err := newService(ctx, market)
	if err != nil {
		return err
	}

	rows, err := svc.WeekSummary(ctx, week, market)
	if err != nil {
		return err
	}
	report := export.Report{
		Summaries: map[int][]model.WeekSummary{week: rows},
	}

	ratings, err := svc.Ratings(ctx)
	if err != nil {
		return err
	}
	report.Ratings = ratings

	if withSim {
		if trials < 1 {
			trials = cfg.SimulationTrials
		}
		if seed == 0 {
			seed = cfg.SimulationSeed
		}
		result, err := svc.SimulateSeason(ctx, week, []model.Entry{{}}, trials, seed)
		if err != nil {
			return err
		}
		report.Simulation = &result
	}

	f, err := export.Generate(report)
	if err != nil {
		return err
	}
	if err := f.SaveAs(outFile); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

// picksFileFormat mirrors the YAML accepted by --picks.
type picksFileFormat struct {
	Entries []struct {
		Committed map[int]string `yaml:"committed"`
	} `yaml:"entries"`
}

// loadEntries reads committed picks from a YAML file, or builds fresh
// entries when no file is given.
func loadEntries(path string, count int) ([]model.Entry, error) {
	if path == "" {
		if count < 1 {
			return nil, errors.New("entry count must be positive")
		}
		return make([]model.Entry, count), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading picks file: %w", err)
	}
	var parsed picksFileFormat
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing picks file: %w", err)
	}
	if len(parsed.Entries) == 0 {
		return nil, errors.New("picks file has no entries")
	}
	entries := make([]model.Entry, len(parsed.Entries))
	for i, e := range parsed.Entries {
		entries[i] = model.Entry{Committed: e.Committed}
	}
	return entries, nil
}

// resultsFileFormat mirrors the YAML accepted by --results.
type resultsFileFormat struct {
	Results []struct {
		Week      int    `yaml:"week"`
		Home      string `yaml:"home"`
		Away      string `yaml:"away"`
		HomeScore int    `yaml:"home_score"`
		AwayScore int    `yaml:"away_score"`
	} `yaml:"results"`
}

func loadResults(path string) ([]model.GameResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}
	var parsed resultsFileFormat
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing results file: %w", err)
	}
	if len(parsed.Results) == 0 {
		return nil, errors.New("results file has no results")
	}
	results := make([]model.GameResult, len(parsed.Results))
	for i, r := range parsed.Results {
		if r.Week < 1 || r.Home == "" || r.Away == "" {
			return nil, fmt.Errorf("result %d needs a week, home, and away", i+1)
		}
		results[i] = model.GameResult{
			Week:      r.Week,
			Home:      r.Home,
			Away:      r.Away,
			HomeScore: r.HomeScore,
			AwayScore: r.AwayScore,
		}
	}
	return results, nil
}
