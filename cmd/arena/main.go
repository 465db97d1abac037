package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/okian/arena/internal/adapters/engine/race"
	"github.com/okian/arena/internal/adapters/http/api"
	"github.com/okian/arena/internal/adapters/http/swagger"
	"github.com/okian/arena/internal/adapters/llm"
	app "github.com/okian/arena/internal/app"
	"github.com/okian/arena/internal/config"
	"github.com/okian/arena/internal/domain/agent"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/schedule"
	"github.com/okian/arena/pkg/logger"
	"github.com/okian/arena/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

var errResetNotConfirmed = errors.New("-reset-ratings requires -yes")

type flags struct {
	showStats    bool
	resetRatings bool
	yes          bool
	once         bool
	envFile      string
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("arena", flag.ContinueOnError)
	fs.BoolVar(&f.showStats, "show-stats", false, "Print rating statistics and exit")
	fs.BoolVar(&f.resetRatings, "reset-ratings", false, "Clear all ratings and history, then exit")
	fs.BoolVar(&f.yes, "yes", false, "Confirm destructive operations")
	fs.BoolVar(&f.once, "once", false, "Play one chunk of games, then exit")
	fs.StringVar(&f.envFile, "env", ".env", "Optional dotenv file loaded before the configuration")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if f.resetRatings && !f.yes {
		return f, errResetNotConfirmed
	}
	return f, nil
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	// Missing .env is fine; variables may come from the environment.
	_ = godotenv.Load(f.envFile)

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		logger.Get().Error(ctx, "arena failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags, stdout io.Writer) error {
	log := logger.Get()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts, err := serviceOptions(cfg, log)
	if err != nil {
		return err
	}
	if f.showStats || f.resetRatings {
		// Maintenance commands do not touch the schedule.
		opts = append(opts, app.WithAgents())
	}
	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	switch {
	case f.resetRatings:
		svc.ResetRatings(ctx)
		_, _ = fmt.Fprintln(stdout, "All ratings and history have been reset.")
		return nil
	case f.showStats:
		return printStats(ctx, svc, stdout)
	case f.once:
		report, err := svc.RunChunk(ctx, cfg.ChunkSize)
		if err != nil {
			return err
		}
		log.Info(ctx, "Chunk finished",
			logger.Int("played", report.Played),
			logger.Int("failed", report.Failed),
			logger.Int("remaining", report.Remaining))
		return printStats(ctx, svc, stdout)
	}

	go startSystemMetricsUpdater(ctx)

	srv := newHTTPServer(ctx, cfg.Addr, svc)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}()

	if cfg.RunOnStart && len(cfg.Agents) > 0 {
		go func() {
			if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error(ctx, "tournament stopped", logger.Error(err))
			}
		}()
	}

	<-ctx.Done()
	log.Info(context.WithoutCancel(ctx), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")
	return nil
}

// serviceOptions maps the configuration onto the service.
func serviceOptions(cfg *config.Config, log logger.Logger) ([]app.Option, error) {
	pairing, err := schedule.ParsePairing(cfg.Pairing)
	if err != nil {
		return nil, err
	}

	llmOpts := []llm.Option{
		llm.WithBaseURL(cfg.LLMBaseURL),
		llm.WithAPIKey(cfg.LLMAPIKey),
		llm.WithTemperature(cfg.LLMTemperature),
		llm.WithMaxTokens(cfg.LLMMaxTokens),
		llm.WithTimeout(cfg.LLMTimeout()),
		llm.WithSiteURL(cfg.LLMSiteURL),
		llm.WithTitle(cfg.LLMTitle),
	}
	registry := agent.NewRegistry(
		agent.WithModelFactory(llm.NewFactory(llmOpts...)),
		agent.WithSeed(time.Now().UnixNano()),
	)

	return []app.Option{
		app.WithLogger(log),
		app.WithAgents(model.AgentIDs(cfg.Agents)...),
		app.WithGamesPerMatchup(cfg.GamesPerMatchup),
		app.WithPairing(pairing),
		app.WithChunkSize(cfg.ChunkSize),
		app.WithPause(cfg.GamePause()),
		app.WithMaxTurns(cfg.MaxTurns),
		app.WithGameTimeout(cfg.GameTimeout()),
		app.WithFillers(model.AgentIDs(cfg.FillerSeats)...),
		app.WithRating(cfg.InitialRating, cfg.KFactor),
		app.WithFiles(cfg.RatingsFile, cfg.ProgressFile, cfg.GameLogsDir),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithPostgres(cfg.PostgresDSN),
		app.WithEngine(race.New(race.WithTarget(cfg.RaceTarget), race.WithMaxStep(cfg.RaceMaxStep))),
		app.WithRegistry(registry),
	}, nil
}

func newHTTPServer(ctx context.Context, addr string, svc *app.Service) *http.Server {
	r := chi.NewRouter()
	swagger.Register(ctx, r)
	api.NewServer(svc).Register(ctx, r)

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func printStats(ctx context.Context, svc *app.Service, w io.Writer) error {
	st := svc.Statistics(ctx)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Total games: %d\tDraws: %d\tAgents: %d\n", st.TotalGames, st.TotalDraws, st.Agents)
	_, _ = fmt.Fprintln(tw, "RANK\tAGENT\tRATING\tW\tL\tD\tWIN%")
	for _, e := range st.Leaderboard {
		s := st.AgentStats[e.Agent]
		if s == nil {
			continue
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%.1f\t%d\t%d\t%d\t%.1f\n",
			e.Rank, e.Agent, e.Rating, s.Wins, s.Losses, s.Draws, s.WinRate*100)
	}
	return tw.Flush()
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
