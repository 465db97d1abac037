// Package service wires the tournament components together and exposes what
// the status API and the command line need.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	eventqueue "github.com/okian/arena/internal/adapters/mq/queue"
	eventworker "github.com/okian/arena/internal/adapters/mq/worker"
	"github.com/okian/arena/internal/adapters/engine/race"
	repository "github.com/okian/arena/internal/adapters/repository"
	"github.com/okian/arena/internal/adapters/repository/postgres"
	"github.com/okian/arena/internal/domain/agent"
	"github.com/okian/arena/internal/domain/game"
	"github.com/okian/arena/internal/domain/match"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/rating"
	"github.com/okian/arena/internal/domain/schedule"
	"github.com/okian/arena/internal/domain/types"
	"github.com/okian/arena/pkg/logger"
	"github.com/okian/arena/pkg/metrics"
)

var (
	// ErrNotStarted is returned by operations that need Start first.
	ErrNotStarted = errors.New("service not started")
	// ErrNoTournament is returned when the roster cannot form a schedule.
	ErrNoTournament = errors.New("no tournament configured")
	// ErrRunInProgress rejects a second concurrent run.
	ErrRunInProgress = errors.New("tournament already running")
)

// Service owns the rating engine, the scheduler and the game pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	ratings      *rating.Engine
	scheduler    *schedule.Scheduler
	orchestrator *match.Orchestrator
	runner       *Runner
	gameLogs     repository.GameLogStore
	eventQueue   *eventqueue.InMemoryQueue
	eventWorker  *eventworker.InMemoryWorker
	activeGames  *ActiveGames
	db           *postgres.DB

	// Configuration
	agents        []model.AgentID
	gpm           int
	pairing       schedule.Pairing
	chunkSize     int
	gamePause     time.Duration
	maxTurns      int
	gameTimeout   time.Duration
	fillers       []model.AgentID
	initialRating float64
	kFactor       float64
	ratingsFile   string
	progressFile  string
	gameLogsDir   string
	queueSize     int
	postgresDSN   string
	engine        game.Engine
	registry      *agent.Registry

	// State
	started bool
	running bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithAgents sets the tournament roster.
func WithAgents(ids ...model.AgentID) Option {
	return func(s *Service) {
		s.agents = append([]model.AgentID(nil), ids...)
	}
}

// WithGamesPerMatchup sets how many games each pairing plays.
func WithGamesPerMatchup(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.gpm = n
		}
	}
}

func WithPairing(p schedule.Pairing) Option {
	return func(s *Service) {
		s.pairing = p
	}
}

// WithChunkSize sets the number of games per runner chunk.
func WithChunkSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithPause sets the pause between games; zero disables it.
func WithPause(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.gamePause = d
		}
	}
}

func WithMaxTurns(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTurns = n
		}
	}
}

func WithGameTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.gameTimeout = d
		}
	}
}

// WithFillers seats extra baseline agents in every game.
func WithFillers(ids ...model.AgentID) Option {
	return func(s *Service) {
		s.fillers = append([]model.AgentID(nil), ids...)
	}
}

// WithRating sets the initial rating and K-factor.
func WithRating(initial, k float64) Option {
	return func(s *Service) {
		if initial > 0 {
			s.initialRating = initial
		}
		if k > 0 {
			s.kFactor = k
		}
	}
}

// WithFiles sets where ratings, progress and game logs live.
func WithFiles(ratingsFile, progressFile, gameLogsDir string) Option {
	return func(s *Service) {
		if ratingsFile != "" {
			s.ratingsFile = ratingsFile
		}
		if progressFile != "" {
			s.progressFile = progressFile
		}
		if gameLogsDir != "" {
			s.gameLogsDir = gameLogsDir
		}
	}
}

// WithQueueSize sets the capacity of the game event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithPostgres mirrors rating history and matchup results to dsn.
func WithPostgres(dsn string) Option {
	return func(s *Service) {
		s.postgresDSN = dsn
	}
}

// WithEngine sets the game engine; the built-in race is the default.
func WithEngine(e game.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithRegistry sets how agent ids are resolved.
func WithRegistry(r *agent.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
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
		gpm:           1,
		chunkSize:     DefaultChunkSize,
		gamePause:     DefaultGamePause,
		maxTurns:      match.DefaultMaxTurns,
		gameTimeout:   match.DefaultGameTimeout,
		initialRating: rating.DefaultInitialRating,
		kFactor:       rating.DefaultKFactor,
		ratingsFile:   "elo_ratings.json",
		progressFile:  "tournament_progress.json",
		gameLogsDir:   "game_logs",
		queueSize:     eventqueue.DefaultCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components and starts the event worker. The tournament
// itself is started by Run.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.engine == nil {
		s.engine = race.New()
	}
	if s.registry == nil {
		s.registry = agent.NewRegistry()
	}

	s.logger.Info(ctx, "Starting arena service...")

	gameLogs, err := repository.NewFileGameLogs(s.gameLogsDir)
	if err != nil {
		return err
	}
	s.gameLogs = gameLogs

	if s.postgresDSN != "" {
		s.openMirror(ctx)
	}

	ratingOpts := []rating.Option{
		rating.WithFile(s.ratingsFile),
		rating.WithInitialRating(s.initialRating),
		rating.WithKFactor(s.kFactor),
	}
	if s.db != nil {
		ratingOpts = append(ratingOpts, rating.WithHistorySink(s.db))
	}
	s.ratings = rating.New(ctx, ratingOpts...)

	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.activeGames = NewActiveGames()
	s.eventWorker = eventworker.NewInMemoryWorker(s.eventQueue,
		[]eventworker.Handler{s.activeGames, eventworker.HandlerFunc(s.logEvent)},
		eventworker.WithName("events"))
	go s.eventWorker.Run(context.WithoutCancel(ctx))

	s.orchestrator = match.New(s.engine, s.registry, s.ratings,
		match.WithGameLogs(s.gameLogs),
		match.WithPublisher(s.eventQueue),
		match.WithMaxTurns(s.maxTurns),
		match.WithGameTimeout(s.gameTimeout),
		match.WithFillers(s.fillers...))

	if len(s.agents) > 0 {
		if err := s.buildSchedule(ctx); err != nil {
			s.stopLocked(ctx)
			return err
		}
	}

	s.started = true
	s.logger.Info(ctx, "Arena service started",
		logger.String("engine", s.engine.Name()),
		logger.Int("agents", len(s.agents)),
		logger.Int("games_per_matchup", s.gpm),
		logger.String("pairing", s.pairing.String()))
	return nil
}

func (s *Service) openMirror(ctx context.Context) {
	db, err := postgres.Open(ctx, s.postgresDSN)
	if err == nil {
		err = db.Migrate(ctx)
		if err != nil {
			db.Close()
		}
	}
	if err != nil {
		metrics.RecordPersistenceError("postgres")
		s.logger.Warn(ctx, "Postgres mirror unavailable, continuing with files only", logger.Error(err))
		return
	}
	s.db = db
	s.logger.Info(ctx, "Postgres mirror enabled")
}

func (s *Service) buildSchedule(ctx context.Context) error {
	opts := []schedule.Option{
		schedule.WithFile(s.progressFile),
		schedule.WithPairing(s.pairing),
	}
	if s.db != nil {
		opts = append(opts, schedule.WithResultSink(s.db))
	}
	sched, err := schedule.New(ctx, s.agents, s.gpm, opts...)
	if err != nil {
		return fmt.Errorf("build schedule: %w", err)
	}
	s.scheduler = sched
	s.runner = NewRunner(sched, s.orchestrator,
		WithGamePause(s.gamePause),
		WithRunnerChunkSize(s.chunkSize),
		WithRunnerLogger(s.logger.Named("runner")))
	return nil
}

func (s *Service) logEvent(ctx context.Context, e model.GameEvent) error { //nolint:gocritic // hugeParam: events travel by value
	s.logger.Debug(ctx, "Game event",
		logger.String("game_id", e.GameID),
		logger.String("type", string(e.Type)))
	return nil
}

// Stop drains the event worker and releases resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.stopLocked(context.Background())
	s.started = false
}

func (s *Service) stopLocked(ctx context.Context) {
	s.logger.Info(ctx, "Stopping arena service...")
	if s.eventQueue != nil {
		_ = s.eventQueue.Close()
	}
	if s.eventWorker != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		select {
		case <-s.eventWorker.Done():
		case <-shutdownCtx.Done():
			_ = s.eventWorker.Shutdown(shutdownCtx)
		}
		cancel()
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	s.logger.Info(ctx, "Arena service stopped")
}

func (s *Service) runnerOrErr() (*Runner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case !s.started:
		return nil, ErrNotStarted
	case s.runner == nil:
		return nil, ErrNoTournament
	}
	return s.runner, nil
}

func (s *Service) setRunning(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v && s.running {
		return ErrRunInProgress
	}
	s.running = v
	return nil
}

// Run plays the tournament until it is exhausted or ctx ends.
func (s *Service) Run(ctx context.Context) error {
	r, err := s.runnerOrErr()
	if err != nil {
		return err
	}
	if err := s.setRunning(true); err != nil {
		return err
	}
	defer func() { _ = s.setRunning(false) }()

	st := s.scheduler.Status(ctx)
	s.logger.Info(ctx, "Tournament starting",
		logger.Int("total", st.Total),
		logger.Int("completed", st.Completed),
		logger.Int("pending", st.Pending))

	if err := r.Run(ctx); err != nil {
		return err
	}
	for _, e := range s.ratings.Leaderboard(ctx) {
		s.logger.Info(ctx, "Final standing",
			logger.Int("rank", e.Rank),
			logger.String("agent", e.Agent.String()),
			logger.Float64("rating", e.Rating))
	}
	return nil
}

// RunChunk plays the next n pending games.
func (s *Service) RunChunk(ctx context.Context, n int) (ChunkReport, error) {
	r, err := s.runnerOrErr()
	if err != nil {
		return ChunkReport{}, err
	}
	if err := s.setRunning(true); err != nil {
		return ChunkReport{}, err
	}
	defer func() { _ = s.setRunning(false) }()
	return r.RunChunk(ctx, n)
}

// Leaderboard returns the ranked standings.
func (s *Service) Leaderboard(ctx context.Context) []types.Entry {
	return s.ratings.Leaderboard(ctx)
}

func (s *Service) Statistics(ctx context.Context) rating.Statistics {
	return s.ratings.Statistics(ctx)
}

func (s *Service) Predict(ctx context.Context, a, b model.AgentID) rating.Prediction {
	return s.ratings.Predict(ctx, a, b)
}

// ResetRatings clears every rating and the history.
func (s *Service) ResetRatings(ctx context.Context) {
	s.ratings.Reset(ctx)
}

// ProgressView is the scheduler snapshot with its compact status.
type ProgressView struct {
	schedule.Progress
	Status schedule.Status `json:"status"`
}

// Progress reports the tournament progress; ErrNoTournament when the roster
// is empty.
func (s *Service) Progress(ctx context.Context) (ProgressView, error) {
	s.mu.RLock()
	sched := s.scheduler
	s.mu.RUnlock()
	if sched == nil {
		return ProgressView{}, ErrNoTournament
	}
	return ProgressView{Progress: sched.Snapshot(ctx), Status: sched.Status(ctx)}, nil
}

// RecentGames lists the most recent game logs.
func (s *Service) RecentGames(ctx context.Context, limit int) ([]types.GameSummary, error) {
	return s.gameLogs.List(ctx, limit)
}

// Game returns one game log.
func (s *Service) Game(ctx context.Context, id string) (*types.GameLog, error) {
	return s.gameLogs.Get(ctx, id)
}

// ActiveGames lists games in flight.
func (s *Service) ActiveGames(_ context.Context) []ActiveGame {
	return s.activeGames.List()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":           s.started,
		"running":           s.running,
		"agents":            len(s.agents),
		"games_per_matchup": s.gpm,
		"pairing":           s.pairing.String(),
		"queue_capacity":    s.queueSize,
		"postgres_mirror":   s.db != nil,
	}
	if s.started {
		stats["engine"] = s.engine.Name()
		stats["queue_length"] = s.eventQueue.Len(ctx)
		stats["active_games"] = len(s.activeGames.List())
		stats["rated_agents"] = len(s.ratings.Leaderboard(ctx))
		metrics.UpdateEventQueueSize(s.eventQueue.Len(ctx))
	}
	if s.scheduler != nil {
		st := s.scheduler.Status(ctx)
		stats["total_games"] = st.Total
		stats["completed_games"] = st.Completed
		stats["pending_games"] = st.Pending
	}
	return stats
}
