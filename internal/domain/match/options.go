package match

import (
	"time"

	"github.com/okian/arena/internal/adapters/repository"
	"github.com/okian/arena/internal/domain/decision"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/pkg/logger"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxTurns caps the number of applied actions; reaching it is a draw.
func WithMaxTurns(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxTurns = n
		}
	}
}

// WithGameTimeout bounds the wall-clock duration of one game.
func WithGameTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithFillers seats extra agents after RED and BLUE, at most two.
func WithFillers(ids ...model.AgentID) Option {
	return func(o *Orchestrator) {
		if len(ids) > maxFillers {
			ids = ids[:maxFillers]
		}
		o.fillers = append([]model.AgentID(nil), ids...)
	}
}

func WithResolver(r *decision.Resolver) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithGameLogs archives each finished game.
func WithGameLogs(store repository.GameLogStore) Option {
	return func(o *Orchestrator) {
		o.logs = store
	}
}

// WithPublisher publishes lifecycle events; publishing never blocks a game.
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) {
		o.publisher = p
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithIDGenerator replaces uuid game ids, for tests.
func WithIDGenerator(gen func() string) Option {
	return func(o *Orchestrator) {
		if gen != nil {
			o.newID = gen
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}
