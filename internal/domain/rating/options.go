package rating

import (
	"time"

	"github.com/okian/arena/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithFile persists ratings and history to path. Without it the engine is
// memory-only.
func WithFile(path string) Option {
	return func(e *Engine) {
		e.path = path
	}
}

// WithInitialRating sets the rating given to unseen agents.
func WithInitialRating(r float64) Option {
	return func(e *Engine) {
		if r > 0 {
			e.initial = r
		}
	}
}

// WithKFactor sets the update step size.
func WithKFactor(k float64) Option {
	return func(e *Engine) {
		if k > 0 {
			e.k = k
		}
	}
}

// WithHistorySink mirrors every new history entry to sink.
func WithHistorySink(sink HistorySink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
