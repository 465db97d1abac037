package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/arena/internal/domain/types"
	"github.com/okian/arena/pkg/logger"
)

// Pairing selects how units are generated from the roster.
type Pairing int

const (
	// PairingOrdered plays every ordered pair (a, b) with a != b, so each pair
	// meets twice per game number with both first movers.
	PairingOrdered Pairing = iota
	// PairingAlternating plays every unordered pair once per game number and
	// gives the second agent the first move on odd game numbers.
	PairingAlternating
)

func (p Pairing) String() string {
	switch p {
	case PairingOrdered:
		return "ordered"
	case PairingAlternating:
		return "alternating"
	default:
		return "unknown"
	}
}

// ParsePairing accepts "ordered" (or "") and "alternating".
func ParsePairing(s string) (Pairing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ordered":
		return PairingOrdered, nil
	case "alternating":
		return PairingAlternating, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPairingMode, s)
	}
}

// ResultSink receives every recorded unit result.
type ResultSink interface {
	RecordMatchup(ctx context.Context, r types.MatchupResult) error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithFile persists progress to path. Without it progress lives in memory.
func WithFile(path string) Option {
	return func(s *Scheduler) {
		s.path = path
	}
}

func WithPairing(p Pairing) Option {
	return func(s *Scheduler) {
		s.pairing = p
	}
}

// WithResultSink mirrors recorded results, for example to Postgres.
func WithResultSink(sink ResultSink) Option {
	return func(s *Scheduler) {
		s.sink = sink
	}
}

func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}
