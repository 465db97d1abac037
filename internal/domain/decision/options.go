package decision

import "github.com/okian/arena/pkg/logger"

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger replaces the resolver's logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMaxReasoning caps the reasoning excerpt taken from free text. Zero keeps
// the whole response.
func WithMaxReasoning(n int) Option {
	return func(r *Resolver) {
		if n >= 0 {
			r.maxReasoning = n
		}
	}
}
