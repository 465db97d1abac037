package agent

import (
	"fmt"
	"sync"

	"github.com/okian/arena/internal/domain/model"
)

// Factory builds a model-backed agent for id.
type Factory func(id model.AgentID) (Agent, error)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithModelFactory sets the factory used for every non-baseline id.
func WithModelFactory(f Factory) RegistryOption {
	return func(r *Registry) {
		r.factory = f
	}
}

// WithSeed seeds random baselines. Each resolved random agent gets seed+n.
func WithSeed(seed int64) RegistryOption {
	return func(r *Registry) {
		r.seed = seed
	}
}

// WithAgent pins an explicit agent for id.
func WithAgent(id model.AgentID, a Agent) RegistryOption {
	return func(r *Registry) {
		r.agents[id] = a
	}
}

// Registry resolves agent ids and caches the result.
type Registry struct {
	mu      sync.Mutex
	agents  map[model.AgentID]Agent
	factory Factory
	seed    int64
	randoms int64
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{agents: make(map[model.AgentID]Agent)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the agent for id: baseline/first and baseline/random are
// built in, anything else goes to the model factory.
func (r *Registry) Resolve(id model.AgentID) (Agent, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.agents[id]; ok {
		return a, nil
	}
	var a Agent
	switch id {
	case FirstID:
		a = Forced{}
	case RandomID:
		a = NewRandom(r.seed + r.randoms)
		r.randoms++
	default:
		if r.factory == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoModelFactory, id)
		}
		built, err := r.factory(id)
		if err != nil {
			return nil, fmt.Errorf("build agent %s: %w", id, err)
		}
		a = built
	}
	r.agents[id] = a
	return a, nil
}

// IsBaseline reports whether id is served without a model.
func IsBaseline(id model.AgentID) bool {
	return id == FirstID || id == RandomID
}
