package agent

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// Baseline agent ids understood by the registry.
const (
	FirstID  = "baseline/first"
	RandomID = "baseline/random"
)

func reply(index int, reasoning string) string {
	return fmt.Sprintf(`{"action_index": %d, "reasoning": %q}`, index, reasoning)
}

// Forced always picks the first legal action.
type Forced struct{}

func (Forced) Respond(context.Context, Prompt) (string, error) {
	return reply(0, "baseline: first legal action"), nil
}

// Random picks uniformly among the options. Identical seeds replay identical
// choices.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Respond(_ context.Context, p Prompt) (string, error) {
	if len(p.Options) == 0 {
		return reply(0, "baseline: no options"), nil
	}
	r.mu.Lock()
	i := r.rng.Intn(len(p.Options))
	r.mu.Unlock()
	return reply(i, "baseline: random choice"), nil
}
