package decision

import (
	"context"
	"fmt"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/pkg/logger"
	"github.com/okian/arena/pkg/metrics"
)

const defaultMaxReasoning = 500

// Resolver parses agent responses. It holds no per-call state and is safe for
// concurrent use.
type Resolver struct {
	logger       logger.Logger
	maxReasoning int
}

// NewResolver creates a resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		logger:       logger.Named("decision"),
		maxReasoning: defaultMaxReasoning,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type tierFunc func(text string) (candidate, bool)

// Resolve extracts an action index from raw. The result always satisfies
// 0 <= Index < legalCount when legalCount >= 1, and is 0 otherwise.
func (r *Resolver) Resolve(ctx context.Context, raw string, legalCount int) Decision {
	return r.ResolveFor(ctx, "", raw, legalCount)
}

// ResolveFor is Resolve with the responding agent attached to the decision.
func (r *Resolver) ResolveFor(ctx context.Context, agent model.AgentID, raw string, legalCount int) Decision {
	d := Decision{RawText: raw, Agent: agent}

	tiers := []struct {
		tier  Tier
		parse tierFunc
	}{
		{TierWholeRecord, parseRecord},
		{TierEmbeddedRecord, parseEmbedded},
		{TierCuePhrase, func(s string) (candidate, bool) { return parseCue(s, r.maxReasoning) }},
		{TierBareNumber, func(s string) (candidate, bool) { return parseBareNumber(s, r.maxReasoning) }},
	}

	c := candidate{value: 0, reasoning: ReasonUnparsable}
	d.Tier = TierDefault
	for _, t := range tiers {
		got, ok := t.parse(raw)
		if !ok {
			d.Trace = append(d.Trace, t.tier.String()+": no match")
			metrics.RecordDecisionTierMiss(t.tier.String())
			continue
		}
		c, d.Tier = got, t.tier
		break
	}
	metrics.RecordDecision(d.Tier.String())
	if d.Tier == TierDefault {
		r.logger.Warn(ctx, "Unparsable agent response, using first action",
			logger.String("agent", agent.String()),
			logger.String("response", excerpt(raw, 200)))
	}

	d.Reasoning = c.reasoning
	if legalCount < 1 {
		d.Index, d.Defaulted, d.Reasoning = 0, true, ReasonNoLegalActions
		d.Trace = append(d.Trace, "bounds: no legal actions")
		metrics.RecordDecisionBoundsViolation()
		return d
	}

	idx, ok := inBounds(c.value, legalCount)
	if !ok {
		d.Trace = append(d.Trace, fmt.Sprintf("bounds: %v not in [0,%d)", c.value, legalCount))
		metrics.RecordDecisionBoundsViolation()
		r.logger.Debug(ctx, "Action index out of range",
			logger.String("agent", agent.String()),
			logger.Float64("value", c.value),
			logger.Int("legal_actions", legalCount))
		d.Index, d.Defaulted, d.Reasoning = 0, true, ReasonInvalidIndex
		return d
	}
	d.Index = idx
	return d
}
