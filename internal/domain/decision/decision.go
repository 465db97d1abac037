// Package decision turns free-text agent responses into a validated action index.
//
// Resolution never fails: each parse tier either yields a candidate or reports a
// miss, and a final bounds check guarantees 0 <= Index < legal action count.
package decision

import (
	"github.com/okian/arena/internal/domain/model"
)

// Reasoning markers attached by the resolver itself.
const (
	ReasonUnparsable     = "unparsable response"
	ReasonInvalidIndex   = "invalid index, defaulted"
	ReasonNoneProvided   = "no reasoning provided"
	ReasonNoLegalActions = "no legal actions, defaulted"
)

// Tier identifies the parse stage that produced a decision.
type Tier int

const (
	TierWholeRecord Tier = iota + 1
	TierEmbeddedRecord
	TierCuePhrase
	TierBareNumber
	TierDefault
)

var tierNames = map[Tier]string{
	TierWholeRecord:    "whole_record",
	TierEmbeddedRecord: "embedded_record",
	TierCuePhrase:      "cue_phrase",
	TierBareNumber:     "bare_number",
	TierDefault:        "default",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the tier by name in JSON documents such as game logs.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Decision is the validated outcome of one agent response.
type Decision struct {
	Index     int           `json:"action_index"`
	Reasoning string        `json:"reasoning"`
	RawText   string        `json:"raw_text"`
	Agent     model.AgentID `json:"agent,omitempty"`
	Tier      Tier          `json:"tier"`
	// Defaulted is set when the bounds check replaced the candidate with 0.
	Defaulted bool `json:"defaulted"`
	// Trace lists tier misses and bounds violations in the order they happened.
	Trace []string `json:"trace,omitempty"`
}

// candidate is what a parse tier yields: a numeric value that may still be
// fractional or out of range.
type candidate struct {
	value     float64
	reasoning string
}
