// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// MatchupSeparator joins the two agents of a matchup id.
const MatchupSeparator = "_vs_"

// AgentID identifies an agent, usually "provider/model". It is only ever compared
// for equality.
type AgentID string

func (a AgentID) String() string { return string(a) }

// Validate reports whether a can be used as a rating and scheduling key.
func (a AgentID) Validate() error {
	switch {
	case strings.TrimSpace(string(a)) == "":
		return fmt.Errorf("%w: empty id", ErrInvalidAgent)
	case strings.Contains(string(a), MatchupSeparator):
		return fmt.Errorf("%w: %q contains %q", ErrInvalidAgent, a, MatchupSeparator)
	// "x_vs" + "_vs_" + "y" and "x" + "_vs_" + "vs_y" spell the same matchup id.
	case strings.HasSuffix(string(a), strings.TrimSuffix(MatchupSeparator, "_")),
		strings.HasPrefix(string(a), strings.TrimPrefix(MatchupSeparator, "_")):
		return fmt.Errorf("%w: %q would make matchup ids ambiguous", ErrInvalidAgent, a)
	}
	return nil
}

// AgentIDs converts raw identifiers, trimming whitespace.
func AgentIDs(raw []string) []AgentID {
	out := make([]AgentID, 0, len(raw))
	for _, r := range raw {
		out = append(out, AgentID(strings.TrimSpace(r)))
	}
	return out
}
