package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/arena/internal/domain/agent"
	"github.com/okian/arena/internal/domain/game"
)

// SystemPrompt instructs model-backed agents on the answer format.
const SystemPrompt = `You are an expert player of turn-based strategy games. You will be given the current game state and a list of legal actions.

Choose the best action from the legal actions list. Consider your position, your opponents' positions and how close everyone is to winning.

You MUST respond with ONLY a valid JSON object in this exact format:
{"action_index": 0, "reasoning": "Brief explanation"}

Where:
- action_index: an integer from 0 to (number of legal actions - 1)
- reasoning: a brief string explaining your choice

Do not include any text before or after the JSON object.`

const recentActionsShown = 5

// BuildPrompt renders the state and the numbered legal actions for seat.
func BuildPrompt(snap game.Snapshot, legal []game.Action) agent.Prompt {
	var b strings.Builder

	b.WriteString("=== CURRENT GAME STATE ===\n")
	fmt.Fprintf(&b, "Turn: %d\n", snap.Turn)
	fmt.Fprintf(&b, "Current Player: %s\n", snap.CurrentPlayer)

	if len(snap.Players) > 0 {
		b.WriteString("\n=== PLAYER STATUS ===\n")
		for _, seat := range orderedSeats(snap.Players) {
			p := snap.Players[seat]
			fmt.Fprintf(&b, "\nPlayer %s:\n", seat)
			fmt.Fprintf(&b, "  Victory Points: %d\n", p.VictoryPoints)
			if len(p.Resources) > 0 {
				fmt.Fprintf(&b, "  Resources: %s\n", formatMap(p.Resources))
			}
			if len(p.Extra) > 0 {
				fmt.Fprintf(&b, "  Details: %s\n", formatMap(p.Extra))
			}
		}
	}

	if len(snap.Board) > 0 {
		b.WriteString("\n=== BOARD STATE ===\n")
		for _, k := range sortedKeys(snap.Board) {
			fmt.Fprintf(&b, "%s: %v\n", k, snap.Board[k])
		}
	}

	if len(snap.RecentActions) > 0 {
		b.WriteString("\n=== RECENT ACTIONS ===\n")
		recent := snap.RecentActions
		if len(recent) > recentActionsShown {
			recent = recent[len(recent)-recentActionsShown:]
		}
		for _, a := range recent {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}

	b.WriteString("\n=== LEGAL ACTIONS ===\n")
	options := make([]string, len(legal))
	for i, a := range legal {
		options[i] = a.String()
		fmt.Fprintf(&b, "%d: %s\n", i, options[i])
	}
	b.WriteString("\nChoose the best action by its index number.")

	return agent.Prompt{System: SystemPrompt, User: b.String(), Options: options}
}

// orderedSeats lists the standard seats first, then any others by name.
func orderedSeats(players map[game.Seat]game.PlayerStatus) []game.Seat {
	out := make([]game.Seat, 0, len(players))
	known := make(map[game.Seat]bool, len(game.SeatOrder))
	for _, s := range game.SeatOrder {
		known[s] = true
		if _, ok := players[s]; ok {
			out = append(out, s)
		}
	}
	var rest []game.Seat
	for s := range players {
		if !known[s] {
			rest = append(rest, s)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatMap[V any](m map[string]V) string {
	parts := make([]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, ", ")
}
