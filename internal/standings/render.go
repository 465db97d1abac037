package standings

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/okian/arena/internal/domain/game"
)

const rule = "============================================================"

// Render writes the report as plain text tables.
func Render(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, rule)
	fmt.Fprintln(tw, "ELO LEADERBOARD")
	fmt.Fprintln(tw, rule)
	fmt.Fprintln(tw, "RANK\tAGENT\tRATING\tW\tL\tD\tWIN%")
	for _, e := range r.Statistics.Leaderboard {
		var wins, losses, draws int
		var rate float64
		if s, ok := r.Statistics.AgentStats[e.Agent]; ok && s != nil {
			wins, losses, draws, rate = s.Wins, s.Losses, s.Draws, s.WinRate
		}
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%d\t%d\t%d\t%.1f\n",
			e.Rank, e.Agent, e.Rating, wins, losses, draws, rate*100)
	}
	fmt.Fprintf(tw, "\nGames rated: %d  Draws: %d  Agents: %d  Average rating: %.1f\n",
		r.Statistics.TotalGames, r.Statistics.TotalDraws, r.Statistics.Agents, r.Statistics.AverageRating)

	if p := r.Progress; p != nil {
		fmt.Fprintf(tw, "\nProgress: %d/%d games (%.1f%%), %d pending, pairing %s\n",
			p.Status.Completed, p.Status.Total, p.Status.ProgressPercentage, p.Status.Pending, p.Pairing)
	} else {
		fmt.Fprintln(tw, "\nNo tournament configured")
	}

	if len(r.Active) > 0 {
		fmt.Fprintln(tw, "\nACTIVE GAMES")
		fmt.Fprintln(tw, "GAME\tTURN\tPLAYERS\tSTARTED")
		for _, g := range r.Active {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", g.GameID, g.CurrentTurn, players(g.Players), g.Started.Format(time.TimeOnly))
		}
	}

	if len(r.Games) > 0 {
		fmt.Fprintln(tw, "\nRECENT GAMES")
		fmt.Fprintln(tw, "GAME\tRESULT\tTURNS\tPLAYERS")
		for _, g := range r.Games {
			result := string(g.Winner) + " won"
			switch {
			case g.Error != "":
				result = "error: " + g.Error
			case g.Draw:
				result = "draw"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", g.GameID, result, g.TotalTurns, players(g.Players))
		}
	}
	return tw.Flush()
}

func players[V ~string](m map[string]V) string {
	parts := make([]string, 0, len(m))
	for _, seat := range game.SeatOrder {
		if id, ok := m[string(seat)]; ok {
			parts = append(parts, string(seat)+"="+string(id))
		}
	}
	return strings.Join(parts, " ")
}
