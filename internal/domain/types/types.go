// Package types contains read shapes shared by the rating engine and the HTTP API.
package types

import "github.com/okian/arena/internal/domain/model"

// Entry is one leaderboard row.
type Entry struct {
	Rank   int           `json:"rank"`
	Agent  model.AgentID `json:"agent"`
	Rating float64       `json:"rating"`
}
