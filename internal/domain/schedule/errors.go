package schedule

import "errors"

var (
	ErrTooFewAgents       = errors.New("schedule needs at least two distinct agents")
	ErrInvalidGameCount   = errors.New("games per matchup must be at least 1")
	ErrAlreadyCompleted   = errors.New("matchup unit already completed")
	ErrUnknownUnit        = errors.New("matchup unit not in schedule")
	ErrUnknownPairingMode = errors.New("unknown pairing mode")
	ErrDuplicateMatchup   = errors.New("duplicate matchup id")
)
