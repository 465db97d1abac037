package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("agent not found")
	ErrGameNotFound = errors.New("game not found")
	ErrInvalidLimit = errors.New("invalid listing limit")
	ErrInvalidGame  = errors.New("invalid game log")
	ErrGameExists   = errors.New("game log already written")
)
