package model

import "errors"

// Sentinel errors for domain models.
var (
	ErrInvalidAgent = errors.New("invalid agent id")
)
