package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrMissingAgent = errors.New("query parameters a and b are required")
	ErrInvalidLimit = errors.New("limit must be a positive integer")
)
