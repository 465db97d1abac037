package config

import (
	"errors"
)

var (
	// ErrInvalidConfig is returned when a loaded value is out of range.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps file, environment and decoding failures.
	ErrLoadConfig = errors.New("load config failed")
)
