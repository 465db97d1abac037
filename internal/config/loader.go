package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/arena/internal/domain/schedule"
)

const (
	envPrefix = "ARENA_"
	// EnvConfigFile names the optional YAML config file.
	EnvConfigFile = envPrefix + "CONFIG"
)

// listKeys are comma separated when they come from the environment.
var listKeys = map[string]bool{
	"agents":       true,
	"filler_seats": true,
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ARENA_CONFIG is set
//  3. env (prefix ARENA_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// ARENA_GAMES_PER_MATCHUP -> games_per_matchup
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.Agents = splitList(strings.Join(cfg.Agents, ","))
	cfg.FillerSeats = splitList(strings.Join(cfg.FillerSeats, ","))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges. An empty roster is allowed so the status API and
// -show-stats can run without a tournament.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.GamesPerMatchup < 1:
		return fmt.Errorf("%w: games_per_matchup must be >= 1", ErrInvalidConfig)
	case c.ChunkSize < 1:
		return fmt.Errorf("%w: chunk_size must be >= 1", ErrInvalidConfig)
	case c.GamePauseMS < 0:
		return fmt.Errorf("%w: game_pause_ms must be >= 0", ErrInvalidConfig)
	case c.MaxTurns < 1:
		return fmt.Errorf("%w: max_turns must be >= 1", ErrInvalidConfig)
	case c.GameTimeoutSeconds < 1:
		return fmt.Errorf("%w: game_timeout_seconds must be >= 1", ErrInvalidConfig)
	case c.KFactor <= 0:
		return fmt.Errorf("%w: k_factor must be > 0", ErrInvalidConfig)
	case c.EventQueueSize < 1:
		return fmt.Errorf("%w: event_queue_size must be >= 1", ErrInvalidConfig)
	case len(c.FillerSeats) > 2:
		return fmt.Errorf("%w: at most two filler_seats", ErrInvalidConfig)
	case c.RaceTarget < 1 || c.RaceMaxStep < 1:
		return fmt.Errorf("%w: race_target and race_max_step must be >= 1", ErrInvalidConfig)
	}
	if _, err := schedule.ParsePairing(c.Pairing); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
