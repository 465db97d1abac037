// Package config defines the tournament configuration and how it is loaded.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the status API listen address, e.g. ":8888".
	Addr string `koanf:"addr"`

	// Agents is the tournament roster; comma separated in the environment.
	Agents []string `koanf:"agents"`

	// GamesPerMatchup is how many games each pairing plays.
	GamesPerMatchup int `koanf:"games_per_matchup"`

	// Pairing is "ordered" (every ordered pair) or "alternating".
	Pairing string `koanf:"pairing"`

	// ChunkSize is the number of games per runner chunk.
	ChunkSize int `koanf:"chunk_size"`

	// GamePauseMS is the pause between consecutive games.
	GamePauseMS int `koanf:"game_pause_ms"`

	MaxTurns           int `koanf:"max_turns"`
	GameTimeoutSeconds int `koanf:"game_timeout_seconds"`

	InitialRating float64 `koanf:"initial_rating"`
	KFactor       float64 `koanf:"k_factor"`

	RatingsFile  string `koanf:"ratings_file"`
	ProgressFile string `koanf:"progress_file"`
	GameLogsDir  string `koanf:"game_logs_dir"`

	// EventQueueSize bounds the in-memory game event queue.
	EventQueueSize int `koanf:"event_queue_size"`

	// FillerSeats are agents seated as WHITE and ORANGE in every game.
	FillerSeats []string `koanf:"filler_seats"`

	RaceTarget  int `koanf:"race_target"`
	RaceMaxStep int `koanf:"race_max_step"`

	LLMBaseURL        string  `koanf:"llm_base_url"`
	LLMAPIKey         string  `koanf:"llm_api_key"`
	LLMTemperature    float64 `koanf:"llm_temperature"`
	LLMMaxTokens      int     `koanf:"llm_max_tokens"`
	LLMTimeoutSeconds int     `koanf:"llm_timeout_seconds"`
	LLMSiteURL        string  `koanf:"llm_site_url"`
	LLMTitle          string  `koanf:"llm_title"`

	// PostgresDSN enables the optional history mirror when set.
	PostgresDSN string `koanf:"postgres_dsn"`

	// RunOnStart starts the tournament as soon as the service is up.
	RunOnStart bool `koanf:"run_on_start"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":8888",
		GamesPerMatchup:    1,
		Pairing:            "ordered",
		ChunkSize:          5,
		GamePauseMS:        2000,
		MaxTurns:           200,
		GameTimeoutSeconds: 300,
		InitialRating:      1500,
		KFactor:            32,
		RatingsFile:        "elo_ratings.json",
		ProgressFile:       "tournament_progress.json",
		GameLogsDir:        "game_logs",
		EventQueueSize:     1024,
		RaceTarget:         21,
		RaceMaxStep:        3,
		LLMBaseURL:         "https://openrouter.ai/api/v1",
		LLMTemperature:     0.7,
		LLMTimeoutSeconds:  45,
		LLMTitle:           "Agent Arena",
		RunOnStart:         true,
	}
}

// GamePause is GamePauseMS as a duration.
func (c *Config) GamePause() time.Duration {
	return time.Duration(c.GamePauseMS) * time.Millisecond
}

// GameTimeout is GameTimeoutSeconds as a duration.
func (c *Config) GameTimeout() time.Duration {
	return time.Duration(c.GameTimeoutSeconds) * time.Second
}

// LLMTimeout is LLMTimeoutSeconds as a duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}
