// Package config loads runtime settings from WORLDWEAVER_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

var (
	ErrInvalidSpread = errors.New("difficulty spread must be positive")
	ErrInvalidScore  = errors.New("initial score must be below the end threshold")
)

// Config is the configuration of one worldweaver process.
type Config struct {
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	Model           string `env:"WORLDWEAVER_MODEL"`
	MaxCallsPerMin  int    `env:"WORLDWEAVER_MAX_CALLS_PER_MIN" envDefault:"30"`

	RandomOrgKey string `env:"RANDOM_ORG_API_KEY"`
	// Seed makes rolls reproducible when random.org is not configured.
	Seed int64 `env:"WORLDWEAVER_SEED"`

	LuckMean         int    `env:"WORLDWEAVER_LUCK" envDefault:"5"`
	DifficultySpread int    `env:"WORLDWEAVER_DIFFICULTY" envDefault:"2"`
	InitialScore     int    `env:"WORLDWEAVER_INITIAL_SCORE" envDefault:"10"`
	NarrativeSeed    string `env:"WORLDWEAVER_NARRATIVE_SEED"`

	RecomputePopulationOnPowers bool `env:"WORLDWEAVER_RECOMPUTE_POPULATION"`

	JournalPath string `env:"WORLDWEAVER_JOURNAL" envDefault:":memory:"`
	LogLevel    string `env:"WORLDWEAVER_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the narration parameters.
func (c Config) Validate() error {
	if c.DifficultySpread <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSpread, c.DifficultySpread)
	}
	if c.InitialScore >= endThreshold {
		return fmt.Errorf("%w: %d", ErrInvalidScore, c.InitialScore)
	}
	return nil
}

// endThreshold mirrors mechanics.Threshold; config sits below every other
// package and does not import it.
const endThreshold = 20

// Level maps LogLevel to a slog level. Unknown names mean info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
