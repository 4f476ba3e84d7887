package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dhamidi/crabrl/arena"
	"github.com/dhamidi/crabrl/linkbase"
	"github.com/dhamidi/crabrl/parser"
	"github.com/dhamidi/crabrl/validator"
)

type Config struct {
	Addr string

	// Upload limits
	MaxUploadBytes int64

	// Validation defaults
	Profile   string
	Strict    bool
	Tolerance float64

	// Parser tuning
	ArenaBlockSize int
	Scalar         bool
	DeferredRefs   bool

	LogVerbosity int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func Load() Config {
	cfg := Config{
		Addr: envOr("CRABRL_ADDR", ":8091"),

		MaxUploadBytes: envInt64("CRABRL_MAX_UPLOAD_BYTES", 268435456), // 256MB

		Profile:   envOr("CRABRL_PROFILE", "generic"),
		Strict:    envBool("CRABRL_STRICT", false),
		Tolerance: envFloat("CRABRL_TOLERANCE", linkbase.DefaultTolerance),

		ArenaBlockSize: envInt("CRABRL_ARENA_BLOCK_SIZE", arena.DefaultBlockSize),
		Scalar:         envBool("CRABRL_SCALAR", false),
		DeferredRefs:   envBool("CRABRL_DEFERRED_REFS", false),

		LogVerbosity: envInt("CRABRL_LOG_VERBOSITY", 0),

		ReadTimeout:  envDuration("CRABRL_READ_TIMEOUT", 30*time.Second),
		WriteTimeout: envDuration("CRABRL_WRITE_TIMEOUT", 2*time.Minute),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 268435456
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = linkbase.DefaultTolerance
	}
	if cfg.ArenaBlockSize <= 0 {
		cfg.ArenaBlockSize = arena.DefaultBlockSize
	}
	if cfg.LogVerbosity < 0 {
		cfg.LogVerbosity = 0
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("CRABRL_ADDR is required")
	}
	if _, err := validator.ParseProfile(c.Profile); err != nil {
		return fmt.Errorf("CRABRL_PROFILE: %w", err)
	}
	return nil
}

// ParserOptions returns the parser options selected by c.
func (c Config) ParserOptions() []parser.Option {
	opts := []parser.Option{parser.WithBlockSize(c.ArenaBlockSize)}
	if c.Scalar {
		opts = append(opts, parser.WithScalarScanner())
	}
	if c.DeferredRefs {
		opts = append(opts, parser.WithDeferredResolution())
	}
	return opts
}

// ValidatorOptions returns validator options for c. An unknown profile
// falls back to the generic one; Validate reports it.
func (c Config) ValidatorOptions() []validator.Option {
	profile, err := validator.ParseProfile(c.Profile)
	if err != nil {
		profile = validator.Generic
	}
	return []validator.Option{
		validator.WithProfile(profile),
		validator.WithStrict(c.Strict),
		validator.WithTolerance(c.Tolerance),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
