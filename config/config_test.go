package config

import (
	"testing"
	"time"

	"github.com/dhamidi/crabrl/arena"
	"github.com/dhamidi/crabrl/linkbase"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"CRABRL_ADDR", "CRABRL_MAX_UPLOAD_BYTES", "CRABRL_PROFILE", "CRABRL_STRICT",
		"CRABRL_TOLERANCE", "CRABRL_ARENA_BLOCK_SIZE", "CRABRL_SCALAR",
		"CRABRL_DEFERRED_REFS", "CRABRL_LOG_VERBOSITY", "CRABRL_READ_TIMEOUT",
		"CRABRL_WRITE_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Addr != ":8091" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":8091")
	}
	if cfg.Profile != "generic" || cfg.Strict {
		t.Errorf("Profile, Strict = %q, %v", cfg.Profile, cfg.Strict)
	}
	if cfg.Tolerance != linkbase.DefaultTolerance {
		t.Errorf("Tolerance = %v, want %v", cfg.Tolerance, linkbase.DefaultTolerance)
	}
	if cfg.ArenaBlockSize != arena.DefaultBlockSize {
		t.Errorf("ArenaBlockSize = %d, want %d", cfg.ArenaBlockSize, arena.DefaultBlockSize)
	}
	if cfg.ReadTimeout != 30*time.Second || cfg.WriteTimeout != 2*time.Minute {
		t.Errorf("timeouts = %v, %v", cfg.ReadTimeout, cfg.WriteTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if got := len(cfg.ParserOptions()); got != 1 {
		t.Errorf("ParserOptions = %d options, want 1", got)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CRABRL_ADDR", "127.0.0.1:9000")
	t.Setenv("CRABRL_PROFILE", "ifrs")
	t.Setenv("CRABRL_STRICT", "true")
	t.Setenv("CRABRL_TOLERANCE", "0.5")
	t.Setenv("CRABRL_SCALAR", "1")
	t.Setenv("CRABRL_DEFERRED_REFS", "true")
	t.Setenv("CRABRL_READ_TIMEOUT", "5s")
	cfg := Load()
	if cfg.Addr != "127.0.0.1:9000" || cfg.Profile != "ifrs" || !cfg.Strict || cfg.Tolerance != 0.5 {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.Scalar || !cfg.DeferredRefs || cfg.ReadTimeout != 5*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if got := len(cfg.ParserOptions()); got != 3 {
		t.Errorf("ParserOptions = %d options, want 3", got)
	}
	if got := len(cfg.ValidatorOptions()); got != 3 {
		t.Errorf("ValidatorOptions = %d options, want 3", got)
	}
}

func TestLoadClampsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
		check      func(Config) bool
	}{
		{"CRABRL_MAX_UPLOAD_BYTES", "-1", func(c Config) bool { return c.MaxUploadBytes == 268435456 }},
		{"CRABRL_MAX_UPLOAD_BYTES", "lots", func(c Config) bool { return c.MaxUploadBytes == 268435456 }},
		{"CRABRL_TOLERANCE", "0", func(c Config) bool { return c.Tolerance == linkbase.DefaultTolerance }},
		{"CRABRL_ARENA_BLOCK_SIZE", "0", func(c Config) bool { return c.ArenaBlockSize == arena.DefaultBlockSize }},
		{"CRABRL_LOG_VERBOSITY", "-2", func(c Config) bool { return c.LogVerbosity == 0 }},
		{"CRABRL_WRITE_TIMEOUT", "-1s", func(c Config) bool { return c.WriteTimeout == 2*time.Minute }},
		{"CRABRL_STRICT", "maybe", func(c Config) bool { return !c.Strict }},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if cfg := Load(); !tt.check(cfg) {
				t.Errorf("%s=%q gave %+v", tt.key, tt.value, cfg)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.Profile = "nonsense"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted an unknown profile")
	}
	cfg.Profile = "sec"
	cfg.Addr = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted an empty address")
	}
}
