// Package config loads engine configuration from the environment. A
// .env file in the working directory is honoured when present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/termfx/symx/internal/core"
)

// Config holds the engine's construction parameters.
type Config struct {
	NumericMode    core.NumericMode
	Precision      uint
	Tolerance      float64
	TimeLimit      time.Duration
	IterationLimit int
	RecursionLimit int
	Debug          bool
	// TablePath optionally points at a YAML identifier-library table.
	TablePath string
}

// Load reads configuration from SYMX_* environment variables with typed
// defaults, after a best-effort .env load.
func Load() *Config {
	_ = godotenv.Load()

	limits := core.DefaultLimits()
	cfg := &Config{
		NumericMode:    core.ModeAuto,
		Precision:      core.DefaultPrecision,
		Tolerance:      core.DefaultTolerance,
		IterationLimit: limits.Iterations,
		RecursionLimit: limits.Recursion,
		TablePath:      os.Getenv("SYMX_IDS_TABLE"),
	}

	if mode := core.NumericMode(os.Getenv("SYMX_NUMERIC_MODE")); mode.Valid() {
		cfg.NumericMode = mode
	}
	if s := os.Getenv("SYMX_PRECISION"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			cfg.Precision = uint(v)
		}
	}
	if s := os.Getenv("SYMX_TOLERANCE"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil && v > 0 {
			cfg.Tolerance = v
		}
	}
	if s := os.Getenv("SYMX_TIME_LIMIT_MS"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			cfg.TimeLimit = time.Duration(v) * time.Millisecond
		}
	}
	if s := os.Getenv("SYMX_ITERATION_LIMIT"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			cfg.IterationLimit = v
		}
	}
	if s := os.Getenv("SYMX_RECURSION_LIMIT"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			cfg.RecursionLimit = v
		}
	}
	if s := os.Getenv("SYMX_DEBUG"); s != "" {
		if v, err := strconv.ParseBool(s); err == nil {
			cfg.Debug = v
		}
	}
	return cfg
}

// Limits converts the loaded bounds into the engine's limit record.
func (c *Config) Limits() core.Limits {
	l := core.DefaultLimits()
	l.Time = c.TimeLimit
	l.Iterations = c.IterationLimit
	l.Recursion = c.RecursionLimit
	return l
}
