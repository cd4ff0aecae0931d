package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/termfx/symx/internal/core"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, core.ModeAuto, cfg.NumericMode)
	assert.Equal(t, uint(core.DefaultPrecision), cfg.Precision)
	assert.Equal(t, core.DefaultTolerance, cfg.Tolerance)
	assert.Equal(t, time.Duration(0), cfg.TimeLimit)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SYMX_NUMERIC_MODE", "bignum")
	t.Setenv("SYMX_PRECISION", "250")
	t.Setenv("SYMX_TOLERANCE", "1e-8")
	t.Setenv("SYMX_TIME_LIMIT_MS", "1500")
	t.Setenv("SYMX_ITERATION_LIMIT", "64")
	t.Setenv("SYMX_DEBUG", "true")

	cfg := Load()
	assert.Equal(t, core.ModeBignum, cfg.NumericMode)
	assert.Equal(t, uint(250), cfg.Precision)
	assert.Equal(t, 1e-8, cfg.Tolerance)
	assert.Equal(t, 1500*time.Millisecond, cfg.TimeLimit)
	assert.Equal(t, 64, cfg.IterationLimit)
	assert.True(t, cfg.Debug)
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("SYMX_NUMERIC_MODE", "quantum")
	t.Setenv("SYMX_PRECISION", "-1")
	cfg := Load()
	assert.Equal(t, core.ModeAuto, cfg.NumericMode)
	assert.Equal(t, uint(core.DefaultPrecision), cfg.Precision)
}

func TestLimits(t *testing.T) {
	cfg := Load()
	cfg.TimeLimit = time.Second
	cfg.IterationLimit = 10
	l := cfg.Limits()
	assert.Equal(t, time.Second, l.Time)
	assert.Equal(t, 10, l.Iterations)
}
