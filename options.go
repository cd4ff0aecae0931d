package symx

import (
	"time"

	"go.uber.org/zap"

	"github.com/termfx/symx/internal/config"
)

type settings struct {
	cfg      *config.Config
	logger   *zap.Logger
	costBias float64
	bare     bool
}

// Option adjusts engine construction over the environment configuration.
type Option func(*settings)

// WithNumericMode selects the preferred numeric representation.
func WithNumericMode(m NumericMode) Option {
	return func(s *settings) {
		if m.Valid() {
			s.cfg.NumericMode = m
		}
	}
}

// WithPrecision sets the working precision in decimal digits.
func WithPrecision(digits uint) Option {
	return func(s *settings) {
		if digits > 0 {
			s.cfg.Precision = digits
		}
	}
}

// WithTolerance sets the numeric equality threshold.
func WithTolerance(tol float64) Option {
	return func(s *settings) {
		if tol > 0 {
			s.cfg.Tolerance = tol
		}
	}
}

// WithTimeLimit arms the engine deadline.
func WithTimeLimit(d time.Duration) Option {
	return func(s *settings) { s.cfg.TimeLimit = d }
}

// WithIterationLimit bounds the rule engine's inner loops.
func WithIterationLimit(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.cfg.IterationLimit = n
		}
	}
}

// WithLogger injects a structured logger; the default is a no-op logger,
// or a development logger when SYMX_DEBUG is set.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithCostBias overrides the rule engine's acceptance ratio.
func WithCostBias(bias float64) Option {
	return func(s *settings) {
		if bias > 0 {
			s.costBias = bias
		}
	}
}

// WithIDs points at a YAML identifier-library table loaded after the
// standard library.
func WithIDs(path string) Option {
	return func(s *settings) { s.cfg.TablePath = path }
}

// WithoutStandardLibrary skips registration of the standard identifier
// library, leaving an empty root scope.
func WithoutStandardLibrary() Option {
	return func(s *settings) { s.bare = true }
}
