// Package engine implements the symbolic computation core: the boxed
// expression model, the canonicaliser, the pattern matcher, the rule
// engine, the evaluator and the univariate solver. The parts are mutually
// recursive and live in one package, split across files by concern.
//
// An Engine is single-threaded cooperative: no call suspends internally,
// and concurrent use must route through distinct instances. Long-running
// loops poll the engine deadline and abort with core.ErrTimeout.
package engine

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/termfx/symx/internal/core"
	"github.com/termfx/symx/internal/kernel"
)

// Config carries the construction parameters of an engine.
type Config struct {
	Mode      core.NumericMode
	Precision uint
	Tolerance float64
	CostBias  float64
	Limits    core.Limits
	Logger    *zap.Logger
}

// Engine owns the scope stack, the caches and every node built on it.
// Nodes hold a non-owning back-pointer; the engine outlives them all.
type Engine struct {
	id        string
	log       *zap.Logger
	mode      core.NumericMode
	precision uint
	tolerance float64
	costBias  float64
	costFn    func(*Expr) float64

	rootScope *Scope
	scope     *Scope

	deadline time.Time

	// Caches are monotonic within a configuration epoch and flushed
	// whenever precision or numeric mode changes.
	epoch    string
	common   map[uint64][]*Expr
	rulesets map[string]RuleSet
	stdRules RuleSet

	consts struct {
		zero, one, half, nan, posInf, negInf, imaginary *Expr
		pi, e                                           *Expr
	}

	freshCounter int
	recursion    int
}

// NewEngine constructs an engine with the given configuration. Zero-value
// fields fall back to the documented defaults.
func NewEngine(cfg Config) *Engine {
	if !cfg.Mode.Valid() {
		cfg.Mode = core.ModeAuto
	}
	if cfg.Precision == 0 {
		cfg.Precision = core.DefaultPrecision
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = core.DefaultTolerance
	}
	if cfg.CostBias == 0 {
		cfg.CostBias = core.DefaultCostBias
	}
	defaults := core.DefaultLimits()
	if cfg.Limits.Iterations == 0 {
		cfg.Limits.Iterations = defaults.Iterations
	}
	if cfg.Limits.Recursion == 0 {
		cfg.Limits.Recursion = defaults.Recursion
	}
	if cfg.Limits.MemoryMB == 0 {
		cfg.Limits.MemoryMB = defaults.MemoryMB
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	en := &Engine{
		id:        uuid.NewString(),
		log:       cfg.Logger,
		mode:      cfg.Mode,
		precision: cfg.Precision,
		tolerance: cfg.Tolerance,
		costBias:  cfg.CostBias,
	}
	en.costFn = en.defaultCost
	en.rootScope = newScope(nil, cfg.Limits)
	en.scope = en.rootScope
	en.resetCaches()
	if cfg.Limits.Time > 0 {
		en.deadline = time.Now().Add(cfg.Limits.Time)
	}
	en.log.Debug("engine created",
		zap.String("engine", en.id),
		zap.String("mode", string(en.mode)),
		zap.Uint("precision", en.precision))
	return en
}

// ID returns the engine instance identifier.
func (en *Engine) ID() string { return en.id }

// Logger returns the engine logger.
func (en *Engine) Logger() *zap.Logger { return en.log }

// Mode returns the numeric mode.
func (en *Engine) Mode() core.NumericMode { return en.mode }

// Precision returns the working precision in decimal digits.
func (en *Engine) Precision() uint { return en.precision }

// Tolerance returns the numeric equality threshold.
func (en *Engine) Tolerance() float64 { return en.tolerance }

// CostBias returns the acceptance ratio of the rule engine.
func (en *Engine) CostBias() float64 { return en.costBias }

// SetCostFunction replaces the rewrite cost function; nil restores the
// default depth-and-complexity weighting.
func (en *Engine) SetCostFunction(fn func(*Expr) float64) {
	if fn == nil {
		fn = en.defaultCost
	}
	en.costFn = fn
}

// SetMode switches the numeric mode, flushing all caches.
func (en *Engine) SetMode(m core.NumericMode) {
	if !m.Valid() || m == en.mode {
		return
	}
	en.mode = m
	en.resetCaches()
}

// SetPrecision changes the working precision in digits, flushing all
// caches. Values below machine precision clamp to machine precision.
func (en *Engine) SetPrecision(digits uint) {
	if digits < 15 {
		digits = 15
	}
	if digits == en.precision {
		return
	}
	en.precision = digits
	en.resetCaches()
}

// SetTolerance changes the numeric equality threshold.
func (en *Engine) SetTolerance(tol float64) {
	if tol > 0 {
		en.tolerance = tol
	}
}

// SetTimeLimit arms the monotonic deadline d from now; a zero duration
// disarms it.
func (en *Engine) SetTimeLimit(d time.Duration) {
	if d <= 0 {
		en.deadline = time.Time{}
		return
	}
	en.deadline = time.Now().Add(d)
}

// Deadline returns the current deadline; zero when disarmed.
func (en *Engine) Deadline() time.Time { return en.deadline }

// shouldContinue is polled between iterations of long-running loops.
func (en *Engine) shouldContinue() error {
	if !en.deadline.IsZero() && time.Now().After(en.deadline) {
		return core.ErrTimeout
	}
	return nil
}

// IterationLimit returns the inner-loop bound of the current scope.
func (en *Engine) IterationLimit() int { return en.scope.limits.Iterations }

// enterRecursion guards handler recursion against the scope limit.
func (en *Engine) enterRecursion() error {
	en.recursion++
	if en.recursion > en.scope.limits.Recursion {
		en.recursion--
		return core.ErrInternal
	}
	return nil
}

func (en *Engine) leaveRecursion() { en.recursion-- }

// rebuildConstants builds the precomputed common values; they are attached to
// the current epoch and rebuilt on any configuration change.
func (en *Engine) rebuildConstants() {
	en.consts.zero = en.newNumber(kernel.FromInt(0))
	en.consts.one = en.newNumber(kernel.FromInt(1))
	en.consts.half = en.newNumber(kernel.FromRat(1, 2))
	en.consts.nan = en.newNumber(kernel.FromFloat(math.NaN()))
	en.consts.posInf = en.newNumber(kernel.FromFloat(math.Inf(1)))
	en.consts.negInf = en.newNumber(kernel.FromFloat(math.Inf(-1)))
	en.consts.imaginary = en.newNumber(kernel.FromComplex(0, 1))
	en.consts.pi = en.newSymbol("Pi")
	en.consts.e = en.newSymbol("ExponentialE")
}

// resetCaches starts a new configuration epoch: the common-value cache,
// the rule-set cache and every memoised canonical form keyed on the old
// epoch become unreachable, and the constants are reconstructed.
func (en *Engine) resetCaches() {
	en.epoch = uuid.NewString()
	en.common = make(map[uint64][]*Expr)
	en.rulesets = make(map[string]RuleSet)
	en.rebuildConstants()
	en.log.Debug("caches flushed", zap.String("engine", en.id), zap.String("epoch", en.epoch))
}

// Zero, One, Half, NaN, PosInfinity, NegInfinity, ImaginaryUnit, Pi and E
// return the engine's precomputed common values.
func (en *Engine) Zero() *Expr          { return en.consts.zero }
func (en *Engine) One() *Expr           { return en.consts.one }
func (en *Engine) Half() *Expr          { return en.consts.half }
func (en *Engine) NaN() *Expr           { return en.consts.nan }
func (en *Engine) PosInfinity() *Expr   { return en.consts.posInf }
func (en *Engine) NegInfinity() *Expr   { return en.consts.negInf }
func (en *Engine) ImaginaryUnit() *Expr { return en.consts.imaginary }
func (en *Engine) Pi() *Expr            { return en.consts.pi }
func (en *Engine) E() *Expr             { return en.consts.e }
