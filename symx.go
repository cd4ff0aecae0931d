// Package symx is a symbolic computation engine: it boxes tree-shaped
// mathematical expressions into a normalised, rule-rewritable form, then
// simplifies, evaluates, pattern-matches and solves them.
//
// The engine is single-threaded cooperative; concurrent use must route
// through distinct engine instances.
//
//	en, _ := symx.New()
//	x := en.Symbol("x")
//	eq := en.Fn("Equal",
//	    en.Fn("Add", en.Fn("Multiply", en.Integer(5), x), en.Integer(-10)),
//	    en.Integer(0))
//	roots, _ := en.Solve(eq, "x") // [2]
package symx

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/termfx/symx/internal/config"
	"github.com/termfx/symx/internal/core"
	"github.com/termfx/symx/internal/engine"
	"github.com/termfx/symx/internal/library"
)

// The engine surface is defined in the engine package; the aliases make
// the facade the only import a consumer needs.
type (
	Engine          = engine.Engine
	Expr            = engine.Expr
	Rule            = engine.Rule
	RuleSet         = engine.RuleSet
	Substitution    = engine.Substitution
	MatchOptions    = engine.MatchOptions
	SimplifyOptions = engine.SimplifyOptions
	EvalOptions     = engine.EvalOptions
	FuncDef         = engine.FuncDef
	SymbolDef       = engine.SymbolDef
	Signature       = engine.Signature
	Condition       = engine.Condition
	Sign            = engine.Sign
	NumericMode     = core.NumericMode
	HoldPolicy      = core.HoldPolicy
)

// Numeric modes.
const (
	ModeAuto    = core.ModeAuto
	ModeMachine = core.ModeMachine
	ModeBignum  = core.ModeBignum
	ModeComplex = core.ModeComplex
)

// Hold policies.
const (
	HoldAll   = core.HoldAll
	HoldNone  = core.HoldNone
	HoldFirst = core.HoldFirst
	HoldRest  = core.HoldRest
	HoldLast  = core.HoldLast
	HoldMost  = core.HoldMost
)

// Sign inference results.
const (
	SignNegative = engine.SignNegative
	SignZero     = engine.SignZero
	SignPositive = engine.SignPositive
	SignUnknown  = engine.SignUnknown
	SignNonReal  = engine.SignNonReal
)

// New constructs an engine: environment configuration first, options on
// top, the standard identifier library registered into the root scope and
// an optional YAML definition table loaded over it.
func New(opts ...Option) (*Engine, error) {
	cfg := config.Load()
	s := &settings{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}

	logger := s.logger
	if logger == nil {
		if cfg.Debug {
			dev, err := zap.NewDevelopment()
			if err != nil {
				return nil, fmt.Errorf("symx: logger: %w", err)
			}
			logger = dev
		} else {
			logger = zap.NewNop()
		}
	}

	en := engine.NewEngine(engine.Config{
		Mode:      cfg.NumericMode,
		Precision: cfg.Precision,
		Tolerance: cfg.Tolerance,
		CostBias:  s.costBias,
		Limits:    cfg.Limits(),
		Logger:    logger,
	})
	if !s.bare {
		if err := library.Register(en); err != nil {
			return nil, err
		}
	}
	if cfg.TablePath != "" {
		if err := library.LoadTable(en, cfg.TablePath); err != nil {
			return nil, err
		}
	}
	return en, nil
}
