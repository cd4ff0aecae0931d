// Package library ships the standard identifier library: the function
// definitions and named constants registered into an engine's root scope,
// and the standard simplification rule set. The registration mechanism is
// the contract; the contents are the minimum a working engine needs.
package library

import (
	"fmt"
	"math"

	"github.com/termfx/symx/internal/core"
	"github.com/termfx/symx/internal/domain"
	"github.com/termfx/symx/internal/engine"
	"github.com/termfx/symx/internal/kernel"
)

// Register declares the standard functions and constants into the
// engine's current (root) scope and installs the standard simplification
// rule set.
func Register(en *engine.Engine) error {
	for _, def := range standardFunctions(en) {
		if err := en.DeclareFunction(def); err != nil {
			return fmt.Errorf("library: %w", err)
		}
	}
	for name, def := range standardSymbols(en) {
		if err := en.DeclareSymbol(name, def); err != nil {
			return fmt.Errorf("library: %w", err)
		}
	}
	en.SetSimplificationRules(simplificationRules(en))
	return nil
}

func numArgs(args []*engine.Expr) ([]kernel.Number, bool) {
	out := make([]kernel.Number, len(args))
	for i, a := range args {
		n := a.NumericValue()
		if n == nil {
			return nil, false
		}
		out[i] = *n
	}
	return out, true
}

// unaryNum lifts a kernel primitive into a numeric handler.
func unaryNum(fn func(kernel.Number, uint) kernel.Number) engine.Handler {
	return func(en *engine.Engine, args []*engine.Expr) *engine.Expr {
		ns, ok := numArgs(args)
		if !ok || len(ns) != 1 {
			return nil
		}
		return en.BoxNumber(fn(ns[0], en.Precision()))
	}
}

func unaryMachine(fn func(kernel.Number) kernel.Number) engine.Handler {
	return func(en *engine.Engine, args []*engine.Expr) *engine.Expr {
		ns, ok := numArgs(args)
		if !ok || len(ns) != 1 {
			return nil
		}
		return en.BoxNumber(fn(ns[0]))
	}
}

func standardFunctions(en *engine.Engine) []*engine.FuncDef {
	anyNum := engine.Signature{Variadic: domain.Numbers, Result: domain.Numbers}
	oneNum := engine.Signature{Params: []domain.Domain{domain.Numbers}, Result: domain.Numbers}
	twoNum := engine.Signature{Params: []domain.Domain{domain.Numbers, domain.Numbers}, Result: domain.Numbers}

	return []*engine.FuncDef{
		{
			Name: "Add", Sig: anyNum, Pure: true,
			Associative: true, Commutative: true, Threadable: true,
			Hold: core.HoldNone, Complexity: 1,
		},
		{
			Name: "Multiply", Sig: anyNum, Pure: true,
			Associative: true, Commutative: true, Threadable: true,
			Hold: core.HoldNone, Complexity: 2,
		},
		{
			Name: "Negate", Sig: oneNum, Pure: true,
			Involution: true, Threadable: true,
			Hold: core.HoldNone, Complexity: 1,
		},
		{
			Name: "Subtract", Sig: twoNum, Pure: true,
			Threadable: true, Hold: core.HoldNone, Complexity: 1,
			Canonical: func(en *engine.Engine, args []*engine.Expr) *engine.Expr {
				if len(args) != 2 {
					return nil
				}
				return en.Canonical(en.Fn("Add", args[0], en.Fn("Negate", args[1])))
			},
		},
		{
			Name: "Divide", Sig: twoNum, Pure: true,
			Threadable: true, Hold: core.HoldNone, Complexity: 3,
			NumEval: func(en *engine.Engine, args []*engine.Expr) *engine.Expr {
				ns, ok := numArgs(args)
				if !ok || len(ns) != 2 {
					return nil
				}
				return en.BoxNumber(kernel.Div(ns[0], ns[1], en.Precision()))
			},
		},
		{
			Name: "Power", Sig: twoNum, Pure: true,
			Hold: core.HoldNone, Complexity: 4,
			NumEval: func(en *engine.Engine, args []*engine.Expr) *engine.Expr {
				ns, ok := numArgs(args)
				if !ok || len(ns) != 2 {
					return nil
				}
				return en.BoxNumber(kernel.Pow(ns[0], ns[1], en.Precision()))
			},
		},
		{
			Name: "Square", Sig: oneNum, Pure: true,
			Threadable: true, Hold: core.HoldNone, Complexity: 3,
		},
		{
			Name: "Sqrt", Sig: oneNum, Pure: true,
			Threadable: true, Hold: core.HoldNone, Complexity: 4,
			// Symbolic evaluation folds only exact square roots; the
			// numeric pass folds everything.
			Evaluate: func(en *engine.Engine, args []*engine.Expr) *engine.Expr {
				ns, ok := numArgs(args)
				if !ok || len(ns) != 1 {
					return nil
				}
				r := kernel.Sqrt(ns[0], en.Precision())
				if r.IsRational() {
					return en.BoxNumber(r)
				}
				if r.IsComplexForm() && ns[0].IsRational() {
					mag := kernel.Sqrt(kernel.Neg(ns[0]), en.Precision())
					if mag.IsRational() {
						return en.BoxNumber(kernel.FromComplex(0, mag.Float64()))
					}
				}
				return nil
			},
			NumEval: unaryNum(kernel.Sqrt),
		},
		{
			Name: "Exp", Sig: oneNum, Pure: true,
			Threadable: true, Hold: core.HoldNone, Complexity: 4,
			NumEval: unaryNum(kernel.Exp),
			Sgn: func(en *engine.Engine, args []*engine.Expr) engine.Sign {
				return engine.SignPositive
			},
		},
		{
			Name: "Ln", Sig: oneNum, Pure: true,
			Threadable: true, Hold: core.HoldNone, Complexity: 4,
			NumEval: unaryNum(kernel.Ln),
		},
		{
			Name: "Abs", Sig: oneNum, Pure: true,
			Idempotent: true, Threadable: true,
			Hold: core.HoldNone, Complexity: 2,
			Evaluate: unaryMachine(kernel.Abs),
			NumEval:  unaryMachine(kernel.Abs),
		},
		{
			Name: "Sin", Sig: oneNum, Pure: true,
			Threadable: true, Hold: core.HoldNone, Complexity: 5,
			Evaluate: zeroFold(en, 0),
			NumEval:  unaryMachine(kernel.Sin),
		},
		{
			Name: "Cos", Sig: oneNum, Pure: true,
			Threadable: true, Hold: core.HoldNone, Complexity: 5,
			Evaluate: zeroFold(en, 1),
			NumEval:  unaryMachine(kernel.Cos),
		},
		{
			Name: "Tan", Sig: oneNum, Pure: true,
			Threadable: true, Hold: core.HoldNone, Complexity: 5,
			Evaluate: zeroFold(en, 0),
			NumEval:  unaryMachine(kernel.Tan),
		},
		{
			Name: "List", Pure: true,
			Hold: core.HoldNone, Complexity: 1,
		},
		{
			Name: "Set", Pure: true, Commutative: true,
			Hold: core.HoldNone, Complexity: 1,
		},
		{
			Name: "Range", Sig: anyNum, Pure: true,
			Hold: core.HoldNone, Complexity: 1,
		},
		{
			Name: "Hold", Pure: true,
			Hold: core.HoldAll, Complexity: 1,
		},
		{
			Name: "ReleaseHold", Pure: true,
			Hold: core.HoldNone, Complexity: 1,
		},
		{
			Name: "Equal", Pure: true,
			Hold: core.HoldAll, Complexity: 1,
		},
		{
			Name: "Function", Pure: true,
			Hold: core.HoldAll, Complexity: 1,
		},
		{Name: "Greater", Pure: true, Hold: core.HoldAll, Complexity: 1},
		{Name: "Less", Pure: true, Hold: core.HoldAll, Complexity: 1},
		{Name: "Element", Pure: true, Hold: core.HoldAll, Complexity: 1},
		// Numeric forms of the inert calculus heads; the engine rewrites
		// Integrate and Limit to these before a numeric pass.
		{Name: "Integrate", Pure: true, Hold: core.HoldAll, Complexity: 8},
		{Name: "Limit", Pure: true, Hold: core.HoldAll, Complexity: 8},
		{Name: "NIntegrate", Pure: true, Hold: core.HoldFirst, Complexity: 8},
		{Name: "NLimit", Pure: true, Hold: core.HoldFirst, Complexity: 8},
	}
}

// zeroFold returns an evaluate handler that folds a trigonometric head at
// an exact zero argument.
func zeroFold(en *engine.Engine, at int64) engine.Handler {
	return func(en *engine.Engine, args []*engine.Expr) *engine.Expr {
		if len(args) != 1 {
			return nil
		}
		if n := args[0].NumericValue(); n != nil && n.IsZero() {
			return en.Integer(at)
		}
		return nil
	}
}

func standardSymbols(en *engine.Engine) map[string]*engine.SymbolDef {
	return map[string]*engine.SymbolDef{
		"Pi": {
			Domain:   domain.RealNumbers,
			Value:    en.Float(math.Pi),
			Constant: true,
		},
		"ExponentialE": {
			Domain:   domain.RealNumbers,
			Value:    en.Float(math.E),
			Constant: true,
		},
		"ImaginaryUnit": {
			Domain:   domain.ImaginaryNumbers,
			Value:    en.Complex(0, 1),
			Constant: true,
		},
	}
}

// simplificationRules is the standard rule set driven to fixed point by
// simplify.
func simplificationRules(en *engine.Engine) engine.RuleSet {
	u := en.Symbol("_u")
	v := en.Symbol("_v")
	return engine.RuleSet{
		{
			ID:      "simplify-exp-product",
			Match:   en.Fn("Multiply", en.Fn("Exp", u), en.Fn("Exp", v)),
			Replace: en.Fn("Exp", en.Fn("Add", u, v)),
			AC:      true,
		},
		{
			ID:      "simplify-abs-negate",
			Match:   en.Fn("Abs", en.Fn("Negate", u)),
			Replace: en.Fn("Abs", u),
		},
		{
			ID:      "simplify-sqrt-square",
			Match:   en.Fn("Power", en.Fn("Sqrt", u), en.Integer(2)),
			Replace: u,
		},
		{
			ID:      "simplify-ln-exp-product",
			Match:   en.Fn("Ln", en.Fn("Exp", u)),
			Replace: u,
		},
	}
}
