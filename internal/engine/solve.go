package engine

import (
	"go.uber.org/zap"

	"github.com/termfx/symx/internal/core"
)

// Solve finds the roots of a univariate expression (or Equal application)
// in the given variable. The variable is substituted by a reserved
// placeholder, the root rule set is matched against the result, and when
// nothing fires the expression is harmonised into equivalent forms and
// expanded before retrying. Candidate roots are evaluated to canonical
// values; an empty slice means no root was found. Multi-variable systems
// are not supported.
func (en *Engine) Solve(x *Expr, variable string) ([]*Expr, error) {
	// Step 1: Equal(lhs, rhs) solves as lhs - rhs.
	x = en.Canonical(x)
	if x.kind == core.KindFunction && x.head == "Equal" && len(x.ops) == 2 {
		x = en.Fn("Add", x.ops[0], en.Fn("Negate", x.ops[1]))
	}

	// Step 2: simplify.
	simplified, err := en.Simplify(x, SimplifyOptions{})
	if err != nil {
		return nil, err
	}

	// Step 3: substitute the variable with a fresh reserved placeholder.
	// The substitution is non-canonical; the placeholder must survive
	// as-is through matching.
	ph := en.freshPlaceholder(simplified)
	subject := simplified.rawSubs(map[string]*Expr{variable: en.Symbol(ph)})

	// The solver works in its own scope, restored on all exit paths.
	saved := en.scope
	en.PushScope()
	defer func() { en.scope = saved }()
	return en.solveSubject(subject, ph)
}

func (en *Engine) solveSubject(subject *Expr, ph string) ([]*Expr, error) {
	rootRules := en.CachedRuleSet("roots:"+ph, func(en *Engine) RuleSet {
		return buildRootRules(en, ph)
	})

	// Step 4: the root rule set.
	candidates := en.MatchRules(subject, rootRules, nil)

	// Step 5: harmonise into equivalent forms and retry.
	if len(candidates) == 0 {
		for _, variant := range en.harmonise(subject) {
			candidates = append(candidates, en.MatchRules(variant, rootRules, nil)...)
			if err := en.shouldContinue(); err != nil {
				return nil, err
			}
		}
	}

	// Step 6: expand, harmonise again, retry.
	if len(candidates) == 0 {
		expanded := en.Expand(en.Canonical(subject))
		variants := append([]*Expr{expanded}, en.harmonise(expanded)...)
		for _, variant := range variants {
			candidates = append(candidates, en.MatchRules(variant, rootRules, nil)...)
			if err := en.shouldContinue(); err != nil {
				return nil, err
			}
		}
	}

	en.log.Debug("solver candidates",
		zap.String("engine", en.id), zap.Int("count", len(candidates)))

	// Step 7: evaluate every candidate to its canonical value, dropping
	// invalid results and structural duplicates.
	roots := make([]*Expr, 0, len(candidates))
	for _, cand := range candidates {
		val, err := en.Evaluate(cand, EvalOptions{})
		if err != nil {
			return nil, err
		}
		if !val.IsValid() {
			continue
		}
		dup := false
		for _, r := range roots {
			if r.IsSame(val) {
				dup = true
				break
			}
		}
		if !dup {
			roots = append(roots, val)
		}
	}
	return roots, nil
}

// freshPlaceholder reserves an identifier of the form _X<n> that does not
// occur in x; freshness makes collision with user symbols impossible
// within one call.
func (en *Engine) freshPlaceholder(x *Expr) string {
	// _X1 is the common case, which also keeps the rule-set cache warm
	// across calls; the counter only advances on a collision.
	if !x.Has("_X1") {
		return "_X1"
	}
	for {
		en.freshCounter++
		name := "_X" + itoa(en.freshCounter+1)
		if !x.Has(name) {
			return name
		}
	}
}

// buildRootRules constructs the ordered univariate root rule set around
// the placeholder symbol. Coefficient captures carry conditions that keep
// them free of the unknown; variants with implicit unit coefficients
// accompany most shapes (the scaled exponential has none).
func buildRootRules(en *Engine, ph string) RuleSet {
	x := en.Symbol(ph)
	lit := map[string]bool{ph: true}
	a := en.Symbol("_a")
	b := en.Symbol("_b")
	c := en.Symbol("_c")
	nSym := en.Symbol("_n")
	one := en.Integer(1)
	two := en.Integer(2)

	freeOf := func(names ...string) Condition {
		return func(en *Engine, sub *Substitution) bool {
			for _, name := range names {
				v, ok := sub.Get(name)
				if !ok {
					return false
				}
				if v.Has(ph) {
					return false
				}
			}
			return true
		}
	}
	and := func(cs ...Condition) Condition {
		return func(en *Engine, sub *Substitution) bool {
			for _, c := range cs {
				if !c(en, sub) {
					return false
				}
			}
			return true
		}
	}
	nonzero := func(name string) Condition {
		return func(en *Engine, sub *Substitution) bool {
			v, ok := sub.Get(name)
			if !ok {
				return false
			}
			return en.sgnOf(en.Canonical(v)) != SignZero
		}
	}
	lnArgPositive := func(aName, cName string) Condition {
		return func(en *Engine, sub *Substitution) bool {
			av, _ := sub.Get(aName)
			cv, _ := sub.Get(cName)
			arg := en.Canonical(en.Fn("Divide", en.Fn("Negate", cv), av))
			switch en.sgnOf(arg) {
			case SignNegative, SignZero, SignNonReal:
				return false
			}
			return true
		}
	}

	quadratic := func(aExpr *Expr, plus bool) *Expr {
		disc := en.Fn("Sqrt", en.Fn("Add",
			en.Fn("Power", b, two),
			en.Fn("Negate", en.Fn("Multiply", en.Integer(4), aExpr, c))))
		num := en.Fn("Add", en.Fn("Negate", b), disc)
		if !plus {
			num = en.Fn("Add", en.Fn("Negate", b), en.Fn("Negate", disc))
		}
		return en.Fn("Divide", num, en.Fn("Multiply", two, aExpr))
	}

	rules := RuleSet{
		// 1. a·x = 0 ⇒ 0
		{ID: "root-linear-zero", Match: en.Fn("Multiply", a, x),
			Replace: en.Integer(0), Condition: freeOf("a")},
		{ID: "root-bare", Match: x, Replace: en.Integer(0)},
		// 2. a/x + b = 0 ⇒ ∞
		{ID: "root-reciprocal", Match: en.Fn("Add", en.Fn("Divide", a, x), b),
			Replace: en.PosInfinity(), Condition: freeOf("a", "b")},
		{ID: "root-reciprocal-bare", Match: en.Fn("Divide", a, x),
			Replace: en.PosInfinity(), Condition: freeOf("a")},
		// 3. a·x + b = 0 ⇒ -b/a
		{ID: "root-linear", Match: en.Fn("Add", en.Fn("Multiply", a, x), b),
			Replace:   en.Fn("Negate", en.Fn("Divide", b, a)),
			Condition: and(freeOf("a", "b"), nonzero("a"))},
		{ID: "root-linear-unit", Match: en.Fn("Add", x, b),
			Replace: en.Fn("Negate", b), Condition: freeOf("b")},
		// 4. a·x^n + b = 0 ⇒ (-b)^(1/n)/a
		{ID: "root-power", Match: en.Fn("Add", en.Fn("Multiply", a, en.Fn("Power", x, nSym)), b),
			Replace:   en.Fn("Divide", en.Fn("Power", en.Fn("Negate", b), en.Fn("Divide", one, nSym)), a),
			Condition: and(freeOf("a", "b", "n"), nonzero("n"), nonzero("a"))},
		{ID: "root-power-unit", Match: en.Fn("Add", en.Fn("Power", x, nSym), b),
			Replace:   en.Fn("Power", en.Fn("Negate", b), en.Fn("Divide", one, nSym)),
			Condition: and(freeOf("b", "n"), nonzero("n"))},
		// 5. a·x² + b·x + c = 0, both branches.
		{ID: "root-quadratic-plus",
			Match: en.Fn("Add",
				en.Fn("Multiply", a, en.Fn("Power", x, two)),
				en.Fn("Multiply", b, x), c),
			Replace:   quadratic(a, true),
			Condition: and(freeOf("a", "b", "c"), nonzero("a"))},
		{ID: "root-quadratic-minus",
			Match: en.Fn("Add",
				en.Fn("Multiply", a, en.Fn("Power", x, two)),
				en.Fn("Multiply", b, x), c),
			Replace:   quadratic(a, false),
			Condition: and(freeOf("a", "b", "c"), nonzero("a"))},
		{ID: "root-quadratic-unit-plus",
			Match: en.Fn("Add",
				en.Fn("Power", x, two), en.Fn("Multiply", b, x), c),
			Replace:   quadratic(one, true),
			Condition: freeOf("b", "c")},
		{ID: "root-quadratic-unit-minus",
			Match: en.Fn("Add",
				en.Fn("Power", x, two), en.Fn("Multiply", b, x), c),
			Replace:   quadratic(one, false),
			Condition: freeOf("b", "c")},
		// 6. a·e^(b·x) + c = 0 ⇒ ln(-c/a)/b
		{ID: "root-exp-scaled",
			Match: en.Fn("Add",
				en.Fn("Multiply", a, en.Fn("Exp", en.Fn("Multiply", b, x))), c),
			Replace: en.Fn("Divide",
				en.Fn("Ln", en.Fn("Divide", en.Fn("Negate", c), a)), b),
			Condition: and(freeOf("a", "b", "c"), nonzero("a"), lnArgPositive("a", "c"))},
		// 7. a·e^x + c = 0 ⇒ ln(-c/a)
		{ID: "root-exp",
			Match:     en.Fn("Add", en.Fn("Multiply", a, en.Fn("Exp", x)), c),
			Replace:   en.Fn("Ln", en.Fn("Divide", en.Fn("Negate", c), a)),
			Condition: and(freeOf("a", "c"), nonzero("a"), lnArgPositive("a", "c"))},
		{ID: "root-exp-unit",
			Match:   en.Fn("Add", en.Fn("Exp", x), c),
			Replace: en.Fn("Ln", en.Fn("Negate", c)),
			Condition: and(freeOf("c"), func(en *Engine, sub *Substitution) bool {
				cv, _ := sub.Get("c")
				return en.sgnOf(en.Canonical(en.Fn("Negate", cv))) != SignNegative
			})},
	}
	for i := range rules {
		rules[i].Literal = lit
		rules[i].AC = true
	}
	return rules
}

// harmonisationRules are the equivalence-producing rewrites tried when no
// root rule fires: absolute values split into sign branches, exponential
// products merge, and slowly varying wrappers approximate away.
func harmonisationRules(en *Engine) RuleSet {
	u := en.Symbol("_u")
	v := en.Symbol("_v")
	return RuleSet{
		{ID: "harmonise-abs-pos", Match: en.Fn("Abs", u), Replace: u},
		{ID: "harmonise-abs-neg", Match: en.Fn("Abs", u), Replace: en.Fn("Negate", u)},
		{ID: "harmonise-exp-product",
			Match:   en.Fn("Multiply", en.Fn("Exp", u), en.Fn("Exp", v)),
			Replace: en.Fn("Exp", en.Fn("Add", u, v)), AC: true},
		{ID: "harmonise-sin", Match: en.Fn("Sin", u), Replace: u},
		{ID: "harmonise-tan", Match: en.Fn("Tan", u), Replace: u},
	}
}

// harmonise produces whole-expression variants with a single
// harmonisation rewrite applied at some subtree.
func (en *Engine) harmonise(x *Expr) []*Expr {
	rs := en.CachedRuleSet("harmonise", harmonisationRules)
	return en.variantsAt(en.Canonical(x), rs)
}

func (en *Engine) variantsAt(x *Expr, rs RuleSet) []*Expr {
	out := en.MatchRules(x, rs, nil)
	if x.kind != core.KindFunction {
		return out
	}
	for i, op := range x.ops {
		for _, v := range en.variantsAt(op, rs) {
			ops := append([]*Expr(nil), x.ops...)
			ops[i] = v
			out = append(out, en.Canonical(en.Fn(x.head, ops...)))
		}
	}
	return out
}
