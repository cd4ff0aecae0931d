package engine

import (
	"go.uber.org/zap"

	"github.com/termfx/symx/internal/core"
)

// Condition is a rule precondition over the binding map and the engine.
type Condition func(en *Engine, sub *Substitution) bool

// Rule is a match/replace pair with an optional side condition. Replace
// may reference capture names bound by Match. Literal carries
// underscore-prefixed names that must match as plain symbols (the
// solver's reserved placeholder).
type Rule struct {
	ID        string
	Match     *Expr
	Replace   *Expr
	Condition Condition
	Literal   map[string]bool
	// AC requests multiset matching under commutative heads.
	AC bool
}

// RuleSet is an ordered rule sequence.
type RuleSet []Rule

// MatchRules applies each rule of the set in order against the canonical
// form of x. Every successful match contributes one rewritten expression;
// a set can therefore yield several results (the quadratic formula's ±
// branches are two rules). Failures contribute nothing.
func (en *Engine) MatchRules(x *Expr, rs RuleSet, initial *Substitution) []*Expr {
	x = en.Canonical(x)
	var out []*Expr
	for _, r := range rs {
		sub, ok := x.Match(r.Match, MatchOptions{Literal: r.Literal, Bindings: initial, AC: r.AC})
		if !ok {
			continue
		}
		if r.Condition != nil && !r.Condition(en, sub) {
			continue
		}
		out = append(out, en.Canonical(en.Instantiate(r.Replace, sub)))
	}
	return out
}

// Replace applies the rule set to fixed point, traversing bottom-up and
// reprocessing every rewritten node until no rule fires or the iteration
// limit is reached. Hitting the limit is not an error; the partial result
// is the fixed-point approximation. A candidate replacement is accepted
// iff cost(new) ≤ bias·cost(old), which blocks oscillation between forms
// of similar cost while giving the new form a small edge.
func (en *Engine) Replace(x *Expr, rs RuleSet) (*Expr, bool, error) {
	budget := en.IterationLimit()
	res, changed, err := en.rewrite(x, rs, &budget)
	if err != nil {
		return nil, false, err
	}
	if budget <= 0 {
		en.log.Warn("rewrite iteration limit reached",
			zap.String("engine", en.id), zap.Int("limit", en.IterationLimit()))
	}
	return res, changed, nil
}

func (en *Engine) rewrite(x *Expr, rs RuleSet, budget *int) (*Expr, bool, error) {
	if err := en.shouldContinue(); err != nil {
		return nil, false, err
	}
	x = en.Canonical(x)
	changed := false

	// Children first. Compound-head applications are left to the
	// evaluator; rebuilding them head-by-name would lose the head.
	if x.kind == core.KindFunction && x.compoundHead == nil && len(x.ops) > 0 {
		ops := make([]*Expr, len(x.ops))
		opsChanged := false
		for i, op := range x.ops {
			res, ch, err := en.rewrite(op, rs, budget)
			if err != nil {
				return nil, false, err
			}
			ops[i] = res
			opsChanged = opsChanged || ch
		}
		if opsChanged {
			x = en.Canonical(en.Fn(x.head, ops...))
			changed = true
		}
	}

	// Then the node itself, to local fixed point.
	for *budget > 0 {
		if err := en.shouldContinue(); err != nil {
			return nil, false, err
		}
		fired := false
		for _, r := range rs {
			sub, ok := x.Match(r.Match, MatchOptions{Literal: r.Literal, AC: r.AC})
			if !ok {
				continue
			}
			if r.Condition != nil && !r.Condition(en, sub) {
				continue
			}
			cand := en.Canonical(en.Instantiate(r.Replace, sub))
			if cand.IsSame(x) {
				continue
			}
			if en.costFn(cand) > en.costBias*en.costFn(x) {
				continue
			}
			en.traceRewrite(r.ID, x, cand)
			*budget--
			// Reprocess the rewritten node bottom-up before continuing.
			res, _, err := en.rewrite(cand, rs, budget)
			if err != nil {
				return nil, false, err
			}
			x = res
			changed, fired = true, true
			break
		}
		if !fired {
			break
		}
	}
	return x, changed, nil
}

// defaultCost weights nodes by depth and per-head complexity.
func (en *Engine) defaultCost(x *Expr) float64 {
	return en.costAt(x, 1)
}

func (en *Engine) costAt(x *Expr, depth int) float64 {
	if x.kind != core.KindFunction {
		return 1
	}
	w := 2.0
	if def := en.LookupFunction(x.head); def != nil && def.Complexity > 0 {
		w += float64(def.Complexity)
	}
	cost := w * float64(depth)
	for _, op := range x.ops {
		cost += en.costAt(op, depth+1)
	}
	return cost
}

// CachedRuleSet returns the rule set registered under key in the current
// configuration epoch, building and caching it on first use. The engine
// is single-threaded; no locking is needed.
func (en *Engine) CachedRuleSet(key string, build func(en *Engine) RuleSet) RuleSet {
	if rs, ok := en.rulesets[key]; ok {
		return rs
	}
	rs := build(en)
	en.rulesets[key] = rs
	return rs
}

// SetSimplificationRules installs the standard simplification rule set
// driven to fixed point by simplify.
func (en *Engine) SetSimplificationRules(rs RuleSet) {
	en.stdRules = rs
}

// SimplificationRules returns the installed standard rule set.
func (en *Engine) SimplificationRules() RuleSet { return en.stdRules }
