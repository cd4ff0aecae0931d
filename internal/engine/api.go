package engine

// Convenience surface on boxed expressions: each method delegates to the
// owning engine, so a consumer holding only nodes never needs to thread
// the engine explicitly.

// Canonical returns the canonical form of the expression, memoised.
func (x *Expr) Canonical() *Expr { return x.eng.Canonical(x) }

// Simplify drives the expression to its cheapest known equivalent form.
func (x *Expr) Simplify(opts SimplifyOptions) (*Expr, error) {
	return x.eng.Simplify(x, opts)
}

// Evaluate reduces the expression under the current definitions.
func (x *Expr) Evaluate(opts EvalOptions) (*Expr, error) {
	return x.eng.Evaluate(x, opts)
}

// N evaluates in numeric mode.
func (x *Expr) N() (*Expr, error) { return x.eng.N(x) }

// Replace applies a rule set to fixed point; the second result reports
// whether any rule fired.
func (x *Expr) Replace(rs RuleSet) (*Expr, bool, error) {
	return x.eng.Replace(x, rs)
}

// Solve finds the univariate roots of the expression in variable.
func (x *Expr) Solve(variable string) ([]*Expr, error) {
	return x.eng.Solve(x, variable)
}
