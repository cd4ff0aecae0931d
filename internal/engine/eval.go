package engine

import (
	"go.uber.org/zap"

	"github.com/termfx/symx/internal/core"
	"github.com/termfx/symx/internal/kernel"
)

// Sign is the result of sign inference.
type Sign int8

const (
	SignNegative Sign = -1
	SignZero     Sign = 0
	SignPositive Sign = 1
	// SignUnknown is "undef": a real value of unknown sign.
	SignUnknown Sign = 2
	// SignNonReal is "null": a value known not to be real.
	SignNonReal Sign = 3
)

// SimplifyOptions tunes a simplification pass.
type SimplifyOptions struct {
	// Rules replaces the standard simplification rule set.
	Rules RuleSet
	// Shallow disables recursion into operands.
	Shallow bool
}

// EvalOptions tunes an evaluation pass.
type EvalOptions struct {
	// Numeric switches the pass to numeric mode: handlers fall back to
	// their numeric forms and constants resolve to kernel values.
	Numeric bool
}

// Simplify drives x towards its cheapest equivalent form: canonicalise,
// recurse per the hold policy, try best-effort expansion, the registered
// handler and the standard rule set to fixed point, and keep the cheapest
// form seen.
func (en *Engine) Simplify(x *Expr, opts SimplifyOptions) (*Expr, error) {
	if err := en.shouldContinue(); err != nil {
		return nil, err
	}
	x = en.Canonical(x)
	if x.kind != core.KindFunction {
		return x, nil
	}
	def := en.LookupFunction(x.head)

	if !opts.Shallow && len(x.ops) > 0 {
		n := len(x.ops)
		ops := make([]*Expr, n)
		changed := false
		for i, op := range x.ops {
			if def != nil && def.Hold.Held(i, n) || isHeld(op) {
				ops[i] = op
				continue
			}
			res, err := en.Simplify(op, opts)
			if err != nil {
				return nil, err
			}
			ops[i] = res
			changed = changed || !res.IsSame(op)
		}
		if changed {
			x = en.Canonical(en.Fn(x.head, ops...))
			if x.kind != core.KindFunction {
				return x, nil
			}
			def = en.LookupFunction(x.head)
		}
	}

	best := x
	consider := func(cand *Expr) {
		if cand != nil && en.costFn(cand) < en.costFn(best) {
			best = cand
		}
	}

	// Best-effort expansion, kept only when cheaper.
	consider(en.Expand(x))

	if def != nil {
		if def.Inert && len(x.ops) > 0 {
			return x.ops[0], nil
		}
		if def.Simplify != nil {
			res, err := en.callHandler(def.Simplify, x.ops)
			if err != nil {
				en.log.Warn("simplify handler failed",
					zap.String("engine", en.id), zap.String("head", x.head), zap.Error(err))
			} else if res != nil {
				cand := en.Canonical(res)
				if en.costFn(cand) <= en.costBias*en.costFn(best) {
					best = cand
				}
			}
		}
	}

	rules := opts.Rules
	if rules == nil {
		rules = en.stdRules
	}
	if len(rules) > 0 {
		res, _, err := en.Replace(best, rules)
		if err != nil {
			return nil, err
		}
		consider(res)
	}
	return best, nil
}

// Evaluate reduces x under the current definitions: canonicalise, switch
// to the node's lexical scope, thread over indexable operands, evaluate
// children per the hold policy, apply handlers or anonymous heads, and
// post-filter by numeric mode.
func (en *Engine) Evaluate(x *Expr, opts EvalOptions) (*Expr, error) {
	if err := en.shouldContinue(); err != nil {
		return nil, err
	}
	if err := en.enterRecursion(); err != nil {
		return nil, err
	}
	defer en.leaveRecursion()

	x = en.Canonical(x)
	scope := x.scope
	if scope == nil {
		scope = en.scope
	}
	return en.inScope(scope, func() (*Expr, error) {
		return en.evaluateIn(x, opts)
	})
}

func (en *Engine) evaluateIn(x *Expr, opts EvalOptions) (*Expr, error) {
	switch x.kind {
	case core.KindSymbol:
		return en.evaluateSymbol(x, opts), nil
	case core.KindNumber:
		return en.postFilter(x, opts), nil
	case core.KindFunction:
		// fall through
	default:
		return x, nil
	}

	def := en.LookupFunction(x.head)

	// Threading over indexable collections.
	if def != nil && def.Threadable {
		if res, ok, err := en.thread(x, opts); err != nil || ok {
			return res, err
		}
	}

	// Evaluate children per the hold policy. Hold operands are always
	// skipped; ReleaseHold operands are always processed and stripped.
	n := len(x.ops)
	ops := make([]*Expr, n)
	for i, op := range x.ops {
		switch {
		case op.kind == core.KindFunction && op.head == "ReleaseHold" && len(op.ops) == 1:
			res, err := en.Evaluate(op.ops[0], opts)
			if err != nil {
				return nil, err
			}
			ops[i] = res
		case isHeld(op), def != nil && def.Hold.Held(i, n):
			ops[i] = op
		default:
			res, err := en.Evaluate(op, opts)
			if err != nil {
				return nil, err
			}
			ops[i] = res
		}
	}

	if def != nil && def.Inert && len(ops) > 0 {
		return ops[0], nil
	}

	// A compound head is applied as an anonymous function.
	if x.compoundHead != nil {
		if res, err := en.applyAnonymous(x.compoundHead, ops, opts); res != nil || err != nil {
			return res, err
		}
		return x.shallowCopy(false), nil
	}
	if hdef := en.Lookup(x.head); hdef != nil && hdef.Symbol != nil && hdef.Symbol.Value != nil &&
		hdef.Symbol.Value.Head() == "Function" {
		if res, err := en.applyAnonymous(hdef.Symbol.Value, ops, opts); res != nil || err != nil {
			return res, err
		}
	}

	cur := en.Canonical(en.Fn(x.head, ops...))
	if cur.kind != core.KindFunction || cur.head != x.head {
		// Canonicalisation reduced the reconstruction; it is already a
		// value or a different head handled by its own pass.
		if cur.kind != core.KindFunction {
			return en.postFilter(cur, opts), nil
		}
		return en.evaluateIn(cur, opts)
	}

	if def != nil {
		if def.Evaluate != nil {
			res, err := en.callHandler(def.Evaluate, cur.ops)
			if err != nil {
				return nil, err
			}
			if res != nil {
				return en.postFilter(en.Canonical(res), opts), nil
			}
		}
		if opts.Numeric && def.NumEval != nil {
			res, err := en.callHandler(def.NumEval, cur.ops)
			if err != nil {
				return nil, err
			}
			if res != nil {
				return en.postFilter(en.Canonical(res), opts), nil
			}
		}
	}
	return en.postFilter(cur, opts), nil
}

func (en *Engine) evaluateSymbol(x *Expr, opts EvalOptions) *Expr {
	def := en.LookupSymbol(x.name)
	if def == nil || def.Value == nil {
		return x
	}
	// Constants keep their symbolic identity outside numeric mode.
	if def.Constant && !opts.Numeric {
		return x
	}
	res, err := en.Evaluate(def.Value, opts)
	if err != nil {
		return x
	}
	return en.postFilter(res, opts)
}

// thread zips a threadable head over its longest indexable operand,
// broadcasting scalars, and evaluates each tuple.
func (en *Engine) thread(x *Expr, opts EvalOptions) (*Expr, bool, error) {
	maxLen := -1
	for _, op := range x.ops {
		c := en.Canonical(op)
		if isIndexableCollection(c) {
			if l := collectionLength(c); l > maxLen {
				maxLen = l
			}
		}
	}
	if maxLen < 0 {
		return nil, false, nil
	}
	if maxLen == 0 {
		return en.Canonical(en.Sequence()), true, nil
	}
	elems := make([]*Expr, maxLen)
	for j := 0; j < maxLen; j++ {
		args := make([]*Expr, len(x.ops))
		for i, op := range x.ops {
			c := en.Canonical(op)
			if isIndexableCollection(c) {
				args[i] = en.collectionAt(c, j)
			} else {
				args[i] = op
			}
		}
		res, err := en.Evaluate(en.Fn(x.head, args...), opts)
		if err != nil {
			return nil, false, err
		}
		elems[j] = res
	}
	if maxLen == 1 {
		return elems[0], true, nil
	}
	return en.Canonical(en.List(elems...)), true, nil
}

// applyAnonymous applies Function(body, params…) to args: positional
// parameters when declared, the implicit _, _1, _2… family otherwise.
func (en *Engine) applyAnonymous(fn *Expr, args []*Expr, opts EvalOptions) (*Expr, error) {
	fn = en.Canonical(fn)
	if fn.kind != core.KindFunction || fn.head != "Function" || len(fn.ops) == 0 {
		return nil, nil
	}
	body := fn.ops[0]
	params := fn.ops[1:]
	m := make(map[string]*Expr)
	if len(params) > 0 {
		for i, p := range params {
			if p.kind != core.KindSymbol {
				continue
			}
			if i < len(args) {
				m[p.name] = args[i]
			} else {
				m[p.name] = en.ErrorExpr(core.ECMissing, "missing argument", fn)
			}
		}
	} else {
		if len(args) > 0 {
			m["_"] = args[0]
		}
		for i, a := range args {
			m["_"+itoa(i+1)] = a
		}
	}
	return en.Evaluate(en.Canonical(body.rawSubs(m)), opts)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [8]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}

// N is evaluation in numeric mode, with the numeric-form rewrites applied
// before descent.
func (en *Engine) N(x *Expr) (*Expr, error) {
	return en.Evaluate(renameNumericForms(x), EvalOptions{Numeric: true})
}

// renameNumericForms rewrites Integrate and Limit applications to their
// numeric counterparts before descent.
func renameNumericForms(x *Expr) *Expr {
	if x.kind != core.KindFunction {
		return x
	}
	head := x.head
	switch head {
	case "Integrate":
		head = "NIntegrate"
	case "Limit":
		head = "NLimit"
	}
	ops := make([]*Expr, len(x.ops))
	changed := head != x.head
	for i, op := range x.ops {
		ops[i] = renameNumericForms(op)
		changed = changed || ops[i] != op
	}
	if !changed {
		return x
	}
	return x.eng.Fn(head, ops...)
}

// postFilter enforces the numeric-mode constraints: complex results where
// complex values are disallowed become not-a-number, and big values are
// downcast when bignums are not preferred.
func (en *Engine) postFilter(x *Expr, opts EvalOptions) *Expr {
	if x.kind != core.KindNumber {
		return x
	}
	if x.num.IsComplexForm() && (en.mode == core.ModeMachine || en.mode == core.ModeBignum) {
		return en.NaN()
	}
	if x.num.IsBig() && en.mode != core.ModeBignum && en.mode != core.ModeAuto {
		return en.newNumber(kernel.Downcast(*x.num))
	}
	return x
}

// isHeld reports a Hold wrapper, skipped under every policy.
func isHeld(x *Expr) bool {
	return x.kind == core.KindFunction && x.head == "Hold"
}

// Expand distributes products over sums and expands small integer powers
// of sums, best-effort.
func (en *Engine) Expand(x *Expr) *Expr {
	if x.kind != core.KindFunction {
		return x
	}
	switch x.head {
	case "Multiply":
		for i, op := range x.ops {
			if op.kind == core.KindFunction && op.head == "Add" {
				rest := make([]*Expr, 0, len(x.ops)-1)
				rest = append(rest, x.ops[:i]...)
				rest = append(rest, x.ops[i+1:]...)
				terms := make([]*Expr, len(op.ops))
				for j, t := range op.ops {
					terms[j] = en.Expand(en.Canonical(en.Fn("Multiply", append(append([]*Expr(nil), rest...), t)...)))
				}
				return en.Canonical(en.Fn("Add", terms...))
			}
		}
	case "Power":
		if len(x.ops) == 2 {
			if n, ok := x.ops[1].isIntegerLiteral(); ok && n > 1 && n <= 4 {
				base := x.ops[0]
				if base.kind == core.KindFunction && base.head == "Add" {
					prod := base
					for i := int64(1); i < n; i++ {
						prod = en.Expand(en.Canonical(en.Fn("Multiply", prod, base)))
					}
					return prod
				}
			}
		}
	case "Add":
		ops := make([]*Expr, len(x.ops))
		changed := false
		for i, op := range x.ops {
			ops[i] = en.Expand(op)
			changed = changed || ops[i] != op
		}
		if changed {
			return en.Canonical(en.Fn("Add", ops...))
		}
	}
	return x
}

// IsEqual tests mathematical equality: structural identity first, then
// simplification of the difference, then numeric approximation within
// tolerance.
func (x *Expr) IsEqual(y *Expr) bool {
	en := x.eng
	if en.Canonical(x).IsSame(en.Canonical(y)) {
		return true
	}
	diff := en.Fn("Add", x, en.Fn("Negate", y))
	simplified, err := en.Simplify(diff, SimplifyOptions{})
	if err == nil && simplified.kind == core.KindNumber {
		return kernel.EqualWithin(*simplified.num, kernel.FromInt(0), en.tolerance)
	}
	nx, errx := en.N(x)
	ny, erry := en.N(y)
	if errx == nil && erry == nil &&
		nx.kind == core.KindNumber && ny.kind == core.KindNumber {
		return kernel.EqualWithin(*nx.num, *ny.num, en.tolerance)
	}
	return false
}

// Sgn infers the sign of x: -1, 0 or 1 when known, SignUnknown for a real
// of unknown sign and SignNonReal for values known not to be real.
func (x *Expr) Sgn() Sign {
	return x.eng.sgnOf(x.eng.Canonical(x))
}

func (en *Engine) sgnOf(x *Expr) Sign {
	switch x.kind {
	case core.KindNumber:
		if x.num.IsComplexForm() {
			return SignNonReal
		}
		if x.num.IsNaN() {
			return SignUnknown
		}
		return Sign(x.num.Sign())
	case core.KindSymbol:
		if x.name == "ImaginaryUnit" {
			return SignNonReal
		}
		if s, ok := en.assumedSign(x.name); ok {
			return s
		}
		if def := en.LookupSymbol(x.name); def != nil && def.Value != nil {
			return en.sgnOf(en.Canonical(def.Value))
		}
		return SignUnknown
	case core.KindFunction:
		return en.sgnOfFunction(x)
	case core.KindError:
		return SignUnknown
	}
	return SignUnknown
}

// assumedSign consults the assumptions recorded for the symbol: Greater,
// Less and Equal predicates against zero. Other predicates are ignored.
func (en *Engine) assumedSign(name string) (Sign, bool) {
	for _, pred := range en.Assumptions(name) {
		if pred.kind != core.KindFunction || len(pred.ops) != 2 {
			continue
		}
		subj, bound := pred.ops[0], pred.ops[1]
		if subj.kind != core.KindSymbol || subj.name != name {
			continue
		}
		if bound.kind != core.KindNumber || !bound.num.IsZero() {
			continue
		}
		switch pred.head {
		case "Greater":
			return SignPositive, true
		case "Less":
			return SignNegative, true
		case "Equal":
			return SignZero, true
		}
	}
	return SignUnknown, false
}

func (en *Engine) sgnOfFunction(x *Expr) Sign {
	if def := en.LookupFunction(x.head); def != nil && def.Sgn != nil {
		return def.Sgn(en, x.ops)
	}
	switch x.head {
	case "Negate":
		if len(x.ops) == 1 {
			switch en.sgnOf(x.ops[0]) {
			case SignPositive:
				return SignNegative
			case SignNegative:
				return SignPositive
			case SignZero:
				return SignZero
			case SignNonReal:
				return SignNonReal
			}
		}
	case "Multiply":
		prod := SignPositive
		for _, op := range x.ops {
			switch en.sgnOf(op) {
			case SignZero:
				return SignZero
			case SignNegative:
				prod = -prod
			case SignPositive:
			case SignNonReal:
				return SignNonReal
			default:
				return SignUnknown
			}
		}
		return prod
	case "Add":
		all := SignZero
		for _, op := range x.ops {
			s := en.sgnOf(op)
			switch {
			case s == SignZero:
			case s == SignPositive && (all == SignZero || all == SignPositive):
				all = SignPositive
			case s == SignNegative && (all == SignZero || all == SignNegative):
				all = SignNegative
			default:
				return SignUnknown
			}
		}
		return all
	case "Abs":
		if len(x.ops) == 1 {
			if en.sgnOf(x.ops[0]) == SignZero {
				return SignZero
			}
			return SignPositive
		}
	case "Exp":
		if len(x.ops) == 1 && en.sgnOf(x.ops[0]) != SignNonReal {
			return SignPositive
		}
	case "Sqrt":
		if len(x.ops) == 1 {
			switch en.sgnOf(x.ops[0]) {
			case SignPositive:
				return SignPositive
			case SignZero:
				return SignZero
			case SignNegative:
				return SignNonReal
			}
		}
	}
	return SignUnknown
}
