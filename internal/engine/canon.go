package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/termfx/symx/internal/core"
	"github.com/termfx/symx/internal/domain"
)

// Canonical returns the canonical representative of x, computing and
// memoising it on first demand. Leaves are canonical by construction, so
// the pipeline only ever works on function applications. The memo is tied
// to the configuration epoch it was computed under.
func (en *Engine) Canonical(x *Expr) *Expr {
	if x == nil {
		return nil
	}
	if x.isCanonical {
		return x
	}
	if x.canonical != nil && x.canonical.epoch == en.epoch {
		return x.canonical
	}
	res := en.canonicalize(x)
	if res.epoch == en.epoch && x.IsPure() {
		x.canonical = res
	}
	return res
}

func (en *Engine) canonicalize(x *Expr) *Expr {
	// Step 1: resolve a compound head to a symbol if evaluation yields
	// one; otherwise keep the compound head and stay non-canonical.
	if x.compoundHead != nil {
		if x.compoundHead.Head() == "Function" {
			return x.shallowCopy(false)
		}
		resolved, err := en.Evaluate(x.compoundHead, EvalOptions{})
		if err == nil && resolved.kind == core.KindSymbol {
			return en.Canonical(en.Fn(resolved.name, x.ops...))
		}
		return x.shallowCopy(false)
	}

	// Step 2: short paths for the numeric heads.
	if isArithmeticHead(x.head) {
		return en.canonicalArith(x.head, x.ops)
	}

	def := en.LookupFunction(x.head)

	// Step 3: no definition — box with canonical children.
	if def == nil {
		ops := en.spliceSequences(en.canonicalOps(x.ops))
		return en.finishCanonical(x.head, ops)
	}

	// Step 4: canonicalise children subject to the hold policy. A
	// ReleaseHold child is always processed and its wrapper stripped.
	n := len(x.ops)
	ops := make([]*Expr, n)
	for i, op := range x.ops {
		switch {
		case op.kind == core.KindFunction && op.head == "ReleaseHold" && len(op.ops) == 1:
			ops[i] = en.Canonical(op.ops[0])
		case def.Hold.Held(i, n):
			ops[i] = op
		default:
			ops[i] = en.Canonical(op)
		}
	}

	// Step 5: a registered canonical handler is solely responsible for
	// validation and ordering; its result is returned verbatim.
	if def.Canonical != nil {
		res, err := en.callHandler(def.Canonical, ops)
		if err != nil {
			en.log.Warn("canonical handler failed",
				zap.String("engine", en.id), zap.String("head", x.head), zap.Error(err))
			return x.shallowCopy(false)
		}
		if res != nil {
			return res
		}
	}

	// Step 6: splice sequences, flatten associative nests, check the
	// signature. A mismatch wraps the offending operand in an Error node;
	// the application itself stays canonical for diagnostic display.
	ops = en.spliceSequences(ops)
	if def.Associative {
		ops = flattenHead(x.head, ops)
	}
	ops = en.checkSignature(def, ops)

	// Step 7: involution and idempotence.
	if len(ops) == 1 && ops[0].kind == core.KindFunction && ops[0].head == x.head {
		if def.Involution && len(ops[0].ops) == 1 {
			return ops[0].ops[0]
		}
		if def.Idempotent {
			return ops[0]
		}
	}

	// Step 8: commutative order.
	if def.Commutative {
		ops = append([]*Expr(nil), ops...)
		sortCommutative(x.head, ops)
	}
	return en.finishCanonical(x.head, ops)
}

// callHandler invokes a handler, converting a panic into an error so a
// misbehaving definition cannot tear down the engine.
func (en *Engine) callHandler(h Handler, args []*Expr) (res *Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %v", core.ErrInternal, r)
		}
	}()
	return h(en, args), nil
}

func (en *Engine) canonicalOps(ops []*Expr) []*Expr {
	out := make([]*Expr, len(ops))
	for i, op := range ops {
		out[i] = en.Canonical(op)
	}
	return out
}

// spliceSequences replaces every Sequence operand by its children.
func (en *Engine) spliceSequences(ops []*Expr) []*Expr {
	changed := false
	for _, op := range ops {
		if op.kind == core.KindFunction && op.head == "Sequence" {
			changed = true
			break
		}
	}
	if !changed {
		return ops
	}
	out := make([]*Expr, 0, len(ops))
	for _, op := range ops {
		if op.kind == core.KindFunction && op.head == "Sequence" {
			out = append(out, en.spliceSequences(op.ops)...)
		} else {
			out = append(out, op)
		}
	}
	return out
}

// flattenHead splices children whose head equals the associative head.
func flattenHead(head string, ops []*Expr) []*Expr {
	out := make([]*Expr, 0, len(ops))
	for _, op := range ops {
		if op.kind == core.KindFunction && op.head == head {
			out = append(out, flattenHead(head, op.ops)...)
		} else {
			out = append(out, op)
		}
	}
	return out
}

// checkSignature validates arity and operand domains, substituting Error
// nodes for violations.
func (en *Engine) checkSignature(def *FuncDef, ops []*Expr) []*Expr {
	sig := def.Sig
	if len(sig.Params) == 0 && sig.Variadic == "" {
		return ops
	}
	out := append([]*Expr(nil), ops...)
	if len(out) < len(sig.Params) {
		for i := len(out); i < len(sig.Params); i++ {
			out = append(out, en.ErrorExpr(core.ECMissing,
				fmt.Sprintf("%s expects %d operands", def.Name, len(sig.Params)), nil))
		}
		return out
	}
	for i, op := range out {
		var want domain.Domain
		if i < len(sig.Params) {
			want = sig.Params[i]
		} else if sig.Variadic != "" {
			want = sig.Variadic
		} else {
			out[i] = en.ErrorExpr(core.ECUnexpectedArgument,
				fmt.Sprintf("%s takes %d operands", def.Name, len(sig.Params)), op)
			continue
		}
		if want == "" || want == domain.Anything {
			continue
		}
		if op.kind == core.KindSymbol || op.kind == core.KindError {
			continue
		}
		// An unknown domain is unconstrained, not a violation.
		if op.Domain() == domain.Anything {
			continue
		}
		if !domain.IsCompatible(op.Domain(), want) {
			out[i] = en.ErrorExpr(core.ECIncompatibleDomain,
				fmt.Sprintf("operand %d of %s is not in %s", i, def.Name, want), op)
		}
	}
	return out
}

// finishCanonical assembles a canonical function node, interning small
// pure nodes in the common-value cache.
func (en *Engine) finishCanonical(head string, ops []*Expr) *Expr {
	res := &Expr{
		eng:         en,
		kind:        core.KindFunction,
		head:        head,
		ops:         ops,
		scope:       en.scope,
		isCanonical: true,
		epoch:       en.epoch,
	}
	if len(ops) <= 4 && res.IsPure() {
		return en.intern(res)
	}
	return res
}

func (x *Expr) shallowCopy(canonical bool) *Expr {
	cp := *x
	cp.isCanonical = canonical
	cp.canonical = nil
	cp.hashed = false
	return &cp
}
