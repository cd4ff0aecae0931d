package engine

import (
	"github.com/termfx/symx/internal/core"
)

// Subs substitutes symbols by name and canonicalises the result.
func (x *Expr) Subs(m map[string]*Expr) *Expr {
	return x.eng.Canonical(x.rawSubs(m))
}

// rawSubs performs the structural substitution without canonicalising,
// preserving the raw shape of the tree. The solver relies on this: its
// placeholder must survive as-is through matching.
func (x *Expr) rawSubs(m map[string]*Expr) *Expr {
	switch x.kind {
	case core.KindSymbol:
		if v, ok := m[x.name]; ok {
			return v
		}
		return x
	case core.KindFunction:
		if !subsTouches(x, m) {
			return x
		}
		ops := make([]*Expr, len(x.ops))
		for i, op := range x.ops {
			ops[i] = op.rawSubs(m)
		}
		if x.compoundHead != nil {
			return x.eng.FnFrom(x.compoundHead.rawSubs(m), ops...)
		}
		if v, ok := m[x.head]; ok && v.kind == core.KindSymbol {
			return x.eng.Fn(v.name, ops...)
		}
		return x.eng.Fn(x.head, ops...)
	case core.KindTensor:
		if !subsTouches(x, m) {
			return x
		}
		data := make([]*Expr, len(x.tensor.Data))
		for i, el := range x.tensor.Data {
			data[i] = el.rawSubs(m)
		}
		return x.eng.NewTensor(x.tensor.Shape, data)
	default:
		return x
	}
}

func subsTouches(x *Expr, m map[string]*Expr) bool {
	for name := range m {
		if x.Has(name) {
			return true
		}
	}
	return false
}
