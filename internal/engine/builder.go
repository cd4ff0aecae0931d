package engine

import (
	"github.com/termfx/symx/internal/core"
	"github.com/termfx/symx/internal/domain"
	"github.com/termfx/symx/internal/kernel"
)

// Builders. Every node is created on its engine and carries the lexical
// scope current at creation. Leaves are canonical by construction;
// function applications start raw and normalise through Canonical.

// intern returns the cached representative of a pure canonical node,
// registering x when its class is not cached yet.
func (en *Engine) intern(x *Expr) *Expr {
	h := x.Hash()
	for _, c := range en.common[h] {
		if c.IsSame(x) {
			return c
		}
	}
	en.common[h] = append(en.common[h], x)
	return x
}

func (en *Engine) newLeaf(kind core.Kind) *Expr {
	return &Expr{eng: en, kind: kind, scope: en.scope, isCanonical: true, epoch: en.epoch}
}

func (en *Engine) newNumber(n kernel.Number) *Expr {
	x := en.newLeaf(core.KindNumber)
	x.num = &n
	return en.intern(x)
}

func (en *Engine) newSymbol(name string) *Expr {
	x := en.newLeaf(core.KindSymbol)
	x.name = name
	return en.intern(x)
}

// Integer boxes an exact integer literal.
func (en *Engine) Integer(i int64) *Expr {
	return en.newNumber(kernel.FromInt(i))
}

// Float boxes a machine-precision literal.
func (en *Engine) Float(f float64) *Expr {
	return en.newNumber(kernel.FromFloat(f))
}

// Rational boxes the exact ratio n/d.
func (en *Engine) Rational(n, d int64) *Expr {
	return en.newNumber(kernel.FromRat(n, d))
}

// Complex boxes a complex literal; a zero imaginary part collapses to the
// real form.
func (en *Engine) Complex(re, im float64) *Expr {
	return en.newNumber(kernel.FromComplex(re, im))
}

// BoxNumber boxes a kernel-native number.
func (en *Engine) BoxNumber(n kernel.Number) *Expr {
	return en.newNumber(n)
}

// Symbol boxes an identifier. The name is not declared by boxing; it
// resolves through the scope stack at evaluation time.
func (en *Engine) Symbol(name string) *Expr {
	return en.newSymbol(name)
}

// Str boxes an opaque text literal.
func (en *Engine) Str(s string) *Expr {
	x := en.newLeaf(core.KindString)
	x.str = s
	return x
}

// Dom boxes a domain value.
func (en *Engine) Dom(d domain.Domain) *Expr {
	x := en.newLeaf(core.KindDomain)
	x.dom = d
	return x
}

// Fn builds a raw function application. The node is not canonical; every
// downstream operation canonicalises on demand.
func (en *Engine) Fn(head string, ops ...*Expr) *Expr {
	return &Expr{
		eng:   en,
		kind:  core.KindFunction,
		head:  head,
		ops:   ops,
		scope: en.scope,
		epoch: en.epoch,
	}
}

// FnFrom builds an application whose head is itself an expression; the
// canonicaliser resolves it to a symbol or keeps the compound head.
func (en *Engine) FnFrom(head *Expr, ops ...*Expr) *Expr {
	if head.kind == core.KindSymbol {
		return en.Fn(head.name, ops...)
	}
	return &Expr{
		eng:          en,
		kind:         core.KindFunction,
		compoundHead: head,
		ops:          ops,
		scope:        en.scope,
		epoch:        en.epoch,
	}
}

// List builds a List application.
func (en *Engine) List(ops ...*Expr) *Expr {
	return en.Fn("List", ops...)
}

// Sequence builds a Sequence application; canonicalisation splices
// sequences into their parent operand position.
func (en *Engine) Sequence(ops ...*Expr) *Expr {
	return en.Fn("Sequence", ops...)
}

// ErrorExpr boxes an in-band failure value. Error nodes are canonical but
// never valid; they taint every ancestor's IsValid.
func (en *Engine) ErrorExpr(code core.ErrorCode, msg string, where *Expr) *Expr {
	x := en.newLeaf(core.KindError)
	x.errCode = code
	x.errMsg = msg
	x.errWhere = where
	return x
}

// NewTensor boxes a tensor with the given shape over a flat data vector.
// The length of data must equal the product of the shape.
func (en *Engine) NewTensor(shape []int, data []*Expr) *Expr {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(data) || len(shape) == 0 {
		return en.ErrorExpr(core.ECMissing, "tensor shape does not cover data", nil)
	}
	x := en.newLeaf(core.KindTensor)
	x.tensor = &Tensor{Shape: append([]int(nil), shape...), Data: data}
	return x
}
