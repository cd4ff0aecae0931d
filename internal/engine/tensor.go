package engine

import (
	"github.com/termfx/symx/internal/core"
)

// Tensor is a multi-dimensional array: a shape and a contiguous data
// vector in row-major order. A tensor and its List-of-List view are
// interchangeable under structural comparison; exactly one of the two is
// materialised first and the other derived lazily.
type Tensor struct {
	Shape []int
	Data  []*Expr
}

// Size returns the element count.
func (t *Tensor) Size() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// At returns the element at the given multi-index, nil out of range.
func (t *Tensor) At(idx ...int) *Expr {
	if len(idx) != len(t.Shape) {
		return nil
	}
	flat := 0
	for i, ix := range idx {
		if ix < 0 || ix >= t.Shape[i] {
			return nil
		}
		flat = flat*t.Shape[i] + ix
	}
	return t.Data[flat]
}

func (t *Tensor) sameAs(o *Tensor) bool {
	if o == nil || len(t.Shape) != len(o.Shape) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != o.Shape[i] {
			return false
		}
	}
	for i := range t.Data {
		if !t.Data[i].IsSame(o.Data[i]) {
			return false
		}
	}
	return true
}

// view builds the List-of-List function tree equivalent to the tensor.
func (t *Tensor) view(en *Engine) *Expr {
	return t.slice(en, 0, 0, t.Size())
}

func (t *Tensor) slice(en *Engine, dim, lo, hi int) *Expr {
	if dim == len(t.Shape)-1 {
		return en.List(t.Data[lo:hi]...)
	}
	step := (hi - lo) / t.Shape[dim]
	rows := make([]*Expr, t.Shape[dim])
	for i := range rows {
		rows[i] = t.slice(en, dim+1, lo+i*step, lo+(i+1)*step)
	}
	return en.List(rows...)
}

// AsList returns the List-of-List view of a tensor node, derived lazily
// and memoised. For non-tensor nodes it returns the node itself.
func (x *Expr) AsList() *Expr {
	if x.kind != core.KindTensor {
		return x
	}
	if x.listView == nil {
		x.listView = x.eng.Canonical(x.tensor.view(x.eng))
	}
	return x.listView
}

// TensorFromList recognises a rectangular nested-List tree and boxes it
// as a tensor; non-rectangular or non-List input comes back unchanged.
func (en *Engine) TensorFromList(list *Expr) *Expr {
	shape, ok := listShape(list)
	if !ok || len(shape) == 0 {
		return list
	}
	data := make([]*Expr, 0, 16)
	data = flattenList(list, len(shape), data)
	return en.NewTensor(shape, data)
}

func listShape(x *Expr) ([]int, bool) {
	if x.kind != core.KindFunction || x.head != "List" {
		return nil, true
	}
	n := len(x.ops)
	if n == 0 {
		return []int{0}, true
	}
	inner, ok := listShape(x.ops[0])
	if !ok {
		return nil, false
	}
	for _, op := range x.ops[1:] {
		s, ok := listShape(op)
		if !ok || len(s) != len(inner) {
			return nil, false
		}
		for i := range s {
			if s[i] != inner[i] {
				return nil, false
			}
		}
	}
	return append([]int{n}, inner...), true
}

func flattenList(x *Expr, depth int, out []*Expr) []*Expr {
	if depth == 0 || x.kind != core.KindFunction || x.head != "List" {
		return append(out, x)
	}
	for _, op := range x.ops {
		out = flattenList(op, depth-1, out)
	}
	return out
}
