package engine

import (
	"fmt"
	"math"
	"math/big"

	"github.com/termfx/symx/internal/core"
	"github.com/termfx/symx/internal/kernel"
)

// The numeric heads bypass the generic canonical pipeline: arity is
// validated here and the arithmetic builder handles numeric reduction,
// complex recognition and rational preservation.

var arithmeticHeads = map[string]int{
	"Add":      -1, // variadic
	"Multiply": -1,
	"Negate":   1,
	"Square":   1,
	"Sqrt":     1,
	"Divide":   2,
	"Power":    2,
	"Exp":      1,
	"Ln":       1,
}

func isArithmeticHead(head string) bool {
	_, ok := arithmeticHeads[head]
	return ok
}

func (en *Engine) canonicalArith(head string, rawOps []*Expr) *Expr {
	ops := en.spliceSequences(en.canonicalOps(rawOps))
	if want := arithmeticHeads[head]; want >= 0 && len(ops) != want {
		if len(ops) < want {
			for len(ops) < want {
				ops = append(ops, en.ErrorExpr(core.ECMissing,
					fmt.Sprintf("%s expects %d operands", head, want), nil))
			}
		} else {
			for i := want; i < len(ops); i++ {
				ops[i] = en.ErrorExpr(core.ECUnexpectedArgument,
					fmt.Sprintf("%s takes %d operands", head, want), ops[i])
			}
		}
		return en.finishCanonical(head, ops)
	}
	for _, op := range ops {
		if op.kind == core.KindError {
			return en.finishCanonical(head, ops)
		}
	}
	switch head {
	case "Add":
		return en.canonicalAdd(ops)
	case "Multiply":
		return en.canonicalMultiply(ops)
	case "Negate":
		return en.canonicalNegate(ops[0])
	case "Square":
		return en.canonicalPower(ops[0], en.Integer(2))
	case "Sqrt":
		return en.canonicalSqrt(ops[0])
	case "Divide":
		return en.canonicalDivide(ops[0], ops[1])
	case "Power":
		return en.canonicalPower(ops[0], ops[1])
	case "Exp":
		return en.canonicalExp(ops[0])
	case "Ln":
		return en.canonicalLn(ops[0])
	}
	return en.finishCanonical(head, ops)
}

// canonicalAdd flattens, folds numeric literals exactly, removes zeroes,
// recognises a + b·i as a complex literal and unwraps a lone operand.
func (en *Engine) canonicalAdd(ops []*Expr) *Expr {
	ops = flattenHead("Add", ops)
	numeric := kernel.FromInt(0)
	haveNumeric := false
	rest := make([]*Expr, 0, len(ops))
	for _, op := range ops {
		if op.kind == core.KindNumber {
			numeric = kernel.Add(numeric, *op.num, en.precision)
			haveNumeric = true
			continue
		}
		rest = append(rest, op)
	}
	if haveNumeric && !numeric.IsZero() {
		rest = append(rest, en.newNumber(numeric))
	}
	if len(rest) == 0 {
		return en.Zero()
	}
	if c, ok := en.recognizeComplex(rest); ok {
		return c
	}
	if len(rest) == 1 && !isIndexableCollection(rest[0]) {
		return rest[0]
	}
	sortCommutative("Add", rest)
	return en.finishCanonical("Add", rest)
}

// recognizeComplex folds {real literal, b·ImaginaryUnit} into one complex
// literal when both components are real literals.
func (en *Engine) recognizeComplex(terms []*Expr) (*Expr, bool) {
	if len(terms) != 2 {
		return nil, false
	}
	for i := 0; i < 2; i++ {
		re, im := terms[i], terms[1-i]
		if re.kind != core.KindNumber || re.num.IsComplexForm() {
			continue
		}
		if coef, ok := imaginaryCoefficient(im); ok {
			return en.newNumber(kernel.FromComplex(re.num.Float64(), coef)), true
		}
	}
	return nil, false
}

func imaginaryCoefficient(x *Expr) (float64, bool) {
	if x.kind == core.KindSymbol && x.name == "ImaginaryUnit" {
		return 1, true
	}
	if x.kind == core.KindNumber && x.num.IsComplexForm() && x.num.Re() == 0 {
		return x.num.Im(), true
	}
	if x.kind == core.KindFunction && x.head == "Multiply" && len(x.ops) == 2 {
		if x.ops[1].kind == core.KindSymbol && x.ops[1].name == "ImaginaryUnit" &&
			x.ops[0].kind == core.KindNumber && !x.ops[0].num.IsComplexForm() {
			return x.ops[0].num.Float64(), true
		}
	}
	return 0, false
}

func (en *Engine) canonicalMultiply(ops []*Expr) *Expr {
	ops = flattenHead("Multiply", ops)
	numeric := kernel.FromInt(1)
	haveNumeric := false
	rest := make([]*Expr, 0, len(ops))
	for _, op := range ops {
		if op.kind == core.KindNumber {
			numeric = kernel.Mul(numeric, *op.num, en.precision)
			haveNumeric = true
			continue
		}
		if op.kind == core.KindFunction && op.head == "Negate" && len(op.ops) == 1 {
			numeric = kernel.Neg(numeric)
			haveNumeric = true
			rest = append(rest, op.ops[0])
			continue
		}
		rest = append(rest, op)
	}
	if haveNumeric && numeric.IsZero() {
		return en.Zero()
	}
	if haveNumeric && !numeric.IsOne() {
		rest = append(rest, en.newNumber(numeric))
	}
	if len(rest) == 0 {
		return en.One()
	}
	if len(rest) == 1 {
		return rest[0]
	}
	sortCommutative("Multiply", rest)
	return en.finishCanonical("Multiply", rest)
}

func (en *Engine) canonicalNegate(op *Expr) *Expr {
	if op.kind == core.KindNumber {
		return en.newNumber(kernel.Neg(*op.num))
	}
	if op.kind == core.KindFunction && op.head == "Negate" && len(op.ops) == 1 {
		return op.ops[0]
	}
	return en.finishCanonical("Negate", []*Expr{op})
}

func (en *Engine) canonicalSqrt(op *Expr) *Expr {
	if op.kind == core.KindNumber && op.num.IsRational() {
		// Exact reductions only: perfect squares fold, everything else
		// stays structural until a numeric pass.
		r := kernel.Sqrt(*op.num, en.precision)
		if r.IsRational() {
			return en.newNumber(r)
		}
	}
	return en.finishCanonical("Sqrt", []*Expr{op})
}

func (en *Engine) canonicalDivide(a, b *Expr) *Expr {
	if b.kind == core.KindNumber && b.num.IsOne() {
		return a
	}
	if a.kind == core.KindNumber && a.num.IsZero() &&
		b.kind == core.KindNumber && !b.num.IsZero() {
		return en.Zero()
	}
	if a.kind == core.KindNumber && b.kind == core.KindNumber && !b.num.IsZero() {
		return en.newNumber(kernel.Div(*a.num, *b.num, en.precision))
	}
	return en.finishCanonical("Divide", []*Expr{a, b})
}

func (en *Engine) canonicalPower(base, exp *Expr) *Expr {
	if n, ok := exp.isIntegerLiteral(); ok {
		switch n {
		case 0:
			return en.One()
		case 1:
			return base
		}
	}
	if base.kind == core.KindNumber {
		if base.num.IsOne() {
			return en.One()
		}
		if base.num.IsZero() {
			if exp.kind == core.KindNumber && exp.num.Sign() > 0 {
				return en.Zero()
			}
		}
	}
	// x^(1/2) is Sqrt.
	if exp.kind == core.KindNumber && exp.num.IsRational() &&
		exp.num.Rat() != nil && exp.num.Rat().Cmp(halfRat) == 0 {
		return en.canonicalSqrt(base)
	}
	// Exponent infinities fold by base magnitude.
	if exp.kind == core.KindNumber && exp.num.IsInf() && base.kind == core.KindNumber {
		return en.powerInfinity(base, exp.num.Sign() > 0)
	}
	if n, ok := exp.isIntegerLiteral(); ok {
		// Exact numeric fold.
		if base.kind == core.KindNumber && base.num.IsRational() {
			return en.newNumber(kernel.PowInt(*base.num, n, en.precision))
		}
		// (x^a)^b with integer a, b and a real base multiplies exponents.
		if base.kind == core.KindFunction && base.head == "Power" && len(base.ops) == 2 {
			if m, ok2 := base.ops[1].isIntegerLiteral(); ok2 && realBase(base.ops[0]) {
				return en.canonicalPower(base.ops[0], en.Integer(m*n))
			}
		}
		// Integer exponents distribute over Multiply.
		if base.kind == core.KindFunction && base.head == "Multiply" {
			factors := make([]*Expr, len(base.ops))
			for i, f := range base.ops {
				factors[i] = en.canonicalPower(f, en.Integer(n))
			}
			return en.canonicalMultiply(factors)
		}
	}
	return en.finishCanonical("Power", []*Expr{base, exp})
}

func realBase(x *Expr) bool {
	if x.kind == core.KindNumber {
		return !x.num.IsComplexForm()
	}
	return x.kind == core.KindSymbol
}

func (en *Engine) powerInfinity(base *Expr, positive bool) *Expr {
	mag := math.Abs(base.num.Float64())
	switch {
	case mag > 1 && positive, mag < 1 && mag > 0 && !positive:
		return en.PosInfinity()
	case mag > 1 && !positive, mag < 1 && positive:
		return en.Zero()
	default:
		return en.NaN()
	}
}

func (en *Engine) canonicalExp(op *Expr) *Expr {
	if op.kind == core.KindNumber && op.num.IsZero() {
		return en.One()
	}
	if op.kind == core.KindFunction && op.head == "Ln" && len(op.ops) == 1 {
		return op.ops[0]
	}
	return en.finishCanonical("Exp", []*Expr{op})
}

func (en *Engine) canonicalLn(op *Expr) *Expr {
	if op.kind == core.KindNumber && op.num.IsOne() {
		return en.Zero()
	}
	if op.kind == core.KindSymbol && op.name == "ExponentialE" {
		return en.One()
	}
	if op.kind == core.KindFunction && op.head == "Exp" && len(op.ops) == 1 {
		return op.ops[0]
	}
	return en.finishCanonical("Ln", []*Expr{op})
}

// isIndexableCollection reports a canonical List, Range or Set with a
// known finite length.
func isIndexableCollection(x *Expr) bool {
	if x.kind == core.KindTensor {
		return true
	}
	if x.kind != core.KindFunction {
		return false
	}
	switch x.head {
	case "List", "Set":
		return true
	case "Range":
		for _, op := range x.ops {
			if op.kind != core.KindNumber {
				return false
			}
		}
		return len(x.ops) >= 2
	}
	return false
}

// collectionLength returns the element count of an indexable collection.
func collectionLength(x *Expr) int {
	if x.kind == core.KindTensor {
		if len(x.tensor.Shape) > 0 {
			return x.tensor.Shape[0]
		}
		return 0
	}
	if x.head == "Range" {
		lo := x.ops[0].num.Float64()
		hi := x.ops[1].num.Float64()
		step := 1.0
		if len(x.ops) > 2 {
			step = x.ops[2].num.Float64()
		}
		if step == 0 {
			return 0
		}
		n := int(math.Floor((hi-lo)/step)) + 1
		if n < 0 {
			return 0
		}
		return n
	}
	return len(x.ops)
}

// collectionAt returns element i of an indexable collection.
func (en *Engine) collectionAt(x *Expr, i int) *Expr {
	if x.kind == core.KindTensor {
		view := x.AsList()
		if i < len(view.ops) {
			return view.ops[i]
		}
		return en.ErrorExpr(core.ECMissing, "index out of range", x)
	}
	if x.head == "Range" {
		lo := x.ops[0].num.Float64()
		step := 1.0
		if len(x.ops) > 2 {
			step = x.ops[2].num.Float64()
		}
		return en.Float(lo + float64(i)*step)
	}
	if i < len(x.ops) {
		return x.ops[i]
	}
	return en.ErrorExpr(core.ECMissing, "index out of range", x)
}

var halfRat = big.NewRat(1, 2)
