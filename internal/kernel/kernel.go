// Package kernel adapts the numeric tower the engine computes with. The
// engine treats these primitives as an external collaborator: construction,
// arithmetic, transcendentals and comparison over machine doubles,
// arbitrary-precision floats (math/big + bigfloat), exact rationals and
// machine complex values.
package kernel

import (
	"fmt"
	"math"
	"math/big"
	"math/cmplx"

	"github.com/ALTree/bigfloat"
)

// Form tags the representation carried by a Number.
type Form uint8

const (
	// Machine is a float64.
	Machine Form = iota
	// Big is an arbitrary-precision binary float.
	Big
	// Rational is an exact big-integer ratio; integers are rationals with
	// denominator one.
	Rational
	// Complex is a machine complex128.
	Complex
)

// Number is an immutable numeric value in one of the four forms.
type Number struct {
	form Form
	f    float64
	bf   *big.Float
	rat  *big.Rat
	c    complex128
}

// BitsForDigits converts a decimal digit count to a mantissa bit count.
func BitsForDigits(digits uint) uint {
	if digits < 15 {
		digits = 15
	}
	return uint(float64(digits)*math.Log2(10)) + 8
}

// FromInt builds an exact integer.
func FromInt(i int64) Number {
	return Number{form: Rational, rat: new(big.Rat).SetInt64(i)}
}

// FromFloat builds a machine value.
func FromFloat(f float64) Number {
	return Number{form: Machine, f: f}
}

// FromRat builds an exact ratio n/d. A zero denominator yields NaN.
func FromRat(n, d int64) Number {
	if d == 0 {
		return FromFloat(math.NaN())
	}
	return Number{form: Rational, rat: big.NewRat(n, d)}
}

// FromBigRat wraps an exact ratio.
func FromBigRat(r *big.Rat) Number {
	return Number{form: Rational, rat: new(big.Rat).Set(r)}
}

// FromBigFloat wraps an arbitrary-precision float.
func FromBigFloat(x *big.Float) Number {
	return Number{form: Big, bf: new(big.Float).Copy(x)}
}

// FromComplex builds a machine complex value. A zero imaginary part
// collapses to the machine form.
func FromComplex(re, im float64) Number {
	if im == 0 {
		return FromFloat(re)
	}
	return Number{form: Complex, c: complex(re, im)}
}

// Parse reads a decimal literal at the given precision in digits. Integer
// literals come back exact; decimal literals come back as big floats when
// they exceed machine precision, machine floats otherwise.
func Parse(s string, digits uint) (Number, error) {
	if r, ok := new(big.Rat).SetString(s); ok && r.IsInt() {
		return Number{form: Rational, rat: r}, nil
	}
	if len(s) > 17 {
		bf, _, err := big.ParseFloat(s, 10, BitsForDigits(digits), big.ToNearestEven)
		if err != nil {
			return Number{}, fmt.Errorf("parse %q: %w", s, err)
		}
		return Number{form: Big, bf: bf}, nil
	}
	var f float64
	if _, err := fmt.Sscanf(s, "%g", &f); err != nil {
		return Number{}, fmt.Errorf("parse %q: %w", s, err)
	}
	return FromFloat(f), nil
}

// Form returns the representation tag.
func (n Number) Form() Form { return n.form }

// IsRational reports the exact form.
func (n Number) IsRational() bool { return n.form == Rational }

// IsBig reports the arbitrary-precision form.
func (n Number) IsBig() bool { return n.form == Big }

// IsComplexForm reports the complex form (imaginary part nonzero by
// construction).
func (n Number) IsComplexForm() bool { return n.form == Complex }

// Re returns the real part as a machine value.
func (n Number) Re() float64 {
	switch n.form {
	case Machine:
		return n.f
	case Big:
		f, _ := n.bf.Float64()
		return f
	case Rational:
		f, _ := n.rat.Float64()
		return f
	case Complex:
		return real(n.c)
	}
	return math.NaN()
}

// Im returns the imaginary part as a machine value.
func (n Number) Im() float64 {
	if n.form == Complex {
		return imag(n.c)
	}
	return 0
}

// Float64 returns the value as a machine double, lossy for big and
// rational forms and taking the real part of a complex.
func (n Number) Float64() float64 { return n.Re() }

// Complex128 returns the value as a machine complex.
func (n Number) Complex128() complex128 {
	if n.form == Complex {
		return n.c
	}
	return complex(n.Re(), 0)
}

// Rat returns the exact ratio, or nil for inexact forms.
func (n Number) Rat() *big.Rat {
	if n.form == Rational {
		return n.rat
	}
	return nil
}

// Num returns the numerator of a rational, zero otherwise.
func (n Number) Num() *big.Int {
	if n.form == Rational {
		return n.rat.Num()
	}
	return big.NewInt(0)
}

// Den returns the denominator of a rational, one otherwise.
func (n Number) Den() *big.Int {
	if n.form == Rational {
		return n.rat.Denom()
	}
	return big.NewInt(1)
}

// IsZero reports exact zero.
func (n Number) IsZero() bool {
	switch n.form {
	case Machine:
		return n.f == 0
	case Big:
		return n.bf.Sign() == 0
	case Rational:
		return n.rat.Sign() == 0
	case Complex:
		return n.c == 0
	}
	return false
}

// IsOne reports exact one.
func (n Number) IsOne() bool {
	switch n.form {
	case Machine:
		return n.f == 1
	case Big:
		return n.bf.Cmp(big.NewFloat(1)) == 0
	case Rational:
		return n.rat.Cmp(big.NewRat(1, 1)) == 0
	case Complex:
		return n.c == 1
	}
	return false
}

// IsFinite reports a value that is neither infinite nor NaN.
func (n Number) IsFinite() bool {
	switch n.form {
	case Machine:
		return !math.IsInf(n.f, 0) && !math.IsNaN(n.f)
	case Big:
		return !n.bf.IsInf()
	case Rational:
		return true
	case Complex:
		return !cmplx.IsInf(n.c) && !cmplx.IsNaN(n.c)
	}
	return false
}

// IsNaN reports not-a-number.
func (n Number) IsNaN() bool {
	switch n.form {
	case Machine:
		return math.IsNaN(n.f)
	case Complex:
		return cmplx.IsNaN(n.c)
	}
	return false
}

// IsInf reports an infinity; sign follows the machine convention.
func (n Number) IsInf() bool {
	switch n.form {
	case Machine:
		return math.IsInf(n.f, 0)
	case Big:
		return n.bf.IsInf()
	}
	return false
}

// IsInteger reports an exact or representable integer value.
func (n Number) IsInteger() bool {
	switch n.form {
	case Machine:
		return n.IsFinite() && n.f == math.Trunc(n.f)
	case Big:
		return n.bf.IsInt()
	case Rational:
		return n.rat.IsInt()
	case Complex:
		return false
	}
	return false
}

// Int64 returns the integer value; call only when IsInteger holds.
func (n Number) Int64() int64 {
	switch n.form {
	case Machine:
		return int64(n.f)
	case Big:
		i, _ := n.bf.Int64()
		return i
	case Rational:
		return n.rat.Num().Int64()
	}
	return 0
}

// Sign returns -1, 0 or 1 for real values and 0 for a complex zero; the
// sign of a non-real complex is not defined and reported as 0 alongside
// IsComplexForm.
func (n Number) Sign() int {
	switch n.form {
	case Machine:
		if n.f > 0 {
			return 1
		}
		if n.f < 0 {
			return -1
		}
		return 0
	case Big:
		return n.bf.Sign()
	case Rational:
		return n.rat.Sign()
	case Complex:
		return 0
	}
	return 0
}

// combine picks the widest representation of the pair.
func combine(a, b Form) Form {
	if a == Complex || b == Complex {
		return Complex
	}
	if a == Big || b == Big {
		return Big
	}
	if a == Rational && b == Rational {
		return Rational
	}
	return Machine
}

func (n Number) asBig(bits uint) *big.Float {
	switch n.form {
	case Big:
		return new(big.Float).SetPrec(bits).Set(n.bf)
	case Rational:
		return new(big.Float).SetPrec(bits).SetRat(n.rat)
	default:
		return new(big.Float).SetPrec(bits).SetFloat64(n.f)
	}
}

// Add returns a+b at the given precision in digits.
func Add(a, b Number, digits uint) Number {
	switch combine(a.form, b.form) {
	case Complex:
		return normalize(a.Complex128() + b.Complex128())
	case Big:
		bits := BitsForDigits(digits)
		return Number{form: Big, bf: new(big.Float).SetPrec(bits).Add(a.asBig(bits), b.asBig(bits))}
	case Rational:
		return Number{form: Rational, rat: new(big.Rat).Add(a.rat, b.rat)}
	default:
		return FromFloat(a.Float64() + b.Float64())
	}
}

// Mul returns a·b at the given precision in digits.
func Mul(a, b Number, digits uint) Number {
	switch combine(a.form, b.form) {
	case Complex:
		return normalize(a.Complex128() * b.Complex128())
	case Big:
		bits := BitsForDigits(digits)
		return Number{form: Big, bf: new(big.Float).SetPrec(bits).Mul(a.asBig(bits), b.asBig(bits))}
	case Rational:
		return Number{form: Rational, rat: new(big.Rat).Mul(a.rat, b.rat)}
	default:
		return FromFloat(a.Float64() * b.Float64())
	}
}

// Div returns a/b at the given precision in digits. Division by an exact
// zero yields an infinity or NaN per machine convention.
func Div(a, b Number, digits uint) Number {
	if b.IsZero() {
		if a.IsZero() {
			return FromFloat(math.NaN())
		}
		return FromFloat(math.Inf(a.Sign()))
	}
	switch combine(a.form, b.form) {
	case Complex:
		return normalize(a.Complex128() / b.Complex128())
	case Big:
		bits := BitsForDigits(digits)
		return Number{form: Big, bf: new(big.Float).SetPrec(bits).Quo(a.asBig(bits), b.asBig(bits))}
	case Rational:
		return Number{form: Rational, rat: new(big.Rat).Quo(a.rat, b.rat)}
	default:
		return FromFloat(a.Float64() / b.Float64())
	}
}

// Neg returns -a.
func Neg(a Number) Number {
	switch a.form {
	case Machine:
		return FromFloat(-a.f)
	case Big:
		return Number{form: Big, bf: new(big.Float).Neg(a.bf)}
	case Rational:
		return Number{form: Rational, rat: new(big.Rat).Neg(a.rat)}
	case Complex:
		return Number{form: Complex, c: -a.c}
	}
	return a
}

// Abs returns |a|; the modulus for complex values.
func Abs(a Number) Number {
	switch a.form {
	case Machine:
		return FromFloat(math.Abs(a.f))
	case Big:
		return Number{form: Big, bf: new(big.Float).Abs(a.bf)}
	case Rational:
		return Number{form: Rational, rat: new(big.Rat).Abs(a.rat)}
	case Complex:
		return FromFloat(cmplx.Abs(a.c))
	}
	return a
}

// PowInt returns a^n for an integer exponent, exact on rationals.
func PowInt(a Number, n int64, digits uint) Number {
	if n == 0 {
		return FromInt(1)
	}
	switch a.form {
	case Rational:
		exp := n
		if exp < 0 {
			exp = -exp
		}
		num := new(big.Int).Exp(a.rat.Num(), big.NewInt(exp), nil)
		den := new(big.Int).Exp(a.rat.Denom(), big.NewInt(exp), nil)
		r := new(big.Rat).SetFrac(num, den)
		if n < 0 {
			if r.Sign() == 0 {
				return FromFloat(math.Inf(1))
			}
			r.Inv(r)
		}
		return Number{form: Rational, rat: r}
	case Big:
		bits := BitsForDigits(digits)
		exp := n
		if exp < 0 {
			exp = -exp
		}
		res := new(big.Float).SetPrec(bits).SetInt64(1)
		base := a.asBig(bits)
		for i := int64(0); i < exp; i++ {
			res.Mul(res, base)
		}
		if n < 0 {
			res.Quo(new(big.Float).SetPrec(bits).SetInt64(1), res)
		}
		return Number{form: Big, bf: res}
	case Complex:
		return normalize(cmplx.Pow(a.c, complex(float64(n), 0)))
	default:
		return FromFloat(math.Pow(a.f, float64(n)))
	}
}

// Pow returns a^b at the given precision in digits. Negative bases with
// fractional exponents yield complex results.
func Pow(a, b Number, digits uint) Number {
	if b.IsInteger() && b.form != Complex {
		return PowInt(a, b.Int64(), digits)
	}
	switch combine(a.form, b.form) {
	case Complex:
		return normalize(cmplx.Pow(a.Complex128(), b.Complex128()))
	case Big:
		bits := BitsForDigits(digits)
		ab := a.asBig(bits)
		if ab.Sign() < 0 {
			return normalize(cmplx.Pow(a.Complex128(), b.Complex128()))
		}
		return Number{form: Big, bf: bigfloat.Pow(ab, b.asBig(bits))}
	default:
		if a.Float64() < 0 {
			return normalize(cmplx.Pow(a.Complex128(), b.Complex128()))
		}
		return FromFloat(math.Pow(a.Float64(), b.Float64()))
	}
}

// Sqrt returns the square root; negative reals produce an imaginary value.
func Sqrt(a Number, digits uint) Number {
	switch a.form {
	case Complex:
		return normalize(cmplx.Sqrt(a.c))
	case Big:
		if a.bf.Sign() < 0 {
			return normalize(cmplx.Sqrt(a.Complex128()))
		}
		bits := BitsForDigits(digits)
		return Number{form: Big, bf: new(big.Float).SetPrec(bits).Sqrt(a.asBig(bits))}
	case Rational:
		if a.rat.Sign() < 0 {
			return normalize(cmplx.Sqrt(a.Complex128()))
		}
		// Keep perfect squares of integers exact.
		if a.rat.IsInt() {
			root := new(big.Int).Sqrt(a.rat.Num())
			if new(big.Int).Mul(root, root).Cmp(a.rat.Num()) == 0 {
				return Number{form: Rational, rat: new(big.Rat).SetInt(root)}
			}
		}
		return FromFloat(math.Sqrt(a.Float64()))
	default:
		if a.f < 0 {
			return normalize(cmplx.Sqrt(complex(a.f, 0)))
		}
		return FromFloat(math.Sqrt(a.f))
	}
}

// Exp returns e^a at the given precision in digits.
func Exp(a Number, digits uint) Number {
	switch a.form {
	case Complex:
		return normalize(cmplx.Exp(a.c))
	case Big:
		bits := BitsForDigits(digits)
		return Number{form: Big, bf: bigfloat.Exp(a.asBig(bits))}
	default:
		return FromFloat(math.Exp(a.Float64()))
	}
}

// Ln returns the natural log; negative reals produce a complex value and
// zero produces -∞.
func Ln(a Number, digits uint) Number {
	if a.IsZero() {
		return FromFloat(math.Inf(-1))
	}
	switch a.form {
	case Complex:
		return normalize(cmplx.Log(a.c))
	case Big:
		if a.bf.Sign() < 0 {
			return normalize(cmplx.Log(a.Complex128()))
		}
		bits := BitsForDigits(digits)
		return Number{form: Big, bf: bigfloat.Log(a.asBig(bits))}
	default:
		f := a.Float64()
		if f < 0 {
			return normalize(cmplx.Log(complex(f, 0)))
		}
		return FromFloat(math.Log(f))
	}
}

// Sin, Cos and Tan evaluate at machine precision; arbitrary-precision
// trigonometry is outside the kernel contract.
func Sin(a Number) Number {
	if a.form == Complex {
		return normalize(cmplx.Sin(a.c))
	}
	return FromFloat(math.Sin(a.Float64()))
}

func Cos(a Number) Number {
	if a.form == Complex {
		return normalize(cmplx.Cos(a.c))
	}
	return FromFloat(math.Cos(a.Float64()))
}

func Tan(a Number) Number {
	if a.form == Complex {
		return normalize(cmplx.Tan(a.c))
	}
	return FromFloat(math.Tan(a.Float64()))
}

// Cmp imposes a total order: real values by signed value, complex values
// lexicographically by real then imaginary part.
func Cmp(a, b Number) int {
	if a.form == Complex || b.form == Complex {
		ar, ai := a.Re(), a.Im()
		br, bi := b.Re(), b.Im()
		if ar != br {
			if ar < br {
				return -1
			}
			return 1
		}
		if ai != bi {
			if ai < bi {
				return -1
			}
			return 1
		}
		return 0
	}
	if a.form == Rational && b.form == Rational {
		return a.rat.Cmp(b.rat)
	}
	if a.form == Big || b.form == Big {
		return a.asBig(64).Cmp(b.asBig(64))
	}
	af, bf := a.Float64(), b.Float64()
	if af < bf {
		return -1
	}
	if af > bf {
		return 1
	}
	return 0
}

// EqualWithin reports componentwise equality within tol. Two exact
// rationals are compared exactly; tol does not apply to them.
func EqualWithin(a, b Number, tol float64) bool {
	if a.form == Rational && b.form == Rational {
		return a.rat.Cmp(b.rat) == 0
	}
	if a.IsNaN() || b.IsNaN() {
		return false
	}
	return math.Abs(a.Re()-b.Re()) <= tol && math.Abs(a.Im()-b.Im()) <= tol
}

// Downcast folds big values to machine precision, used by the evaluator's
// post-filter when bignums are not preferred.
func Downcast(a Number) Number {
	if a.form == Big {
		return FromFloat(a.Float64())
	}
	return a
}

// normalize collapses a complex with a vanishing imaginary part.
func normalize(c complex128) Number {
	if imag(c) == 0 {
		return FromFloat(real(c))
	}
	return Number{form: Complex, c: c}
}

// String renders the value for serialisation and ordering.
func (n Number) String() string {
	switch n.form {
	case Machine:
		return fmt.Sprintf("%g", n.f)
	case Big:
		return n.bf.Text('g', 30)
	case Rational:
		if n.rat.IsInt() {
			return n.rat.Num().String()
		}
		return n.rat.String()
	case Complex:
		return fmt.Sprintf("(%g+%gi)", real(n.c), imag(n.c))
	}
	return "?"
}
