package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/symx/internal/core"
	"github.com/termfx/symx/internal/domain"
)

func TestCanonicalIdempotence(t *testing.T) {
	en := testEngine(t)
	exprs := []*Expr{
		en.Fn("Add", en.Integer(1), en.Fn("Add", en.Integer(2), en.Symbol("x"))),
		en.Fn("Multiply", en.Symbol("y"), en.Symbol("x"), en.Integer(5), en.Symbol("z")),
		en.Fn("Power", en.Symbol("x"), en.Integer(1)),
		en.Fn("F", en.Sequence(en.Integer(1), en.Integer(2))),
	}
	for _, x := range exprs {
		once := en.Canonical(x)
		twice := en.Canonical(once)
		assert.True(t, once.IsSame(twice), "%s", x)
		assert.True(t, once.IsCanonical())
	}
}

func TestFlattenLaw(t *testing.T) {
	en := testEngine(t)
	x := en.Fn("Add",
		en.Fn("Add", en.Symbol("a"), en.Fn("Add", en.Symbol("b"), en.Symbol("c"))),
		en.Symbol("d"))
	got := en.Canonical(x)
	require.Equal(t, "Add", got.Head())
	for _, op := range got.Ops() {
		assert.NotEqual(t, "Add", op.Head())
		assert.NotEqual(t, "Sequence", op.Head())
	}
	assert.Equal(t, 4, got.Nops())
}

func TestCommutativeOrder(t *testing.T) {
	en := testEngine(t)
	// Constants sort before variable factors.
	x := en.Fn("Multiply", en.Symbol("y"), en.Symbol("x"), en.Integer(5), en.Symbol("z"))
	assert.Equal(t, "Multiply(5, x, y, z)", en.Canonical(x).String())

	// Children of a canonical commutative node are non-decreasing.
	got := en.Canonical(en.Fn("Add", en.Symbol("c"), en.Integer(7), en.Symbol("a")))
	ops := got.Ops()
	for i := 1; i < len(ops); i++ {
		assert.LessOrEqual(t, ops[i-1].CompareTo(ops[i]), 0)
	}
}

func TestAddCanonicalForm(t *testing.T) {
	en := testEngine(t)
	// Literal zeroes vanish and numerics fold.
	got := en.Canonical(en.Fn("Add", en.Integer(0), en.Symbol("x"), en.Integer(2), en.Integer(3)))
	assert.Equal(t, "Add(5, x)", got.String())

	// A lone remaining operand unwraps.
	got = en.Canonical(en.Fn("Add", en.Integer(0), en.Symbol("x")))
	assert.Equal(t, "x", got.String())

	// Empty sum is zero.
	assert.True(t, en.Canonical(en.Fn("Add")).IsSame(en.Zero()))
}

func TestAddRecognisesComplexLiterals(t *testing.T) {
	en := testEngine(t)
	// a + b·i with real literal components folds to one complex literal.
	x := en.Fn("Add", en.Integer(3),
		en.Fn("Multiply", en.Integer(2), en.Symbol("ImaginaryUnit")))
	got := en.Canonical(x)
	require.NotNil(t, got.NumericValue())
	assert.Equal(t, 3.0, got.NumericValue().Re())
	assert.Equal(t, 2.0, got.NumericValue().Im())

	// b·i + a works the same through commutative collection.
	x = en.Fn("Add", en.Fn("Multiply", en.Integer(2), en.Symbol("ImaginaryUnit")), en.Integer(3))
	assert.True(t, got.IsSame(en.Canonical(x)))
}

func TestMultiplyCanonicalForm(t *testing.T) {
	en := testEngine(t)
	assert.True(t, en.Canonical(en.Fn("Multiply", en.Integer(0), en.Symbol("x"))).IsSame(en.Zero()))
	assert.Equal(t, "x", en.Canonical(en.Fn("Multiply", en.Integer(1), en.Symbol("x"))).String())
	assert.Equal(t, "6", en.Canonical(en.Fn("Multiply", en.Integer(2), en.Integer(3))).String())
}

func TestPowerCanonicalForm(t *testing.T) {
	en := testEngine(t)
	x := en.Symbol("x")
	assert.True(t, en.Canonical(en.Fn("Power", x, en.Integer(0))).IsSame(en.One()))
	assert.Equal(t, "x", en.Canonical(en.Fn("Power", x, en.Integer(1))).String())
	assert.True(t, en.Canonical(en.Fn("Power", en.Integer(1), x)).IsSame(en.One()))
	assert.True(t, en.Canonical(en.Fn("Power", en.Integer(0), en.Integer(3))).IsSame(en.Zero()))

	// x^(1/2) is Sqrt.
	assert.Equal(t, "Sqrt(x)", en.Canonical(en.Fn("Power", x, en.Rational(1, 2))).String())

	// (x^2)^3 multiplies integer exponents over a real base.
	inner := en.Fn("Power", x, en.Integer(2))
	assert.Equal(t, "Power(x, 6)", en.Canonical(en.Fn("Power", inner, en.Integer(3))).String())

	// Integer exponents distribute over Multiply.
	got := en.Canonical(en.Fn("Power", en.Fn("Multiply", x, en.Symbol("y")), en.Integer(2)))
	assert.Equal(t, "Multiply(Power(x, 2), Power(y, 2))", got.String())

	// Exponent infinities fold by base magnitude.
	assert.True(t, en.Canonical(en.Fn("Power", en.Integer(2), en.PosInfinity())).IsSame(en.PosInfinity()))
	assert.True(t, en.Canonical(en.Fn("Power", en.Rational(1, 2), en.PosInfinity())).IsSame(en.Zero()))

	// Exact integer powers fold, rationals preserved.
	assert.Equal(t, "1/4", en.Canonical(en.Fn("Power", en.Integer(2), en.Integer(-2))).String())
}

func TestDivideCanonicalForm(t *testing.T) {
	en := testEngine(t)
	assert.Equal(t, "x", en.Canonical(en.Fn("Divide", en.Symbol("x"), en.Integer(1))).String())
	assert.Equal(t, "7/3", en.Canonical(en.Fn("Divide", en.Integer(7), en.Integer(3))).String())
	assert.Equal(t, "Divide(x, y)",
		en.Canonical(en.Fn("Divide", en.Symbol("x"), en.Symbol("y"))).String())
}

func TestSqrtExactFolds(t *testing.T) {
	en := testEngine(t)
	assert.Equal(t, "6", en.Canonical(en.Fn("Sqrt", en.Integer(36))).String())
	assert.Equal(t, "Sqrt(2)", en.Canonical(en.Fn("Sqrt", en.Integer(2))).String())
}

func TestExpLnInverses(t *testing.T) {
	en := testEngine(t)
	x := en.Symbol("x")
	assert.Equal(t, "x", en.Canonical(en.Fn("Exp", en.Fn("Ln", x))).String())
	assert.Equal(t, "x", en.Canonical(en.Fn("Ln", en.Fn("Exp", x))).String())
	assert.True(t, en.Canonical(en.Fn("Ln", en.Integer(1))).IsSame(en.Zero()))
	assert.True(t, en.Canonical(en.Fn("Exp", en.Integer(0))).IsSame(en.One()))
}

func TestSequenceSplicing(t *testing.T) {
	en := testEngine(t)
	x := en.Fn("F", en.Integer(1), en.Sequence(en.Integer(2), en.Integer(3)), en.Integer(4))
	got := en.Canonical(x)
	assert.Equal(t, "F(1, 2, 3, 4)", got.String())
}

func TestInvolutionAndIdempotence(t *testing.T) {
	en := testEngine(t)
	require.NoError(t, en.DeclareFunction(&FuncDef{
		Name: "Conj", Pure: true, Involution: true, Hold: core.HoldNone,
	}))
	require.NoError(t, en.DeclareFunction(&FuncDef{
		Name: "Floor", Pure: true, Idempotent: true, Hold: core.HoldNone,
	}))
	x := en.Symbol("x")
	assert.Equal(t, "x", en.Canonical(en.Fn("Conj", en.Fn("Conj", x))).String())
	assert.Equal(t, "Floor(x)", en.Canonical(en.Fn("Floor", en.Fn("Floor", x))).String())
}

func TestHoldPolicyInCanonicalisation(t *testing.T) {
	en := testEngine(t)
	require.NoError(t, en.DeclareFunction(&FuncDef{
		Name: "F", Pure: true, Hold: core.HoldFirst,
	}))
	raw := en.Fn("F", en.Fn("Add", en.Integer(1), en.Integer(1)), en.Fn("Add", en.Integer(2), en.Integer(2)))
	got := en.Canonical(raw)
	assert.Equal(t, "F(Add(1, 1), 4)", got.String())

	// ReleaseHold is processed regardless of policy and stripped.
	raw = en.Fn("F", en.Fn("ReleaseHold", en.Fn("Add", en.Integer(1), en.Integer(1))), en.Integer(0))
	assert.Equal(t, "F(2, 0)", en.Canonical(raw).String())
}

func TestSignatureViolationsProduceErrorOperands(t *testing.T) {
	en := testEngine(t)
	require.NoError(t, en.DeclareFunction(&FuncDef{
		Name: "P", Pure: true, Hold: core.HoldNone,
		Sig: Signature{Params: []domain.Domain{domain.Numbers}},
	}))

	missing := en.Canonical(en.Fn("P"))
	assert.True(t, missing.IsCanonical())
	assert.False(t, missing.IsValid())
	assert.Equal(t, core.ECMissing, missing.Op(0).ErrorCode())

	surplus := en.Canonical(en.Fn("P", en.Integer(1), en.Integer(2)))
	assert.True(t, surplus.IsCanonical())
	assert.Equal(t, core.ECUnexpectedArgument, surplus.Op(1).ErrorCode())

	wrong := en.Canonical(en.Fn("P", en.Str("nope")))
	assert.Equal(t, core.ECIncompatibleDomain, wrong.Op(0).ErrorCode())
}

func TestCanonicalHandlerResultIsVerbatim(t *testing.T) {
	en := testEngine(t)
	require.NoError(t, en.DeclareFunction(&FuncDef{
		Name: "Wrap", Pure: true, Hold: core.HoldNone,
		Canonical: func(en *Engine, args []*Expr) *Expr {
			return en.Canonical(en.List(args...))
		},
	}))
	got := en.Canonical(en.Fn("Wrap", en.Integer(1)))
	assert.Equal(t, "List(1)", got.String())
}

func TestCompoundHeadResolution(t *testing.T) {
	en := testEngine(t)
	// A compound head that does not evaluate to a symbol survives
	// unresolved, and the node stays non-canonical.
	head := en.Fn("G", en.Integer(1))
	x := en.FnFrom(head, en.Integer(2))
	got := en.Canonical(x)
	assert.False(t, got.IsCanonical())

	// A compound head whose value is a symbol resolves to that symbol's
	// name.
	require.NoError(t, en.DeclareSymbol("alias", &SymbolDef{Value: en.Symbol("H")}))
	x = en.FnFrom(en.Fn("Add", en.Symbol("alias")), en.Integer(2))
	assert.Equal(t, "H", en.Canonical(x).Head())
}
