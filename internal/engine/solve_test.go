package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solveOne(t *testing.T, en *Engine, x *Expr, v string) *Expr {
	t.Helper()
	roots, err := en.Solve(x, v)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	return roots[0]
}

func TestSolveLinear(t *testing.T) {
	en := testEngine(t)
	// 5x - 10 = 0  =>  x = 2
	eq := en.Fn("Equal",
		en.Fn("Add", en.Fn("Multiply", en.Integer(5), en.Symbol("x")), en.Integer(-10)),
		en.Integer(0))
	assert.Equal(t, "2", solveOne(t, en, eq, "x").String())
}

func TestSolveLinearWithoutEqualWrapper(t *testing.T) {
	en := testEngine(t)
	x := en.Fn("Add", en.Fn("Multiply", en.Integer(3), en.Symbol("y")), en.Integer(6))
	assert.Equal(t, "-2", solveOne(t, en, x, "y").String())
}

func TestSolveFractionalCoefficients(t *testing.T) {
	en := testEngine(t)
	// (2/3)x + 1/3 = 5  =>  x = 7, exactly.
	eq := en.Fn("Equal",
		en.Fn("Add",
			en.Fn("Multiply", en.Rational(2, 3), en.Symbol("x")),
			en.Rational(1, 3)),
		en.Integer(5))
	root := solveOne(t, en, eq, "x")
	require.NotNil(t, root.NumericValue())
	assert.True(t, root.NumericValue().IsRational())
	assert.Equal(t, "7", root.String())
}

func TestSolveQuadraticReal(t *testing.T) {
	en := testEngine(t)
	// 2x² + 6x + 4 = 0  =>  {-1, -2} in either order.
	x := en.Symbol("x")
	eq := en.Fn("Add",
		en.Fn("Multiply", en.Integer(2), en.Fn("Power", x, en.Integer(2))),
		en.Fn("Multiply", en.Integer(6), x),
		en.Integer(4))
	roots, err := en.Solve(eq, "x")
	require.NoError(t, err)
	require.Len(t, roots, 2)
	got := []string{roots[0].String(), roots[1].String()}
	assert.ElementsMatch(t, []string{"-1", "-2"}, got)
}

func TestSolveBareVariable(t *testing.T) {
	en := testEngine(t)
	roots, err := en.Solve(en.Symbol("x"), "x")
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "0", roots[0].String())
}

func TestSolveReciprocal(t *testing.T) {
	en := testEngine(t)
	// a/x + b = 0 with constant a, b has the root at infinity.
	x := en.Fn("Add", en.Fn("Divide", en.Integer(3), en.Symbol("x")), en.Integer(2))
	root := solveOne(t, en, x, "x")
	require.NotNil(t, root.NumericValue())
	assert.True(t, root.NumericValue().IsInf())
}

func TestSolveUnmatchedReturnsEmpty(t *testing.T) {
	en := testEngine(t)
	// x² + 3x + 2 + sin(x) = 0 is outside the rule set even after
	// harmonisation and expansion.
	x := en.Symbol("x")
	expr := en.Fn("Add",
		en.Fn("Power", x, en.Integer(2)),
		en.Fn("Multiply", en.Integer(3), x),
		en.Integer(2),
		en.Fn("Sin", x))
	roots, err := en.Solve(expr, "x")
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestSolveExponential(t *testing.T) {
	en := testEngine(t)
	// 2·e^x - 6 = 0  =>  x = ln(3)
	x := en.Fn("Add",
		en.Fn("Multiply", en.Integer(2), en.Fn("Exp", en.Symbol("x"))),
		en.Integer(-6))
	root := solveOne(t, en, x, "x")
	assert.Equal(t, "Ln(3)", root.String())
}

func TestSolveExponentialRejectsNegativeLogArgument(t *testing.T) {
	en := testEngine(t)
	// 2·e^x + 6 = 0 has no real root: the ln argument would be -3.
	x := en.Fn("Add",
		en.Fn("Multiply", en.Integer(2), en.Fn("Exp", en.Symbol("x"))),
		en.Integer(6))
	roots, err := en.Solve(x, "x")
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestSolvePlaceholderFreshness(t *testing.T) {
	en := testEngine(t)
	// A user symbol colliding with the reserved placeholder is skipped.
	x := en.Fn("Add",
		en.Fn("Multiply", en.Integer(5), en.Symbol("x")),
		en.Fn("Multiply", en.Integer(0), en.Symbol("_X1")))
	got := en.freshPlaceholder(x)
	assert.NotEqual(t, "_X1", got)
	assert.False(t, x.Has(got))

	plain := en.Fn("Multiply", en.Integer(5), en.Symbol("x"))
	assert.Equal(t, "_X1", en.freshPlaceholder(plain))
}

func TestSolveMultiplicativeRoot(t *testing.T) {
	en := testEngine(t)
	// 5x = 0 => 0 via the leading annihilation rule.
	x := en.Fn("Multiply", en.Integer(5), en.Symbol("x"))
	assert.Equal(t, "0", solveOne(t, en, x, "x").String())
}
