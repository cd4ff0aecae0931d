package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchBindsCaptures(t *testing.T) {
	en := testEngine(t)
	pattern := en.Fn("F", en.Symbol("_a"), en.Symbol("_b"))
	subject := en.Fn("F", en.Integer(1), en.Symbol("x"))

	sub, ok := subject.Match(pattern, MatchOptions{})
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, sub.Names())
	a, _ := sub.Get("a")
	b, _ := sub.Get("b")
	assert.Equal(t, "1", a.String())
	assert.Equal(t, "x", b.String())
}

func TestMatchUnifiesRepeatedCaptures(t *testing.T) {
	en := testEngine(t)
	pattern := en.Fn("F", en.Symbol("_a"), en.Symbol("_a"))
	_, ok := en.Fn("F", en.Integer(1), en.Integer(1)).Match(pattern, MatchOptions{})
	assert.True(t, ok)
	_, ok = en.Fn("F", en.Integer(1), en.Integer(2)).Match(pattern, MatchOptions{})
	assert.False(t, ok)
}

func TestMatchDoubleUnderscoreSharesNamespace(t *testing.T) {
	en := testEngine(t)
	// __a and _a collapse to the same capture key; the coefficient
	// distinction lives in rule conditions.
	pattern := en.Fn("F", en.Symbol("__a"))
	sub, ok := en.Fn("F", en.Integer(9)).Match(pattern, MatchOptions{})
	require.True(t, ok)
	v, bound := sub.Get("a")
	require.True(t, bound)
	assert.Equal(t, "9", v.String())
}

func TestMatchNumericTolerance(t *testing.T) {
	en := testEngine(t)
	pattern := en.Float(1.0)
	_, ok := en.Float(1.0 + 1e-12).Match(pattern, MatchOptions{})
	assert.True(t, ok)
	_, ok = en.Float(1.1).Match(pattern, MatchOptions{})
	assert.False(t, ok)
	_, ok = en.Float(1.05).Match(pattern, MatchOptions{Tolerance: 0.1})
	assert.True(t, ok)
}

func TestMatchIsStructural(t *testing.T) {
	en := testEngine(t)
	// 1 + x does not match x + 1 unless the subject is canonicalised.
	pattern := en.Fn("Add", en.Integer(1), en.Symbol("x"))
	raw := en.Fn("Add", en.Symbol("x"), en.Integer(1))
	_, ok := raw.Match(pattern, MatchOptions{})
	assert.False(t, ok)
	_, ok = en.Canonical(raw).Match(en.Canonical(pattern), MatchOptions{})
	assert.True(t, ok)
}

func TestMatchHeadCapture(t *testing.T) {
	en := testEngine(t)
	pattern := en.Fn("_h", en.Integer(1))
	sub, ok := en.Fn("G", en.Integer(1)).Match(pattern, MatchOptions{})
	require.True(t, ok)
	h, _ := sub.Get("h")
	assert.Equal(t, "G", h.SymbolName())
}

func TestMatchWildcard(t *testing.T) {
	en := testEngine(t)
	pattern := en.Fn("F", en.Symbol("_"))
	sub, ok := en.Fn("F", en.Symbol("anything")).Match(pattern, MatchOptions{})
	require.True(t, ok)
	assert.Equal(t, 0, sub.Len())
}

func TestMatchLiteralNamesAreNotCaptures(t *testing.T) {
	en := testEngine(t)
	lit := map[string]bool{"_X1": true}
	pattern := en.Fn("F", en.Symbol("_X1"))
	_, ok := en.Fn("F", en.Symbol("_X1")).Match(pattern, MatchOptions{Literal: lit})
	assert.True(t, ok)
	_, ok = en.Fn("F", en.Integer(5)).Match(pattern, MatchOptions{Literal: lit})
	assert.False(t, ok)
}

func TestMatchAgainstErrorFails(t *testing.T) {
	en := testEngine(t)
	bad := en.ErrorExpr("missing", "boom", nil)
	_, ok := bad.Match(en.Symbol("_a"), MatchOptions{})
	assert.False(t, ok)
}

func TestPatternIdempotence(t *testing.T) {
	en := testEngine(t)
	pattern := en.Fn("F", en.Symbol("_a"), en.Fn("G", en.Symbol("_b")))
	subject := en.Fn("F", en.Integer(2), en.Fn("G", en.Symbol("y")))

	sub, ok := subject.Match(pattern, MatchOptions{})
	require.True(t, ok)

	instantiated := en.Instantiate(pattern, sub)
	again, ok := instantiated.Match(pattern, MatchOptions{})
	require.True(t, ok)
	assert.Equal(t, sub.Names(), again.Names())
	for _, n := range sub.Names() {
		want, _ := sub.Get(n)
		got, _ := again.Get(n)
		assert.True(t, want.IsSame(got), "capture %s", n)
	}
}

func TestMatchMultisetUnderCommutativeHead(t *testing.T) {
	en := testEngine(t)
	subject := en.Canonical(en.Fn("Add",
		en.Fn("Multiply", en.Integer(5), en.Symbol("v")), en.Integer(-10)))
	pattern := en.Fn("Add", en.Fn("Multiply", en.Symbol("_a"), en.Symbol("v")), en.Symbol("_b"))

	_, ok := subject.Match(pattern, MatchOptions{})
	assert.False(t, ok, "positional matching cannot align capture order")

	sub, ok := subject.Match(pattern, MatchOptions{AC: true})
	require.True(t, ok)
	a, _ := sub.Get("a")
	b, _ := sub.Get("b")
	assert.Equal(t, "5", a.String())
	assert.Equal(t, "-10", b.String())
}
