package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/symx/internal/core"
	"github.com/termfx/symx/internal/domain"
)

func TestValidIdentifier(t *testing.T) {
	valid := []string{"x", "Pi", "alpha2", "_a", "__coef", "_", "_1", "_12"}
	invalid := []string{"", "2x", "x-y", "a b", "___x", "_x!"}
	for _, s := range valid {
		assert.True(t, ValidIdentifier(s), "%q", s)
	}
	for _, s := range invalid {
		assert.False(t, ValidIdentifier(s), "%q", s)
	}
}

func TestDeclareRejectsInvalidIdentifier(t *testing.T) {
	en := testEngine(t)
	err := en.DeclareSymbol("2bad", &SymbolDef{})
	assert.ErrorIs(t, err, core.ErrInvalidIdentifier)
}

func TestDeclareRejectsRedeclaration(t *testing.T) {
	en := testEngine(t)
	require.NoError(t, en.DeclareSymbol("a", &SymbolDef{Domain: domain.Integers}))
	err := en.DeclareSymbol("a", &SymbolDef{Domain: domain.RealNumbers})
	assert.ErrorIs(t, err, core.ErrAlreadyDeclared)
}

func TestDeclareNarrowsInferredDefinitions(t *testing.T) {
	en := testEngine(t)
	require.NoError(t, en.DeclareSymbol("a", &SymbolDef{Domain: domain.RealNumbers, Inferred: true}))
	assert.NoError(t, en.DeclareSymbol("a", &SymbolDef{Domain: domain.Integers}))
	assert.Equal(t, domain.Integers, en.LookupSymbol("a").Domain)
}

func TestScopeShadowingAndPop(t *testing.T) {
	en := testEngine(t)
	require.NoError(t, en.DeclareSymbol("v", &SymbolDef{Value: en.Integer(1)}))

	en.PushScope()
	// The child scope may redeclare without conflict; lookup walks
	// leaf to root, first match wins.
	require.NoError(t, en.DeclareSymbol("v", &SymbolDef{Value: en.Integer(2)}))
	assert.Equal(t, "2", en.LookupSymbol("v").Value.String())

	require.NoError(t, en.PopScope())
	assert.Equal(t, "1", en.LookupSymbol("v").Value.String())

	// Popping the root fails.
	assert.ErrorIs(t, en.PopScope(), core.ErrMissingScope)
}

func TestAssumptionsCopyDownNotUp(t *testing.T) {
	en := testEngine(t)
	en.Assume("p", en.Fn("Greater", en.Symbol("p"), en.Integer(0)))

	en.PushScope()
	assert.Len(t, en.Assumptions("p"), 1)
	en.Assume("q", en.Fn("Less", en.Symbol("q"), en.Integer(0)))
	assert.Equal(t, SignNegative, en.Symbol("q").Sgn())
	require.NoError(t, en.PopScope())

	// The child's assumption does not leak into the parent.
	assert.Empty(t, en.Assumptions("q"))
	assert.Equal(t, SignUnknown, en.Symbol("q").Sgn())
}

func TestLookupFunctionWalksChain(t *testing.T) {
	en := testEngine(t)
	require.NoError(t, en.DeclareFunction(&FuncDef{Name: "F", Pure: true}))
	en.PushScope()
	assert.NotNil(t, en.LookupFunction("F"))
	assert.Nil(t, en.LookupFunction("Missing"))
	require.NoError(t, en.PopScope())
}
