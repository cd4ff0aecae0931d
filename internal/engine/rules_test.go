package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/symx/internal/core"
)

func TestReplaceRewritesCoefficientTimesVariable(t *testing.T) {
	en := testEngine(t)
	// With rule {Multiply(__a, _x) -> 0 if __a does not contain _x},
	// 5·x rewrites to 0.
	rule := Rule{
		ID:      "annihilate",
		Match:   en.Fn("Multiply", en.Symbol("__a"), en.Symbol("_x")),
		Replace: en.Integer(0),
		Condition: func(en *Engine, sub *Substitution) bool {
			a, _ := sub.Get("a")
			x, _ := sub.Get("x")
			return x.SymbolName() != "" && !a.Has(x.SymbolName())
		},
	}
	got, changed, err := en.Replace(en.Fn("Multiply", en.Integer(5), en.Symbol("x")), RuleSet{rule})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, got.IsSame(en.Zero()))
}

func TestReplaceReachesFixedPoint(t *testing.T) {
	en := testEngine(t)
	// f(f(...f(x))) peels one wrapper per rewrite.
	rule := Rule{
		ID:      "peel",
		Match:   en.Fn("Wrap", en.Symbol("_u")),
		Replace: en.Symbol("_u"),
	}
	x := en.Symbol("x")
	wrapped := x
	for i := 0; i < 5; i++ {
		wrapped = en.Fn("Wrap", wrapped)
	}
	got, changed, err := en.Replace(wrapped, RuleSet{rule})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "x", got.String())
}

func TestReplaceRejectsCostlierForms(t *testing.T) {
	en := testEngine(t)
	// Growing rewrites fail the cost gate and the original survives.
	rule := Rule{
		ID:      "grow",
		Match:   en.Fn("G", en.Symbol("_u")),
		Replace: en.Fn("G", en.Fn("G", en.Fn("G", en.Symbol("_u")))),
	}
	x := en.Fn("G", en.Symbol("x"))
	got, changed, err := en.Replace(x, RuleSet{rule})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "G(x)", got.String())
}

func TestReplaceTerminatesOnOscillation(t *testing.T) {
	en := NewEngine(Config{Limits: core.Limits{Iterations: 16, Recursion: 256}})
	// a <-> b ping-pong has equal cost both ways; the iteration limit
	// bounds the loop and the partial result is not an error.
	rules := RuleSet{
		{ID: "ab", Match: en.Symbol("pingA"), Replace: en.Symbol("pingB")},
		{ID: "ba", Match: en.Symbol("pingB"), Replace: en.Symbol("pingA")},
	}
	got, _, err := en.Replace(en.Fn("F", en.Symbol("pingA")), rules)
	require.NoError(t, err)
	name := got.Op(0).SymbolName()
	assert.Contains(t, []string{"pingA", "pingB"}, name)
}

func TestReplaceHonoursDeadline(t *testing.T) {
	en := testEngine(t)
	en.SetTimeLimit(time.Nanosecond)
	time.Sleep(time.Millisecond)
	_, _, err := en.Replace(en.Fn("F", en.Symbol("x")), RuleSet{})
	assert.ErrorIs(t, err, core.ErrTimeout)
}

func TestMatchRulesCollectsAllRewrites(t *testing.T) {
	en := testEngine(t)
	u := en.Symbol("_u")
	rs := RuleSet{
		{ID: "keep", Match: en.Fn("Pick", u), Replace: u},
		{ID: "neg", Match: en.Fn("Pick", u), Replace: en.Fn("Negate", u)},
	}
	got := en.MatchRules(en.Fn("Pick", en.Integer(3)), rs, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].String())
	assert.Equal(t, "-3", got[1].String())
}

func TestCachedRuleSetIsEpochScoped(t *testing.T) {
	en := testEngine(t)
	builds := 0
	build := func(en *Engine) RuleSet {
		builds++
		return RuleSet{}
	}
	en.CachedRuleSet("k", build)
	en.CachedRuleSet("k", build)
	assert.Equal(t, 1, builds)

	// A precision change starts a new epoch and flushes the cache.
	en.SetPrecision(200)
	en.CachedRuleSet("k", build)
	assert.Equal(t, 2, builds)
}

func TestCustomCostFunction(t *testing.T) {
	en := testEngine(t)
	// An always-zero cost function admits any rewrite.
	en.SetCostFunction(func(x *Expr) float64 { return 0 })
	rule := Rule{
		ID:      "grow",
		Match:   en.Fn("G", en.Symbol("_u")),
		Replace: en.Fn("H", en.Fn("H", en.Symbol("_u"))),
	}
	got, changed, err := en.Replace(en.Fn("G", en.Symbol("x")), RuleSet{rule})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "H(H(x))", got.String())
}
