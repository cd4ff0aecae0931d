package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/symx/internal/domain"
	"github.com/termfx/symx/internal/engine"
)

func registered(t *testing.T) *engine.Engine {
	t.Helper()
	en := engine.NewEngine(engine.Config{})
	require.NoError(t, Register(en))
	return en
}

func TestRegisterDeclaresCoreHeads(t *testing.T) {
	en := registered(t)
	for _, head := range []string{"Add", "Multiply", "Power", "Sqrt", "Exp", "Ln", "List", "Hold", "Function"} {
		assert.NotNil(t, en.LookupFunction(head), head)
	}
	add := en.LookupFunction("Add")
	assert.True(t, add.Associative)
	assert.True(t, add.Commutative)
	assert.True(t, add.Threadable)
	assert.True(t, en.LookupFunction("Negate").Involution)
	assert.True(t, en.LookupFunction("Abs").Idempotent)
}

func TestRegisterDeclaresConstants(t *testing.T) {
	en := registered(t)
	pi := en.LookupSymbol("Pi")
	require.NotNil(t, pi)
	assert.True(t, pi.Constant)
	assert.Equal(t, domain.RealNumbers, pi.Domain)
	require.NotNil(t, en.LookupSymbol("ImaginaryUnit"))
}

func TestRegisterTwiceFails(t *testing.T) {
	en := registered(t)
	assert.Error(t, Register(en))
}

func TestSimplificationRulesInstalled(t *testing.T) {
	en := registered(t)
	assert.NotEmpty(t, en.SimplificationRules())
}

func TestLoadTable(t *testing.T) {
	en := registered(t)
	path := filepath.Join(t.TempDir(), "ids.yaml")
	doc := `
functions:
  - name: Mod
    hold: none
    complexity: 3
    params: [Numbers, Numbers]
    result: Numbers
  - name: Piecewise
    hold: all
    inert: false
symbols:
  - name: GoldenRatio
    value: 1.618033988749895
    domain: RealNumbers
    constant: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	require.NoError(t, LoadTable(en, path))

	mod := en.LookupFunction("Mod")
	require.NotNil(t, mod)
	assert.Equal(t, 3, mod.Complexity)
	assert.Len(t, mod.Sig.Params, 2)

	phi := en.LookupSymbol("GoldenRatio")
	require.NotNil(t, phi)
	assert.True(t, phi.Constant)
	assert.InDelta(t, 1.618, phi.Value.NumericValue().Float64(), 1e-3)
}

func TestLoadTableRejectsUnknownHold(t *testing.T) {
	en := registered(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("functions:\n  - name: Bad\n    hold: sometimes\n"), 0o644))
	assert.Error(t, LoadTable(en, path))
}

func TestLoadTableRejectsUnknownDomain(t *testing.T) {
	en := registered(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("functions:\n  - name: Bad\n    params: [Fancy]\n"), 0o644))
	assert.Error(t, LoadTable(en, path))
}
