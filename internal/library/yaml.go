package library

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/termfx/symx/internal/core"
	"github.com/termfx/symx/internal/domain"
	"github.com/termfx/symx/internal/engine"
)

// A definition table is a YAML document declaring auxiliary functions and
// symbols: flags, hold policy, complexity and signatures, but no
// handlers. It carries the engine's ids option: its entries are declared
// into the current scope alongside whatever is already there (the standard
// library unless the engine is built without it), and a name already
// declared in that scope is rejected.
//
//	functions:
//	  - name: Mod
//	    hold: none
//	    complexity: 3
//	    params: [Numbers, Numbers]
//	    result: Numbers
//	symbols:
//	  - name: GoldenRatio
//	    value: 1.618033988749895
//	    domain: RealNumbers
//	    constant: true
type definitionTable struct {
	Functions []functionEntry `yaml:"functions"`
	Symbols   []symbolEntry   `yaml:"symbols"`
}

type functionEntry struct {
	Name        string   `yaml:"name"`
	Hold        string   `yaml:"hold"`
	Associative bool     `yaml:"associative"`
	Commutative bool     `yaml:"commutative"`
	Idempotent  bool     `yaml:"idempotent"`
	Involution  bool     `yaml:"involution"`
	Threadable  bool     `yaml:"threadable"`
	Inert       bool     `yaml:"inert"`
	Impure      bool     `yaml:"impure"`
	Complexity  int      `yaml:"complexity"`
	Params      []string `yaml:"params"`
	Variadic    string   `yaml:"variadic"`
	Result      string   `yaml:"result"`
}

type symbolEntry struct {
	Name     string   `yaml:"name"`
	Value    *float64 `yaml:"value"`
	Domain   string   `yaml:"domain"`
	Constant bool     `yaml:"constant"`
}

// LoadTable reads a YAML definition table and declares its entries into
// the engine's current scope.
func LoadTable(en *engine.Engine, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("library: read table: %w", err)
	}
	var doc definitionTable
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("library: parse table: %w", err)
	}
	for _, fe := range doc.Functions {
		def, err := fe.toDef()
		if err != nil {
			return err
		}
		if err := en.DeclareFunction(def); err != nil {
			return fmt.Errorf("library: %w", err)
		}
	}
	for _, se := range doc.Symbols {
		def, err := se.toDef(en)
		if err != nil {
			return err
		}
		if err := en.DeclareSymbol(se.Name, def); err != nil {
			return fmt.Errorf("library: %w", err)
		}
	}
	return nil
}

func (fe functionEntry) toDef() (*engine.FuncDef, error) {
	hold := core.HoldPolicy(fe.Hold)
	if fe.Hold == "" {
		hold = core.HoldNone
	}
	switch hold {
	case core.HoldAll, core.HoldNone, core.HoldFirst, core.HoldRest, core.HoldLast, core.HoldMost:
	default:
		return nil, fmt.Errorf("library: function %q: unknown hold policy %q", fe.Name, fe.Hold)
	}
	sig := engine.Signature{}
	for _, p := range fe.Params {
		d, err := parseDomain(p)
		if err != nil {
			return nil, fmt.Errorf("library: function %q: %w", fe.Name, err)
		}
		sig.Params = append(sig.Params, d)
	}
	if fe.Variadic != "" {
		d, err := parseDomain(fe.Variadic)
		if err != nil {
			return nil, fmt.Errorf("library: function %q: %w", fe.Name, err)
		}
		sig.Variadic = d
	}
	if fe.Result != "" {
		d, err := parseDomain(fe.Result)
		if err != nil {
			return nil, fmt.Errorf("library: function %q: %w", fe.Name, err)
		}
		sig.Result = d
	}
	return &engine.FuncDef{
		Name:        fe.Name,
		Sig:         sig,
		Pure:        !fe.Impure,
		Associative: fe.Associative,
		Commutative: fe.Commutative,
		Idempotent:  fe.Idempotent,
		Involution:  fe.Involution,
		Threadable:  fe.Threadable,
		Inert:       fe.Inert,
		Hold:        hold,
		Complexity:  fe.Complexity,
	}, nil
}

func (se symbolEntry) toDef(en *engine.Engine) (*engine.SymbolDef, error) {
	def := &engine.SymbolDef{Constant: se.Constant}
	if se.Domain != "" {
		d, err := parseDomain(se.Domain)
		if err != nil {
			return nil, fmt.Errorf("library: symbol %q: %w", se.Name, err)
		}
		def.Domain = d
	}
	if se.Value != nil {
		def.Value = en.Float(*se.Value)
	}
	return def, nil
}

func parseDomain(s string) (domain.Domain, error) {
	d := domain.Domain(s)
	if !domain.Known(d) {
		return "", fmt.Errorf("unknown domain %q", s)
	}
	return d, nil
}
