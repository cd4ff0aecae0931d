package engine

import (
	"strings"

	"github.com/termfx/symx/internal/core"
	"github.com/termfx/symx/internal/kernel"
)

// Substitution is an insertion-ordered map from capture names to boxed
// subjects, produced by matching and consumed to instantiate replacement
// patterns.
type Substitution struct {
	names  []string
	values map[string]*Expr
}

// NewSubstitution returns an empty substitution.
func NewSubstitution() *Substitution {
	return &Substitution{values: make(map[string]*Expr)}
}

// Get returns the binding for name.
func (s *Substitution) Get(name string) (*Expr, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Set binds name, preserving first-insertion order.
func (s *Substitution) Set(name string, v *Expr) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = v
}

// Names returns the capture names in insertion order.
func (s *Substitution) Names() []string { return s.names }

// Len returns the binding count.
func (s *Substitution) Len() int { return len(s.names) }

// Clone copies the substitution.
func (s *Substitution) Clone() *Substitution {
	c := NewSubstitution()
	for _, n := range s.names {
		c.Set(n, s.values[n])
	}
	return c
}

// MatchOptions tunes a structural match.
type MatchOptions struct {
	// Tolerance for numeric literal comparison; the engine tolerance
	// when zero.
	Tolerance float64
	// Literal lists underscore-prefixed names matched as plain symbols
	// instead of captures (the solver's reserved placeholder).
	Literal map[string]bool
	// Bindings seeds the substitution; occurrences of already-bound
	// captures must match their binding.
	Bindings *Substitution
	// AC enables multiset matching of operands under commutative heads.
	// The default matcher is purely positional; the solver's rule
	// patterns opt in because a capture and the concrete operand it
	// stands for need not sort to the same position.
	AC bool
}

// captureName returns the capture key of a pattern symbol: "_a" and
// "__a" both capture under "a"; a bare "_" is an anonymous wildcard
// ("" key). Non-capture names return ok=false.
func captureName(name string, literal map[string]bool) (string, bool) {
	if !strings.HasPrefix(name, "_") || literal[name] {
		return "", false
	}
	return strings.TrimLeft(name, "_"), true
}

// Match matches a pattern with capture variables against x. Matching is
// structural, not mathematical: 1+x does not match x+1 unless the subject
// has been canonicalised first. On success the substitution maps capture
// names to subjects; on failure the second result is false.
func (x *Expr) Match(pattern *Expr, opts MatchOptions) (*Substitution, bool) {
	if opts.Tolerance == 0 {
		opts.Tolerance = x.eng.tolerance
	}
	sub := opts.Bindings
	if sub == nil {
		sub = NewSubstitution()
	} else {
		sub = sub.Clone()
	}
	if !matchInto(pattern, x, opts, sub) {
		return nil, false
	}
	return sub, true
}

func matchInto(pattern, subject *Expr, opts MatchOptions, sub *Substitution) bool {
	// Matching against an invalid subject always fails.
	if subject.kind == core.KindError {
		return false
	}
	if pattern.kind == core.KindSymbol {
		if name, ok := captureName(pattern.name, opts.Literal); ok {
			if name == "" {
				return true
			}
			if prev, bound := sub.Get(name); bound {
				return prev.IsSame(subject)
			}
			sub.Set(name, subject)
			return true
		}
		return subject.kind == core.KindSymbol && subject.name == pattern.name
	}
	if pattern.kind != subject.kind {
		return false
	}
	switch pattern.kind {
	case core.KindNumber:
		return kernel.EqualWithin(*pattern.num, *subject.num, opts.Tolerance)
	case core.KindString:
		return pattern.str == subject.str
	case core.KindDomain:
		return pattern.dom == subject.dom
	case core.KindTensor:
		return pattern.tensor.sameAs(subject.tensor)
	case core.KindFunction:
		if len(pattern.ops) != len(subject.ops) {
			return false
		}
		// A capture in head position matches any head and binds it as a
		// symbol.
		if name, ok := captureName(pattern.head, opts.Literal); ok && name != "" {
			headSym := subject.eng.Symbol(subject.head)
			if prev, bound := sub.Get(name); bound {
				if !prev.IsSame(headSym) {
					return false
				}
			} else {
				sub.Set(name, headSym)
			}
		} else if pattern.head != subject.head {
			return false
		}
		if opts.AC && isCommutativeHead(subject.eng, subject.head) {
			return matchMultiset(pattern.ops, subject.ops, opts, sub)
		}
		for i := range pattern.ops {
			if !matchInto(pattern.ops[i], subject.ops[i], opts, sub) {
				return false
			}
		}
		return true
	}
	return false
}

func isCommutativeHead(en *Engine, head string) bool {
	if head == "Add" || head == "Multiply" {
		return true
	}
	def := en.LookupFunction(head)
	return def != nil && def.Commutative
}

// matchMultiset assigns pattern operands to distinct subject operands in
// any order, backtracking through a cloned substitution per trial.
// Operand counts are small; the search is bounded.
func matchMultiset(pops, sops []*Expr, opts MatchOptions, sub *Substitution) bool {
	if len(pops) == 0 {
		return true
	}
	used := make([]bool, len(sops))
	var try func(i int, cur *Substitution) *Substitution
	try = func(i int, cur *Substitution) *Substitution {
		if i == len(pops) {
			return cur
		}
		for j := range sops {
			if used[j] {
				continue
			}
			trial := cur.Clone()
			if matchInto(pops[i], sops[j], opts, trial) {
				used[j] = true
				if res := try(i+1, trial); res != nil {
					return res
				}
				used[j] = false
			}
		}
		return nil
	}
	res := try(0, sub.Clone())
	if res == nil {
		return false
	}
	for _, n := range res.Names() {
		v, _ := res.Get(n)
		sub.Set(n, v)
	}
	return true
}

// Instantiate substitutes bound captures into a replacement pattern.
// Unbound captures stay as-is; the caller canonicalises the result.
func (en *Engine) Instantiate(pattern *Expr, sub *Substitution) *Expr {
	switch pattern.kind {
	case core.KindSymbol:
		if name, ok := captureName(pattern.name, nil); ok && name != "" {
			if v, bound := sub.Get(name); bound {
				return v
			}
		}
		return pattern
	case core.KindFunction:
		head := pattern.head
		if name, ok := captureName(head, nil); ok && name != "" {
			if v, bound := sub.Get(name); bound && v.kind == core.KindSymbol {
				head = v.name
			}
		}
		ops := make([]*Expr, len(pattern.ops))
		for i, op := range pattern.ops {
			ops[i] = en.Instantiate(op, sub)
		}
		return en.Fn(head, ops...)
	default:
		return pattern
	}
}
