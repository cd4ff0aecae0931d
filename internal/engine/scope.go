package engine

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/termfx/symx/internal/core"
	"github.com/termfx/symx/internal/domain"
)

// identRe is the identifier grammar: an optional capture prefix of one or
// two underscores, then a letter followed by letters and digits; or a bare
// underscore with an optional position index (anonymous parameters).
var identRe = regexp.MustCompile(`^(_{0,2}[A-Za-z][A-Za-z0-9]*|_[0-9]*)$`)

// ValidIdentifier reports whether name matches the identifier grammar.
func ValidIdentifier(name string) bool {
	return identRe.MatchString(name)
}

// Scope is a lexical frame: an identifier map, an assumptions map and the
// resource limits in force. Scopes form a singly-linked parent chain;
// lookup walks leaf to root, first match wins.
type Scope struct {
	parent      *Scope
	idents      map[string]*Definition
	assumptions map[string][]*Expr
	limits      core.Limits
}

func newScope(parent *Scope, limits core.Limits) *Scope {
	s := &Scope{
		parent:      parent,
		idents:      make(map[string]*Definition),
		assumptions: make(map[string][]*Expr),
		limits:      limits,
	}
	if parent != nil {
		// Assumptions are copied down; a child may add without mutating
		// the parent's view.
		for k, v := range parent.assumptions {
			s.assumptions[k] = append([]*Expr(nil), v...)
		}
	}
	return s
}

// Parent returns the enclosing scope, nil at the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Limits returns the resource limits in force in this scope.
func (s *Scope) Limits() core.Limits { return s.limits }

// SymbolDef binds a symbol name to a value and a domain.
type SymbolDef struct {
	Domain   domain.Domain
	Value    *Expr
	Constant bool
	// Inferred marks a domain deduced from first assignment; such a
	// definition may still be narrowed by a later declaration.
	Inferred bool
}

// Signature declares the operand and result domains of a function. An
// empty Variadic means fixed arity; otherwise operands beyond Params each
// check against Variadic.
type Signature struct {
	Params   []domain.Domain
	Variadic domain.Domain
	Result   domain.Domain
}

// Handler computes a pass-specific result for a function application; a
// nil return falls through to the generic path.
type Handler func(en *Engine, args []*Expr) *Expr

// SgnHandler infers the sign of a function application.
type SgnHandler func(en *Engine, args []*Expr) Sign

// FuncDef is a function definition: structural flags, a hold policy, a
// complexity weight for the cost function and the optional per-pass
// handlers.
type FuncDef struct {
	Name string
	Sig  Signature

	Pure        bool
	Associative bool
	Commutative bool
	Idempotent  bool
	Involution  bool
	Threadable  bool
	Inert       bool

	Hold       core.HoldPolicy
	Complexity int

	Canonical Handler
	Simplify  Handler
	Evaluate  Handler
	NumEval   Handler
	Sgn       SgnHandler
}

// Definition binds a name to a symbol or function definition; exactly one
// side is set.
type Definition struct {
	Symbol   *SymbolDef
	Function *FuncDef
}

// PushScope enters a child scope with the parent's limits and a copy of
// its assumptions, and returns it.
func (en *Engine) PushScope() *Scope {
	en.scope = newScope(en.scope, en.scope.limits)
	en.log.Debug("scope pushed", zap.String("engine", en.id))
	return en.scope
}

// PopScope returns to the parent scope. Popping the root fails.
func (en *Engine) PopScope() error {
	if en.scope.parent == nil {
		return core.ErrMissingScope
	}
	en.scope = en.scope.parent
	return nil
}

// CurrentScope returns the scope at the top of the stack.
func (en *Engine) CurrentScope() *Scope { return en.scope }

// inScope runs fn inside scope s, or inside a fresh child scope when s is
// nil, with guaranteed restoration on every exit path, including panics
// from handlers.
func (en *Engine) inScope(s *Scope, fn func() (*Expr, error)) (*Expr, error) {
	saved := en.scope
	if s != nil {
		en.scope = s
	} else {
		en.PushScope()
	}
	defer func() { en.scope = saved }()
	return fn()
}

// Declare binds name in the current scope. It fails with
// core.ErrInvalidIdentifier when name violates the identifier grammar and
// with core.ErrAlreadyDeclared when a non-inferred definition already
// exists in this scope.
func (en *Engine) Declare(name string, def Definition) error {
	if !ValidIdentifier(name) {
		return fmt.Errorf("declare %q: %w", name, core.ErrInvalidIdentifier)
	}
	if def.Symbol == nil && def.Function == nil {
		return fmt.Errorf("declare %q: empty definition", name)
	}
	if existing, ok := en.scope.idents[name]; ok {
		inferred := existing.Symbol != nil && existing.Symbol.Inferred
		if !inferred {
			return fmt.Errorf("declare %q: %w", name, core.ErrAlreadyDeclared)
		}
	}
	en.scope.idents[name] = &def
	return nil
}

// DeclareFunction is sugar for Declare with a function definition.
func (en *Engine) DeclareFunction(def *FuncDef) error {
	return en.Declare(def.Name, Definition{Function: def})
}

// DeclareSymbol is sugar for Declare with a symbol definition.
func (en *Engine) DeclareSymbol(name string, def *SymbolDef) error {
	return en.Declare(name, Definition{Symbol: def})
}

// Lookup resolves name through the scope chain, leaf to root.
func (en *Engine) Lookup(name string) *Definition {
	for s := en.scope; s != nil; s = s.parent {
		if d, ok := s.idents[name]; ok {
			return d
		}
	}
	return nil
}

// LookupFunction resolves a head name to its function definition.
func (en *Engine) LookupFunction(head string) *FuncDef {
	if d := en.Lookup(head); d != nil {
		return d.Function
	}
	return nil
}

// LookupSymbol resolves a symbol name to its symbol definition.
func (en *Engine) LookupSymbol(name string) *SymbolDef {
	if d := en.Lookup(name); d != nil {
		return d.Symbol
	}
	return nil
}

// Assume records a predicate about a symbol in the current scope.
// Predicates are function applications such as Greater(x, 0) or
// Element(n, Integers); Sgn consults Greater, Less and Equal against zero,
// and a symbol's Domain consults Element with a domain operand.
func (en *Engine) Assume(symbol string, pred *Expr) {
	en.scope.assumptions[symbol] = append(en.scope.assumptions[symbol], pred)
}

// Assumptions returns the predicates recorded for symbol, innermost scope
// view.
func (en *Engine) Assumptions(symbol string) []*Expr {
	return en.scope.assumptions[symbol]
}
