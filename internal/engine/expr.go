package engine

import (
	"strconv"
	"strings"

	"github.com/termfx/symx/internal/core"
	"github.com/termfx/symx/internal/domain"
	"github.com/termfx/symx/internal/kernel"
)

// Expr is an immutable expression node. Nodes are created by the engine's
// builders and never mutated; canonicalisation, simplification, evaluation
// and numeric approximation return new nodes on the same engine. The
// expression graph is a DAG: sub-expressions may be shared, no child
// points back at an ancestor.
type Expr struct {
	eng  *Engine
	kind core.Kind

	// Function payload. head is the resolved symbol name; compoundHead is
	// set instead when the head is itself an expression that did not
	// resolve to a symbol.
	head         string
	compoundHead *Expr
	ops          []*Expr

	// Leaf payloads.
	name   string
	num    *kernel.Number
	str    string
	dom    domain.Domain
	tensor *Tensor

	// Error payload.
	errCode  core.ErrorCode
	errMsg   string
	errWhere *Expr

	// The lexical scope the node was created under; evaluate switches to
	// it for the duration of the call.
	scope *Scope

	// Derived state. canonical memoises the canonical representative;
	// epoch ties memos to the engine configuration they were computed
	// under. listView memoises a tensor's List-of-List view.
	isCanonical bool
	canonical   *Expr
	epoch       string
	hash        uint64
	hashed      bool
	listView    *Expr
}

// Engine returns the owning engine.
func (x *Expr) Engine() *Engine { return x.eng }

// Kind returns the variant tag.
func (x *Expr) Kind() core.Kind { return x.kind }

// Head returns the head name: the resolved symbol name for function
// nodes, the synthesised kind name for literals, "" for a function whose
// head is an unresolved compound expression.
func (x *Expr) Head() string {
	if x.kind == core.KindFunction {
		return x.head
	}
	return x.kind.String()
}

// HeadExpr returns the compound head expression, nil when the head is a
// plain symbol name.
func (x *Expr) HeadExpr() *Expr { return x.compoundHead }

// SymbolName returns the identifier of a symbol node, "" otherwise.
func (x *Expr) SymbolName() string {
	if x.kind == core.KindSymbol {
		return x.name
	}
	return ""
}

// Ops returns the operand sequence; empty for leaves. The slice is owned
// by the node and must not be mutated.
func (x *Expr) Ops() []*Expr { return x.ops }

// Nops returns the operand count.
func (x *Expr) Nops() int { return len(x.ops) }

// Op returns operand i, nil out of range.
func (x *Expr) Op(i int) *Expr {
	if i < 0 || i >= len(x.ops) {
		return nil
	}
	return x.ops[i]
}

// NumericValue returns the kernel number of a numeric leaf, nil otherwise.
func (x *Expr) NumericValue() *kernel.Number {
	if x.kind == core.KindNumber {
		return x.num
	}
	return nil
}

// StringValue returns the text of a string literal.
func (x *Expr) StringValue() string { return x.str }

// DomainValue returns the payload of a domain node, "" otherwise.
func (x *Expr) DomainValue() domain.Domain {
	if x.kind == core.KindDomain {
		return x.dom
	}
	return ""
}

// TensorValue returns the tensor payload, nil otherwise.
func (x *Expr) TensorValue() *Tensor {
	if x.kind == core.KindTensor {
		return x.tensor
	}
	return nil
}

// ErrorCode returns the code of an error node, "" otherwise.
func (x *Expr) ErrorCode() core.ErrorCode { return x.errCode }

// ErrorMessage returns the message of an error node.
func (x *Expr) ErrorMessage() string { return x.errMsg }

// ErrorWhere returns the source expression an error node wraps, if any.
func (x *Expr) ErrorWhere() *Expr { return x.errWhere }

// IsCanonical reports whether the node is the normalised representative
// of its equivalence class.
func (x *Expr) IsCanonical() bool { return x.isCanonical }

// IsValid reports the conjunction over the tree: no Error node anywhere.
func (x *Expr) IsValid() bool {
	if x.kind == core.KindError {
		return false
	}
	if x.compoundHead != nil && !x.compoundHead.IsValid() {
		return false
	}
	for _, op := range x.ops {
		if !op.IsValid() {
			return false
		}
	}
	if x.kind == core.KindTensor {
		for _, el := range x.tensor.Data {
			if !el.IsValid() {
				return false
			}
		}
	}
	return true
}

// IsPure reports whether the node and all children are free of observable
// side effects. Only pure canonical nodes may be cached.
func (x *Expr) IsPure() bool {
	switch x.kind {
	case core.KindError:
		return false
	case core.KindFunction:
		if def := x.eng.LookupFunction(x.head); def != nil && !def.Pure {
			return false
		}
		for _, op := range x.ops {
			if !op.IsPure() {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// IsNumberLiteral reports a numeric leaf.
func (x *Expr) IsNumberLiteral() bool { return x.kind == core.KindNumber }

// isIntegerLiteral reports an exact integer leaf and its value.
func (x *Expr) isIntegerLiteral() (int64, bool) {
	if x.kind == core.KindNumber && x.num.IsInteger() {
		return x.num.Int64(), true
	}
	return 0, false
}

// Domain returns the narrowest domain known to contain the node's value.
// For a symbol, an Element(symbol, D) assumption in scope takes precedence
// over the declared domain.
func (x *Expr) Domain() domain.Domain {
	switch x.kind {
	case core.KindNumber:
		return numberDomain(*x.num)
	case core.KindString:
		return domain.Strings
	case core.KindDomain:
		return domain.Domains
	case core.KindError:
		return domain.Void
	case core.KindSymbol:
		for _, pred := range x.eng.Assumptions(x.name) {
			if pred.kind == core.KindFunction && pred.head == "Element" && len(pred.ops) == 2 &&
				pred.ops[0].kind == core.KindSymbol && pred.ops[0].name == x.name &&
				pred.ops[1].kind == core.KindDomain {
				return pred.ops[1].dom
			}
		}
		if def := x.eng.LookupSymbol(x.name); def != nil && def.Domain != "" {
			return def.Domain
		}
		return domain.Anything
	case core.KindTensor:
		return domain.Values
	case core.KindFunction:
		if def := x.eng.LookupFunction(x.head); def != nil && def.Sig.Result != "" {
			return def.Sig.Result
		}
		return domain.Anything
	}
	return domain.Anything
}

func numberDomain(n kernel.Number) domain.Domain {
	switch {
	case n.IsComplexForm():
		if n.Re() == 0 {
			return domain.ImaginaryNumbers
		}
		return domain.ComplexNumbers
	case n.IsInteger():
		if n.Sign() > 0 {
			return domain.PositiveIntegers
		}
		return domain.Integers
	case n.IsRational():
		return domain.RationalNumbers
	case n.IsInf():
		return domain.ExtendedRealNumbers
	default:
		return domain.RealNumbers
	}
}

// IsSame reports structural equality: same variant, same payload, same
// operands in the same order. It is the identity the caches, the matcher
// and the hash law are defined against.
func (x *Expr) IsSame(y *Expr) bool {
	if x == y {
		return true
	}
	if x == nil || y == nil {
		return false
	}
	// A tensor and its List-of-List view are the same expression.
	if x.kind != y.kind {
		if x.kind == core.KindTensor && y.kind == core.KindFunction {
			return x.AsList().IsSame(y)
		}
		if y.kind == core.KindTensor && x.kind == core.KindFunction {
			return x.IsSame(y.AsList())
		}
		return false
	}
	if x.hashed && y.hashed && x.hash != y.hash {
		return false
	}
	switch x.kind {
	case core.KindNumber:
		return x.num.Form() == y.num.Form() && kernel.Cmp(*x.num, *y.num) == 0 && x.num.Im() == y.num.Im()
	case core.KindSymbol:
		return x.name == y.name
	case core.KindString:
		return x.str == y.str
	case core.KindDomain:
		return x.dom == y.dom
	case core.KindError:
		return x.errCode == y.errCode && x.errMsg == y.errMsg
	case core.KindTensor:
		return x.tensor.sameAs(y.tensor)
	case core.KindFunction:
		if x.head != y.head || len(x.ops) != len(y.ops) {
			return false
		}
		if (x.compoundHead == nil) != (y.compoundHead == nil) {
			return false
		}
		if x.compoundHead != nil && !x.compoundHead.IsSame(y.compoundHead) {
			return false
		}
		for i := range x.ops {
			if !x.ops[i].IsSame(y.ops[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Has reports whether a symbol with the given name occurs anywhere in the
// tree, head positions included.
func (x *Expr) Has(name string) bool {
	switch x.kind {
	case core.KindSymbol:
		return x.name == name
	case core.KindFunction:
		if x.head == name {
			return true
		}
		if x.compoundHead != nil && x.compoundHead.Has(name) {
			return true
		}
		for _, op := range x.ops {
			if op.Has(name) {
				return true
			}
		}
	case core.KindTensor:
		for _, el := range x.tensor.Data {
			if el.Has(name) {
				return true
			}
		}
	}
	return false
}

// FreeVariables returns the unbound symbol names in first-occurrence
// order: symbols with no declared constant or value.
func (x *Expr) FreeVariables() []string {
	var out []string
	seen := make(map[string]bool)
	x.walkSymbols(func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		if def := x.eng.LookupSymbol(name); def != nil && (def.Constant || def.Value != nil) {
			return
		}
		out = append(out, name)
	})
	return out
}

func (x *Expr) walkSymbols(fn func(string)) {
	switch x.kind {
	case core.KindSymbol:
		fn(x.name)
	case core.KindFunction:
		if x.compoundHead != nil {
			x.compoundHead.walkSymbols(fn)
		}
		for _, op := range x.ops {
			op.walkSymbols(fn)
		}
	case core.KindTensor:
		for _, el := range x.tensor.Data {
			el.walkSymbols(fn)
		}
	}
}

// String renders a stable serialisation used for ordering, tracing and
// test diagnostics.
func (x *Expr) String() string {
	var b strings.Builder
	x.writeTo(&b)
	return b.String()
}

func (x *Expr) writeTo(b *strings.Builder) {
	switch x.kind {
	case core.KindNumber:
		b.WriteString(x.num.String())
	case core.KindSymbol:
		b.WriteString(x.name)
	case core.KindString:
		b.WriteString(strconv.Quote(x.str))
	case core.KindDomain:
		b.WriteString(string(x.dom))
	case core.KindError:
		b.WriteString("Error(")
		b.WriteString(string(x.errCode))
		if x.errMsg != "" {
			b.WriteString(", ")
			b.WriteString(strconv.Quote(x.errMsg))
		}
		b.WriteByte(')')
	case core.KindTensor:
		x.tensor.view(x.eng).writeTo(b)
	case core.KindFunction:
		if x.compoundHead != nil {
			x.compoundHead.writeTo(b)
		} else {
			b.WriteString(x.head)
		}
		b.WriteByte('(')
		for i, op := range x.ops {
			if i > 0 {
				b.WriteString(", ")
			}
			op.writeTo(b)
		}
		b.WriteByte(')')
	}
}
