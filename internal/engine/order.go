package engine

import (
	"math"
	"sort"
	"strings"

	"github.com/termfx/symx/internal/core"
	"github.com/termfx/symx/internal/kernel"
)

// nonPolynomial is the degree assigned to non-polynomial dependence.
const nonPolynomial = math.MaxInt32

// degree returns the polynomial total degree of x in the given variables:
// 0 when none appears, nonPolynomial when the dependence is not
// polynomial.
func degree(x *Expr, vars map[string]bool) int {
	switch x.kind {
	case core.KindNumber, core.KindString, core.KindDomain, core.KindError:
		return 0
	case core.KindSymbol:
		if vars[x.name] {
			return 1
		}
		return 0
	case core.KindFunction:
		switch x.head {
		case "Negate":
			if len(x.ops) == 1 {
				return degree(x.ops[0], vars)
			}
		case "Add":
			max := 0
			for _, op := range x.ops {
				if d := degree(op, vars); d > max {
					max = d
				}
			}
			return max
		case "Multiply":
			sum := 0
			for _, op := range x.ops {
				d := degree(op, vars)
				if d == nonPolynomial {
					return nonPolynomial
				}
				sum += d
			}
			return sum
		case "Power":
			if len(x.ops) == 2 {
				base := degree(x.ops[0], vars)
				if base == 0 {
					return 0
				}
				if n, ok := x.ops[1].isIntegerLiteral(); ok && n >= 0 && base != nonPolynomial {
					return base * int(n)
				}
				return nonPolynomial
			}
		}
		for _, name := range sortedVars(vars) {
			if x.Has(name) {
				return nonPolynomial
			}
		}
		return 0
	}
	return 0
}

func sortedVars(vars map[string]bool) []string {
	out := make([]string, 0, len(vars))
	for v := range vars {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// classRank orders variants for the canonical order: numeric literals
// first, then named constants and symbols, then everything compound.
func classRank(x *Expr) int {
	switch x.kind {
	case core.KindNumber:
		return 0
	case core.KindSymbol:
		return 1
	case core.KindString:
		return 2
	case core.KindDomain:
		return 3
	case core.KindTensor:
		return 4
	case core.KindFunction:
		return 5
	case core.KindError:
		return 6
	}
	return 7
}

// CompareTo imposes the canonical total order of commutative operand
// sorting: class rank, then value/name/recursive comparison, ties broken
// by hash. The order is total, deterministic and acyclic.
func (x *Expr) CompareTo(y *Expr) int {
	if x == y {
		return 0
	}
	if ra, rb := classRank(x), classRank(y); ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x.kind {
	case core.KindNumber:
		if c := kernel.Cmp(*x.num, *y.num); c != 0 {
			return c
		}
	case core.KindSymbol:
		if c := strings.Compare(x.name, y.name); c != 0 {
			return c
		}
	case core.KindString:
		if c := strings.Compare(x.str, y.str); c != 0 {
			return c
		}
	case core.KindDomain:
		if c := strings.Compare(string(x.dom), string(y.dom)); c != 0 {
			return c
		}
	case core.KindTensor:
		if c := strings.Compare(x.String(), y.String()); c != 0 {
			return c
		}
	case core.KindFunction:
		if c := strings.Compare(x.Head(), y.Head()); c != 0 {
			return c
		}
		for i := 0; i < len(x.ops) && i < len(y.ops); i++ {
			if c := x.ops[i].CompareTo(y.ops[i]); c != 0 {
				return c
			}
		}
		if len(x.ops) != len(y.ops) {
			if len(x.ops) < len(y.ops) {
				return -1
			}
			return 1
		}
	case core.KindError:
		if c := strings.Compare(string(x.errCode), string(y.errCode)); c != 0 {
			return c
		}
	}
	if hx, hy := x.Hash(), y.Hash(); hx != hy {
		if hx < hy {
			return -1
		}
		return 1
	}
	return 0
}

// sortCommutative orders the operand slice in place for a commutative
// head. In multiplicative contexts degree over the union of free
// variables is the primary key, so constants precede variable factors and
// lower powers precede higher ones.
func sortCommutative(head string, ops []*Expr) {
	var vars map[string]bool
	if head == "Multiply" {
		vars = make(map[string]bool)
		for _, op := range ops {
			for _, v := range op.FreeVariables() {
				vars[v] = true
			}
		}
	}
	sort.SliceStable(ops, func(i, j int) bool {
		if vars != nil {
			di, dj := degree(ops[i], vars), degree(ops[j], vars)
			if di != dj {
				return di < dj
			}
		}
		return ops[i].CompareTo(ops[j]) < 0
	})
}
