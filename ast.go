package xlcalc

import (
	"strconv"
	"strings"
)

// Node is a parsed formula. Nodes are immutable once built.
type Node interface {
	node()
}

// NumberNode is a numeric literal.
type NumberNode struct {
	Value float64
}

// RefNode is a reference to another cell.
type RefNode struct {
	Ref CellRef
}

// AppNode applies an operator or function to its operands.
type AppNode struct {
	Op   string
	Args []Node
}

func (*NumberNode) node() {}
func (*RefNode) node()    {}
func (*AppNode) node()    {}

// Refs returns every reference in n, in source order.
func Refs(n Node) []CellRef {
	var refs []CellRef
	walk(n, func(r *RefNode) { refs = append(refs, r.Ref) })
	return refs
}

func walk(n Node, fn func(*RefNode)) {
	switch n := n.(type) {
	case *RefNode:
		fn(n)
	case *AppNode:
		for _, arg := range n.Args {
			walk(arg, fn)
		}
	}
}

// RebaseNode returns a copy of n with every reference relocated from oldBase
// to newBase. n itself is left untouched.
func RebaseNode(n Node, oldBase, newBase CellID) Node {
	switch n := n.(type) {
	case *RefNode:
		return &RefNode{Ref: n.Ref.Rebase(oldBase, newBase)}
	case *AppNode:
		args := make([]Node, len(n.Args))
		for i, arg := range n.Args {
			args[i] = RebaseNode(arg, oldBase, newBase)
		}
		return &AppNode{Op: n.Op, Args: args}
	default:
		return n
	}
}

// precedence of infix operators when formatting.
var precedence = map[string]int{
	"+": 1,
	"-": 1,
	"*": 2,
	"/": 2,
}

// Format renders n back to formula text for a formula stored at base.
// The output parses back to an equivalent tree.
func Format(n Node, base CellID) string {
	var b strings.Builder
	format(&b, n, base, 0)
	return b.String()
}

func format(b *strings.Builder, n Node, base CellID, parentPrec int) {
	switch n := n.(type) {
	case *NumberNode:
		s := strconv.FormatFloat(n.Value, 'g', -1, 64)
		if n.Value < 0 {
			s = "(" + s + ")"
		}
		b.WriteString(s)
	case *RefNode:
		b.WriteString(n.Ref.Format(base))
	case *AppNode:
		prec, infix := precedence[n.Op]
		switch {
		case infix && len(n.Args) == 1 && n.Op == "-":
			b.WriteString("-")
			format(b, n.Args[0], base, 3)
		case infix && len(n.Args) >= 2:
			if prec <= parentPrec {
				b.WriteByte('(')
			}
			for i, arg := range n.Args {
				if i > 0 {
					b.WriteString(" " + n.Op + " ")
				}
				// left-associative: the left operand binds at the same level
				argPrec := prec
				if i == 0 {
					argPrec = prec - 1
				}
				format(b, arg, base, argPrec)
			}
			if prec <= parentPrec {
				b.WriteByte(')')
			}
		default:
			b.WriteString(n.Op)
			b.WriteByte('(')
			for i, arg := range n.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				format(b, arg, base, 0)
			}
			b.WriteByte(')')
		}
	}
}
