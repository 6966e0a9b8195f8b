package xlcalc

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// ParseFunc turns formula text defined in base into a tree. It returns a nil
// Node and nil error for blank text, which means "unset".
type ParseFunc func(text string, base CellID) (Node, error)

// Parse is the default ParseFunc. Formulas may start with "=". They are
// tokenized and parsed by expr-lang's parser, whose identifiers admit "$", so
// "$B$1" arrives as a single identifier and is then read as a cell reference.
func Parse(text string, base CellID) (Node, error) {
	src := strings.TrimSpace(text)
	src = strings.TrimSpace(strings.TrimPrefix(src, "="))
	if src == "" {
		return nil, nil
	}
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", text, err)
	}
	n, err := convert(tree.Node, base)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", text, err)
	}
	return n, nil
}

func convert(n ast.Node, base CellID) (Node, error) {
	switch n := n.(type) {
	case *ast.IntegerNode:
		return &NumberNode{Value: float64(n.Value)}, nil
	case *ast.FloatNode:
		return &NumberNode{Value: n.Value}, nil
	case *ast.IdentifierNode:
		ref, err := ParseCellRef(n.Value, base)
		if err != nil {
			return nil, fmt.Errorf("unknown name %q", n.Value)
		}
		return &RefNode{Ref: ref}, nil
	case *ast.UnaryNode:
		operand, err := convert(n.Node, base)
		if err != nil {
			return nil, err
		}
		switch n.Operator {
		case "+":
			return operand, nil
		case "-":
			return &AppNode{Op: "-", Args: []Node{operand}}, nil
		}
		return nil, fmt.Errorf("unsupported operator %q", n.Operator)
	case *ast.BinaryNode:
		if _, ok := precedence[n.Operator]; !ok {
			return nil, fmt.Errorf("unsupported operator %q", n.Operator)
		}
		left, err := convert(n.Left, base)
		if err != nil {
			return nil, err
		}
		right, err := convert(n.Right, base)
		if err != nil {
			return nil, err
		}
		return &AppNode{Op: n.Operator, Args: []Node{left, right}}, nil
	case *ast.BuiltinNode:
		return convertCall(n.Name, n.Arguments, base)
	case *ast.CallNode:
		ident, ok := n.Callee.(*ast.IdentifierNode)
		if !ok {
			return nil, fmt.Errorf("unsupported call")
		}
		return convertCall(ident.Value, n.Arguments, base)
	case nil:
		return nil, fmt.Errorf("empty expression")
	default:
		return nil, fmt.Errorf("unsupported expression %q", n.String())
	}
}

func convertCall(name string, arguments []ast.Node, base CellID) (Node, error) {
	args := make([]Node, len(arguments))
	for i, a := range arguments {
		arg, err := convert(a, base)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return &AppNode{Op: strings.ToLower(name), Args: args}, nil
}
