package xlcalc

import (
	"fmt"
	"math"
)

// LookupFunc supplies the current value of a cell. It must not fail; unset
// cells read as 0.
type LookupFunc func(CellID) float64

// operator applies an operator to already evaluated operands.
type operator struct {
	minArgs, maxArgs int // maxArgs < 0 means unbounded
	apply            func(args []float64) float64
}

var operators = map[string]operator{
	"+": {1, -1, func(args []float64) float64 {
		sum := 0.0
		for _, v := range args {
			sum += v
		}
		return sum
	}},
	"*": {1, -1, func(args []float64) float64 {
		prod := 1.0
		for _, v := range args {
			prod *= v
		}
		return prod
	}},
	"-": {1, 2, func(args []float64) float64 {
		if len(args) == 1 {
			return -args[0]
		}
		return args[0] - args[1]
	}},
	"/":   {2, 2, func(args []float64) float64 { return args[0] / args[1] }},
	"min": {2, 2, func(args []float64) float64 { return math.Min(args[0], args[1]) }},
	"max": {2, 2, func(args []float64) float64 { return math.Max(args[0], args[1]) }},
}

// Evaluate computes the value of n for a formula stored at base. It knows
// nothing of dependencies; every reference is answered by lookup. Failures
// are *Error values of KindEval.
func Evaluate(n Node, base CellID, lookup LookupFunc) (float64, error) {
	v, err := eval(n, base, lookup)
	if err != nil {
		return 0, newError(KindEval, base, err)
	}
	return v, nil
}

func eval(n Node, base CellID, lookup LookupFunc) (float64, error) {
	switch n := n.(type) {
	case nil:
		return 0, nil
	case *NumberNode:
		return n.Value, nil
	case *RefNode:
		return lookup(n.Ref.Resolve(base)), nil
	case *AppNode:
		args := make([]float64, len(n.Args))
		for i, arg := range n.Args {
			v, err := eval(arg, base, lookup)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		op, ok := operators[n.Op]
		if !ok {
			return 0, fmt.Errorf("unknown operator %q", n.Op)
		}
		if len(args) < op.minArgs || (op.maxArgs >= 0 && len(args) > op.maxArgs) {
			return 0, fmt.Errorf("operator %q: wrong number of operands (%d)", n.Op, len(args))
		}
		v := op.apply(args)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("operator %q: non-finite result", n.Op)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("unknown node %T", n)
	}
}
