package mathfun

import (
	"github.com/panzi/mathfun-sub000/pkg/ast"
	"github.com/panzi/mathfun-sub000/pkg/mferrors"
	"github.com/panzi/mathfun-sub000/pkg/mfmath"
	"github.com/panzi/mathfun-sub000/pkg/value"
)

// evalTree walks e directly against argVals, with no optimizer and no
// bytecode involved. It shares pkg/mfmath's arithmetic kernels with
// pkg/interp and pkg/optimizer, so a well-typed expression evaluates to
// the same result whichever of the three paths runs it.
func evalTree(e ast.Expr, argVals []float64) (value.Value, error) {
	switch n := e.(type) {
	case *ast.ConstExpr:
		return n.Val, nil

	case *ast.ArgExpr:
		return value.Num(argVals[n.Index]), nil

	case *ast.UnaryExpr:
		x, err := evalTree(n.X, argVals)
		if err != nil {
			return value.Value{}, err
		}
		if n.Op == ast.OpNot {
			return value.Bool(!x.BooleanValue()), nil
		}
		f := x.NumberValue()
		return value.Num(mfmath.CheckDomainRange(-f, f)), nil

	case *ast.BinaryExpr:
		return evalBinary(n, argVals)

	case *ast.InExpr:
		return evalIn(n, argVals)

	case *ast.IifExpr:
		cond, err := evalTree(n.Cond, argVals)
		if err != nil {
			return value.Value{}, err
		}
		if cond.BooleanValue() {
			return evalTree(n.Then, argVals)
		}
		return evalTree(n.Else, argVals)

	case *ast.CallExpr:
		args := make([]value.Value, len(n.Args))
		for i, a := range n.Args {
			v, err := evalTree(a, argVals)
			if err != nil {
				return value.Value{}, err
			}
			args[i] = v
		}
		return n.Callback(args), nil

	default:
		return value.Value{}, mferrors.New(mferrors.InternalError, "eval: unhandled node %T", e)
	}
}

func evalBinary(n *ast.BinaryExpr, argVals []float64) (value.Value, error) {
	if n.Op == ast.OpAnd || n.Op == ast.OpOr {
		l, err := evalTree(n.L, argVals)
		if err != nil {
			return value.Value{}, err
		}
		lb := l.BooleanValue()
		if n.Op == ast.OpAnd && !lb {
			return value.Bool(false), nil
		}
		if n.Op == ast.OpOr && lb {
			return value.Bool(true), nil
		}
		r, err := evalTree(n.R, argVals)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(r.BooleanValue()), nil
	}

	l, err := evalTree(n.L, argVals)
	if err != nil {
		return value.Value{}, err
	}
	r, err := evalTree(n.R, argVals)
	if err != nil {
		return value.Value{}, err
	}

	switch n.Op {
	case ast.OpAdd:
		return value.Num(mfmath.Add(l.NumberValue(), r.NumberValue())), nil
	case ast.OpSub:
		return value.Num(mfmath.Sub(l.NumberValue(), r.NumberValue())), nil
	case ast.OpMul:
		return value.Num(mfmath.Mul(l.NumberValue(), r.NumberValue())), nil
	case ast.OpDiv:
		return value.Num(mfmath.Div(l.NumberValue(), r.NumberValue())), nil
	case ast.OpMod:
		return value.Num(mfmath.Mod(l.NumberValue(), r.NumberValue())), nil
	case ast.OpPow:
		return value.Num(mfmath.Pow(l.NumberValue(), r.NumberValue())), nil
	case ast.OpEq:
		return value.Bool(l.NumberValue() == r.NumberValue()), nil
	case ast.OpNe:
		return value.Bool(l.NumberValue() != r.NumberValue()), nil
	case ast.OpLt:
		return value.Bool(l.NumberValue() < r.NumberValue()), nil
	case ast.OpGt:
		return value.Bool(l.NumberValue() > r.NumberValue()), nil
	case ast.OpLe:
		return value.Bool(l.NumberValue() <= r.NumberValue()), nil
	case ast.OpGe:
		return value.Bool(l.NumberValue() >= r.NumberValue()), nil
	case ast.OpBEq:
		return value.Bool(l.BooleanValue() == r.BooleanValue()), nil
	case ast.OpBNe:
		return value.Bool(l.BooleanValue() != r.BooleanValue()), nil
	default:
		return value.Value{}, mferrors.New(mferrors.InternalError, "eval: unhandled binary op %v", n.Op)
	}
}

func evalIn(n *ast.InExpr, argVals []float64) (value.Value, error) {
	val, err := evalTree(n.Val, argVals)
	if err != nil {
		return value.Value{}, err
	}
	lo, err := evalTree(n.Range.Lo, argVals)
	if err != nil {
		return value.Value{}, err
	}
	hi, err := evalTree(n.Range.Hi, argVals)
	if err != nil {
		return value.Value{}, err
	}
	v, l, h := val.NumberValue(), lo.NumberValue(), hi.NumberValue()
	if n.Range.Inclusive {
		return value.Bool(v >= l && v <= h), nil
	}
	return value.Bool(v >= l && v < h), nil
}
