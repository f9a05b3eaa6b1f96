// Package optimizer implements mathfun's single-pass constant-folding
// and algebraic-simplification rewrite, spec.md §4.3. It is a pure
// ast.Expr -> ast.Expr transform with no dependency on parser, context,
// or bytecode — grounded on the original mathfun C library's
// optimize.c, with one deliberate fix: optimize.c's in-with-constant-
// bounds fold compares the range's lower endpoint twice instead of
// comparing upper once (a copy-paste bug); this package implements the
// corrected semantics instead (spec.md §9).
package optimizer

import (
	"github.com/panzi/mathfun-sub000/pkg/ast"
	"github.com/panzi/mathfun-sub000/pkg/mferno"
	"github.com/panzi/mathfun-sub000/pkg/mferrors"
	"github.com/panzi/mathfun-sub000/pkg/mfmath"
	"github.com/panzi/mathfun-sub000/pkg/value"
)

// Optimize runs the rewrite to completion on e and returns the
// simplified tree, or a *mferrors.Error if constant folding triggers a
// math error (spec.md: "if the host sets ERANGE/EDOM, the whole compile
// fails with math_error").
func Optimize(e ast.Expr) (ast.Expr, error) {
	mferno.Clear()
	out, err := fold(e)
	if err != nil {
		return nil, err
	}
	if status := mferno.Get(); status != mferno.OK {
		mferno.Clear()
		return nil, mferrors.NewAt(mferrors.MathError, e.Pos(), "constant expression triggered a math error (errno %d)", status)
	}
	return out, nil
}

func fold(e ast.Expr) (ast.Expr, error) {
	switch n := e.(type) {
	case *ast.ConstExpr, *ast.ArgExpr:
		return n, nil
	case *ast.UnaryExpr:
		return foldUnary(n)
	case *ast.BinaryExpr:
		return foldBinary(n)
	case *ast.RangeExpr:
		lo, err := fold(n.Lo)
		if err != nil {
			return nil, err
		}
		hi, err := fold(n.Hi)
		if err != nil {
			return nil, err
		}
		if lo == n.Lo && hi == n.Hi {
			return n, nil
		}
		return ast.NewRange(lo, hi, n.Inclusive, n.Pos()), nil
	case *ast.InExpr:
		return foldIn(n)
	case *ast.IifExpr:
		return foldIif(n)
	case *ast.CallExpr:
		return foldCall(n)
	default:
		return nil, mferrors.NewAt(mferrors.InternalError, e.Pos(), "optimizer: unhandled node type %T", e)
	}
}

func asConst(e ast.Expr) (*ast.ConstExpr, bool) {
	c, ok := e.(*ast.ConstExpr)
	return c, ok
}

func boolConst(e ast.Expr) (bool, bool) {
	if c, ok := asConst(e); ok && c.Val.IsBoolean() {
		return c.Val.BooleanValue(), true
	}
	return false, false
}

func numConst(e ast.Expr) (float64, bool) {
	if c, ok := asConst(e); ok && c.Val.IsNumber() {
		return c.Val.NumberValue(), true
	}
	return 0, false
}

func numLit(f float64, pos mferrors.Position) ast.Expr { return ast.NewConst(value.Num(f), pos) }
func boolLit(b bool, pos mferrors.Position) ast.Expr    { return ast.NewConst(value.Bool(b), pos) }

// ---- Unary ----

func foldUnary(n *ast.UnaryExpr) (ast.Expr, error) {
	x, err := fold(n.X)
	if err != nil {
		return nil, err
	}

	// Double negation: -(-x) = x, !(!x) = x.
	if inner, ok := x.(*ast.UnaryExpr); ok && inner.Op == n.Op {
		return inner.X, nil
	}

	switch n.Op {
	case ast.OpNeg:
		if f, ok := numConst(x); ok {
			return numLit(mfmath.CheckDomainRange(-f, f), n.Pos()), nil
		}
	case ast.OpNot:
		if b, ok := boolConst(x); ok {
			return boolLit(!b, n.Pos()), nil
		}
		if negated, ok := negateComparison(x); ok {
			return negated, nil
		}
	}
	if x == n.X {
		return n, nil
	}
	return ast.NewUnary(n.Op, x, n.Pos()), nil
}

// negateComparison implements spec.md §4.3's negation-of-comparisons
// rule: !(a==b) -> a!=b, !(a!=b) -> a==b, and the same for the boolean
// comparisons. It deliberately does not touch <, >, <=, >=, or in,
// because NaN breaks their complementary relationship with their
// "opposite" (ast.BinaryOp.IsComparison marks exactly these as unsafe).
func negateComparison(x ast.Expr) (ast.Expr, bool) {
	bin, ok := x.(*ast.BinaryExpr)
	if !ok {
		return nil, false
	}
	var negated ast.BinaryOp
	switch bin.Op {
	case ast.OpEq:
		negated = ast.OpNe
	case ast.OpNe:
		negated = ast.OpEq
	case ast.OpBEq:
		negated = ast.OpBNe
	case ast.OpBNe:
		negated = ast.OpBEq
	default:
		return nil, false
	}
	return ast.NewBinary(negated, bin.L, bin.R, bin.Pos()), true
}

// ---- Binary ----

func foldBinary(n *ast.BinaryExpr) (ast.Expr, error) {
	l, err := fold(n.L)
	if err != nil {
		return nil, err
	}
	r, err := fold(n.R)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpPow:
		return foldArith(n.Op, l, r, n.Pos())
	case ast.OpAnd:
		return foldAnd(l, r, n.Pos())
	case ast.OpOr:
		return foldOr(l, r, n.Pos())
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		return foldNumCompare(n.Op, l, r, n.Pos())
	case ast.OpBEq, ast.OpBNe:
		return foldBoolCompare(n.Op, l, r, n.Pos())
	default:
		return nil, mferrors.NewAt(mferrors.InternalError, n.Pos(), "optimizer: unhandled binary op %s", n.Op)
	}
}

func foldArith(op ast.BinaryOp, l, r ast.Expr, pos mferrors.Position) (ast.Expr, error) {
	lf, lok := numConst(l)
	rf, rok := numConst(r)
	if lok && rok {
		var result float64
		switch op {
		case ast.OpAdd:
			result = mfmath.Add(lf, rf)
		case ast.OpSub:
			result = mfmath.Sub(lf, rf)
		case ast.OpMul:
			result = mfmath.Mul(lf, rf)
		case ast.OpDiv:
			result = mfmath.Div(lf, rf)
		case ast.OpMod:
			result = mfmath.Mod(lf, rf)
		case ast.OpPow:
			result = mfmath.Pow(lf, rf)
		}
		return numLit(result, pos), nil
	}

	// Identity/absorbing elements, commutative rules only apply when the
	// known operand is constant (spec.md §4.3).
	switch op {
	case ast.OpAdd:
		if rok && rf == 0 {
			return l, nil
		}
		if lok && lf == 0 {
			return r, nil
		}
	case ast.OpSub:
		if rok && rf == 0 {
			return l, nil
		}
	case ast.OpMul:
		if rok && rf == 1 {
			return l, nil
		}
		if lok && lf == 1 {
			return r, nil
		}
	case ast.OpDiv:
		if rok && rf == 1 {
			return l, nil
		}
	case ast.OpPow:
		if rok && rf == 1 {
			return l, nil
		}
	}
	return ast.NewBinary(op, l, r, pos), nil
}

func foldAnd(l, r ast.Expr, pos mferrors.Position) (ast.Expr, error) {
	if b, ok := boolConst(l); ok {
		if !b {
			return boolLit(false, pos), nil
		}
		return r, nil
	}
	if b, ok := boolConst(r); ok {
		if !b {
			return boolLit(false, pos), nil
		}
		return l, nil
	}
	return ast.NewBinary(ast.OpAnd, l, r, pos), nil
}

func foldOr(l, r ast.Expr, pos mferrors.Position) (ast.Expr, error) {
	if b, ok := boolConst(l); ok {
		if b {
			return boolLit(true, pos), nil
		}
		return r, nil
	}
	if b, ok := boolConst(r); ok {
		if b {
			return boolLit(true, pos), nil
		}
		return l, nil
	}
	return ast.NewBinary(ast.OpOr, l, r, pos), nil
}

func foldNumCompare(op ast.BinaryOp, l, r ast.Expr, pos mferrors.Position) (ast.Expr, error) {
	if lf, lok := numConst(l); lok {
		if rf, rok := numConst(r); rok {
			return boolLit(evalNumCompare(op, lf, rf), pos), nil
		}
	}
	return ast.NewBinary(op, l, r, pos), nil
}

func evalNumCompare(op ast.BinaryOp, l, r float64) bool {
	switch op {
	case ast.OpEq:
		return l == r
	case ast.OpNe:
		return l != r
	case ast.OpLt:
		return l < r
	case ast.OpGt:
		return l > r
	case ast.OpLe:
		return l <= r
	case ast.OpGe:
		return l >= r
	default:
		return false
	}
}

// foldBoolCompare applies negation-of-comparison (!(a==b) -> a!=b, ...)
// only through the not_expr path; here it folds constants and the
// "x beq true/false" simplifications from spec.md §4.3.
func foldBoolCompare(op ast.BinaryOp, l, r ast.Expr, pos mferrors.Position) (ast.Expr, error) {
	if lb, lok := boolConst(l); lok {
		if rb, rok := boolConst(r); rok {
			eq := lb == rb
			if op == ast.OpBNe {
				eq = !eq
			}
			return boolLit(eq, pos), nil
		}
	}
	// x beq true -> x ; x beq false -> !x (and the commuted forms).
	if rb, rok := boolConst(r); rok {
		return simplifyBoolVsConst(op, l, rb, pos), nil
	}
	if lb, lok := boolConst(l); lok {
		return simplifyBoolVsConst(op, r, lb, pos), nil
	}
	return ast.NewBinary(op, l, r, pos), nil
}

func simplifyBoolVsConst(op ast.BinaryOp, x ast.Expr, c bool, pos mferrors.Position) ast.Expr {
	want := c
	if op == ast.OpBNe {
		want = !c
	}
	if want {
		return x
	}
	return ast.NewUnary(ast.OpNot, x, pos)
}

// ---- in / range ----

func foldIn(n *ast.InExpr) (ast.Expr, error) {
	val, err := fold(n.Val)
	if err != nil {
		return nil, err
	}
	lo, err := fold(n.Range.Lo)
	if err != nil {
		return nil, err
	}
	hi, err := fold(n.Range.Hi)
	if err != nil {
		return nil, err
	}

	vf, vok := numConst(val)
	if !vok {
		if val == n.Val && lo == n.Range.Lo && hi == n.Range.Hi {
			return n, nil
		}
		return ast.NewIn(val, ast.NewRange(lo, hi, n.Range.Inclusive, n.Range.Pos()), n.Pos()), nil
	}

	lf, lok := numConst(lo)
	hf, hok := numConst(hi)

	if lok && hok {
		return boolLit(inBounds(vf, lf, hf, n.Range.Inclusive), n.Pos()), nil
	}
	if lok {
		// Only the lower bound is known: if value already clears it, the
		// membership collapses to a single comparison against the
		// (non-constant) upper bound; otherwise it can never be in
		// range regardless of what the upper bound turns out to be.
		if vf >= lf {
			if n.Range.Inclusive {
				return ast.NewBinary(ast.OpLe, val, hi, n.Pos()), nil
			}
			return ast.NewBinary(ast.OpLt, val, hi, n.Pos()), nil
		}
		return boolLit(false, n.Pos()), nil
	}
	if hok {
		upperOK := vf <= hf
		if !n.Range.Inclusive {
			upperOK = vf < hf
		}
		if upperOK {
			return ast.NewBinary(ast.OpGe, val, lo, n.Pos()), nil
		}
		return boolLit(false, n.Pos()), nil
	}

	return ast.NewIn(val, ast.NewRange(lo, hi, n.Range.Inclusive, n.Range.Pos()), n.Pos()), nil
}

// inBounds implements the corrected in-with-constant-bounds fold:
// value >= lower && value <= upper (inclusive), or value >= lower &&
// value < upper (exclusive). The original mathfun optimize.c compares
// the lower endpoint twice instead of the upper endpoint once; this is
// the fix, not a reproduction (spec.md §9).
func inBounds(v, lo, hi float64, inclusive bool) bool {
	if inclusive {
		return v >= lo && v <= hi
	}
	return v >= lo && v < hi
}

// ---- iif ----

func foldIif(n *ast.IifExpr) (ast.Expr, error) {
	cond, err := fold(n.Cond)
	if err != nil {
		return nil, err
	}
	then, err := fold(n.Then)
	if err != nil {
		return nil, err
	}
	els, err := fold(n.Else)
	if err != nil {
		return nil, err
	}
	if b, ok := boolConst(cond); ok {
		if b {
			return then, nil
		}
		return els, nil
	}
	if cond == n.Cond && then == n.Then && els == n.Else {
		return n, nil
	}
	return ast.NewIif(cond, then, els, n.Pos()), nil
}

// ---- call ----

func foldCall(n *ast.CallExpr) (ast.Expr, error) {
	args := make([]ast.Expr, len(n.Args))
	allConst := true
	changed := false
	for i, a := range n.Args {
		fa, err := fold(a)
		if err != nil {
			return nil, err
		}
		args[i] = fa
		if fa != a {
			changed = true
		}
		if _, ok := asConst(fa); !ok {
			allConst = false
		}
	}

	if allConst && n.Callback != nil {
		argVals := make([]value.Value, len(args))
		for i, a := range args {
			argVals[i] = a.(*ast.ConstExpr).Val
		}
		result := n.Callback(argVals)
		return ast.NewConst(result, n.Pos()), nil
	}

	if !changed {
		return n, nil
	}
	return ast.NewCall(n.Name, n.Callback, n.Sig, args, n.Pos()), nil
}
