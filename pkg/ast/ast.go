// Package ast defines the typed expression tree mathfun's parser builds
// and its optimizer rewrites. See spec.md §3. Every node owns its
// children uniquely — this is a tree, never a DAG — and every node's
// static Type() is fixed at construction time by the parser, which is
// also where type-correctness is enforced (spec.md's invariant that the
// AST is always well-typed once built).
package ast

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/panzi/mathfun-sub000/pkg/context"
	"github.com/panzi/mathfun-sub000/pkg/mferrors"
	"github.com/panzi/mathfun-sub000/pkg/value"
)

// Expr is the interface every AST node implements.
type Expr interface {
	Type() value.Type
	Pos() mferrors.Position
	String() string
	exprNode()
}

type base struct {
	typ value.Type
	pos mferrors.Position
}

func (b base) Type() value.Type       { return b.typ }
func (b base) Pos() mferrors.Position { return b.pos }
func (base) exprNode()                {}

// ---- Leaves ----

// ConstExpr is a literal number or boolean.
type ConstExpr struct {
	base
	Val value.Value
}

func NewConst(v value.Value, pos mferrors.Position) *ConstExpr {
	return &ConstExpr{base: base{typ: v.Type(), pos: pos}, Val: v}
}

func (c *ConstExpr) String() string { return c.Val.String() }

// ArgExpr references the caller's Index'th argument.
type ArgExpr struct {
	base
	Index int
	Name  string // original identifier, used by String() only
}

func NewArg(index int, name string, typ value.Type, pos mferrors.Position) *ArgExpr {
	return &ArgExpr{base: base{typ: typ, pos: pos}, Index: index, Name: name}
}

func (a *ArgExpr) String() string { return a.Name }

// ---- Unary ----

type UnaryOp uint8

const (
	OpNeg UnaryOp = iota // -x, numeric
	OpNot                // !x, boolean
)

func (op UnaryOp) String() string {
	if op == OpNot {
		return "!"
	}
	return "-"
}

type UnaryExpr struct {
	base
	Op UnaryOp
	X  Expr
}

func NewUnary(op UnaryOp, x Expr, pos mferrors.Position) *UnaryExpr {
	typ := value.Number
	if op == OpNot {
		typ = value.Boolean
	}
	return &UnaryExpr{base: base{typ: typ, pos: pos}, Op: op, X: x}
}

func (u *UnaryExpr) String() string { return fmt.Sprintf("%s%s", u.Op, group(u.X)) }

// ---- Binary ----

type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow

	OpEq // numeric comparisons
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe

	OpBEq // boolean comparisons
	OpBNe

	OpAnd // short-circuit logical
	OpOr
)

var binaryOpNames = map[BinaryOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%", OpPow: "**",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpGt: ">", OpLe: "<=", OpGe: ">=",
	OpBEq: "==", OpBNe: "!=",
	OpAnd: "&&", OpOr: "||",
}

func (op BinaryOp) String() string { return binaryOpNames[op] }

// IsComparison reports whether op is one of the complement-unsafe
// numeric comparisons (<, >, <=, >=) the optimizer must never rewrite
// via negation, because NaN breaks the complementary relationship
// (spec.md §4.3).
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpLt, OpGt, OpLe, OpGe:
		return true
	default:
		return false
	}
}

type BinaryExpr struct {
	base
	Op   BinaryOp
	L, R Expr
}

func resultType(op BinaryOp) value.Type {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow:
		return value.Number
	default:
		return value.Boolean
	}
}

func NewBinary(op BinaryOp, l, r Expr, pos mferrors.Position) *BinaryExpr {
	return &BinaryExpr{base: base{typ: resultType(op), pos: pos}, Op: op, L: l, R: r}
}

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("%s %s %s", group(b.L), b.Op, group(b.R))
}

// ---- Ranges & membership ----

// RangeExpr only ever appears as the Range field of an InExpr
// (spec.md's invariant "range nodes appear only inside In").
type RangeExpr struct {
	base
	Inclusive bool // '...'  => inclusive upper bound, '..' => exclusive
	Lo, Hi    Expr
}

func NewRange(lo, hi Expr, inclusive bool, pos mferrors.Position) *RangeExpr {
	return &RangeExpr{base: base{typ: value.Boolean, pos: pos}, Inclusive: inclusive, Lo: lo, Hi: hi}
}

func (r *RangeExpr) String() string {
	dots := ".."
	if r.Inclusive {
		dots = "..."
	}
	return fmt.Sprintf("%s%s%s", group(r.Lo), dots, group(r.Hi))
}

type InExpr struct {
	base
	Val   Expr
	Range *RangeExpr
}

func NewIn(val Expr, rng *RangeExpr, pos mferrors.Position) *InExpr {
	return &InExpr{base: base{typ: value.Boolean, pos: pos}, Val: val, Range: rng}
}

func (in *InExpr) String() string { return fmt.Sprintf("%s in %s", group(in.Val), in.Range.String()) }

// ---- Conditional ----

type IifExpr struct {
	base
	Cond, Then, Else Expr
}

func NewIif(cond, then, els Expr, pos mferrors.Position) *IifExpr {
	return &IifExpr{base: base{typ: then.Type(), pos: pos}, Cond: cond, Then: then, Else: els}
}

func (i *IifExpr) String() string {
	return fmt.Sprintf("%s ? %s : %s", group(i.Cond), group(i.Then), group(i.Else))
}

// ---- Call ----

type CallExpr struct {
	base
	Name     string // declared name, for disassembly/error messages
	Callback context.Callback
	Sig      context.Signature
	Args     []Expr
}

func NewCall(name string, cb context.Callback, sig context.Signature, args []Expr, pos mferrors.Position) *CallExpr {
	return &CallExpr{base: base{typ: sig.RetType, pos: pos}, Name: name, Callback: cb, Sig: sig, Args: args}
}

func (c *CallExpr) String() string {
	var b bytes.Buffer
	b.WriteString(c.Name)
	b.WriteString("(")
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(")")
	return b.String()
}

func group(e Expr) string {
	switch e.(type) {
	case *ConstExpr, *ArgExpr, *CallExpr:
		return e.String()
	default:
		return "(" + e.String() + ")"
	}
}
