// Package compiler turns an optimized AST into a bytecode.Chunk. See
// spec.md §4.4 for the recursive emit contract this file implements.
// Grounded on paserati's pkg/compiler register allocator (nextReg/maxReg
// high-water-mark bookkeeping), adapted from a free-list allocator to
// the stack-discipline allocator spec.md actually specifies, and with
// every failure returned as an error instead of paserati's panics
// (spec.md §7: no panics on user input).
package compiler

import (
	"github.com/panzi/mathfun-sub000/pkg/ast"
	"github.com/panzi/mathfun-sub000/pkg/bytecode"
	"github.com/panzi/mathfun-sub000/pkg/context"
	"github.com/panzi/mathfun-sub000/pkg/mferrors"
	"github.com/panzi/mathfun-sub000/pkg/value"
)

type compiler struct {
	chunk     *bytecode.Chunk
	currStack int
	maxStack  int
}

// Compile generates a Chunk for root, a function of argc arguments.
// root must already be type-checked and optimized; this stage does no
// validation beyond the frame-size limit.
func Compile(root ast.Expr, argc int) (*bytecode.Chunk, error) {
	c := &compiler{
		chunk:     &bytecode.Chunk{Argc: argc},
		currStack: argc,
		maxStack:  argc - 1,
	}

	retReserved := c.currStack
	slot, consumed, err := c.operand(root, retReserved)
	if err != nil {
		return nil, err
	}
	if consumed {
		c.advance()
	}
	c.chunk.EmitOp(bytecode.RET, w(slot))

	if c.maxStack >= context.MaxFrameRegs {
		return nil, mferrors.New(mferrors.ExceedsMaxFrameSize,
			"compiled function needs %d registers, more than the %d supported", c.maxStack+1, context.MaxFrameRegs)
	}
	c.chunk.FrameSize = c.maxStack + 1
	return c.chunk, nil
}

func w(i int) bytecode.Word { return bytecode.Word(i) }

func (c *compiler) touch(idx int) {
	if idx > c.maxStack {
		c.maxStack = idx
	}
}

func (c *compiler) advance() {
	c.touch(c.currStack)
	c.currStack++
}

// operand resolves e into a register without necessarily writing
// anything: an ast.ArgExpr aliases its argument register directly (no
// code emitted, reserved is left unconsumed), every other node emits
// code that writes its result into reserved. Returns the register the
// value actually lives in and whether reserved was the one consumed.
func (c *compiler) operand(e ast.Expr, reserved int) (slot int, consumed bool, err error) {
	if arg, ok := e.(*ast.ArgExpr); ok {
		return arg.Index, false, nil
	}
	if err := c.into(e, reserved); err != nil {
		return 0, false, err
	}
	return reserved, true, nil
}

// forcedInto is like operand but guarantees the value ends up in slot,
// inserting a MOV if e turned out to be an argument alias elsewhere.
// Used wherever two control-flow paths must leave their result in the
// same shared register (Iif's two branches, And/Or's right operand).
func (c *compiler) forcedInto(e ast.Expr, slot int) error {
	s, consumed, err := c.operand(e, slot)
	if err != nil {
		return err
	}
	if !consumed && s != slot {
		c.chunk.EmitOp(bytecode.MOV, w(s), w(slot))
	}
	return nil
}

func (c *compiler) into(e ast.Expr, slot int) error {
	switch n := e.(type) {
	case *ast.ConstExpr:
		return c.intoConst(n, slot)
	case *ast.ArgExpr:
		c.chunk.EmitOp(bytecode.MOV, w(n.Index), w(slot))
		return nil
	case *ast.UnaryExpr:
		return c.intoUnary(n, slot)
	case *ast.BinaryExpr:
		return c.intoBinary(n, slot)
	case *ast.InExpr:
		return c.intoIn(n, slot)
	case *ast.IifExpr:
		return c.intoIif(n, slot)
	case *ast.CallExpr:
		return c.intoCall(n, slot)
	default:
		return mferrors.New(mferrors.InternalError, "compiler: unhandled node %T", e)
	}
}

func (c *compiler) intoConst(n *ast.ConstExpr, slot int) error {
	if n.Val.Type() == value.Boolean {
		op := bytecode.SETF
		if n.Val.BooleanValue() {
			op = bytecode.SETT
		}
		c.chunk.EmitOp(op, w(slot))
		return nil
	}
	c.chunk.EmitVal(n.Val.NumberValue(), slot)
	return nil
}

func (c *compiler) intoUnary(n *ast.UnaryExpr, slot int) error {
	childSlot, _, err := c.operand(n.X, slot)
	if err != nil {
		return err
	}
	op := bytecode.NEG
	if n.Op == ast.OpNot {
		op = bytecode.NOT
	}
	c.chunk.EmitOp(op, w(childSlot), w(slot))
	return nil
}

var binaryOps = map[ast.BinaryOp]bytecode.OpCode{
	ast.OpAdd: bytecode.ADD, ast.OpSub: bytecode.SUB, ast.OpMul: bytecode.MUL,
	ast.OpDiv: bytecode.DIV, ast.OpMod: bytecode.MOD, ast.OpPow: bytecode.POW,
	ast.OpEq: bytecode.EQ, ast.OpNe: bytecode.NE, ast.OpLt: bytecode.LT,
	ast.OpGt: bytecode.GT, ast.OpLe: bytecode.LE, ast.OpGe: bytecode.GE,
	ast.OpBEq: bytecode.BEQ, ast.OpBNe: bytecode.BNE,
}

func (c *compiler) intoBinary(n *ast.BinaryExpr, slot int) error {
	switch n.Op {
	case ast.OpAnd:
		return c.intoAnd(n, slot)
	case ast.OpOr:
		return c.intoOr(n, slot)
	}

	op, ok := binaryOps[n.Op]
	if !ok {
		return mferrors.New(mferrors.InternalError, "compiler: unhandled binary op %v", n.Op)
	}

	leftReserved := c.currStack
	leftSlot, leftConsumed, err := c.operand(n.L, leftReserved)
	if err != nil {
		return err
	}
	if leftConsumed {
		c.advance()
	}
	rightReserved := c.currStack
	c.touch(rightReserved)
	rightSlot, _, err := c.operand(n.R, rightReserved)
	if err != nil {
		return err
	}
	if leftConsumed {
		c.currStack = leftReserved
	}
	c.chunk.EmitOp(op, w(leftSlot), w(rightSlot), w(slot))
	return nil
}

// intoAnd implements `l && r`: evaluate l into slot, branch past r if
// false, otherwise overwrite slot with r. If l aliased an argument
// register (no code wrote slot), the short-circuit path must still
// leave a definite boolean in slot, so an explicit SETF is threaded in
// on that path via a second, unconditional jump around it. Top-level
// arguments are always numbers (spec.md §4.2), so l can never actually
// be a raw Arg node here since && requires boolean operands; the
// alias branch stays in for symmetry with Or and in case a future
// signature extension allows boolean parameters.
func (c *compiler) intoAnd(n *ast.BinaryExpr, slot int) error {
	leftSlot, leftConsumed, err := c.operand(n.L, slot)
	if err != nil {
		return err
	}
	falsePatch := c.chunk.EmitJump(bytecode.JMPF, leftSlot)
	if err := c.forcedInto(n.R, slot); err != nil {
		return err
	}
	if !leftConsumed {
		endPatch := c.chunk.EmitJump(bytecode.JMP, 0)
		c.chunk.PatchJump(falsePatch)
		c.chunk.EmitOp(bytecode.SETF, w(slot))
		c.chunk.PatchJump(endPatch)
	} else {
		c.chunk.PatchJump(falsePatch)
	}
	return nil
}

// intoOr is intoAnd's mirror: JMPT instead of JMPF, SETT instead of SETF.
func (c *compiler) intoOr(n *ast.BinaryExpr, slot int) error {
	leftSlot, leftConsumed, err := c.operand(n.L, slot)
	if err != nil {
		return err
	}
	truePatch := c.chunk.EmitJump(bytecode.JMPT, leftSlot)
	if err := c.forcedInto(n.R, slot); err != nil {
		return err
	}
	if !leftConsumed {
		endPatch := c.chunk.EmitJump(bytecode.JMP, 0)
		c.chunk.PatchJump(truePatch)
		c.chunk.EmitOp(bytecode.SETT, w(slot))
		c.chunk.PatchJump(endPatch)
	} else {
		c.chunk.PatchJump(truePatch)
	}
	return nil
}

func (c *compiler) intoIn(n *ast.InExpr, slot int) error {
	valReserved := c.currStack
	valSlot, valConsumed, err := c.operand(n.Val, valReserved)
	if err != nil {
		return err
	}
	if valConsumed {
		c.advance()
	}
	loReserved := c.currStack
	loSlot, loConsumed, err := c.operand(n.Range.Lo, loReserved)
	if err != nil {
		return err
	}
	if loConsumed {
		c.advance()
	}
	hiReserved := c.currStack
	c.touch(hiReserved)
	hiSlot, _, err := c.operand(n.Range.Hi, hiReserved)
	if err != nil {
		return err
	}
	if loConsumed {
		c.currStack = loReserved
	}
	if valConsumed {
		c.currStack = valReserved
	}
	c.chunk.EmitIn(valSlot, loSlot, hiSlot, slot, n.Range.Inclusive)
	return nil
}

func (c *compiler) intoIif(n *ast.IifExpr, slot int) error {
	condReserved := c.currStack
	condSlot, condConsumed, err := c.operand(n.Cond, condReserved)
	if err != nil {
		return err
	}
	if condConsumed {
		c.touch(condReserved)
	}
	falsePatch := c.chunk.EmitJump(bytecode.JMPF, condSlot)
	if err := c.forcedInto(n.Then, slot); err != nil {
		return err
	}
	endPatch := c.chunk.EmitJump(bytecode.JMP, 0)
	c.chunk.PatchJump(falsePatch)
	if err := c.forcedInto(n.Else, slot); err != nil {
		return err
	}
	c.chunk.PatchJump(endPatch)
	return nil
}

// intoCall packs arguments into argc consecutive slots starting at some
// base, then emits CALL. If every argument is already an Arg node
// sitting consecutively in argument registers (the common case of a
// function applied directly to the caller's own parameters), no copy
// is needed at all; otherwise each argument is materialized into a
// freshly reserved block, with the scratch registers of argument i
// starting at its own target so earlier arguments are never overwritten.
func (c *compiler) intoCall(n *ast.CallExpr, slot int) error {
	argc := len(n.Args)
	idx := c.chunk.AddCallback(n.Name, n.Callback, argc)

	if argc == 0 {
		c.chunk.EmitCall(idx, 0, slot)
		return nil
	}

	if base, ok := consecutiveArgBase(n.Args); ok {
		c.chunk.EmitCall(idx, base, slot)
		return nil
	}

	base := c.currStack
	for i, a := range n.Args {
		target := base + i
		c.currStack = target
		c.touch(target)
		if err := c.forcedInto(a, target); err != nil {
			return err
		}
	}
	c.currStack = base
	c.chunk.EmitCall(idx, base, slot)
	return nil
}

func consecutiveArgBase(args []ast.Expr) (int, bool) {
	base := -1
	for i, a := range args {
		ae, ok := a.(*ast.ArgExpr)
		if !ok {
			return 0, false
		}
		if i == 0 {
			base = ae.Index
		} else if ae.Index != base+i {
			return 0, false
		}
	}
	return base, true
}
