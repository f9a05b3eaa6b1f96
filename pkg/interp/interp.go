// Package interp is the bytecode interpreter: given a compiled
// bytecode.Chunk and a pre-filled register frame, it runs the
// instruction stream to completion and returns the result. See
// spec.md §4.5. The dispatch loop's shape (single switch over opcodes,
// reading/writing a flat register slice, ip as a plain int) is grounded
// on paserati's vm.run(); the arithmetic opcodes call straight into
// pkg/mfmath so the interpreter can never compute a different answer
// than the optimizer's constant folding did for the same expression.
package interp

import (
	"math"

	"github.com/panzi/mathfun-sub000/pkg/bytecode"
	"github.com/panzi/mathfun-sub000/pkg/mferno"
	"github.com/panzi/mathfun-sub000/pkg/mferrors"
	"github.com/panzi/mathfun-sub000/pkg/mfmath"
	"github.com/panzi/mathfun-sub000/pkg/value"
)

// Frame is a compiled function's register window: one Value per slot,
// with slots [0, argc) holding the caller's arguments on entry.
type Frame []value.Value

// NewFrame allocates a zeroed frame of the given size.
func NewFrame(size int) Frame {
	return make(Frame, size)
}

// Run executes chunk against frame, which must have length
// chunk.FrameSize with slots [0, chunk.Argc) already filled by the
// caller. It does not clear or inspect the math-error status itself;
// that is the façade's job, since one evaluation may call Run as part
// of a larger unit of work (spec.md §5's "clear around each
// evaluation" is a façade-level contract, not Run's).
func Run(chunk *bytecode.Chunk, frame Frame) (value.Value, error) {
	code := chunk.Code
	pc := 0
	for {
		if pc >= len(code) {
			return value.Value{}, mferrors.New(mferrors.InternalError, "interp: ran off the end of the instruction stream")
		}
		op := bytecode.OpCode(code[pc])
		switch op {
		case bytecode.NOP:
			pc++

		case bytecode.RET:
			return frame[code[pc+1]], nil

		case bytecode.MOV:
			frame[code[pc+2]] = frame[code[pc+1]]
			pc += 3

		case bytecode.VAL:
			frame[code[pc+2]] = value.Num(math.Float64frombits(uint64(code[pc+1])))
			pc += 3

		case bytecode.CALL:
			ref := chunk.Callbacks[code[pc+1]]
			base := code[pc+2]
			dest := code[pc+3]
			args := frame[base : int(base)+ref.Argc]
			frame[dest] = ref.Fn(args)
			pc += 4

		case bytecode.NEG:
			x := frame[code[pc+1]].NumberValue()
			frame[code[pc+2]] = value.Num(mfmath.CheckDomainRange(-x, x))
			pc += 3

		case bytecode.NOT:
			frame[code[pc+2]] = value.Bool(!frame[code[pc+1]].BooleanValue())
			pc += 3

		case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD, bytecode.POW:
			l := frame[code[pc+1]].NumberValue()
			r := frame[code[pc+2]].NumberValue()
			frame[code[pc+3]] = value.Num(arith(op, l, r))
			pc += 4

		case bytecode.EQ, bytecode.NE, bytecode.LT, bytecode.GT, bytecode.LE, bytecode.GE:
			l := frame[code[pc+1]].NumberValue()
			r := frame[code[pc+2]].NumberValue()
			frame[code[pc+3]] = value.Bool(numCompare(op, l, r))
			pc += 4

		case bytecode.BEQ:
			l := frame[code[pc+1]].BooleanValue()
			r := frame[code[pc+2]].BooleanValue()
			frame[code[pc+3]] = value.Bool(l == r)
			pc += 4

		case bytecode.BNE:
			l := frame[code[pc+1]].BooleanValue()
			r := frame[code[pc+2]].BooleanValue()
			frame[code[pc+3]] = value.Bool(l != r)
			pc += 4

		case bytecode.JMP:
			pc = int(code[pc+1])

		case bytecode.JMPT:
			if frame[code[pc+1]].BooleanValue() {
				pc = int(code[pc+2])
			} else {
				pc += 3
			}

		case bytecode.JMPF:
			if !frame[code[pc+1]].BooleanValue() {
				pc = int(code[pc+2])
			} else {
				pc += 3
			}

		case bytecode.SETT:
			frame[code[pc+1]] = value.Bool(true)
			pc += 2

		case bytecode.SETF:
			frame[code[pc+1]] = value.Bool(false)
			pc += 2

		case bytecode.IN:
			val := frame[code[pc+1]].NumberValue()
			lo := frame[code[pc+2]].NumberValue()
			hi := frame[code[pc+3]].NumberValue()
			inclusive := code[pc+4] != 0
			dest := code[pc+5]
			frame[dest] = value.Bool(inRange(val, lo, hi, inclusive))
			pc += 6

		default:
			return value.Value{}, mferrors.New(mferrors.InternalError, "interp: unknown opcode %v", op)
		}
	}
}

func arith(op bytecode.OpCode, l, r float64) float64 {
	switch op {
	case bytecode.ADD:
		return mfmath.Add(l, r)
	case bytecode.SUB:
		return mfmath.Sub(l, r)
	case bytecode.MUL:
		return mfmath.Mul(l, r)
	case bytecode.DIV:
		return mfmath.Div(l, r)
	case bytecode.MOD:
		return mfmath.Mod(l, r)
	default: // POW
		return mfmath.Pow(l, r)
	}
}

// numCompare implements the plain IEEE-754 comparisons: any comparison
// against NaN is false, exactly like the hardware FP comparison
// instructions this mirrors.
func numCompare(op bytecode.OpCode, l, r float64) bool {
	switch op {
	case bytecode.EQ:
		return l == r
	case bytecode.NE:
		return l != r
	case bytecode.LT:
		return l < r
	case bytecode.GT:
		return l > r
	case bytecode.LE:
		return l <= r
	default: // GE
		return l >= r
	}
}

func inRange(val, lo, hi float64, inclusive bool) bool {
	if inclusive {
		return val >= lo && val <= hi
	}
	return val >= lo && val < hi
}

// ClearMathError resets the shared math-error status. Exposed here so
// callers that drive Run directly (such as tests) can reset it without
// importing pkg/mferno themselves.
func ClearMathError() { mferno.Clear() }

// MathErrorStatus reports the current math-error status (mferno.OK if
// none), for callers that want to check it without importing pkg/mferno.
func MathErrorStatus() int32 { return mferno.Get() }
