// Package bytecode defines mathfun's compiled instruction format: a
// word-addressed register machine. See spec.md §3/§4.4/§4.5/§4.6.
//
// The original C library pads its instruction stream with NOPs to keep
// double and function-pointer immediates naturally aligned, because its
// words are raw bytes. Here a Word is already a uint64, the natural
// width of both a float64's bit pattern and a register index, so no
// alignment padding is ever needed; NOP survives only because the
// opcode enum spec.md §3 names includes it, not because anything emits
// it. Grounded on paserati's pkg/bytecode.Chunk (Code/Constants/line
// table shape, one-opcode-at-a-time disassembly loop).
package bytecode

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/panzi/mathfun-sub000/pkg/context"
)

// CallbackRef is one CALL target: the host function, the argument count
// the interpreter must pass it, and the name it was declared under
// (for the disassembler only). The compiler builds this straight from
// an ast.CallExpr (which already carries Name, Callback and Args), so
// no *context.Decl or Context lookup is needed during code generation.
type CallbackRef struct {
	Name string
	Fn   context.Callback
	Argc int
}

// Word is the uniform unit of the instruction stream: one opcode, one
// register index, one jump target, or the raw bit pattern of a double
// immediate.
type Word uint64

// OpCode identifies an instruction. Values match the order given in
// spec.md §3's bytecode opcode enumeration.
type OpCode Word

const (
	NOP OpCode = iota
	RET
	MOV
	VAL
	CALL
	NEG
	ADD
	SUB
	MUL
	DIV
	MOD
	POW
	NOT
	EQ
	NE
	LT
	GT
	LE
	GE
	BEQ
	BNE
	JMP
	JMPT
	JMPF
	SETT
	SETF
	// IN is not documented in spec.md §4.5's per-opcode table, only
	// named in the §3 enum. Resolved here as its own instruction rather
	// than desugaring at codegen time: val/lo/hi/inclusive/dest, five
	// operand words, following the same "variable width by opcode"
	// pattern VAL (double immediate) and CALL (callback index) already
	// use. See DESIGN.md.
	IN
)

var opNames = [...]string{
	"NOP", "RET", "MOV", "VAL", "CALL", "NEG", "ADD", "SUB", "MUL", "DIV",
	"MOD", "POW", "NOT", "EQ", "NE", "LT", "GT", "LE", "GE", "BEQ", "BNE",
	"JMP", "JMPT", "JMPF", "SETT", "SETF", "IN",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("OP(%d)", int(op))
}

// Width reports how many words, including the opcode itself, a complete
// instruction occupies. This is what a decoder needs to skip to the
// next instruction without understanding the opcode's semantics.
func (op OpCode) Width() int {
	switch op {
	case NOP:
		return 1
	case RET, SETT, SETF:
		return 2
	case MOV, NEG, NOT, JMPT, JMPF:
		return 3
	case VAL:
		return 3
	case CALL:
		return 4
	case ADD, SUB, MUL, DIV, MOD, POW, EQ, NE, LT, GT, LE, GE, BEQ, BNE:
		return 4
	case JMP:
		return 2
	case IN:
		return 6
	default:
		return 1
	}
}

// Chunk is a compiled function: its bytecode plus the side tables the
// interpreter and disassembler need to make sense of it. A Chunk is
// immutable once returned by the compiler and safe to share across
// goroutines (spec.md §5); only a caller's Frame is mutable per call.
type Chunk struct {
	Argc      int
	FrameSize int
	Code      []Word

	// Callbacks holds one entry per distinct function referenced by a
	// CALL instruction, in first-use order; a CALL's callback operand is
	// an index into this slice. This realizes spec.md §3's "callback
	// pointers are embedded in-line in the code stream" without an
	// unsafe raw function pointer in the word stream itself.
	Callbacks []CallbackRef
}

// AddCallback interns (name, fn, argc) into c.Callbacks by function
// identity, returning its index for use as a CALL instruction's
// callback operand.
func (c *Chunk) AddCallback(name string, fn context.Callback, argc int) int {
	target := reflect.ValueOf(fn).Pointer()
	for i, ref := range c.Callbacks {
		if reflect.ValueOf(ref.Fn).Pointer() == target {
			return i
		}
	}
	c.Callbacks = append(c.Callbacks, CallbackRef{Name: name, Fn: fn, Argc: argc})
	return len(c.Callbacks) - 1
}

func (c *Chunk) emit(words ...Word) int {
	start := len(c.Code)
	c.Code = append(c.Code, words...)
	return start
}

// EmitOp appends an instruction: opcode followed by its operand words.
// Returns the word offset the opcode was written at.
func (c *Chunk) EmitOp(op OpCode, operands ...Word) int {
	return c.emit(append([]Word{Word(op)}, operands...)...)
}

// EmitVal appends VAL imm, d and returns the offset of the opcode.
func (c *Chunk) EmitVal(imm float64, dest int) int {
	return c.emit(Word(VAL), Word(math.Float64bits(imm)), Word(dest))
}

// EmitCall appends CALL callbackIdx, base, d and returns the offset of
// the opcode.
func (c *Chunk) EmitCall(callbackIdx, base, dest int) int {
	return c.emit(Word(CALL), Word(callbackIdx), Word(base), Word(dest))
}

// EmitIn appends IN val, lo, hi, inclusive, d.
func (c *Chunk) EmitIn(val, lo, hi, dest int, inclusive bool) int {
	inclWord := Word(0)
	if inclusive {
		inclWord = 1
	}
	return c.emit(Word(IN), Word(val), Word(lo), Word(hi), inclWord, Word(dest))
}

// EmitJump appends a placeholder jump (JMP/JMPT/JMPF) with a zero target
// and returns the word offset of the target operand, for later patching
// via PatchJump.
func (c *Chunk) EmitJump(op OpCode, cond int) int {
	switch op {
	case JMP:
		c.emit(Word(op), 0)
		return len(c.Code) - 1
	default: // JMPT, JMPF
		c.emit(Word(op), Word(cond), 0)
		return len(c.Code) - 1
	}
}

// PatchJump sets the target operand at targetOffset to the current end
// of the code stream (an absolute word index, per spec.md §4.4).
func (c *Chunk) PatchJump(targetOffset int) {
	c.Code[targetOffset] = Word(len(c.Code))
}

// Disassemble renders one line per instruction, resolving each CALL's
// callback index back to its declared name via c.Callbacks. Formatting
// is not a stable contract (spec.md §4.6), only that every opcode is
// representable.
func (c *Chunk) Disassemble(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s (argc=%d, framesize=%d) ==\n", name, c.Argc, c.FrameSize)
	pc := 0
	for pc < len(c.Code) {
		pc = c.disassembleAt(&b, pc)
	}
	return b.String()
}

func (c *Chunk) disassembleAt(b *strings.Builder, pc int) int {
	op := OpCode(c.Code[pc])
	fmt.Fprintf(b, "%04d  %-6s", pc, op)

	switch op {
	case NOP:
		b.WriteString("\n")
		return pc + 1
	case RET:
		fmt.Fprintf(b, " r%d\n", c.Code[pc+1])
		return pc + 2
	case MOV:
		fmt.Fprintf(b, " r%d -> r%d\n", c.Code[pc+1], c.Code[pc+2])
		return pc + 3
	case VAL:
		imm := math.Float64frombits(uint64(c.Code[pc+1]))
		fmt.Fprintf(b, " %v -> r%d\n", imm, c.Code[pc+2])
		return pc + 3
	case CALL:
		idx := int(c.Code[pc+1])
		base := c.Code[pc+2]
		dest := c.Code[pc+3]
		name := "?"
		if idx >= 0 && idx < len(c.Callbacks) {
			name = c.Callbacks[idx].Name
		}
		fmt.Fprintf(b, " %s, base=r%d -> r%d (idx=%d)\n", name, base, dest, idx)
		return pc + 4
	case NEG, NOT:
		fmt.Fprintf(b, " r%d -> r%d\n", c.Code[pc+1], c.Code[pc+2])
		return pc + 3
	case ADD, SUB, MUL, DIV, MOD, POW, EQ, NE, LT, GT, LE, GE, BEQ, BNE:
		fmt.Fprintf(b, " r%d, r%d -> r%d\n", c.Code[pc+1], c.Code[pc+2], c.Code[pc+3])
		return pc + 4
	case JMP:
		fmt.Fprintf(b, " -> %04d\n", c.Code[pc+1])
		return pc + 2
	case JMPT, JMPF:
		fmt.Fprintf(b, " r%d -> %04d\n", c.Code[pc+1], c.Code[pc+2])
		return pc + 3
	case SETT, SETF:
		fmt.Fprintf(b, " r%d\n", c.Code[pc+1])
		return pc + 2
	case IN:
		val, lo, hi, incl, d := c.Code[pc+1], c.Code[pc+2], c.Code[pc+3], c.Code[pc+4], c.Code[pc+5]
		dots := ".."
		if incl != 0 {
			dots = "..."
		}
		fmt.Fprintf(b, " r%d in r%d%sr%d -> r%d\n", val, lo, dots, hi, d)
		return pc + 6
	default:
		b.WriteString(" ???\n")
		return pc + 1
	}
}
