package bytecode

import (
	"strings"
	"testing"

	"github.com/panzi/mathfun-sub000/pkg/context"
)

func TestEmitAndDisassembleArithmetic(t *testing.T) {
	c := &Chunk{Argc: 1, FrameSize: 3}
	c.EmitVal(2, 1)
	c.EmitOp(ADD, 0, 1, 2)
	c.EmitOp(RET, 2)

	out := c.Disassemble("f")
	for _, want := range []string{"VAL", "ADD", "RET", "argc=1", "framesize=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}

func TestEmitCallResolvesCallbackName(t *testing.T) {
	ctx := context.New(true)
	decl := ctx.Lookup("sin")
	if decl == nil {
		t.Fatal("sin not found in default context")
	}
	c := &Chunk{Argc: 1, FrameSize: 2}
	idx := c.AddCallback(decl.Name(), decl.Callback(), decl.Signature().Argc())
	c.EmitCall(idx, 0, 1)
	c.EmitOp(RET, 1)

	out := c.Disassemble("f")
	if !strings.Contains(out, "sin") {
		t.Errorf("disassembly does not mention callback name:\n%s", out)
	}
}

func TestJumpPatching(t *testing.T) {
	c := &Chunk{Argc: 1, FrameSize: 2}
	target := c.EmitJump(JMPF, 0)
	c.EmitOp(SETT, 1)
	c.PatchJump(target)
	c.EmitOp(RET, 1)

	want := Word(len(c.Code) - 2) // offset of the RET instruction
	if c.Code[target] != want {
		t.Errorf("patched jump target = %d, want %d", c.Code[target], want)
	}
}

func TestOpCodeWidthMatchesEncodedLength(t *testing.T) {
	c := &Chunk{Argc: 0, FrameSize: 1}
	start := c.EmitIn(0, 1, 2, 3, true)
	if got := IN.Width(); start+got != len(c.Code) {
		t.Errorf("IN.Width() = %d, encoded %d words", got, len(c.Code)-start)
	}
}

func TestAddCallbackInterning(t *testing.T) {
	ctx := context.New(true)
	decl := ctx.Lookup("cos")
	c := &Chunk{}
	i1 := c.AddCallback(decl.Name(), decl.Callback(), decl.Signature().Argc())
	i2 := c.AddCallback(decl.Name(), decl.Callback(), decl.Signature().Argc())
	if i1 != i2 {
		t.Errorf("AddCallback did not intern: %d != %d", i1, i2)
	}
	if len(c.Callbacks) != 1 {
		t.Errorf("len(Callbacks) = %d, want 1", len(c.Callbacks))
	}
}
