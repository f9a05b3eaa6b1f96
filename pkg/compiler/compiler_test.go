package compiler

import (
	"strings"
	"testing"

	"github.com/panzi/mathfun-sub000/pkg/bytecode"
	"github.com/panzi/mathfun-sub000/pkg/context"
	"github.com/panzi/mathfun-sub000/pkg/optimizer"
	"github.com/panzi/mathfun-sub000/pkg/parser"
	"github.com/panzi/mathfun-sub000/pkg/source"
)

func compileText(t *testing.T, text string, argNames []string) *bytecode.Chunk {
	t.Helper()
	ctx := context.New(true)
	p := parser.New(source.NewEval(text), ctx, argNames)
	expr, err := p.Parse()
	if err != nil {
		t.Fatalf("parse(%q): %v", text, err)
	}
	opt, err := optimizer.Optimize(expr)
	if err != nil {
		t.Fatalf("optimize(%q): %v", text, err)
	}
	chunk, err := Compile(opt, len(argNames))
	if err != nil {
		t.Fatalf("compile(%q): %v", text, err)
	}
	return chunk
}

func TestCompileSimpleArg(t *testing.T) {
	chunk := compileText(t, "x", []string{"x"})
	if chunk.FrameSize != 1 {
		t.Errorf("FrameSize = %d, want 1 (argument alias needs no extra register)", chunk.FrameSize)
	}
	dis := chunk.Disassemble("f")
	if !strings.Contains(dis, "RET") {
		t.Errorf("missing RET:\n%s", dis)
	}
}

func TestCompileArithmetic(t *testing.T) {
	chunk := compileText(t, "x + y * 2", []string{"x", "y"})
	dis := chunk.Disassemble("f")
	for _, want := range []string{"VAL", "MUL", "ADD", "RET"} {
		if !strings.Contains(dis, want) {
			t.Errorf("disassembly missing %q:\n%s", want, dis)
		}
	}
	if chunk.FrameSize <= 2 {
		t.Errorf("FrameSize = %d, want > argc (temporaries needed)", chunk.FrameSize)
	}
}

func TestCompileCallWithConsecutiveArgsNeedsNoCopy(t *testing.T) {
	chunk := compileText(t, "atan2(x, y)", []string{"x", "y"})
	dis := chunk.Disassemble("f")
	if strings.Contains(dis, "MOV") {
		t.Errorf("expected no MOV when args are already consecutive argument registers:\n%s", dis)
	}
	if !strings.Contains(dis, "atan2") {
		t.Errorf("disassembly does not name the callback:\n%s", dis)
	}
}

func TestCompileCallWithReorderedArgsNeedsCopy(t *testing.T) {
	chunk := compileText(t, "atan2(y, x)", []string{"x", "y"})
	dis := chunk.Disassemble("f")
	if !strings.Contains(dis, "MOV") {
		t.Errorf("expected MOV copies when args are not in natural order:\n%s", dis)
	}
}

func TestCompileAndShortCircuit(t *testing.T) {
	chunk := compileText(t, "x > 0 && y > 0", []string{"x", "y"})
	dis := chunk.Disassemble("f")
	if !strings.Contains(dis, "JMPF") {
		t.Errorf("expected JMPF for && short-circuit:\n%s", dis)
	}
}

func TestCompileOrShortCircuit(t *testing.T) {
	chunk := compileText(t, "x > 0 || y > 0", []string{"x", "y"})
	dis := chunk.Disassemble("f")
	if !strings.Contains(dis, "JMPT") {
		t.Errorf("expected JMPT for || short-circuit:\n%s", dis)
	}
}

func TestCompileIifBranches(t *testing.T) {
	chunk := compileText(t, "x > 0 ? x : 0 - x", []string{"x"})
	dis := chunk.Disassemble("f")
	for _, want := range []string{"JMPF", "JMP"} {
		if !strings.Contains(dis, want) {
			t.Errorf("disassembly missing %q:\n%s", want, dis)
		}
	}
}

func TestCompileInMembership(t *testing.T) {
	chunk := compileText(t, "x in 0...y", []string{"x", "y"})
	dis := chunk.Disassemble("f")
	if !strings.Contains(dis, "IN") {
		t.Errorf("expected IN instruction:\n%s", dis)
	}
}

func TestExceedsMaxFrameSize(t *testing.T) {
	// Build a deeply nested expression to push maxstack past the limit.
	var b strings.Builder
	for i := 0; i < 300; i++ {
		b.WriteString("(1 + ")
	}
	b.WriteString("x")
	for i := 0; i < 300; i++ {
		b.WriteString(")")
	}
	ctx := context.New(true)
	p := parser.New(source.NewEval(b.String()), ctx, []string{"x"})
	expr, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	opt, err := optimizer.Optimize(expr)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if _, err := Compile(opt, 1); err == nil {
		t.Fatalf("expected exceeds_max_frame_size, got none")
	}
}
