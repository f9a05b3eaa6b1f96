package interp

import (
	"math"
	"strings"
	"testing"

	"github.com/panzi/mathfun-sub000/pkg/compiler"
	"github.com/panzi/mathfun-sub000/pkg/context"
	"github.com/panzi/mathfun-sub000/pkg/optimizer"
	"github.com/panzi/mathfun-sub000/pkg/parser"
	"github.com/panzi/mathfun-sub000/pkg/source"
	"github.com/panzi/mathfun-sub000/pkg/value"
)

func run(t *testing.T, text string, argNames []string, args ...float64) float64 {
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
	chunk, err := compiler.Compile(opt, len(argNames))
	if err != nil {
		t.Fatalf("compile(%q): %v", text, err)
	}
	frame := NewFrame(chunk.FrameSize)
	for i, a := range args {
		frame[i] = value.Num(a)
	}
	ClearMathError()
	ret, err := Run(chunk, frame)
	if err != nil {
		t.Fatalf("run(%q): %v", text, err)
	}
	return ret.NumberValue()
}

func TestRunArithmetic(t *testing.T) {
	got := run(t, "x + y * 2", []string{"x", "y"}, 3, 4)
	if got != 11 {
		t.Errorf("got %v, want 11", got)
	}
}

func TestRunArgAlias(t *testing.T) {
	if got := run(t, "x", []string{"x"}, 42); got != 42 {
		t.Errorf("got %v, want 42", got)
	}
}

func TestRunCallWithConsecutiveArgs(t *testing.T) {
	got := run(t, "atan2(x, y)", []string{"x", "y"}, 1, 1)
	want := math.Atan2(1, 1)
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRunShortCircuitAnd(t *testing.T) {
	got := run(t, "x > 0 && y > 0 ? 1 : 0", []string{"x", "y"}, -1, 5)
	if got != 0 {
		t.Errorf("got %v, want 0 (short-circuit false)", got)
	}
	got = run(t, "x > 0 && y > 0 ? 1 : 0", []string{"x", "y"}, 1, 5)
	if got != 1 {
		t.Errorf("got %v, want 1", got)
	}
}

func TestRunShortCircuitOr(t *testing.T) {
	got := run(t, "x > 0 || y > 0 ? 1 : 0", []string{"x", "y"}, 1, -5)
	if got != 1 {
		t.Errorf("got %v, want 1 (short-circuit true)", got)
	}
}

func TestRunIif(t *testing.T) {
	if got := run(t, "x > 0 ? x : 0 - x", []string{"x"}, -7); got != 7 {
		t.Errorf("got %v, want 7", got)
	}
}

func TestRunInMembership(t *testing.T) {
	if got := run(t, "x in 0..10 ? 1 : 0", []string{"x"}, 10); got != 0 {
		t.Errorf("exclusive upper bound: got %v, want 0", got)
	}
	if got := run(t, "x in 0...10 ? 1 : 0", []string{"x"}, 10); got != 1 {
		t.Errorf("inclusive upper bound: got %v, want 1", got)
	}
}

func TestRunModIsEuclidean(t *testing.T) {
	if got := run(t, "x % y", []string{"x", "y"}, -1, 3); got != 2 {
		t.Errorf("got %v, want 2 (euclidean mod)", got)
	}
}

func TestRunDisassembleMatchesExecution(t *testing.T) {
	ctx := context.New(true)
	p := parser.New(source.NewEval("sqrt(x)"), ctx, []string{"x"})
	expr, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	opt, err := optimizer.Optimize(expr)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	chunk, err := compiler.Compile(opt, 1)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	dis := chunk.Disassemble("f")
	if !strings.Contains(dis, "sqrt") {
		t.Errorf("expected a CALL to sqrt in disassembly:\n%s", dis)
	}
	frame := NewFrame(chunk.FrameSize)
	frame[0] = value.Num(16)
	ClearMathError()
	ret, err := Run(chunk, frame)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if ret.NumberValue() != 4 {
		t.Errorf("sqrt(16) = %v, want 4", ret.NumberValue())
	}
}
