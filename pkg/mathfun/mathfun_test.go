package mathfun

import (
	"math"
	"testing"

	"github.com/panzi/mathfun-sub000/pkg/source"
)

func TestCompileAndCall(t *testing.T) {
	fn, err := Compile(nil, []string{"x", "y"}, source.NewEval("x + y * 2"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	got, err := fn.Call(3, 4)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != 11 {
		t.Errorf("got %v, want 11", got)
	}
}

func TestCallFrameReuse(t *testing.T) {
	fn, err := Compile(nil, []string{"x"}, source.NewEval("x * x"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	frame := fn.NewFrame()
	for i, want := range map[float64]float64{2: 4, 3: 9, -5: 25} {
		got, err := fn.CallFrame(frame, i)
		if err != nil {
			t.Fatalf("CallFrame(%v): %v", i, err)
		}
		if got != want {
			t.Errorf("CallFrame(%v) = %v, want %v", i, got, want)
		}
	}
}

func TestRunMatchesCompileAndCall(t *testing.T) {
	exprs := []struct {
		text     string
		argNames []string
		args     []float64
	}{
		{"x + y * 2", []string{"x", "y"}, []float64{3, 4}},
		{"x > 0 && y > 0 ? 1 : 0", []string{"x", "y"}, []float64{1, -1}},
		{"x in 0...10 ? 1 : 0", []string{"x"}, []float64{10}},
		{"sqrt(x) + atan2(x, y)", []string{"x", "y"}, []float64{16, 3}},
		{"x % y", []string{"x", "y"}, []float64{-1, 3}},
	}

	for _, e := range exprs {
		fn, err := Compile(nil, e.argNames, source.NewEval(e.text))
		if err != nil {
			t.Fatalf("Compile(%q): %v", e.text, err)
		}
		compiled, err := fn.CallSlice(e.args)
		if err != nil {
			t.Fatalf("Call(%q): %v", e.text, err)
		}
		treed, err := Run(nil, e.argNames, source.NewEval(e.text), e.args)
		if err != nil {
			t.Fatalf("Run(%q): %v", e.text, err)
		}
		if compiled != treed {
			t.Errorf("%q: compiled=%v tree=%v, want equal", e.text, compiled, treed)
		}
	}
}

func TestRunDomainError(t *testing.T) {
	_, err := Run(nil, []string{"x"}, source.NewEval("sqrt(x)"), []float64{-1})
	if err == nil {
		t.Fatalf("expected a math error for sqrt(-1)")
	}
}

func TestCompileRejectsDuplicateArgs(t *testing.T) {
	_, err := Compile(nil, []string{"x", "x"}, source.NewEval("x"))
	if err == nil {
		t.Fatalf("expected duplicate_argument error")
	}
}

func TestRunAtan2Consistency(t *testing.T) {
	got, err := Run(nil, []string{"x", "y"}, source.NewEval("atan2(x, y)"), []float64{1, 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := math.Atan2(1, 1); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
