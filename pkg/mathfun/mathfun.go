// Package mathfun is the public façade over the parser, optimizer,
// compiler and interpreter: compile a function once and call it many
// times, or run a one-shot expression straight off the AST. See
// spec.md §4.7, grounded on paserati's driver.Paserati.RunString
// orchestration (parse -> [optimize] -> compile -> execute, returning
// structured errors at each stage instead of panicking).
package mathfun

import (
	"github.com/panzi/mathfun-sub000/pkg/bytecode"
	"github.com/panzi/mathfun-sub000/pkg/compiler"
	"github.com/panzi/mathfun-sub000/pkg/context"
	"github.com/panzi/mathfun-sub000/pkg/interp"
	"github.com/panzi/mathfun-sub000/pkg/mferno"
	"github.com/panzi/mathfun-sub000/pkg/mferrors"
	"github.com/panzi/mathfun-sub000/pkg/optimizer"
	"github.com/panzi/mathfun-sub000/pkg/parser"
	"github.com/panzi/mathfun-sub000/pkg/source"
	"github.com/panzi/mathfun-sub000/pkg/value"
)

// CompiledFunc is an immutable, thread-shareable compiled function.
// Each concurrent caller must use its own Frame (spec.md §5).
type CompiledFunc struct {
	chunk    *bytecode.Chunk
	argNames []string
}

// Argc reports the number of arguments the function takes.
func (f *CompiledFunc) Argc() int { return f.chunk.Argc }

// FrameSize reports the number of registers a call to f needs.
func (f *CompiledFunc) FrameSize() int { return f.chunk.FrameSize }

// Disassemble renders f's bytecode, for tooling and tests.
func (f *CompiledFunc) Disassemble(name string) string { return f.chunk.Disassemble(name) }

// Compile parses, type-checks, optimizes and generates code for source
// against argNames. If ctx is nil, a context populated with the
// standard constants and functions (spec.md §4.1) is used.
func Compile(ctx *context.Context, argNames []string, src *source.File) (*CompiledFunc, error) {
	if ctx == nil {
		ctx = context.New(true)
	}
	if err := parser.ValidateArgNames(argNames); err != nil {
		return nil, err
	}
	p := parser.New(src, ctx, argNames)
	tree, err := p.Parse()
	if err != nil {
		return nil, err
	}
	opt, err := optimizer.Optimize(tree)
	if err != nil {
		return nil, err
	}
	chunk, err := compiler.Compile(opt, len(argNames))
	if err != nil {
		return nil, err
	}
	return &CompiledFunc{chunk: chunk, argNames: argNames}, nil
}

// Frame is a reusable register window for repeated calls to the same
// CompiledFunc (spec.md §5/§9's "pre-allocate a frame, call N times").
type Frame = interp.Frame

// NewFrame allocates a Frame sized for f, ready to pass to CallFrame.
func (f *CompiledFunc) NewFrame() Frame {
	return interp.NewFrame(f.chunk.FrameSize)
}

// Call allocates a fresh frame, writes args into slots [0, argc) and
// runs f to completion.
func (f *CompiledFunc) Call(args ...float64) (float64, error) {
	return f.CallSlice(args)
}

// CallSlice is Call taking its arguments as a slice.
func (f *CompiledFunc) CallSlice(args []float64) (float64, error) {
	return f.CallFrame(f.NewFrame(), args...)
}

// CallFrame runs f against a caller-supplied frame, overwriting its
// argument slots with args first. The frame may be reused across many
// calls to avoid repeated allocation on a hot path.
func (f *CompiledFunc) CallFrame(frame Frame, args ...float64) (float64, error) {
	if len(args) != f.chunk.Argc {
		return 0, mferrors.New(mferrors.InternalError,
			"CallFrame: %d arguments given, function takes %d", len(args), f.chunk.Argc)
	}
	for i, a := range args {
		frame[i] = value.Num(a)
	}
	mferno.Clear()
	ret, err := interp.Run(f.chunk, frame)
	if err != nil {
		return 0, err
	}
	if status := mferno.Get(); status != mferno.OK {
		return 0, mferrors.New(mferrors.MathError, "math error during evaluation (errno=%d)", status)
	}
	return ret.NumberValue(), nil
}

// Run parses and type-checks source, then evaluates it by walking the
// AST directly, with no optimizer and no code generation (spec.md
// §4.7's one-shot path, used when compile cost would not be amortized).
// It must produce identical results to compiling and calling the same
// source on well-typed inputs.
func Run(ctx *context.Context, argNames []string, src *source.File, argVals []float64) (float64, error) {
	if ctx == nil {
		ctx = context.New(true)
	}
	if err := parser.ValidateArgNames(argNames); err != nil {
		return 0, err
	}
	if len(argVals) != len(argNames) {
		return 0, mferrors.New(mferrors.InternalError,
			"Run: %d argument values given, %d argument names declared", len(argVals), len(argNames))
	}
	p := parser.New(src, ctx, argNames)
	tree, err := p.Parse()
	if err != nil {
		return 0, err
	}
	mferno.Clear()
	result, err := evalTree(tree, argVals)
	if err != nil {
		return 0, err
	}
	if status := mferno.Get(); status != mferno.OK {
		return 0, mferrors.New(mferrors.MathError, "math error during evaluation (errno=%d)", status)
	}
	return result.NumberValue(), nil
}
