package context

import (
	"math"

	"github.com/panzi/mathfun-sub000/pkg/mfmath"
	"github.com/panzi/mathfun-sub000/pkg/value"
)

// registerDefaults populates ctx with the named constants and functions
// spec.md §4.1 calls out, grounded on the original mathfun C library's
// src/bindings.c (one host callback per libm function, registered
// verbatim) and the constant table from its header.
func registerDefaults(ctx *Context) {
	for _, c := range defaultConsts {
		_ = ctx.DefineConst(c.name, value.Num(c.val))
	}
	for _, f := range defaultFuncts {
		_ = ctx.DefineFunct(f.name, f.callback, numberSig(f.argc))
	}
}

func numberSig(argc int) Signature {
	argTypes := make([]value.Type, argc)
	for i := range argTypes {
		argTypes[i] = value.Number
	}
	return Signature{ArgTypes: argTypes, RetType: value.Number}
}

var defaultConsts = []struct {
	name string
	val  float64
}{
	{"e", math.E},
	{"log2e", math.Log2E},
	{"log10e", math.Log10E},
	{"ln2", math.Ln2},
	{"ln10", math.Ln10},
	{"pi", math.Pi},
	{"tau", 2 * math.Pi},
	{"pi_2", math.Pi / 2},
	{"pi_4", math.Pi / 4},
	{"_1_pi", 1 / math.Pi},
	{"_2_pi", 2 / math.Pi},
	{"_2_sqrtpi", 2 / math.Sqrt(math.Pi)},
	{"sqrt2", math.Sqrt2},
	{"sqrt1_2", 1 / math.Sqrt2},
}

func unary(f func(float64) float64) Callback {
	return func(args []value.Value) value.Value {
		x := args[0].NumberValue()
		return value.Num(mfmath.CheckDomainRange(f(x), x))
	}
}

func binary(f func(float64, float64) float64) Callback {
	return func(args []value.Value) value.Value {
		x, y := args[0].NumberValue(), args[1].NumberValue()
		return value.Num(mfmath.CheckDomainRange(f(x, y), x, y))
	}
}

func ternary(f func(float64, float64, float64) float64) Callback {
	return func(args []value.Value) value.Value {
		x, y, z := args[0].NumberValue(), args[1].NumberValue(), args[2].NumberValue()
		return value.Num(mfmath.CheckDomainRange(f(x, y, z), x, y, z))
	}
}

var defaultFuncts = []struct {
	name     string
	argc     int
	callback Callback
}{
	{"acos", 1, unary(math.Acos)},
	{"acosh", 1, unary(math.Acosh)},
	{"asin", 1, unary(math.Asin)},
	{"asinh", 1, unary(math.Asinh)},
	{"atan", 1, unary(math.Atan)},
	{"atan2", 2, binary(math.Atan2)},
	{"atanh", 1, unary(math.Atanh)},
	{"cbrt", 1, unary(math.Cbrt)},
	{"ceil", 1, unary(math.Ceil)},
	{"copysign", 2, binary(math.Copysign)},
	{"cos", 1, unary(math.Cos)},
	{"cosh", 1, unary(math.Cosh)},
	{"erf", 1, unary(math.Erf)},
	{"erfc", 1, unary(math.Erfc)},
	{"exp", 1, unary(math.Exp)},
	{"exp2", 1, unary(math.Exp2)},
	{"expm1", 1, unary(math.Expm1)},
	{"abs", 1, unary(math.Abs)},
	{"fdim", 2, binary(math.Dim)},
	{"floor", 1, unary(math.Floor)},
	{"fma", 3, ternary(math.FMA)},
	{"fmod", 2, binary(math.Mod)},
	{"max", 2, binary(mfmath.StrictMax)},
	{"min", 2, binary(mfmath.StrictMin)},
	{"hypot", 2, binary(math.Hypot)},
	{"j0", 1, unary(math.J0)},
	{"j1", 1, unary(math.J1)},
	{"jn", 2, binary(func(n, x float64) float64 { return math.Jn(int(n), x) })},
	{"ldexp", 2, binary(func(x, n float64) float64 { return math.Ldexp(x, int(n)) })},
	{"log", 1, unary(math.Log)},
	{"log10", 1, unary(math.Log10)},
	{"log1p", 1, unary(math.Log1p)},
	{"log2", 1, unary(math.Log2)},
	{"logb", 1, unary(math.Logb)},
	{"nearbyint", 1, unary(math.RoundToEven)},
	{"nextafter", 2, binary(math.Nextafter)},
	{"nexttoward", 2, binary(math.Nextafter)},
	{"remainder", 2, binary(math.Remainder)},
	{"round", 1, unary(math.Round)},
	{"scalbln", 2, binary(func(x, n float64) float64 { return math.Ldexp(x, int(n)) })},
	{"sin", 1, unary(math.Sin)},
	{"sinh", 1, unary(math.Sinh)},
	{"sqrt", 1, unary(math.Sqrt)},
	{"tan", 1, unary(math.Tan)},
	{"tanh", 1, unary(math.Tanh)},
	{"gamma", 1, unary(math.Gamma)},
	{"trunc", 1, unary(math.Trunc)},
	{"y0", 1, unary(math.Y0)},
	{"y1", 1, unary(math.Y1)},
	{"yn", 2, binary(func(n, x float64) float64 { return math.Yn(int(n), x) })},
}
