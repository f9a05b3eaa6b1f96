// Package mfmath holds the arithmetic kernels shared by the constant
// folder and the bytecode interpreter, so "fold x+y at compile time" and
// "execute ADD at run time" can never drift apart. Grounded on the
// original mathfun C library's vm.c operator implementations and
// spec.md §4.5.
package mfmath

import (
	"math"

	"github.com/panzi/mathfun-sub000/pkg/mferno"
)

// CheckDomainRange mirrors how a libm implementation sets errno: a NaN
// result produced from non-NaN inputs is a domain error, an infinite
// result produced from finite inputs is a range error. Go's math package
// never sets anything itself, so every arithmetic kernel below routes
// its result through this before returning.
func CheckDomainRange(result float64, inputs ...float64) float64 {
	if math.IsNaN(result) {
		for _, in := range inputs {
			if math.IsNaN(in) {
				return result
			}
		}
		mferno.SetDomain()
		return result
	}
	if math.IsInf(result, 0) {
		for _, in := range inputs {
			if math.IsInf(in, 0) {
				return result
			}
		}
		mferno.SetRange()
		return result
	}
	return result
}

func Add(x, y float64) float64 { return CheckDomainRange(x+y, x, y) }
func Sub(x, y float64) float64 { return CheckDomainRange(x-y, x, y) }
func Mul(x, y float64) float64 { return CheckDomainRange(x*y, x, y) }
func Div(x, y float64) float64 { return CheckDomainRange(x/y, x, y) }
func Pow(x, y float64) float64 { return CheckDomainRange(math.Pow(x, y), x, y) }

// Mod implements the "%" operator's Euclidean modulo, spec.md §4.5:
// mod(x, y) = y==0 ? (EDOM, NaN) : let m = fmod(x,y); m==0 ? copysign(0,y)
// : (sign(m)==sign(y) ? m : m+y). This always returns a value with
// 0 <= |mod(x,y)| < |y| and the sign of y, unlike plain fmod.
func Mod(x, y float64) float64 {
	if y == 0 {
		mferno.SetDomain()
		return math.NaN()
	}
	m := math.Mod(x, y)
	if math.IsNaN(m) {
		return CheckDomainRange(m, x, y)
	}
	if m == 0 {
		return math.Copysign(0, y)
	}
	if sign(m) == sign(y) {
		return m
	}
	return m + y
}

func sign(f float64) bool { return math.Signbit(f) }

// StrictMax / StrictMin implement spec.md §4.1's NaN-propagating
// comparison "(x>=y || isnan(x)) ? x : y" (and the mirror for min).
// math.Max/math.Min are NaN-symmetric and would be wrong here: strict
// semantics make the left operand win so max(NaN, 1) == NaN but
// max(1, NaN) == NaN too (isnan(y) falls through to the else branch,
// returning y which is NaN) — NaN always wins regardless of side.
func StrictMax(x, y float64) float64 {
	if x >= y || math.IsNaN(x) {
		return x
	}
	return y
}

func StrictMin(x, y float64) float64 {
	if x <= y || math.IsNaN(x) {
		return x
	}
	return y
}
