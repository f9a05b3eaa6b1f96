// Package value defines the scalar value and type model shared by every
// stage of the mathfun pipeline: a tagged union of an IEEE-754 double and
// a boolean. There is no third variant and there never will be — the
// surface language has exactly two runtime types.
package value

import (
	"fmt"
	"strconv"
)

// Type is the static type of an expression or declaration. It is used by
// the parser and optimizer only; the interpreter is type-erased, since
// every register already knows which field of Value it holds.
type Type uint8

const (
	Number Type = iota
	Boolean
)

func (t Type) String() string {
	switch t {
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Value is a tagged scalar: either a float64 or a bool, never both. It is
// a plain struct (not an interface{}) so it never allocates on the heap
// just to be passed around a register frame.
type Value struct {
	typ     Type
	num     float64
	boolean bool
}

// Num wraps a float64 as a Value. NaN and +/-Inf are ordinary values.
func Num(f float64) Value { return Value{typ: Number, num: f} }

// Bool wraps a bool as a Value.
func Bool(b bool) Value { return Value{typ: Boolean, boolean: b} }

// Type reports whether v holds a number or a boolean.
func (v Value) Type() Type { return v.typ }

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.typ == Number }

// IsBoolean reports whether v holds a boolean.
func (v Value) IsBoolean() bool { return v.typ == Boolean }

// NumberValue returns the float64 held by v. Calling it on a boolean Value is
// a programmer error (the parser guarantees types line up before any
// Value ever reaches this call), so it panics rather than silently
// returning garbage.
func (v Value) NumberValue() float64 {
	if v.typ != Number {
		panic("value: NumberValue called on a non-number Value")
	}
	return v.num
}

// BooleanValue returns the bool held by v. See NumberValue for the panic
// rule.
func (v Value) BooleanValue() bool {
	if v.typ != Boolean {
		panic("value: BooleanValue called on a non-boolean Value")
	}
	return v.boolean
}

// String renders v for disassembly and REPL output.
func (v Value) String() string {
	switch v.typ {
	case Number:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case Boolean:
		if v.boolean {
			return "true"
		}
		return "false"
	default:
		return "<invalid value>"
	}
}
