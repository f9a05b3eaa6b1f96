// Package mferrors defines the structured error taxonomy shared by every
// stage of the mathfun pipeline (lexer, parser, optimizer, compiler,
// interpreter, context). Every fallible operation in this module returns
// a *Error (or nil); nothing panics on malformed user input.
package mferrors

import (
	"fmt"
	"strings"

	"github.com/panzi/mathfun-sub000/pkg/source"
)

// Kind identifies the category of a mathfun error. It is a flat
// enumeration, not a type hierarchy: every *Error carries exactly one
// Kind plus whatever fields that kind needs.
type Kind string

const (
	IOError             Kind = "io_error"
	OutOfMemory         Kind = "out_of_memory"
	MathError           Kind = "math_error"
	HostError           Kind = "host_error"
	IllegalName         Kind = "illegal_name"
	DuplicateArgument   Kind = "duplicate_argument"
	NameExists          Kind = "name_exists"
	NoSuchName          Kind = "no_such_name"
	TooManyArguments    Kind = "too_many_arguments"
	ExceedsMaxFrameSize Kind = "exceeds_max_frame_size"
	InternalError       Kind = "internal_error"

	// Parser kinds. MATHFUN_IS_PARSER_ERROR in the original C library is
	// "kind is between ExpectedCloseParen and TrailingGarbage"; here we
	// just keep an explicit set membership check, see IsParserError.
	ExpectedCloseParen       Kind = "expected_close_paren"
	UndefinedReference       Kind = "undefined_reference"
	NotAFunction             Kind = "not_a_function"
	NotAVariable             Kind = "not_a_variable"
	IllegalNumberOfArguments Kind = "illegal_number_of_arguments"
	ExpectedNumber           Kind = "expected_number"
	ExpectedIdentifier       Kind = "expected_identifier"
	ExpectedColon            Kind = "expected_colon"
	TypeError                Kind = "type_error"
	TrailingGarbage          Kind = "trailing_garbage"
)

var parserKinds = map[Kind]bool{
	ExpectedCloseParen:        true,
	UndefinedReference:        true,
	NotAFunction:              true,
	NotAVariable:              true,
	IllegalNumberOfArguments:  true,
	ExpectedNumber:            true,
	ExpectedIdentifier:        true,
	ExpectedColon:             true,
	TypeError:                 true,
	TrailingGarbage:           true,
}

// IsParserError reports whether k is one of the position-bearing parser
// error kinds (spec MATHFUN_IS_PARSER_ERROR).
func IsParserError(k Kind) bool { return parserKinds[k] }

// Position locates an error in its source: a 1-based line/column pair
// (for humans) plus a 0-based byte offset and span length (for tooling).
// The zero Position (Source == nil) means "no position known".
type Position struct {
	Line       int
	Column     int
	ByteOffset int
	Span       int
	Source     *source.File
}

// Error is the single structured error type used throughout mathfun. Not
// every field applies to every Kind; unused fields are left zero.
type Error struct {
	K     Kind
	Pos   Position
	Msg   string
	Errno int // set for MathError / HostError, mirrors errno EDOM/ERANGE

	Name string // set for name-related kinds

	ExpectedArgc int // set for IllegalNumberOfArguments / TooManyArguments
	GotArgc      int
}

func (e *Error) Kind() Kind       { return e.K }
func (e *Error) Message() string  { return e.Msg }
func (e *Error) HasPos() bool     { return e.Pos.Source != nil }

func (e *Error) Error() string {
	if e.HasPos() {
		return fmt.Sprintf("%s error at %d:%d: %s", e.K, e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return fmt.Sprintf("%s error: %s", e.K, e.Msg)
}

// New builds a plain error of kind k with no position.
func New(k Kind, format string, args ...interface{}) *Error {
	return &Error{K: k, Msg: fmt.Sprintf(format, args...)}
}

// NewAt builds an error of kind k positioned at pos.
func NewAt(k Kind, pos Position, format string, args ...interface{}) *Error {
	return &Error{K: k, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Log renders err the way the façade's external error-reporting API
// promises: a caret-underlined, source-quoting block for parser errors,
// and a single "error: <message>" line for everything else.
func Log(w interface{ Write([]byte) (int, error) }, err error) {
	me, ok := err.(*Error)
	if !ok || !IsParserError(me.K) || !me.HasPos() {
		fmt.Fprintf(w, "error: %s\n", err.Error())
		return
	}

	line := me.Pos.Source.Line(me.Pos.Line)
	fmt.Fprintf(w, "%d:%d: parser error: %s\n", me.Pos.Line, me.Pos.Column, me.Msg)
	fmt.Fprintf(w, "%s\n", line)
	fmt.Fprintf(w, "%s^\n", strings.Repeat("-", columnDashes(me.Pos.Column)))
}

func columnDashes(column int) int {
	if column <= 1 {
		return 0
	}
	return column - 1
}
