// Package context implements mathfun's symbol table: an ordered,
// append-only list of named constants and function bindings that the
// parser resolves identifiers against. See spec.md §4.1.
package context

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/panzi/mathfun-sub000/pkg/mferrors"
	"github.com/panzi/mathfun-sub000/pkg/value"
)

// Callback is the host function ABI: it receives the argc Value slots
// starting at its first argument register and returns a single Value. It
// must not retain the slice (the interpreter reuses the backing frame
// across calls).
type Callback func(args []value.Value) value.Value

// Signature describes a callback's argument types and return type.
// Argc is len(ArgTypes); there is no separate "argc only" shape (see
// spec.md §9's note on the legacy Funct header).
type Signature struct {
	ArgTypes []value.Type
	RetType  value.Type
}

func (s Signature) Argc() int { return len(s.ArgTypes) }

// MaxFrameRegs is MATHFUN_REGS_MAX from spec.md §5: the largest argc (or
// register index) any compiled function may use, required to be no
// smaller than 256; we use exactly that, matching the original C
// library's 256-entry function-pointer table.
const MaxFrameRegs = 256

type declKind uint8

const (
	declConst declKind = iota
	declFunct
)

// Decl is one entry of a Context: either a named constant or a named
// function binding.
type Decl struct {
	kind     declKind
	name     string
	constVal value.Value
	callback Callback
	sig      Signature
}

func (d *Decl) Name() string { return d.name }

// IsConst reports whether d is a Const declaration.
func (d *Decl) IsConst() bool { return d.kind == declConst }

// IsFunct reports whether d is a Funct declaration.
func (d *Decl) IsFunct() bool { return d.kind == declFunct }

// ConstValue returns the declared constant's value. Only valid if
// IsConst().
func (d *Decl) ConstValue() value.Value { return d.constVal }

// Callback returns the declared function's callback. Only valid if
// IsFunct().
func (d *Decl) Callback() Callback { return d.callback }

// Signature returns the declared function's signature. Only valid if
// IsFunct().
func (d *Decl) Signature() Signature { return d.sig }

// Context is an ordered, append-only symbol table. Lookup is linear by
// name and first-match wins, matching spec.md's shadowing rule; it is
// not safe for concurrent mutation, only for concurrent read-only
// lookup (spec.md §5).
type Context struct {
	decls []*Decl
}

// New creates an empty context, optionally pre-populated with the
// default math library (the constants and functions enumerated in
// spec.md §4.1).
func New(withDefaults bool) *Context {
	ctx := &Context{}
	if withDefaults {
		registerDefaults(ctx)
	}
	return ctx
}

var reserved = map[string]bool{
	"inf": true, "nan": true, "true": true, "false": true, "in": true,
}

func isNameStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNameCont(b byte) bool {
	return isNameStart(b) || (b >= '0' && b <= '9')
}

// ValidName reports whether name is a legal identifier: starts with a
// letter or underscore, continues with letters/digits/underscores, and
// is not one of the reserved words (case-insensitive).
func ValidName(name string) bool {
	if name == "" || !isNameStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isNameCont(name[i]) {
			return false
		}
	}
	return !reserved[strings.ToLower(name)]
}

func (c *Context) indexOf(name string) int {
	for i, d := range c.decls {
		if d.name == name {
			return i
		}
	}
	return -1
}

// Lookup returns the first declaration named name, or nil if there is
// none.
func (c *Context) Lookup(name string) *Decl {
	if i := c.indexOf(name); i >= 0 {
		return c.decls[i]
	}
	return nil
}

// DefineConst declares a named numeric or boolean constant.
func (c *Context) DefineConst(name string, v value.Value) error {
	if err := c.checkNewName(name); err != nil {
		return err
	}
	c.decls = append(c.decls, &Decl{kind: declConst, name: name, constVal: v})
	return nil
}

// DefineFunct declares a named host-function binding. sig must outlive
// the context (it is referenced, not copied by value recursively, but
// since Signature holds its own slice this is effectively a copy on
// return; callers may safely reuse a Signature literal).
func (c *Context) DefineFunct(name string, cb Callback, sig Signature) error {
	if err := c.checkNewName(name); err != nil {
		return err
	}
	if sig.Argc() > MaxFrameRegs {
		return mferrors.New(mferrors.TooManyArguments,
			"function %q declares %d arguments, more than the %d supported", name, sig.Argc(), MaxFrameRegs)
	}
	c.decls = append(c.decls, &Decl{kind: declFunct, name: name, callback: cb, sig: sig})
	return nil
}

func (c *Context) checkNewName(name string) error {
	if !ValidName(name) {
		return mferrors.New(mferrors.IllegalName, "illegal name: %q", name)
	}
	if c.indexOf(name) >= 0 {
		return mferrors.New(mferrors.NameExists, "name already declared: %q", name)
	}
	return nil
}

// Undefine removes the declaration named name, shifting later
// declarations left by one (so subsequent indices stay dense).
func (c *Context) Undefine(name string) error {
	i := c.indexOf(name)
	if i < 0 {
		return mferrors.New(mferrors.NoSuchName, "no such name: %q", name)
	}
	c.decls = append(c.decls[:i], c.decls[i+1:]...)
	return nil
}

// Names returns the declared names in declaration order (debug/REPL
// completion use only).
func (c *Context) Names() []string {
	names := make([]string, len(c.decls))
	for i, d := range c.decls {
		names[i] = d.name
	}
	return names
}

// NameOf resolves a callback back to its declared name by identity, a
// debug-only lookup (spec.md §4.1 funct_name_of); the bytecode
// disassembler itself names CALL targets from Chunk.Callbacks. Go function values
// are not comparable with ==, so identity is compared via the function
// pointer extracted through reflection, same trick every Go codebase
// that needs this resorts to.
func (c *Context) NameOf(cb Callback) (string, bool) {
	if cb == nil {
		return "", false
	}
	target := reflect.ValueOf(cb).Pointer()
	for _, d := range c.decls {
		if d.kind == declFunct && reflect.ValueOf(d.callback).Pointer() == target {
			return d.name, true
		}
	}
	return "", false
}

func (c *Context) String() string {
	var b strings.Builder
	for _, d := range c.decls {
		if d.IsConst() {
			fmt.Fprintf(&b, "const %s = %s\n", d.name, d.constVal.String())
		} else {
			fmt.Fprintf(&b, "funct %s/%d\n", d.name, d.sig.Argc())
		}
	}
	return b.String()
}
