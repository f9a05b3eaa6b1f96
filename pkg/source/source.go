// Package source wraps a piece of mathfun source text together with the
// metadata needed to render caret-pointing error messages.
package source

import (
	"path/filepath"
	"strings"
)

// File represents one source text the parser was asked to compile,
// together with whatever identifies it for error messages.
type File struct {
	Name    string // display name, e.g. "expr.mf", "<eval>", "<repl>"
	Path    string // full path, empty for in-memory sources
	Content string
	lines   []string // cached split, computed lazily
}

// New creates a File with an explicit display name.
func New(name, content string) *File {
	return &File{Name: name, Content: content}
}

// FromFile creates a File from a path on disk; the caller has already
// read the content.
func FromFile(path, content string) *File {
	return &File{Name: filepath.Base(path), Path: path, Content: content}
}

// NewEval creates a File for a one-shot compile (no backing file).
func NewEval(content string) *File {
	return &File{Name: "<eval>", Content: content}
}

// NewRepl creates a File for a single REPL line.
func NewRepl(content string) *File {
	return &File{Name: "<repl>", Content: content}
}

// Lines returns the source split on '\n', caching the split.
func (f *File) Lines() []string {
	if f.lines == nil {
		f.lines = strings.Split(f.Content, "\n")
	}
	return f.lines
}

// DisplayPath prefers the file path and falls back to the display name.
func (f *File) DisplayPath() string {
	if f.Path != "" {
		return f.Path
	}
	return f.Name
}

// Line returns the 1-based source line, or "" if out of range.
func (f *File) Line(n int) string {
	lines := f.Lines()
	if n < 1 || n > len(lines) {
		return ""
	}
	return lines[n-1]
}
