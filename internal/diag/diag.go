// Package diag implements the ambient diagnostic model: in-band errors for
// recoverable arithmetic/conversion/layout failures, formatted with a
// caret-pointer under the offending source line, plus fail-fast Violation
// panics for invariant breaches the rest of the system is never expected
// to recover from.
package diag

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies a diagnostic.
type Kind string

const (
	FoldError    Kind = "FoldError"
	LayoutError  Kind = "LayoutError"
	LowerError   Kind = "LowerError"
	BackendError Kind = "BackendError"
)

// Location pinpoints a diagnostic in source text.
type Location struct {
	File   string
	Line   int
	Column int
}

// Diagnostic is an error carrying a kind, a message, an optional source
// location, and the chain of component frames that produced it.
type Diagnostic struct {
	Kind     Kind
	Message  string
	Location Location
	Source   string
	Frames   []Frame
	cause    error
}

// Frame is one entry in a diagnostic's provenance trail — the component
// pass and node that triggered it, not a call stack in the Go-runtime
// sense.
type Frame struct {
	Component string
	Detail    string
}

func (d *Diagnostic) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", d.Kind, d.Message)
	if d.Location.File != "" {
		fmt.Fprintf(&sb, "  at %s:%d:%d\n", d.Location.File, d.Location.Line, d.Location.Column)
		if d.Source != "" {
			fmt.Fprintf(&sb, "\n  %d | %s\n", d.Location.Line, d.Source)
			prefix := fmt.Sprintf("  %d | ", d.Location.Line)
			sb.WriteString(strings.Repeat(" ", len(prefix)))
			if d.Location.Column > 0 {
				sb.WriteString(strings.Repeat(" ", d.Location.Column-1))
			}
			sb.WriteString("^\n")
		}
	}
	for _, f := range d.Frames {
		fmt.Fprintf(&sb, "  in %s: %s\n", f.Component, f.Detail)
	}
	if d.cause != nil {
		fmt.Fprintf(&sb, "caused by: %v\n", d.cause)
	}
	return sb.String()
}

// Unwrap exposes the wrapped cause so errors.Is/As work across package
// boundaries.
func (d *Diagnostic) Unwrap() error { return d.cause }

// New creates a Diagnostic with no location, for component-internal
// failures not tied to a specific source position (e.g. a lowering
// invariant check).
func New(kind Kind, message string) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: message}
}

// At attaches a source location.
func (d *Diagnostic) At(file string, line, column int) *Diagnostic {
	d.Location = Location{File: file, Line: line, Column: column}
	return d
}

// WithSource attaches the offending source line for caret display.
func (d *Diagnostic) WithSource(src string) *Diagnostic {
	d.Source = src
	return d
}

// Because wraps an underlying cause via github.com/pkg/errors, preserving
// its stack trace for debug builds while keeping the top-level message
// terse for interactive use.
func (d *Diagnostic) Because(cause error) *Diagnostic {
	d.cause = errors.WithStack(cause)
	return d
}

// AddFrame appends one provenance frame, used by a multi-pass pipeline
// (optimize -> lower -> backend) to record which stage touched the node
// last before the failure surfaced.
func (d *Diagnostic) AddFrame(component, detail string) *Diagnostic {
	d.Frames = append(d.Frames, Frame{Component: component, Detail: detail})
	return d
}

// Violation is panicked (never returned as an error value) when the IR
// violates one of the structural invariants in SPEC_FULL.md §3 — a matured
// block gaining a predecessor, a non-Block node missing its Block
// predecessor, and similar conditions the rest of the system assumes can
// never happen. Recovering from a Violation is only appropriate at a
// top-level driver boundary (e.g. the CLI's per-file compile loop) that
// wants to report one bad input without aborting a batch.
type Violation struct {
	Invariant string
	Detail    string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("invariant violated (%s): %s", v.Invariant, v.Detail)
}

// Violatef panics with a Violation built from a fmt-style detail message.
func Violatef(invariant, format string, args ...interface{}) {
	panic(&Violation{Invariant: invariant, Detail: fmt.Sprintf(format, args...)})
}
