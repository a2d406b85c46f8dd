// Package errors defines the structured error type shared by the gany
// packages. Errors carry a Kind so callers can branch on the failure class
// with errors.Is against the exported sentinels.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind categorizes the error
type Kind string

const (
	KindUnsupportedDtype    Kind = "unsupported_dtype"     // array element kind cannot go on the wire
	KindNoVertices          Kind = "no_vertices"           // grid has no point set
	KindUnsupportedGridType Kind = "unsupported_grid_type" // grid subtype or file format not handled
	KindMalformedGrid       Kind = "malformed_grid"        // grid file unreadable or inconsistent
	KindNotFound            Kind = "not_found"             // data or component lookup miss
	KindDimensionMismatch   Kind = "dimension_mismatch"    // tuple length != effect input dimension
	KindInvalidComponent    Kind = "invalid_component"     // selector does not name an existing component
	KindAmbiguousData       Kind = "ambiguous_data"        // data name used where one component is required
	KindInvalidInput        Kind = "invalid_input"         // value of the wrong shape or type
)

// Sentinels for errors.Is. Matching compares Kind only.
var (
	ErrUnsupportedDtype    = &Error{Kind: KindUnsupportedDtype}
	ErrNoVertices          = &Error{Kind: KindNoVertices}
	ErrUnsupportedGridType = &Error{Kind: KindUnsupportedGridType}
	ErrMalformedGrid       = &Error{Kind: KindMalformedGrid}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrDimensionMismatch   = &Error{Kind: KindDimensionMismatch}
	ErrInvalidComponent    = &Error{Kind: KindInvalidComponent}
	ErrAmbiguousData       = &Error{Kind: KindAmbiguousData}
	ErrInvalidInput        = &Error{Kind: KindInvalidInput}
)

// Error is the structured error type used throughout gany
type Error struct {
	Value  any
	Cause  error
	Kind   Kind
	Op     string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target has the same Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(kind Kind) *Builder {
	return &Builder{err: Error{Kind: kind}}
}

// Op sets the operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Path sets the attribute path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	e := b.err
	return &e
}

// Convenience constructors for common error patterns

// NotFound creates a lookup miss error for the given name path.
func NotFound(op string, path ...string) *Error {
	return &Error{
		Kind:   KindNotFound,
		Op:     op,
		Path:   path,
		Detail: fmt.Sprintf("%q not found", strings.Join(path, ".")),
	}
}

// InvalidInput creates an error for a value of the wrong shape or type.
func InvalidInput(op string, value any, format string, args ...any) *Error {
	return &Error{
		Kind:   KindInvalidInput,
		Op:     op,
		Value:  value,
		Detail: fmt.Sprintf(format, args...),
	}
}

// UnsupportedGridType creates an error for a grid kind or file format
// that cannot be loaded.
func UnsupportedGridType(op, what string) *Error {
	return &Error{
		Kind:   KindUnsupportedGridType,
		Op:     op,
		Detail: what,
	}
}

// MalformedGrid wraps a parse or read failure of a grid file.
func MalformedGrid(op string, cause error) *Error {
	return &Error{
		Kind:  KindMalformedGrid,
		Op:    op,
		Cause: cause,
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is forwards to the standard library so callers need a single import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As forwards to the standard library.
func As(err error, target any) bool { return stderrors.As(err, target) }
