// Package apperr defines the error kinds every use-case reports.
//
// Kinds are sentinels usable with errors.Is. An *Error wraps a cause with the
// operation name, the kind, and optional field-level messages.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrTimeout      = errors.New("timeout")
	ErrInternal     = errors.New("internal error")
)

var kinds = []error{
	ErrValidation,
	ErrUnauthorized,
	ErrForbidden,
	ErrNotFound,
	ErrConflict,
	ErrTimeout,
	ErrInternal,
}

// Error is a classified failure.
type Error struct {
	Op     string            // operation that failed, e.g. "app.UpdateStage"
	Kind   error             // one of the Err* kinds
	Err    error             // underlying cause, may be nil
	Fields map[string]string // field -> message, for validation failures
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Fields) > 0 {
		b.WriteString(" (")
		b.WriteString(e.fieldList())
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func (e *Error) fieldList() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// NewKind builds an error of kind with a formatted message.
func NewKind(op string, kind error, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WrapKind classifies err as kind. A nil err yields nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Validation builds a validation error from field messages.
func Validation(op string, fields map[string]string) *Error {
	return &Error{Op: op, Kind: ErrValidation, Fields: fields}
}

// KindOf returns the kind of err. Unclassified errors are ErrInternal.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// FieldsOf returns field-level messages carried by err, if any.
func FieldsOf(err error) map[string]string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Fields
	}
	return nil
}

// Public returns a message safe to show to callers.
// Internal failures collapse to the kind text.
func Public(err error) string {
	if err == nil {
		return ""
	}
	kind := KindOf(err)
	if kind == ErrInternal {
		return ErrInternal.Error()
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Err != nil {
		return ae.Err.Error()
	}
	return kind.Error()
}

// Label is a short lowercase name for kind, used in metrics and logs.
func Label(err error) string {
	switch KindOf(err) {
	case nil:
		return "ok"
	case ErrValidation:
		return "validation"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrForbidden:
		return "forbidden"
	case ErrNotFound:
		return "not_found"
	case ErrConflict:
		return "conflict"
	case ErrTimeout:
		return "timeout"
	default:
		return "internal"
	}
}
