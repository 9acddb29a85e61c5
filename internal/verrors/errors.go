// Package verrors defines the error-kind taxonomy of the verification core:
// codec rejection, IR-construction invariants, global-generator lookup
// failures, type-consistency checks, and the two solver-reported outcomes.
package verrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is one of the eight error kinds the core distinguishes.
type Kind string

const (
	CorruptFile          Kind = "CorruptFile"
	DuplicateDeclaration Kind = "DuplicateDeclaration"
	UnresolvedName       Kind = "UnresolvedName"
	TypeInconsistency    Kind = "TypeInconsistency"
	UnsupportedOpcode    Kind = "UnsupportedOpcode"
	UnsupportedFeature   Kind = "UnsupportedFeature"
	VerificationFailure  Kind = "VerificationFailure"
	VerificationUnknown  Kind = "VerificationUnknown"
)

// Attributes is the opaque, describable payload an IR Entry carries. The
// core never interprets these beyond rendering them into an error message;
// satisfied by ir.AttributeBag without this package importing internal/ir.
type Attributes interface {
	Describe() string
}

// CoreError is the error type returned for every one of the Kind values
// above. Mirrors the shape of the teacher's SentraError (type + message +
// location) but keyed to the VC core's own taxonomy.
type CoreError struct {
	Kind    Kind
	Message string
	Attrs   Attributes // nil when the error has no associated IR location
	cause   error
}

func (e *CoreError) Error() string {
	if e.Attrs != nil {
		return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Message, e.Attrs.Describe())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error { return e.cause }

// New builds a CoreError of the given kind with no wrapped cause.
func New(kind Kind, format string, args ...interface{}) *CoreError {
	return &CoreError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a CoreError of the given kind, capturing a stack trace on the
// wrapped cause via github.com/pkg/errors so that CorruptFile and
// DuplicateDeclaration failures — which abort the current compilation unit —
// keep enough context to debug after propagation.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *CoreError {
	return &CoreError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		cause:   errors.WithStack(cause),
	}
}

// WithAttrs attaches the originating Entry's attribute bag to an error,
// e.g. a VerificationFailure reported "with location attributes preserved
// from the originating Entry".
func (e *CoreError) WithAttrs(attrs Attributes) *CoreError {
	e.Attrs = attrs
	return e
}

// Is lets errors.Is(err, verrors.CorruptFile) style checks work by kind.
func (e *CoreError) Is(target error) bool {
	other, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Sentinel returns a zero-message CoreError of a kind, suitable as an
// errors.Is target: verrors.Is(err, verrors.Sentinel(verrors.CorruptFile)).
func Sentinel(kind Kind) *CoreError { return &CoreError{Kind: kind} }

// Crash panics with a stack-carrying CoreError for an internal invariant
// violation — a programmer error, not a program error (§7: "should crash
// with a location pointing at the offending Entry's attributes").
func Crash(attrs Attributes, format string, args ...interface{}) {
	err := &CoreError{
		Kind:    "InvariantViolation",
		Message: fmt.Sprintf(format, args...),
		Attrs:   attrs,
		cause:   errors.WithStack(fmt.Errorf("internal invariant violated")),
	}
	panic(err)
}
