package sandbox

import (
	"errors"
	"fmt"
	"strings"
)

// MutationKind classifies why an evaluation was refused.
type MutationKind int

const (
	// UnknownCause is any failure during execution that was not a detected
	// policy violation. It is treated as a possible mutation.
	UnknownCause MutationKind = iota

	// ProhibitedInstruction means the compiled expression, or a function it
	// called, contains an instruction that writes state. Compilation
	// failures are reported with this kind as well.
	ProhibitedInstruction

	// ProhibitedCall means execution reached a call that the policy does
	// not allow.
	ProhibitedCall
)

func (k MutationKind) String() string {
	switch k {
	case UnknownCause:
		return "unknown cause"
	case ProhibitedInstruction:
		return "prohibited instruction"
	case ProhibitedCall:
		return "prohibited call"
	default:
		return "invalid"
	}
}

// CompilationFailurePrefix starts the message of a MutationError raised for
// an expression that failed to compile.
const CompilationFailurePrefix = "Unable to compile expression"

// MutationError is the failure result of an evaluation. It is fatal to the
// VM, so no catch or finally block in the expression can intercept it.
type MutationError struct {
	Kind    MutationKind
	Message string
	cause   error
}

func newMutationError(kind MutationKind, format string, args ...any) *MutationError {
	return &MutationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func compilationFailure(err error) *MutationError {
	return &MutationError{
		Kind:    ProhibitedInstruction,
		Message: fmt.Sprintf("%s: %s", CompilationFailurePrefix, err),
		cause:   err,
	}
}

func unknownCause(err error) *MutationError {
	return &MutationError{Kind: UnknownCause, Message: err.Error(), cause: err}
}

func (e *MutationError) Error() string {
	return e.Message
}

// IsFatal marks the error as one the evaluated program cannot handle.
func (e *MutationError) IsFatal() bool {
	return true
}

func (e *MutationError) Unwrap() error {
	return e.cause
}

// IsCompilationFailure reports whether err is a MutationError raised because
// the expression text could not be compiled.
func IsCompilationFailure(err error) bool {
	var mutationErr *MutationError
	if !errors.As(err, &mutationErr) {
		return false
	}
	return mutationErr.Kind == ProhibitedInstruction &&
		strings.HasPrefix(mutationErr.Message, CompilationFailurePrefix)
}

// KindOf returns the kind of the MutationError in err's chain.
func KindOf(err error) (MutationKind, bool) {
	var mutationErr *MutationError
	if !errors.As(err, &mutationErr) {
		return UnknownCause, false
	}
	return mutationErr.Kind, true
}
