package object

import (
	"context"
	"errors"
	"fmt"

	"github.com/deepnoodle-ai/peek/errz"
	"github.com/deepnoodle-ai/peek/op"
)

var errorMethods = NewMethodRegistry[*Error]("error")

func init() {
	errorMethods.Define("message").
		Doc("Get the error message").
		Impl(func(e *Error, ctx context.Context, args ...Object) (Object, error) {
			return NewString(e.Message()), nil
		})

	errorMethods.Define("kind").
		Doc("Get the error kind, such as \"type error\"").
		Impl(func(e *Error, ctx context.Context, args ...Object) (Object, error) {
			if structured, ok := e.structured(); ok {
				return NewString(structured.Kind.String()), nil
			}
			return NewString("error"), nil
		})

	errorMethods.Define("line").
		Doc("Get the 1-based source line, or 0 if unknown").
		Impl(func(e *Error, ctx context.Context, args ...Object) (Object, error) {
			if structured, ok := e.structured(); ok {
				return NewInt(int64(structured.Location.Line)), nil
			}
			return NewInt(0), nil
		})

	errorMethods.Define("column").
		Doc("Get the 1-based source column, or 0 if unknown").
		Impl(func(e *Error, ctx context.Context, args ...Object) (Object, error) {
			if structured, ok := e.structured(); ok {
				return NewInt(int64(structured.Location.Column)), nil
			}
			return NewInt(0), nil
		})
}

// Error wraps a Go error so it can be caught and inspected by programs.
type Error struct {
	err error
}

// ErrorMethods returns the names of the methods available on errors.
func ErrorMethods() []string {
	return errorMethods.Names()
}

func (e *Error) Type() Type {
	return ERROR
}

func (e *Error) Inspect() string {
	return fmt.Sprintf("error(%q)", e.Message())
}

func (e *Error) String() string {
	return e.Inspect()
}

func (e *Error) Value() error {
	return e.err
}

// Message returns the error message without its kind prefix or location.
func (e *Error) Message() string {
	if structured, ok := e.structured(); ok {
		return structured.Message
	}
	return e.err.Error()
}

func (e *Error) structured() (*errz.StructuredError, bool) {
	var structured *errz.StructuredError
	if errors.As(e.err, &structured) {
		return structured, true
	}
	return nil, false
}

func (e *Error) GetAttr(name string) (Object, bool) {
	return errorMethods.GetAttr(e, name)
}

func (e *Error) SetAttr(name string, value Object) error {
	return TypeErrorf("error has no attribute %q", name)
}

func (e *Error) Interface() any {
	return e.err
}

func (e *Error) Equals(other Object) bool {
	otherErr, ok := other.(*Error)
	return ok && e.err.Error() == otherErr.err.Error()
}

func (e *Error) IsTruthy() bool {
	return true
}

func (e *Error) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperation(opType, e, right)
}

// Unwrap returns the wrapped Go error.
func (e *Error) Unwrap() error {
	return e.err
}

func NewError(err error) *Error {
	return &Error{err: err}
}

// Errorf creates an Error with a formatted runtime error message.
func Errorf(format string, a ...any) *Error {
	return NewError(EvalErrorf(format, a...))
}
