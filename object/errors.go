package object

import (
	"fmt"

	"github.com/deepnoodle-ai/peek/errz"
)

// TypeErrorf returns a type error. The VM adds the source location.
func TypeErrorf(format string, args ...any) error {
	return errz.NewStructuredErrorf(errz.ErrType, errz.SourceLocation{}, nil, format, args...)
}

// ValueErrorf returns a value error, such as an index out of range.
func ValueErrorf(format string, args ...any) error {
	return errz.NewStructuredErrorf(errz.ErrValue, errz.SourceLocation{}, nil, format, args...)
}

// EvalErrorf returns a general runtime error.
func EvalErrorf(format string, args ...any) error {
	return errz.NewStructuredErrorf(errz.ErrRuntime, errz.SourceLocation{}, nil, format, args...)
}

// Require checks that a function received exactly count arguments.
func Require(funcName string, count int, args []Object) error {
	nArgs := len(args)
	if nArgs == count {
		return nil
	}
	if count == 1 {
		return TypeErrorf("%s() takes exactly 1 argument (%d given)", funcName, nArgs)
	}
	return TypeErrorf("%s() takes exactly %d arguments (%d given)", funcName, count, nArgs)
}

// RequireRange checks that a function received between min and max arguments.
func RequireRange(funcName string, min, max int, args []Object) error {
	nArgs := len(args)
	if nArgs < min {
		return TypeErrorf("%s() takes at least %d %s (%d given)",
			funcName, min, pluralize("argument", min != 1), nArgs)
	} else if nArgs > max {
		return TypeErrorf("%s() takes at most %d %s (%d given)",
			funcName, max, pluralize("argument", max != 1), nArgs)
	}
	return nil
}

func pluralize(s string, do bool) string {
	if do {
		return s + "s"
	}
	return s
}

func unsupportedOperation(opType fmt.Stringer, left, right Object) error {
	return TypeErrorf("unsupported operation for %s: %s on type %s",
		left.Type(), opType, right.Type())
}
