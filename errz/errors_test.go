package errz

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type fatal struct{}

func (fatal) Error() string { return "fatal" }
func (fatal) IsFatal() bool { return true }

func TestStructuredErrorMessage(t *testing.T) {
	err := NewStructuredErrorf(ErrName, SourceLocation{Line: 1, Column: 5, Source: "1 + foo"}, nil,
		"undefined variable %q", "foo")
	require.Equal(t, `name error: undefined variable "foo" (1:5)`, err.Error())
	require.Contains(t, err.FriendlyErrorMessage(), " |     ^")

	noLoc := NewStructuredError(ErrRuntime, "boom", SourceLocation{}, nil)
	require.Equal(t, "runtime error: boom", noLoc.Error())
}

func TestStructuredErrorUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := NewStructuredError(ErrValue, "bad", SourceLocation{}, nil).WithCause(cause)
	require.ErrorIs(t, err, cause)
}

func TestFormatStackTrace(t *testing.T) {
	require.Equal(t, "", FormatStackTrace(nil))
	out := FormatStackTrace([]StackFrame{
		{Function: "inner", Location: SourceLocation{Filename: "expr", Line: 2, Column: 3}},
		{Location: SourceLocation{Line: 1, Column: 1}},
	})
	require.Equal(t, "Stack trace:\n  at inner (expr:2:3)\n  at 1:1\n", out)
}

func TestIsFatal(t *testing.T) {
	require.False(t, IsFatal(nil))
	require.False(t, IsFatal(NewStructuredError(ErrType, "x", SourceLocation{}, nil)))
	require.True(t, IsFatal(fatal{}))
	require.True(t, IsFatal(fmt.Errorf("wrapped: %w", fatal{})))
	require.True(t, IsFatal(context.Canceled))
	require.True(t, IsFatal(fmt.Errorf("op: %w", context.DeadlineExceeded)))
}
