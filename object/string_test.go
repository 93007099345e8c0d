package object

import (
	"context"
	"testing"

	"github.com/deepnoodle-ai/peek/op"
	"github.com/stretchr/testify/require"
)

func TestStringMethods(t *testing.T) {
	s := NewString(" Hello World ")
	require.Equal(t, "hello world", callMethod0(t, callMethod0(t, s, "trim_space"), "to_lower").(*String).Value())
	require.Equal(t, True, callMethod0(t, s, "contains", NewString("World")))
	require.Equal(t, NewInt(2), callMethod0(t, s, "count", NewString("o")))
	require.Equal(t, `["a", "b"]`, callMethod0(t, NewString("a,b"), "split", NewString(",")).Inspect())
	require.Equal(t, "a-b", callMethod0(t, NewString("-"), "join", NewStringList([]string{"a", "b"})).(*String).Value())
}

func TestStringUnknownMethod(t *testing.T) {
	_, ok := NewString("x").GetAttr("nope")
	require.False(t, ok)
}

func TestStringIndexing(t *testing.T) {
	s := NewString("héllo")
	item, err := s.GetItem(NewInt(1))
	require.NoError(t, err)
	require.Equal(t, "é", item.(*String).Value())
	require.Equal(t, int64(5), s.Len())

	slice, err := s.GetSlice(Slice{Start: NewInt(-3)})
	require.NoError(t, err)
	require.Equal(t, "llo", slice.(*String).Value())
}

func TestStringOperations(t *testing.T) {
	result, err := NewString("ab").RunOperation(op.Add, NewString("c"))
	require.NoError(t, err)
	require.Equal(t, "abc", result.(*String).Value())

	result, err = NewString("ab").RunOperation(op.Multiply, NewInt(2))
	require.NoError(t, err)
	require.Equal(t, "abab", result.(*String).Value())

	_, err = NewString("ab").RunOperation(op.Subtract, NewInt(1))
	require.Error(t, err)
}

func TestStringRepeatNegative(t *testing.T) {
	attr, _ := NewString("a").GetAttr("repeat")
	_, err := attr.(*Builtin).Call(context.Background(), NewInt(-1))
	require.Error(t, err)
}

func TestRepeatLimits(t *testing.T) {
	_, err := NewString("a").RunOperation(op.Multiply, NewInt(20000000000))
	require.ErrorContains(t, err, "repeat result exceeds")

	attr, _ := NewString("ab").GetAttr("repeat")
	_, err = attr.(*Builtin).Call(context.Background(), NewInt(MaxRepeatBytes))
	require.ErrorContains(t, err, "repeat result exceeds")

	result, err := NewString("ab").RunOperation(op.Multiply, NewInt(MaxRepeatBytes/2))
	require.NoError(t, err)
	require.Equal(t, int64(MaxRepeatBytes), result.(*String).Len())

	list := NewList([]Object{NewInt(1), NewInt(2)})
	_, err = list.RunOperation(op.Multiply, NewInt(1<<62))
	require.ErrorContains(t, err, "repeat result exceeds")

	result, err = NewList(nil).RunOperation(op.Multiply, NewInt(1<<62))
	require.NoError(t, err)
	require.Equal(t, int64(0), result.(*List).Len())

	result, err = list.RunOperation(op.Multiply, NewInt(3))
	require.NoError(t, err)
	require.Equal(t, "[1, 2, 1, 2, 1, 2]", result.Inspect())
}

func TestNumericCompare(t *testing.T) {
	result, err := Compare(op.LessThan, NewInt(1), NewFloat(1.5))
	require.NoError(t, err)
	require.Equal(t, True, result)

	result, err = Compare(op.Equal, NewInt(2), NewFloat(2))
	require.NoError(t, err)
	require.Equal(t, True, result)

	_, err = Compare(op.LessThan, NewString("a"), NewInt(1))
	require.Error(t, err)
}

func TestIntDivisionByZero(t *testing.T) {
	_, err := NewInt(1).RunOperation(op.Divide, NewInt(0))
	require.Error(t, err)
	require.Contains(t, err.Error(), "division by zero")
}
