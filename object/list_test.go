package object

import (
	"context"
	"testing"

	"github.com/deepnoodle-ai/peek/op"
	"github.com/stretchr/testify/require"
)

func callMethod0(t *testing.T, obj Object, name string, args ...Object) Object {
	t.Helper()
	attr, ok := obj.GetAttr(name)
	require.True(t, ok, "missing method %s", name)
	result, err := attr.(*Builtin).Call(context.Background(), args...)
	require.NoError(t, err)
	return result
}

func TestListSortReturnsCopy(t *testing.T) {
	ls := NewList([]Object{NewInt(3), NewInt(1), NewInt(2)})
	sorted := callMethod0(t, ls, "sort")
	require.Equal(t, "[1, 2, 3]", sorted.Inspect())
	require.Equal(t, "[3, 1, 2]", ls.Inspect())

	reversed := callMethod0(t, ls, "reverse")
	require.Equal(t, "[2, 1, 3]", reversed.Inspect())
	require.Equal(t, "[3, 1, 2]", ls.Inspect())
}

func TestListSortNonComparable(t *testing.T) {
	ls := NewList([]Object{NewInt(1), NewMap(nil)})
	attr, ok := ls.GetAttr("sort")
	require.True(t, ok)
	_, err := attr.(*Builtin).Call(context.Background())
	require.Error(t, err)
}

func TestListMutators(t *testing.T) {
	ls := NewList([]Object{NewInt(1)})
	callMethod0(t, ls, "append", NewInt(2))
	callMethod0(t, ls, "insert", NewInt(0), NewInt(0))
	require.Equal(t, "[0, 1, 2]", ls.Inspect())

	popped := callMethod0(t, ls, "pop", NewInt(-1))
	require.Equal(t, NewInt(2), popped)
	callMethod0(t, ls, "remove", NewInt(0))
	require.Equal(t, "[1]", ls.Inspect())
	callMethod0(t, ls, "clear")
	require.Equal(t, int64(0), ls.Len())
}

func TestListMethodBinding(t *testing.T) {
	ls := NewList(nil)
	attr, ok := ls.GetAttr("append")
	require.True(t, ok)
	builtin := attr.(*Builtin)
	require.Same(t, ls, builtin.Receiver())
	require.Equal(t, "append", builtin.Method())
	require.Equal(t, "list.append", builtin.Name())

	_, err := builtin.Call(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "list.append: expected 1 argument, got 0")
}

func TestListIndexing(t *testing.T) {
	ls := NewList([]Object{NewString("a"), NewString("b"), NewString("c")})
	item, err := ls.GetItem(NewInt(-1))
	require.NoError(t, err)
	require.Equal(t, "c", item.(*String).Value())

	_, err = ls.GetItem(NewInt(3))
	require.Error(t, err)

	slice, err := ls.GetSlice(Slice{Start: NewInt(1), Stop: Nil})
	require.NoError(t, err)
	require.Equal(t, `["b", "c"]`, slice.Inspect())

	require.True(t, ls.Contains(NewString("b")))
	require.False(t, ls.Contains(NewString("z")))
}

func TestListOperations(t *testing.T) {
	a := NewList([]Object{NewInt(1)})
	b := NewList([]Object{NewInt(2)})
	result, err := a.RunOperation(op.Add, b)
	require.NoError(t, err)
	require.Equal(t, "[1, 2]", result.Inspect())
	require.Equal(t, "[1]", a.Inspect())

	result, err = InplaceOp(op.Add, a, b)
	require.NoError(t, err)
	require.Same(t, a, result)
	require.Equal(t, "[1, 2]", a.Inspect())
}

func TestListMapWithCallFunc(t *testing.T) {
	double := NewBuiltin("double", func(ctx context.Context, args ...Object) (Object, error) {
		return NewInt(args[0].(*Int).Value() * 2), nil
	})
	var calls int
	ctx := WithCallFunc(context.Background(), func(ctx context.Context, fn Object, args []Object) (Object, error) {
		calls++
		return fn.(Callable).Call(ctx, args...)
	})
	ls := NewList([]Object{NewInt(1), NewInt(2)})
	result, err := ls.Map(ctx, double)
	require.NoError(t, err)
	require.Equal(t, "[2, 4]", result.Inspect())
	require.Equal(t, 2, calls)
}

func TestListInspectSelfReference(t *testing.T) {
	ls := NewList(nil)
	ls.Append(ls)
	require.Equal(t, "[[...]]", ls.Inspect())
}

func TestTruthiness(t *testing.T) {
	tests := []struct {
		obj    Object
		truthy bool
	}{
		{Nil, false},
		{False, false},
		{True, true},
		{NewInt(0), false},
		{NewInt(5), true},
		{NewFloat(0), false},
		{NewString(""), false},
		{NewString("x"), true},
		{NewList(nil), false},
		{NewList([]Object{Nil}), true},
		{NewMap(nil), false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.truthy, tt.obj.IsTruthy(), tt.obj.Inspect())
	}
}
