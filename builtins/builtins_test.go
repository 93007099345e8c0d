package builtins

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/deepnoodle-ai/peek/object"
	"github.com/stretchr/testify/require"
)

func ints(values ...int64) *object.List {
	items := make([]object.Object, len(values))
	for i, v := range values {
		items[i] = object.NewInt(v)
	}
	return object.NewList(items)
}

func TestLen(t *testing.T) {
	ctx := context.Background()
	result, err := Len(ctx, object.NewString("héllo"))
	require.NoError(t, err)
	require.Equal(t, object.NewInt(5), result)

	result, err = Len(ctx, ints(1, 2))
	require.NoError(t, err)
	require.Equal(t, object.NewInt(2), result)

	_, err = Len(ctx, object.NewInt(1))
	require.Error(t, err)
}

func TestSortedDoesNotMutate(t *testing.T) {
	list := ints(3, 1, 2)
	result, err := Sorted(context.Background(), list)
	require.NoError(t, err)
	require.Equal(t, "[1, 2, 3]", result.Inspect())
	require.Equal(t, "[3, 1, 2]", list.Inspect())
}

func TestSumMinMax(t *testing.T) {
	ctx := context.Background()
	result, err := Sum(ctx, ints(1, 2, 3))
	require.NoError(t, err)
	require.Equal(t, object.NewInt(6), result)

	result, err = Min(ctx, ints(4, 2, 9))
	require.NoError(t, err)
	require.Equal(t, object.NewInt(2), result)

	result, err = Max(ctx, object.NewInt(4), object.NewFloat(7.5))
	require.NoError(t, err)
	require.Equal(t, object.NewFloat(7.5), result)

	_, err = Max(ctx, object.NewList(nil))
	require.Error(t, err)
}

func TestConversions(t *testing.T) {
	ctx := context.Background()
	result, err := Int(ctx, object.NewString("0x10"))
	require.NoError(t, err)
	require.Equal(t, object.NewInt(16), result)

	_, err = Int(ctx, object.NewString("abc"))
	require.Error(t, err)

	result, err = Str(ctx, ints(1))
	require.NoError(t, err)
	require.Equal(t, "[1]", result.(*object.String).Value())

	result, err = Type(ctx, object.NewMap(nil))
	require.NoError(t, err)
	require.Equal(t, "map", result.(*object.String).Value())
}

func TestPrintWritesToContextOutput(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithOutput(context.Background(), &buf)
	_, err := Print(ctx, object.NewString("a"), object.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, "a 1\n", buf.String())
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := Sleep(ctx, object.NewInt(5))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDefaults(t *testing.T) {
	defaults := Defaults()
	for _, name := range []string{"len", "string", "list", "map", "error", "math", "time", "regexp", "runtime"} {
		require.Contains(t, defaults, name)
	}
	class, ok := defaults["list"].(*object.Class)
	require.True(t, ok)
	result, err := class.Call(context.Background(), object.NewString("ab"))
	require.NoError(t, err)
	require.Equal(t, `["a", "b"]`, result.Inspect())
}

func TestErrorClass(t *testing.T) {
	result, err := newError(context.Background(), object.NewString("bad %d"), object.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, "bad 3", result.(*object.Error).Message())
}
