package math

import (
	"context"
	"testing"

	"github.com/deepnoodle-ai/peek/object"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, name string, args ...object.Object) (object.Object, error) {
	t.Helper()
	attr, ok := Module().GetAttr(name)
	require.True(t, ok, "missing math.%s", name)
	return attr.(*object.Builtin).Call(context.Background(), args...)
}

func TestAbs(t *testing.T) {
	result, err := call(t, "abs", object.NewInt(-3))
	require.NoError(t, err)
	require.Equal(t, object.NewInt(3), result)

	result, err = call(t, "abs", object.NewFloat(-1.5))
	require.NoError(t, err)
	require.Equal(t, object.NewFloat(1.5), result)

	_, err = call(t, "abs", object.NewString("x"))
	require.Error(t, err)
}

func TestFloorKeepsInts(t *testing.T) {
	result, err := call(t, "floor", object.NewInt(4))
	require.NoError(t, err)
	require.Equal(t, object.NewInt(4), result)

	result, err = call(t, "floor", object.NewFloat(4.7))
	require.NoError(t, err)
	require.Equal(t, object.NewFloat(4), result)
}

func TestSum(t *testing.T) {
	list := object.NewList([]object.Object{object.NewInt(1), object.NewFloat(2.5)})
	result, err := call(t, "sum", list)
	require.NoError(t, err)
	require.Equal(t, object.NewFloat(3.5), result)

	_, err = call(t, "sum", object.NewList([]object.Object{object.NewString("a")}))
	require.Error(t, err)
}

func TestArgumentCount(t *testing.T) {
	_, err := call(t, "sqrt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "math.sqrt() takes exactly 1 argument (0 given)")
}

func TestModuleBinding(t *testing.T) {
	m := Module()
	attr, ok := m.GetAttr("pow")
	require.True(t, ok)
	builtin := attr.(*object.Builtin)
	require.Same(t, m, builtin.Receiver())
	require.Equal(t, "math.pow", builtin.Name())
}
