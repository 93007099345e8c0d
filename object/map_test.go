package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapReads(t *testing.T) {
	m := NewMap(map[string]Object{"b": NewInt(2), "a": NewInt(1)})
	require.Equal(t, `["a", "b"]`, callMethod0(t, m, "keys").Inspect())
	require.Equal(t, "[1, 2]", callMethod0(t, m, "values").Inspect())
	require.Equal(t, NewInt(1), callMethod0(t, m, "get", NewString("a")))
	require.Equal(t, NewInt(9), callMethod0(t, m, "get", NewString("z"), NewInt(9)))
	require.Equal(t, Nil, callMethod0(t, m, "get", NewString("z")))
	require.Equal(t, `{"a": 1, "b": 2}`, m.Inspect())
}

func TestMapMutators(t *testing.T) {
	m := NewMap(nil)
	callMethod0(t, m, "set", NewString("k"), NewString("v"))
	require.True(t, m.Contains(NewString("k")))
	require.Equal(t, NewString("v"), callMethod0(t, m, "pop", NewString("k")))
	require.Equal(t, 0, m.Size())
}

func TestMapGetItem(t *testing.T) {
	m := NewMap(map[string]Object{"a": NewInt(1)})
	_, err := m.GetItem(NewString("missing"))
	require.Error(t, err)
	_, err = m.GetItem(NewInt(1))
	require.Error(t, err)
	value, err := m.GetItem(NewString("a"))
	require.NoError(t, err)
	require.Equal(t, NewInt(1), value)
}
