package runtime

import (
	"context"
	"testing"

	"github.com/deepnoodle-ai/peek/object"
	"github.com/stretchr/testify/require"
)

func TestIntrospection(t *testing.T) {
	result, err := NumGoroutine(context.Background())
	require.NoError(t, err)
	require.Greater(t, result.(*object.Int).Value(), int64(0))

	stats, err := MemStats(context.Background())
	require.NoError(t, err)
	require.True(t, stats.(*object.Map).Contains(object.NewString("heap_alloc")))

	_, err = NumCPU(context.Background(), object.NewInt(1))
	require.Error(t, err)
}

func TestModuleAttrs(t *testing.T) {
	m := Module()
	require.Equal(t, "runtime", m.ReceiverName())
	goos, ok := m.GetAttr("goos")
	require.True(t, ok)
	require.Equal(t, object.STRING, goos.Type())
}
