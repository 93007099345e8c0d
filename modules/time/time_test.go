package time

import (
	"context"
	"testing"

	"github.com/deepnoodle-ai/peek/object"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	result, err := Parse(context.Background(),
		object.NewString("2006-01-02"), object.NewString("2024-03-05"))
	require.NoError(t, err)
	tm := result.(*object.Time).Value()
	require.Equal(t, 2024, tm.Year())
	require.Equal(t, 5, tm.Day())

	_, err = Parse(context.Background(), object.NewString("2006-01-02"), object.NewString("nope"))
	require.Error(t, err)
}

func TestUnix(t *testing.T) {
	result, err := Unix(context.Background(), object.NewInt(0))
	require.NoError(t, err)
	require.Equal(t, int64(0), result.(*object.Time).Value().Unix())
}

func TestSince(t *testing.T) {
	now, err := Now(context.Background())
	require.NoError(t, err)
	elapsed, err := Since(context.Background(), now)
	require.NoError(t, err)
	require.GreaterOrEqual(t, elapsed.(*object.Float).Value(), 0.0)
}
