package regexp

import (
	"context"
	"testing"

	"github.com/deepnoodle-ai/peek/object"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	result, err := Compile(context.Background(), object.NewString(`\d+`))
	require.NoError(t, err)
	re := result.(*object.Regexp)

	attr, ok := re.GetAttr("find_all")
	require.True(t, ok)
	found, err := attr.(*object.Builtin).Call(context.Background(), object.NewString("a1b22"))
	require.NoError(t, err)
	require.Equal(t, `["1", "22"]`, found.Inspect())

	_, err = Compile(context.Background(), object.NewString(`(`))
	require.Error(t, err)
}

func TestMatch(t *testing.T) {
	result, err := Match(context.Background(), object.NewString(`^a`), object.NewString("abc"))
	require.NoError(t, err)
	require.Equal(t, object.True, result)
}
