package vm

import (
	"context"
	"errors"
	"testing"

	"github.com/deepnoodle-ai/peek/object"
	"github.com/stretchr/testify/require"
)

// runWithLog runs the source with a "log" global list that finally blocks
// can append to, since a failed run has no result to inspect.
func runWithLog(t *testing.T, source string) (object.Object, []string, error) {
	t.Helper()
	log := object.NewList(nil)
	result, err := run(t, source, runOpts{Globals: map[string]any{"log": log}})
	var entries []string
	for _, item := range log.Value() {
		entries = append(entries, object.PrintableValue(item))
	}
	return result, entries, err
}

func TestTryCatch(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected object.Object
	}{
		{"no error", "try { 1 } catch e { 2 }", object.NewInt(1)},
		{"thrown string", "try { throw 'boom' } catch e { e.message() }", object.NewString("boom")},
		{"thrown error", "try { throw error('bad %d', 7) } catch e { e.message() }", object.NewString("bad 7")},
		{"type error", "try { 1 + 'a' } catch e { e.kind() }", object.NewString("type error")},
		{"error line", "try {\n  [1][5]\n} catch e { e.line() }", object.NewInt(2)},
		{"no catch var", "try { throw 'x' } catch { 'caught' }", object.NewString("caught")},
		{"from function", "let f = () => { throw 'deep' }\ntry { f() } catch e { e.message() }", object.NewString("deep")},
		{"from callback", "try { [1].map(x => x / 0) } catch e { e.message() }", object.NewString("division by zero")},
		{"value after try", "let v = try { throw 'x' } catch e { 5 }\nv + 1", object.NewInt(6)},
		{"nested", "try { try { throw 'inner' } catch e { throw 'outer' } } catch e { e.message() }", object.NewString("outer")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := run(t, tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.expected, result)
		})
	}
}

func TestThrowInvalidValue(t *testing.T) {
	_, err := run(t, "throw 42")
	require.Error(t, err)
	require.Contains(t, err.Error(), "throw requires an error or a string (got int)")
}

func TestUncaughtThrow(t *testing.T) {
	_, err := run(t, "throw 'unhandled'")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unhandled")
}

func TestFinally(t *testing.T) {
	t.Run("normal completion", func(t *testing.T) {
		result, log, err := runWithLog(t, "try { 1 } finally { log.append('f') }")
		require.NoError(t, err)
		require.Equal(t, object.NewInt(1), result)
		require.Equal(t, []string{"f"}, log)
	})

	t.Run("error propagates after finally", func(t *testing.T) {
		_, log, err := runWithLog(t, "try { throw 'x' } finally { log.append('f') }")
		require.Error(t, err)
		require.Contains(t, err.Error(), "x")
		require.Equal(t, []string{"f"}, log)
	})

	t.Run("catch then finally", func(t *testing.T) {
		result, log, err := runWithLog(t, "try { throw 'x' } catch e { log.append('c')\n 2 } finally { log.append('f') }")
		require.NoError(t, err)
		require.Equal(t, object.NewInt(2), result)
		require.Equal(t, []string{"c", "f"}, log)
	})

	t.Run("error in catch runs finally", func(t *testing.T) {
		_, log, err := runWithLog(t, "try { throw 'x' } catch e { throw 'again' } finally { log.append('f') }")
		require.Error(t, err)
		require.Contains(t, err.Error(), "again")
		require.Equal(t, []string{"f"}, log)
	})

	t.Run("inner finally outer catch", func(t *testing.T) {
		result, log, err := runWithLog(t,
			"try { try { throw 'inner' } finally { log.append('f') } } catch e { e.message() }")
		require.NoError(t, err)
		require.Equal(t, object.NewString("inner"), result)
		require.Equal(t, []string{"f"}, log)
	})

	t.Run("try inside finally", func(t *testing.T) {
		_, log, err := runWithLog(t,
			"try { throw 'first' } finally { try { log.append('a') } finally { log.append('b') } }")
		require.Error(t, err)
		require.Contains(t, err.Error(), "first")
		require.Equal(t, []string{"a", "b"}, log)
	})

	t.Run("return inside try skips finally", func(t *testing.T) {
		result, log, err := runWithLog(t,
			"let f = () => { try { return 1 } finally { log.append('f') } }\nf()")
		require.NoError(t, err)
		require.Equal(t, object.NewInt(1), result)
		require.Empty(t, log)
	})
}

type fatalError struct{}

func (fatalError) Error() string { return "fatal" }
func (fatalError) IsFatal() bool { return true }

func TestFatalErrorsBypassHandlers(t *testing.T) {
	interceptor := CallInterceptorFunc(func(ctx context.Context, event CallEvent) error {
		if event.Method == "len" {
			return fatalError{}
		}
		return nil
	})
	log := object.NewList(nil)
	_, err := run(t, "try { len([1]) } catch e { log.append('c') } finally { log.append('f') }", runOpts{
		Globals:     map[string]any{"log": log},
		Interceptor: interceptor,
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, fatalError{}))
	require.Equal(t, int64(0), log.Len())
}
