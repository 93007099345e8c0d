package sandbox

import (
	"context"
	"testing"

	"github.com/deepnoodle-ai/peek/bytecode"
	"github.com/deepnoodle-ai/peek/compiler"
	"github.com/deepnoodle-ai/peek/parser"
	"github.com/stretchr/testify/require"
)

func compileExpr(t *testing.T, source string) *bytecode.Code {
	t.Helper()
	program, err := parser.Parse(context.Background(), source)
	require.NoError(t, err)
	code, err := compiler.Compile(program, &compiler.Config{
		LocalNames:  []string{"items", "obj", "x"},
		GlobalNames: []string{"counter"},
	})
	require.NoError(t, err)
	return code
}

func TestClassifyRejects(t *testing.T) {
	tests := []struct {
		input string
		rule  string
	}{
		{"obj.name = 'x'", RuleWriteInstruction},
		{"counter = 2", RuleWriteInstruction},
		{"const limit = 3", RuleWriteInstruction},
		{"struct Point { x, y }", RuleWriteInstruction},
		{"items += [1]", RuleWriteInstruction},
		{"items[0] = 1", RuleWriteInstruction},
		{"(() => { x = 1 })()", RuleWriteInstruction},
		{"let y = 1", RuleLocalWrite},
		{"x = 5", RuleLocalWrite},
		{"items.map(i => i * 2)", RuleBlockArgument},
		{"try { 1 } catch e { 2 }", RuleRescueHandler},
		{"try { 1 } catch e { 2 } finally { 3 }", RuleRescueHandler},
		{"(() => { try { 1 } catch { 2 } })()", RuleRescueHandler},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			verdict := Classify(compileExpr(t, tt.input))
			require.False(t, verdict.Allowed())
			require.Equal(t, tt.rule, verdict.Rule)
			require.Equal(t, ProhibitedInstruction, verdict.Err.Kind)
			require.NotNil(t, verdict.Program)
		})
	}
}

func TestClassifyAllows(t *testing.T) {
	tests := []string{
		"x + 1",
		"items[0]",
		"obj.name",
		"counter * 2",
		"'abc'.to_upper()",
		"len(items) > 2 ? 'many' : 'few'",
		"(n => { let doubled = n * 2\n return doubled })(x)",
		"try { x } finally { 1 }",
		"if (x > 1) { 'big' } else { 'small' }",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			verdict := Classify(compileExpr(t, input))
			require.True(t, verdict.Allowed(), "rejected: %v", verdict.Err)
			require.Empty(t, verdict.Rule)
		})
	}
}

func TestClassifyAllowLocalWrites(t *testing.T) {
	code := compileExpr(t, "let y = 1\ny + x")
	require.False(t, Classify(code).Allowed())
	require.True(t, Classify(code, AllowLocalWrites()).Allowed())

	code = compileExpr(t, "let y = 1\nobj.y = y")
	verdict := Classify(code, AllowLocalWrites())
	require.False(t, verdict.Allowed())
	require.Equal(t, RuleWriteInstruction, verdict.Rule)
}

func TestClassifyMessage(t *testing.T) {
	verdict := Classify(compileExpr(t, "1\nobj.name = 'x'"))
	require.Equal(t, "Mutating instruction STORE_ATTR (store into object field) is not allowed (line 2)",
		verdict.Err.Message)
}
