package compiler

import (
	"context"
	"errors"
	"testing"

	"github.com/deepnoodle-ai/peek/bytecode"
	"github.com/deepnoodle-ai/peek/errz"
	"github.com/deepnoodle-ai/peek/op"
	"github.com/deepnoodle-ai/peek/parser"
	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, input string, cfg *Config) (*bytecode.Code, error) {
	t.Helper()
	program, err := parser.Parse(context.Background(), input)
	require.NoError(t, err)
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.Source = input
	return Compile(program, cfg)
}

func mustCompile(t *testing.T, input string, cfg *Config) *bytecode.Code {
	t.Helper()
	code, err := compileSource(t, input, cfg)
	require.NoError(t, err)
	return code
}

func instructions(code *bytecode.Code) [][]op.Code {
	return bytecode.NewInstructionIter(code).All()
}

func opcodes(code *bytecode.Code) []op.Code {
	var result []op.Code
	for _, instr := range instructions(code) {
		result = append(result, instr[0])
	}
	return result
}

func TestCompileLocalExpression(t *testing.T) {
	code := mustCompile(t, "x + 1", &Config{LocalNames: []string{"x"}})
	require.Equal(t, [][]op.Code{
		{op.LoadFast, 0},
		{op.LoadConst, 0},
		{op.BinaryOp, op.Code(op.Add)},
		{op.ReturnValue},
	}, instructions(code))
	require.Equal(t, int64(1), code.ConstantAt(0))
	require.Equal(t, 1, code.LocalCount())
	require.Equal(t, "x", code.LocalNameAt(0))
}

func TestCompileResolutionOrder(t *testing.T) {
	cfg := &Config{
		LocalNames:   []string{"b", "a"},
		GlobalNames:  []string{"limit", "len"},
		BuiltinNames: []string{"len", "str"},
	}
	code := mustCompile(t, "a; limit; str", cfg)

	// Frame locals are sorted; globals come before builtins and hide them
	require.Equal(t, "a", code.LocalNameAt(0))
	require.Equal(t, "b", code.LocalNameAt(1))
	require.Equal(t, 3, code.GlobalNameCount())
	require.Equal(t, "len", code.GlobalNameAt(0))
	require.Equal(t, "limit", code.GlobalNameAt(1))
	require.Equal(t, "str", code.GlobalNameAt(2))

	require.Equal(t, [][]op.Code{
		{op.LoadFast, 0},
		{op.PopTop},
		{op.LoadGlobal, 1},
		{op.PopTop},
		{op.LoadGlobal, 2},
		{op.ReturnValue},
	}, instructions(code))
}

func TestCompileLocalShadowsGlobal(t *testing.T) {
	code := mustCompile(t, "name", &Config{
		LocalNames:  []string{"name"},
		GlobalNames: []string{"name"},
	})
	require.Equal(t, []op.Code{op.LoadFast, op.ReturnValue}, opcodes(code))
}

func TestCompileUndefinedVariable(t *testing.T) {
	_, err := compileSource(t, "foo + 1", nil)
	require.Error(t, err)
	var structured *errz.StructuredError
	require.True(t, errors.As(err, &structured))
	require.Equal(t, errz.ErrName, structured.Kind)
	require.Equal(t, `undefined variable "foo"`, structured.Message)
	require.Equal(t, 1, structured.Location.Line)
	require.Equal(t, 1, structured.Location.Column)
	require.Equal(t, "foo + 1", structured.Location.Source)
}

func TestCompileAssignUndefined(t *testing.T) {
	_, err := compileSource(t, "let x = 1\ny = x + 1", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), `undefined variable "y"`)
}

func TestCompileConstReassign(t *testing.T) {
	_, err := compileSource(t, "const X = 1\nX = 2", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), `cannot assign to constant "X"`)
}

func TestCompileWrites(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect op.Code
	}{
		{"let", "let y = 1", op.StoreFast},
		{"assign local", "x = 2", op.StoreFast},
		{"assign global", "counter = 2", op.StoreGlobal},
		{"const", "const Y = 3", op.StoreConst},
		{"struct", "struct Point { x, y }", op.DefineStruct},
		{"compound", "x += 1", op.InplaceOp},
		{"set item", "items[0] = 1", op.StoreSubscr},
		{"set attr", "obj.name = 'a'", op.StoreAttr},
	}
	cfg := func() *Config {
		return &Config{
			LocalNames:  []string{"x", "items", "obj"},
			GlobalNames: []string{"counter"},
		}
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := mustCompile(t, tt.input, cfg())
			require.Contains(t, opcodes(code), tt.expect)
		})
	}
}

func TestCompileCompoundAssign(t *testing.T) {
	code := mustCompile(t, "x += 2", &Config{LocalNames: []string{"x"}})
	require.Equal(t, [][]op.Code{
		{op.LoadFast, 0},
		{op.LoadConst, 0},
		{op.InplaceOp, op.Code(op.Add)},
		{op.StoreFast, 0},
		{op.Nil},
		{op.ReturnValue},
	}, instructions(code))
}

func TestCompileStructConstant(t *testing.T) {
	code := mustCompile(t, "struct Point { x, y }", nil)
	def, ok := code.ConstantAt(0).(*bytecode.StructDef)
	require.True(t, ok)
	require.Equal(t, "Point", def.Name())
	require.Equal(t, 2, def.FieldCount())
	require.Equal(t, []op.Code{op.DefineStruct, op.StoreConst, op.Nil, op.ReturnValue}, opcodes(code))
}

func TestCompileMethodCall(t *testing.T) {
	code := mustCompile(t, "items.index(3)", &Config{LocalNames: []string{"items"}})
	require.Equal(t, [][]op.Code{
		{op.LoadFast, 0},
		{op.LoadAttr, 0},
		{op.LoadConst, 0},
		{op.Call, 1, 0},
		{op.ReturnValue},
	}, instructions(code))
	require.Equal(t, "index", code.NameAt(0))
	require.Equal(t, 1, code.MaxCallArgs())
}

func TestCompileBlockArgFlag(t *testing.T) {
	code := mustCompile(t, "items.map(x => x * 2)", &Config{LocalNames: []string{"items"}})
	var call []op.Code
	for _, instr := range instructions(code) {
		if instr[0] == op.Call {
			call = instr
		}
	}
	require.NotNil(t, call)
	require.Equal(t, op.CallFlagBlockArg, call[2]&op.CallFlagBlockArg)
}

func TestCompileClosureCapturesFrameLocal(t *testing.T) {
	code := mustCompile(t, "(x => x + offset)(1)", &Config{LocalNames: []string{"offset"}})
	require.Equal(t, 1, code.ChildCount())
	require.Equal(t, [][]op.Code{
		{op.MakeCell, 0, op.Code(op.CellFromLocal)},
		{op.LoadClosure, 0, 1},
		{op.LoadConst, 1},
		{op.Call, 1, 0},
		{op.ReturnValue},
	}, instructions(code))

	fn, ok := code.ConstantAt(0).(*bytecode.Function)
	require.True(t, ok)
	require.Equal(t, 1, fn.ParameterCount())
	require.Same(t, code.ChildAt(0), fn.Code())
	require.Equal(t, []op.Code{op.LoadFast, op.LoadFree, op.BinaryOp, op.ReturnValue}, opcodes(fn.Code()))
	require.False(t, fn.Code().IsRoot())
}

func TestCompileNestedClosure(t *testing.T) {
	code := mustCompile(t, "(a => (b => a + b))(1)(2)", nil)
	outer := code.ChildAt(0)
	require.Equal(t, 1, outer.ChildCount())
	// The inner function captures the outer parameter from a local slot
	require.Equal(t, [][]op.Code{
		{op.MakeCell, 0, op.Code(op.CellFromLocal)},
		{op.LoadClosure, 0, 1},
		{op.ReturnValue},
	}, instructions(outer))
}

func TestCompileLogicalOperators(t *testing.T) {
	code := mustCompile(t, "a && b", &Config{LocalNames: []string{"a", "b"}})
	require.Equal(t, [][]op.Code{
		{op.LoadFast, 0},
		{op.Copy, 0},
		{op.PopJumpForwardIfFalse, 5},
		{op.PopTop},
		{op.LoadFast, 1},
		{op.ReturnValue},
	}, instructions(code))
}

func TestCompileIfExpression(t *testing.T) {
	code := mustCompile(t, "if (a) { 1 } else { 2 }", &Config{LocalNames: []string{"a"}})
	require.Equal(t, [][]op.Code{
		{op.LoadFast, 0},
		{op.PopJumpForwardIfFalse, 6},
		{op.LoadConst, 0},
		{op.JumpForward, 4},
		{op.LoadConst, 1},
		{op.ReturnValue},
	}, instructions(code))
}

func TestCompileNotIn(t *testing.T) {
	code := mustCompile(t, "1 not in items", &Config{LocalNames: []string{"items"}})
	require.Equal(t, [][]op.Code{
		{op.LoadConst, 0},
		{op.LoadFast, 0},
		{op.ContainsOp, 1},
		{op.ReturnValue},
	}, instructions(code))
}

func TestCompileTryHandlers(t *testing.T) {
	code := mustCompile(t, "try { 1 } catch e { 2 }", nil)
	require.Equal(t, 1, code.ExceptionHandlerCount())
	handler := code.ExceptionHandlerAt(0)
	require.Equal(t, bytecode.HandlerRescue, handler.Kind)
	require.Equal(t, 0, handler.CatchVarIdx)
	require.Greater(t, handler.CatchStart, handler.TryStart)

	code = mustCompile(t, "try { 1 } finally { 2 }", nil)
	require.Equal(t, 1, code.ExceptionHandlerCount())
	handler = code.ExceptionHandlerAt(0)
	require.Equal(t, bytecode.HandlerEnsure, handler.Kind)
	require.Equal(t, 0, handler.CatchStart)
	require.Contains(t, opcodes(code), op.EndFinally)
}

func TestCompileLocations(t *testing.T) {
	code := mustCompile(t, "1\n  missing_ok", &Config{LocalNames: []string{"missing_ok"}})
	// LOAD_FAST for the identifier on line 2
	loc := code.LocationAt(3)
	require.Equal(t, 2, loc.Line)
	require.Equal(t, 3, loc.Column)
}

func TestCompileEmptyProgram(t *testing.T) {
	code := mustCompile(t, "", nil)
	require.Equal(t, []op.Code{op.Nil, op.ReturnValue}, opcodes(code))
}

func TestCompileStatementValueIsNil(t *testing.T) {
	code := mustCompile(t, "let a = 1", nil)
	require.Equal(t, []op.Code{op.LoadConst, op.StoreFast, op.Nil, op.ReturnValue}, opcodes(code))
}
