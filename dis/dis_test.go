package dis

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/deepnoodle-ai/peek/bytecode"
	"github.com/deepnoodle-ai/peek/compiler"
	"github.com/deepnoodle-ai/peek/op"
	"github.com/deepnoodle-ai/peek/parser"
	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, source string, config *compiler.Config) *bytecode.Code {
	t.Helper()
	program, err := parser.Parse(context.Background(), source)
	require.NoError(t, err)
	if config == nil {
		config = &compiler.Config{}
	}
	code, err := compiler.Compile(program, config)
	require.NoError(t, err)
	return code
}

func find(instructions []Instruction, opcode op.Code) (Instruction, bool) {
	for _, instr := range instructions {
		if instr.Opcode == opcode {
			return instr, true
		}
	}
	return Instruction{}, false
}

func TestDisassembleProgram(t *testing.T) {
	code := compile(t, "let f = x => x + offset\nf(1)", &compiler.Config{
		LocalNames: []string{"offset"},
	})
	listings, err := DisassembleProgram(code)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	main := listings[0]
	cell, ok := find(main.Instructions, op.MakeCell)
	require.True(t, ok)
	require.Equal(t, "local", cell.Annotation)

	load, ok := find(main.Instructions, op.LoadFast)
	require.True(t, ok)
	require.Equal(t, "f", load.Annotation)

	closure, ok := find(main.Instructions, op.LoadClosure)
	require.True(t, ok)
	_, isFunction := closure.Constant.(*bytecode.Function)
	require.True(t, isFunction)

	fn := listings[1]
	require.Equal(t, "<anonymous>", fn.Name)
	add, ok := find(fn.Instructions, op.BinaryOp)
	require.True(t, ok)
	require.Equal(t, "+", add.Annotation)
	free, ok := find(fn.Instructions, op.LoadFree)
	require.True(t, ok)
	require.Equal(t, "free_0", free.Annotation)
	param, ok := find(fn.Instructions, op.LoadFast)
	require.True(t, ok)
	require.Equal(t, "x", param.Annotation)
}

func TestAnnotations(t *testing.T) {
	tests := []struct {
		input      string
		opcode     op.Code
		annotation string
	}{
		{"limit", op.LoadGlobal, "limit"},
		{"'a' < 'b'", op.CompareOp, "<"},
		{"1 in [1]", op.ContainsOp, "in"},
		{"1 not in [1]", op.ContainsOp, "not in"},
		{"[1].map(x => x)", op.Call, "block arg"},
		{"user.name", op.LoadAttr, "name"},
		{"user.name = 'x'", op.StoreAttr, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			code := compile(t, tt.input, &compiler.Config{
				GlobalNames: []string{"limit", "user"},
			})
			instructions, err := Disassemble(code)
			require.NoError(t, err)
			instr, ok := find(instructions, tt.opcode)
			require.True(t, ok)
			require.Equal(t, tt.annotation, instr.Annotation)
		})
	}
}

func TestExceptAnnotation(t *testing.T) {
	require.Equal(t, "catch 14, finally 20", exceptAnnotation(4, 10, 16))
	require.Equal(t, "finally 9", exceptAnnotation(4, 0, 5))

	code := compile(t, "try { 1 } catch e { 2 }", nil)
	instructions, err := Disassemble(code)
	require.NoError(t, err)
	instr, ok := find(instructions, op.PushExcept)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(instr.Annotation, "catch "))
}

func TestPrint(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	code := compile(t, "let greeting = 'hi'\ngreeting + '!'", nil)
	instructions, err := Disassemble(code)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Print(instructions, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, []string{"OFFSET", "OPCODE", "OPERANDS", "INFO"}, strings.Fields(lines[0]))
	require.Len(t, lines, len(instructions)+1)
	require.Equal(t, []string{"0", "LOAD_CONST", "0", `"hi"`}, strings.Fields(lines[1]))
	require.Contains(t, buf.String(), "BINARY_OP")
}

func TestPrintProgram(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	code := compile(t, "function double(n) { return n * 2 }\ndouble(2)", nil)
	listings, err := DisassembleProgram(code)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, PrintProgram(listings, &buf))
	output := buf.String()
	require.Contains(t, output, "double")
	require.Contains(t, output, "func:double")
	require.Equal(t, 2, strings.Count(output, "OFFSET"))
}
