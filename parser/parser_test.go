package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/deepnoodle-ai/peek/ast"
	"github.com/deepnoodle-ai/peek/errz"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	program, err := Parse(context.Background(), input)
	require.NoError(t, err, input)
	return program
}

func parseErrors(t *testing.T, input string) []*errz.StructuredError {
	t.Helper()
	_, err := Parse(context.Background(), input)
	require.Error(t, err, input)
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr), "expected a multierror for %q", input)
	var result []*errz.StructuredError
	for _, e := range merr.Errors {
		var serr *errz.StructuredError
		require.True(t, errors.As(e, &serr))
		require.Equal(t, errz.ErrSyntax, serr.Kind)
		result = append(result, serr)
	}
	return result
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"a || b && c", "(a || (b && c))"},
		{"a == b || c != d", "((a == b) || (c != d))"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"-a * b", "((-a) * b)"},
		{"!a && b", "((!a) && b)"},
		{"not a", "(not a)"},
		{"a < b == c >= d", "((a < b) == (c >= d))"},
		{"x % 2 - 1", "((x % 2) - 1)"},
		{"x in [1, 2]", "(x in [1, 2])"},
		{"x not in y && z", "((x not in y) && z)"},
		{"a > 1 ? b : c", "((a > 1) ? b : c)"},
		{"a ? b : c ? d : e", "(a ? b : (c ? d : e))"},
		{"1 +\n2", "(1 + 2)"},
	}
	for _, tt := range tests {
		program := parse(t, tt.input)
		require.Len(t, program.Stmts, 1, tt.input)
		require.Equal(t, tt.expected, program.Stmts[0].String(), tt.input)
	}
}

func TestLiterals(t *testing.T) {
	program := parse(t, `[1, 2.5, "s", true, false, nil, {"a": 1, b: 2}]`)
	list, ok := program.Stmts[0].(*ast.List)
	require.True(t, ok)
	require.Len(t, list.Items, 7)
	require.Equal(t, int64(1), list.Items[0].(*ast.Int).Value)
	require.Equal(t, 2.5, list.Items[1].(*ast.Float).Value)
	require.Equal(t, "s", list.Items[2].(*ast.String).Value)
	require.True(t, list.Items[3].(*ast.Bool).Value)
	require.IsType(t, &ast.Nil{}, list.Items[5])

	m := list.Items[6].(*ast.Map)
	require.Len(t, m.Items, 2)
	require.Equal(t, "b", m.Items[1].Key.(*ast.String).Value)

	program = parse(t, "0x10")
	require.Equal(t, int64(16), program.Stmts[0].(*ast.Int).Value)
}

func TestMultilineCollections(t *testing.T) {
	program := parse(t, "[\n  1,\n  2,\n]")
	require.Len(t, program.Stmts[0].(*ast.List).Items, 2)

	program = parse(t, "{\n  \"a\": 1,\n  \"b\": 2\n}")
	require.Len(t, program.Stmts[0].(*ast.Map).Items, 2)

	program = parse(t, "f(\n  1,\n  2\n)")
	require.Len(t, program.Stmts[0].(*ast.Call).Args, 2)
}

func TestCallsAndAttributes(t *testing.T) {
	program := parse(t, "order.items.count(1, x)")
	call, ok := program.Stmts[0].(*ast.ObjectCall)
	require.True(t, ok)
	require.Equal(t, "count", call.Method())
	require.Equal(t, "order.items", call.X.String())
	require.Len(t, call.Call.Args, 2)

	program = parse(t, "len(items)[0]")
	index, ok := program.Stmts[0].(*ast.Index)
	require.True(t, ok)
	require.IsType(t, &ast.Call{}, index.X)

	program = parse(t, "user.name")
	attr, ok := program.Stmts[0].(*ast.GetAttr)
	require.True(t, ok)
	require.Equal(t, "name", attr.Attr.Name)
}

func TestSlices(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"s[1:2]", "s[1:2]"},
		{"s[:2]", "s[:2]"},
		{"s[1:]", "s[1:]"},
		{"s[:]", "s[:]"},
	}
	for _, tt := range tests {
		program := parse(t, tt.input)
		require.IsType(t, &ast.Slice{}, program.Stmts[0], tt.input)
		require.Equal(t, tt.expected, program.Stmts[0].String())
	}
}

func TestFunctions(t *testing.T) {
	tests := []struct {
		input    string
		params   int
		expected string
	}{
		{"x => x * 2", 1, "function(x) { return (x * 2) }"},
		{"(a, b) => a + b", 2, "function(a, b) { return (a + b) }"},
		{"() => 1", 0, "function() { return 1 }"},
		{"(x) => { let y = x\n return y }", 1, "function(x) { let y = x; return y }"},
		{"function(a, b) { return a }", 2, "function(a, b) { return a }"},
		{"func add(a) { a }", 1, "function add(a) { a }"},
	}
	for _, tt := range tests {
		program := parse(t, tt.input)
		fn, ok := program.Stmts[0].(*ast.Func)
		require.True(t, ok, tt.input)
		require.Len(t, fn.Params, tt.params, tt.input)
		require.Equal(t, tt.expected, fn.String(), tt.input)
	}

	program := parse(t, "items.map(x => x.id)")
	call := program.Stmts[0].(*ast.ObjectCall)
	require.IsType(t, &ast.Func{}, call.Call.Args[0])
	require.True(t, ast.ContainsFunc(call.Call.Args[0]))
}

func TestStatements(t *testing.T) {
	program := parse(t, "let x = 1\nconst Y = 2; x += Y\nitems[0] = 3\nobj.name = \"a\"\nx")
	require.Len(t, program.Stmts, 6)
	require.IsType(t, &ast.Var{}, program.Stmts[0])
	require.IsType(t, &ast.Const{}, program.Stmts[1])

	compound := program.Stmts[2].(*ast.Assign)
	require.Equal(t, "+=", compound.Op)
	require.Equal(t, "x", compound.Name.Name)

	indexed := program.Stmts[3].(*ast.Assign)
	require.NotNil(t, indexed.Index)

	setAttr := program.Stmts[4].(*ast.SetAttr)
	require.Equal(t, "name", setAttr.Attr.Name)
	require.IsType(t, &ast.Ident{}, program.Stmts[5])
}

func TestStruct(t *testing.T) {
	program := parse(t, "struct Point {\n  x, y\n  z\n}")
	s := program.Stmts[0].(*ast.Struct)
	require.Equal(t, "Point", s.Name.Name)
	require.Len(t, s.Fields, 3)
}

func TestIfElse(t *testing.T) {
	program := parse(t, "if (x > 1) { 1 } else if x < 0 { -1 } else { 0 }")
	expr := program.Stmts[0].(*ast.If)
	require.Equal(t, "(x > 1)", expr.Cond.String())
	require.NotNil(t, expr.Alternative)
	nested, ok := expr.Alternative.Stmts[0].(*ast.If)
	require.True(t, ok)
	require.NotNil(t, nested.Alternative)
}

func TestTry(t *testing.T) {
	program := parse(t, "try { risky() } catch err { err } finally { cleanup() }")
	expr := program.Stmts[0].(*ast.Try)
	require.Equal(t, "err", expr.CatchIdent.Name)
	require.NotNil(t, expr.FinallyBlock)

	program = parse(t, "try { a } finally { b }")
	expr = program.Stmts[0].(*ast.Try)
	require.Nil(t, expr.CatchBlock)

	program = parse(t, "try { a } catch (e) { b }")
	require.Equal(t, "e", program.Stmts[0].(*ast.Try).CatchIdent.Name)

	program = parse(t, "throw error(\"x\")")
	require.IsType(t, &ast.Throw{}, program.Stmts[0])
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		input   string
		message string
	}{
		{"1 +", "invalid syntax (unexpected end of input)"},
		{"1 2", `unexpected "2" following statement`},
		{"let = 1", `unexpected "=" while parsing let statement (expected identifier)`},
		{"f(1, 2", "unexpected end of input while parsing call arguments (expected \")\")"},
		{"1 + 2 = 3", "invalid assignment target (1 + 2)"},
		{"f(x = 1)", "expected an expression (got x = 1)"},
		{"try { a }", "try requires a catch or finally clause"},
		{"(a + 1) => a", "invalid arrow function parameter (a + 1)"},
		{`"abc`, "unterminated string literal"},
		{"x @ y", "unexpected character '@'"},
	}
	for _, tt := range tests {
		errs := parseErrors(t, tt.input)
		require.Equal(t, tt.message, errs[0].Message, tt.input)
	}
}

func TestSyntaxErrorLocation(t *testing.T) {
	errs := parseErrors(t, "let a = 1\nlet b 2")
	require.Len(t, errs, 1)
	require.Equal(t, 2, errs[0].Location.Line)
	require.Equal(t, 7, errs[0].Location.Column)
	require.Equal(t, "let b 2", errs[0].Location.Source)

	_, err := Parse(context.Background(), "1 +", WithFilename("cond.peek"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "syntax error: invalid syntax")
}

func TestMultipleErrors(t *testing.T) {
	errs := parseErrors(t, "1 2\nlet y 3")
	require.GreaterOrEqual(t, len(errs), 2)
	require.Equal(t, 1, errs[0].Location.Line)
	require.Equal(t, 2, errs[len(errs)-1].Location.Line)
}

func TestMaxDepth(t *testing.T) {
	input := ""
	for i := 0; i < 20; i++ {
		input += "("
	}
	input += "1"
	for i := 0; i < 20; i++ {
		input += ")"
	}
	_, err := Parse(context.Background(), input, WithMaxDepth(10))
	require.ErrorContains(t, err, "maximum nesting depth exceeded")

	_, err = Parse(context.Background(), input)
	require.NoError(t, err)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, "1 + 2")
	require.ErrorIs(t, err, context.Canceled)
}
