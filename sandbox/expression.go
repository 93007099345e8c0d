package sandbox

import (
	"context"
	"sort"

	"github.com/deepnoodle-ai/peek/bytecode"
	"github.com/deepnoodle-ai/peek/compiler"
	"github.com/deepnoodle-ai/peek/parser"
	"github.com/deepnoodle-ai/peek/snapshot"
)

// Environment holds the values an expression can read: the locals of the
// breakpoint frame and the process globals. Locals hide globals of the same
// name, and globals hide builtins.
type Environment struct {
	Locals  map[string]any
	Globals map[string]any
}

// EnvironmentFromFrame builds the environment for evaluating expressions in
// the given frame.
func EnvironmentFromFrame(frame snapshot.Frame, globals map[string]any) *Environment {
	return &Environment{Locals: frame.Locals(), Globals: globals}
}

func (env *Environment) localNames() []string {
	return sortedKeys(env.Locals)
}

func (env *Environment) globalNames() []string {
	return sortedKeys(env.Globals)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Expression is expression source text and its compiled program. The
// program is compiled on first use and reused while the expression is
// evaluated in the same environment.
type Expression struct {
	text    string
	env     *Environment
	program *bytecode.Code
	err     *MutationError
}

// NewExpression returns an uncompiled expression.
func NewExpression(text string) *Expression {
	return &Expression{text: text}
}

// Text returns the expression source.
func (e *Expression) Text() string {
	return e.text
}

func (e *Expression) compile(ctx context.Context, env *Environment, builtinNames []string) (*bytecode.Code, *MutationError) {
	if e.env == env && (e.program != nil || e.err != nil) {
		return e.program, e.err
	}
	e.env = env
	e.program, e.err = nil, nil
	program, err := parser.Parse(ctx, e.text)
	if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
		// Not cached: the text may still compile under a live context.
		e.env = nil
		return nil, unknownCause(ctxErr)
	}
	if err != nil {
		e.err = compilationFailure(err)
		return nil, e.err
	}
	code, err := compiler.Compile(program, &compiler.Config{
		LocalNames:   env.localNames(),
		GlobalNames:  env.globalNames(),
		BuiltinNames: builtinNames,
		Filename:     "<expression>",
		Source:       e.text,
	})
	if err != nil {
		e.err = compilationFailure(err)
		return nil, e.err
	}
	e.program = code
	return code, nil
}
