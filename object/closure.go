package object

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/peek/bytecode"
	"github.com/deepnoodle-ai/peek/op"
)

// Closure is a runtime function instance with captured variables. It
// references an immutable bytecode.Function for its signature and code.
type Closure struct {
	base
	fn       *bytecode.Function
	freeVars []*Cell
}

func (f *Closure) Type() Type {
	return FUNCTION
}

// Name returns the function name, or "" for anonymous functions.
func (f *Closure) Name() string {
	return f.fn.Name()
}

func (f *Closure) Inspect() string {
	var out bytes.Buffer
	parameters := make([]string, 0, f.fn.ParameterCount())
	for i := 0; i < f.fn.ParameterCount(); i++ {
		parameters = append(parameters, f.fn.Parameter(i))
	}
	out.WriteString("func")
	if f.fn.Name() != "" {
		out.WriteString(" " + f.fn.Name())
	}
	out.WriteString("(")
	out.WriteString(strings.Join(parameters, ", "))
	out.WriteString(") { ... }")
	return out.String()
}

func (f *Closure) String() string {
	if f.fn.Name() != "" {
		return fmt.Sprintf("func %s() { ... }", f.fn.Name())
	}
	return "func() { ... }"
}

func (f *Closure) Interface() any {
	return nil
}

func (f *Closure) SetAttr(name string, value Object) error {
	return TypeErrorf("function has no attribute %q", name)
}

func (f *Closure) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperation(opType, f, right)
}

func (f *Closure) Equals(other Object) bool {
	otherFn, ok := other.(*Closure)
	return ok && f == otherFn
}

// FreeVarCount returns the number of captured variables.
func (f *Closure) FreeVarCount() int {
	return len(f.freeVars)
}

// FreeVar returns the captured variable at the given index.
func (f *Closure) FreeVar(index int) *Cell {
	return f.freeVars[index]
}

// Code returns the bytecode for this function's body.
func (f *Closure) Code() *bytecode.Code {
	return f.fn.Code()
}

// Function returns the underlying bytecode.Function.
func (f *Closure) Function() *bytecode.Function {
	return f.fn
}

// ParameterCount returns the number of parameters.
func (f *Closure) ParameterCount() int {
	return f.fn.ParameterCount()
}

// Call runs the closure through the VM that installed a CallFunc in the
// context. Closures cannot run without one.
func (f *Closure) Call(ctx context.Context, args ...Object) (Object, error) {
	callFunc, found := GetCallFunc(ctx)
	if !found {
		return nil, EvalErrorf("context did not contain a call function")
	}
	return callFunc(ctx, f, args)
}

// NewClosure creates a Closure from a bytecode.Function and the cells it
// captures.
func NewClosure(fn *bytecode.Function, freeVars []*Cell) *Closure {
	return &Closure{fn: fn, freeVars: freeVars}
}
