package bytecode

import (
	"strings"
)

// Function represents a compiled function template. It is immutable after
// creation and holds the static information needed to create closures at
// runtime.
type Function struct {
	id         string
	name       string
	parameters []string
	code       *Code
}

// FunctionParams contains parameters for creating a new Function.
type FunctionParams struct {
	ID         string
	Name       string
	Parameters []string
	Code       *Code
}

// NewFunction creates a new immutable Function from the given parameters.
func NewFunction(params FunctionParams) *Function {
	return &Function{
		id:         params.ID,
		name:       params.Name,
		parameters: copyStrings(params.Parameters),
		code:       params.Code,
	}
}

// ID returns the unique identifier for this function.
func (f *Function) ID() string {
	return f.id
}

// Name returns the function name, or empty string for anonymous functions.
func (f *Function) Name() string {
	return f.name
}

// Code returns the compiled bytecode for this function's body.
func (f *Function) Code() *Code {
	return f.code
}

// ParameterCount returns the number of parameters.
func (f *Function) ParameterCount() int {
	return len(f.parameters)
}

// Parameter returns the name of the parameter at the given index.
func (f *Function) Parameter(index int) string {
	return f.parameters[index]
}

// LocalCount returns the number of local variables in the function body.
func (f *Function) LocalCount() int {
	if f.code == nil {
		return 0
	}
	return f.code.LocalCount()
}

// String returns a string representation of the function.
func (f *Function) String() string {
	name := f.name
	if name == "" {
		name = "<anonymous>"
	}
	return "function " + name + "(" + strings.Join(f.parameters, ", ") + ")"
}
