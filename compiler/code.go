package compiler

import (
	"fmt"

	"github.com/deepnoodle-ai/peek/bytecode"
	"github.com/deepnoodle-ai/peek/op"
)

// Code is the mutable form of a code block, used only during compilation.
// ToBytecode converts it into the immutable bytecode.Code the VM runs.
type Code struct {
	id           string
	name         string
	parent       *Code
	children     []*Code
	symbols      *SymbolTable
	instructions []op.Code
	constants    []any
	names        []string
	source       string
	filename     string

	// Source map: one location per instruction for error reporting
	locations []bytecode.SourceLocation

	maxCallArgs uint16

	exceptionHandlers []bytecode.ExceptionHandler
}

func (c *Code) ID() string {
	return c.id
}

func (c *Code) IsRoot() bool {
	return c.parent == nil
}

func (c *Code) addName(name string) uint16 {
	for i, n := range c.names {
		if n == name {
			return uint16(i)
		}
	}
	c.names = append(c.names, name)
	return uint16(len(c.names) - 1)
}

func (c *Code) newChild(name, source string) *Code {
	child := &Code{
		id:       fmt.Sprintf("%s.%d", c.id, len(c.children)),
		name:     name,
		parent:   c,
		symbols:  c.symbols.NewChild(),
		source:   source,
		filename: c.filename,
	}
	c.children = append(c.children, child)
	return child
}

func (c *Code) InstructionCount() int {
	return len(c.instructions)
}

// ToBytecode converts the code block and its children to immutable bytecode.
// Function constants are converted along with the code they reference.
func (c *Code) ToBytecode() *bytecode.Code {
	converted := map[*Code]*bytecode.Code{}
	return c.toBytecode(converted)
}

func (c *Code) toBytecode(converted map[*Code]*bytecode.Code) *bytecode.Code {
	if bc, ok := converted[c]; ok {
		return bc
	}
	children := make([]*bytecode.Code, len(c.children))
	for i, child := range c.children {
		children[i] = child.toBytecode(converted)
	}
	constants := make([]any, len(c.constants))
	for i, constant := range c.constants {
		if fn, ok := constant.(*Function); ok {
			constants[i] = fn.toBytecode(converted)
		} else {
			constants[i] = constant
		}
	}
	params := bytecode.CodeParams{
		ID:                c.id,
		Name:              c.name,
		Children:          children,
		Instructions:      c.instructions,
		Constants:         constants,
		Names:             c.names,
		Source:            c.source,
		Filename:          c.filename,
		Locations:         c.locations,
		MaxCallArgs:       int(c.maxCallArgs),
		LocalCount:        int(c.symbols.Count()),
		LocalNames:        c.symbols.Names(),
		ExceptionHandlers: c.exceptionHandlers,
	}
	if c.IsRoot() {
		params.GlobalNames = c.symbols.Root().Names()
	}
	bc := bytecode.NewCode(params)
	converted[c] = bc
	return bc
}

// Function is a compiled function literal awaiting conversion to bytecode.
type Function struct {
	id         string
	name       string
	parameters []string
	code       *Code
}

func (f *Function) toBytecode(converted map[*Code]*bytecode.Code) *bytecode.Function {
	return bytecode.NewFunction(bytecode.FunctionParams{
		ID:         f.id,
		Name:       f.name,
		Parameters: f.parameters,
		Code:       f.code.toBytecode(converted),
	})
}
