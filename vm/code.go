package vm

import (
	"fmt"

	"github.com/deepnoodle-ai/peek/bytecode"
	"github.com/deepnoodle-ai/peek/errz"
	"github.com/deepnoodle-ai/peek/object"
	"github.com/deepnoodle-ai/peek/op"
)

// code is a bytecode.Code prepared for execution: constants are converted to
// objects and globals are resolved to a slice shared by the whole code tree.
type code struct {
	*bytecode.Code
	Instructions []op.Code
	Constants    []object.Object
	Globals      []object.Object
	Names        []string
}

func wrapCode(bc *bytecode.Code, globals []object.Object) *code {
	c := &code{
		Code:         bc,
		Instructions: make([]op.Code, bc.InstructionCount()),
		Constants:    make([]object.Object, bc.ConstantCount()),
		Globals:      globals,
		Names:        make([]string, bc.NameCount()),
	}
	for i := 0; i < bc.InstructionCount(); i++ {
		c.Instructions[i] = bc.InstructionAt(i)
	}
	for i := 0; i < bc.NameCount(); i++ {
		c.Names[i] = bc.NameAt(i)
	}
	for i := 0; i < bc.ConstantCount(); i++ {
		switch constant := bc.ConstantAt(i).(type) {
		case int:
			c.Constants[i] = object.NewInt(int64(constant))
		case int64:
			c.Constants[i] = object.NewInt(constant)
		case float64:
			c.Constants[i] = object.NewFloat(constant)
		case string:
			c.Constants[i] = object.NewString(constant)
		case bool:
			c.Constants[i] = object.NewBool(constant)
		case *bytecode.Function:
			// A template without captured variables; LoadClosure builds
			// the real closure from its function.
			c.Constants[i] = object.NewClosure(constant, nil)
		case *bytecode.StructDef:
			c.Constants[i] = object.NewStructClass(constant)
		case nil:
			c.Constants[i] = object.Nil
		default:
			panic(fmt.Sprintf("unsupported constant type: %T", constant))
		}
	}
	return c
}

// LocationAt returns the source location for the instruction at the given
// index, including the filename and the source line.
func (c *code) LocationAt(ip int) errz.SourceLocation {
	loc := c.Code.LocationAt(ip)
	if loc.IsZero() {
		return errz.SourceLocation{Filename: c.Filename()}
	}
	return errz.SourceLocation{
		Filename: c.Filename(),
		Line:     loc.Line,
		Column:   loc.Column,
		Source:   c.GetSourceLine(loc.Line),
	}
}

// resolveGlobals builds the globals slice of a root code. Process globals
// take precedence over builtins of the same name.
func resolveGlobals(bc *bytecode.Code, globals, builtins map[string]object.Object) []object.Object {
	resolved := make([]object.Object, bc.GlobalNameCount())
	for i := range resolved {
		name := bc.GlobalNameAt(i)
		if value, found := globals[name]; found {
			resolved[i] = value
		} else if value, found := builtins[name]; found {
			resolved[i] = value
		} else {
			resolved[i] = object.Nil
		}
	}
	return resolved
}
