package object

import (
	"fmt"

	"github.com/deepnoodle-ai/peek/op"
)

// Module is a named namespace of builtins and values, such as "math".
type Module struct {
	name  string
	attrs map[string]Object
}

func (m *Module) Type() Type {
	return MODULE
}

// Name returns the module name, which is also its policy key.
func (m *Module) Name() string {
	return m.name
}

func (m *Module) Inspect() string {
	return fmt.Sprintf("module(%s)", m.name)
}

func (m *Module) String() string {
	return m.Inspect()
}

func (m *Module) Interface() any {
	return nil
}

// AttrNames returns the sorted attribute names.
func (m *Module) AttrNames() []string {
	return Keys(m.attrs)
}

func (m *Module) GetAttr(name string) (Object, bool) {
	value, ok := m.attrs[name]
	return value, ok
}

func (m *Module) SetAttr(name string, value Object) error {
	return TypeErrorf("cannot set attribute %q on module %s", name, m.name)
}

func (m *Module) Equals(other Object) bool {
	otherModule, ok := other.(*Module)
	return ok && m == otherModule
}

func (m *Module) IsTruthy() bool {
	return true
}

// ReceiverName returns the name used for class-level calls.
func (m *Module) ReceiverName() string {
	return m.name
}

func (m *Module) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperation(opType, m, right)
}

// NewBuiltinsModule creates a module. Builtin functions in contents are
// rebound with the module as their receiver.
func NewBuiltinsModule(name string, contents map[string]Object) *Module {
	m := &Module{name: name, attrs: make(map[string]Object, len(contents))}
	for k, v := range contents {
		if builtin, ok := v.(*Builtin); ok {
			v = NewMethod(m, k, builtin.fn)
		}
		m.attrs[k] = v
	}
	return m
}
