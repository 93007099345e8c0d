package object

import (
	"context"
	"fmt"
	"sort"

	"github.com/deepnoodle-ai/peek/op"
)

// Class is a type object exposed to programs, such as the "string" or "time"
// builtin. Calling the class constructs a value. Attributes are class-level
// methods bound with the class as their receiver.
type Class struct {
	name        string
	constructor BuiltinFunction
	methods     map[string]BuiltinFunction
}

// ClassOption configures a Class.
type ClassOption func(*Class)

// WithConstructor sets the function run when the class is called.
func WithConstructor(fn BuiltinFunction) ClassOption {
	return func(c *Class) {
		c.constructor = fn
	}
}

// WithClassMethod adds a class-level method.
func WithClassMethod(name string, fn BuiltinFunction) ClassOption {
	return func(c *Class) {
		c.methods[name] = fn
	}
}

// NewClass creates a class type object.
func NewClass(name string, opts ...ClassOption) *Class {
	c := &Class{name: name, methods: map[string]BuiltinFunction{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Class) Type() Type {
	return CLASS
}

// Name returns the class name, which is also its policy key.
func (c *Class) Name() string {
	return c.name
}

// Methods returns the sorted class-level method names.
func (c *Class) Methods() []string {
	names := make([]string, 0, len(c.methods))
	for name := range c.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Class) Inspect() string {
	return fmt.Sprintf("class(%s)", c.name)
}

func (c *Class) String() string {
	return c.Inspect()
}

func (c *Class) Interface() any {
	return nil
}

func (c *Class) Equals(other Object) bool {
	otherClass, ok := other.(*Class)
	return ok && c == otherClass
}

func (c *Class) GetAttr(name string) (Object, bool) {
	fn, ok := c.methods[name]
	if !ok {
		return nil, false
	}
	return NewMethod(c, name, fn), true
}

func (c *Class) SetAttr(name string, value Object) error {
	return TypeErrorf("cannot set attribute %q on class %s", name, c.name)
}

func (c *Class) IsTruthy() bool {
	return true
}

// ReceiverName returns the name used for class-level calls.
func (c *Class) ReceiverName() string {
	return c.name
}

func (c *Class) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperation(opType, c, right)
}

// Constructor returns the builtin run when the class is called. It is bound
// to the class under the method name "new".
func (c *Class) Constructor() (*Builtin, bool) {
	if c.constructor == nil {
		return nil, false
	}
	return NewMethod(c, "new", c.constructor), true
}

func (c *Class) Call(ctx context.Context, args ...Object) (Object, error) {
	if c.constructor == nil {
		return nil, TypeErrorf("class %s is not callable", c.name)
	}
	return c.constructor(ctx, args...)
}
