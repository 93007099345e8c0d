package object

import (
	"context"
	"fmt"

	"github.com/deepnoodle-ai/peek/op"
)

var _ Callable = (*Builtin)(nil)

// BuiltinFunction holds the type of a built-in function.
type BuiltinFunction func(ctx context.Context, args ...Object) (Object, error)

// Builtin wraps a Go function. A builtin obtained as an attribute of another
// object is bound to that receiver and remembers the method name, which is
// what the VM reports to its call interceptor.
type Builtin struct {
	fn       BuiltinFunction
	name     string
	receiver Object
	method   string
}

// NewBuiltin creates a free builtin function with the given name.
func NewBuiltin(name string, fn BuiltinFunction) *Builtin {
	return &Builtin{fn: fn, name: name, method: name}
}

// NewMethod creates a builtin bound to a receiver.
func NewMethod(receiver Object, method string, fn BuiltinFunction) *Builtin {
	name := method
	if receiver != nil {
		name = receiverName(receiver) + "." + method
	}
	return &Builtin{fn: fn, name: name, receiver: receiver, method: method}
}

func receiverName(obj Object) string {
	if r, ok := obj.(Receiver); ok {
		return r.ReceiverName()
	}
	return string(obj.Type())
}

func (b *Builtin) Type() Type {
	return BUILTIN
}

// Name returns the qualified name, such as "list.append".
func (b *Builtin) Name() string {
	return b.name
}

// Receiver returns the object the builtin is bound to, or nil for free
// functions.
func (b *Builtin) Receiver() Object {
	return b.receiver
}

// Method returns the unqualified method or function name.
func (b *Builtin) Method() string {
	return b.method
}

func (b *Builtin) Value() BuiltinFunction {
	return b.fn
}

func (b *Builtin) Call(ctx context.Context, args ...Object) (Object, error) {
	return b.fn(ctx, args...)
}

func (b *Builtin) Inspect() string {
	return fmt.Sprintf("builtin(%s)", b.name)
}

func (b *Builtin) String() string {
	return b.Inspect()
}

func (b *Builtin) Interface() any {
	return nil
}

func (b *Builtin) GetAttr(name string) (Object, bool) {
	if name == "__name__" {
		return NewString(b.name), true
	}
	return nil, false
}

func (b *Builtin) SetAttr(name string, value Object) error {
	return TypeErrorf("builtin has no attribute %q", name)
}

func (b *Builtin) IsTruthy() bool {
	return true
}

func (b *Builtin) Equals(other Object) bool {
	otherBuiltin, ok := other.(*Builtin)
	if !ok {
		return false
	}
	if b == otherBuiltin {
		return true
	}
	return b.receiver != nil && b.receiver == otherBuiltin.receiver && b.method == otherBuiltin.method
}

func (b *Builtin) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperation(opType, b, right)
}
