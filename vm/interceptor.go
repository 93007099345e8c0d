package vm

import (
	"context"
	"unicode"
	"unicode/utf8"

	"github.com/deepnoodle-ai/peek/errz"
	"github.com/deepnoodle-ai/peek/object"
)

// CallKind distinguishes calls on a value from calls on a type object.
type CallKind uint8

const (
	// InstanceCall is a call on a value, such as "abc".to_upper() or 1 + 2.
	InstanceCall CallKind = iota

	// ClassCall is a call on a class or module, such as string.from_list(x)
	// or math.sqrt(2).
	ClassCall
)

func (k CallKind) String() string {
	switch k {
	case InstanceCall:
		return "instance"
	case ClassCall:
		return "class"
	default:
		return "unknown"
	}
}

func (k CallKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Method names reported for operators and calls that have no named method.
const (
	MethodCall     = "call"
	MethodIndex    = "[]"
	MethodSetIndex = "[]="
	MethodSlice    = "[:]"
	MethodContains = "contains"
	MethodNegate   = "-@"
	MethodNew      = "new"
)

// ReceiverKernel is the receiver type reported for free builtin functions
// such as len() and sorted().
const ReceiverKernel = "kernel"

// CallEvent describes a call about to be made by the VM. Operators are
// reported as calls on their left operand, with the operator as the method.
type CallEvent struct {
	// Kind is ClassCall when the receiver is a class or module.
	Kind CallKind

	// ReceiverType is the type name of the receiver, the class or module name
	// for class calls, or ReceiverKernel for free builtins. Go methods called
	// on a live Go value report the value's qualified Go type, such as
	// "*net/url.URL"; operators on it report "proxy".
	ReceiverType string

	// Method is the method or function name, or an operator such as "+".
	Method string

	// Receiver is the receiver object, nil for free builtins.
	Receiver object.Object

	// Function is set when the callee is an interpreted function literal.
	// It is nil for every native call.
	Function *object.Closure

	// Args are the call arguments, excluding the receiver.
	Args []object.Object

	// Location is the source location of the call site.
	Location errz.SourceLocation

	// FrameDepth is the call stack depth at the call site.
	FrameDepth int
}

// CallInterceptor is consulted before every call the VM makes. Returning an
// error stops the call; a fatal error (see errz.FatalError) also bypasses
// any try/catch or finally block in the running program.
type CallInterceptor interface {
	OnCall(ctx context.Context, event CallEvent) error
}

// CallInterceptorFunc adapts a function to the CallInterceptor interface.
type CallInterceptorFunc func(ctx context.Context, event CallEvent) error

func (f CallInterceptorFunc) OnCall(ctx context.Context, event CallEvent) error {
	return f(ctx, event)
}

// receiverEvent builds the event for a method or operator call on obj.
func receiverEvent(obj object.Object, method string, args []object.Object) CallEvent {
	if r, ok := obj.(object.Receiver); ok {
		return CallEvent{
			Kind:         ClassCall,
			ReceiverType: r.ReceiverName(),
			Method:       method,
			Receiver:     obj,
			Args:         args,
		}
	}
	receiverType := string(obj.Type())
	if proxy, ok := obj.(*object.Proxy); ok && isGoMethod(method) {
		receiverType = proxy.TypeName()
	}
	return CallEvent{
		Kind:         InstanceCall,
		ReceiverType: receiverType,
		Method:       method,
		Receiver:     obj,
		Args:         args,
	}
}

// isGoMethod reports whether name is an exported Go method name rather than
// an operator.
func isGoMethod(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// builtinEvent builds the event for calling a native function. Bound
// methods report their receiver; free functions report ReceiverKernel.
func builtinEvent(fn *object.Builtin, args []object.Object) CallEvent {
	if recv := fn.Receiver(); recv != nil {
		return receiverEvent(recv, fn.Method(), args)
	}
	return CallEvent{
		Kind:         InstanceCall,
		ReceiverType: ReceiverKernel,
		Method:       fn.Method(),
		Args:         args,
	}
}
