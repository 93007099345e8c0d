package vm

import "github.com/deepnoodle-ai/peek/object"

// Option is a configuration function for a Virtual Machine.
type Option func(*VirtualMachine)

// WithLocals provides values for the local variables of the main code, such
// as the locals of a breakpoint frame. Go values are converted with
// object.FromGoType.
func WithLocals(locals map[string]any) Option {
	return func(vm *VirtualMachine) {
		for name, value := range locals {
			vm.inputLocals[name] = value
		}
	}
}

// WithGlobals provides global variables with the given names. Go values are
// converted with object.FromGoType.
func WithGlobals(globals map[string]any) Option {
	return func(vm *VirtualMachine) {
		for name, value := range globals {
			vm.inputGlobals[name] = value
		}
	}
}

// WithBuiltins provides the builtin functions, classes and modules. A global
// with the same name takes precedence.
func WithBuiltins(builtins map[string]object.Object) Option {
	return func(vm *VirtualMachine) {
		for name, value := range builtins {
			vm.builtins[name] = value
		}
	}
}

// WithInterceptor sets the interceptor consulted before every call,
// including operators and calls made by native functions.
func WithInterceptor(interceptor CallInterceptor) Option {
	return func(vm *VirtualMachine) {
		vm.interceptor = interceptor
	}
}

// WithContextCheckInterval sets how often the VM checks ctx.Done() during
// execution. The interval is specified in number of instructions. A value of 0
// disables deterministic checking, relying only on the background goroutine
// that monitors the context. The default is DefaultContextCheckInterval (1000).
func WithContextCheckInterval(interval int) Option {
	return func(vm *VirtualMachine) {
		vm.contextCheckInterval = interval
	}
}
