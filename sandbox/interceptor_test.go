package sandbox

import (
	"context"
	"testing"

	"github.com/deepnoodle-ai/peek/bytecode"
	"github.com/deepnoodle-ai/peek/object"
	"github.com/deepnoodle-ai/peek/vm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func call(kind vm.CallKind, receiver, method string) vm.CallEvent {
	return vm.CallEvent{Kind: kind, ReceiverType: receiver, Method: method}
}

func TestInterceptorPolicy(t *testing.T) {
	icpt := newInterceptor(DefaultPolicy(), zerolog.Nop())
	disable := icpt.enable()
	defer disable()

	ctx := context.Background()
	require.NoError(t, icpt.OnCall(ctx, call(vm.InstanceCall, "int", "+")))
	require.NoError(t, icpt.OnCall(ctx, call(vm.ClassCall, "map", "from_items")))
	require.NoError(t, icpt.OnCall(ctx, call(vm.InstanceCall, "kernel", "len")))

	err := icpt.OnCall(ctx, call(vm.InstanceCall, "list", "append"))
	requireKind(t, err, ProhibitedCall)
	require.Contains(t, err.Error(), "append")
	require.False(t, icpt.active)
}

func TestInterceptorStaysTripped(t *testing.T) {
	icpt := newInterceptor(DefaultPolicy(), zerolog.Nop())
	icpt.enable()
	ctx := context.Background()

	first := icpt.OnCall(ctx, call(vm.InstanceCall, "kernel", "print"))
	requireKind(t, first, ProhibitedCall)

	second := icpt.OnCall(ctx, call(vm.InstanceCall, "int", "+"))
	require.Same(t, first, second)
}

func TestInterceptorInactive(t *testing.T) {
	icpt := newInterceptor(DefaultPolicy(), zerolog.Nop())
	disable := icpt.enable()
	disable()
	err := icpt.OnCall(context.Background(), call(vm.InstanceCall, "int", "+"))
	requireKind(t, err, UnknownCause)
}

func TestInterceptorClassifiesClosures(t *testing.T) {
	code := compileExpr(t, "(n => { let m = n + 1\n return m })(x)")
	var fn *bytecode.Function
	for i := 0; i < code.ConstantCount(); i++ {
		if f, ok := code.ConstantAt(i).(*bytecode.Function); ok {
			fn = f
		}
	}
	require.NotNil(t, fn)
	closure := object.NewClosure(fn, nil)

	icpt := newInterceptor(DefaultPolicy(), zerolog.Nop())
	icpt.enable()
	event := vm.CallEvent{
		Kind:         vm.InstanceCall,
		ReceiverType: "function",
		Method:       vm.MethodCall,
		Function:     closure,
	}
	require.NoError(t, icpt.OnCall(context.Background(), event))
	require.NoError(t, icpt.OnCall(context.Background(), event))
	require.Len(t, icpt.verdicts, 1)
}
