package object

import (
	"context"
)

type contextKey string

// CallFunc calls a callable object on behalf of native code, such as a
// builtin that receives a function argument. The VM installs one so these
// nested calls pass through its call dispatch.
type CallFunc func(ctx context.Context, fn Object, args []Object) (Object, error)

const callFuncKey = contextKey("peek:call")

// WithCallFunc adds a CallFunc to the context.
func WithCallFunc(ctx context.Context, fn CallFunc) context.Context {
	return context.WithValue(ctx, callFuncKey, fn)
}

// GetCallFunc returns the CallFunc from the context, if it exists.
func GetCallFunc(ctx context.Context) (CallFunc, bool) {
	if fn, ok := ctx.Value(callFuncKey).(CallFunc); ok && fn != nil {
		return fn, true
	}
	return nil, false
}

// Invoke calls fn with the given arguments, preferring the CallFunc in the
// context when one is present.
func Invoke(ctx context.Context, fn Object, args ...Object) (Object, error) {
	if callFunc, ok := GetCallFunc(ctx); ok {
		return callFunc(ctx, fn, args)
	}
	callable, ok := fn.(Callable)
	if !ok {
		return nil, TypeErrorf("object is not callable (got %s)", fn.Type())
	}
	return callable.Call(ctx, args...)
}
