// Package builtins defines the default set of functions, classes and modules
// available to every program.
package builtins

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/deepnoodle-ai/peek/modules/math"
	"github.com/deepnoodle-ai/peek/modules/regexp"
	"github.com/deepnoodle-ai/peek/modules/runtime"
	modtime "github.com/deepnoodle-ai/peek/modules/time"
	"github.com/deepnoodle-ai/peek/object"
	"github.com/deepnoodle-ai/peek/op"
)

func Len(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("len", 1, args); err != nil {
		return nil, err
	}
	switch arg := args[0].(type) {
	case object.Container:
		return object.NewInt(arg.Len()), nil
	default:
		return nil, object.TypeErrorf("len() unsupported argument (%s given)", args[0].Type())
	}
}

func Sprintf(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.RequireRange("sprintf", 1, 64, args); err != nil {
		return nil, err
	}
	fs, err := object.AsString(args[0])
	if err != nil {
		return nil, err
	}
	fmtArgs := make([]any, len(args)-1)
	for i, v := range args[1:] {
		fmtArgs[i] = object.FormatArg(v)
	}
	return object.NewString(fmt.Sprintf(fs, fmtArgs...)), nil
}

func Str(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.RequireRange("str", 0, 1, args); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return object.NewString(""), nil
	}
	return object.NewString(object.PrintableValue(args[0])), nil
}

func Type(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("type", 1, args); err != nil {
		return nil, err
	}
	if proxy, ok := args[0].(*object.Proxy); ok {
		return object.NewString(proxy.GoType()), nil
	}
	return object.NewString(string(args[0].Type())), nil
}

func Int(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("int", 1, args); err != nil {
		return nil, err
	}
	switch obj := args[0].(type) {
	case *object.Int:
		return obj, nil
	case *object.Float:
		return object.NewInt(int64(obj.Value())), nil
	case *object.Bool:
		if obj.Value() {
			return object.NewInt(1), nil
		}
		return object.NewInt(0), nil
	case *object.String:
		i, err := strconv.ParseInt(obj.Value(), 0, 64)
		if err != nil {
			return nil, object.ValueErrorf("invalid literal for int(): %q", obj.Value())
		}
		return object.NewInt(i), nil
	default:
		return nil, object.TypeErrorf("int() unsupported argument (%s given)", args[0].Type())
	}
}

func Float(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("float", 1, args); err != nil {
		return nil, err
	}
	switch obj := args[0].(type) {
	case *object.Int:
		return object.NewFloat(float64(obj.Value())), nil
	case *object.Float:
		return obj, nil
	case *object.String:
		f, err := strconv.ParseFloat(obj.Value(), 64)
		if err != nil {
			return nil, object.ValueErrorf("invalid literal for float(): %q", obj.Value())
		}
		return object.NewFloat(f), nil
	default:
		return nil, object.TypeErrorf("float() unsupported argument (%s given)", args[0].Type())
	}
}

func Bool(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("bool", 1, args); err != nil {
		return nil, err
	}
	return object.NewBool(args[0].IsTruthy()), nil
}

func Any(ctx context.Context, args ...object.Object) (object.Object, error) {
	items, err := iterable("any", args)
	if err != nil {
		return nil, err
	}
	for _, val := range items {
		if val.IsTruthy() {
			return object.True, nil
		}
	}
	return object.False, nil
}

func All(ctx context.Context, args ...object.Object) (object.Object, error) {
	items, err := iterable("all", args)
	if err != nil {
		return nil, err
	}
	for _, val := range items {
		if !val.IsTruthy() {
			return object.False, nil
		}
	}
	return object.True, nil
}

// iterable returns the items of a single list or the values of a map.
func iterable(name string, args []object.Object) ([]object.Object, error) {
	if err := object.Require(name, 1, args); err != nil {
		return nil, err
	}
	switch arg := args[0].(type) {
	case *object.List:
		return arg.Value(), nil
	case *object.Map:
		return arg.Values().Value(), nil
	default:
		return nil, object.TypeErrorf("%s() argument must be a list or map (%s given)", name, args[0].Type())
	}
}

func Sorted(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.RequireRange("sorted", 1, 2, args); err != nil {
		return nil, err
	}
	var items []object.Object
	switch arg := args[0].(type) {
	case *object.List:
		items = arg.Value()
	case *object.Map:
		items = arg.Keys().Value()
	default:
		return nil, object.TypeErrorf("sorted() unsupported argument (%s given)", arg.Type())
	}
	resultItems := make([]object.Object, len(items))
	copy(resultItems, items)
	if len(args) == 2 {
		if _, ok := args[1].(object.Callable); !ok {
			return nil, object.TypeErrorf("sorted() expected a function as the second argument (%s given)", args[1].Type())
		}
		var sortErr error
		sort.SliceStable(resultItems, func(i, j int) bool {
			if sortErr != nil {
				return false
			}
			result, err := object.Invoke(ctx, args[1], resultItems[i], resultItems[j])
			if err != nil {
				sortErr = err
				return false
			}
			return result.IsTruthy()
		})
		if sortErr != nil {
			return nil, sortErr
		}
	} else if err := object.Sort(resultItems); err != nil {
		return nil, err
	}
	return object.NewList(resultItems), nil
}

func Reversed(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("reversed", 1, args); err != nil {
		return nil, err
	}
	list, err := object.AsList(args[0])
	if err != nil {
		return nil, err
	}
	return list.Reversed(), nil
}

func Keys(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("keys", 1, args); err != nil {
		return nil, err
	}
	switch arg := args[0].(type) {
	case *object.Map:
		return arg.Keys(), nil
	case *object.Proxy:
		return object.NewStringList(arg.Fields()), nil
	default:
		return nil, object.TypeErrorf("keys() unsupported argument (%s given)", args[0].Type())
	}
}

func Values(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("values", 1, args); err != nil {
		return nil, err
	}
	m, err := object.AsMap(args[0])
	if err != nil {
		return nil, err
	}
	return m.Values(), nil
}

func Sum(ctx context.Context, args ...object.Object) (object.Object, error) {
	items, err := iterable("sum", args)
	if err != nil {
		return nil, err
	}
	var total object.Object = object.NewInt(0)
	for _, item := range items {
		if total, err = object.BinaryOp(op.Add, total, item); err != nil {
			return nil, err
		}
	}
	return total, nil
}

func Min(ctx context.Context, args ...object.Object) (object.Object, error) {
	return extreme("min", -1, args)
}

func Max(ctx context.Context, args ...object.Object) (object.Object, error) {
	return extreme("max", 1, args)
}

// extreme accepts either a single list or two or more values.
func extreme(name string, want int, args []object.Object) (object.Object, error) {
	items := args
	if len(args) == 1 {
		list, err := object.AsList(args[0])
		if err != nil {
			return nil, err
		}
		items = list.Value()
	}
	if len(items) == 0 {
		return nil, object.ValueErrorf("%s() arg is an empty sequence", name)
	}
	best := items[0]
	for _, item := range items[1:] {
		comparable, ok := item.(object.Comparable)
		if !ok {
			return nil, object.TypeErrorf("%s() encountered a non-comparable item (%s)", name, item.Type())
		}
		cmp, err := comparable.Compare(best)
		if err != nil {
			return nil, err
		}
		if cmp == want {
			best = item
		}
	}
	return best, nil
}

func Abs(ctx context.Context, args ...object.Object) (object.Object, error) {
	return math.Abs(ctx, args...)
}

func GetAttr(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.RequireRange("getattr", 2, 3, args); err != nil {
		return nil, err
	}
	name, err := object.AsString(args[1])
	if err != nil {
		return nil, err
	}
	if attr, found := args[0].GetAttr(name); found {
		return attr, nil
	}
	if len(args) == 3 {
		return args[2], nil
	}
	return nil, object.TypeErrorf("%s has no attribute %q", args[0].Type(), name)
}

func Coalesce(ctx context.Context, args ...object.Object) (object.Object, error) {
	for _, arg := range args {
		if arg != object.Nil {
			return arg, nil
		}
	}
	return object.Nil, nil
}

func Assert(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.RequireRange("assert", 1, 2, args); err != nil {
		return nil, err
	}
	if !args[0].IsTruthy() {
		if len(args) == 2 {
			return nil, object.EvalErrorf("%s", object.PrintableValue(args[1]))
		}
		return nil, object.EvalErrorf("assertion failed")
	}
	return object.Nil, nil
}

type outputKey struct{}

// WithOutput sets the writer used by print. The default is os.Stdout.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func output(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok {
		return w
	}
	return os.Stdout
}

func Print(ctx context.Context, args ...object.Object) (object.Object, error) {
	values := make([]any, len(args))
	for i, arg := range args {
		values[i] = object.PrintableValue(arg)
	}
	if _, err := fmt.Fprintln(output(ctx), values...); err != nil {
		return nil, err
	}
	return object.Nil, nil
}

// Sleep pauses for the given number of seconds or until the context is done.
func Sleep(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("sleep", 1, args); err != nil {
		return nil, err
	}
	seconds, err := object.AsFloat(args[0])
	if err != nil {
		return nil, err
	}
	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return object.Nil, nil
	}
}

// Functions returns the free builtin functions.
func Functions() map[string]object.Object {
	return map[string]object.Object{
		"abs":      object.NewBuiltin("abs", Abs),
		"all":      object.NewBuiltin("all", All),
		"any":      object.NewBuiltin("any", Any),
		"assert":   object.NewBuiltin("assert", Assert),
		"bool":     object.NewBuiltin("bool", Bool),
		"coalesce": object.NewBuiltin("coalesce", Coalesce),
		"float":    object.NewBuiltin("float", Float),
		"getattr":  object.NewBuiltin("getattr", GetAttr),
		"int":      object.NewBuiltin("int", Int),
		"keys":     object.NewBuiltin("keys", Keys),
		"len":      object.NewBuiltin("len", Len),
		"max":      object.NewBuiltin("max", Max),
		"min":      object.NewBuiltin("min", Min),
		"print":    object.NewBuiltin("print", Print),
		"reversed": object.NewBuiltin("reversed", Reversed),
		"sleep":    object.NewBuiltin("sleep", Sleep),
		"sorted":   object.NewBuiltin("sorted", Sorted),
		"sprintf":  object.NewBuiltin("sprintf", Sprintf),
		"str":      object.NewBuiltin("str", Str),
		"sum":      object.NewBuiltin("sum", Sum),
		"type":     object.NewBuiltin("type", Type),
		"values":   object.NewBuiltin("values", Values),
	}
}

// Defaults returns every builtin: free functions, classes and modules.
func Defaults() map[string]object.Object {
	result := Functions()
	for name, class := range Classes() {
		result[name] = class
	}
	for _, m := range []*object.Module{
		math.Module(),
		modtime.Module(),
		regexp.Module(),
		runtime.Module(),
	} {
		result[m.ReceiverName()] = m
	}
	return result
}
