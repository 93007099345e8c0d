// Package math exposes pure numeric functions to programs.
package math

import (
	"context"
	"math"

	"github.com/deepnoodle-ai/peek/object"
)

func Abs(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("math.abs", 1, args); err != nil {
		return nil, err
	}
	switch arg := args[0].(type) {
	case *object.Int:
		v := arg.Value()
		if v < 0 {
			v *= -1
		}
		return object.NewInt(v), nil
	case *object.Float:
		return object.NewFloat(math.Abs(arg.Value())), nil
	default:
		return nil, object.TypeErrorf("argument to math.abs not supported, got=%s", args[0].Type())
	}
}

func Atan2(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("math.atan2", 2, args); err != nil {
		return nil, err
	}
	y, err := object.AsFloat(args[0])
	if err != nil {
		return nil, err
	}
	x, err := object.AsFloat(args[1])
	if err != nil {
		return nil, err
	}
	return object.NewFloat(math.Atan2(y, x)), nil
}

func Max(ctx context.Context, args ...object.Object) (object.Object, error) {
	return binary("math.max", math.Max)(ctx, args...)
}

func Min(ctx context.Context, args ...object.Object) (object.Object, error) {
	return binary("math.min", math.Min)(ctx, args...)
}

func Sum(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("math.sum", 1, args); err != nil {
		return nil, err
	}
	list, err := object.AsList(args[0])
	if err != nil {
		return nil, err
	}
	var sum float64
	for _, value := range list.Value() {
		v, err := object.AsFloat(value)
		if err != nil {
			return nil, object.ValueErrorf("invalid input for math.sum: %s", value.Type())
		}
		sum += v
	}
	return object.NewFloat(sum), nil
}

// Ceil and Floor return ints unchanged.
func Ceil(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("math.ceil", 1, args); err != nil {
		return nil, err
	}
	if arg, ok := args[0].(*object.Int); ok {
		return arg, nil
	}
	return unary("math.ceil", math.Ceil)(ctx, args...)
}

func Floor(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("math.floor", 1, args); err != nil {
		return nil, err
	}
	if arg, ok := args[0].(*object.Int); ok {
		return arg, nil
	}
	return unary("math.floor", math.Floor)(ctx, args...)
}

func IsInf(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("math.is_inf", 1, args); err != nil {
		return nil, err
	}
	x, err := object.AsFloat(args[0])
	if err != nil {
		return nil, err
	}
	return object.NewBool(math.IsInf(x, 0)), nil
}

func Inf(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.RequireRange("math.inf", 0, 1, args); err != nil {
		return nil, err
	}
	sign := 1
	if len(args) == 1 {
		arg, err := object.AsInt(args[0])
		if err != nil {
			return nil, err
		}
		sign = int(arg)
	}
	return object.NewFloat(math.Inf(sign)), nil
}

func unary(name string, fn func(float64) float64) object.BuiltinFunction {
	return func(ctx context.Context, args ...object.Object) (object.Object, error) {
		if err := object.Require(name, 1, args); err != nil {
			return nil, err
		}
		x, err := object.AsFloat(args[0])
		if err != nil {
			return nil, err
		}
		return object.NewFloat(fn(x)), nil
	}
}

func binary(name string, fn func(float64, float64) float64) object.BuiltinFunction {
	return func(ctx context.Context, args ...object.Object) (object.Object, error) {
		if err := object.Require(name, 2, args); err != nil {
			return nil, err
		}
		x, err := object.AsFloat(args[0])
		if err != nil {
			return nil, err
		}
		y, err := object.AsFloat(args[1])
		if err != nil {
			return nil, err
		}
		return object.NewFloat(fn(x, y)), nil
	}
}

func Module() *object.Module {
	return object.NewBuiltinsModule("math", map[string]object.Object{
		"abs":    object.NewBuiltin("abs", Abs),
		"atan2":  object.NewBuiltin("atan2", Atan2),
		"ceil":   object.NewBuiltin("ceil", Ceil),
		"cos":    object.NewBuiltin("cos", unary("math.cos", math.Cos)),
		"E":      object.NewFloat(math.E),
		"floor":  object.NewBuiltin("floor", Floor),
		"inf":    object.NewBuiltin("inf", Inf),
		"is_inf": object.NewBuiltin("is_inf", IsInf),
		"log":    object.NewBuiltin("log", unary("math.log", math.Log)),
		"log10":  object.NewBuiltin("log10", unary("math.log10", math.Log10)),
		"log2":   object.NewBuiltin("log2", unary("math.log2", math.Log2)),
		"max":    object.NewBuiltin("max", Max),
		"min":    object.NewBuiltin("min", Min),
		"mod":    object.NewBuiltin("mod", binary("math.mod", math.Mod)),
		"PI":     object.NewFloat(math.Pi),
		"pow":    object.NewBuiltin("pow", binary("math.pow", math.Pow)),
		"round":  object.NewBuiltin("round", unary("math.round", math.Round)),
		"sin":    object.NewBuiltin("sin", unary("math.sin", math.Sin)),
		"sqrt":   object.NewBuiltin("sqrt", unary("math.sqrt", math.Sqrt)),
		"sum":    object.NewBuiltin("sum", Sum),
		"tan":    object.NewBuiltin("tan", unary("math.tan", math.Tan)),
	})
}
