package builtins

import (
	"context"
	"errors"
	"fmt"

	"github.com/deepnoodle-ai/peek/object"
)

// Classes returns the type objects for the core value types. Calling a class
// constructs a value; class-level methods are bound to the class.
func Classes() map[string]object.Object {
	return map[string]object.Object{
		"string": object.NewClass("string",
			object.WithConstructor(Str),
			object.WithClassMethod("from_list", stringFromList)),
		"list": object.NewClass("list",
			object.WithConstructor(newList)),
		"map": object.NewClass("map",
			object.WithConstructor(newMap),
			object.WithClassMethod("from_items", mapFromItems)),
		"error": object.NewClass("error",
			object.WithConstructor(newError)),
	}
}

func newList(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.RequireRange("list", 0, 1, args); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return object.NewList(nil), nil
	}
	switch arg := args[0].(type) {
	case *object.List:
		return arg.Copy(), nil
	case *object.Map:
		return arg.Keys(), nil
	case *object.String:
		var items []object.Object
		for _, r := range arg.Value() {
			items = append(items, object.NewString(string(r)))
		}
		return object.NewList(items), nil
	default:
		return nil, object.TypeErrorf("list() unsupported argument (%s given)", arg.Type())
	}
}

func newMap(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.RequireRange("map", 0, 1, args); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return object.NewMap(nil), nil
	}
	m, err := object.AsMap(args[0])
	if err != nil {
		return nil, err
	}
	return m.Copy(), nil
}

// mapFromItems builds a map from a list of [key, value] pairs.
func mapFromItems(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("map.from_items", 1, args); err != nil {
		return nil, err
	}
	list, err := object.AsList(args[0])
	if err != nil {
		return nil, err
	}
	result := object.NewMap(nil)
	for _, item := range list.Value() {
		pair, err := object.AsList(item)
		if err != nil || pair.Len() != 2 {
			return nil, object.ValueErrorf("map.from_items() expects [key, value] pairs")
		}
		key, err := object.AsString(pair.Value()[0])
		if err != nil {
			return nil, err
		}
		result.Set(key, pair.Value()[1])
	}
	return result, nil
}

func stringFromList(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.RequireRange("string.from_list", 1, 2, args); err != nil {
		return nil, err
	}
	list, err := object.AsList(args[0])
	if err != nil {
		return nil, err
	}
	sep := object.NewString("")
	if len(args) == 2 {
		s, err := object.AsString(args[1])
		if err != nil {
			return nil, err
		}
		sep = object.NewString(s)
	}
	join, _ := sep.GetAttr("join")
	return join.(*object.Builtin).Call(ctx, list)
}

// newError creates an error value without throwing it.
func newError(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.RequireRange("error", 1, 64, args); err != nil {
		return nil, err
	}
	fs, err := object.AsString(args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return object.NewError(errors.New(fs)), nil
	}
	fmtArgs := make([]any, len(args)-1)
	for i, v := range args[1:] {
		fmtArgs[i] = object.FormatArg(v)
	}
	return object.NewError(fmt.Errorf(fs, fmtArgs...)), nil
}
