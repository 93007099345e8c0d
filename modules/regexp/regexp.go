// Package regexp exposes regular expression compilation to programs.
package regexp

import (
	"context"
	"regexp"

	"github.com/deepnoodle-ai/peek/object"
)

func Compile(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("regexp.compile", 1, args); err != nil {
		return nil, err
	}
	pattern, err := object.AsString(args[0])
	if err != nil {
		return nil, err
	}
	r, rErr := regexp.Compile(pattern)
	if rErr != nil {
		return nil, object.ValueErrorf("regexp.compile: %v", rErr)
	}
	return object.NewRegexp(r), nil
}

func Match(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("regexp.match", 2, args); err != nil {
		return nil, err
	}
	pattern, err := object.AsString(args[0])
	if err != nil {
		return nil, err
	}
	str, err := object.AsString(args[1])
	if err != nil {
		return nil, err
	}
	matched, rErr := regexp.MatchString(pattern, str)
	if rErr != nil {
		return nil, object.ValueErrorf("regexp.match: %v", rErr)
	}
	return object.NewBool(matched), nil
}

func Module() *object.Module {
	return object.NewBuiltinsModule("regexp", map[string]object.Object{
		"compile": object.NewBuiltin("compile", Compile),
		"match":   object.NewBuiltin("match", Match),
	})
}
