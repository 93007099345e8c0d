// Package time exposes clock and time parsing functions to programs.
package time

import (
	"context"
	"time"

	"github.com/deepnoodle-ai/peek/object"
)

func Now(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("time.now", 0, args); err != nil {
		return nil, err
	}
	return object.NewTime(time.Now()), nil
}

func Unix(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.RequireRange("time.unix", 1, 2, args); err != nil {
		return nil, err
	}
	sec, err := object.AsInt(args[0])
	if err != nil {
		return nil, err
	}
	var nsec int64
	if len(args) == 2 {
		if nsec, err = object.AsInt(args[1]); err != nil {
			return nil, err
		}
	}
	return object.NewTime(time.Unix(sec, nsec)), nil
}

func Parse(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("time.parse", 2, args); err != nil {
		return nil, err
	}
	layout, err := object.AsString(args[0])
	if err != nil {
		return nil, err
	}
	value, err := object.AsString(args[1])
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return nil, object.ValueErrorf("time.parse: %v", err)
	}
	return object.NewTime(t), nil
}

// Since returns the seconds elapsed since t as a float.
func Since(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("time.since", 1, args); err != nil {
		return nil, err
	}
	t, err := object.AsTime(args[0])
	if err != nil {
		return nil, err
	}
	return object.NewFloat(time.Since(t).Seconds()), nil
}

func Module() *object.Module {
	return object.NewBuiltinsModule("time", map[string]object.Object{
		"now":     object.NewBuiltin("now", Now),
		"parse":   object.NewBuiltin("parse", Parse),
		"since":   object.NewBuiltin("since", Since),
		"unix":    object.NewBuiltin("unix", Unix),
		"RFC3339": object.NewString(time.RFC3339),
	})
}
