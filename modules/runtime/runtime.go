// Package runtime exposes goroutine and process introspection to programs.
// Functions that change scheduler or memory state are included so the call
// policy can refuse them by name.
package runtime

import (
	"context"
	"runtime"
	"runtime/debug"

	"github.com/deepnoodle-ai/peek/object"
)

func NumGoroutine(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("runtime.num_goroutine", 0, args); err != nil {
		return nil, err
	}
	return object.NewInt(int64(runtime.NumGoroutine())), nil
}

func NumCPU(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("runtime.num_cpu", 0, args); err != nil {
		return nil, err
	}
	return object.NewInt(int64(runtime.NumCPU())), nil
}

func GOMAXPROCS(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("runtime.gomaxprocs", 0, args); err != nil {
		return nil, err
	}
	// An argument of zero only queries the setting.
	return object.NewInt(int64(runtime.GOMAXPROCS(0))), nil
}

// MemStats returns a map of heap statistics.
func MemStats(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("runtime.mem_stats", 0, args); err != nil {
		return nil, err
	}
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return object.NewMap(map[string]object.Object{
		"alloc":       object.NewInt(int64(stats.Alloc)),
		"total_alloc": object.NewInt(int64(stats.TotalAlloc)),
		"sys":         object.NewInt(int64(stats.Sys)),
		"heap_alloc":  object.NewInt(int64(stats.HeapAlloc)),
		"heap_inuse":  object.NewInt(int64(stats.HeapInuse)),
		"num_gc":      object.NewInt(int64(stats.NumGC)),
	}), nil
}

// Stack returns the formatted stack of the calling goroutine.
func Stack(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("runtime.stack", 0, args); err != nil {
		return nil, err
	}
	return object.NewString(string(debug.Stack())), nil
}

func GC(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("runtime.gc", 0, args); err != nil {
		return nil, err
	}
	runtime.GC()
	return object.Nil, nil
}

func Gosched(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("runtime.gosched", 0, args); err != nil {
		return nil, err
	}
	runtime.Gosched()
	return object.Nil, nil
}

func LockOSThread(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := object.Require("runtime.lock_os_thread", 0, args); err != nil {
		return nil, err
	}
	runtime.LockOSThread()
	return object.Nil, nil
}

func Module() *object.Module {
	return object.NewBuiltinsModule("runtime", map[string]object.Object{
		"gc":             object.NewBuiltin("gc", GC),
		"goarch":         object.NewString(runtime.GOARCH),
		"gomaxprocs":     object.NewBuiltin("gomaxprocs", GOMAXPROCS),
		"goos":           object.NewString(runtime.GOOS),
		"gosched":        object.NewBuiltin("gosched", Gosched),
		"lock_os_thread": object.NewBuiltin("lock_os_thread", LockOSThread),
		"mem_stats":      object.NewBuiltin("mem_stats", MemStats),
		"num_cpu":        object.NewBuiltin("num_cpu", NumCPU),
		"num_goroutine":  object.NewBuiltin("num_goroutine", NumGoroutine),
		"stack":          object.NewBuiltin("stack", Stack),
		"version":        object.NewString(runtime.Version()),
	})
}
