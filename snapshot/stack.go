// Package snapshot captures the call stack of a breakpoint hit and renders
// values and log messages for reporting.
package snapshot

import (
	"fmt"
	"sort"

	"github.com/deepnoodle-ai/peek/object"
)

// DefaultLocalsDepth is the number of frames, counting from the top of the
// stack, whose locals are captured.
const DefaultLocalsDepth = 5

// Location is a source position in the debugged program.
type Location struct {
	Path string `json:"path" yaml:"path"`
	Line int    `json:"line" yaml:"line"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.Path, l.Line)
}

// Frame is a handle to one frame of the debugged program's call stack, as
// provided by the code that detected the breakpoint hit.
type Frame interface {
	Function() string
	Location() Location
	Locals() map[string]any
}

// StaticFrame is a Frame backed by plain values.
type StaticFrame struct {
	FunctionName string         `json:"function" yaml:"function"`
	Loc          Location       `json:"location" yaml:"location"`
	Vars         map[string]any `json:"locals" yaml:"locals"`
}

func (f *StaticFrame) Function() string       { return f.FunctionName }
func (f *StaticFrame) Location() Location     { return f.Loc }
func (f *StaticFrame) Locals() map[string]any { return f.Vars }

// StackFrame is the captured form of a Frame. Locals is empty for frames
// beyond the capture depth.
type StackFrame struct {
	Function string     `json:"function"`
	Location Location   `json:"location"`
	Locals   []Variable `json:"locals,omitempty"`
}

type captureConfig struct {
	localsDepth int
	limits      Limits
}

// CaptureOption configures CaptureStack.
type CaptureOption func(*captureConfig)

// WithLocalsDepth sets how many of the nearest frames have their locals
// captured. A negative depth captures no locals.
func WithLocalsDepth(depth int) CaptureOption {
	return func(c *captureConfig) {
		c.localsDepth = depth
	}
}

// WithLimits sets the limits used to render captured locals.
func WithLimits(limits Limits) CaptureOption {
	return func(c *captureConfig) {
		c.limits = limits
	}
}

// CaptureStack records the function and location of every frame, nearest
// frame first, and the locals of the nearest frames sorted by name. The
// captured variables are rendered copies and hold no references to the
// debugged program's values.
func CaptureStack(frames []Frame, opts ...CaptureOption) []StackFrame {
	cfg := &captureConfig{
		localsDepth: DefaultLocalsDepth,
		limits:      DefaultLimits(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	result := make([]StackFrame, 0, len(frames))
	for i, frame := range frames {
		sf := StackFrame{
			Function: frame.Function(),
			Location: frame.Location(),
		}
		if i < cfg.localsDepth {
			sf.Locals = captureLocals(frame.Locals(), cfg.limits)
		}
		result = append(result, sf)
	}
	return result
}

func captureLocals(locals map[string]any, limits Limits) []Variable {
	names := make([]string, 0, len(locals))
	for name := range locals {
		names = append(names, name)
	}
	sort.Strings(names)
	variables := make([]Variable, 0, len(names))
	for _, name := range names {
		variables = append(variables, NewVariable(name, object.FromGoType(locals[name]), limits))
	}
	return variables
}
