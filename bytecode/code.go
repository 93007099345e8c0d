package bytecode

import (
	"strings"

	"github.com/deepnoodle-ai/peek/op"
)

// Code represents a compiled code block (expression root or function body).
// It is immutable after creation and safe for concurrent use.
type Code struct {
	id       string
	name     string
	children []*Code
	parent   *Code // Parent code (nil for root)

	instructions []op.Code
	constants    []any
	names        []string
	source       string
	filename     string

	// Source map: one location per instruction for error reporting
	locations []SourceLocation

	maxCallArgs int
	localCount  int

	exceptionHandlers []ExceptionHandler

	// Global variable names (only set on root code)
	globalNames []string

	// Local variable names. On the root code the leading entries are the
	// names of the breakpoint frame locals the expression was compiled for.
	localNames []string
}

// CodeParams contains parameters for creating a new Code.
type CodeParams struct {
	ID                string
	Name              string
	Children          []*Code
	Instructions      []op.Code
	Constants         []any
	Names             []string
	Source            string
	Filename          string
	Locations         []SourceLocation
	MaxCallArgs       int
	LocalCount        int
	GlobalNames       []string
	LocalNames        []string
	ExceptionHandlers []ExceptionHandler
}

// NewCode creates a new immutable Code from the given parameters.
// Input slices are copied so later changes by the caller have no effect.
func NewCode(params CodeParams) *Code {
	var children []*Code
	if len(params.Children) > 0 {
		children = make([]*Code, len(params.Children))
		copy(children, params.Children)
	}
	code := &Code{
		id:                params.ID,
		name:              params.Name,
		children:          children,
		instructions:      copyInstructions(params.Instructions),
		constants:         copyAny(params.Constants),
		names:             copyStrings(params.Names),
		source:            params.Source,
		filename:          params.Filename,
		locations:         copyLocations(params.Locations),
		maxCallArgs:       params.MaxCallArgs,
		localCount:        params.LocalCount,
		globalNames:       copyStrings(params.GlobalNames),
		localNames:        copyStrings(params.LocalNames),
		exceptionHandlers: copyHandlers(params.ExceptionHandlers),
	}
	// Set parent reference on all children for source lookups
	for _, child := range code.children {
		child.parent = code
	}
	return code
}

// ID returns the unique identifier for this code block.
func (c *Code) ID() string {
	return c.id
}

// Name returns the name of this code block.
func (c *Code) Name() string {
	return c.name
}

// IsRoot returns true for the top-level code of a compiled expression.
func (c *Code) IsRoot() bool {
	return c.parent == nil
}

// ChildCount returns the number of child code blocks.
func (c *Code) ChildCount() int {
	return len(c.children)
}

// ChildAt returns the child code block at the given index.
func (c *Code) ChildAt(index int) *Code {
	return c.children[index]
}

// InstructionCount returns the number of instructions.
func (c *Code) InstructionCount() int {
	return len(c.instructions)
}

// InstructionAt returns the instruction at the given index.
func (c *Code) InstructionAt(index int) op.Code {
	return c.instructions[index]
}

// ConstantCount returns the number of constants.
func (c *Code) ConstantCount() int {
	return len(c.constants)
}

// ConstantAt returns the constant at the given index.
func (c *Code) ConstantAt(index int) any {
	return c.constants[index]
}

// NameCount returns the number of attribute names used in this code.
func (c *Code) NameCount() int {
	return len(c.names)
}

// NameAt returns the attribute name at the given index.
func (c *Code) NameAt(index int) string {
	return c.names[index]
}

// Source returns the source code for this block.
func (c *Code) Source() string {
	return c.source
}

// Filename returns the source filename.
func (c *Code) Filename() string {
	return c.filename
}

// LocalCount returns the number of local variables.
func (c *Code) LocalCount() int {
	return c.localCount
}

// MaxCallArgs returns the maximum argument count from any Call opcode.
func (c *Code) MaxCallArgs() int {
	return c.maxCallArgs
}

// LocationAt returns the source location for the instruction at the given index.
func (c *Code) LocationAt(ip int) SourceLocation {
	if ip < 0 || ip >= len(c.locations) {
		return SourceLocation{}
	}
	return c.locations[ip]
}

// ExceptionHandlerCount returns the number of exception handlers.
func (c *Code) ExceptionHandlerCount() int {
	return len(c.exceptionHandlers)
}

// ExceptionHandlerAt returns the exception handler at the given index.
func (c *Code) ExceptionHandlerAt(index int) ExceptionHandler {
	return c.exceptionHandlers[index]
}

// GlobalNameCount returns the number of global variable names.
func (c *Code) GlobalNameCount() int {
	return len(c.globalNames)
}

// GlobalNameAt returns the global variable name at the given index.
// Returns an empty string if the index is out of range.
func (c *Code) GlobalNameAt(index int) string {
	if index < 0 || index >= len(c.globalNames) {
		return ""
	}
	return c.globalNames[index]
}

// LocalNameCount returns the number of local variable names.
func (c *Code) LocalNameCount() int {
	return len(c.localNames)
}

// LocalNameAt returns the local variable name at the given index.
// Returns an empty string if the index is out of range.
func (c *Code) LocalNameAt(index int) string {
	if index < 0 || index >= len(c.localNames) {
		return ""
	}
	return c.localNames[index]
}

// Flatten returns this code and all descendants in a flat slice, parents
// before children.
func (c *Code) Flatten() []*Code {
	codes := []*Code{c}
	for _, child := range c.children {
		codes = append(codes, child.Flatten()...)
	}
	return codes
}

// GetSourceLine returns the source code line at the given 1-based line number.
// Nested function bodies read from the root source so line numbers match.
func (c *Code) GetSourceLine(lineNum int) string {
	if lineNum < 1 {
		return ""
	}
	root := c
	for root.parent != nil {
		root = root.parent
	}
	lines := strings.Split(root.source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// Stats returns statistics about this code block and its descendants.
func (c *Code) Stats() Stats {
	var stats Stats
	for _, code := range c.Flatten() {
		stats.InstructionCount += code.InstructionCount()
		stats.ConstantCount += code.ConstantCount()
		for i := 0; i < code.ConstantCount(); i++ {
			if _, ok := code.ConstantAt(i).(*Function); ok {
				stats.FunctionCount++
			}
		}
	}
	stats.GlobalCount = len(c.globalNames)
	stats.SourceBytes = len(c.source)
	return stats
}
