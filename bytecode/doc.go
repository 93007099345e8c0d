// Package bytecode provides immutable representations of compiled expressions.
//
// This package defines the output of compilation: pure data structures that
// represent compiled bytecode, function templates, and associated metadata.
// They are created once during compilation and may be shared safely across
// goroutines and VM instances.
//
// # Key Types
//
//   - [Code]: An immutable compiled code block (expression root or function body)
//   - [Function]: An immutable function template with parameters and code reference
//   - [StructDef]: A struct type declaration
//   - [ExceptionHandler]: Describes a try/catch/finally block (value type)
//   - [SourceLocation]: Maps bytecode to source positions (value type)
//   - [InstructionIter]: Walks the instructions of a code block one at a time
//
// Collections are exposed through index-based accessors such as
// code.InstructionAt(i) and code.ConstantAt(i); no accessor returns an
// internal slice.
//
// This package depends only on [github.com/deepnoodle-ai/peek/op]. Constants
// are stored as []any and converted to object.Object by the VM at load time.
package bytecode
