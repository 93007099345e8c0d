package bytecode

// Stats contains statistics about compiled bytecode.
type Stats struct {
	// InstructionCount is the total number of bytecode instructions.
	InstructionCount int `json:"instructions"`

	// ConstantCount is the number of constants in all constant pools.
	ConstantCount int `json:"constants"`

	// GlobalCount is the number of process globals referenced.
	GlobalCount int `json:"globals"`

	// FunctionCount is the number of function literals in the expression.
	FunctionCount int `json:"functions"`

	// SourceBytes is the size of the original source code in bytes.
	SourceBytes int `json:"source_bytes"`
}
