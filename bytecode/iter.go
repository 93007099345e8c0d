package bytecode

import "github.com/deepnoodle-ai/peek/op"

// InstructionIter walks the instructions of a single code block. Each step
// yields an opcode followed by its operands.
type InstructionIter struct {
	code   *Code
	offset int
	last   int
}

// NewInstructionIter returns an iterator positioned at the first instruction.
func NewInstructionIter(code *Code) *InstructionIter {
	return &InstructionIter{code: code}
}

// Next returns the next instruction and its operands. The second return
// value is false once the end of the code block is reached. An instruction
// whose operands run past the end of the block is returned truncated.
func (it *InstructionIter) Next() ([]op.Code, bool) {
	count := it.code.InstructionCount()
	if it.offset >= count {
		return nil, false
	}
	opcode := it.code.InstructionAt(it.offset)
	end := it.offset + 1 + op.GetInfo(opcode).OperandCount
	if end > count {
		end = count
	}
	instr := make([]op.Code, 0, end-it.offset)
	for i := it.offset; i < end; i++ {
		instr = append(instr, it.code.InstructionAt(i))
	}
	it.last = it.offset
	it.offset = end
	return instr, true
}

// Offset returns the offset of the instruction most recently returned by Next.
func (it *InstructionIter) Offset() int {
	return it.last
}

// All returns all remaining instructions.
func (it *InstructionIter) All() [][]op.Code {
	var result [][]op.Code
	for {
		instr, ok := it.Next()
		if !ok {
			return result
		}
		result = append(result, instr)
	}
}
