// Package op defines opcodes used by the compiler and virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	Invalid Code = 0

	// Execution
	Nop         Code = 1
	Halt        Code = 2
	Call        Code = 3 // operand1=argc, operand2=call flags
	ReturnValue Code = 4

	// Jump
	JumpForward           Code = 11
	PopJumpForwardIfFalse Code = 12
	PopJumpForwardIfTrue  Code = 13

	// Load
	LoadAttr   Code = 20
	LoadFast   Code = 21
	LoadFree   Code = 22
	LoadGlobal Code = 23
	LoadConst  Code = 24

	// Store
	StoreAttr   Code = 30
	StoreFast   Code = 31
	StoreFree   Code = 32
	StoreGlobal Code = 33
	StoreConst  Code = 34 // Bind a module-level constant

	// Operations
	BinaryOp      Code = 40
	CompareOp     Code = 41
	UnaryNegative Code = 42
	UnaryNot      Code = 43
	InplaceOp     Code = 44 // Compound assignment; extends lists in place

	// Build
	BuildList Code = 50
	BuildMap  Code = 51

	// Containers
	BinarySubscr Code = 60
	StoreSubscr  Code = 61
	ContainsOp   Code = 62
	Slice        Code = 64

	// Stack
	Copy   Code = 71
	PopTop Code = 72

	// Push constants
	Nil   Code = 80
	False Code = 81
	True  Code = 82

	// Closures
	LoadClosure Code = 120 // operand1=function constant, operand2=free count
	MakeCell    Code = 121 // operand1=index, operand2=cell source

	// Types
	DefineStruct Code = 125 // Create a struct type from the constant at operand1

	// Exception handling
	PushExcept Code = 140 // Push exception handler: operand1=catch offset, operand2=finally offset
	PopExcept  Code = 141 // Pop exception handler (normal try completion)
	Throw      Code = 142 // Throw TOS as exception
	EndFinally Code = 143 // End finally block, re-raise pending exception if any
)

// Call flags carried in the second operand of a Call instruction.
const (
	// CallFlagBlockArg is set when any argument of the call contains a
	// function literal.
	CallFlagBlockArg Code = 1 << 0
)

// Cell sources carried in the second operand of a MakeCell instruction.
const (
	// CellFromLocal captures a local slot of the active frame.
	CellFromLocal uint16 = 0
	// CellFromFree reuses a cell captured by the active closure.
	CellFromFree uint16 = 1
)

// BinaryOpType describes a type of binary operation, as in an operation that
// takes two operands. For example, addition, subtraction, multiplication, etc.
type BinaryOpType uint16

const (
	Add      BinaryOpType = 1
	Subtract BinaryOpType = 2
	Multiply BinaryOpType = 3
	Divide   BinaryOpType = 4
	Modulo   BinaryOpType = 5
	Power    BinaryOpType = 9
)

// String returns a string representation of the binary operation.
// For example, "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	case Power:
		return "**"
	default:
		return ""
	}
}

// CompareOpType describes a type of comparison operation. For example, less
// than, greater than, equal, etc.
type CompareOpType uint16

const (
	LessThan           CompareOpType = 1
	LessThanOrEqual    CompareOpType = 2
	Equal              CompareOpType = 3
	NotEqual           CompareOpType = 4
	GreaterThan        CompareOpType = 5
	GreaterThanOrEqual CompareOpType = 6
)

// String returns a string representation of the comparison operation.
// For example, "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op    Code
		name  string
		count int
	}
	ops := []opInfo{
		{BinaryOp, "BINARY_OP", 1},
		{BinarySubscr, "BINARY_SUBSCR", 0},
		{BuildList, "BUILD_LIST", 1},
		{BuildMap, "BUILD_MAP", 1},
		{Call, "CALL", 2},
		{CompareOp, "COMPARE_OP", 1},
		{ContainsOp, "CONTAINS_OP", 1},
		{Copy, "COPY", 1},
		{DefineStruct, "DEFINE_STRUCT", 1},
		{EndFinally, "END_FINALLY", 0},
		{False, "FALSE", 0},
		{Halt, "HALT", 0},
		{InplaceOp, "INPLACE_OP", 1},
		{JumpForward, "JUMP_FORWARD", 1},
		{LoadAttr, "LOAD_ATTR", 1},
		{LoadClosure, "LOAD_CLOSURE", 2},
		{LoadConst, "LOAD_CONST", 1},
		{LoadFast, "LOAD_FAST", 1},
		{LoadFree, "LOAD_FREE", 1},
		{LoadGlobal, "LOAD_GLOBAL", 1},
		{MakeCell, "MAKE_CELL", 2},
		{Nil, "NIL", 0},
		{Nop, "NOP", 0},
		{PopExcept, "POP_EXCEPT", 0},
		{PopJumpForwardIfFalse, "POP_JUMP_FORWARD_IF_FALSE", 1},
		{PopJumpForwardIfTrue, "POP_JUMP_FORWARD_IF_TRUE", 1},
		{PopTop, "POP_TOP", 0},
		{PushExcept, "PUSH_EXCEPT", 2},
		{ReturnValue, "RETURN_VALUE", 0},
		{Slice, "SLICE", 0},
		{StoreAttr, "STORE_ATTR", 1},
		{StoreConst, "STORE_CONST", 1},
		{StoreFast, "STORE_FAST", 1},
		{StoreFree, "STORE_FREE", 1},
		{StoreGlobal, "STORE_GLOBAL", 1},
		{StoreSubscr, "STORE_SUBSCR", 0},
		{Throw, "THROW", 0},
		{True, "TRUE", 0},
		{UnaryNegative, "UNARY_NEGATIVE", 0},
		{UnaryNot, "UNARY_NOT", 0},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	if int(op) >= len(infos) {
		return Info{}
	}
	return infos[op]
}
