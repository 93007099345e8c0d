// Package dis supports analysis of compiled expressions by disassembling
// them. This works with the opcodes defined in the `op` package and uses the
// InstructionIter type from the `bytecode` package.
package dis

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/deepnoodle-ai/peek/bytecode"
	"github.com/deepnoodle-ai/peek/op"
	"github.com/fatih/color"
)

// Instruction represents a single bytecode instruction and its operands.
type Instruction struct {
	Offset     int       `json:"offset"`
	Name       string    `json:"name"`
	Opcode     op.Code   `json:"opcode"`
	Operands   []op.Code `json:"operands,omitempty"`
	Annotation string    `json:"annotation,omitempty"`
	Constant   any       `json:"constant,omitempty"`
}

// Listing is the disassembly of one code block of a program.
type Listing struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Instructions []Instruction `json:"instructions"`
}

// Disassemble returns a parsed representation of the given bytecode. Global
// names are only known to the root code, so children are annotated with
// their global index; use DisassembleProgram for full annotations.
func Disassemble(code *bytecode.Code) ([]Instruction, error) {
	return disassemble(code, code)
}

// DisassembleProgram disassembles the root code and every function literal
// it contains, parents before children.
func DisassembleProgram(root *bytecode.Code) ([]Listing, error) {
	var listings []Listing
	for _, code := range root.Flatten() {
		instructions, err := disassemble(root, code)
		if err != nil {
			return nil, err
		}
		name := code.Name()
		if name == "" {
			name = "<anonymous>"
		}
		listings = append(listings, Listing{
			ID:           code.ID(),
			Name:         name,
			Instructions: instructions,
		})
	}
	return listings, nil
}

func disassemble(root, code *bytecode.Code) ([]Instruction, error) {
	var instructions []Instruction
	iter := bytecode.NewInstructionIter(code)
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		offset := iter.Offset()
		info := op.GetInfo(val[0])
		if len(val)-1 < info.OperandCount {
			return nil, fmt.Errorf("truncated instruction %s at offset %d", info.Name, offset)
		}
		var err error
		var constant any
		var annotation string
		switch val[0] {
		case op.LoadFast, op.StoreFast, op.StoreConst:
			annotation, err = getLocalVariableName(code, int(val[1]))
		case op.LoadGlobal, op.StoreGlobal:
			annotation, err = getGlobalVariableName(root, int(val[1]))
		case op.LoadFree, op.StoreFree:
			annotation = fmt.Sprintf("free_%d", val[1])
		case op.LoadAttr, op.StoreAttr:
			annotation, err = getName(code, int(val[1]))
		case op.BinaryOp:
			annotation = op.BinaryOpType(val[1]).String()
		case op.InplaceOp:
			annotation = op.BinaryOpType(val[1]).String() + "="
		case op.CompareOp:
			annotation = op.CompareOpType(val[1]).String()
		case op.ContainsOp:
			annotation = "in"
			if val[1] == 1 {
				annotation = "not in"
			}
		case op.Call:
			if val[2]&op.CallFlagBlockArg != 0 {
				annotation = "block arg"
			}
		case op.MakeCell:
			annotation = "local"
			if uint16(val[2]) == op.CellFromFree {
				annotation = "free"
			}
		case op.JumpForward, op.PopJumpForwardIfFalse, op.PopJumpForwardIfTrue:
			annotation = fmt.Sprintf("to %d", offset+int(val[1]))
		case op.PushExcept:
			annotation = exceptAnnotation(offset, int(val[1]), int(val[2]))
		case op.LoadConst, op.LoadClosure, op.DefineStruct:
			constant, err = getConstantValue(code, int(val[1]))
			if err == nil {
				annotation = fmt.Sprintf("%v", constant)
			}
		}
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, Instruction{
			Offset:     offset,
			Name:       info.Name,
			Opcode:     val[0],
			Operands:   val[1:],
			Annotation: annotation,
			Constant:   constant,
		})
	}
	return instructions, nil
}

func exceptAnnotation(offset, catchOffset, finallyOffset int) string {
	var parts []string
	if catchOffset > 0 {
		parts = append(parts, fmt.Sprintf("catch %d", offset+catchOffset))
	}
	if finallyOffset > 0 {
		parts = append(parts, fmt.Sprintf("finally %d", offset+finallyOffset))
	}
	return strings.Join(parts, ", ")
}

var (
	bold    = color.New(color.Bold).SprintFunc()
	italic  = color.New(color.Italic).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()
	cyan    = color.New(color.FgHiCyan).SprintFunc()
)

// Print a string representation of the given instructions to the given
// writer. Colors follow color.NoColor.
func Print(instructions []Instruction, writer io.Writer) error {
	tw := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OFFSET\tOPCODE\tOPERANDS\tINFO")
	for _, instr := range instructions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			instr.Offset, bold(instr.Name), formatOperands(instr.Operands), formatInfo(instr))
	}
	return tw.Flush()
}

// PrintProgram prints each listing under a header naming its code block.
func PrintProgram(listings []Listing, writer io.Writer) error {
	for i, listing := range listings {
		if i > 0 {
			fmt.Fprintln(writer)
		}
		fmt.Fprintf(writer, "%s %s\n", bold(listing.ID), italic(listing.Name))
		if err := Print(listing.Instructions, writer); err != nil {
			return err
		}
	}
	return nil
}

func formatInfo(instr Instruction) string {
	if instr.Constant == nil {
		if instr.Annotation != "" {
			return cyan(instr.Annotation)
		}
		return ""
	}
	switch c := instr.Constant.(type) {
	case int64:
		return yellow(fmt.Sprintf("%d", c))
	case float64:
		return yellow(fmt.Sprintf("%g", c))
	case string:
		if len(c) > 80 {
			c = c[:77] + "..."
		}
		return green(fmt.Sprintf("%q", c))
	case *bytecode.Function:
		name := c.Name()
		if name == "" {
			name = italic("<anonymous>")
		}
		return magenta(fmt.Sprintf("func:%s", name))
	default:
		return bold(fmt.Sprintf("%v", c))
	}
}

func formatOperands(ops []op.Code) string {
	var sb strings.Builder
	for i, op := range ops {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%d", op))
	}
	return sb.String()
}

func getLocalVariableName(code *bytecode.Code, index int) (string, error) {
	if code.LocalCount() <= index {
		return "", fmt.Errorf("local variable index out of range: %d", index)
	}
	if name := code.LocalNameAt(index); name != "" {
		return name, nil
	}
	return fmt.Sprintf("local_%d", index), nil
}

func getGlobalVariableName(root *bytecode.Code, index int) (string, error) {
	if !root.IsRoot() || root.GlobalNameCount() == 0 {
		return fmt.Sprintf("global_%d", index), nil
	}
	if root.GlobalNameCount() <= index {
		return "", fmt.Errorf("global variable index out of range: %d", index)
	}
	return root.GlobalNameAt(index), nil
}

func getConstantValue(code *bytecode.Code, index int) (any, error) {
	if code.ConstantCount() <= index {
		return "", fmt.Errorf("constant index out of range: %d", index)
	}
	return code.ConstantAt(index), nil
}

func getName(code *bytecode.Code, index int) (string, error) {
	if code.NameCount() <= index {
		return "", fmt.Errorf("name index out of range: %d", index)
	}
	return code.NameAt(index), nil
}
