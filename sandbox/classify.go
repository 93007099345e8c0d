// Package sandbox evaluates expressions against the state of a debugged
// program without letting them change that state.
//
// An expression is compiled, its instructions are checked by Classify, and
// only then is it run on a fresh VM whose every call passes through an
// interceptor that enforces the call Policy.
package sandbox

import (
	"github.com/deepnoodle-ai/peek/bytecode"
	"github.com/deepnoodle-ai/peek/op"
)

// Rules reported in a rejected Verdict.
const (
	RuleWriteInstruction = "write-instruction"
	RuleLocalWrite       = "local-write"
	RuleBlockArgument    = "block-argument"
	RuleRescueHandler    = "rescue-handler"
	RuleCompilation      = "compilation"
)

// writeInstructions are rejected wherever they appear.
var writeInstructions = map[op.Code]string{
	op.StoreAttr:    "store into object field",
	op.StoreGlobal:  "store into global variable",
	op.StoreConst:   "store into constant",
	op.DefineStruct: "define new type",
	op.InplaceOp:    "destructive append",
	op.StoreSubscr:  "destructive indexed assignment",
	op.StoreFree:    "store into captured variable",
}

// Verdict is the result of classifying a compiled program.
type Verdict struct {
	// Program is the classified code. It is set even when rejected.
	Program *bytecode.Code

	// Err describes the first violation found, or is nil.
	Err *MutationError

	// Rule names the check that rejected the program.
	Rule string
}

// Allowed reports whether the program may be executed.
func (v Verdict) Allowed() bool {
	return v.Err == nil
}

type classifyConfig struct {
	allowLocalWrites bool
}

// ClassifyOption configures Classify.
type ClassifyOption func(*classifyConfig)

// AllowLocalWrites permits the classified code to store into its own local
// variables. It is used for function bodies reached at runtime.
func AllowLocalWrites() ClassifyOption {
	return func(c *classifyConfig) {
		c.allowLocalWrites = true
	}
}

// Classify checks code and every function literal it contains for
// instructions that could change program state. Function literal bodies may
// always write their own locals; the top-level code may only do so with
// AllowLocalWrites.
func Classify(code *bytecode.Code, opts ...ClassifyOption) Verdict {
	cfg := &classifyConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	for _, c := range code.Flatten() {
		if v, rejected := classifyCode(c, c == code && !cfg.allowLocalWrites); rejected {
			v.Program = code
			return v
		}
	}
	return Verdict{Program: code}
}

func classifyCode(code *bytecode.Code, topLevel bool) (Verdict, bool) {
	for i := 0; i < code.ExceptionHandlerCount(); i++ {
		handler := code.ExceptionHandlerAt(i)
		if handler.Kind == bytecode.HandlerRescue {
			return reject(RuleRescueHandler,
				"Exception rescue is not allowed (line %d)",
				code.LocationAt(handler.TryStart).Line)
		}
	}
	iter := bytecode.NewInstructionIter(code)
	for {
		instr, ok := iter.Next()
		if !ok {
			return Verdict{}, false
		}
		opcode := instr[0]
		line := code.LocationAt(iter.Offset()).Line
		if desc, found := writeInstructions[opcode]; found {
			return reject(RuleWriteInstruction,
				"Mutating instruction %s (%s) is not allowed (line %d)",
				op.GetInfo(opcode).Name, desc, line)
		}
		switch opcode {
		case op.StoreFast:
			if topLevel {
				return reject(RuleLocalWrite,
					"Local variable assignment is not allowed in an expression (line %d)", line)
			}
		case op.Call:
			if len(instr) > 2 && instr[2]&op.CallFlagBlockArg != 0 {
				return reject(RuleBlockArgument,
					"Passing a function literal as a call argument is not allowed (line %d)", line)
			}
		}
	}
}

func reject(rule, format string, args ...any) (Verdict, bool) {
	return Verdict{Err: newMutationError(ProhibitedInstruction, format, args...), Rule: rule}, true
}
