package main

import (
	"fmt"
	"io"

	"github.com/deepnoodle-ai/peek/bytecode"
	"github.com/deepnoodle-ai/peek/dis"
	"github.com/deepnoodle-ai/peek/sandbox"
	"github.com/spf13/cobra"
)

type disassembly struct {
	Expression string         `json:"expression"`
	Allowed    bool           `json:"allowed"`
	Rule       string         `json:"rule,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Stats      bytecode.Stats `json:"stats"`
	Listings   []dis.Listing  `json:"listings"`
}

func (a *app) newDisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dis <expr>",
		Short: "Show the compiled instructions of an expression and whether the sandbox allows them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.loadSnapshot()
			if err != nil {
				return err
			}
			s := a.evaluator(cmd).Sandbox()
			verdict, err := s.Check(cmd.Context(), snap.environment(), sandbox.NewExpression(args[0]))
			if sandbox.IsCompilationFailure(err) {
				return err
			}
			listings, err := dis.DisassembleProgram(verdict.Program)
			if err != nil {
				return err
			}
			result := disassembly{
				Expression: args[0],
				Allowed:    verdict.Allowed(),
				Rule:       verdict.Rule,
				Stats:      verdict.Program.Stats(),
				Listings:   listings,
			}
			if verdict.Err != nil {
				result.Reason = verdict.Err.Message
			}
			var printErr error
			renderErr := a.render(cmd, result, func(w io.Writer) {
				if result.Allowed {
					fmt.Fprintln(w, green("allowed"))
				} else {
					fmt.Fprintf(w, "%s %s: %s\n", red("rejected"), result.Rule, result.Reason)
				}
				stats := result.Stats
				fmt.Fprintln(w, faint(fmt.Sprintf("%d instructions, %d constants, %d functions, %d globals, %d source bytes",
					stats.InstructionCount, stats.ConstantCount, stats.FunctionCount, stats.GlobalCount, stats.SourceBytes)))
				fmt.Fprintln(w)
				printErr = dis.PrintProgram(listings, w)
			})
			if renderErr != nil {
				return renderErr
			}
			return printErr
		},
	}
}
