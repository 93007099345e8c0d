package main

import (
	"fmt"
	"io"

	"github.com/deepnoodle-ai/peek"
	"github.com/spf13/cobra"
)

func (a *app) newHitCmd() *cobra.Command {
	var condition string
	var expressions []string
	cmd := &cobra.Command{
		Use:   "hit",
		Short: "Process a breakpoint hit: check the condition, capture the stack and evaluate expressions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.loadSnapshot()
			if err != nil {
				return err
			}
			result := a.evaluator(cmd).HandleHit(cmd.Context(), peek.Hit{
				Frames:      snap.frames(),
				Globals:     snap.Globals,
				Condition:   condition,
				Expressions: expressions,
			})
			return a.render(cmd, result, func(w io.Writer) {
				if !result.Triggered {
					fmt.Fprintln(w, yellow("condition not met"))
					return
				}
				printStack(w, result.Stack)
				if len(result.Expressions) > 0 {
					fmt.Fprintln(w)
					printVariables(w, result.Expressions)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&condition, "condition", "c", "", "breakpoint condition")
	cmd.Flags().StringArrayVarP(&expressions, "expr", "e", nil, "watch expression (repeatable)")
	return cmd
}

func (a *app) newLogCmd() *cobra.Command {
	var condition, level string
	cmd := &cobra.Command{
		Use:   "log <message> [expr]...",
		Short: "Render a logpoint message",
		Long: `Render a logpoint message. $0, $1, ... are replaced with the values of the
given expressions and $$ is a literal $. The message is also written to the
log at the requested level.`,
		Example: `  peek log -s snapshot.yaml 'order $0 has $1 items' order.ID 'len(order.Items)'`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.loadSnapshot()
			if err != nil {
				return err
			}
			result := a.evaluator(cmd).HandleHit(cmd.Context(), peek.Hit{
				Frames:      snap.frames(),
				Globals:     snap.Globals,
				Condition:   condition,
				Expressions: args[1:],
				LogMessage:  args[0],
				LogLevel:    level,
			})
			return a.render(cmd, result, func(w io.Writer) {
				if result.Triggered {
					fmt.Fprintln(w, result.LogMessage)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&condition, "condition", "c", "", "logpoint condition")
	cmd.Flags().StringVarP(&level, "level", "l", "info", "log level (info|warning|error)")
	return cmd
}
