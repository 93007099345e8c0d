package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func (a *app) newEvalCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "eval <expr>...",
		Aliases: []string{"e"},
		Short:   "Evaluate watch expressions in the nearest frame",
		Example: `  peek eval -s snapshot.yaml 'order.Total * 2' 'len(order.Items)'`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.loadSnapshot()
			if err != nil {
				return err
			}
			evaluator := a.evaluator(cmd)
			variables := evaluator.Sandbox().EvalExpressions(cmd.Context(), snap.environment(), args)
			return a.render(cmd, variables, func(w io.Writer) {
				printVariables(w, variables)
			})
		},
	}
}

type conditionResult struct {
	Condition string `json:"condition"`
	Result    bool   `json:"result"`
}

func (a *app) newCondCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cond <condition>",
		Short: "Evaluate a breakpoint condition in the nearest frame",
		Long: `Evaluate a breakpoint condition. Conditions that fail to compile, are
rejected by the sandbox or raise an error evaluate to false.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.loadSnapshot()
			if err != nil {
				return err
			}
			evaluator := a.evaluator(cmd)
			result := conditionResult{
				Condition: args[0],
				Result:    evaluator.Sandbox().EvalCondition(cmd.Context(), snap.environment(), args[0]),
			}
			return a.render(cmd, result, func(w io.Writer) {
				if result.Result {
					fmt.Fprintln(w, green("true"))
				} else {
					fmt.Fprintln(w, red("false"))
				}
			})
		},
	}
}
