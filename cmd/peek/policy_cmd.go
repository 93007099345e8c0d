package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) newPolicyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "List the calls expressions are allowed to make",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := a.evaluator(cmd).Sandbox().Policy().Describe()
			return a.render(cmd, entries, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RECEIVER\tKIND\tMETHODS")
				for _, entry := range entries {
					if entry.AllMethods {
						fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.ReceiverType, "any", green("all methods"))
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.ReceiverType, entry.Kind, strings.Join(entry.Methods, " "))
				}
				tw.Flush()
			})
		},
	}
}
