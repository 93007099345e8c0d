// Command peek evaluates breakpoint conditions, watch expressions and
// logpoint messages against a captured program snapshot, using the same
// read-only sandbox a debugger agent uses against a live process.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// app holds the configuration shared by all commands.
type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	rootCmd := &cobra.Command{
		Use:   "peek",
		Short: "Read-only expression evaluation for live debugging",
		Long: `peek evaluates expressions against a program snapshot without allowing
them to change program state. Snapshots are YAML or JSON files listing the
call stack frames, their locals and the process globals.`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return a.loadConfig(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./peek.yaml)")
	flags.StringP("snapshot", "s", "", "snapshot file (YAML or JSON)")
	flags.StringP("output", "o", "", "output format (text|json)")
	flags.Bool("no-color", false, "disable colored output")
	flags.BoolP("verbose", "v", false, "log sandbox state changes")
	flags.Int("locals-depth", 5, "number of frames whose locals are captured")
	flags.Int("max-string-length", 500, "characters kept from string values")
	flags.Int("max-depth", 3, "levels of nested members captured")
	flags.Int("max-members", 1000, "members captured per container")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		a.newEvalCmd(),
		a.newCondCmd(),
		a.newLogCmd(),
		a.newHitCmd(),
		a.newDisCmd(),
		a.newPolicyCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		os.Exit(1)
	}
}
