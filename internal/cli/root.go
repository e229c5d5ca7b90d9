// Package cli wires configuration, credentials and the scanner into the
// trelloha command tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/ui/report"
)

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	configPath string
	debug      bool
}

// NewRootCmd builds the command tree. Invoked without a subcommand it
// performs a single scan and exits.
func NewRootCmd(version string) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "trelloha",
		Short: "Complete board checklist items whose reviews, pull requests and bugs are done",
		Long: "trelloha scans the checklists of a board and marks complete every item\n" +
			"whose label links to a merged review, a closed pull request or issue,\n" +
			"or a bug that reached a fixed status.",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, flags, false)
		},
	}

	rootCmd.PersistentFlags().StringVarP(
		&flags.configPath, "config", "c", model.DefaultConfigPath(), "config file",
	)
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(scanCmd(flags))
	rootCmd.AddCommand(watchCmd(flags))
	rootCmd.AddCommand(loginCmd(flags))
	rootCmd.AddCommand(configCmd(flags))

	return rootCmd
}

// Execute runs the command tree with args and returns the process exit
// code. Errors are printed to stderr.
func Execute(version string, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCmd(version)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(stderr, report.RenderError(err))
		return 1
	}
	return 0
}

// Main is the entry point used by cmd/trelloha.
func Main(version string) {
	os.Exit(Execute(version, os.Args[1:], os.Stdout, os.Stderr))
}
