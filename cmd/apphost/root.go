package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the apphost command tree.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "apphost",
		Short: "Boot an application from plugins, resources and a root component",
		Long: `apphost composes an application from a configuration file: it installs
the configured plugins, imports and registers the resources, attaches the
root component to the host element of the page and prints the result.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "apphost %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
