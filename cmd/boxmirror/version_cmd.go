package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boxmirror/boxmirror/internal/version"
)

func init() {
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Detailed())
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// No config needed to print a version.
			return nil
		},
	}
}
