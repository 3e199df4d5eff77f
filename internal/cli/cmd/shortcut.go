package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ytgrab/internal/setup"
)

func newShortcutCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "shortcut",
		Short:         "Create a desktop shortcut that opens the UI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exe, err := os.Executable()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			path, err := setup.WriteShortcut(exe)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shortcut created: %s\n", path)
			return nil
		},
	}
}
