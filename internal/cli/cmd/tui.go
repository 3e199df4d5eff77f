package cmd

import (
	"github.com/spf13/cobra"
)

func newTuiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tui [url]",
		Short:         "Open the interactive UI",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, opts, err := assembleOptions(cmd, args)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			return runTUI(cmd.Context(), app, opts)
		},
	}
	bindDownloadFlags(cmd.Flags())
	return cmd
}
