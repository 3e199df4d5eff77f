package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"ytgrab/internal/cookies"
	"ytgrab/internal/dirs"
)

func newCookiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cookies <browser> <domain>",
		Short:         "Export browser cookies to a cookies.txt for the downloader",
		Long:          "Reads cookies for a domain from an installed browser (or 'all') and writes a Netscape-format cookies.txt, ready for --cookies-file or the UI's cookie file field.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			browser, domain := args[0], args[1]

			outPath, _ := cmd.Flags().GetString("out")
			if outPath == "" {
				dataDir, err := dirs.DataDir()
				if err != nil {
					return &ExitError{Code: ExitCLIError, Err: err}
				}
				if err := dirs.Ensure(dataDir); err != nil {
					return &ExitError{Code: ExitCLIError, Err: err}
				}
				outPath = filepath.Join(dataDir, "cookies.txt")
			}

			n, err := cookies.Export(cmd.Context(), browser, domain, outPath)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d cookie(s) for %s to %s\n", n, domain, outPath)
			return nil
		},
	}
	cmd.Flags().String("out", "", "Destination file (default: cookies.txt in the app data dir)")
	return cmd
}
