package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ytgrab/internal/dirs"
	"ytgrab/internal/logging"
	"ytgrab/internal/setup"
	"ytgrab/internal/util"
)

func newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "setup",
		Short:         "Install missing dependencies (yt-dlp, optionally ffmpeg)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			force, _ := cmd.Flags().GetBool("force")
			withFFmpeg, _ := cmd.Flags().GetBool("ffmpeg")

			binDir, err := dirs.BinDir()
			if err != nil {
				return &ExitError{Code: ExitSetupError, Err: err}
			}
			rep := setup.Check(viper.GetString("downloader"), binDir)

			if rep.Downloader == "" || force {
				fmt.Fprintln(out, "Downloading the latest yt-dlp release…")
				inst := setup.NewInstaller(binDir, logging.L())
				path, err := inst.Install(cmd.Context())
				if err != nil {
					return &ExitError{Code: ExitSetupError, Err: err}
				}
				fmt.Fprintf(out, "Installed: %s\n", path)
			} else {
				fmt.Fprintf(out, "yt-dlp already present: %s\n", rep.Downloader)
			}

			if rep.FFmpeg == "" && withFFmpeg {
				fmt.Fprintln(out, "Installing ffmpeg via the system package manager…")
				err := setup.InstallFFmpeg(cmd.Context(), util.NewDefaultRunner(), plainReporter{out: out})
				if err != nil {
					return &ExitError{Code: ExitSetupError, Err: err}
				}
				fmt.Fprintln(out, "ffmpeg installed.")
			} else if rep.FFmpeg == "" {
				fmt.Fprintln(out, "ffmpeg is missing; rerun with --ffmpeg to install it.")
			}
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Reinstall yt-dlp even when one is already present")
	cmd.Flags().Bool("ffmpeg", false, "Also install ffmpeg via the platform package manager")
	return cmd
}
