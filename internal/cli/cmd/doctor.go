package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ytgrab/internal/dirs"
	"ytgrab/internal/setup"
	"ytgrab/internal/util"
	"ytgrab/internal/util/format"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose external dependencies and disk space",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			runner := util.NewDefaultRunner()

			binDir, _ := dirs.BinDir()
			rep := setup.Check(viper.GetString("downloader"), binDir)

			if rep.Downloader != "" {
				note := ""
				if rep.Managed {
					note = ", managed"
				}
				fmt.Fprintf(out, "Downloader: %s (%s%s)\n",
					rep.Downloader, toolVersion(cmd.Context(), runner, rep.Downloader), note)
			} else {
				fmt.Fprintln(out, "Downloader: not found — run 'ytgrab setup'")
			}

			if rep.FFmpeg != "" {
				fmt.Fprintf(out, "FFmpeg:     %s (%s)\n",
					rep.FFmpeg, toolVersion(cmd.Context(), runner, rep.FFmpeg))
			} else {
				fmt.Fprintln(out, "FFmpeg:     not found — merging and embedding unavailable")
			}

			outDir := viper.GetString("out_dir")
			if outDir == "" {
				outDir, _ = dirs.DefaultOutputDir()
			}
			if du, err := disk.Usage(outDir); err == nil {
				fmt.Fprintf(out, "Disk:       %s free of %s at %s\n",
					format.HumanizeBytes(du.Free), format.HumanizeBytes(du.Total), outDir)
			}

			if logPath, err := dirs.LogFile(); err == nil {
				fmt.Fprintf(out, "Log file:   %s\n", logPath)
			}

			if len(rep.Missing) > 0 {
				return &ExitError{
					Code: ExitMissingDep,
					Err:  fmt.Errorf("missing dependencies: %s", strings.Join(rep.Missing, ", ")),
				}
			}
			return nil
		},
	}
}

// toolVersion asks a binary for its version; first output line only.
func toolVersion(ctx context.Context, runner util.CmdRunner, path string) string {
	res, err := runner.Run(ctx, util.CmdSpec{Path: path, Args: []string{"--version"}})
	if err != nil {
		return "version unknown"
	}
	line, _, _ := strings.Cut(string(res.Stdout), "\n")
	return strings.TrimSpace(line)
}
