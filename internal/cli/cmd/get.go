package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ytgrab/internal/dirs"
	"ytgrab/internal/logging"
	"ytgrab/internal/model"
	"ytgrab/internal/progress"
	"ytgrab/internal/session"
	"ytgrab/internal/ui"
	"ytgrab/internal/ytdlp"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "get <url>",
		Short:         "Download one URL with plain console output",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, opts, err := assembleOptions(cmd, args)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			return runPlain(cmd.Context(), cmd, app, opts)
		},
	}
	bindDownloadFlags(cmd.Flags())
	return cmd
}

func runTUI(ctx context.Context, app model.AppOptions, opts model.DownloadOptions) error {
	if err := ensureDir(opts.OutDir); err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("failed to create output dir: %v", err)}
	}
	if err := ui.Run(ctx, app, opts); err != nil {
		return mapSessionError(err)
	}
	return nil
}

func runPlain(ctx context.Context, cmd *cobra.Command, app model.AppOptions, opts model.DownloadOptions) error {
	if err := ensureDir(opts.OutDir); err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("failed to create output dir: %v", err)}
	}

	binDir, _ := dirs.BinDir()
	ctrl := session.NewController(session.Config{
		Reporter:   plainReporter{out: cmd.OutOrStdout()},
		Logger:     logging.L(),
		Grace:      app.Grace,
		Downloader: app.Downloader,
		BinDir:     binDir,
	})

	run, err := ctrl.Start(ctx, opts)
	if err != nil {
		return mapSessionError(err)
	}
	// The run finishes even when ctx is cancelled; cancellation only asks
	// the process to stop, so wait without a deadline for the real outcome.
	out, err := run.Wait(context.Background())
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	switch out.State {
	case session.StateCompleted:
		fmt.Fprintf(cmd.OutOrStdout(), "Done: %d file(s) saved to %s\n", out.Files, opts.OutDir)
		return nil
	case session.StateCancelled:
		return &ExitError{Code: ExitDownloadError, Err: errors.New("download cancelled")}
	default:
		return &ExitError{Code: ExitDownloadError, Err: out.Err}
	}
}

// mapSessionError attaches the right exit code to a Start failure.
func mapSessionError(err error) error {
	if err == nil {
		return nil
	}
	var verr *ytdlp.ValidationError
	switch {
	case errors.As(err, &verr):
		return &ExitError{Code: ExitCLIError, Err: err}
	case errors.Is(err, ytdlp.ErrNotFound):
		return &ExitError{Code: ExitMissingDep, Err: err}
	default:
		return &ExitError{Code: ExitDownloadError, Err: err}
	}
}

// plainReporter relays the downloader's own output; in plain mode that
// output is the interface.
type plainReporter struct {
	out io.Writer
}

func (r plainReporter) Update(progress.Update) {}

func (r plainReporter) Log(l progress.Log) {
	fmt.Fprintln(r.out, l.Line)
}

func (r plainReporter) Result(progress.Result) {}
