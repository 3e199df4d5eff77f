// Package cmd wires the cobra command tree for ytgrab.
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"ytgrab/internal/config"
	"ytgrab/internal/dirs"
	"ytgrab/internal/logging"
	"ytgrab/internal/model"
)

const (
	ExitOK            = 0
	ExitCLIError      = 1
	ExitMissingDep    = 2
	ExitDownloadError = 3
	ExitSetupError    = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ytgrab [url]",
		Short:         "Small front-end for yt-dlp downloads",
		Long:          "ytgrab wraps yt-dlp in a friendly interface: paste a link, pick a format, and watch the download. On a terminal it opens an interactive UI; otherwise it behaves like a plain command.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if path, err := dirs.LogFile(); err == nil {
				_ = logging.Setup(path, viper.GetBool("verbose"))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, opts, err := assembleOptions(cmd, args)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			if !app.NoUI && isTerminal() {
				return runTUI(cmd.Context(), app, opts)
			}
			if opts.URL == "" {
				return &ExitError{Code: ExitCLIError, Err: cmd.Usage()}
			}
			return runPlain(cmd.Context(), cmd, app, opts)
		},
	}

	// Persistent flags available to all subcommands
	root.PersistentFlags().StringP("out-dir", "o", "", "Output directory (default: your Downloads folder)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Echo full downloader output and enable debug logging")
	root.PersistentFlags().String("downloader", "", "Path to yt-dlp or youtube-dl")
	root.PersistentFlags().Duration("grace", 5*time.Second, "How long a cancelled download may take to exit before it is killed")

	// Download flags also live on root so `ytgrab <url>` works directly.
	bindDownloadFlags(root.Flags())
	root.Flags().Bool("no-ui", false, "Disable the interactive UI; use plain output")

	// Subcommands
	root.AddCommand(newGetCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newSetupCmd())
	root.AddCommand(newCookiesCmd())
	root.AddCommand(newShortcutCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func bindDownloadFlags(fs *pflag.FlagSet) {
	fs.StringP("format", "f", "best", "Format: best, video, audio, or a raw yt-dlp format code")
	fs.StringP("template", "t", "", "Output filename template (default: %(title)s.%(ext)s)")
	fs.StringP("rate-limit", "r", "", "Download rate limit, e.g. 500K or 4.2M")
	fs.Bool("embed-thumbnail", false, "Embed the thumbnail into the file")
	fs.Bool("embed-metadata", false, "Embed metadata into the file")
	fs.Bool("embed-subs", false, "Download and embed subtitles")
	fs.Bool("sponsorblock", false, "Remove sponsored segments (SponsorBlock)")
	fs.StringSlice("sponsorblock-categories", nil, "SponsorBlock categories to remove (default: sponsor)")
	fs.Bool("no-playlist", false, "Download only the video, not the playlist it is in")
	fs.String("cookies-from", "", "Browser to read cookies from, e.g. firefox")
	fs.String("cookies-file", "", "Netscape cookies.txt to pass to the downloader")
	fs.String("extra-args", "", "Extra arguments appended to the yt-dlp command line")
}

// assembleOptions merges flags, environment, and config into the two option
// structs. Flag > env > config file > default, courtesy of viper.
func assembleOptions(cmd *cobra.Command, args []string) (model.AppOptions, model.DownloadOptions, error) {
	outDir := viper.GetString("out_dir")
	if outDir == "" {
		if d, err := dirs.DefaultOutputDir(); err == nil {
			outDir = d
		} else {
			outDir = "."
		}
	}
	outDir = filepath.Clean(outDir)

	app := model.AppOptions{
		Downloader: viper.GetString("downloader"),
		Verbose:    viper.GetBool("verbose"),
		Grace:      viper.GetDuration("grace"),
	}
	if noUI, err := cmd.Flags().GetBool("no-ui"); err == nil {
		app.NoUI = noUI
	}

	preset, override := model.ResolveFormat(stringOpt(cmd, "format", "format"))

	template := stringOpt(cmd, "template", "template")
	rateLimit := stringOpt(cmd, "rate-limit", "rate_limit")
	embedThumb, _ := cmd.Flags().GetBool("embed-thumbnail")
	embedMeta, _ := cmd.Flags().GetBool("embed-metadata")
	embedSubs, _ := cmd.Flags().GetBool("embed-subs")
	sponsor, _ := cmd.Flags().GetBool("sponsorblock")
	sponsorCats := sliceOpt(cmd, "sponsorblock-categories", "sponsorblock_categories")
	noPlaylist, _ := cmd.Flags().GetBool("no-playlist")
	cookiesFrom := stringOpt(cmd, "cookies-from", "cookies_from")
	cookiesFile, _ := cmd.Flags().GetString("cookies-file")
	extraArgs, _ := cmd.Flags().GetString("extra-args")

	opts := model.DownloadOptions{
		OutDir:                 outDir,
		Template:               template,
		Preset:                 preset,
		FormatOverride:         override,
		EmbedThumbnail:         embedThumb,
		EmbedMetadata:          embedMeta,
		EmbedSubs:              embedSubs,
		SponsorBlock:           sponsor,
		SponsorBlockCategories: sponsorCats,
		RateLimit:              rateLimit,
		CookieSource:           cookiesFrom,
		CookieFile:             cookiesFile,
		NoPlaylist:             noPlaylist,
		ExtraArgs:              extraArgs,
	}
	if len(args) > 0 {
		opts.URL = args[0]
	}
	return app, opts, nil
}

// stringOpt prefers an explicitly set flag over viper (env, config file,
// flag default). Download flags are registered per command, so viper alone
// would miss flags set on a subcommand.
func stringOpt(cmd *cobra.Command, flag, key string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return viper.GetString(key)
}

func sliceOpt(cmd *cobra.Command, flag, key string) []string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetStringSlice(flag)
		return v
	}
	return viper.GetStringSlice(key)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	_ = config.Init(root)
	return root.ExecuteContext(ctx)
}

func ensureDir(path string) error {
	if path == "" {
		path = "."
	}
	return os.MkdirAll(filepath.Clean(path), 0o755)
}
