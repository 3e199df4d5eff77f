// Package ytdlp renders download options into yt-dlp invocations and
// interprets the tool's console output. Nothing in this package starts a
// process; building an argument list is a pure transformation so that the
// same options always produce the same command line.
package ytdlp

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"ytgrab/internal/model"
)

// ValidationError reports malformed user input caught before any process is
// spawned.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Rate expressions accepted by yt-dlp's --limit-rate: a number with an
// optional K/M/G suffix.
var rateLimitRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?[KkMmGg]?$`)

// BuildArgs renders opts into the yt-dlp argument vector. The URL is the
// final positional token unless raw extra arguments are present, which are
// appended after it so they win under yt-dlp's own last-one-wins precedence.
func BuildArgs(opts model.DownloadOptions) ([]string, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, &ValidationError{Field: "url", Reason: "must not be empty"}
	}
	if opts.RateLimit != "" && !rateLimitRe.MatchString(opts.RateLimit) {
		return nil, &ValidationError{Field: "rate limit", Value: opts.RateLimit, Reason: "expected a number with optional K/M/G suffix"}
	}
	extra, err := SplitArgs(opts.ExtraArgs)
	if err != nil {
		return nil, err
	}

	args := formatArgs(opts)

	if opts.EmbedThumbnail {
		args = append(args, "--embed-thumbnail")
	}
	if opts.EmbedMetadata {
		args = append(args, "--add-metadata")
	}
	if opts.EmbedSubs {
		args = append(args, "--write-subs", "--embed-subs")
	}
	if opts.SponsorBlock {
		cats := opts.SponsorBlockCategories
		if len(cats) == 0 {
			cats = model.DefaultSponsorBlockCategories
		}
		args = append(args, "--sponsorblock-remove", strings.Join(cats, ","))
	}
	if opts.RateLimit != "" {
		args = append(args, "--limit-rate", opts.RateLimit)
	}
	if opts.CookieSource != "" {
		args = append(args, "--cookies-from-browser", opts.CookieSource)
	}
	if opts.CookieFile != "" {
		args = append(args, "--cookies", opts.CookieFile)
	}
	if opts.NoPlaylist {
		args = append(args, "--no-playlist")
	}

	dir := opts.OutDir
	if dir == "" {
		dir = "."
	}
	tmpl := opts.Template
	if tmpl == "" {
		tmpl = model.DefaultTemplate
	}
	args = append(args, "-o", filepath.Join(dir, tmpl))

	// One progress line per update; required for the line parser.
	args = append(args, "--newline")

	args = append(args, opts.URL)
	args = append(args, extra...)
	return args, nil
}

func formatArgs(opts model.DownloadOptions) []string {
	if opts.FormatOverride != "" {
		return []string{"-f", opts.FormatOverride}
	}
	switch opts.Preset {
	case model.FormatAudio:
		return []string{"-f", "bestaudio/best", "-x"}
	case model.FormatVideo:
		return []string{"-f", "bestvideo+bestaudio/best", "--merge-output-format", "mp4"}
	default:
		return []string{"-f", "bestvideo+bestaudio/best"}
	}
}
