package model

import "time"

// FormatPreset is a friendly name for a stream-selection choice. Anything
// that is not a known preset is treated as a raw format code and handed to
// the downloader verbatim.
type FormatPreset string

const (
	FormatBest  FormatPreset = "best"  // best video+audio, any container
	FormatVideo FormatPreset = "video" // best video+audio merged into mp4
	FormatAudio FormatPreset = "audio" // audio only, extracted
)

// DefaultTemplate is the output filename template used when the user leaves
// the template field blank.
const DefaultTemplate = "%(title)s.%(ext)s"

// DefaultSponsorBlockCategories is passed to --sponsorblock-remove when the
// user enables segment removal without picking categories.
var DefaultSponsorBlockCategories = []string{"sponsor"}

// DownloadOptions is the snapshot of form/flag state for one download.
// It is rebuilt on every invocation and never persisted.
type DownloadOptions struct {
	URL      string
	OutDir   string // working directory for the downloader; empty = "."
	Template string // output filename template; empty = DefaultTemplate

	Preset         FormatPreset
	FormatOverride string // raw format code, used verbatim when non-empty

	EmbedThumbnail bool
	EmbedMetadata  bool
	EmbedSubs      bool

	SponsorBlock           bool
	SponsorBlockCategories []string

	RateLimit    string // e.g. "500K"; empty = unlimited
	CookieSource string // browser name for --cookies-from-browser
	CookieFile   string // Netscape cookie jar for --cookies
	NoPlaylist   bool

	ExtraArgs string // raw extra arguments, split with shell-word rules
}

// AppOptions carries runtime settings that are not part of a single download.
type AppOptions struct {
	Downloader string        // explicit yt-dlp path or name; empty = discover
	Verbose    bool          // echo full downloader output in plain mode
	Grace      time.Duration // cancel grace period before force kill; 0 = default
	NoUI       bool          // disable the TUI even on a terminal
}

// ResolveFormat maps a --format value onto a preset or a raw override.
// Known preset names select the preset; anything else is a format code.
func ResolveFormat(s string) (FormatPreset, string) {
	switch FormatPreset(s) {
	case FormatBest, FormatVideo, FormatAudio:
		return FormatPreset(s), ""
	case "":
		return FormatBest, ""
	default:
		return "", s
	}
}
