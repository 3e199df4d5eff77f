package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ytgrab/internal/model"
)

// Text field indexes. Toggles follow them in focus order.
const (
	fieldURL = iota
	fieldOutDir
	fieldTemplate
	fieldFormat
	fieldRateLimit
	fieldCookieBrowser
	fieldCookieFile
	fieldExtraArgs
	fieldCount
)

const (
	toggleThumbnail = iota
	toggleMetadata
	toggleSubs
	toggleSponsorBlock
	toggleNoPlaylist
	toggleCount
)

type toggle struct {
	label string
	on    bool
}

// form is the download option editor shown while no session is running.
type form struct {
	inputs  []textinput.Model
	toggles []toggle
	focus   int
}

func newForm(initial model.DownloadOptions, styles Styles) form {
	labels := [fieldCount]struct {
		prompt, placeholder, value string
	}{
		fieldURL:           {"URL", "https://…", initial.URL},
		fieldOutDir:        {"Output dir", "current directory", initial.OutDir},
		fieldTemplate:      {"Filename template", model.DefaultTemplate, initial.Template},
		fieldFormat:        {"Format", "best / video / audio or a raw format code", formatValue(initial)},
		fieldRateLimit:     {"Rate limit", "e.g. 500K, unlimited when blank", initial.RateLimit},
		fieldCookieBrowser: {"Cookies from browser", "firefox, chrome, …", initial.CookieSource},
		fieldCookieFile:    {"Cookie file", "path to cookies.txt", initial.CookieFile},
		fieldExtraArgs:     {"Extra arguments", "passed to yt-dlp verbatim", initial.ExtraArgs},
	}

	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = labels[i].placeholder
		ti.SetValue(labels[i].value)
		ti.PlaceholderStyle = styles.Faint
		ti.CharLimit = 512
		inputs[i] = ti
	}
	inputs[fieldURL].Focus()

	return form{
		inputs: inputs,
		toggles: []toggle{
			toggleThumbnail:    {label: "Embed thumbnail", on: initial.EmbedThumbnail},
			toggleMetadata:     {label: "Embed metadata", on: initial.EmbedMetadata},
			toggleSubs:         {label: "Embed subtitles", on: initial.EmbedSubs},
			toggleSponsorBlock: {label: "Remove sponsor segments", on: initial.SponsorBlock},
			toggleNoPlaylist:   {label: "Single video only (no playlist)", on: initial.NoPlaylist},
		},
	}
}

func formatValue(o model.DownloadOptions) string {
	if o.FormatOverride != "" {
		return o.FormatOverride
	}
	if o.Preset != "" {
		return string(o.Preset)
	}
	return string(model.FormatBest)
}

func (f form) rows() int { return len(f.inputs) + len(f.toggles) }

func (f form) onToggle() bool { return f.focus >= len(f.inputs) }

func (f *form) move(delta int) {
	if f.focus < len(f.inputs) {
		f.inputs[f.focus].Blur()
	}
	f.focus = (f.focus + delta + f.rows()) % f.rows()
	if f.focus < len(f.inputs) {
		f.inputs[f.focus].Focus()
	}
}

func (f *form) flip() {
	if f.onToggle() {
		i := f.focus - len(f.inputs)
		f.toggles[i].on = !f.toggles[i].on
	}
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	if f.focus >= len(f.inputs) {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// options snapshots the form into DownloadOptions. Validation happens in the
// argument builder, not here.
func (f form) options() model.DownloadOptions {
	val := func(i int) string { return strings.TrimSpace(f.inputs[i].Value()) }
	preset, override := model.ResolveFormat(val(fieldFormat))
	return model.DownloadOptions{
		URL:            val(fieldURL),
		OutDir:         val(fieldOutDir),
		Template:       val(fieldTemplate),
		Preset:         preset,
		FormatOverride: override,
		EmbedThumbnail: f.toggles[toggleThumbnail].on,
		EmbedMetadata:  f.toggles[toggleMetadata].on,
		EmbedSubs:      f.toggles[toggleSubs].on,
		SponsorBlock:   f.toggles[toggleSponsorBlock].on,
		RateLimit:      val(fieldRateLimit),
		CookieSource:   val(fieldCookieBrowser),
		CookieFile:     val(fieldCookieFile),
		NoPlaylist:     f.toggles[toggleNoPlaylist].on,
		ExtraArgs:      val(fieldExtraArgs),
	}
}
