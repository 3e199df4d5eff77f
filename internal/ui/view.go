package ui

import (
	"fmt"
	"strings"

	"ytgrab/internal/progress"
)

func (m Model) View() string {
	var body string
	switch m.phase {
	case phaseChecking:
		body = m.spin.View() + " " + m.styles.Faint.Render("checking dependencies…")
	case phaseSetup:
		body = m.viewSetup()
	case phaseForm:
		body = m.viewForm()
	case phaseRunning:
		body = m.viewSession()
	case phaseDone:
		body = m.viewSession() + "\n" + m.viewResult()
	}
	return m.viewHeader() + "\n\n" + body + "\n"
}

func (m Model) viewHeader() string {
	title := m.styles.Title.Render("ytgrab — video downloader")
	var hint string
	switch m.phase {
	case phaseSetup:
		hint = "s: install yt-dlp • q: quit"
	case phaseForm:
		hint = "enter: download • tab/↑↓: move • space: toggle • esc: quit"
	case phaseRunning:
		hint = "c: cancel • q: quit"
	case phaseDone:
		hint = "enter: new download • q: quit"
	}
	if hint == "" {
		return title
	}
	return title + "\n" + m.styles.Subtitle.Render(hint)
}

func (m Model) viewSetup() string {
	var b strings.Builder
	b.WriteString(m.styles.Warning.Render("yt-dlp was not found on this system."))
	b.WriteString("\n")
	if m.report.FFmpeg == "" {
		b.WriteString(m.styles.Faint.Render("ffmpeg is also missing; merging and embedding will not work."))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	switch {
	case m.installing:
		b.WriteString(m.spin.View() + " downloading the latest yt-dlp release…")
	case m.installErr != nil:
		b.WriteString(m.styles.Error.Render("install failed: " + m.installErr.Error()))
		b.WriteString("\n")
		b.WriteString(m.styles.Faint.Render("press s to retry"))
	default:
		b.WriteString("Press " + m.styles.Focused.Render("s") + " to download it into the app directory.")
	}
	return m.styles.Box.Render(b.String())
}

func (m Model) viewForm() string {
	var b strings.Builder
	for i, ti := range m.form.inputs {
		label := fieldLabel(i)
		style := m.styles.Label
		marker := "  "
		if m.form.focus == i {
			style = m.styles.Focused
			marker = "> "
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", marker, style.Render(fmt.Sprintf("%-20s", label)), ti.View()))
	}
	b.WriteString("\n")
	for i, tg := range m.form.toggles {
		style := m.styles.Label
		marker := "  "
		if m.form.focus == len(m.form.inputs)+i {
			style = m.styles.Focused
			marker = "> "
		}
		box := "[ ]"
		if tg.on {
			box = m.styles.Success.Render("[x]")
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", marker, box, style.Render(tg.label)))
	}
	if m.formErr != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render("✗ " + m.formErr.Error()))
		b.WriteString("\n")
	}
	return m.styles.Box.Render(b.String())
}

func (m Model) viewSession() string {
	var b strings.Builder

	switch m.update.Stage {
	case progress.StageStarting:
		b.WriteString(m.spin.View() + " " + m.styles.Faint.Render(m.update.Message))
	case progress.StageDownloading:
		line := m.bar.ViewAs(m.update.Percent / 100.0)
		line += fmt.Sprintf(" %5.1f%%", m.update.Percent)
		if m.update.File > 0 {
			line += m.styles.Faint.Render(fmt.Sprintf("  file %d", m.update.File))
		}
		if m.update.Speed != "" {
			line += m.styles.StageDL.Render("  " + m.update.Speed)
		}
		if m.update.ETA != nil {
			line += m.styles.Faint.Render("  ETA " + m.update.ETA.String())
		}
		b.WriteString(line)
	default:
		if m.update.Message != "" {
			b.WriteString(m.styles.Faint.Render(m.update.Message))
		}
	}
	b.WriteString("\n\n")

	// Tail of the output ring; the full stream is in the log file.
	visible := 12
	if m.height > 18 {
		visible = m.height - 12
	}
	logs := m.logRing
	if len(logs) > visible {
		logs = logs[len(logs)-visible:]
	}
	for _, l := range logs {
		b.WriteString(m.styles.LogLine.Render(truncate(l, m.lineWidth())))
		b.WriteString("\n")
	}
	return m.styles.Box.Render(b.String())
}

func (m Model) viewResult() string {
	r := m.result
	if r == nil {
		return ""
	}
	switch {
	case r.Cancelled:
		return m.styles.Box.Render(m.styles.Warning.Render("✗ Cancelled") +
			m.styles.Faint.Render(fmt.Sprintf("  (%d file(s) touched)", r.Files)))
	case r.Err != nil:
		first := r.Err.Error()
		if i := strings.IndexByte(first, '\n'); i != -1 {
			first = first[:i]
		}
		return m.styles.Box.Render(m.styles.Error.Render("✗ " + first))
	default:
		return m.styles.Box.Render(m.styles.Success.Render("✓ Download complete") +
			m.styles.Faint.Render(fmt.Sprintf("  (%d file(s))", r.Files)))
	}
}

func (m Model) lineWidth() int {
	if m.width <= 4 {
		return 120
	}
	return m.width - 4
}

func fieldLabel(i int) string {
	switch i {
	case fieldURL:
		return "URL"
	case fieldOutDir:
		return "Output dir"
	case fieldTemplate:
		return "Filename template"
	case fieldFormat:
		return "Format"
	case fieldRateLimit:
		return "Rate limit"
	case fieldCookieBrowser:
		return "Cookies from browser"
	case fieldCookieFile:
		return "Cookie file"
	case fieldExtraArgs:
		return "Extra arguments"
	}
	return ""
}

func truncate(s string, n int) string {
	if n <= 0 || len([]rune(s)) <= n {
		return s
	}
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
