package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"ytgrab/internal/dirs"
	"ytgrab/internal/logging"
	"ytgrab/internal/model"
	"ytgrab/internal/session"
)

// Run launches the interactive UI. initial pre-fills the form from flags so
// `ytgrab <url>` drops the user straight onto a ready form.
func Run(ctx context.Context, app model.AppOptions, initial model.DownloadOptions) error {
	eventCh := make(chan tea.Msg, 256)
	ctrl := session.NewController(session.Config{
		Reporter:   teaReporter{ch: eventCh},
		Logger:     logging.L(),
		Grace:      app.Grace,
		Downloader: app.Downloader,
		BinDir:     binDirOrEmpty(),
	})

	m := NewModel(ctx, ctrl, eventCh, app, initial)
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.result != nil {
		return fm.result.Err
	}
	return nil
}

func binDirOrEmpty() string {
	d, err := dirs.BinDir()
	if err != nil {
		return ""
	}
	return d
}
