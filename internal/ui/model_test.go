package ui

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ytgrab/internal/model"
	"ytgrab/internal/session"
)

type stubExitErr struct{ code int }

func (e stubExitErr) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e stubExitErr) ExitCode() int { return e.code }

// stubProc finishes with exit code 130 when interrupted, like yt-dlp does
// on SIGINT.
type stubProc struct {
	lines      chan string
	done       chan struct{}
	waitErr    error
	interrupts atomic.Int32
	kills      atomic.Int32
}

func newStubProc() *stubProc {
	return &stubProc{lines: make(chan string), done: make(chan struct{})}
}

func (p *stubProc) Lines() <-chan string { return p.lines }

func (p *stubProc) Wait() error {
	<-p.done
	return p.waitErr
}

func (p *stubProc) Interrupt() error {
	if p.interrupts.Add(1) == 1 {
		p.waitErr = stubExitErr{code: 130}
		close(p.lines)
		close(p.done)
	}
	return nil
}

func (p *stubProc) Kill() error {
	p.kills.Add(1)
	return nil
}

type stubLauncher struct{ proc *stubProc }

func (l stubLauncher) Launch(session.LaunchSpec) (session.Proc, error) { return l.proc, nil }

func nextEvent(t *testing.T, ch chan tea.Msg) tea.Msg {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a session event")
		return nil
	}
}

func TestQuitDuringRunCancelsAndWaitsForReap(t *testing.T) {
	eventCh := make(chan tea.Msg, 64)
	proc := newStubProc()
	ctrl := session.NewController(session.Config{
		Launcher: stubLauncher{proc: proc},
		Reporter: teaReporter{ch: eventCh},
		Locate:   func(custom, managedDir string) (string, error) { return "/usr/local/bin/yt-dlp", nil },
	})

	opts := model.DownloadOptions{URL: "https://example.com/watch?v=abc", OutDir: t.TempDir()}
	m := NewModel(context.Background(), ctrl, eventCh, model.AppOptions{}, opts)

	run, err := ctrl.Start(m.ctx, opts)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// The starting update moves the UI into the running phase.
	v, _ := m.Update(nextEvent(t, eventCh))
	m = v.(Model)
	if m.phase != phaseRunning {
		t.Fatalf("phase = %d, want running", m.phase)
	}

	// q must not quit while the downloader is alive; it requests a cancel
	// and keeps the loop going until the run reports back.
	v, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = v.(Model)
	if cmd == nil {
		t.Fatal("expected a follow-up command after q, got none")
	}
	if !m.quitting {
		t.Fatal("quit was not deferred until the session result")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := run.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if out.State != session.StateCancelled {
		t.Fatalf("state = %s, want cancelled", out.State)
	}
	if got := proc.interrupts.Load(); got != 1 {
		t.Fatalf("interrupts = %d, want 1", got)
	}

	// Drain the remaining session events; the result must finally quit.
	for {
		msg := nextEvent(t, eventCh)
		v, cmd = m.Update(msg)
		m = v.(Model)
		if _, ok := msg.(sessionResultMsg); !ok {
			continue
		}
		if cmd == nil {
			t.Fatal("no quit command after the session result")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatal("expected tea.Quit once the run was reaped")
		}
		return
	}
}

func TestQuitFromFormExitsImmediately(t *testing.T) {
	eventCh := make(chan tea.Msg, 1)
	ctrl := session.NewController(session.Config{
		Launcher: stubLauncher{proc: newStubProc()},
		Reporter: teaReporter{ch: eventCh},
		Locate:   func(custom, managedDir string) (string, error) { return "/usr/local/bin/yt-dlp", nil },
	})

	m := NewModel(context.Background(), ctrl, eventCh, model.AppOptions{}, model.DownloadOptions{})
	m.phase = phaseForm

	v, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = v.(Model)
	if cmd == nil {
		t.Fatal("esc on the form returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("esc on the form should quit right away")
	}
	if m.ctx.Err() == nil {
		t.Error("model context not cancelled on exit")
	}
}
