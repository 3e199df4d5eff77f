package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ytgrab/internal/model"
	"ytgrab/internal/progress"
	"ytgrab/internal/ytdlp"
)

type fakeExitErr struct{ code int }

func (e fakeExitErr) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e fakeExitErr) ExitCode() int { return e.code }

type fakeProc struct {
	lines chan string
	done  chan struct{}

	mu         sync.Mutex
	waitErr    error
	interrupts int
	kills      int

	onInterrupt func(p *fakeProc)
	onKill      func(p *fakeProc)
}

func newFakeProc(lines ...string) *fakeProc {
	p := &fakeProc{
		lines: make(chan string, len(lines)+8),
		done:  make(chan struct{}),
	}
	for _, l := range lines {
		p.lines <- l
	}
	return p
}

// finish ends the stream and lets Wait return err. Call at most once.
func (p *fakeProc) finish(err error) {
	p.mu.Lock()
	p.waitErr = err
	p.mu.Unlock()
	close(p.lines)
	close(p.done)
}

func (p *fakeProc) Lines() <-chan string { return p.lines }

func (p *fakeProc) Interrupt() error {
	p.mu.Lock()
	p.interrupts++
	hook := p.onInterrupt
	p.mu.Unlock()
	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *fakeProc) Kill() error {
	p.mu.Lock()
	p.kills++
	hook := p.onKill
	p.mu.Unlock()
	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *fakeProc) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitErr
}

type fakeLauncher struct {
	mu       sync.Mutex
	proc     *fakeProc
	err      error
	launches int
	lastSpec LaunchSpec
}

func (l *fakeLauncher) Launch(spec LaunchSpec) (Proc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches++
	l.lastSpec = spec
	if l.err != nil {
		return nil, l.err
	}
	return l.proc, nil
}

func (l *fakeLauncher) launchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

type recordReporter struct {
	mu      sync.Mutex
	updates []progress.Update
	logs    []string
	results []progress.Result
}

func (r *recordReporter) Update(u progress.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recordReporter) Log(l progress.Log) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, l.Line)
}

func (r *recordReporter) Result(res progress.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recordReporter) snapshot() (updates []progress.Update, logs []string, results []progress.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]progress.Update(nil), r.updates...),
		append([]string(nil), r.logs...),
		append([]progress.Result(nil), r.results...)
}

func fixedLocate(custom, managedDir string) (string, error) {
	return "/usr/local/bin/yt-dlp", nil
}

func validOpts() model.DownloadOptions {
	return model.DownloadOptions{
		URL:    "https://example.com/watch?v=abc",
		OutDir: "/tmp/downloads",
	}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestStartCompletesAndCountsFiles(t *testing.T) {
	lines := []string{
		"[youtube] abc: Downloading webpage",
		"[download] Destination: one.mp4",
		"[download]  50.0% of 10.00MiB at 1.00MiB/s ETA 00:05",
		"[download] 100% of 10.00MiB in 00:10",
		"[download] Destination: two.mp4",
		"[download] 100% of 4.00MiB in 00:04",
	}
	proc := newFakeProc(lines...)
	proc.finish(nil)

	rep := &recordReporter{}
	c := NewController(Config{
		Launcher: &fakeLauncher{proc: proc},
		Reporter: rep,
		Locate:   fixedLocate,
	})

	run, err := c.Start(context.Background(), validOpts())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	out, err := run.Wait(waitCtx(t))
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if out.State != StateCompleted {
		t.Fatalf("state = %s, want %s", out.State, StateCompleted)
	}
	if out.Files != 2 {
		t.Errorf("files = %d, want 2", out.Files)
	}
	if out.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", out.ExitCode)
	}
	if got := c.State(); got != StateIdle {
		t.Errorf("controller state after completion = %s, want %s", got, StateIdle)
	}

	_, logs, results := rep.snapshot()
	if len(logs) != len(lines) {
		t.Fatalf("logged %d lines, want %d", len(logs), len(lines))
	}
	for i, l := range logs {
		if l != lines[i] {
			t.Errorf("log[%d] = %q, want %q (order must match emission)", i, l, lines[i])
		}
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Err != nil || results[0].Cancelled {
		t.Errorf("result = %+v, want clean success", results[0])
	}
}

func TestStartWhileRunningIsRejected(t *testing.T) {
	proc := newFakeProc()
	launcher := &fakeLauncher{proc: proc}
	c := NewController(Config{Launcher: launcher, Locate: fixedLocate})

	run, err := c.Start(context.Background(), validOpts())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := c.State(); got != StateRunning {
		t.Fatalf("state = %s, want %s", got, StateRunning)
	}

	if _, err := c.Start(context.Background(), validOpts()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start error = %v, want ErrAlreadyRunning", err)
	}
	if launcher.launchCount() != 1 {
		t.Errorf("launch count = %d, want 1 (running session must be untouched)", launcher.launchCount())
	}

	proc.finish(nil)
	if _, err := run.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if _, err := c.Start(context.Background(), validOpts()); err != nil {
		t.Fatalf("Start after completion: %v", err)
	}
}

func TestCancelIdle(t *testing.T) {
	c := NewController(Config{Launcher: &fakeLauncher{}, Locate: fixedLocate})
	if err := c.Cancel(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Cancel = %v, want ErrNotRunning", err)
	}
}

func TestCancelInterruptsAndReportsCancelled(t *testing.T) {
	proc := newFakeProc("[download] Destination: one.mp4")
	proc.onInterrupt = func(p *fakeProc) { p.finish(fakeExitErr{code: 130}) }

	rep := &recordReporter{}
	c := NewController(Config{
		Launcher: &fakeLauncher{proc: proc},
		Reporter: rep,
		Locate:   fixedLocate,
	})

	run, err := c.Start(context.Background(), validOpts())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	out, err := run.Wait(waitCtx(t))
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if out.State != StateCancelled {
		t.Fatalf("state = %s, want %s", out.State, StateCancelled)
	}
	if out.Err != nil {
		t.Errorf("cancelled run carries error %v, want nil", out.Err)
	}
	if out.ExitCode != 130 {
		t.Errorf("exit code = %d, want 130", out.ExitCode)
	}
	_, _, results := rep.snapshot()
	if len(results) != 1 || !results[0].Cancelled {
		t.Fatalf("results = %+v, want one cancelled result", results)
	}
	if got := c.State(); got != StateIdle {
		t.Errorf("controller state = %s, want %s", got, StateIdle)
	}
}

func TestCancelKillsAfterGrace(t *testing.T) {
	proc := newFakeProc()
	// Ignores the interrupt; only Kill ends it.
	proc.onKill = func(p *fakeProc) { p.finish(fakeExitErr{code: 137}) }

	c := NewController(Config{
		Launcher: &fakeLauncher{proc: proc},
		Locate:   fixedLocate,
		Grace:    10 * time.Millisecond,
	})

	run, err := c.Start(context.Background(), validOpts())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	out, err := run.Wait(waitCtx(t))
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if out.State != StateCancelled {
		t.Fatalf("state = %s, want %s", out.State, StateCancelled)
	}
	proc.mu.Lock()
	interrupts, kills := proc.interrupts, proc.kills
	proc.mu.Unlock()
	if interrupts != 1 {
		t.Errorf("interrupts = %d, want 1", interrupts)
	}
	if kills != 1 {
		t.Errorf("kills = %d, want 1 after grace expiry", kills)
	}
}

func TestCancelTwiceInterruptsOnce(t *testing.T) {
	proc := newFakeProc()
	interrupted := make(chan struct{})
	proc.onInterrupt = func(p *fakeProc) {
		close(interrupted)
		p.finish(fakeExitErr{code: 130})
	}

	c := NewController(Config{Launcher: &fakeLauncher{proc: proc}, Locate: fixedLocate})
	run, err := c.Start(context.Background(), validOpts())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Cancel(); err != nil {
		t.Fatalf("first Cancel: %v", err)
	}
	if err := c.Cancel(); err != nil && !errors.Is(err, ErrNotRunning) {
		t.Fatalf("second Cancel: %v", err)
	}
	<-interrupted
	if _, err := run.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	proc.mu.Lock()
	defer proc.mu.Unlock()
	if proc.interrupts != 1 {
		t.Errorf("interrupts = %d, want 1", proc.interrupts)
	}
}

func TestContextCancellationStopsSession(t *testing.T) {
	proc := newFakeProc()
	proc.onInterrupt = func(p *fakeProc) { p.finish(fakeExitErr{code: 130}) }

	c := NewController(Config{Launcher: &fakeLauncher{proc: proc}, Locate: fixedLocate})
	ctx, cancel := context.WithCancel(context.Background())
	run, err := c.Start(ctx, validOpts())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	out, err := run.Wait(waitCtx(t))
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if out.State != StateCancelled {
		t.Fatalf("state = %s, want %s", out.State, StateCancelled)
	}
}

func TestStartRejectsInvalidOptionsBeforeLaunch(t *testing.T) {
	launcher := &fakeLauncher{proc: newFakeProc()}
	c := NewController(Config{Launcher: launcher, Locate: fixedLocate})

	opts := validOpts()
	opts.RateLimit = "not-a-rate"
	_, err := c.Start(context.Background(), opts)

	var verr *ytdlp.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ytdlp.ValidationError", err)
	}
	if launcher.launchCount() != 0 {
		t.Errorf("launch count = %d, want 0 (nothing may spawn on invalid input)", launcher.launchCount())
	}
	if got := c.State(); got != StateIdle {
		t.Errorf("state = %s, want %s", got, StateIdle)
	}
}

func TestStartSurfacesMissingDownloader(t *testing.T) {
	launcher := &fakeLauncher{proc: newFakeProc()}
	c := NewController(Config{
		Launcher: launcher,
		Locate: func(custom, managedDir string) (string, error) {
			return "", fmt.Errorf("%w: yt-dlp is not installed", ytdlp.ErrNotFound)
		},
	})

	_, err := c.Start(context.Background(), validOpts())
	if !errors.Is(err, ytdlp.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if launcher.launchCount() != 0 {
		t.Errorf("launch count = %d, want 0", launcher.launchCount())
	}
}

func TestStartSurfacesLaunchFailure(t *testing.T) {
	rep := &recordReporter{}
	c := NewController(Config{
		Launcher: &fakeLauncher{err: errors.New("fork/exec: permission denied")},
		Reporter: rep,
		Locate:   fixedLocate,
	})

	_, err := c.Start(context.Background(), validOpts())
	var lerr *LaunchError
	if !errors.As(err, &lerr) {
		t.Fatalf("error = %v, want *LaunchError", err)
	}
	if got := c.State(); got != StateIdle {
		t.Errorf("state = %s, want %s (failed launch must not occupy the slot)", got, StateIdle)
	}
	_, _, results := rep.snapshot()
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("results = %+v, want one failure result", results)
	}

	// The slot is free for a retry.
	proc := newFakeProc()
	proc.finish(nil)
	c2 := NewController(Config{Launcher: &fakeLauncher{proc: proc}, Locate: fixedLocate})
	if _, err := c2.Start(context.Background(), validOpts()); err != nil {
		t.Fatalf("Start after launch failure: %v", err)
	}
}

func TestFailureCarriesExitCodeAndTail(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf("ERROR: fragment %d not found", i))
	}
	proc := newFakeProc(lines...)
	proc.finish(fakeExitErr{code: 1})

	rep := &recordReporter{}
	c := NewController(Config{
		Launcher:  &fakeLauncher{proc: proc},
		Reporter:  rep,
		Locate:    fixedLocate,
		TailLines: 5,
	})

	run, err := c.Start(context.Background(), validOpts())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	out, err := run.Wait(waitCtx(t))
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if out.State != StateFailed {
		t.Fatalf("state = %s, want %s", out.State, StateFailed)
	}
	var xerr *ExitError
	if !errors.As(out.Err, &xerr) {
		t.Fatalf("error = %v, want *ExitError", out.Err)
	}
	if xerr.Code != 1 {
		t.Errorf("exit code = %d, want 1", xerr.Code)
	}
	if len(out.Tail) != 5 {
		t.Fatalf("tail holds %d lines, want 5", len(out.Tail))
	}
	for i, want := range lines[len(lines)-5:] {
		if out.Tail[i] != want {
			t.Errorf("tail[%d] = %q, want %q", i, out.Tail[i], want)
		}
	}
	_, _, results := rep.snapshot()
	if len(results) != 1 || results[0].ExitCode != 1 {
		t.Fatalf("results = %+v, want one failure with exit code 1", results)
	}
}

func TestUpdatesCarryMonotonicProgress(t *testing.T) {
	proc := newFakeProc(
		"[download] Destination: clip.mp4",
		"[download]  10.0% of 10.00MiB at 1.00MiB/s ETA 00:09",
		"[download]  60.0% of 10.00MiB at 1.00MiB/s ETA 00:04",
		"[download]  55.0% of 10.00MiB at 1.00MiB/s ETA 00:05", // stale, must be dropped
		"[download] 100% of 10.00MiB in 00:10",
	)
	proc.finish(nil)

	rep := &recordReporter{}
	c := NewController(Config{Launcher: &fakeLauncher{proc: proc}, Reporter: rep, Locate: fixedLocate})
	run, err := c.Start(context.Background(), validOpts())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := run.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	updates, _, _ := rep.snapshot()
	last := -1.0
	for _, u := range updates {
		if u.Stage != progress.StageDownloading {
			continue
		}
		if u.Percent < last {
			t.Fatalf("percent went backwards: %.1f after %.1f", u.Percent, last)
		}
		last = u.Percent
	}
	if last != 100 {
		t.Errorf("final downloading percent = %.1f, want 100", last)
	}
}
