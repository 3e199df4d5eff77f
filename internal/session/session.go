// Package session owns the lifecycle of one external downloader process at a
// time: it launches yt-dlp with the rendered arguments, streams its combined
// output to a progress.Reporter in emission order, and supports cooperative
// cancellation with a bounded grace period.
package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ytgrab/internal/model"
	"ytgrab/internal/progress"
	"ytgrab/internal/ytdlp"
)

// State of the controller or of a finished run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

const (
	// DefaultGrace is how long a cancelled process gets to exit after the
	// interrupt before it is killed.
	DefaultGrace = 5 * time.Second

	// DefaultTailLines is how many output lines are kept as diagnostic
	// context for a failed run.
	DefaultTailLines = 20
)

// Config tunes a Controller. Zero values get sensible defaults.
type Config struct {
	Launcher Launcher
	Reporter progress.Reporter
	Logger   *zerolog.Logger

	Grace     time.Duration
	TailLines int

	Downloader string // explicit yt-dlp path or name; empty = discover
	BinDir     string // managed install dir, searched before PATH

	// Locate resolves the downloader executable; defaults to ytdlp.Find.
	Locate func(custom, managedDir string) (string, error)
}

// Controller manages at most one downloader process at a time.
type Controller struct {
	mu  sync.Mutex
	cfg Config
	run *Run
}

func NewController(cfg Config) *Controller {
	if cfg.Launcher == nil {
		cfg.Launcher = NewExecLauncher()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = progress.Nop()
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGrace
	}
	if cfg.TailLines <= 0 {
		cfg.TailLines = DefaultTailLines
	}
	if cfg.Locate == nil {
		cfg.Locate = ytdlp.Find
	}
	return &Controller{cfg: cfg}
}

// Run is one downloader invocation, from launch to terminal state.
type Run struct {
	ID string

	proc      Proc
	cancelled atomic.Bool
	done      chan struct{}
	outcome   Outcome
}

// Outcome describes how a run ended.
type Outcome struct {
	State    State // Completed, Failed or Cancelled
	ExitCode int
	Files    int // per-file boundaries observed
	Err      error
	Tail     []string
}

// Done is closed once the process has exited and been reaped.
func (r *Run) Done() <-chan struct{} { return r.done }

// Finished reports whether the run has reached a terminal state.
func (r *Run) Finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Outcome is valid once Done is closed.
func (r *Run) Outcome() Outcome { return r.outcome }

// Wait blocks until the run finishes or ctx expires. Note that ctx expiry
// does not stop the process; use Controller.Cancel for that.
func (r *Run) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-r.done:
		return r.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// State reports Idle or Running.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == nil || c.run.Finished() {
		return StateIdle
	}
	return StateRunning
}

// Start validates opts, locates the downloader and launches it. It fails
// with ErrAlreadyRunning while a session is active, with a
// *ytdlp.ValidationError before anything is spawned on malformed input, and
// with ytdlp.ErrNotFound when no executable exists. The returned Run is
// already consuming output; cancellation of ctx cancels the session.
func (c *Controller) Start(ctx context.Context, opts model.DownloadOptions) (*Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run != nil && !c.run.Finished() {
		return nil, ErrAlreadyRunning
	}

	args, err := ytdlp.BuildArgs(opts)
	if err != nil {
		return nil, err
	}
	path, err := c.cfg.Locate(c.cfg.Downloader, c.cfg.BinDir)
	if err != nil {
		return nil, err
	}

	run := &Run{ID: uuid.NewString(), done: make(chan struct{})}
	c.cfg.Reporter.Update(progress.Update{
		SessionID: run.ID,
		Stage:     progress.StageStarting,
		Percent:   -1,
		Message:   "Launching " + filepath.Base(path),
	})
	c.cfg.Logger.Info().
		Str("session", run.ID).
		Str("bin", path).
		Strs("args", args).
		Msg("starting download")

	// The output location is already part of the argument vector; the
	// working directory stays untouched.
	proc, lerr := c.cfg.Launcher.Launch(LaunchSpec{Path: path, Args: args})
	if lerr != nil {
		werr := &LaunchError{Err: lerr}
		c.cfg.Logger.Error().Str("session", run.ID).Err(lerr).Msg("launch failed")
		c.cfg.Reporter.Update(progress.Update{
			SessionID: run.ID,
			Stage:     progress.StageError,
			Percent:   -1,
			Message:   werr.Error(),
		})
		c.cfg.Reporter.Result(progress.Result{SessionID: run.ID, Err: werr, ExitCode: -1})
		return nil, werr
	}

	run.proc = proc
	c.run = run
	go c.consume(ctx, run)
	return run, nil
}

// Cancel asks the running process to stop. The transition to Cancelled
// happens only once the process has actually exited; after the grace period
// the process is killed.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()

	if run == nil || run.Finished() {
		return ErrNotRunning
	}
	if run.cancelled.Swap(true) {
		return nil // already requested
	}
	c.cfg.Logger.Info().Str("session", run.ID).Dur("grace", c.cfg.Grace).Msg("cancel requested")

	go func() {
		_ = run.proc.Interrupt()
		select {
		case <-run.done:
		case <-time.After(c.cfg.Grace):
			c.cfg.Logger.Warn().Str("session", run.ID).Msg("grace period expired, killing")
			_ = run.proc.Kill()
		}
	}()
	return nil
}

// consume is the single reader of the process output. It forwards every
// line to the log sink as it arrives, feeds the estimator, and settles the
// run's outcome after the process is reaped.
func (c *Controller) consume(ctx context.Context, run *Run) {
	rep := c.cfg.Reporter
	est := &Estimator{}

	// Shutdown while a session is active cancels it first.
	stop := context.AfterFunc(ctx, func() { _ = c.Cancel() })
	defer stop()

	tail := make([]string, 0, c.cfg.TailLines)
	for line := range run.proc.Lines() {
		rep.Log(progress.Log{SessionID: run.ID, Line: line})
		if len(tail) == c.cfg.TailLines {
			copy(tail, tail[1:])
			tail[len(tail)-1] = line
		} else {
			tail = append(tail, line)
		}
		ev := ytdlp.ParseLine(line)
		if est.Observe(ev) {
			rep.Update(progress.Update{
				SessionID: run.ID,
				Stage:     progress.StageDownloading,
				Percent:   est.Percent(),
				File:      est.Files(),
				Speed:     ev.Speed,
				ETA:       ev.ETA,
				Message:   "Downloading",
			})
		}
	}
	werr := run.proc.Wait()

	out := Outcome{Files: est.Files(), ExitCode: exitCode(werr)}
	switch {
	case run.cancelled.Load():
		out.State = StateCancelled
	case werr == nil:
		out.State = StateCompleted
	default:
		out.State = StateFailed
		out.Tail = append([]string(nil), tail...)
		out.Err = &ExitError{Code: out.ExitCode, Tail: out.Tail}
	}
	run.outcome = out

	c.cfg.Logger.Info().
		Str("session", run.ID).
		Str("state", string(out.State)).
		Int("exit_code", out.ExitCode).
		Int("files", out.Files).
		Msg("download finished")

	switch out.State {
	case StateCompleted:
		rep.Update(progress.Update{SessionID: run.ID, Stage: progress.StageCompleted, Percent: 100, File: out.Files, Message: "Download complete"})
		rep.Result(progress.Result{SessionID: run.ID, Files: out.Files})
	case StateCancelled:
		rep.Update(progress.Update{SessionID: run.ID, Stage: progress.StageCancelled, Percent: -1, Message: "Cancelled"})
		rep.Result(progress.Result{SessionID: run.ID, Cancelled: true, ExitCode: out.ExitCode, Files: out.Files})
	case StateFailed:
		rep.Update(progress.Update{SessionID: run.ID, Stage: progress.StageError, Percent: -1, Message: out.Err.Error()})
		rep.Result(progress.Result{SessionID: run.ID, Err: out.Err, ExitCode: out.ExitCode, Files: out.Files, Tail: out.Tail})
	}

	close(run.done)

	c.mu.Lock()
	if c.run == run {
		c.run = nil
	}
	c.mu.Unlock()
}

type exitCoder interface{ ExitCode() int }

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}
