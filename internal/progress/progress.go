// Package progress defines the event stream between a running download
// session and whatever is observing it (TUI, plain console, tests).
package progress

import "time"

// Stage identifies a high-level phase of a session.
type Stage string

const (
	StageStarting    Stage = "starting"
	StageDownloading Stage = "downloading"
	StageCompleted   Stage = "completed"
	StageCancelled   Stage = "cancelled"
	StageError       Stage = "error"
)

// Update conveys stage and progress changes for a session.
// Percent is 0..100 when known; negative means unknown.
type Update struct {
	SessionID string
	Stage     Stage
	Percent   float64
	File      int // 1-based index of the file being transferred, 0 if unknown

	Speed   string         // as reported by the tool, e.g. "1.50MiB/s"
	ETA     *time.Duration // optional
	Message string         // short human-friendly status line
}

// Log is one line of tool output, delivered in emission order.
type Log struct {
	SessionID string
	Line      string
}

// Result is emitted exactly once per session when it reaches a terminal
// state.
type Result struct {
	SessionID string
	Err       error // nil on success and on clean cancellation
	Cancelled bool
	ExitCode  int
	Files     int      // file boundaries observed
	Tail      []string // last output lines; populated on failure
}

// Reporter is implemented by any observer interested in session events.
type Reporter interface {
	Update(u Update)
	Log(l Log)
	Result(r Result)
}

// Nop returns a Reporter that discards everything.
func Nop() Reporter { return nopReporter{} }

type nopReporter struct{}

func (nopReporter) Update(Update) {}
func (nopReporter) Log(Log)       {}
func (nopReporter) Result(Result) {}
