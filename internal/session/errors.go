package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyRunning is returned by Start while a session is active.
	// The running session is left untouched.
	ErrAlreadyRunning = errors.New("a download is already running")

	// ErrNotRunning is returned by Cancel when there is nothing to cancel.
	ErrNotRunning = errors.New("no download is running")
)

// LaunchError wraps an OS-level failure to spawn the downloader.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string { return fmt.Sprintf("failed to launch downloader: %v", e.Err) }
func (e *LaunchError) Unwrap() error { return e.Err }

// ExitError reports a non-zero downloader exit, carrying the tail of its
// output as diagnostic context.
type ExitError struct {
	Code int
	Tail []string
}

func (e *ExitError) Error() string {
	if len(e.Tail) == 0 {
		return fmt.Sprintf("downloader exited with code %d", e.Code)
	}
	return fmt.Sprintf("downloader exited with code %d:\n%s", e.Code, strings.Join(e.Tail, "\n"))
}
