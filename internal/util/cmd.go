package util

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// CmdSpec describes a subprocess to run.
type CmdSpec struct {
	Path string   // Binary path
	Args []string // Arguments
	Env  []string // Optional environment variables (KEY=VALUE). If nil, inherit.
	Dir  string   // Working directory; empty = inherit.

	StdoutLine func(string) // Called for each stdout line (if non-nil)
	StderrLine func(string) // Called for each stderr line (if non-nil)
}

// CmdResult contains captured output and exit status.
type CmdResult struct {
	Stdout []byte
	Stderr []byte
	Code   int
}

// CmdRunner executes subprocesses. The default implementation shells out;
// tests substitute a fake.
type CmdRunner interface {
	Run(ctx context.Context, spec CmdSpec) (CmdResult, error)
}

// NewDefaultRunner returns the os/exec-backed runner.
func NewDefaultRunner() CmdRunner { return defaultRunner{} }

type defaultRunner struct{}

func (defaultRunner) Run(ctx context.Context, spec CmdSpec) (CmdResult, error) {
	return Run(ctx, spec)
}

// Run executes the command, capturing both streams and invoking the per-line
// callbacks as output arrives. On non-zero exit it returns an error while
// still populating CmdResult.
func Run(ctx context.Context, spec CmdSpec) (CmdResult, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	if spec.Env != nil {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return CmdResult{Code: -1}, err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return CmdResult{Code: -1}, err
	}

	if err := cmd.Start(); err != nil {
		return CmdResult{Code: -1}, err
	}

	var wg sync.WaitGroup
	wg.Add(2)

	scan := func(r *bufio.Scanner, buf *bytes.Buffer, onLine func(string)) {
		defer wg.Done()
		// Tool output lines can exceed the default 64KB scanner cap.
		r.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for r.Scan() {
			line := r.Text()
			if onLine != nil {
				onLine(line)
			}
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	go scan(bufio.NewScanner(stdoutPipe), &stdoutBuf, spec.StdoutLine)
	go scan(bufio.NewScanner(stderrPipe), &stderrBuf, spec.StderrLine)

	waitErr := cmd.Wait()
	wg.Wait()

	code := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}

	res := CmdResult{
		Stdout: stdoutBuf.Bytes(),
		Stderr: stderrBuf.Bytes(),
		Code:   code,
	}
	if waitErr != nil {
		return res, fmt.Errorf("command failed (exit %d): %w", code, waitErr)
	}
	return res, nil
}
