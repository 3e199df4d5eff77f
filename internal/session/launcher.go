package session

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// LaunchSpec describes one downloader invocation.
type LaunchSpec struct {
	Path string
	Args []string
	Dir  string // working directory; empty = inherit
}

// Proc is a started process whose combined stdout+stderr is consumed as an
// ordered stream of lines.
type Proc interface {
	// Lines yields output lines in emission order and is closed when the
	// stream ends. The caller must drain it.
	Lines() <-chan string
	// Interrupt asks the process to stop gracefully.
	Interrupt() error
	// Kill terminates the process immediately.
	Kill() error
	// Wait blocks until the process has exited and is reaped. It returns
	// *exec.ExitError on non-zero exit.
	Wait() error
}

// Launcher starts processes. Tests substitute a fake.
type Launcher interface {
	Launch(spec LaunchSpec) (Proc, error)
}

// NewExecLauncher returns the os/exec-backed Launcher.
func NewExecLauncher() Launcher { return execLauncher{} }

type execLauncher struct{}

func (execLauncher) Launch(spec LaunchSpec) (Proc, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}

	// One pipe for both streams keeps lines in the order the process
	// emitted them.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		_ = pr.Close()
		return nil, err
	}

	p := &execProc{
		cmd:   cmd,
		lines: make(chan string, 64),
		done:  make(chan struct{}),
	}
	go p.scan(pr)
	go func() {
		// Wait also waits for exec's internal stdout/stderr copies, so
		// closing pw afterwards ends the scanner at true EOF.
		p.waitErr = cmd.Wait()
		_ = pw.Close()
		close(p.done)
	}()
	return p, nil
}

type execProc struct {
	cmd     *exec.Cmd
	lines   chan string
	done    chan struct{}
	waitErr error
}

func (p *execProc) scan(r io.Reader) {
	sc := bufio.NewScanner(r)
	// yt-dlp can emit very long lines (verbose JSON warnings); the default
	// 64KB scanner cap is not enough.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		p.lines <- sc.Text()
	}
	close(p.lines)
}

func (p *execProc) Lines() <-chan string { return p.lines }

func (p *execProc) Interrupt() error {
	if runtime.GOOS == "windows" {
		// No interrupt delivery on Windows.
		return p.cmd.Process.Kill()
	}
	return p.cmd.Process.Signal(os.Interrupt)
}

func (p *execProc) Kill() error { return p.cmd.Process.Kill() }

func (p *execProc) Wait() error {
	<-p.done
	return p.waitErr
}
