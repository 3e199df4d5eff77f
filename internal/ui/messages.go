package ui

import (
	"ytgrab/internal/progress"
	"ytgrab/internal/setup"
)

type depsCheckedMsg struct {
	Report setup.Report
}

type installDoneMsg struct {
	Path string
	Err  error
}

type startFailedMsg struct {
	Err error
}

type sessionUpdateMsg struct {
	U progress.Update
}

type sessionLogMsg struct {
	L progress.Log
}

type sessionResultMsg struct {
	R progress.Result
}

type allDoneMsg struct{}
