package ui

import (
	"context"
	"strings"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"ytgrab/internal/dirs"
	"ytgrab/internal/logging"
	"ytgrab/internal/model"
	"ytgrab/internal/progress"
	"ytgrab/internal/session"
	"ytgrab/internal/setup"
)

type phase int

const (
	phaseChecking phase = iota // probing for yt-dlp and ffmpeg
	phaseSetup                 // downloader missing, offering install
	phaseForm                  // editing download options
	phaseRunning               // session active
	phaseDone                  // terminal result shown
)

const logRingCap = 1000

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	ctrl *session.Controller
	app  model.AppOptions

	phase      phase
	report     setup.Report
	installing bool
	installErr error

	form     form
	formErr  error
	quitting bool

	update  progress.Update
	result  *progress.Result
	logRing []string

	bar  bubblesprogress.Model
	spin spinner.Model

	width, height int
	styles        Styles

	// Reporter events arrive here and are re-emitted as tea messages.
	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, ctrl *session.Controller, eventCh chan tea.Msg, app model.AppOptions, initial model.DownloadOptions) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()

	sp := spinner.New()
	sp.Style = sty.Spinner

	return Model{
		ctx:     c,
		cancel:  cancel,
		ctrl:    ctrl,
		app:     app,
		phase:   phaseChecking,
		form:    newForm(initial, sty),
		bar:     bubblesprogress.New(bubblesprogress.WithDefaultGradient(), bubblesprogress.WithWidth(40)),
		spin:    sp,
		styles:  sty,
		eventCh: eventCh,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.listenEventsCmd(), m.checkDepsCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case depsCheckedMsg:
		m.report = msg.Report
		if m.report.Ready() {
			m.phase = phaseForm
		} else {
			m.phase = phaseSetup
		}

	case installDoneMsg:
		m.installing = false
		m.installErr = msg.Err
		if msg.Err == nil {
			return m, m.checkDepsCmd()
		}

	case startFailedMsg:
		m.formErr = msg.Err
		m.phase = phaseForm

	case sessionUpdateMsg:
		m.update = msg.U
		if m.phase != phaseDone {
			m.phase = phaseRunning
		}

	case sessionLogMsg:
		line := strings.TrimRight(msg.L.Line, "\r\n")
		if len(m.logRing) >= logRingCap {
			m.logRing = m.logRing[1:]
		}
		m.logRing = append(m.logRing, line)

	case sessionResultMsg:
		r := msg.R
		m.result = &r
		m.phase = phaseDone
		if m.quitting {
			// The process has been reaped; now the program may exit.
			m.cancel()
			return m, tea.Quit
		}

	case allDoneMsg:
		return m, tea.Quit
	}

	var cmds []tea.Cmd
	var c tea.Cmd
	m.spin, c = m.spin.Update(msg)
	if c != nil {
		cmds = append(cmds, c)
	}
	cmds = append(cmds, m.listenEventsCmd())
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.phase {
	case phaseSetup:
		switch key {
		case "s":
			if !m.installing {
				m.installing = true
				m.installErr = nil
				return m, tea.Batch(m.installCmd(), m.listenEventsCmd())
			}
		case "q", "esc":
			return m.quit()
		}

	case phaseForm:
		switch key {
		case "esc":
			return m.quit()
		case "enter":
			m.formErr = nil
			return m, tea.Batch(m.startCmd(), m.listenEventsCmd())
		case "tab", "down":
			m.form.move(1)
		case "shift+tab", "up":
			m.form.move(-1)
		case " ":
			if m.form.onToggle() {
				m.form.flip()
				return m, m.listenEventsCmd()
			}
			fallthrough
		default:
			return m, tea.Batch(m.form.update(msg), m.listenEventsCmd())
		}

	case phaseRunning:
		switch key {
		case "c":
			_ = m.ctrl.Cancel()
		case "q", "esc":
			return m.quit()
		}

	case phaseDone:
		switch key {
		case "enter":
			m.result = nil
			m.update = progress.Update{}
			m.logRing = nil
			m.phase = phaseForm
		case "q", "esc":
			return m.quit()
		}
	}
	return m, m.listenEventsCmd()
}

// quit leaves right away unless a download is active. A live session is
// cancelled first and the quit waits for its result, so the downloader is
// interrupted and reaped before the program exits.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.phase == phaseRunning {
		m.quitting = true
		_ = m.ctrl.Cancel()
		return m, m.listenEventsCmd()
	}
	m.cancel()
	return m, tea.Quit
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return allDoneMsg{}
		case msg := <-m.eventCh:
			return msg
		}
	}
}

func (m Model) checkDepsCmd() tea.Cmd {
	return func() tea.Msg {
		binDir, _ := dirs.BinDir()
		return depsCheckedMsg{Report: setup.Check(m.app.Downloader, binDir)}
	}
}

func (m Model) installCmd() tea.Cmd {
	return func() tea.Msg {
		binDir, err := dirs.BinDir()
		if err != nil {
			return installDoneMsg{Err: err}
		}
		inst := setup.NewInstaller(binDir, logging.L())
		path, err := inst.Install(m.ctx)
		return installDoneMsg{Path: path, Err: err}
	}
}

func (m Model) startCmd() tea.Cmd {
	opts := m.form.options()
	return func() tea.Msg {
		if _, err := m.ctrl.Start(m.ctx, opts); err != nil {
			return startFailedMsg{Err: err}
		}
		// Progress arrives through the reporter channel.
		return nil
	}
}

// teaReporter feeds session events into the bubbletea loop. High-rate
// progress updates are dropped when the channel is full; terminal updates
// and results always get through.
type teaReporter struct {
	ch chan tea.Msg
}

func (r teaReporter) Update(u progress.Update) {
	if u.Stage == progress.StageDownloading {
		select {
		case r.ch <- sessionUpdateMsg{U: u}:
		default:
		}
		return
	}
	r.ch <- sessionUpdateMsg{U: u}
}

func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- sessionLogMsg{L: l}:
	default:
	}
}

func (r teaReporter) Result(res progress.Result) {
	// Results are critical; always block.
	r.ch <- sessionResultMsg{R: res}
}
