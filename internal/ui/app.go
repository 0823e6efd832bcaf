package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	lipglossv1 "github.com/charmbracelet/lipgloss"

	"github.com/venrik/skydeck/internal/api"
	"github.com/venrik/skydeck/internal/auth"
	"github.com/venrik/skydeck/internal/chat"
	"github.com/venrik/skydeck/internal/cloud"
	"github.com/venrik/skydeck/internal/config"
	"github.com/venrik/skydeck/internal/session"
)

const (
	pathHome     = "/"
	pathAuth     = "/auth"
	pathSelect   = "/selectcloud"
	pathDash     = "/dashboard"
	pathSemantic = "/semantic-search"
)

// protectedPaths need a live token. Navigation into one of them goes through
// the guard: spinner for a minimum duration, then render-or-redirect.
var protectedPaths = map[string]bool{
	pathSelect:   true,
	pathDash:     true,
	pathSemantic: true,
}

// Deps is everything the shell needs, assembled by the composition root.
// Events carries messages from outside the event loop (the cloud session's
// change and redirect callbacks) into the program.
type Deps struct {
	Config   config.Config
	Client   *api.Client
	Auth     *auth.Actions
	Sessions *session.Service
	Cloud    *cloud.Session
	Chat     *chat.Assistant
	Events   chan tea.Msg
}

// externalEventMsg wraps a message received over the events channel so the
// channel reader can be re-armed exactly once per delivery.
type externalEventMsg struct {
	inner tea.Msg
}

// Model is the shell: a router over page models, gated by the session
// resolver on every path change.
type Model struct {
	deps Deps

	width  int
	height int

	path        string
	backStack   []string
	pending     string
	pendingPush bool
	checking    bool
	guardSeq    int
	returnPath  string

	spinner spinner.Model

	cloudState cloud.State

	home     homeModel
	auth     authModel
	sel      selectModel
	dash     dashModel
	semantic semanticModel

	toast    string
	toastErr bool
	toastSeq int
}

func New(deps Deps) Model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipglossv1.NewStyle().Foreground(lipglossv1.Color("#7C71F9"))),
	)

	return Model{
		deps:       deps,
		spinner:    s,
		cloudState: deps.Cloud.State(),
		home:       newHomeModel(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitEvent(m.deps.Events),
		func() tea.Msg { return navigateMsg{path: pathHome} },
	)
}

func waitEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return externalEventMsg{inner: <-events}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case externalEventMsg:
		next, cmd := m.Update(msg.inner)
		return next, tea.Batch(cmd, waitEvent(m.deps.Events))

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

	case navigateMsg:
		return m.startNavigation(msg.path, msg.push)

	case backMsg:
		if len(m.backStack) == 0 {
			return m, nil
		}
		target := m.backStack[len(m.backStack)-1]
		m.backStack = m.backStack[:len(m.backStack)-1]
		return m.startNavigation(target, false)

	case guardElapsedMsg:
		if msg.seq != m.guardSeq || !m.checking {
			return m, nil
		}
		m.checking = false
		return m.commitNavigation(m.pending, m.pendingPush)

	case spinner.TickMsg:
		if !m.checking && !m.sel.connecting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case cloudChangedMsg:
		m.cloudState = msg.state
		return m, nil

	case toastMsg:
		return m.showToast(msg.text, msg.isErr)

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case logoutDoneMsg:
		var toast tea.Cmd
		if msg.err != nil {
			m, toast = m.showToast("Logout failed: "+msg.err.Error(), true)
		}
		// Local state is cleared either way, so leave the protected area.
		model, cmd := m.startNavigation(pathHome, true)
		return model, tea.Batch(toast, cmd)

	case authDoneMsg:
		return m.handleAuthDone(msg)
	}

	if m.checking {
		return m, nil
	}

	return m.updatePage(msg)
}

func (m Model) updatePage(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.path {
	case pathHome:
		m.home, cmd = m.home.Update(msg)
	case pathAuth:
		m.auth, cmd = m.auth.Update(msg)
	case pathSelect:
		wasConnecting := m.sel.connecting
		m.sel, cmd = m.sel.Update(msg)
		if m.sel.connecting && !wasConnecting {
			cmd = tea.Batch(cmd, m.spinner.Tick)
		}
	case pathDash:
		m.dash, cmd = m.dash.Update(msg, &m)
	case pathSemantic:
		m.semantic, cmd = m.semantic.Update(msg, &m)
	}

	return m, cmd
}

// startNavigation begins a path change. Protected targets pass through the
// guard spinner for the configured minimum duration before the verdict is
// applied; public targets resolve immediately.
func (m Model) startNavigation(path string, push bool) (Model, tea.Cmd) {
	delay := time.Duration(m.deps.Config.UI.GuardMinDelayMs) * time.Millisecond

	if protectedPaths[path] && delay > 0 {
		m.checking = true
		m.pending = path
		m.pendingPush = push
		m.guardSeq++
		seq := m.guardSeq

		return m, tea.Batch(
			m.spinner.Tick,
			tea.Tick(delay, func(time.Time) tea.Msg { return guardElapsedMsg{seq: seq} }),
		)
	}

	return m.commitNavigation(path, push)
}

// commitNavigation applies the gate verdict. Token and provider state are
// re-read from storage here, never cached, so an out-of-band token removal
// is caught on the next path change.
func (m Model) commitNavigation(path string, push bool) (Model, tea.Cmd) {
	decision := m.deps.Sessions.Resolve(path)

	if !decision.Allowed {
		if protectedPaths[path] && !m.deps.Sessions.Snapshot().HasToken {
			// Remember where the user wanted to go so login can return there.
			m.returnPath = path
			return m.startNavigation(pathAuth, push)
		}
		return m.startNavigation(decision.RedirectTo, push)
	}

	if push && m.path != "" && m.path != path {
		m.backStack = append(m.backStack, m.path)
	}
	m.path = path

	return m.enterPage(path)
}

func (m Model) enterPage(path string) (Model, tea.Cmd) {
	switch path {
	case pathAuth:
		m.auth = newAuthModel(&m.deps)
		return m, m.auth.Init()
	case pathSelect:
		m.sel = newSelectModel(&m.deps)
		return m, nil
	case pathDash:
		m.dash = newDashModel(&m.deps)
		return m, tea.Batch(m.dash.Init(), fetchFilesCmd(m.deps.Cloud))
	case pathSemantic:
		m.semantic = newSemanticModel(&m.deps)
		return m, m.semantic.Init()
	default:
		m.home = newHomeModel()
		return m, nil
	}
}

func (m Model) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		next, toast := m.showToast(msg.err.Error(), true)
		next.auth = newAuthModel(&next.deps)
		return next, tea.Batch(toast, next.auth.Init())
	}

	var toast tea.Cmd
	if msg.register {
		m, toast = m.showToast("Account created, signed in.", false)
	}

	target := m.consumeReturnPath()
	model, navCmd := m.startNavigation(target, true)
	return model, tea.Batch(toast, navCmd)
}

// consumeReturnPath yields the page the guard bounced the user off of, or
// provider selection as the post-login default.
func (m *Model) consumeReturnPath() string {
	if m.returnPath != "" {
		target := m.returnPath
		m.returnPath = ""
		return target
	}
	return pathSelect
}

func (m Model) showToast(text string, isErr bool) (Model, tea.Cmd) {
	m.toast = text
	m.toastErr = isErr
	m.toastSeq++
	seq := m.toastSeq

	duration := time.Duration(m.deps.Config.UI.ToastSeconds) * time.Second
	if duration <= 0 {
		duration = 3 * time.Second
	}

	return m, tea.Tick(duration, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
}

func (m Model) View() string {
	if m.checking {
		return "\n " + m.spinner.View() + styleDim.Render(" verifying session...") + "\n"
	}

	var body string
	switch m.path {
	case pathAuth:
		body = m.auth.View()
	case pathSelect:
		body = m.sel.View(m.spinner)
	case pathDash:
		body = m.dash.View(m.cloudState)
	case pathSemantic:
		body = m.semantic.View()
	default:
		body = m.home.View()
	}

	out := m.viewHeader() + "\n" + body

	if m.toast != "" {
		line := styleSuccess.Render(m.toast)
		if m.toastErr {
			line = styleError.Render(m.toast)
		}
		out += "\n" + line
	}

	return out + "\n"
}

func (m Model) viewHeader() string {
	title := styleTitle.Render("skydeck")

	snap := m.deps.Sessions.Snapshot()
	status := styleDim.Render(snap.State.String())
	if snap.State == session.Ready {
		status = styleSuccess.Render(string(snap.Provider))
	}

	return title + "  " + styleDim.Render(m.path) + "  " + status
}
