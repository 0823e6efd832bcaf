package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/venrik/skydeck/internal/cloud"
	"github.com/venrik/skydeck/internal/core"
)

// navigateMsg asks the shell to move to a new path. push controls whether the
// current path is recorded on the back stack.
type navigateMsg struct {
	path string
	push bool
}

// backMsg pops the back stack. The popped path still goes through the gate,
// so stepping back into a protected page without a token lands on /auth.
type backMsg struct{}

// guardElapsedMsg fires when the guard's minimum spinner duration has passed.
// The sequence number discards timers from superseded navigations.
type guardElapsedMsg struct {
	seq int
}

type toastExpiredMsg struct {
	seq int
}

// toastMsg is how pages surface transient notices without owning the toast
// line themselves.
type toastMsg struct {
	text  string
	isErr bool
}

type cloudChangedMsg struct {
	state cloud.State
}

type filesOpDoneMsg struct {
	op  string
	err error
}

type searchDoneMsg struct {
	err error
}

type downloadLinkMsg struct {
	link string
	err  error
}

type authDoneMsg struct {
	register bool
	err      error
}

type logoutDoneMsg struct {
	err error
}

type providerSelectedMsg struct {
	provider core.Provider
	err      error
}

type authURLMsg struct {
	provider core.Provider
	url      string
	err      error
}

type connectPollMsg struct {
	provider core.Provider
	seq      int
}

type connectCheckedMsg struct {
	provider  core.Provider
	connected bool
	seq       int
	err       error
}

type chatAttachedMsg struct {
	name string
	err  error
}

type chatRepliedMsg struct {
	err error
}

type semanticDoneMsg struct {
	files []core.FileEntry
	err   error
}

// NavigateTo builds a navigation message for external senders, such as the
// cloud session's redirect callback.
func NavigateTo(path string) tea.Msg {
	return navigateMsg{path: path, push: true}
}

// CloudChanged wraps a cloud state snapshot for delivery into the event loop.
func CloudChanged(state cloud.State) tea.Msg {
	return cloudChangedMsg{state: state}
}
