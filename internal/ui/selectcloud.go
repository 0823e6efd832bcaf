package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	lipgloss "github.com/charmbracelet/lipgloss/v2"

	"github.com/venrik/skydeck/internal/core"
)

const connectPollInterval = 2 * time.Second

var providerChoices = []core.Provider{
	core.ProviderGoogleDrive,
	core.ProviderDropbox,
}

// selectModel is the provider selection page. Picking a provider persists the
// selection, then verifies the OAuth grant: a dedicated check endpoint for
// Google, a listing probe for Dropbox. While the grant is missing the page
// shows the authorization URL and keeps polling.
type selectModel struct {
	deps *Deps

	cursor     int
	connecting bool
	provider   core.Provider
	authURL    string
	pollSeq    int
	lastErr    string
}

func newSelectModel(deps *Deps) selectModel {
	return selectModel{deps: deps}
}

func (s selectModel) Update(msg tea.Msg) (selectModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(providerChoices)-1 {
				s.cursor++
			}
		case "enter":
			if s.connecting {
				return s, nil
			}
			s.lastErr = ""
			return s, selectProviderCmd(s.deps.Cloud, providerChoices[s.cursor])
		case "esc":
			if s.connecting {
				// Abandon the pending grant check, keep the page.
				s.connecting = false
				s.pollSeq++
				s.authURL = ""
				return s, nil
			}
			return s, goBackCmd()
		case "o":
			return s, logoutCmd(s.deps.Auth)
		}

	case providerSelectedMsg:
		if msg.err != nil {
			s.lastErr = msg.err.Error()
			return s, nil
		}
		s.connecting = true
		s.provider = msg.provider
		s.authURL = ""
		s.pollSeq++
		return s, connectCheckCmd(s.deps.Client, msg.provider, s.pollSeq)

	case connectCheckedMsg:
		if msg.seq != s.pollSeq || !s.connecting {
			return s, nil
		}
		if msg.connected {
			s.connecting = false
			return s, navigateCmd(pathDash)
		}

		cmds := []tea.Cmd{connectPollCmd(msg.provider, s.pollSeq, connectPollInterval)}
		if s.authURL == "" {
			cmds = append(cmds, authURLCmd(s.deps.Client, msg.provider))
		}
		return s, tea.Batch(cmds...)

	case authURLMsg:
		if msg.err != nil {
			s.lastErr = msg.err.Error()
			return s, nil
		}
		s.authURL = msg.url
		return s, nil

	case connectPollMsg:
		if msg.seq != s.pollSeq || !s.connecting {
			return s, nil
		}
		return s, connectCheckCmd(s.deps.Client, msg.provider, msg.seq)
	}

	return s, nil
}

func (s selectModel) View(spin spinner.Model) string {
	out := styleHeader.Render("Choose your cloud") + "\n"

	var cards []string
	for i, provider := range providerChoices {
		style := styleProviderCard
		if i == s.cursor {
			style = styleProviderCardActive
		}
		cards = append(cards, style.Render(string(provider)))
	}
	out += lipgloss.JoinHorizontal(lipgloss.Top, cards...) + "\n"

	if s.connecting {
		out += "\n" + spin.View() + styleDim.Render(" waiting for "+string(s.provider)+" authorization...") + "\n"
		if s.authURL != "" {
			out += styleDim.Render("open this URL to authorize:") + "\n" + styleAccent.Render(s.authURL) + "\n"
		}
	}

	if s.lastErr != "" {
		out += "\n" + styleError.Render(s.lastErr) + "\n"
	}

	out += "\n" + styleHelp.Render("enter select  o logout  esc back")
	return out
}
