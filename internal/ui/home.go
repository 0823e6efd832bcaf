package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// homeModel is the landing page: a short pitch and a single call to action.
type homeModel struct{}

func newHomeModel() homeModel {
	return homeModel{}
}

func (h homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return h, nil
	}

	switch key.String() {
	case "enter":
		return h, navigateCmd(pathAuth)
	case "q", "esc":
		return h, tea.Quit
	}

	return h, nil
}

func (h homeModel) View() string {
	return styleHeader.Render("All your cloud files, one dashboard.") + "\n" +
		"Connect Google Drive or Dropbox, search across everything,\n" +
		"and chat with your documents.\n\n" +
		styleAccent.Render("enter") + styleDim.Render(" sign in  ") +
		styleAccent.Render("q") + styleDim.Render(" quit")
}
