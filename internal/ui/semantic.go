package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/venrik/skydeck/internal/cloud"
	"github.com/venrik/skydeck/internal/core"
)

// semanticModel is the dedicated search page: fuzzy or synonym matching
// against the connected provider, with results kept local to the page so the
// dashboard listing is untouched.
type semanticModel struct {
	deps *Deps

	input   textinput.Model
	mode    cloud.SearchMode
	busy    bool
	results []core.FileEntry
	lastErr string
	ran     bool
}

func newSemanticModel(deps *Deps) semanticModel {
	input := textinput.New()
	input.Placeholder = "describe what you are looking for"
	input.CharLimit = 200

	return semanticModel{deps: deps, input: input, mode: cloud.SearchFuzzy}
}

func (s semanticModel) Init() tea.Cmd {
	return s.input.Focus()
}

func (s semanticModel) Update(msg tea.Msg, root *Model) (semanticModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			query := s.input.Value()
			if query == "" || s.busy {
				return s, nil
			}
			s.busy = true
			s.lastErr = ""
			return s, semanticSearchCmd(s.deps.Client, root.cloudState.Provider, s.mode, query)
		case "tab":
			if s.mode == cloud.SearchFuzzy {
				s.mode = cloud.SearchSynonym
			} else {
				s.mode = cloud.SearchFuzzy
			}
			return s, nil
		case "esc":
			return s, goBackCmd()
		}

		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd

	case semanticDoneMsg:
		s.busy = false
		s.ran = true
		if msg.err != nil {
			s.lastErr = msg.err.Error()
			return s, nil
		}
		s.results = msg.files
		return s, nil
	}

	return s, nil
}

func (s semanticModel) View() string {
	mode := searchModeLabels[s.mode]

	out := styleHeader.Render("Semantic search") + "\n"
	out += styleDim.Render("mode["+mode+"] ") + s.input.View() + "\n\n"

	switch {
	case s.busy:
		out += styleDim.Render("searching...") + "\n"
	case s.lastErr != "":
		out += styleError.Render(s.lastErr) + "\n"
	case s.ran && len(s.results) == 0:
		out += styleDim.Render("No matches.") + "\n"
	case len(s.results) > 0:
		t := newTable("NAME", "TYPE", "MODIFIED")
		for _, file := range s.results {
			kind := "file"
			if file.IsFolder() {
				kind = "folder"
			}
			t.Row(file.Name, kind, formatTime(file.ModifiedTime))
		}
		out += t.Render() + "\n"
	}

	out += "\n" + styleHelp.Render("enter search  tab mode  esc back")
	return out
}
