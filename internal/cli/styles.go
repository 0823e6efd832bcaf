package cli

import (
	lipgloss "github.com/charmbracelet/lipgloss/v2"
)

var (
	colorError = lipgloss.Color("#F87171")
	colorDim   = lipgloss.Color("#6B7280")
)

var (
	styleDim   = lipgloss.NewStyle().Foreground(colorDim)
	styleError = lipgloss.NewStyle().Foreground(colorError)
)

func styledError(msg string, hints ...string) string {
	out := styleError.Render(msg)
	for _, h := range hints {
		out += "\n  " + styleDim.Render(h)
	}
	return out
}
