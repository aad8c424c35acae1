package card

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	stateLabel lipgloss.Style
	detail     lipgloss.Style
	fieldKey   lipgloss.Style
	warning    lipgloss.Style
	okMark     lipgloss.Style
	failMark   lipgloss.Style
	defect     lipgloss.Style
	section    lipgloss.Style
	empty      lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		stateLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		fieldKey:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		warning:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		okMark:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		failMark:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		defect:     lipgloss.NewStyle().Foreground(lipgloss.Color("215")),
		section:    lipgloss.NewStyle().MarginTop(1),
		empty:      lipgloss.NewStyle().Faint(true),
	}
}
