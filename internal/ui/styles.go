package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title      lipgloss.Style
	Prompt     lipgloss.Style
	Mode       lipgloss.Style
	Status     lipgloss.Style
	Dim        lipgloss.Style
	Comment    lipgloss.Style
	Mark       lipgloss.Style
	ActiveMark lipgloss.Style
	Notice     lipgloss.Style
	Error      lipgloss.Style
	Key        lipgloss.Style
	Help       lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Prompt: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Mode:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		Dim: lipgloss.NewStyle().Faint(true),
		Comment: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			MarginTop(1).
			BorderForeground(lipgloss.Color("241")),
		Mark:       lipgloss.NewStyle().Background(lipgloss.Color("226")).Foreground(lipgloss.Color("0")),
		ActiveMark: lipgloss.NewStyle().Background(lipgloss.Color("226")).Foreground(lipgloss.Color("196")).Bold(true).Underline(true),
		Notice:     lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		Key:        lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Help:       lipgloss.NewStyle().Faint(true).MarginTop(1),
	}
}
