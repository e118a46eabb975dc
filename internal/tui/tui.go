// Package tui is the interactive playground: a schema editor on the left,
// the generated Go source on the right, and Format and Copy actions below.
package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("211"))
	labelStyle       = lipgloss.NewStyle().Faint(true)
	paneStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	focusedPaneStyle = paneStyle.BorderForeground(lipgloss.Color("63"))
	failedPaneStyle  = paneStyle.BorderForeground(lipgloss.Color("196"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	buttonStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("63")).Padding(0, 1).MarginRight(1)
	disabledButton   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Background(lipgloss.Color("236")).Padding(0, 1).MarginRight(1)
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

type (
	// SourceMsg replaces the source text, e.g. when the opened file changes
	// on disk.
	SourceMsg struct {
		Source string
	}
)

type keyMap struct {
	Focus  key.Binding
	Format key.Binding
	Copy   key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Format: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "format"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Focus, k.Format, k.Copy, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
