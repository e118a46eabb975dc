package tui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mcncl/schemaplay/internal/clipboard"
	"github.com/mcncl/schemaplay/internal/playground"
)

const (
	defaultWidth  = 80
	defaultHeight = 24

	// Rows taken by everything but the pane bodies: title, pane borders,
	// pane labels, buttons, status and help.
	chromeHeight = 7
	minBodyRows  = 3
)

type pane int

const (
	editorPane pane = iota
	outputPane
)

// Model is the playground program.
type Model struct {
	session   *playground.Session
	clipboard clipboard.Writer
	logger    *slog.Logger

	editor textarea.Model
	output viewport.Model
	help   help.Model
	keys   keyMap

	focus  pane
	status string
	width  int
	height int
}

// New creates the playground for session. Copy writes to cb.
func New(session *playground.Session, cb clipboard.Writer, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	editor := textarea.New()
	editor.Placeholder = "JSON Schema"
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.SetValue(session.Source())
	editor.Focus()

	m := &Model{
		session:   session,
		clipboard: cb,
		logger:    logger,
		editor:    editor,
		output:    viewport.New(defaultWidth/2, defaultHeight-chromeHeight),
		help:      help.New(),
		keys:      newKeyMap(),
		focus:     editorPane,
	}
	m.resize(defaultWidth, defaultHeight)

	session.Subscribe(m.sync)
	m.sync(session.Snapshot())

	return m
}

// Session returns the session behind the playground.
func (m *Model) Session() *playground.Session {
	return m.session
}

func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

//nolint:ireturn // Third-party.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case SourceMsg:
		m.logger.Debug("source replaced", "bytes", len(msg.Source))
		m.session.SetSource(msg.Source)
		m.status = "Reloaded"
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Focus):
			m.toggleFocus()
			return m, nil

		case key.Matches(msg, m.keys.Format):
			if m.session.Format() {
				m.status = "Formatted"
			}
			return m, nil

		case key.Matches(msg, m.keys.Copy):
			if m.session.Copy(m.clipboard) {
				m.status = "Copied to clipboard"
			}
			return m, nil
		}

		// A disabled action's key does nothing rather than reaching the panes
		if disabledKey(msg, m.keys.Format, m.keys.Copy) {
			return m, nil
		}

		if m.focus == outputPane {
			var cmd tea.Cmd
			m.output, cmd = m.output.Update(msg)
			return m, cmd
		}
	}

	return m, m.updateEditor(msg)
}

func disabledKey(msg tea.KeyMsg, bindings ...key.Binding) bool {
	for _, b := range bindings {
		if b.Enabled() {
			continue
		}
		for _, k := range b.Keys() {
			if msg.String() == k {
				return true
			}
		}
	}
	return false
}

// updateEditor passes msg to the editor and recomputes when the text
// changed.
func (m *Model) updateEditor(msg tea.Msg) tea.Cmd {
	before := m.editor.Value()

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)

	if after := m.editor.Value(); after != before {
		m.status = ""
		m.session.SetSource(after)
	}
	return cmd
}

// sync brings the panes and key bindings in line with the session.
func (m *Model) sync(snapshot playground.Snapshot) {
	if m.editor.Value() != snapshot.Source {
		m.editor.SetValue(snapshot.Source)
	}

	if snapshot.Failed {
		m.output.SetContent(errorStyle.Render(snapshot.Output))
	} else {
		m.output.SetContent(snapshot.Output)
	}

	m.keys.Format.SetEnabled(m.session.CanFormat())
	m.keys.Copy.SetEnabled(m.session.CanCopy())
}

func (m *Model) toggleFocus() {
	if m.focus == editorPane {
		m.focus = outputPane
		m.editor.Blur()
		return
	}
	m.focus = editorPane
	m.editor.Focus()
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	// Each pane gets half the width, less its border and padding.
	inner := max(1, width/2-4)
	rows := max(minBodyRows, height-chromeHeight)

	m.editor.SetWidth(inner)
	m.editor.SetHeight(rows)
	m.output.Width = inner
	m.output.Height = rows
	m.help.Width = width
}

func (m *Model) View() string {
	editorStyle, outputStyle := paneStyle, paneStyle
	if m.focus == editorPane {
		editorStyle = focusedPaneStyle
	} else {
		outputStyle = focusedPaneStyle
	}
	if m.session.Failed() {
		outputStyle = failedPaneStyle
	}

	paneWidth := max(1, m.width/2-2)
	left := editorStyle.Width(paneWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, labelStyle.Render("Schema"), m.editor.View()),
	)
	right := outputStyle.Width(paneWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, labelStyle.Render("Go"), m.output.View()),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("schemaplay"),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		lipgloss.JoinHorizontal(lipgloss.Top,
			button("Format", m.session.CanFormat()),
			button("Copy", m.session.CanCopy()),
		),
		statusStyle.Render(m.status),
		m.help.View(m.keys),
	)
}

func button(label string, enabled bool) string {
	if enabled {
		return buttonStyle.Render(label)
	}
	return disabledButton.Render(label)
}
