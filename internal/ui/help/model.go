package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailgate/internal/keys"
	"github.com/nhle/mailgate/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys    *keys.KeyMap
	help    help.Model
	baseURL string
	width   int
	height  int
}

// New creates a help overlay. baseURL is the web host that serves the
// email views.
func New(k *keys.KeyMap, baseURL string, width, height int) Model {
	h := help.New()
	h.ShowAll = true
	return Model{
		keys:    k,
		help:    h,
		baseURL: baseURL,
		width:   width,
		height:  height,
	}
}

// View renders the help overlay.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	parts := []string{title, m.help.View(m.keys)}
	if m.baseURL != "" {
		parts = append(parts, "", theme.HelpStyle.Render("Web links point at "+m.baseURL))
	}

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 1)).
		Height(max(m.height-4, 1)).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
