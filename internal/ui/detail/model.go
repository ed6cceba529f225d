package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailgate/internal/keys"
	"github.com/nhle/mailgate/internal/model"
	"github.com/nhle/mailgate/internal/render"
	"github.com/nhle/mailgate/internal/theme"
)

// Email views a detail model can link to.
const (
	ViewMessage    = "message"
	ViewSummary    = "summary"
	ViewSmartReply = "smart-reply"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// OpenMsg asks the parent for the web link of one of the email's views.
type OpenMsg struct {
	ID   string
	View string
}

// Model is the email detail view.
type Model struct {
	email    *model.EmailSummary
	viewport viewport.Model
	renderer *render.Renderer
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(r *render.Renderer, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		renderer: r,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }
		case key.Matches(msg, m.keys.Open):
			return m, m.open(ViewMessage)
		case key.Matches(msg, m.keys.Summary):
			return m, m.open(ViewSummary)
		case key.Matches(msg, m.keys.SmartReply):
			return m, m.open(ViewSmartReply)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) open(view string) tea.Cmd {
	if m.email == nil {
		return nil
	}
	id := m.email.ID
	return func() tea.Msg { return OpenMsg{ID: id, View: view} }
}

// View renders the detail view.
func (m Model) View() string {
	if m.email == nil {
		return theme.PlaceholderStyle.
			Width(m.width).
			Height(m.height).
			Render("No email selected")
	}
	return m.viewport.View()
}

// renderContent builds the text shown in the viewport.
func (m Model) renderContent() string {
	e := m.email
	if e == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	metaStyle := theme.DimmedStyle
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sections := []string{
		titleStyle.Render(e.Subject),
		theme.PriorityStyle(e.Priority).Render(strings.ToUpper(string(e.Priority))),
		"",
		fmt.Sprintf("%s  %s", metaStyle.Render("From:"), valStyle.Render(e.Sender)),
		fmt.Sprintf("%s  %s", metaStyle.Render("Date:"), valStyle.Render(m.renderer.FormatDate(e.Date))),
	}
	if len(e.AILabels) > 0 {
		sections = append(sections, fmt.Sprintf("%s  %s",
			metaStyle.Render("Labels:"),
			theme.LabelStyle.Render(strings.Join(e.AILabels, ", ")),
		))
	}

	separator := lipgloss.NewStyle().
		Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))
	sections = append(sections, "", separator, "")

	if e.Summary != "" {
		sections = append(sections,
			titleStyle.MarginBottom(1).Render("AI Summary"),
			e.Summary,
			"",
		)
	}

	body := e.Snippet
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No preview")
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetEmail updates the email being displayed.
func (m *Model) SetEmail(e model.EmailSummary) {
	m.email = &e
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	if m.email != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
