package inbox

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailgate/internal/keys"
	"github.com/nhle/mailgate/internal/model"
	"github.com/nhle/mailgate/internal/render"
	"github.com/nhle/mailgate/internal/theme"
)

// Placeholder texts, matching the web inbox.
const (
	TextLoading = "Loading..."
	TextEmpty   = "No emails found"
)

// SelectedEmailMsg is sent when the user opens an email.
type SelectedEmailMsg struct {
	Email model.EmailSummary
}

// OpenMsg asks the parent for the web link of an email view.
type OpenMsg struct {
	ID string
}

// Model is the email list view.
type Model struct {
	list     list.Model
	keys     *keys.KeyMap
	renderer *render.Renderer
	stats    *model.StatsDigest
	loading  bool
	message  string
	width    int
	height   int
}

// New creates an empty email list.
func New(r *render.Renderer, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-1)
	l.Title = "Inbox"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:     l,
		keys:     k,
		renderer: r,
		width:    width,
		height:   height,
	}
}

// SetLoading shows the loading placeholder until the next SetEmails or
// SetMessage.
func (m *Model) SetLoading() {
	m.loading = true
	m.message = ""
}

// SetEmails replaces the list. A nil stats keeps the previous counters.
func (m *Model) SetEmails(emails []model.EmailSummary, stats *model.StatsDigest) tea.Cmd {
	m.loading = false
	m.message = ""
	if stats != nil {
		m.stats = stats
	}

	items := make([]list.Item, len(emails))
	for i, e := range emails {
		items[i] = EmailItem{Email: e, Date: m.renderer.FormatDate(e.Date)}
	}
	return m.list.SetItems(items)
}

// SetMessage replaces the list with a message, such as a load error.
func (m *Model) SetMessage(msg string) tea.Cmd {
	m.loading = false
	m.message = msg
	return m.list.SetItems([]list.Item{})
}

// Clear empties the list and the counters.
func (m *Model) Clear() tea.Cmd {
	m.stats = nil
	return m.SetMessage("")
}

// Len returns the number of listed emails.
func (m Model) Len() int {
	return len(m.list.Items())
}

// SelectedEmail returns the focused email, if any.
func (m Model) SelectedEmail() (model.EmailSummary, bool) {
	it, ok := m.list.SelectedItem().(EmailItem)
	if !ok {
		return model.EmailSummary{}, false
	}
	return it.Email, true
}

// Update handles messages for the list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Select):
			e, ok := m.SelectedEmail()
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg { return SelectedEmailMsg{Email: e} }

		case key.Matches(msg, m.keys.Open):
			e, ok := m.SelectedEmail()
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg { return OpenMsg{ID: e.ID} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the counters above the list or its placeholder.
func (m Model) View() string {
	var body string
	switch {
	case m.loading:
		body = m.placeholder(TextLoading)
	case m.message != "":
		body = m.placeholder(m.message)
	case len(m.list.Items()) == 0:
		body = m.placeholder(TextEmpty)
	default:
		body = m.list.View()
	}
	if m.stats == nil {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, StatsBar(*m.stats), body)
}

func (m Model) placeholder(text string) string {
	return theme.PlaceholderStyle.
		Width(m.width).
		Height(max(m.height-1, 1)).
		Render(text)
}

// StatsBar renders the four counters shown on the web inbox.
func StatsBar(s model.StatsDigest) string {
	counter := func(category, label string, n int) string {
		return theme.StatsStyle(category).Render(fmt.Sprintf("%s %d", label, n))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		counter("total", "Total", s.Total), " ",
		counter("work", "Work", s.Work), " ",
		counter("promotions", "Promotions", s.Promotions), " ",
		counter("low", "Low", s.Low),
	)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, max(height-1, 1))
}
