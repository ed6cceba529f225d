package inbox

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailgate/internal/model"
	"github.com/nhle/mailgate/internal/render"
	"github.com/nhle/mailgate/internal/theme"
)

// maxLabels is how many AI labels fit on a row before the rest are elided.
const maxLabels = 3

// EmailItem wraps a model.EmailSummary so it can be used in a bubbles/list.
type EmailItem struct {
	Email model.EmailSummary

	// Date is the display form of Email.Date.
	Date string
}

// FilterValue returns the string used for fuzzy filtering.
func (i EmailItem) FilterValue() string {
	return i.Email.Subject + " " + i.Email.Sender
}

// Title returns the subject.
func (i EmailItem) Title() string { return i.Email.Subject }

// Description returns the sender and the truncated snippet.
func (i EmailItem) Description() string {
	return i.Email.Sender + " | " + render.TruncateSnippet(i.Email.Snippet)
}

// ItemDelegate implements list.ItemDelegate for email rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws one email row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(EmailItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderRow(it, index == m.Index()))
}

// renderRow draws priority, subject and date on the first line, sender,
// snippet and labels on the second.
func renderRow(it EmailItem, selected bool) string {
	e := it.Email

	badge := theme.PriorityStyle(e.Priority).Render(strings.ToUpper(string(e.Priority)))
	first := fmt.Sprintf("%s %s  %s", badge, e.Subject, theme.DimmedStyle.Render(it.Date))

	second := theme.DimmedStyle.Render(it.Description())
	if labels := labelLine(e.AILabels); labels != "" {
		second += "  " + labels
	}

	style := theme.ListItemStyle
	if selected {
		style = theme.SelectedItemStyle
	}
	return style.Render(first + "\n" + second)
}

func labelLine(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	shown := labels
	if len(shown) > maxLabels {
		shown = append(shown[:maxLabels:maxLabels], "…")
	}
	return theme.LabelStyle.Render("[" + strings.Join(shown, "] [") + "]")
}
