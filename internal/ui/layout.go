package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailgate/internal/theme"
)

// Layout holds the terminal dimensions and splits them into a title bar,
// a content area and a status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with single-line header and status bars.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height left for the content area.
func (l Layout) ContentHeight() int {
	return max(l.Height-l.HeaderHeight-l.StatusBarHeight, 0)
}

// RenderHeader renders the title on the left and the signed-in account on
// the right.
func (l Layout) RenderHeader(title, account string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Render(account)
	return fill(theme.HeaderStyle, l.Width, left, right)
}

// RenderStatusBar renders hints, or an error in the error style.
func (l Layout) RenderStatusBar(text string, isError bool) string {
	style := theme.StatusBarStyle
	if isError {
		style = theme.ErrorBarStyle
	}
	return fill(style, l.Width, style.Render(text), "")
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	content = lipgloss.NewStyle().Height(l.ContentHeight()).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// fill pads the gap between left and right with the style's background so
// the bar spans width.
func fill(style lipgloss.Style, width int, left, right string) string {
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}
