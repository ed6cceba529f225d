package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailgate/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorBarStyle replaces StatusBarStyle while an error is shown.
var ErrorBarStyle = StatusBarStyle.
	Background(ColorRed)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle is used for secondary text such as senders and snippets.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// LabelStyle renders a single AI label.
var LabelStyle = lipgloss.NewStyle().
	Foreground(ColorMagenta)

// PlaceholderStyle centers the loading, empty and error placeholders.
var PlaceholderStyle = lipgloss.NewStyle().
	Align(lipgloss.Center, lipgloss.Center).
	Foreground(ColorGray)

// PriorityStyle returns a color-coded style for the given priority. Unknown
// priorities render gray.
func PriorityStyle(p model.Priority) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch p {
	case model.PriorityWork:
		return base.Foreground(ColorRed)
	case model.PriorityMedium:
		return base.Foreground(ColorOrange)
	case model.PriorityLow:
		return base.Foreground(ColorBlue)
	case model.PriorityPromotions:
		return base.Foreground(ColorGreen)
	case model.PrioritySpam:
		return base.Foreground(ColorMagenta)
	default:
		return base.Foreground(ColorGray)
	}
}

// StatsStyle returns the style of one statistics counter. The colors follow
// the stats cards of the web inbox.
func StatsStyle(category string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(ColorWhite)

	switch category {
	case "work":
		return base.Background(ColorRed)
	case "promotions":
		return base.Background(ColorGreen)
	case "low":
		return base.Background(ColorBlue)
	default:
		return base.Background(ColorMagenta)
	}
}
