package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings of the terminal inbox.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Help toggle
	Help key.Binding

	// Reload the inbox
	Refresh key.Binding

	// Email views, shown as web host links
	Open       key.Binding
	Summary    key.Binding
	SmartReply key.Binding

	// Session
	SignOut key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open email"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "web link"),
		),
		Summary: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "AI summary"),
		),
		SmartReply: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "smart reply"),
		),
		SignOut: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "sign out"),
		),
	}
}

// ShortHelp returns the bindings shown in the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the expanded help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Up, k.Select, k.Back},
		{k.Refresh, k.Open, k.Summary, k.SmartReply},
		{k.SignOut, k.Help, k.Quit},
	}
}
