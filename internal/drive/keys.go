package drive

import "github.com/charmbracelet/bubbles/key"

// keyMap defines key bindings for the driving console
type keyMap struct {
	Forward    key.Binding
	Backward   key.Binding
	Left       key.Binding
	Right      key.Binding
	StepUp     key.Binding
	StepDown   key.Binding
	Ultrasonic key.Binding
	Matrix     key.Binding
	Connect    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Forward, k.Backward, k.Left, k.Right, k.Matrix, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Forward, k.Backward, k.Left, k.Right},
		{k.StepUp, k.StepDown, k.Ultrasonic, k.Matrix},
		{k.Connect, k.Help, k.Quit},
	}
}

// editKeyMap defines key bindings while editing the LED matrix
type editKeyMap struct {
	Send   key.Binding
	Cancel key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k editKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k editKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Send, k.Cancel}}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Forward: key.NewBinding(
			key.WithKeys("up", "w"),
			key.WithHelp("↑/w", "forward"),
		),
		Backward: key.NewBinding(
			key.WithKeys("down", "s"),
			key.WithHelp("↓/s", "backward"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "a"),
			key.WithHelp("←/a", "turn left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "d"),
			key.WithHelp("→/d", "turn right"),
		),
		StepUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "more steps"),
		),
		StepDown: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "fewer steps"),
		),
		Ultrasonic: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "ultrasonic"),
		),
		Matrix: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "LED matrix"),
		),
		Connect: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "connect/disconnect"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func defaultEditKeyMap() editKeyMap {
	return editKeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}
