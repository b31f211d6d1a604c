package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	NextScreen key.Binding
	PrevScreen key.Binding
	Back       key.Binding
	Logout     key.Binding
	Refresh    key.Binding
	Settings   key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Grid
	Search    key.Binding
	Sort      key.Binding
	Select    key.Binding
	SelectAll key.Binding
	Open      key.Binding
	Child     key.Binding
	Export    key.Binding
	CopyID    key.Binding

	// Dates
	EarlierRange key.Binding
	LaterRange   key.Binding
	WidenRange   key.Binding
	NarrowRange  key.Binding

	// Notices
	MarkRead     key.Binding
	MarkUnread   key.Binding
	NoticeFilter key.Binding

	// Detail
	Delete key.Binding

	// Login
	SignIn key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "cycle theme"),
		),
		NextScreen: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next screen"),
		),
		PrevScreen: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous screen"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "sign out"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
		Settings: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "account settings"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("j/k", "move"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g/G", "top/bottom"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("ctrl+u/d", "page up/down"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Sort: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "sort column"),
		),
		Select: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select row"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Child: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "notices / audit trail"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export"),
		),
		CopyID: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy id"),
		),

		EarlierRange: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[/]", "shift dates"),
		),
		LaterRange: key.NewBinding(
			key.WithKeys("]"),
		),
		WidenRange: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-/+", "widen/narrow dates"),
		),
		NarrowRange: key.NewBinding(
			key.WithKeys("+", "="),
		),

		MarkRead: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r/u", "mark read/unread"),
		),
		MarkUnread: key.NewBinding(
			key.WithKeys("u"),
		),
		NoticeFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "unread/read/all"),
		),

		Delete: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete"),
		),

		SignIn: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "sign in"),
		),
	}
}

// listHelp is the footer summary on grid screens.
func (k keyMap) listHelp() []key.Binding {
	return []key.Binding{k.Up, k.Search, k.Sort, k.Select, k.Open, k.Export, k.NextScreen, k.Help, k.Quit}
}

func (k keyMap) detailHelp() []key.Binding {
	return []key.Binding{k.Up, k.CopyID, k.Back, k.Help, k.Quit}
}
