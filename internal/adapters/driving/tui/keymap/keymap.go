// Package keymap holds the key bindings shared by the TUI views.
package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap is every binding the views react to.
type KeyMap struct {
	Quit   key.Binding
	Help   key.Binding
	Back   key.Binding
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Reload key.Binding

	// Chat and search input.
	Send      key.Binding
	ClearChat key.Binding
	NewSearch key.Binding
	PrevInput key.Binding
	NextInput key.Binding

	// Document actions. Delete asks for Confirm first.
	Reprocess key.Binding
	Delete    key.Binding
	Confirm   key.Binding

	// Key point filtering: the type tabs and the text filter.
	NextFilter key.Binding
	PrevFilter key.Binding
	Find       key.Binding
}

func bind(helpKey, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(helpKey, desc))
}

// DefaultKeyMap returns vim-style bindings alongside the arrow keys.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:   bind("q", "quit", "q", "ctrl+c"),
		Help:   bind("?", "help", "?"),
		Back:   bind("esc", "back", "esc"),
		Up:     bind("↑/k", "up", "up", "k"),
		Down:   bind("↓/j", "down", "down", "j"),
		Select: bind("enter", "select", "enter"),
		Reload: bind("r", "reload", "r"),

		Send:      bind("enter", "send", "enter"),
		ClearChat: bind("ctrl+l", "clear chat", "ctrl+l"),
		NewSearch: bind("n", "new search", "n"),
		PrevInput: bind("ctrl+p", "previous entry", "ctrl+p"),
		NextInput: bind("ctrl+n", "next entry", "ctrl+n"),

		Reprocess: bind("p", "reprocess", "p"),
		Delete:    bind("d", "delete", "d", "delete"),
		Confirm:   bind("y", "confirm", "y", "Y"),

		NextFilter: bind("tab", "next type", "tab", "right", "l"),
		PrevFilter: bind("shift+tab", "previous type", "shift+tab", "left", "h"),
		Find:       bind("/", "filter", "/"),
	}
}

// ShortHelp is shown where a view has no bindings of its own.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Back, k.Help}
}

// MenuHelp lists the menu bindings.
func (k *KeyMap) MenuHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Quit}
}

// ChatHelp lists the chat bindings.
func (k *KeyMap) ChatHelp() []key.Binding {
	return []key.Binding{k.Send, k.ClearChat, k.Back}
}

// ResultsHelp lists the search result bindings.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewSearch, k.Up, k.Select, k.Back}
}

// DocumentsHelp lists the document list bindings.
func (k *KeyMap) DocumentsHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Reprocess, k.Delete, k.Reload, k.Back}
}

// KeyPointsHelp lists the key point bindings.
func (k *KeyMap) KeyPointsHelp() []key.Binding {
	return []key.Binding{k.NextFilter, k.Find, k.Reload, k.Back}
}

// FullHelp groups every binding for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Reprocess, k.Delete, k.Confirm},
		{k.Send, k.PrevInput, k.NextInput, k.ClearChat, k.Back},
		{k.NextFilter, k.PrevFilter, k.Find},
		{k.Reload, k.Help, k.Quit},
	}
}

// Matches reports whether keyStr, as produced by tea.KeyMsg.String, is
// one of binding's keys.
func Matches(keyStr string, binding key.Binding) bool {
	return slices.Contains(binding.Keys(), keyStr)
}
