// Package ui implements the interactive listening view using bubbletea's Elm
// architecture.
//
// The [Model] mirrors a playback coordinator: coordinator events arrive
// through a buffered channel and a one second tick refreshes the elapsed
// time. Transport keys call the coordinator directly; commands that reach the
// backend (play selected, remove, clear) run as [tea.Cmd] so the view stays
// responsive.
package ui
