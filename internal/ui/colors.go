package ui

import "github.com/charmbracelet/lipgloss"

var styles = newPalette("#7D56F4", "#04B575", "#FF0000", "#626262")

// palette is a small stylesheet built with named [lipgloss.Style] fields.
type palette struct {
	title   lipgloss.Style
	current lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
	cursor  lipgloss.Style
}

func newPalette(accent, ok, bad, dim string) *palette {
	return &palette{
		title:   newBold(accent).MarginBottom(1),
		current: newBold(ok),
		err:     newBold(bad),
		muted:   newStyle(dim),
		cursor:  newStyle(accent),
	}
}

func newStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func newBold(fg string) lipgloss.Style {
	return newStyle(fg).Bold(true)
}
