package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/osa030/19player/internal/app/playback"
)

// tickInterval is how often the elapsed time is refreshed.
const tickInterval = time.Second

// eventMsg carries a coordinator event into the update loop.
type eventMsg playback.Event

// tickMsg refreshes the snapshot.
type tickMsg time.Time

// doneMsg reports the result of a backend command.
type doneMsg struct {
	status string
	err    error
}

func waitForEvent(events <-chan playback.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
