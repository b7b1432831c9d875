package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"

	"github.com/osa030/19player/internal/app/notification"
	"github.com/osa030/19player/internal/app/playback"
	"github.com/osa030/19player/internal/domain/track"
)

const (
	seekStep   = 10 * time.Second
	volumeStep = 0.1
	barWidth   = 30
	eventQueue = 64
)

// Controller is the playback surface the view drives.
type Controller interface {
	Snapshot() playback.Snapshot
	Subscribe(stream notification.Stream[playback.Event]) string
	Unsubscribe(id string)
	PlayTrack(ctx context.Context, t track.Track, opts ...playback.PlayOption) error
	TogglePlayPause() error
	Stop()
	PlayNext() error
	PlayPrev() error
	Seek(position time.Duration) error
	SetVolume(v float64)
	RemoveEntry(ctx context.Context, entryID string) error
	ClearQueue(ctx context.Context) error
}

// Model represents the listening view state.
type Model struct {
	ctx    context.Context
	coord  Controller
	events chan playback.Event
	subID  string

	snap     playback.Snapshot
	cursor   int
	status   string
	err      error
	quitting bool

	keys keyMap
	help help.Model
}

// NewModel creates the view and subscribes it to coord.
func NewModel(ctx context.Context, coord Controller) *Model {
	m := &Model{
		ctx:    ctx,
		coord:  coord,
		events: make(chan playback.Event, eventQueue),
		snap:   coord.Snapshot(),
		keys:   newKeyMap(),
		help:   help.New(),
	}
	m.subID = coord.Subscribe(notification.StreamFunc[playback.Event](func(n notification.Notification[playback.Event]) error {
		select {
		case m.events <- n.Payload:
		default:
			// The next tick refreshes the snapshot anyway.
		}
		return nil
	}))
	return m
}

// Close detaches the view from the coordinator.
func (m *Model) Close() {
	m.coord.Unsubscribe(m.subID)
}

// Run shows the listening view until the user quits or ctx is cancelled.
func Run(ctx context.Context, coord Controller, opts ...tea.ProgramOption) error {
	m := NewModel(ctx, coord)
	defer m.Close()

	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrap(err, "error running listening view")
	}
	return nil
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), tick())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case eventMsg:
		m.snap = msg.Snapshot
		if msg.Type == playback.EventError && msg.Err != nil {
			m.err = msg.Err
		}
		m.clampCursor()
		return m, waitForEvent(m.events)

	case tickMsg:
		m.refresh()
		return m, tick()

	case doneMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		m.quitting = true
		return m, tea.Quit
	}

	m.err = nil
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.toggle):
		m.err = m.coord.TogglePlayPause()
	case key.Matches(msg, m.keys.next):
		m.err = m.coord.PlayNext()
	case key.Matches(msg, m.keys.prev):
		m.err = m.coord.PlayPrev()
	case key.Matches(msg, m.keys.stop):
		m.coord.Stop()
	case key.Matches(msg, m.keys.forward):
		m.err = m.coord.Seek(m.coord.Snapshot().Elapsed + seekStep)
	case key.Matches(msg, m.keys.back):
		m.err = m.coord.Seek(max(m.coord.Snapshot().Elapsed-seekStep, 0))
	case key.Matches(msg, m.keys.volUp):
		m.coord.SetVolume(m.snap.Volume + volumeStep)
	case key.Matches(msg, m.keys.volDown):
		m.coord.SetVolume(m.snap.Volume - volumeStep)
	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.down):
		if m.cursor < len(m.snap.Queue)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.enter):
		if t, ok := m.selected(); ok {
			return m, m.run("playing "+t.DisplayName(), func(ctx context.Context) error {
				return m.coord.PlayTrack(ctx, t)
			})
		}
	case key.Matches(msg, m.keys.remove):
		if t, ok := m.selected(); ok {
			return m, m.run("removed "+t.DisplayName(), func(ctx context.Context) error {
				return m.coord.RemoveEntry(ctx, t.EntryID)
			})
		}
	case key.Matches(msg, m.keys.clear):
		return m, m.run("queue cleared", m.coord.ClearQueue)
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	}

	m.refresh()
	return m, nil
}

// run executes a backend command off the update loop.
func (m *Model) run(status string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{status: status, err: fn(ctx)}
	}
}

func (m *Model) refresh() {
	m.snap = m.coord.Snapshot()
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.snap.Queue) {
		m.cursor = len(m.snap.Queue) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selected() (track.Track, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Queue) {
		return track.Track{}, false
	}
	return m.snap.Queue[m.cursor], true
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("19player"))
	b.WriteString("\n")
	b.WriteString(m.renderNowPlaying())
	b.WriteString("\n\n")
	b.WriteString(m.renderQueue())
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(styles.err.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	case m.status != "":
		b.WriteString(styles.muted.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderNowPlaying() string {
	s := m.snap
	if s.Current == nil {
		return styles.muted.Render("Nothing playing") + "\n" +
			fmt.Sprintf("vol %d%%", int(s.Volume*100+0.5))
	}

	icon := "⏸"
	if s.IsPlaying {
		icon = "▶"
	}
	line := fmt.Sprintf("%s %s", icon, styles.current.Render(s.Current.DisplayName()))
	if s.Current.AlbumTitle != "" {
		line += styles.muted.Render(" · " + s.Current.AlbumTitle)
	}

	total := "--:--"
	if s.Duration > 0 {
		total = formatDuration(s.Duration)
	}
	progress := fmt.Sprintf("%s %s %s   vol %d%%",
		formatDuration(s.Elapsed),
		renderBar(s.Elapsed, s.Duration, barWidth),
		total,
		int(s.Volume*100+0.5),
	)
	if s.IsAllPlaying {
		progress += styles.muted.Render("   (play all)")
	}
	return line + "\n" + progress
}

func (m *Model) renderQueue() string {
	q := m.snap.Queue
	if len(q) == 0 {
		return styles.muted.Render("Queue is empty")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Queue (%d)\n", len(q))
	for i := range q {
		t := &q[i]
		pointer := "  "
		if i == m.cursor {
			pointer = styles.cursor.Render("> ")
		}
		name := fmt.Sprintf("%2d. %s", i+1, t.DisplayName())
		if t.SameOccurrence(m.snap.Current) {
			name = styles.current.Render(name + " ♪")
		}
		b.WriteString(pointer + name + "\n")
	}
	return b.String()
}

func renderBar(elapsed, duration time.Duration, width int) string {
	filled := 0
	if duration > 0 {
		filled = int(float64(width) * float64(elapsed) / float64(duration))
	}
	filled = min(max(filled, 0), width)
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

// formatDuration renders d as m:ss.
func formatDuration(d time.Duration) string {
	d = max(d, 0)
	total := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
