package playback

import (
	"math"
	"time"

	"github.com/osa030/19player/internal/domain/playlist"
	"github.com/osa030/19player/internal/domain/track"
)

// effectKind identifies a side effect produced by a transition.
type effectKind int

const (
	effectLoad effectKind = iota
	effectPlay
	effectPause
	effectSeek
	effectVolume
	effectLogCompletion
)

// effect is a command for the Player or Gateway, executed by the Coordinator.
type effect struct {
	kind     effectKind
	source   Source
	position time.Duration
	volume   float64
	trackID  string
}

func loadEffect(t track.Track) effect { return effect{kind: effectLoad, source: sourceOf(t)} }
func playEffect() effect { return effect{kind: effectPlay} }
func pauseEffect() effect { return effect{kind: effectPause} }
func seekEffect(pos time.Duration) effect { return effect{kind: effectSeek, position: pos} }
func volumeEffect(v float64) effect { return effect{kind: effectVolume, volume: v} }
func logCompletionEffect(id string) effect { return effect{kind: effectLogCompletion, trackID: id} }

// machine holds the coordinator state. Transitions mutate it and return the
// effects to execute; it never touches the Player or the network itself.
type machine struct {
	playlistID string
	queue      playlist.Playlist
	current    *track.Track
	state      State
	allPlaying bool
	volume     float64

	// Entry ID whose completion was already logged.
	loggedEntry string
	// Time of the last PlayPrev that found the current entry.
	lastPrevAt time.Time

	restartThreshold  time.Duration
	doubleClickWindow time.Duration
}

func newMachine(cfg Config) machine {
	return machine{
		state:             StateIdle,
		volume:            clampVolume(cfg.InitialVolume),
		restartThreshold:  cfg.RestartThreshold,
		doubleClickWindow: cfg.DoubleClickWindow,
	}
}

// isCurrent reports whether t is the occurrence currently loaded.
func (m *machine) isCurrent(t *track.Track) bool {
	return m.current != nil && m.current.SameOccurrence(t)
}

// start makes t current and plays it from the beginning.
func (m *machine) start(t track.Track) []effect {
	m.current = &t
	m.state = StatePlaying
	m.loggedEntry = ""
	return []effect{loadEffect(t), playEffect()}
}

// toggle flips between playing and paused. Idle has no effect.
func (m *machine) toggle() []effect {
	switch m.state {
	case StatePlaying:
		m.state = StatePaused
		return []effect{pauseEffect()}
	case StatePaused:
		m.state = StatePlaying
		return []effect{playEffect()}
	default:
		return nil
	}
}

// stop pauses, rewinds and forgets the current entry. It never logs a completion.
func (m *machine) stop() []effect {
	m.current = nil
	m.state = StateIdle
	m.allPlaying = false
	return []effect{pauseEffect(), seekEffect(0)}
}

// fail is stop after the Player rejected a source.
func (m *machine) fail() []effect {
	return m.stop()
}

// next advances to the successor or stops at the end of the queue.
func (m *machine) next() []effect {
	if m.current == nil {
		return nil
	}
	if n, ok := m.queue.Next(m.current.EntryID); ok {
		return m.start(n)
	}
	return m.stop()
}

// prev restarts the current entry, or moves to the predecessor when invoked
// again within the double-click window near the start of the track.
func (m *machine) prev(now time.Time, elapsed time.Duration) []effect {
	if m.current == nil || !m.queue.Contains(m.current.EntryID) {
		return nil
	}

	last := m.lastPrevAt
	m.lastPrevAt = now

	if elapsed > m.restartThreshold {
		return []effect{seekEffect(0)}
	}
	if !last.IsZero() && now.Sub(last) < m.doubleClickWindow {
		if p, ok := m.queue.Prev(m.current.EntryID); ok {
			return m.start(p)
		}
	}
	return []effect{seekEffect(0)}
}

// ended handles the natural end of the source with the given ID.
func (m *machine) ended(sourceID string) []effect {
	if m.current == nil || m.current.EntryID != sourceID {
		return nil
	}

	var effects []effect
	finished := *m.current
	if finished.TrackID != "" && finished.EntryID != "" && m.loggedEntry != finished.EntryID {
		m.loggedEntry = finished.EntryID
		effects = append(effects, logCompletionEffect(finished.TrackID))
	}

	if n, ok := m.queue.Next(finished.EntryID); ok {
		return append(effects, m.start(n)...)
	}
	return append(effects, m.stop()...)
}

// seek moves within the current entry, clamped to [0, duration].
func (m *machine) seek(pos, duration time.Duration) []effect {
	if m.current == nil {
		return nil
	}
	if pos < 0 {
		pos = 0
	}
	if duration > 0 && pos > duration {
		pos = duration
	}
	return []effect{seekEffect(pos)}
}

func (m *machine) setVolume(v float64) []effect {
	m.volume = clampVolume(v)
	return []effect{volumeEffect(m.volume)}
}

// sync replaces the queue mirror with an authoritative snapshot and keeps
// the current entry a member of it.
func (m *machine) sync(pl playlist.Playlist) []effect {
	m.queue = pl

	if pl.Len() == 0 {
		if m.current == nil {
			return nil
		}
		return m.stop()
	}

	if m.current != nil {
		if idx := pl.IndexOf(m.current.EntryID); idx >= 0 {
			fresh := pl.Tracks[idx]
			m.current = &fresh
			return nil
		}
	}

	// Current entry is gone or was never set: cue the head of the queue.
	first := pl.Tracks[0]
	var effects []effect
	if m.state == StatePlaying {
		effects = append(effects, pauseEffect())
	}
	m.current = &first
	m.state = StatePaused
	m.loggedEntry = ""
	return append(effects, loadEffect(first))
}

// clear empties queue and session state.
func (m *machine) clear() []effect {
	effects := m.stop()
	m.queue = playlist.Playlist{}
	m.playlistID = ""
	m.loggedEntry = ""
	m.lastPrevAt = time.Time{}
	return effects
}

func (m *machine) snapshot() Snapshot {
	s := Snapshot{
		State:        m.state,
		Queue:        make([]track.Track, len(m.queue.Tracks)),
		PlaylistID:   m.playlistID,
		IsPlaying:    m.state == StatePlaying,
		IsAllPlaying: m.allPlaying,
		Volume:       m.volume,
	}
	copy(s.Queue, m.queue.Tracks)
	if m.current != nil {
		cur := *m.current
		s.Current = &cur
	}
	return s
}

// clampVolume bounds v to [0,1]. NaN is treated as mute.
func clampVolume(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
