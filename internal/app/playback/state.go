// Package playback provides the playback coordinator: a single playback
// resource driven by a state machine over the mirrored server play queue.
package playback

import (
	"time"

	"github.com/osa030/19player/internal/domain/track"
)

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // No current entry
	StatePlaying              // Current entry loaded and playing
	StatePaused               // Current entry loaded, paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of the coordinator state handed to views.
type Snapshot struct {
	State        State
	Current      *track.Track  // nil when idle
	Queue        []track.Track // Mirror of the server current playlist
	PlaylistID   string
	IsPlaying    bool
	IsAllPlaying bool // Playback was started by PlayAllTracks
	Volume       float64
	Elapsed      time.Duration
	Duration     time.Duration
}
