package playback

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted  EventType = iota // A queue entry became current and started
	EventTrackEnded                     // Current entry reached its natural end
	EventStateChanged                   // Play/pause/stop/seek
	EventQueueChanged                   // Queue mirror replaced from the server
	EventVolumeChanged                  // Volume changed
	EventCleared                        // Queue and session emptied
	EventError                          // A command failed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackEnded:
		return "track_ended"
	case EventStateChanged:
		return "state_changed"
	case EventQueueChanged:
		return "queue_changed"
	case EventVolumeChanged:
		return "volume_changed"
	case EventCleared:
		return "cleared"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event represents a playback event delivered to subscribers.
type Event struct {
	Type     EventType
	Snapshot Snapshot
	Err      error // Set for EventError
}
