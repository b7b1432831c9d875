package playback

import (
	"context"
	"time"

	"github.com/osa030/19player/internal/domain/track"
)

// Source is a playable resource bound to one queue occurrence.
type Source struct {
	ID       string // Queue entry ID the resource was loaded for
	URL      string
	Duration time.Duration // Zero if unknown; the player may discover it
}

// sourceOf builds the Source for a queue entry.
func sourceOf(t track.Track) Source {
	return Source{ID: t.EntryID, URL: t.TrackFile, Duration: t.Duration}
}

// Player is the single playback resource. Only the Coordinator mutates it.
//
// Implementations must not hold internal locks while invoking the ended
// callback.
type Player interface {
	// Load replaces the current resource. Position resets to zero, paused.
	Load(src Source) error
	// Play starts or resumes the loaded resource.
	Play() error
	Pause()
	Seek(position time.Duration)
	Position() time.Duration
	Duration() time.Duration
	SetVolume(v float64)
	// OnEnded registers the natural-end callback. The argument is the ID of
	// the Source that finished.
	OnEnded(fn func(sourceID string))
}

// Gateway is the REST-backed persistence boundary for the server play queue.
type Gateway interface {
	// EnsureCurrentPlaylist returns the current playlist ID, creating it if needed.
	EnsureCurrentPlaylist(ctx context.Context) (string, error)
	// FetchQueue returns the authoritative queue in server order.
	FetchQueue(ctx context.Context, playlistID string) ([]track.Track, error)
	AppendTrack(ctx context.Context, playlistID, trackID string) error
	RemoveEntry(ctx context.Context, playlistID, entryID string) error
	ClearAll(ctx context.Context, playlistID string) error
	// LogCompletion records one finished play of a track.
	LogCompletion(ctx context.Context, trackID string) error
}
