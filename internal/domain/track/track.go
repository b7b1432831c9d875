// Package track provides the Track domain entity.
package track

import "time"

// Track represents a track as the client sees it.
// When it comes from the play queue, EntryID identifies the queue position
// it occupies. Catalog tracks that are not queued have an empty EntryID.
type Track struct {
	TrackID    string        // Catalog track ID (may repeat within a queue)
	Title      string        // Track title
	Artist     string        // Artist name
	AlbumTitle string        // Album title
	CoverImage string        // Cover image URL
	TrackFile  string        // Playable resource URL
	EntryID    string        // Server-assigned queue entry ID
	PlaylistID string        // Current playlist the entry belongs to
	Lyrics     string        // Lyrics (optional)
	Duration   time.Duration // Track duration (zero if unknown)
}

// IsQueued reports whether the track refers to a queue occurrence.
func (t *Track) IsQueued() bool {
	return t.EntryID != ""
}

// SameOccurrence reports whether both tracks refer to the same queue entry
// of the same catalog track.
func (t *Track) SameOccurrence(other *Track) bool {
	if t == nil || other == nil {
		return false
	}
	return t.TrackID == other.TrackID && t.EntryID == other.EntryID
}

// IsPlayable reports whether the track carries a resource that can be loaded.
func (t *Track) IsPlayable() bool {
	return t.TrackFile != ""
}

// DisplayName returns "Artist - Title", falling back to whichever is set.
func (t *Track) DisplayName() string {
	switch {
	case t.Artist != "" && t.Title != "":
		return t.Artist + " - " + t.Title
	case t.Title != "":
		return t.Title
	case t.Artist != "":
		return t.Artist
	default:
		return t.TrackID
	}
}
