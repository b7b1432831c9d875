// Package playlist provides the current playlist (play queue) entity.
package playlist

import (
	"time"

	"github.com/osa030/19player/internal/domain/track"
)

// Playlist is an ordered snapshot of the server-side current playlist.
// Order is insertion order and defines next/previous navigation.
type Playlist struct {
	ID     string        // Current playlist ID
	Tracks []track.Track // Queue entries in server order
}

// New creates a playlist snapshot. The slice is copied.
func New(id string, tracks []track.Track) Playlist {
	cp := make([]track.Track, len(tracks))
	copy(cp, tracks)
	return Playlist{ID: id, Tracks: cp}
}

// Len returns the number of entries.
func (p *Playlist) Len() int {
	return len(p.Tracks)
}

// IndexOf returns the position of the entry with the given ID, or -1.
func (p *Playlist) IndexOf(entryID string) int {
	if entryID == "" {
		return -1
	}
	for i := range p.Tracks {
		if p.Tracks[i].EntryID == entryID {
			return i
		}
	}
	return -1
}

// Contains reports whether the entry is part of the playlist.
func (p *Playlist) Contains(entryID string) bool {
	return p.IndexOf(entryID) >= 0
}

// Find returns the first entry matching both track ID and entry ID.
func (p *Playlist) Find(trackID, entryID string) (track.Track, bool) {
	for _, t := range p.Tracks {
		if t.TrackID == trackID && t.EntryID == entryID {
			return t, true
		}
	}
	return track.Track{}, false
}

// LastOf returns the most recently appended occurrence of a track.
func (p *Playlist) LastOf(trackID string) (track.Track, bool) {
	for i := len(p.Tracks) - 1; i >= 0; i-- {
		if p.Tracks[i].TrackID == trackID {
			return p.Tracks[i], true
		}
	}
	return track.Track{}, false
}

// Next returns the successor of the given entry.
func (p *Playlist) Next(entryID string) (track.Track, bool) {
	idx := p.IndexOf(entryID)
	if idx < 0 || idx+1 >= len(p.Tracks) {
		return track.Track{}, false
	}
	return p.Tracks[idx+1], true
}

// Prev returns the predecessor of the given entry.
func (p *Playlist) Prev(entryID string) (track.Track, bool) {
	idx := p.IndexOf(entryID)
	if idx <= 0 {
		return track.Track{}, false
	}
	return p.Tracks[idx-1], true
}

// At returns the entry at position i.
func (p *Playlist) At(i int) (track.Track, bool) {
	if i < 0 || i >= len(p.Tracks) {
		return track.Track{}, false
	}
	return p.Tracks[i], true
}

// TrackIDs returns the catalog track IDs in queue order.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.TrackID
	}
	return ids
}

// TotalDuration returns the sum of known track durations.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}
