package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/19player/internal/domain/track"
)

// wireTrack is the union of the field names the backend uses for a track
// across endpoints.
type wireTrack struct {
	TrackID                string `mapstructure:"trackId"`
	Title                  string `mapstructure:"title"`
	TrackTitle             string `mapstructure:"trackTitle"`
	Artist                 string `mapstructure:"artist"`
	ArtistName             string `mapstructure:"artistName"`
	AlbumTitle             string `mapstructure:"albumTitle"`
	Cover                  string `mapstructure:"cover"`
	CoverImage             string `mapstructure:"coverImage"`
	TrackFile              string `mapstructure:"trackFile"`
	QueueEntryID           string `mapstructure:"queueEntryId"`
	CurrentPlaylistTrackID string `mapstructure:"currentPlaylistTrackId"`
	PlaylistTrackID        string `mapstructure:"playlistTrackId"`
	TrackLyrics            string `mapstructure:"trackLyrics"`
	Lyrics                 string `mapstructure:"lyrics"`
	TrackDuration          string `mapstructure:"trackDuration"`
	Duration               string `mapstructure:"duration"`
}

// decodeWeak decodes a generic JSON value into out, converting numbers and
// booleans to strings where needed.
func decodeWeak(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := dec.Decode(input); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

// normalizeTrack converts one raw track object into the canonical Track.
func normalizeTrack(raw map[string]any, playlistID string) (track.Track, error) {
	var w wireTrack
	if err := decodeWeak(raw, &w); err != nil {
		return track.Track{}, err
	}
	if w.TrackID == "" {
		return track.Track{}, errors.New("track without trackId")
	}

	return track.Track{
		TrackID:    w.TrackID,
		Title:      firstNonEmpty(w.Title, w.TrackTitle),
		Artist:     firstNonEmpty(w.Artist, w.ArtistName),
		AlbumTitle: w.AlbumTitle,
		CoverImage: firstNonEmpty(w.Cover, w.CoverImage),
		TrackFile:  w.TrackFile,
		EntryID:    firstNonEmpty(w.QueueEntryID, w.CurrentPlaylistTrackID, w.PlaylistTrackID),
		PlaylistID: playlistID,
		Lyrics:     firstNonEmpty(w.TrackLyrics, w.Lyrics),
		Duration:   parseDuration(firstNonEmpty(w.TrackDuration, w.Duration)),
	}, nil
}

// normalizeTracks converts a list of raw tracks, keeping server order.
func normalizeTracks(raws []map[string]any, playlistID string) ([]track.Track, error) {
	tracks := make([]track.Track, 0, len(raws))
	for i, raw := range raws {
		t, err := normalizeTrack(raw, playlistID)
		if err != nil {
			return nil, errors.Wrapf(err, "track %d", i)
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// parseDuration accepts "m:ss", "h:mm:ss", whole seconds or a Go duration.
// Unparseable values yield zero (unknown).
func parseDuration(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if strings.Contains(s, ":") {
		var total int
		for _, part := range strings.Split(s, ":") {
			n, err := strconv.Atoi(part)
			if err != nil || n < 0 {
				return 0
			}
			total = total*60 + n
		}
		return time.Duration(total) * time.Second
	}

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}

	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
