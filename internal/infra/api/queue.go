package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/domain/track"
)

// QueueGateway persists the server-side current playlist.
type QueueGateway struct {
	client *Client
}

// NewQueueGateway creates a gateway backed by client.
func NewQueueGateway(client *Client) *QueueGateway {
	return &QueueGateway{client: client}
}

type currentPlaylistResponse struct {
	CurrentPlaylistID string `mapstructure:"currentPlaylistId"`
}

type queueResponse struct {
	Tracks []map[string]any `json:"tracks"`
}

// EnsureCurrentPlaylist returns the current playlist ID, creating the
// playlist on first use. The endpoint is idempotent.
func (g *QueueGateway) EnsureCurrentPlaylist(ctx context.Context) (string, error) {
	var raw map[string]any
	if err := g.client.doAuth(ctx, http.MethodPost, "/playlists/current", struct{}{}, &raw); err != nil {
		return "", err
	}

	var resp currentPlaylistResponse
	if err := decodeWeak(raw, &resp); err != nil {
		return "", err
	}
	if resp.CurrentPlaylistID == "" {
		return "", errors.New("response has no currentPlaylistId")
	}
	return resp.CurrentPlaylistID, nil
}

// FetchQueue returns the queue entries in server order.
func (g *QueueGateway) FetchQueue(ctx context.Context, playlistID string) ([]track.Track, error) {
	if playlistID == "" {
		return nil, errors.New("playlist ID is required")
	}

	var resp queueResponse
	path := "/playlists/current/" + url.PathEscape(playlistID) + "/tracks"
	if err := g.client.doAuth(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	tracks, err := normalizeTracks(resp.Tracks, playlistID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to normalize queue")
	}
	return tracks, nil
}

// AppendTrack adds a new entry for trackID at the end of the queue.
func (g *QueueGateway) AppendTrack(ctx context.Context, playlistID, trackID string) error {
	if playlistID == "" || trackID == "" {
		return errors.New("playlist ID and track ID are required")
	}

	body := map[string]any{
		"currentPlaylistId": idValue(playlistID),
		"trackId":           idValue(trackID),
	}
	return g.client.doAuth(ctx, http.MethodPost, "/playlists/add/current/track", body, nil)
}

// RemoveEntry deletes one queue entry.
func (g *QueueGateway) RemoveEntry(ctx context.Context, playlistID, entryID string) error {
	if playlistID == "" || entryID == "" {
		return errors.New("playlist ID and entry ID are required")
	}

	// Older backends read currentPlaylistTrackId; both carry the entry ID.
	body := map[string]any{
		"currentPlaylistId":      idValue(playlistID),
		"queueEntryId":           idValue(entryID),
		"currentPlaylistTrackId": idValue(entryID),
	}
	return g.client.doAuth(ctx, http.MethodDelete, "/playlists/remove/current/tracks", body, nil)
}

// ClearAll removes every entry of the queue, one request at a time.
func (g *QueueGateway) ClearAll(ctx context.Context, playlistID string) error {
	tracks, err := g.FetchQueue(ctx, playlistID)
	if err != nil {
		return err
	}
	for _, t := range tracks {
		if err := g.RemoveEntry(ctx, playlistID, t.EntryID); err != nil {
			return errors.Wrapf(err, "failed to remove entry %s", t.EntryID)
		}
	}
	zlog.Debug().Msgf("api: cleared current playlist %s (%d entries)", playlistID, len(tracks))
	return nil
}

// LogCompletion records one finished play of trackID.
func (g *QueueGateway) LogCompletion(ctx context.Context, trackID string) error {
	if trackID == "" {
		return errors.New("track ID is required")
	}
	return g.client.doAuth(ctx, http.MethodPost, "/tracks/"+url.PathEscape(trackID)+"/play", nil, nil)
}
