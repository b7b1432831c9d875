package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19player/internal/domain/track"
)

// PlaylistSummary represents a user playlist in listings.
type PlaylistSummary struct {
	ID          string `mapstructure:"playlistId"`
	Name        string `mapstructure:"playlistName"`
	Cover       string `mapstructure:"playlistCover"`
	Description string `mapstructure:"playlistDescription"`
}

// PlaylistDetail represents a user playlist with its tracks.
type PlaylistDetail struct {
	PlaylistSummary
	Tracks []track.Track
}

// CatalogClient reads catalog data: charts, search and user playlists.
type CatalogClient struct {
	client *Client
}

// NewCatalogClient creates a catalog client backed by client.
func NewCatalogClient(client *Client) *CatalogClient {
	return &CatalogClient{client: client}
}

// Chart retrieves the realtime streaming chart. No session is required.
func (c *CatalogClient) Chart(ctx context.Context, limit int) ([]track.Track, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 100 {
		limit = 100
	}

	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))

	var raw json.RawMessage
	if err := c.client.doPublic(ctx, http.MethodGet, "/chart/top/streaming?"+params.Encode(), nil, &raw); err != nil {
		return nil, err
	}

	// The chart is returned either as a bare array or paged under "content".
	var items []map[string]any
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := decodeJSON(trimmed, &items); err != nil {
			return nil, errors.Wrap(err, "failed to parse chart")
		}
	} else {
		var page struct {
			Content []map[string]any `json:"content"`
		}
		if err := decodeJSON(trimmed, &page); err != nil {
			return nil, errors.Wrap(err, "failed to parse chart")
		}
		items = page.Content
	}

	tracks, err := normalizeTracks(items, "")
	if err != nil {
		return nil, errors.Wrap(err, "failed to normalize chart")
	}
	return tracks, nil
}

// UserPlaylists lists the playlists of the logged-in user.
func (c *CatalogClient) UserPlaylists(ctx context.Context) ([]PlaylistSummary, error) {
	var raw []map[string]any
	if err := c.client.doAuth(ctx, http.MethodGet, "/playlists/user/all_playlists", nil, &raw); err != nil {
		return nil, err
	}

	playlists := make([]PlaylistSummary, 0, len(raw))
	for _, r := range raw {
		var p PlaylistSummary
		if err := decodeWeak(r, &p); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, nil
}

// PlaylistTracks retrieves one user playlist with its tracks.
func (c *CatalogClient) PlaylistTracks(ctx context.Context, playlistID string) (*PlaylistDetail, error) {
	if playlistID == "" {
		return nil, errors.New("playlist ID is required")
	}

	var raw map[string]any
	path := "/playlists/user/0/playlist/" + url.PathEscape(playlistID)
	if err := c.client.doAuth(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	detail := &PlaylistDetail{}
	if err := decodeWeak(raw, &detail.PlaylistSummary); err != nil {
		return nil, err
	}
	if detail.ID == "" {
		detail.ID = playlistID
	}

	var items []map[string]any
	if rawTracks, ok := raw["tracks"].([]any); ok {
		for i, rt := range rawTracks {
			m, ok := rt.(map[string]any)
			if !ok {
				return nil, errors.Newf("track %d is not an object", i)
			}
			items = append(items, m)
		}
	}

	tracks, err := normalizeTracks(items, "")
	if err != nil {
		return nil, errors.Wrap(err, "failed to normalize playlist")
	}
	detail.Tracks = tracks
	return detail, nil
}

// ArtistSummary represents an artist in search results.
type ArtistSummary struct {
	ID           string `mapstructure:"artistSeq"`
	Name         string `mapstructure:"artistName"`
	ProfileImage string `mapstructure:"profileImageUrl"`
}

// AlbumSummary represents an album in search results.
type AlbumSummary struct {
	ID         string `mapstructure:"albumId"`
	Title      string `mapstructure:"albumTitle"`
	CoverImage string `mapstructure:"coverImage"`
}

// SearchResult holds the catalog matches for a keyword.
type SearchResult struct {
	Artists []ArtistSummary
	Albums  []AlbumSummary
	Tracks  []track.Track
}

type searchResponse struct {
	Artists []map[string]any `json:"artists"`
	Albums  []map[string]any `json:"albums"`
	Tracks  []map[string]any `json:"tracks"`
}

// Search looks query up across artists, albums and tracks. A blank query
// returns an empty result without a request.
func (c *CatalogClient) Search(ctx context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &SearchResult{}, nil
	}

	params := url.Values{}
	params.Set("query", query)

	var resp searchResponse
	if err := c.client.doPublic(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	result := &SearchResult{
		Artists: make([]ArtistSummary, 0, len(resp.Artists)),
		Albums:  make([]AlbumSummary, 0, len(resp.Albums)),
	}
	for _, r := range resp.Artists {
		var a ArtistSummary
		if err := decodeWeak(r, &a); err != nil {
			return nil, err
		}
		result.Artists = append(result.Artists, a)
	}
	for _, r := range resp.Albums {
		var a AlbumSummary
		if err := decodeWeak(r, &a); err != nil {
			return nil, err
		}
		result.Albums = append(result.Albums, a)
	}

	tracks, err := normalizeTracks(resp.Tracks, "")
	if err != nil {
		return nil, errors.Wrap(err, "failed to normalize search results")
	}
	result.Tracks = tracks
	return result, nil
}
