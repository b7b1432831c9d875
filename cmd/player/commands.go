package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19player/internal/app/playback"
	"github.com/osa030/19player/internal/app/session"
	"github.com/osa030/19player/internal/domain/playlist"
	"github.com/osa030/19player/internal/domain/track"
	"github.com/osa030/19player/internal/infra/api"
	"github.com/osa030/19player/internal/infra/tokenstore"
	"github.com/osa030/19player/internal/ui"
)

// lookupLimit is how many chart tracks are searched when resolving IDs.
const lookupLimit = 100

// cli holds the wired components shared by every command.
type cli struct {
	ctx         context.Context
	catalog     *api.CatalogClient
	coordinator *playback.Coordinator
	session     *session.Store
	tokens      *tokenstore.Store
}

// restore resumes the stored session. Logging in loads the queue.
func (c *cli) restore() error {
	if err := c.session.Init(c.ctx); err != nil {
		return errors.Wrap(err, "failed to restore session")
	}
	if !c.session.IsAuthenticated() {
		return errors.Wrap(session.ErrNotLoggedIn, "run '19player login' first")
	}
	return nil
}

func (c *cli) login(memberID, password string) error {
	if err := c.session.Login(c.ctx, memberID, password); err != nil {
		return err
	}
	c.printProfile()
	fmt.Printf("Tokens saved to %s\n", c.tokens.Path())
	return nil
}

func (c *cli) logout() error {
	if err := c.session.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func (c *cli) whoami() error {
	c.printProfile()
	return nil
}

func (c *cli) printProfile() {
	p := c.session.Profile()
	if p == nil {
		fmt.Println("Not logged in")
		return
	}
	kind := "member"
	if c.session.IsArtist() {
		kind = "artist"
	}
	fmt.Printf("Logged in as %s (%s)\n", p.Username, kind)
}

func (c *cli) queue() error {
	printQueue(c.coordinator.Snapshot())
	return nil
}

func (c *cli) add(trackIDs []string, playlistID string) error {
	tracks, err := c.resolve(trackIDs, playlistID)
	if err != nil {
		return err
	}
	for _, t := range tracks {
		if err := c.coordinator.AddTrackOnly(c.ctx, t); err != nil {
			return err
		}
		fmt.Printf("Added: %s\n", t.DisplayName())
	}
	printQueue(c.coordinator.Snapshot())
	return nil
}

func (c *cli) play(trackID, playlistID string, forceAdd bool) error {
	tracks, err := c.resolve([]string{trackID}, playlistID)
	if err != nil {
		return err
	}
	t, opts := playTarget(tracks[0], forceAdd)
	if err := c.coordinator.PlayTrack(c.ctx, t, opts...); err != nil {
		return err
	}
	return c.listen()
}

// playTarget drops the queue identity of t when forceAdd is set, so even the
// current or cued occurrence is appended again instead of toggled.
func playTarget(t track.Track, forceAdd bool) (track.Track, []playback.PlayOption) {
	if !forceAdd {
		return t, nil
	}
	return catalogTracks([]track.Track{t})[0], []playback.PlayOption{playback.WithForceAdd()}
}

func (c *cli) playAll(trackIDs []string, chartN int, playlistID string) error {
	var tracks []track.Track
	var err error
	switch {
	case len(trackIDs) > 0:
		tracks, err = c.resolve(trackIDs, playlistID)
	case chartN > 0:
		tracks, err = c.catalog.Chart(c.ctx, chartN)
	case playlistID != "":
		var detail *api.PlaylistDetail
		detail, err = c.catalog.PlaylistTracks(c.ctx, playlistID)
		if err == nil {
			tracks = detail.Tracks
		}
	default:
		return errors.New("give track IDs, --chart or --playlist")
	}
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return errors.New("no tracks to play")
	}

	if err := c.coordinator.PlayAllTracks(c.ctx, catalogTracks(tracks)); err != nil {
		return err
	}
	return c.listen()
}

func (c *cli) remove(entryIDs []string) error {
	for _, id := range entryIDs {
		if err := c.coordinator.RemoveEntry(c.ctx, id); err != nil {
			return err
		}
		fmt.Printf("Removed entry %s\n", id)
	}
	printQueue(c.coordinator.Snapshot())
	return nil
}

func (c *cli) clear() error {
	if err := c.coordinator.ClearQueue(c.ctx); err != nil {
		return err
	}
	fmt.Println("Queue cleared")
	return nil
}

func (c *cli) chart(limit int) error {
	tracks, err := c.catalog.Chart(c.ctx, limit)
	if err != nil {
		return err
	}
	fmt.Printf("Top %d\n", len(tracks))
	for i, t := range tracks {
		fmt.Printf("%3d. %-10s %s\n", i+1, t.TrackID, t.DisplayName())
	}
	return nil
}

func (c *cli) search(query string) error {
	result, err := c.catalog.Search(c.ctx, query)
	if err != nil {
		return err
	}
	if len(result.Artists)+len(result.Albums)+len(result.Tracks) == 0 {
		fmt.Printf("No results for %q\n", query)
		return nil
	}
	if len(result.Artists) > 0 {
		fmt.Println("Artists")
		for _, a := range result.Artists {
			fmt.Printf("  %-10s %s\n", a.ID, a.Name)
		}
	}
	if len(result.Albums) > 0 {
		fmt.Println("Albums")
		for _, a := range result.Albums {
			fmt.Printf("  %-10s %s\n", a.ID, a.Title)
		}
	}
	if len(result.Tracks) > 0 {
		fmt.Println("Tracks")
		for _, t := range result.Tracks {
			fmt.Printf("  %-10s %s\n", t.TrackID, t.DisplayName())
		}
	}
	return nil
}

func (c *cli) playlists(playlistID string) error {
	if playlistID == "" {
		list, err := c.catalog.UserPlaylists(c.ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No playlists")
			return nil
		}
		for _, p := range list {
			fmt.Printf("%-10s %s\n", p.ID, p.Name)
		}
		return nil
	}

	detail, err := c.catalog.PlaylistTracks(c.ctx, playlistID)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d tracks)\n", detail.Name, len(detail.Tracks))
	if detail.Description != "" {
		fmt.Println(detail.Description)
	}
	for i, t := range detail.Tracks {
		fmt.Printf("%3d. %-10s %s\n", i+1, t.TrackID, t.DisplayName())
	}
	return nil
}

func (c *cli) listen() error {
	return ui.Run(c.ctx, c.coordinator)
}

// resolve looks trackIDs up in the queue mirror first, then in the given
// playlist or the chart, and finally through catalog search. The result keeps
// the order of trackIDs.
func (c *cli) resolve(trackIDs []string, playlistID string) ([]track.Track, error) {
	known := newTrackIndex()
	known.addQueued(c.coordinator.Snapshot().Queue)

	if !known.hasAll(trackIDs) {
		var catalog []track.Track
		if playlistID != "" {
			detail, err := c.catalog.PlaylistTracks(c.ctx, playlistID)
			if err != nil {
				return nil, err
			}
			catalog = detail.Tracks
		} else {
			chart, err := c.catalog.Chart(c.ctx, lookupLimit)
			if err != nil {
				return nil, err
			}
			catalog = chart
		}
		known.addCatalog(catalog)
	}

	for _, id := range known.missing(trackIDs) {
		result, err := c.catalog.Search(c.ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to search for track %s", id)
		}
		known.addCatalog(result.Tracks)
	}

	return known.lookup(trackIDs)
}

// trackIndex maps track IDs to a playable track.
type trackIndex struct {
	byID map[string]track.Track
}

func newTrackIndex() *trackIndex {
	return &trackIndex{byID: make(map[string]track.Track)}
}

// addQueued indexes queue occurrences. The first occurrence of a track wins.
func (x *trackIndex) addQueued(tracks []track.Track) {
	for _, t := range tracks {
		if _, ok := x.byID[t.TrackID]; !ok {
			x.byID[t.TrackID] = t
		}
	}
}

// addCatalog indexes catalog tracks without overriding queued ones.
func (x *trackIndex) addCatalog(tracks []track.Track) {
	x.addQueued(catalogTracks(tracks))
}

func (x *trackIndex) hasAll(ids []string) bool {
	return len(x.missing(ids)) == 0
}

// missing returns the IDs that are not indexed, without duplicates.
func (x *trackIndex) missing(ids []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, id := range ids {
		if _, ok := x.byID[id]; ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (x *trackIndex) lookup(ids []string) ([]track.Track, error) {
	if missing := x.missing(ids); len(missing) > 0 {
		return nil, errors.Newf("tracks not found: %s", strings.Join(missing, ", "))
	}
	tracks := make([]track.Track, 0, len(ids))
	for _, id := range ids {
		tracks = append(tracks, x.byID[id])
	}
	return tracks, nil
}

// catalogTracks strips queue identity from tracks that come from a catalog
// listing, so they are appended as new entries.
func catalogTracks(tracks []track.Track) []track.Track {
	out := make([]track.Track, len(tracks))
	for i, t := range tracks {
		t.EntryID = ""
		t.PlaylistID = ""
		out[i] = t
	}
	return out
}

func printQueue(s playback.Snapshot) {
	if len(s.Queue) == 0 {
		fmt.Println("Queue is empty")
		return
	}
	pl := playlist.New(s.PlaylistID, s.Queue)
	fmt.Printf("Queue %s (%d tracks, %s)\n", pl.ID, pl.Len(), pl.TotalDuration().Round(time.Second))
	for i := range s.Queue {
		t := &s.Queue[i]
		marker := " "
		if t.SameOccurrence(s.Current) {
			marker = "*"
		}
		fmt.Printf("%s %3d. [%s] %-10s %s\n", marker, i+1, t.EntryID, t.TrackID, t.DisplayName())
	}
}
