package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/app/notification"
	"github.com/osa030/19player/internal/domain/playlist"
	"github.com/osa030/19player/internal/domain/track"
)

// Errors
var (
	ErrNoTrack        = errors.New("no track playing")
	ErrPlayerRejected = errors.New("player rejected source")
	ErrClosed         = errors.New("coordinator closed")

	// errStale marks a command whose result was overtaken by a newer command
	// or a session reset. It is logged and swallowed, never returned.
	errStale = errors.New("stale playback command")
)

// Config holds coordinator configuration.
type Config struct {
	RestartThreshold  time.Duration    // PlayPrev restarts the entry past this position
	DoubleClickWindow time.Duration    // Second PlayPrev within this window goes back
	InitialVolume     float64          // Volume in [0,1]
	CompletionTimeout time.Duration    // Timeout for the fire-and-forget completion log
	Now               func() time.Time // Clock, overridable in tests
}

// DefaultConfig returns the configuration matching the web client behaviour.
func DefaultConfig() Config {
	return Config{
		RestartThreshold:  3 * time.Second,
		DoubleClickWindow: time.Second,
		InitialVolume:     1,
		CompletionTimeout: 10 * time.Second,
		Now:               time.Now,
	}
}

// PlayOption configures PlayTrack.
type PlayOption func(*playOptions)

type playOptions struct {
	forceAdd bool
}

// WithForceAdd appends a new occurrence even if the track is already queued.
// It does not apply to the current occurrence, which still toggles.
func WithForceAdd() PlayOption {
	return func(o *playOptions) {
		o.forceAdd = true
	}
}

// Coordinator owns the single playback resource, the queue mirror and the
// current-entry pointer. It is constructed at session start and closed at
// teardown; views observe it through Subscribe.
type Coordinator struct {
	mu sync.Mutex

	m       machine
	gateway Gateway
	player  Player
	config  Config

	// Command generation. Commands that decide what plays next bump it;
	// a round trip that resolves under an older generation is discarded.
	gen uint64
	// Session epoch, bumped on clear/reset so late responses cannot
	// resurrect a torn-down session.
	epoch uint64
	// Queue snapshots are applied only if newer than the last applied one.
	fetchIssued  uint64
	fetchApplied uint64
	closed       bool

	events *notification.Manager[Event]
	bg     sync.WaitGroup
}

// NewCoordinator creates a coordinator bound to a gateway and a player.
func NewCoordinator(gateway Gateway, player Player, cfg Config) *Coordinator {
	def := DefaultConfig()
	if cfg.RestartThreshold <= 0 {
		cfg.RestartThreshold = def.RestartThreshold
	}
	if cfg.DoubleClickWindow <= 0 {
		cfg.DoubleClickWindow = def.DoubleClickWindow
	}
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = def.CompletionTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &Coordinator{
		m:       newMachine(cfg),
		gateway: gateway,
		player:  player,
		config:  cfg,
		events:  notification.NewManager[Event](),
	}
	player.SetVolume(c.m.volume)
	player.OnEnded(c.handleEnded)
	return c
}

// Subscribe registers a view. Every state change is delivered as an Event.
func (c *Coordinator) Subscribe(stream notification.Stream[Event]) string {
	return c.events.Subscribe(stream)
}

// Unsubscribe removes a view.
func (c *Coordinator) Unsubscribe(id string) {
	c.events.Unsubscribe(id)
}

// Snapshot returns the current state, including the player position.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.m.snapshot()
	if s.Current != nil {
		s.Elapsed = c.player.Position()
		s.Duration = c.player.Duration()
	}
	return s
}

// Load ensures the server current playlist exists and mirrors its queue.
// Called on the first authenticated load.
func (c *Coordinator) Load(ctx context.Context) error {
	playlistID, err := c.ensurePlaylist(ctx)
	if err != nil {
		return c.report(err)
	}
	if _, err := c.fetch(ctx, playlistID); err != nil {
		return c.report(err)
	}
	return nil
}

// PlayTrack plays t. If t is the current occurrence, playback is toggled.
// If t is a queued occurrence it is played in place; otherwise a new entry is
// appended on the server and the freshly appended occurrence is played.
func (c *Coordinator) PlayTrack(ctx context.Context, t track.Track, opts ...PlayOption) error {
	var o playOptions
	for _, opt := range opts {
		opt(&o)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.m.isCurrent(&t) {
		err := c.applyLocked(c.m.toggle())
		c.mu.Unlock()
		return c.finish(EventStateChanged, err)
	}
	gen := c.beginLocked()
	if t.EntryID != "" && !o.forceAdd {
		if existing, ok := c.m.queue.Find(t.TrackID, t.EntryID); ok {
			err := c.applyLocked(c.m.start(existing))
			c.mu.Unlock()
			return c.finish(EventTrackStarted, err)
		}
	}
	c.mu.Unlock()

	playlistID, err := c.ensurePlaylist(ctx)
	if err != nil {
		return c.report(err)
	}
	if err := c.gateway.AppendTrack(ctx, playlistID, t.TrackID); err != nil {
		return c.report(errors.Wrapf(err, "failed to append track %s", t.TrackID))
	}
	pl, err := c.fetch(ctx, playlistID)
	if err != nil {
		return c.report(err)
	}

	chosen, found := pl.LastOf(t.TrackID)
	c.mu.Lock()
	err = c.startFetchedLocked(gen, chosen, found)
	c.mu.Unlock()
	return c.finish(EventTrackStarted, err)
}

// PlayAllTracks appends every track in order and starts at the first new
// occurrence. If any append fails, playback is left untouched.
func (c *Coordinator) PlayAllTracks(ctx context.Context, tracks []track.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	gen := c.beginLocked()
	c.mu.Unlock()

	playlistID, err := c.ensurePlaylist(ctx)
	if err != nil {
		return c.report(err)
	}
	before, err := c.fetch(ctx, playlistID)
	if err != nil {
		return c.report(err)
	}

	// Sequential on purpose: the server assigns positions in arrival order.
	for _, t := range tracks {
		if err := c.gateway.AppendTrack(ctx, playlistID, t.TrackID); err != nil {
			return c.report(errors.Wrapf(err, "failed to append track %s", t.TrackID))
		}
	}

	after, err := c.fetch(ctx, playlistID)
	if err != nil {
		return c.report(err)
	}

	first, found := after.At(before.Len())
	c.mu.Lock()
	err = c.startFetchedLocked(gen, first, found)
	if err == nil {
		c.m.allPlaying = true
	}
	c.mu.Unlock()
	return c.finish(EventTrackStarted, err)
}

// AddTrackOnly appends t to the server queue without touching playback.
func (c *Coordinator) AddTrackOnly(ctx context.Context, t track.Track) error {
	playlistID, err := c.ensurePlaylist(ctx)
	if err != nil {
		return c.report(err)
	}
	if err := c.gateway.AppendTrack(ctx, playlistID, t.TrackID); err != nil {
		return c.report(errors.Wrapf(err, "failed to append track %s", t.TrackID))
	}
	if _, err := c.fetch(ctx, playlistID); err != nil {
		return c.report(err)
	}
	return nil
}

// RemoveEntry deletes one queue occurrence on the server and re-syncs.
func (c *Coordinator) RemoveEntry(ctx context.Context, entryID string) error {
	playlistID, err := c.ensurePlaylist(ctx)
	if err != nil {
		return c.report(err)
	}
	if err := c.gateway.RemoveEntry(ctx, playlistID, entryID); err != nil {
		return c.report(errors.Wrapf(err, "failed to remove entry %s", entryID))
	}
	if _, err := c.fetch(ctx, playlistID); err != nil {
		return c.report(err)
	}
	return nil
}

// ClearQueue empties the server queue, then the local mirror and session.
func (c *Coordinator) ClearQueue(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.beginLocked()
	c.mu.Unlock()

	playlistID, err := c.ensurePlaylist(ctx)
	if err != nil {
		return c.report(err)
	}
	if err := c.gateway.ClearAll(ctx, playlistID); err != nil {
		return c.report(errors.Wrap(err, "failed to clear queue"))
	}

	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	c.publish(EventCleared, nil)
	return nil
}

// Reset tears the session down locally (logout). No server call is made.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	c.publish(EventCleared, nil)
}

// TogglePlayPause pauses or resumes the current entry.
func (c *Coordinator) TogglePlayPause() error {
	c.mu.Lock()
	if c.m.state == StateIdle {
		c.mu.Unlock()
		return ErrNoTrack
	}
	err := c.applyLocked(c.m.toggle())
	c.mu.Unlock()
	return c.finish(EventStateChanged, err)
}

// Stop pauses and rewinds; the coordinator goes idle. A stop is never
// counted as a finished play.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.beginLocked()
	_ = c.applyLocked(c.m.stop())
	c.mu.Unlock()
	c.publish(EventStateChanged, nil)
}

// PlayNext skips to the successor, or stops at the end of the queue.
func (c *Coordinator) PlayNext() error {
	c.mu.Lock()
	if c.m.current == nil {
		c.mu.Unlock()
		return ErrNoTrack
	}
	c.beginLocked()
	err := c.applyLocked(c.m.next())
	typ := EventStateChanged
	if c.m.current != nil {
		typ = EventTrackStarted
	}
	c.mu.Unlock()
	return c.finish(typ, err)
}

// PlayPrev restarts the current entry, or goes back one entry when pressed
// twice in quick succession near the start of the track.
func (c *Coordinator) PlayPrev() error {
	c.mu.Lock()
	if c.m.current == nil {
		c.mu.Unlock()
		return ErrNoTrack
	}
	before := c.m.current.EntryID
	effects := c.m.prev(c.config.Now(), c.player.Position())
	typ := EventStateChanged
	if c.m.current != nil && c.m.current.EntryID != before {
		c.beginLocked()
		typ = EventTrackStarted
	}
	err := c.applyLocked(effects)
	c.mu.Unlock()
	return c.finish(typ, err)
}

// Seek moves within the current entry.
func (c *Coordinator) Seek(position time.Duration) error {
	c.mu.Lock()
	if c.m.current == nil {
		c.mu.Unlock()
		return ErrNoTrack
	}
	err := c.applyLocked(c.m.seek(position, c.player.Duration()))
	c.mu.Unlock()
	return c.finish(EventStateChanged, err)
}

// SetVolume clamps v to [0,1] and applies it to the player immediately.
func (c *Coordinator) SetVolume(v float64) {
	c.mu.Lock()
	_ = c.applyLocked(c.m.setVolume(v))
	c.mu.Unlock()
	c.publish(EventVolumeChanged, nil)
}

// Close tears the coordinator down and waits for background completion logs.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.resetLocked()
	c.closed = true
	c.mu.Unlock()

	c.bg.Wait()
	c.events.Close()
}

// handleEnded is the Player's natural-end callback.
func (c *Coordinator) handleEnded(sourceID string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	effects := c.m.ended(sourceID)
	if effects == nil {
		c.mu.Unlock()
		zlog.Debug().Msgf("playback: ignoring end of stale source: source=%s", sourceID)
		return
	}
	err := c.applyLocked(effects)
	c.mu.Unlock()

	c.publish(EventTrackEnded, nil)
	_ = c.report(err)
}

// ensurePlaylist returns the current playlist ID, creating it on the server
// the first time.
func (c *Coordinator) ensurePlaylist(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	id, epoch := c.m.playlistID, c.epoch
	c.mu.Unlock()
	if id != "" {
		return id, nil
	}

	id, err := c.gateway.EnsureCurrentPlaylist(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to ensure current playlist")
	}
	if id == "" {
		return "", errors.New("backend returned an empty current playlist id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return "", errors.Wrap(errStale, "session reset while creating playlist")
	}
	if c.m.playlistID == "" {
		c.m.playlistID = id
	}
	return c.m.playlistID, nil
}

// fetch reads the authoritative queue and applies it to the mirror unless a
// newer snapshot was applied in the meantime.
func (c *Coordinator) fetch(ctx context.Context, playlistID string) (playlist.Playlist, error) {
	c.mu.Lock()
	c.fetchIssued++
	seq := c.fetchIssued
	c.mu.Unlock()

	tracks, err := c.gateway.FetchQueue(ctx, playlistID)
	if err != nil {
		return playlist.Playlist{}, errors.Wrap(err, "failed to fetch queue")
	}
	pl := playlist.New(playlistID, tracks)

	c.mu.Lock()
	if seq <= c.fetchApplied || c.m.playlistID != playlistID {
		c.mu.Unlock()
		zlog.Debug().Msgf("playback: discarding stale queue snapshot: seq=%d applied=%d", seq, c.fetchApplied)
		return pl, nil
	}
	c.fetchApplied = seq
	if err := c.applyLocked(c.m.sync(pl)); err != nil {
		// The cued head entry could not be loaded; the machine is already idle.
		zlog.Warn().Msgf("playback: failed to cue queue head: %v", err)
	}
	c.mu.Unlock()

	zlog.Debug().Msgf("playback: queue synced: playlist=%s entries=%d", playlistID, pl.Len())
	c.publish(EventQueueChanged, nil)
	return pl, nil
}

// startFetchedLocked plays an entry resolved from a queue snapshot, provided
// the command is still the latest and the entry is still mirrored.
// Must be called with lock held.
func (c *Coordinator) startFetchedLocked(gen uint64, chosen track.Track, found bool) error {
	if gen != c.gen {
		return errors.Wrap(errStale, "superseded by a newer command")
	}
	if !found || !c.m.queue.Contains(chosen.EntryID) {
		return errors.Wrapf(errStale, "entry %q no longer queued", chosen.EntryID)
	}
	zlog.Info().Msgf("playback: playing %s (entry=%s)", chosen.DisplayName(), chosen.EntryID)
	return c.applyLocked(c.m.start(chosen))
}

// beginLocked starts a new command generation.
// Must be called with lock held.
func (c *Coordinator) beginLocked() uint64 {
	c.gen++
	return c.gen
}

// resetLocked clears all state and invalidates in-flight work.
// Must be called with lock held.
func (c *Coordinator) resetLocked() {
	c.beginLocked()
	c.epoch++
	c.fetchApplied = c.fetchIssued
	_ = c.applyLocked(c.m.clear())
}

// applyLocked executes effects in order against the player and gateway.
// Must be called with lock held.
func (c *Coordinator) applyLocked(effects []effect) error {
	for _, e := range effects {
		switch e.kind {
		case effectLoad:
			if err := c.player.Load(e.source); err != nil {
				return c.rejectLocked(err)
			}
		case effectPlay:
			if err := c.player.Play(); err != nil {
				return c.rejectLocked(err)
			}
		case effectPause:
			c.player.Pause()
		case effectSeek:
			c.player.Seek(e.position)
		case effectVolume:
			c.player.SetVolume(e.volume)
		case effectLogCompletion:
			c.logCompletion(e.trackID)
		}
	}
	return nil
}

// rejectLocked moves to idle after the player refused the current source.
// Must be called with lock held.
func (c *Coordinator) rejectLocked(cause error) error {
	entryID := ""
	if c.m.current != nil {
		entryID = c.m.current.EntryID
	}
	c.m.fail()
	c.player.Pause()
	c.player.Seek(0)
	zlog.Warn().Msgf("playback: player rejected entry %s: %v", entryID, cause)
	return errors.Mark(errors.Wrapf(cause, "failed to play entry %s", entryID), ErrPlayerRejected)
}

// logCompletion records a finished play in the background. Failures are
// logged and never retried.
func (c *Coordinator) logCompletion(trackID string) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.config.CompletionTimeout)
		defer cancel()

		if err := c.gateway.LogCompletion(ctx, trackID); err != nil {
			zlog.Warn().Msgf("playback: failed to log completion: track=%s error=%v", trackID, err)
			return
		}
		zlog.Debug().Msgf("playback: completion logged: track=%s", trackID)
	}()
}

// report publishes a failure to subscribers and returns it. Stale results
// are swallowed.
func (c *Coordinator) report(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errStale) {
		zlog.Debug().Msgf("playback: %v", err)
		return nil
	}
	c.publish(EventError, err)
	return err
}

// finish reports err, or publishes typ on success.
func (c *Coordinator) finish(typ EventType, err error) error {
	if err != nil {
		return c.report(err)
	}
	c.publish(typ, nil)
	return nil
}

// publish broadcasts the current snapshot. Must be called without the lock.
func (c *Coordinator) publish(typ EventType, err error) {
	c.events.Broadcast(Event{
		Type:     typ,
		Snapshot: c.Snapshot(),
		Err:      err,
	})
}
