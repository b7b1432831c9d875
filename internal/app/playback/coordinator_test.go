package playback

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19player/internal/app/notification"
	"github.com/osa030/19player/internal/domain/track"
)

// fakeGateway is an in-memory server-side current playlist.
type fakeGateway struct {
	mu        sync.Mutex
	queue     []track.Track
	nextEntry int
	ensured   int
	appends   []string
	removes   []string
	completed []string

	ensureErr     error
	fetchErr      error
	appendErr     map[string]error
	completionErr error
	// appendHook runs before an append is applied, without holding the lock.
	appendHook func(trackID string)
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{appendErr: make(map[string]error)}
}

func (g *fakeGateway) EnsureCurrentPlaylist(_ context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensured++
	if g.ensureErr != nil {
		return "", g.ensureErr
	}
	return "pl-1", nil
}

func (g *fakeGateway) FetchQueue(_ context.Context, playlistID string) ([]track.Track, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	out := make([]track.Track, len(g.queue))
	copy(out, g.queue)
	for i := range out {
		out[i].PlaylistID = playlistID
	}
	return out, nil
}

func (g *fakeGateway) AppendTrack(_ context.Context, _ string, trackID string) error {
	g.mu.Lock()
	hook := g.appendHook
	g.mu.Unlock()
	if hook != nil {
		hook(trackID)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.appendErr[trackID]; err != nil {
		return err
	}
	g.nextEntry++
	g.appends = append(g.appends, trackID)
	g.queue = append(g.queue, track.Track{
		TrackID:   trackID,
		EntryID:   fmt.Sprintf("e%d", g.nextEntry),
		Title:     "Title " + trackID,
		TrackFile: "https://cdn.example.com/" + trackID + ".mp3",
		Duration:  3 * time.Minute,
	})
	return nil
}

func (g *fakeGateway) RemoveEntry(_ context.Context, _ string, entryID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removes = append(g.removes, entryID)
	for i, t := range g.queue {
		if t.EntryID == entryID {
			g.queue = append(g.queue[:i], g.queue[i+1:]...)
			return nil
		}
	}
	return errors.Newf("entry %s not found", entryID)
}

func (g *fakeGateway) ClearAll(_ context.Context, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queue = nil
	return nil
}

func (g *fakeGateway) LogCompletion(_ context.Context, trackID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed = append(g.completed, trackID)
	return g.completionErr
}

func (g *fakeGateway) appendCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.appends)
}

func (g *fakeGateway) completions() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.completed...)
}

// fakePlayer records what the coordinator did to the playback resource.
type fakePlayer struct {
	mu       sync.Mutex
	loaded   Source
	playing  bool
	position time.Duration
	volume   float64
	loads    []string
	loadErr  error
	playErr  error
	onEnded  func(string)
}

func (p *fakePlayer) Load(src Source) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return p.loadErr
	}
	p.loaded = src
	p.playing = false
	p.position = 0
	p.loads = append(p.loads, src.ID)
	return nil
}

func (p *fakePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playErr != nil {
		return p.playErr
	}
	p.playing = true
	return nil
}

func (p *fakePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
}

func (p *fakePlayer) Seek(position time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = position
}

func (p *fakePlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *fakePlayer) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded.Duration
}

func (p *fakePlayer) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
}

func (p *fakePlayer) OnEnded(fn func(sourceID string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEnded = fn
}

// end emits the natural-end signal for the loaded source.
func (p *fakePlayer) end() {
	p.mu.Lock()
	id, fn := p.loaded.ID, p.onEnded
	p.mu.Unlock()
	fn(id)
}

func (p *fakePlayer) isPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) setPosition(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = d
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) Send(n notification.Notification[Event]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, n.Payload)
	return nil
}

func (r *eventRecorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *eventRecorder) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeGateway, *fakePlayer) {
	t.Helper()
	g := newFakeGateway()
	p := &fakePlayer{}
	c := NewCoordinator(g, p, DefaultConfig())
	t.Cleanup(c.Close)
	return c, g, p
}

func catalogTrack(id string) track.Track {
	return track.Track{TrackID: id, Title: "Title " + id}
}

func queueTrackIDs(s Snapshot) []string {
	ids := make([]string, len(s.Queue))
	for i, t := range s.Queue {
		ids[i] = t.TrackID
	}
	return ids
}

func TestCoordinator_NewAppliesInitialVolume(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialVolume = 0.3
	p := &fakePlayer{}
	c := NewCoordinator(newFakeGateway(), p, cfg)
	defer c.Close()

	assert.Equal(t, 0.3, p.volume)
	assert.NotNil(t, p.onEnded)
	assert.Equal(t, StateIdle, c.Snapshot().State)
}

func TestCoordinator_PlayTrackAppendsEachOccurrence(t *testing.T) {
	c, g, p := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.PlayTrack(ctx, catalogTrack("a")))
	require.NoError(t, c.PlayTrack(ctx, catalogTrack("b")))
	require.NoError(t, c.PlayTrack(ctx, catalogTrack("a")))

	s := c.Snapshot()
	assert.Equal(t, []string{"a", "b", "a"}, queueTrackIDs(s))
	assert.Equal(t, 3, g.appendCount())
	require.NotNil(t, s.Current)
	assert.Equal(t, "a", s.Current.TrackID)
	assert.Equal(t, "e3", s.Current.EntryID, "plays the freshly appended occurrence")
	assert.True(t, s.IsPlaying)
	assert.Equal(t, "e3", p.loaded.ID)
	assert.Equal(t, 1, g.ensured, "playlist is created once per session")
}

func TestCoordinator_PlayTrackOnCurrentToggles(t *testing.T) {
	c, g, p := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.PlayTrack(ctx, catalogTrack("a")))
	current := *c.Snapshot().Current
	loads := len(p.loads)

	require.NoError(t, c.PlayTrack(ctx, current))
	assert.Equal(t, StatePaused, c.Snapshot().State)
	assert.False(t, p.isPlaying())

	require.NoError(t, c.PlayTrack(ctx, current))
	assert.Equal(t, StatePlaying, c.Snapshot().State)
	assert.True(t, p.isPlaying())

	assert.Equal(t, 1, g.appendCount())
	assert.Len(t, p.loads, loads, "toggle never reloads the resource")
}

func TestCoordinator_PlayTrackQueuedOccurrence(t *testing.T) {
	c, g, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.PlayAllTracks(ctx, []track.Track{catalogTrack("a"), catalogTrack("b")}))
	first, second := c.Snapshot().Queue[0], c.Snapshot().Queue[1]

	require.NoError(t, c.PlayTrack(ctx, second))
	assert.Equal(t, "e2", c.Snapshot().Current.EntryID)
	assert.Equal(t, 2, g.appendCount())

	// A queued occurrence that is not current gets a new entry when forced.
	require.NoError(t, c.PlayTrack(ctx, first, WithForceAdd()))
	s := c.Snapshot()
	assert.Equal(t, 3, g.appendCount())
	assert.Equal(t, "e3", s.Current.EntryID)
	assert.Equal(t, "a", s.Current.TrackID)
	assert.Equal(t, StatePlaying, s.State)
	assert.Equal(t, []string{"a", "b", "a"}, queueTrackIDs(s))
}

func TestCoordinator_PlayTrackForceAddOnCurrentToggles(t *testing.T) {
	c, g, p := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.PlayTrack(ctx, catalogTrack("a")))
	current := *c.Snapshot().Current

	require.NoError(t, c.PlayTrack(ctx, current, WithForceAdd()))
	s := c.Snapshot()
	assert.Equal(t, StatePaused, s.State)
	assert.False(t, p.isPlaying())
	assert.Equal(t, 1, g.appendCount())
	assert.Equal(t, []string{"a"}, queueTrackIDs(s))
}

func TestCoordinator_EndedLogsOnce(t *testing.T) {
	c, g, p := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.PlayTrack(ctx, catalogTrack("a")))

	p.end()
	p.end()
	c.bg.Wait()

	assert.Equal(t, []string{"a"}, g.completions())
	assert.Equal(t, StateIdle, c.Snapshot().State)
}

func TestCoordinator_PlayPrev(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return now }

	g := newFakeGateway()
	p := &fakePlayer{}
	c := NewCoordinator(g, p, cfg)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.PlayAllTracks(ctx, []track.Track{catalogTrack("a"), catalogTrack("b")}))
	require.NoError(t, c.PlayNext())
	require.Equal(t, "e2", c.Snapshot().Current.EntryID)

	// Single press restarts the current entry.
	p.setPosition(2 * time.Second)
	require.NoError(t, c.PlayPrev())
	assert.Equal(t, "e2", c.Snapshot().Current.EntryID)
	assert.Equal(t, time.Duration(0), p.Position())

	// Second press within the window goes back.
	now = now.Add(400 * time.Millisecond)
	require.NoError(t, c.PlayPrev())
	s := c.Snapshot()
	assert.Equal(t, "e1", s.Current.EntryID)
	assert.True(t, s.IsPlaying)
}

func TestCoordinator_PlayPrevPastThresholdRestarts(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return now }

	p := &fakePlayer{}
	c := NewCoordinator(newFakeGateway(), p, cfg)
	defer c.Close()

	require.NoError(t, c.PlayAllTracks(context.Background(), []track.Track{catalogTrack("a"), catalogTrack("b")}))
	require.NoError(t, c.PlayNext())

	p.setPosition(10 * time.Second)
	require.NoError(t, c.PlayPrev())
	now = now.Add(200 * time.Millisecond)
	p.setPosition(10 * time.Second)
	require.NoError(t, c.PlayPrev())

	assert.Equal(t, "e2", c.Snapshot().Current.EntryID)
	assert.Equal(t, time.Duration(0), p.Position())
}

func TestCoordinator_StopNeverLogs(t *testing.T) {
	c, g, p := newTestCoordinator(t)

	require.NoError(t, c.PlayTrack(context.Background(), catalogTrack("a")))
	p.setPosition(2*time.Minute + 59*time.Second)

	c.Stop()
	c.bg.Wait()

	s := c.Snapshot()
	assert.Equal(t, StateIdle, s.State)
	assert.Nil(t, s.Current)
	assert.False(t, s.IsPlaying)
	assert.Equal(t, time.Duration(0), p.Position())
	assert.Empty(t, g.completions())

	// A late end signal for the stopped source is ignored.
	p.end()
	c.bg.Wait()
	assert.Empty(t, g.completions())
}

func TestCoordinator_PlayNextNeverLogs(t *testing.T) {
	c, g, _ := newTestCoordinator(t)

	require.NoError(t, c.PlayAllTracks(context.Background(), []track.Track{catalogTrack("a"), catalogTrack("b")}))
	require.NoError(t, c.PlayNext())
	require.NoError(t, c.PlayNext())
	c.bg.Wait()

	assert.Equal(t, StateIdle, c.Snapshot().State)
	assert.Empty(t, g.completions())
	assert.ErrorIs(t, c.PlayNext(), ErrNoTrack)
}

func TestCoordinator_PlayAllTracksFromEmpty(t *testing.T) {
	c, _, p := newTestCoordinator(t)

	require.NoError(t, c.PlayAllTracks(context.Background(), []track.Track{catalogTrack("a"), catalogTrack("b")}))

	s := c.Snapshot()
	assert.Equal(t, []string{"a", "b"}, queueTrackIDs(s))
	require.NotNil(t, s.Current)
	assert.Equal(t, "a", s.Current.TrackID)
	assert.True(t, s.IsPlaying)
	assert.True(t, s.IsAllPlaying)
	assert.True(t, p.isPlaying())
}

func TestCoordinator_PlayAllTracksStartsAtFirstNewEntry(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.AddTrackOnly(ctx, catalogTrack("x")))
	require.NoError(t, c.PlayAllTracks(ctx, []track.Track{catalogTrack("a"), catalogTrack("b")}))

	s := c.Snapshot()
	assert.Equal(t, []string{"x", "a", "b"}, queueTrackIDs(s))
	assert.Equal(t, "e2", s.Current.EntryID)
}

func TestCoordinator_PlayAllTracksAppendFailure(t *testing.T) {
	c, g, p := newTestCoordinator(t)
	ctx := context.Background()
	rec := &eventRecorder{}
	c.Subscribe(rec)

	require.NoError(t, c.PlayTrack(ctx, catalogTrack("x")))
	g.appendErr["b"] = errors.New("connection reset")

	err := c.PlayAllTracks(ctx, []track.Track{catalogTrack("a"), catalogTrack("b"), catalogTrack("c")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	s := c.Snapshot()
	assert.Equal(t, "x", s.Current.TrackID)
	assert.True(t, s.IsPlaying)
	assert.False(t, s.IsAllPlaying)
	assert.Equal(t, "e1", p.loaded.ID)
	assert.Equal(t, EventError, rec.last().Type)
	assert.NotContains(t, g.appends, "c")
}

func TestCoordinator_PlayAllTracksEmpty(t *testing.T) {
	c, g, _ := newTestCoordinator(t)

	require.NoError(t, c.PlayAllTracks(context.Background(), nil))
	assert.Zero(t, g.ensured)
}

func TestCoordinator_EndedAdvances(t *testing.T) {
	c, g, p := newTestCoordinator(t)
	rec := &eventRecorder{}
	c.Subscribe(rec)

	require.NoError(t, c.PlayAllTracks(context.Background(), []track.Track{catalogTrack("a"), catalogTrack("b")}))

	p.end()
	c.bg.Wait()

	s := c.Snapshot()
	assert.Equal(t, []string{"a"}, g.completions())
	require.NotNil(t, s.Current)
	assert.Equal(t, "b", s.Current.TrackID)
	assert.True(t, s.IsPlaying)
	assert.Equal(t, "e2", p.loaded.ID)
	assert.Contains(t, rec.types(), EventTrackEnded)
}

func TestCoordinator_EndedOnLastGoesIdle(t *testing.T) {
	c, g, p := newTestCoordinator(t)

	require.NoError(t, c.PlayTrack(context.Background(), catalogTrack("a")))

	p.end()
	c.bg.Wait()

	s := c.Snapshot()
	assert.Equal(t, []string{"a"}, g.completions())
	assert.Nil(t, s.Current)
	assert.False(t, s.IsPlaying)
	assert.Equal(t, StateIdle, s.State)
}

func TestCoordinator_CompletionFailureNotSurfaced(t *testing.T) {
	c, g, p := newTestCoordinator(t)
	rec := &eventRecorder{}
	c.Subscribe(rec)
	g.completionErr = errors.New("backend unavailable")

	require.NoError(t, c.PlayTrack(context.Background(), catalogTrack("a")))
	p.end()
	c.bg.Wait()

	assert.Equal(t, []string{"a"}, g.completions())
	assert.NotContains(t, rec.types(), EventError)
}

func TestCoordinator_GatewayFailureLeavesStateUnchanged(t *testing.T) {
	c, g, _ := newTestCoordinator(t)
	ctx := context.Background()
	rec := &eventRecorder{}
	c.Subscribe(rec)

	require.NoError(t, c.PlayTrack(ctx, catalogTrack("a")))
	before := c.Snapshot()

	g.fetchErr = errors.New("timeout")
	err := c.PlayTrack(ctx, catalogTrack("b"))
	require.Error(t, err)

	after := c.Snapshot()
	assert.Equal(t, before.Current, after.Current)
	assert.Equal(t, before.Queue, after.Queue)
	assert.True(t, after.IsPlaying)

	last := rec.last()
	assert.Equal(t, EventError, last.Type)
	assert.Error(t, last.Err)
}

func TestCoordinator_EnsureFailure(t *testing.T) {
	c, g, _ := newTestCoordinator(t)
	g.ensureErr = errors.New("unauthorized")

	err := c.AddTrackOnly(context.Background(), catalogTrack("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ensure current playlist")
	assert.Empty(t, c.Snapshot().PlaylistID)
}

func TestCoordinator_PlayerRejection(t *testing.T) {
	c, _, p := newTestCoordinator(t)
	p.playErr = errors.New("unsupported format")

	err := c.PlayTrack(context.Background(), catalogTrack("a"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlayerRejected))

	s := c.Snapshot()
	assert.Equal(t, StateIdle, s.State)
	assert.Nil(t, s.Current)
	assert.Len(t, s.Queue, 1, "the queue entry stays on the server")
}

func TestCoordinator_SupersededPlayIsDiscarded(t *testing.T) {
	c, g, _ := newTestCoordinator(t)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	entered := make(chan struct{})
	release := make(chan struct{})
	g.appendHook = func(trackID string) {
		if trackID == "a" {
			close(entered)
			<-release
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- c.PlayTrack(ctx, catalogTrack("a"))
	}()
	<-entered

	require.NoError(t, c.PlayTrack(ctx, catalogTrack("b")))
	close(release)
	require.NoError(t, <-done, "a superseded command is a silent no-op")

	s := c.Snapshot()
	require.NotNil(t, s.Current)
	assert.Equal(t, "b", s.Current.TrackID)
	assert.ElementsMatch(t, []string{"a", "b"}, queueTrackIDs(s))
}

func TestCoordinator_AddTrackOnly(t *testing.T) {
	c, _, p := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.AddTrackOnly(ctx, catalogTrack("a")))

	s := c.Snapshot()
	assert.Equal(t, []string{"a"}, queueTrackIDs(s))
	// The head of a fresh queue is cued, not played.
	assert.Equal(t, StatePaused, s.State)
	assert.False(t, p.isPlaying())

	require.NoError(t, c.PlayTrack(ctx, catalogTrack("b")))
	require.NoError(t, c.AddTrackOnly(ctx, catalogTrack("c")))
	s = c.Snapshot()
	assert.Equal(t, "b", s.Current.TrackID)
	assert.True(t, s.IsPlaying)
}

func TestCoordinator_RemoveEntry(t *testing.T) {
	c, g, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.PlayAllTracks(ctx, []track.Track{catalogTrack("a"), catalogTrack("b")}))
	require.NoError(t, c.RemoveEntry(ctx, "e2"))

	s := c.Snapshot()
	assert.Equal(t, []string{"a"}, queueTrackIDs(s))
	assert.Equal(t, []string{"e2"}, g.removes)
	assert.Equal(t, "e1", s.Current.EntryID)
}

func TestCoordinator_RemoveCurrentEntryCuesHead(t *testing.T) {
	c, _, p := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.PlayAllTracks(ctx, []track.Track{catalogTrack("a"), catalogTrack("b")}))
	require.NoError(t, c.PlayNext())
	require.NoError(t, c.RemoveEntry(ctx, "e2"))

	s := c.Snapshot()
	assert.Equal(t, "e1", s.Current.EntryID)
	assert.Equal(t, StatePaused, s.State)
	assert.False(t, p.isPlaying())
}

func TestCoordinator_ClearQueue(t *testing.T) {
	c, g, p := newTestCoordinator(t)
	ctx := context.Background()
	rec := &eventRecorder{}
	c.Subscribe(rec)

	require.NoError(t, c.PlayAllTracks(ctx, []track.Track{catalogTrack("a"), catalogTrack("b")}))
	require.NoError(t, c.ClearQueue(ctx))

	s := c.Snapshot()
	assert.Equal(t, StateIdle, s.State)
	assert.Empty(t, s.Queue)
	assert.Empty(t, s.PlaylistID)
	assert.False(t, p.isPlaying())
	assert.Empty(t, g.queue)
	assert.Equal(t, EventCleared, rec.last().Type)
}

func TestCoordinator_ResetDiscardsInFlight(t *testing.T) {
	c, g, _ := newTestCoordinator(t)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	entered := make(chan struct{})
	release := make(chan struct{})
	g.appendHook = func(string) {
		close(entered)
		<-release
	}

	done := make(chan error, 1)
	go func() {
		done <- c.PlayTrack(ctx, catalogTrack("a"))
	}()
	<-entered

	c.Reset()
	close(release)
	require.NoError(t, <-done)

	s := c.Snapshot()
	assert.Equal(t, StateIdle, s.State)
	assert.Empty(t, s.Queue, "late responses do not resurrect a reset session")
}

func TestCoordinator_TransportRequiresTrack(t *testing.T) {
	c, _, _ := newTestCoordinator(t)

	assert.ErrorIs(t, c.TogglePlayPause(), ErrNoTrack)
	assert.ErrorIs(t, c.PlayPrev(), ErrNoTrack)
	assert.ErrorIs(t, c.Seek(time.Second), ErrNoTrack)
}

func TestCoordinator_SeekClamped(t *testing.T) {
	c, _, p := newTestCoordinator(t)

	require.NoError(t, c.PlayTrack(context.Background(), catalogTrack("a")))
	require.NoError(t, c.Seek(10*time.Minute))
	assert.Equal(t, 3*time.Minute, p.Position())

	s := c.Snapshot()
	assert.Equal(t, 3*time.Minute, s.Elapsed)
	assert.Equal(t, 3*time.Minute, s.Duration)
}

func TestCoordinator_SetVolume(t *testing.T) {
	c, _, p := newTestCoordinator(t)
	rec := &eventRecorder{}
	c.Subscribe(rec)

	c.SetVolume(1.7)
	assert.Equal(t, 1.0, p.volume)
	assert.Equal(t, 1.0, c.Snapshot().Volume)

	c.SetVolume(0.25)
	assert.Equal(t, 0.25, p.volume)
	assert.Equal(t, EventVolumeChanged, rec.last().Type)
}

func TestCoordinator_LoadCuesHead(t *testing.T) {
	c, g, p := newTestCoordinator(t)
	g.queue = []track.Track{
		{TrackID: "a", EntryID: "s1", TrackFile: "https://cdn.example.com/a.mp3"},
		{TrackID: "b", EntryID: "s2", TrackFile: "https://cdn.example.com/b.mp3"},
	}

	require.NoError(t, c.Load(context.Background()))

	s := c.Snapshot()
	assert.Equal(t, "pl-1", s.PlaylistID)
	assert.Equal(t, "s1", s.Current.EntryID)
	assert.Equal(t, StatePaused, s.State)
	assert.Equal(t, "s1", p.loaded.ID)
	assert.False(t, p.isPlaying())
}

func TestCoordinator_Unsubscribe(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	rec := &eventRecorder{}
	id := c.Subscribe(rec)

	c.SetVolume(0.5)
	c.Unsubscribe(id)
	c.SetVolume(0.6)

	assert.Len(t, rec.types(), 1)
}

func TestCoordinator_ClosedRejectsCommands(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	c.Close()

	assert.ErrorIs(t, c.PlayTrack(context.Background(), catalogTrack("a")), ErrClosed)
	assert.ErrorIs(t, c.Load(context.Background()), ErrClosed)
}
