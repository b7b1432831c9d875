// Package audio provides playback resources for the coordinator.
package audio

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/app/playback"
)

// Errors
var (
	ErrNoSource          = errors.New("no source loaded")
	ErrUnsupportedSource = errors.New("unsupported source")
	ErrClosed            = errors.New("player closed")
)

const defaultTick = 100 * time.Millisecond

// Option configures a ClockPlayer.
type Option func(*ClockPlayer)

// WithTick sets how often the end-of-track timer checks the wall clock.
func WithTick(d time.Duration) Option {
	return func(p *ClockPlayer) {
		if d > 0 {
			p.tick = d
		}
	}
}

// WithFallbackDuration sets the length assumed for sources of unknown
// duration. Zero means such sources play until paused or replaced.
func WithFallbackDuration(d time.Duration) Option {
	return func(p *ClockPlayer) {
		p.fallbackDuration = d
	}
}

// ClockPlayer is a headless player. It does not decode audio; it tracks the
// playback position on the wall clock and reports the natural end of a
// source when the position reaches its duration.
type ClockPlayer struct {
	mu sync.Mutex

	src      playback.Source
	loaded   bool
	playing  bool
	duration time.Duration

	// Position is base while paused, base + elapsed since startTime while playing.
	base      time.Duration
	startTime time.Time

	volume  float64
	onEnded func(sourceID string)

	timerCancel func()
	timerSeq    uint64
	closed      bool

	tick             time.Duration
	fallbackDuration time.Duration
}

var _ playback.Player = (*ClockPlayer)(nil)

// NewClockPlayer creates a new headless player.
func NewClockPlayer(opts ...Option) *ClockPlayer {
	p := &ClockPlayer{
		volume: 1,
		tick:   defaultTick,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load replaces the current source. Position resets to zero, paused.
func (p *ClockPlayer) Load(src playback.Source) error {
	if err := validateSource(src); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	p.stopTimerLocked()
	p.src = src
	p.loaded = true
	p.playing = false
	p.base = 0
	p.duration = src.Duration
	if p.duration <= 0 {
		p.duration = p.fallbackDuration
	}

	zlog.Debug().Msgf("audio: loaded source: id=%s duration=%v", src.ID, p.duration)
	return nil
}

// Play starts or resumes the loaded source.
func (p *ClockPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if !p.loaded {
		return ErrNoSource
	}
	if p.playing {
		return nil
	}

	p.playing = true
	p.startTime = toWallTime(time.Now())
	p.startTimerLocked()
	return nil
}

// Pause freezes the position.
func (p *ClockPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return
	}
	p.base = p.positionLocked()
	p.playing = false
	p.stopTimerLocked()
}

// Seek moves the position, clamped to the source duration.
func (p *ClockPlayer) Seek(position time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if position < 0 {
		position = 0
	}
	if p.duration > 0 && position > p.duration {
		position = p.duration
	}
	p.base = position
	if p.playing {
		p.startTime = toWallTime(time.Now())
		p.startTimerLocked()
	}
}

// Position returns the current playback position.
func (p *ClockPlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

// Duration returns the length of the loaded source, or zero if unknown.
func (p *ClockPlayer) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// SetVolume sets the volume in [0,1].
func (p *ClockPlayer) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
}

// Volume returns the current volume.
func (p *ClockPlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// IsPlaying reports whether the position is advancing.
func (p *ClockPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// OnEnded registers the natural-end callback.
func (p *ClockPlayer) OnEnded(fn func(sourceID string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEnded = fn
}

// Close stops the timer. Further Load and Play calls fail.
func (p *ClockPlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTimerLocked()
	p.playing = false
	p.closed = true
}

// positionLocked must be called with lock held.
func (p *ClockPlayer) positionLocked() time.Duration {
	pos := p.base
	if p.playing {
		pos += toWallTime(time.Now()).Sub(p.startTime)
	}
	if p.duration > 0 && pos > p.duration {
		pos = p.duration
	}
	return pos
}

// startTimerLocked arms the end-of-source timer for the remaining duration.
// Must be called with lock held.
func (p *ClockPlayer) startTimerLocked() {
	p.stopTimerLocked()
	if p.duration <= 0 {
		return
	}

	p.timerSeq++
	seq := p.timerSeq
	remaining := p.duration - p.base
	p.timerCancel = p.startWallClockTimer(remaining, func() {
		p.onTimer(seq)
	})
}

// stopTimerLocked must be called with lock held.
func (p *ClockPlayer) stopTimerLocked() {
	if p.timerCancel != nil {
		p.timerCancel()
		p.timerCancel = nil
	}
}

// onTimer fires the ended callback, unless the timer was superseded.
func (p *ClockPlayer) onTimer(seq uint64) {
	p.mu.Lock()
	if seq != p.timerSeq || !p.playing {
		p.mu.Unlock()
		return
	}
	p.base = p.duration
	p.playing = false
	p.timerCancel = nil
	id, fn := p.src.ID, p.onEnded
	p.mu.Unlock()

	zlog.Debug().Msgf("audio: source ended: id=%s", id)
	if fn != nil {
		fn(id)
	}
}

// startWallClockTimer starts a timer that triggers callback after duration,
// using wall clock. Returns a cancel function.
func (p *ClockPlayer) startWallClockTimer(duration time.Duration, callback func()) func() {
	ctx, cancel := context.WithCancel(context.Background())
	tick := p.tick

	go func() {
		endTime := toWallTime(time.Now()).Add(duration)
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !toWallTime(time.Now()).Before(endTime) {
					callback()
					return
				}
			}
		}
	}()

	return cancel
}

func validateSource(src playback.Source) error {
	if src.ID == "" {
		return errors.Wrap(ErrUnsupportedSource, "source has no id")
	}
	u, err := url.Parse(src.URL)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "invalid source url %q", src.URL), ErrUnsupportedSource)
	}
	switch u.Scheme {
	case "http", "https", "file":
		return nil
	default:
		return errors.Wrapf(ErrUnsupportedSource, "scheme %q", u.Scheme)
	}
}

// toWallTime returns the time with monotonic clock stripped.
func toWallTime(t time.Time) time.Time {
	return time.Unix(t.Unix(), int64(t.Nanosecond()))
}
