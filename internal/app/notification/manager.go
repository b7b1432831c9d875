// Package notification provides the notification manager for broadcasting events.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// DefaultSendTimeout bounds how long Broadcast waits on one subscriber.
const DefaultSendTimeout = 500 * time.Millisecond

// Notification wraps a payload with its broadcast sequence number.
type Notification[T any] struct {
	SequenceNo uint64
	Payload    T
}

// Stream represents a notification stream for a subscriber.
type Stream[T any] interface {
	Send(Notification[T]) error
}

// StreamFunc adapts a function to a Stream.
type StreamFunc[T any] func(Notification[T]) error

// Send calls f(n).
func (f StreamFunc[T]) Send(n Notification[T]) error {
	return f(n)
}

// subscription represents a subscriber's subscription.
type subscription[T any] struct {
	id     string
	stream Stream[T]
}

// Manager manages notification subscriptions and broadcasting.
type Manager[T any] struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription[T]
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
	sendTimeout   time.Duration
}

// NewManager creates a new notification manager.
func NewManager[T any]() *Manager[T] {
	return &Manager[T]{
		subscriptions: make(map[string]*subscription[T]),
		sendTimeout:   DefaultSendTimeout,
	}
}

// SetSendTimeout overrides the per-subscriber send timeout.
func (m *Manager[T]) SetSendTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendTimeout = d
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager[T]) Subscribe(stream Stream[T]) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription[T]{
		id:     id,
		stream: stream,
	}
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager[T]) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// Broadcast sends a payload to all subscribers and returns the sequence
// number it was assigned. Each send runs in its own goroutine with a timeout
// so that one slow subscriber cannot block the others.
func (m *Manager[T]) Broadcast(payload T) uint64 {
	m.sequenceNoMu.Lock()
	m.sequenceNo++
	n := Notification[T]{SequenceNo: m.sequenceNo, Payload: payload}
	m.sequenceNoMu.Unlock()

	m.mu.RLock()
	// Copy subscriptions to avoid holding lock during sends
	subs := make([]*subscription[T], 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	timeout := m.sendTimeout
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription[T]) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(n)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Msgf("notification: send failed: subscription=%s seq=%d error=%v", s.id, n.SequenceNo, err)
				}
			case <-ctx.Done():
				zlog.Debug().Msgf("notification: send timed out: subscription=%s seq=%d", s.id, n.SequenceNo)
			}
		}(sub)
	}

	wg.Wait()
	return n.SequenceNo
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager[T]) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription[T])
}
