package session

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// loadTimeout bounds the initial queue load after login.
const loadTimeout = 30 * time.Second

// Coordinator is the playback side of a session.
type Coordinator interface {
	Load(ctx context.Context) error
	Reset()
}

// BindCoordinator loads the queue on login and resets playback on logout.
// It returns the subscription ID.
func BindCoordinator(s *Store, c Coordinator) string {
	return s.Subscribe(func(t Transition) {
		switch t {
		case LoggedIn:
			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()
			if err := c.Load(ctx); err != nil {
				zlog.Warn().Msgf("session: failed to load queue after login: %v", err)
			}
		case LoggedOut:
			c.Reset()
		}
	})
}
