package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/osa030/19player/internal/app/notification"
	"github.com/osa030/19player/internal/domain/user"
)

var ErrNotLoggedIn = errors.New("not logged in")

// DefaultListenerTimeout bounds how long a transition waits on one listener.
const DefaultListenerTimeout = 30 * time.Second

// Authenticator talks to the backend auth endpoints.
type Authenticator interface {
	Login(ctx context.Context, memberID, password string) (*oauth2.Token, error)
	Me(ctx context.Context) (*user.Profile, error)
}

// TokenStore persists tokens between runs.
type TokenStore interface {
	HasToken() bool
	Save(tok *oauth2.Token) error
	DropAccessToken() error
	Clear() error
}

// Store holds the authentication status and the member profile. It is the
// source of truth every view reads.
type Store struct {
	mu sync.RWMutex

	auth   Authenticator
	tokens TokenStore

	authenticated bool
	profile       *user.Profile

	transitions *notification.Manager[Transition]
}

// NewStore creates a new session store.
func NewStore(auth Authenticator, tokens TokenStore) *Store {
	transitions := notification.NewManager[Transition]()
	transitions.SetSendTimeout(DefaultListenerTimeout)
	return &Store{
		auth:        auth,
		tokens:      tokens,
		transitions: transitions,
	}
}

// Init restores the session from a stored token, if any.
func (s *Store) Init(ctx context.Context) error {
	if !s.tokens.HasToken() {
		zlog.Debug().Msg("session: no stored token")
		return nil
	}
	return s.Refresh(ctx)
}

// Login exchanges credentials for tokens, persists them and loads the profile.
func (s *Store) Login(ctx context.Context, memberID, password string) error {
	tok, err := s.auth.Login(ctx, memberID, password)
	if err != nil {
		return err
	}
	if err := s.tokens.Save(tok); err != nil {
		return errors.Wrap(err, "failed to persist tokens")
	}
	zlog.Info().Msgf("session: logged in as %s", memberID)
	return s.Refresh(ctx)
}

// Refresh re-reads the profile. A rejected token is dropped and the session
// ends.
func (s *Store) Refresh(ctx context.Context) error {
	if !s.tokens.HasToken() {
		s.setLoggedOut()
		return ErrNotLoggedIn
	}

	profile, err := s.auth.Me(ctx)
	if err != nil {
		if dropErr := s.tokens.DropAccessToken(); dropErr != nil {
			zlog.Warn().Msgf("session: failed to drop access token: %v", dropErr)
		}
		s.setLoggedOut()
		return errors.Wrap(err, "failed to fetch profile")
	}

	s.mu.Lock()
	was := s.authenticated
	s.authenticated = true
	s.profile = profile
	s.mu.Unlock()

	if !was {
		s.transitions.Broadcast(LoggedIn)
	}
	return nil
}

// Logout removes the tokens and ends the session.
func (s *Store) Logout() error {
	err := s.tokens.Clear()
	s.setLoggedOut()
	if err != nil {
		return errors.Wrap(err, "failed to clear tokens")
	}
	zlog.Info().Msg("session: logged out")
	return nil
}

func (s *Store) setLoggedOut() {
	s.mu.Lock()
	was := s.authenticated
	s.authenticated = false
	s.profile = nil
	s.mu.Unlock()

	if was {
		s.transitions.Broadcast(LoggedOut)
	}
}

// IsAuthenticated reports whether a profile was fetched with a valid token.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Profile returns a copy of the member profile, or nil when logged out.
func (s *Store) Profile() *user.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// IsArtist reports whether the logged-in member is an artist.
func (s *Store) IsArtist() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.CanUpload()
}

// Subscribe registers fn for authentication transitions.
func (s *Store) Subscribe(fn func(Transition)) string {
	return s.transitions.Subscribe(notification.StreamFunc[Transition](func(n notification.Notification[Transition]) error {
		fn(n.Payload)
		return nil
	}))
}

// Unsubscribe removes a listener.
func (s *Store) Unsubscribe(id string) {
	s.transitions.Unsubscribe(id)
}

// Close removes all listeners.
func (s *Store) Close() {
	s.transitions.Close()
}
