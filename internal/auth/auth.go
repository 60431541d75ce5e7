// file: internal/auth/auth.go
// version: 1.1.0
// guid: 4791b2a7-0772-4d65-af02-30de04cbd5d9

// Package auth implements login, registration and logout for the single
// current session kept in the store.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jdfalk/cliqbook/internal/apperrors"
	"github.com/jdfalk/cliqbook/internal/catalog"
	"github.com/jdfalk/cliqbook/internal/database"
	"github.com/jdfalk/cliqbook/internal/metrics"
	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/jdfalk/cliqbook/internal/operations"
	ulid "github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL applies when the configured TTL is zero.
const DefaultSessionTTL = 24 * time.Hour

// SessionNotifier is told about logins, registrations and logouts.
type SessionNotifier interface {
	SessionChanged(action, userID string)
}

type nopSessionNotifier struct{}

func (nopSessionNotifier) SessionChanged(string, string) {}

// Options configures a Service.
type Options struct {
	Store    database.Store
	Users    *catalog.Users
	Log      zerolog.Logger
	Notifier SessionNotifier
	TTL      time.Duration
	Now      func() time.Time
}

// Service owns the persisted current-session record.
type Service struct {
	store    database.Store
	users    *catalog.Users
	log      zerolog.Logger
	notifier SessionNotifier
	ttl      time.Duration
	now      func() time.Time
	queue    *operations.Queue

	mu      sync.RWMutex
	current *models.Session
}

// New creates the service and restores any persisted session.
func New(opts Options) *Service {
	if opts.Notifier == nil {
		opts.Notifier = nopSessionNotifier{}
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Log.With().Str("service", "auth").Logger()
	s := &Service{
		store:    opts.Store,
		users:    opts.Users,
		log:      log,
		notifier: opts.Notifier,
		ttl:      opts.TTL,
		now:      opts.Now,
		queue:    operations.NewQueue("session", log),
	}
	s.restore()
	return s
}

func (s *Service) restore() {
	var session models.Session
	found, err := database.GetJSON(s.store, database.KeySession, &session)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read persisted session, starting signed out")
		return
	}
	if !found || session.Token == "" {
		return
	}
	s.current = &session
}

// TTL is how long a session stays valid after login.
func (s *Service) TTL() time.Duration { return s.ttl }

// Login checks the credentials and makes the account the current session.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.Session{}, apperrors.Invalid("email", "email and password are required")
	}

	user, err := s.users.Credentials(email)
	if errors.Is(err, apperrors.ErrNotFound) {
		metrics.IncLogin("invalid")
		return models.Session{}, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return models.Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.IncLogin("invalid")
		s.log.Info().Str("user", user.ID).Msg("login rejected")
		return models.Session{}, apperrors.ErrInvalidCredentials
	}

	session, err := s.begin(ctx, user)
	if err != nil {
		return models.Session{}, err
	}
	metrics.IncLogin("success")
	s.notifier.SessionChanged("login", user.ID)
	s.log.Info().Str("user", user.ID).Msg("user logged in")
	return session, nil
}

// Register creates a free, non-admin account and logs it in. A taken email
// is ErrConflict and leaves the store unchanged.
func (s *Service) Register(ctx context.Context, in catalog.NewUser) (models.Session, error) {
	if in.Password == "" {
		return models.Session{}, apperrors.Invalid("password", "is required")
	}
	in.Membership = models.MembershipFree
	in.IsAdmin = false

	created, err := s.users.Create(ctx, in)
	if err != nil {
		return models.Session{}, err
	}
	session, err := s.begin(ctx, created)
	if err != nil {
		return models.Session{}, err
	}
	s.notifier.SessionChanged("register", created.ID)
	return session, nil
}

// Logout always succeeds, but only clears the session record when token
// belongs to it. A stale or missing token leaves the signed-in account alone.
func (s *Service) Logout(ctx context.Context, token string) error {
	var userID string
	err := s.queue.Submit(ctx, "session.logout", func(ctx context.Context) error {
		s.mu.RLock()
		owned := s.current != nil && token != "" &&
			subtle.ConstantTimeCompare([]byte(s.current.Token), []byte(token)) == 1
		s.mu.RUnlock()
		if !owned {
			return nil
		}
		if err := s.store.Remove(database.KeySession); err != nil {
			return err
		}
		s.mu.Lock()
		userID = s.current.ID
		s.current = nil
		s.mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}
	if userID == "" {
		s.log.Debug().Msg("logout without the current session token, nothing cleared")
		return nil
	}
	s.notifier.SessionChanged("logout", userID)
	s.log.Info().Str("user", userID).Msg("user logged out")
	return nil
}

func (s *Service) begin(ctx context.Context, user models.User) (models.Session, error) {
	session := models.Session{
		User:      user.Public(),
		Token:     ulid.Make().String(),
		StartedAt: s.now().UTC(),
	}
	if err := s.save(ctx, session); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (s *Service) save(ctx context.Context, session models.Session) error {
	return s.queue.Submit(ctx, "session.save", func(ctx context.Context) error {
		if err := database.SetJSON(s.store, database.KeySession, session); err != nil {
			return err
		}
		s.mu.Lock()
		s.current = &session
		s.mu.Unlock()
		return nil
	})
}

// Current returns the persisted session, or ErrUnauthenticated.
func (s *Service) Current() (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.Session{}, apperrors.ErrUnauthenticated
	}
	out := *s.current
	out.User = s.current.User.Clone()
	return out, nil
}

// Authenticate resolves a request token to the live user record. Expired
// sessions and sessions whose user was deleted are cleared.
func (s *Service) Authenticate(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, apperrors.ErrUnauthenticated
	}
	session, err := s.Current()
	if err != nil {
		return models.User{}, err
	}
	if subtle.ConstantTimeCompare([]byte(session.Token), []byte(token)) != 1 {
		return models.User{}, fmt.Errorf("unknown session token: %w", apperrors.ErrUnauthenticated)
	}
	if s.now().After(session.StartedAt.Add(s.ttl)) {
		s.expire(ctx, token, "session expired")
		return models.User{}, fmt.Errorf("session expired: %w", apperrors.ErrUnauthenticated)
	}

	user, err := s.users.Find(session.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		s.expire(ctx, token, "session user no longer exists")
		return models.User{}, fmt.Errorf("session user is gone: %w", apperrors.ErrUnauthenticated)
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *Service) expire(ctx context.Context, token, reason string) {
	s.log.Info().Str("reason", reason).Msg("clearing session")
	if err := s.Logout(ctx, token); err != nil {
		s.log.Error().Err(err).Msg("failed to clear session")
	}
}

// Refresh copies user into the session record when it is the signed-in
// account, so the stored session keeps bookmarks and membership current.
// The check and the write share one queue job, so a concurrent logout
// cannot be undone.
func (s *Service) Refresh(ctx context.Context, user models.User) error {
	return s.queue.Submit(ctx, "session.refresh", func(ctx context.Context) error {
		s.mu.RLock()
		if s.current == nil || s.current.ID != user.ID {
			s.mu.RUnlock()
			return nil
		}
		next := *s.current
		s.mu.RUnlock()

		next.User = user.Public()
		if err := database.SetJSON(s.store, database.KeySession, next); err != nil {
			return err
		}
		s.mu.Lock()
		s.current = &next
		s.mu.Unlock()
		return nil
	})
}

// Close stops the session queue.
func (s *Service) Close(timeout time.Duration) error {
	return s.queue.Shutdown(timeout)
}
