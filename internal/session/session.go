// Package session holds the signed-in backend session: the bearer token and
// the cached profile picture, persisted in a key/value store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/reelcut/reelcut-agent/internal/cloud"
)

const (
	KeyAuthToken      = "auth_token"
	KeyProfilePicture = "user_profile_picture"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Store is the persisted key/value state. GetConfig returns "" for a missing
// key. library.SQLiteRepository satisfies it.
type Store interface {
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
	DeleteConfig(ctx context.Context, key string) error
}

type Session struct {
	store  Store
	auth   cloud.AuthService
	logger *slog.Logger
	now    func() time.Time
}

func New(store Store, auth cloud.AuthService, logger *slog.Logger) *Session {
	return &Session{store: store, auth: auth, logger: logger, now: time.Now}
}

// Token returns the stored bearer token. A token whose exp claim has passed
// is cleared and reported as ErrNotAuthenticated. Tokens that are not JWTs
// are passed through; the backend decides.
func (s *Session) Token(ctx context.Context) (string, error) {
	token, err := s.store.GetConfig(ctx, KeyAuthToken)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if token == "" {
		return "", ErrNotAuthenticated
	}
	if s.expired(token) {
		s.logger.Info("stored token expired, clearing session")
		s.clear(ctx)
		return "", ErrNotAuthenticated
	}
	return token, nil
}

func (s *Session) expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(s.now())
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	token, err := s.auth.Login(ctx, cloud.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	return s.StoreToken(ctx, token)
}

func (s *Session) Register(ctx context.Context, email, password string) error {
	token, err := s.auth.Register(ctx, cloud.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	return s.StoreToken(ctx, token)
}

// CompleteOAuth exchanges an authorization code and returns the issued token
// without storing it; the success redirect stores it.
func (s *Session) CompleteOAuth(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", errors.New("missing authorization code")
	}
	return s.auth.ExchangeGoogleCode(ctx, code)
}

func (s *Session) StoreToken(ctx context.Context, token string) error {
	if token == "" {
		return cloud.ErrNoToken
	}
	if err := s.store.SetConfig(ctx, KeyAuthToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// CurrentUser fetches the profile for the stored token and caches its
// picture. Any failure clears the session.
func (s *Session) CurrentUser(ctx context.Context) (*cloud.UserProfile, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.auth.Me(ctx, token)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.logger.Warn("profile lookup failed, clearing session", "error", err)
		s.clear(ctx)
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	if pic := profile.Picture(); pic != "" {
		if err := s.store.SetConfig(ctx, KeyProfilePicture, pic); err != nil {
			s.logger.Warn("failed to cache profile picture", "error", err)
		}
	}
	return profile, nil
}

// ProfilePicture returns the cached picture URL, if any.
func (s *Session) ProfilePicture(ctx context.Context) string {
	pic, _ := s.store.GetConfig(ctx, KeyProfilePicture)
	return pic
}

// Logout notifies the backend when a token is present and always clears
// local state.
func (s *Session) Logout(ctx context.Context) error {
	token, _ := s.store.GetConfig(ctx, KeyAuthToken)
	if token != "" {
		if err := s.auth.Logout(ctx, token); err != nil {
			s.logger.Warn("backend logout failed", "error", err)
		}
	}
	return s.clear(ctx)
}

func (s *Session) clear(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyAuthToken, KeyProfilePicture} {
		if err := s.store.DeleteConfig(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemoryStore is a Store for tests and one-shot CLI runs.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) GetConfig(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *MemoryStore) SetConfig(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) DeleteConfig(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
