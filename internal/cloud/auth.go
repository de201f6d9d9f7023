package cloud

import (
	"context"
	"errors"
	"net/http"
)

var ErrNoToken = errors.New("backend returned no token")

type AuthService interface {
	Login(ctx context.Context, creds Credentials) (string, error)
	Register(ctx context.Context, creds Credentials) (string, error)
	ExchangeGoogleCode(ctx context.Context, code string) (string, error)
	Me(ctx context.Context, token string) (*UserProfile, error)
	Logout(ctx context.Context, token string) error
}

type HTTPAuthService struct {
	client *HTTPClient
}

func (s *HTTPAuthService) Login(ctx context.Context, creds Credentials) (string, error) {
	return s.tokenRequest(ctx, "/auth/login", creds)
}

func (s *HTTPAuthService) Register(ctx context.Context, creds Credentials) (string, error) {
	return s.tokenRequest(ctx, "/auth/register", creds)
}

func (s *HTTPAuthService) ExchangeGoogleCode(ctx context.Context, code string) (string, error) {
	return s.tokenRequest(ctx, "/auth/google/token", map[string]string{"code": code})
}

func (s *HTTPAuthService) tokenRequest(ctx context.Context, path string, body interface{}) (string, error) {
	var resp TokenResponse
	if err := s.client.doJSON(ctx, http.MethodPost, path, "", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", ErrNoToken
	}
	return resp.Token, nil
}

func (s *HTTPAuthService) Me(ctx context.Context, token string) (*UserProfile, error) {
	var profile UserProfile
	if err := s.client.doJSON(ctx, http.MethodGet, "/auth/me", token, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *HTTPAuthService) Logout(ctx context.Context, token string) error {
	return s.client.doJSON(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}
