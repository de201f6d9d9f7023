package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reelcut/reelcut-agent/internal/cloud"
	"github.com/reelcut/reelcut-agent/internal/session"
)

// fakeAuth accepts "secret" as the only password and exchanges the code
// "good" for a token.
type fakeAuth struct {
	meErr error
}

func (f *fakeAuth) Login(_ context.Context, creds cloud.Credentials) (string, error) {
	if creds.Password != "secret" {
		return "", &cloud.APIError{StatusCode: 401, Detail: "Incorrect email or password"}
	}
	return "user-token", nil
}

func (f *fakeAuth) Register(ctx context.Context, creds cloud.Credentials) (string, error) {
	return f.Login(ctx, creds)
}

func (f *fakeAuth) ExchangeGoogleCode(_ context.Context, code string) (string, error) {
	if code != "good" {
		return "", &cloud.APIError{StatusCode: 400, Detail: "invalid_grant"}
	}
	return "google-token", nil
}

func (f *fakeAuth) Me(_ context.Context, token string) (*cloud.UserProfile, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return &cloud.UserProfile{ID: "u1", Email: "ada@example.com", AvatarURL: "https://img.example.com/ada.png"}, nil
}

func (f *fakeAuth) Logout(context.Context, string) error { return nil }

func serve(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func TestOAuthCallback(t *testing.T) {
	env := newTestEnvWithAuth(t, &fakeAuth{})

	tests := []struct {
		name     string
		query    string
		location string
	}{
		{"no code", "", "http://localhost:5173/login"},
		{"provider error", "?error=access_denied", "http://localhost:5173/login?error=auth_failed"},
		{"exchange fails", "?code=bad", "http://localhost:5173/login?error=auth_failed"},
		{"exchange succeeds", "?code=good", "/auth/success?token=google-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(env, httptest.NewRequest(http.MethodGet, "/auth/callback"+tt.query, nil))
			if rr.Code != http.StatusFound {
				t.Fatalf("status = %d, want %d", rr.Code, http.StatusFound)
			}
			if got := rr.Header().Get("Location"); got != tt.location {
				t.Errorf("Location = %q, want %q", got, tt.location)
			}
		})
	}
}

func TestOAuthSuccess_StoresToken(t *testing.T) {
	env := newTestEnvWithAuth(t, &fakeAuth{})

	rr := serve(env, httptest.NewRequest(http.MethodGet, "/auth/success?token=google-token", nil))
	if got := rr.Header().Get("Location"); got != "http://localhost:5173/dashboard" {
		t.Fatalf("Location = %q, want dashboard", got)
	}

	token, err := env.store.GetConfig(context.Background(), session.KeyAuthToken)
	if err != nil || token != "google-token" {
		t.Errorf("stored token = %q, %v", token, err)
	}
}

func TestOAuthSuccess_MissingToken(t *testing.T) {
	env := newTestEnvWithAuth(t, &fakeAuth{})

	rr := serve(env, httptest.NewRequest(http.MethodGet, "/auth/success", nil))
	if got := rr.Header().Get("Location"); got != "http://localhost:5173/login" {
		t.Errorf("Location = %q, want login", got)
	}
}

func TestLoginHandler(t *testing.T) {
	env := newTestEnvWithAuth(t, &fakeAuth{})

	rr := env.do(t, http.MethodPost, "/auth/login", CredentialsRequest{Email: "ada@example.com", Password: "secret"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	body := decodeJSONBody(t, rr)
	user, ok := body["user"].(map[string]interface{})
	if !ok || user["email"] != "ada@example.com" || user["picture"] != "https://img.example.com/ada.png" {
		t.Errorf("user = %v", body["user"])
	}

	pic, _ := env.store.GetConfig(context.Background(), session.KeyProfilePicture)
	if pic != "https://img.example.com/ada.png" {
		t.Errorf("cached picture = %q", pic)
	}
}

func TestLoginHandler_Rejected(t *testing.T) {
	env := newTestEnvWithAuth(t, &fakeAuth{})

	rr := env.do(t, http.MethodPost, "/auth/login", CredentialsRequest{Email: "ada@example.com", Password: "wrong"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if body := decodeJSONBody(t, rr); body["error"] != "Incorrect email or password" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestLoginHandler_MissingFields(t *testing.T) {
	env := newTestEnvWithAuth(t, &fakeAuth{})

	rr := env.do(t, http.MethodPost, "/auth/register", CredentialsRequest{Email: "  "})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestMeHandler_RejectedTokenClearsSession(t *testing.T) {
	auth := &fakeAuth{meErr: &cloud.APIError{StatusCode: 401}}
	env := newTestEnvWithAuth(t, auth)
	ctx := context.Background()
	env.store.SetConfig(ctx, session.KeyAuthToken, "stale")
	env.store.SetConfig(ctx, session.KeyProfilePicture, "https://img.example.com/old.png")

	rr := env.do(t, http.MethodGet, "/auth/me", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if tok, _ := env.store.GetConfig(ctx, session.KeyAuthToken); tok != "" {
		t.Errorf("token not cleared: %q", tok)
	}
	if pic, _ := env.store.GetConfig(ctx, session.KeyProfilePicture); pic != "" {
		t.Errorf("picture not cleared: %q", pic)
	}
}

func TestMeHandler_NotLoggedIn(t *testing.T) {
	env := newTestEnvWithAuth(t, &fakeAuth{})

	rr := env.do(t, http.MethodGet, "/auth/me", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if body := decodeJSONBody(t, rr); body["code"] != "NOT_AUTHENTICATED" {
		t.Errorf("code = %v", body["code"])
	}
}

func TestLogoutHandler(t *testing.T) {
	env := newTestEnvWithAuth(t, &fakeAuth{})
	ctx := context.Background()
	env.store.SetConfig(ctx, session.KeyAuthToken, "user-token")

	rr := env.do(t, http.MethodPost, "/auth/logout", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if _, err := env.cfg.Session.Token(ctx); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Errorf("Token() error = %v, want ErrNotAuthenticated", err)
	}
}
