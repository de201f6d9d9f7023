package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const (
	loginPath        = "/login"
	loginFailedPath  = "/login?error=auth_failed"
	dashboardPath    = "/dashboard"
	oauthSuccessPath = "/auth/success"
)

// oauthCallbackHandler receives the provider redirect, exchanges the code
// with the backend and forwards the token to the success route.
func oauthCallbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("error") != "" {
			cfg.Logger.Warn("oauth provider returned an error", "error", q.Get("error"))
			redirectUI(w, r, cfg, loginFailedPath)
			return
		}

		code := q.Get("code")
		if code == "" {
			redirectUI(w, r, cfg, loginPath)
			return
		}

		token, err := cfg.Session.CompleteOAuth(r.Context(), code)
		if err != nil {
			cfg.Logger.Error("oauth code exchange failed", "error", err)
			redirectUI(w, r, cfg, loginFailedPath)
			return
		}

		http.Redirect(w, r, oauthSuccessPath+"?token="+url.QueryEscape(token), http.StatusFound)
	}
}

func oauthSuccessHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			redirectUI(w, r, cfg, loginPath)
			return
		}
		if err := cfg.Session.StoreToken(r.Context(), token); err != nil {
			cfg.Logger.Error("failed to store oauth token", "error", err)
			redirectUI(w, r, cfg, loginFailedPath)
			return
		}
		redirectUI(w, r, cfg, dashboardPath)
	}
}

func redirectUI(w http.ResponseWriter, r *http.Request, cfg ServerConfig, path string) {
	http.Redirect(w, r, strings.TrimRight(cfg.UIBaseURL, "/")+path, http.StatusFound)
}

func loginHandler(cfg ServerConfig) http.HandlerFunc {
	return credentialsHandler(cfg, cfg.Session.Login)
}

func registerHandler(cfg ServerConfig) http.HandlerFunc {
	return credentialsHandler(cfg, cfg.Session.Register)
}

func credentialsHandler(cfg ServerConfig, authenticate func(ctx context.Context, email, password string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || req.Password == "" {
			WriteError(w, http.StatusBadRequest, "email and password are required", "BAD_REQUEST")
			return
		}

		if err := authenticate(r.Context(), req.Email, req.Password); err != nil {
			cfg.Logger.Warn("authentication failed", "error", err)
			writeDomainError(w, err)
			return
		}

		resp := AuthResponse{Authenticated: true}
		if profile, err := cfg.Session.CurrentUser(r.Context()); err == nil {
			resp.User = &UserResponse{UserProfile: profile, Picture: profile.Picture()}
		} else {
			cfg.Logger.Warn("profile lookup after login failed", "error", err)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func logoutHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Session.Logout(r.Context()); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to clear session", "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func meHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := cfg.Session.CurrentUser(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, AuthResponse{
			Authenticated: true,
			User:          &UserResponse{UserProfile: profile, Picture: cfg.Session.ProfilePicture(r.Context())},
		})
	}
}
