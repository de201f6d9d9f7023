package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/reelcut/reelcut-agent/internal/youtube"
)

type MusicResponse struct {
	Theme  string               `json:"theme"`
	Tracks []youtube.MusicTrack `json:"tracks"`
}

// musicHandler suggests background music for a theme: GET /music?theme=upbeat&limit=5.
func musicHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Music == nil {
			WriteError(w, http.StatusServiceUnavailable, youtube.ErrMusicUnavailable.Error(), "UNAVAILABLE")
			return
		}

		theme := r.URL.Query().Get("theme")
		limit := youtube.DefaultMusicResults
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = n
		}

		tracks, err := cfg.Music.SearchMusic(r.Context(), theme, limit)
		switch {
		case errors.Is(err, youtube.ErrEmptyTheme):
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		case errors.Is(err, youtube.ErrMusicUnavailable):
			WriteError(w, http.StatusServiceUnavailable, err.Error(), "UNAVAILABLE")
			return
		case err != nil:
			cfg.Logger.Warn("music search failed", "theme", theme, "error", err)
			WriteError(w, http.StatusBadGateway, "music search failed", "UPSTREAM_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, MusicResponse{Theme: theme, Tracks: tracks})
	}
}
