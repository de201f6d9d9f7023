package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelcut/reelcut-agent/internal/cloud"
	"github.com/reelcut/reelcut-agent/internal/export"
	"github.com/reelcut/reelcut-agent/internal/library"
	"github.com/reelcut/reelcut-agent/internal/playback"
	"github.com/reelcut/reelcut-agent/internal/session"
	"github.com/reelcut/reelcut-agent/internal/shorts"
	"github.com/reelcut/reelcut-agent/internal/upload"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORS(cfg.AllowedOrigins))

	r.Get("/health", healthHandler(cfg))

	r.Route("/auth", func(r chi.Router) {
		r.Get("/callback", oauthCallbackHandler(cfg))
		r.Get("/success", oauthSuccessHandler(cfg))
		r.Post("/login", loginHandler(cfg))
		r.Post("/register", registerHandler(cfg))
		r.Post("/logout", logoutHandler(cfg))
		r.Get("/me", meHandler(cfg))
	})

	if cfg.Media != nil {
		r.With(LoopbackGuard()).Handle(playback.MediaPrefix+"*", cfg.Media)
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens, cfg.Logger))

		r.Get("/jobs", listJobsHandler(cfg))

		r.Get("/upload", uploadStateHandler(cfg))
		r.Post("/upload/file", selectFileHandler(cfg))
		r.Post("/upload/youtube", submitYoutubeHandler(cfg))
		r.Post("/upload/context", submitContextHandler(cfg))
		r.Post("/upload/context/skip", skipContextHandler(cfg))
		r.Post("/upload/start", startUploadHandler(cfg))
		r.Post("/upload/reset", resetUploadHandler(cfg))

		r.Get("/videos", listVideosHandler(cfg))
		r.Post("/videos/open", openVideoHandler(cfg))

		r.Get("/shorts", shortsStateHandler(cfg))
		r.Put("/shorts/{id}", updateShortHandler(cfg))
		r.Post("/shorts/save", saveShortsHandler(cfg))
		r.Post("/preview", previewHandler(cfg))
		r.Delete("/preview", closePreviewHandler(cfg))

		r.Post("/export/edl", exportEDLHandler(cfg))

		r.Get("/music", musicHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
			Backend: cfg.Backend,
		})
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Library.Jobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// decodeBody decodes an optional JSON body; an empty body leaves v zero.
func decodeBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeDomainError maps workflow, session and backend errors onto HTTP
// statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, upload.ErrInvalidFileType),
		errors.Is(err, upload.ErrInvalidYoutubeURL),
		errors.Is(err, library.ErrInvalidContentType),
		errors.Is(err, library.ErrInvalidTrim),
		errors.Is(err, export.ErrNoClips),
		errors.Is(err, os.ErrNotExist):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, upload.ErrBusy),
		errors.Is(err, upload.ErrNoSource),
		errors.Is(err, shorts.ErrNoVideo),
		errors.Is(err, shorts.ErrEditInProgress):
		WriteError(w, http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, shorts.ErrShortNotFound),
		errors.Is(err, library.ErrVideoNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, session.ErrNotAuthenticated):
		WriteError(w, http.StatusUnauthorized, err.Error(), "NOT_AUTHENTICATED")
	case errors.Is(err, upload.ErrClosed):
		WriteError(w, http.StatusServiceUnavailable, err.Error(), "UNAVAILABLE")
	default:
		writeBackendError(w, err)
	}
}

func writeBackendError(w http.ResponseWriter, err error) {
	if errors.Is(err, cloud.ErrUnreachable) {
		WriteJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:     cloud.UnreachableMessage,
			Code:      "BACKEND_UNREACHABLE",
			Retryable: true,
		})
		return
	}
	var apiErr *cloud.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusBadGateway
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			status = apiErr.StatusCode
		}
		WriteJSON(w, status, ErrorResponse{
			Error:     apiErr.Error(),
			Code:      "BACKEND_ERROR",
			Retryable: apiErr.IsRetryable(),
		})
		return
	}
	WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
}
