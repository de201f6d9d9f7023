package api

import (
	"net/http"
	"strings"
)

func uploadStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, SnapshotToResponse(cfg.Upload.Snapshot()))
	}
}

func selectFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UploadFileRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if strings.TrimSpace(req.Path) == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		if err := cfg.Upload.SelectFile(req.Path); err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SnapshotToResponse(cfg.Upload.Snapshot()))
	}
}

func submitYoutubeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UploadYoutubeRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Upload.SubmitYoutubeLink(r.Context(), req.URL); err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SnapshotToResponse(cfg.Upload.Snapshot()))
	}
}

func submitContextHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ContextRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Upload.SubmitContext(req.VideoContext()); err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SnapshotToResponse(cfg.Upload.Snapshot()))
	}
}

func skipContextHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Upload.SkipContext(); err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SnapshotToResponse(cfg.Upload.Snapshot()))
	}
}

// startUploadHandler returns as soon as processing is dispatched; clients
// poll GET /upload for progress.
func startUploadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Upload.Start(r.Context()); err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, SnapshotToResponse(cfg.Upload.Snapshot()))
	}
}

func resetUploadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Upload.Reset()
		WriteJSON(w, http.StatusOK, SnapshotToResponse(cfg.Upload.Snapshot()))
	}
}
