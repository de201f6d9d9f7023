package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reelcut/reelcut-agent/internal/library"
	"github.com/reelcut/reelcut-agent/internal/shorts"
)

func listVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos, err := cfg.Library.Videos(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list videos", "INTERNAL_ERROR")
			return
		}

		resp := VideosResponse{Videos: make([]VideoResponse, len(videos))}
		for i, v := range videos {
			resp.Videos[i] = VideoToResponse(v)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func openVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OpenVideoRequest
		if err := decodeBody(r, &req); err != nil || req.VideoID == "" {
			WriteError(w, http.StatusBadRequest, "video_id is required", "BAD_REQUEST")
			return
		}
		if err := cfg.Shorts.Open(r.Context(), req.VideoID); err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Shorts.State())
	}
}

func shortsStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Shorts.State())
	}
}

// updateShortHandler applies an edit from the trim editor and splices the
// result into the review list.
func updateShortHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "short id required", "BAD_REQUEST")
			return
		}

		var req UpdateShortRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		current, ok := findShort(cfg.Shorts, id)
		if !ok {
			WriteError(w, http.StatusNotFound, "short not found", "NOT_FOUND")
			return
		}

		updated, err := cfg.Shorts.Commit(r.Context(), req.Apply(current))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, updated)
	}
}

func saveShortsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := cfg.Shorts.SaveAll(r.Context())
		if err != nil && results == nil {
			writeDomainError(w, err)
			return
		}

		resp := SaveAllResponse{Results: results}
		for _, res := range results {
			if res.Error != "" {
				resp.Failed++
			} else {
				resp.Saved++
			}
		}

		status := http.StatusOK
		if resp.Failed > 0 {
			status = http.StatusMultiStatus
		}
		WriteJSON(w, status, resp)
	}
}

func previewHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PreviewRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		switch {
		case req.Original:
			video, err := cfg.Shorts.PreviewOriginal()
			if err != nil {
				writeDomainError(w, err)
				return
			}
			WriteJSON(w, http.StatusOK, PreviewResponse{Video: &video})
		case req.ShortID != "":
			short, err := cfg.Shorts.Preview(req.ShortID)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			WriteJSON(w, http.StatusOK, PreviewResponse{Short: &short})
		default:
			WriteError(w, http.StatusBadRequest, "short_id or original is required", "BAD_REQUEST")
		}
	}
}

func closePreviewHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Shorts.ClosePreview()
		w.WriteHeader(http.StatusNoContent)
	}
}

func findShort(wf *shorts.Workflow, id string) (library.Short, bool) {
	for _, s := range wf.Shorts() {
		if s.ID == id {
			return s, true
		}
	}
	return library.Short{}, false
}
