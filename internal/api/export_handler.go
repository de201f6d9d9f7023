package api

import (
	"net/http"
	"strings"

	"github.com/reelcut/reelcut-agent/internal/export"
	"github.com/reelcut/reelcut-agent/internal/logging"
)

const defaultFrameRate = 30.0

// exportEDLHandler writes the shorts of the current review set, or of the
// requested stored video, as an EDL.
func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.Request
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if strings.TrimSpace(req.OutputDir) == "" {
			req.OutputDir = cfg.ExportDir
		}
		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		frameRate := req.FrameRate
		if frameRate <= 0 {
			frameRate = defaultFrameRate
		}

		state := cfg.Shorts.State()
		video, list := state.Video, state.Shorts
		if req.VideoID != "" && (video == nil || video.ID != req.VideoID) {
			stored, err := cfg.Library.GetVideo(r.Context(), req.VideoID)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			if list, err = cfg.Library.Shorts(r.Context(), req.VideoID); err != nil {
				WriteError(w, http.StatusInternalServerError, "failed to load shorts", "INTERNAL_ERROR")
				return
			}
			video = stored
		}
		if video == nil {
			WriteError(w, http.StatusConflict, "no video loaded", "CONFLICT")
			return
		}

		clips, missing := export.Clips(*video, list, req.ShortIDs)
		if len(clips) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "no shorts could be resolved", "UNRESOLVABLE_SHORTS")
			return
		}

		path, err := export.WriteEDL(req.OutputDir, *video, clips, frameRate)
		if err != nil {
			cfg.Logger.Error("edl export failed", "video_id", video.ID, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		cfg.Logger.Info("edl exported", "video_id", video.ID, "clips", len(clips), "path", logging.SanitizePath(path))
		WriteJSON(w, http.StatusOK, export.Result{
			Status:     "ok",
			Format:     export.FormatEDL,
			OutputPath: path,
			ClipCount:  len(clips),
			Missing:    missing,
		})
	}
}

