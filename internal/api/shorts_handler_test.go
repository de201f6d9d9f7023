package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/reelcut/reelcut-agent/internal/library"
	"github.com/reelcut/reelcut-agent/internal/shorts"
)

func ptr[T any](v T) *T { return &v }

func TestShortsState_Empty(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/shorts", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var state shorts.State
	if err := json.Unmarshal(rr.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if state.Video != nil || len(state.Shorts) != 0 {
		t.Errorf("state = %+v, want empty", state)
	}
}

func TestUpdateShortHandler(t *testing.T) {
	env := newTestEnv(t)
	env.loadVideo(t)

	rr := env.do(t, http.MethodPut, "/shorts/short_1", UpdateShortRequest{
		Title:     ptr("Opening hook"),
		TrimStart: ptr(65.0),
		TrimEnd:   ptr(95.5),
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var got library.Short
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Title != "Opening hook" || got.Timestamp != "1:05" || got.Duration != "0:30" {
		t.Errorf("updated short = %+v", got)
	}

	list := env.cfg.Shorts.Shorts()
	if list[0].ID != "short_1" || list[0].TrimStart != 65 {
		t.Errorf("review list not updated: %+v", list[0])
	}
	stored, err := env.lib.Shorts(t.Context(), "v1")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range stored {
		if s.ID == "short_1" && s.TrimEnd != 95.5 {
			t.Errorf("stored trim end = %v, want 95.5", s.TrimEnd)
		}
	}
}

func TestUpdateShortHandler_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.loadVideo(t)

	tests := []struct {
		name   string
		path   string
		req    UpdateShortRequest
		status int
	}{
		{"end before start", "/shorts/short_1", UpdateShortRequest{TrimEnd: ptr(5.0)}, http.StatusBadRequest},
		{"negative start", "/shorts/short_2", UpdateShortRequest{TrimStart: ptr(-1.0)}, http.StatusBadRequest},
		{"unknown short", "/shorts/short_9", UpdateShortRequest{Title: ptr("x")}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPut, tt.path, tt.req)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.status, rr.Body.String())
			}
		})
	}

	if s := env.cfg.Shorts.Shorts()[0]; s.TrimStart != 10 || s.TrimEnd != 25 {
		t.Errorf("rejected edit changed the short: %+v", s)
	}
}

func TestSaveShortsHandler(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/shorts/save", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("save without video status = %d, want %d", rr.Code, http.StatusConflict)
	}

	env.loadVideo(t)
	rr = env.do(t, http.MethodPost, "/shorts/save", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp SaveAllResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Saved != 2 || resp.Failed != 0 || len(resp.Results) != 2 {
		t.Errorf("resp = %+v", resp)
	}
	for _, s := range env.cfg.Shorts.Shorts() {
		if s.SavedAt.IsZero() {
			t.Errorf("short %s not marked saved", s.ID)
		}
	}
}

func TestPreviewHandlers(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/preview", PreviewRequest{Original: true})
	if rr.Code != http.StatusConflict {
		t.Fatalf("original without video status = %d, want %d", rr.Code, http.StatusConflict)
	}

	v := env.loadVideo(t)

	rr = env.do(t, http.MethodPost, "/preview", PreviewRequest{ShortID: "short_2"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp PreviewResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Short == nil || resp.Short.ID != "short_2" || resp.Video != nil {
		t.Errorf("preview = %+v", resp)
	}
	if got := env.cfg.Shorts.State().PreviewID; got != "short_2" {
		t.Errorf("preview id = %q", got)
	}

	rr = env.do(t, http.MethodPost, "/preview", PreviewRequest{Original: true})
	resp = PreviewResponse{}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Video == nil || resp.Video.VideoURL != v.VideoURL {
		t.Errorf("original preview = %+v", resp)
	}

	if rr := env.do(t, http.MethodPost, "/preview", PreviewRequest{ShortID: "nope"}); rr.Code != http.StatusNotFound {
		t.Errorf("unknown short status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	if rr := env.do(t, http.MethodPost, "/preview", PreviewRequest{}); rr.Code != http.StatusBadRequest {
		t.Errorf("empty preview status = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	rr = env.do(t, http.MethodDelete, "/preview", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("close status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if st := env.cfg.Shorts.State(); st.PreviewID != "" || st.PreviewOriginal {
		t.Errorf("preview still open: %+v", st)
	}
}

func TestListVideosHandler(t *testing.T) {
	env := newTestEnv(t)
	env.loadVideo(t)

	rr := env.do(t, http.MethodGet, "/videos", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decodeJSONBody(t, rr)
	videos, ok := body["videos"].([]interface{})
	if !ok || len(videos) != 1 {
		t.Fatalf("videos = %v", body["videos"])
	}
	first := videos[0].(map[string]interface{})
	if first["id"] != "v1" || first["duration_text"] != "4:00" {
		t.Errorf("video = %v", first)
	}
}

func TestOpenVideoHandler(t *testing.T) {
	env := newTestEnv(t)
	env.loadVideo(t)
	env.cfg.Shorts.Reset()

	if rr := env.do(t, http.MethodPost, "/videos/open", OpenVideoRequest{}); rr.Code != http.StatusBadRequest {
		t.Errorf("missing id status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if rr := env.do(t, http.MethodPost, "/videos/open", OpenVideoRequest{VideoID: "missing"}); rr.Code != http.StatusNotFound {
		t.Errorf("unknown video status = %d, want %d", rr.Code, http.StatusNotFound)
	}

	rr := env.do(t, http.MethodPost, "/videos/open", OpenVideoRequest{VideoID: "v1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var state shorts.State
	if err := json.Unmarshal(rr.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if state.Video == nil || state.Video.ID != "v1" || len(state.Shorts) != 2 {
		t.Errorf("state = %+v", state)
	}
}
