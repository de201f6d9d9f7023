package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestAuth_Login_Success(t *testing.T) {
	var received Credentials

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login should not carry a bearer token")
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Errorf("expected X-Request-Id header")
		}
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(TokenResponse{Error: false, Token: "jwt-token"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())

	token, err := client.Auth().Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "jwt-token" {
		t.Errorf("token = %q, want jwt-token", token)
	}
	if received.Email != "a@b.c" || received.Password != "pw" {
		t.Errorf("received = %+v", received)
	}
}

func TestAuth_Login_InvalidCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid credentials"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())

	_, err := client.Auth().Login(context.Background(), Credentials{Email: "a@b.c", Password: "bad"})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Error() != "Invalid credentials" {
		t.Errorf("message = %q, want detail", apiErr.Error())
	}
	if !IsUnauthorized(err) {
		t.Error("expected IsUnauthorized")
	}
}

func TestAuth_MissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":true}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())
	if _, err := client.Auth().Register(context.Background(), Credentials{}); !errors.Is(err, ErrNoToken) {
		t.Fatalf("error = %v, want ErrNoToken", err)
	}
}

func TestAuth_ExchangeGoogleCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/google/token" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["code"] != "abc" {
			t.Errorf("code = %q", body["code"])
		}
		json.NewEncoder(w).Encode(TokenResponse{Token: "google-jwt"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())
	token, err := client.Auth().ExchangeGoogleCode(context.Background(), "abc")
	if err != nil || token != "google-jwt" {
		t.Fatalf("ExchangeGoogleCode() = %q, %v", token, err)
	}
}

func TestAuth_Me_SendsBearer(t *testing.T) {
	var receivedAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(UserProfile{ID: "u1", Email: "a@b.c", AvatarURL: "https://img/a.png"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())
	profile, err := client.Auth().Me(context.Background(), "test-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receivedAuth != "Bearer test-token" {
		t.Errorf("auth = %q, want %q", receivedAuth, "Bearer test-token")
	}
	if profile.Picture() != "https://img/a.png" {
		t.Errorf("Picture() = %q", profile.Picture())
	}
}

func TestAPIError_Messages(t *testing.T) {
	if got := (&APIError{StatusCode: 502}).Error(); got != "API Error: 502" {
		t.Errorf("Error() = %q", got)
	}
	if !(&APIError{StatusCode: http.StatusInternalServerError}).IsRetryable() {
		t.Fatal("expected 5xx error to be retryable")
	}
	if (&APIError{StatusCode: http.StatusBadRequest}).IsRetryable() {
		t.Fatal("expected 4xx error to be permanent")
	}
}

func TestParseDetail(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"Video not found"}`, "Video not found"},
		{`{"detail":[{"loc":["body","email"]}]}`, `[{"loc":["body","email"]}]`},
		{`{"message":"x"}`, ""},
		{`not json`, ""},
	}
	for _, tt := range tests {
		if got := parseDetail([]byte(tt.body)); got != tt.want {
			t.Errorf("parseDetail(%s) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestHTTPClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewHTTPClient(url, testLogger())
	_, err := client.Videos().List(context.Background(), "t")
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("error = %v, want ErrUnreachable", err)
	}
	if !IsRetryable(err) {
		t.Error("transport errors should be retryable")
	}
	if UserMessage(err) != UnreachableMessage {
		t.Errorf("UserMessage() = %q", UserMessage(err))
	}
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(JobStatus{Status: JobStatusProcessing})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Videos().JobStatus(ctx, "t", "job-1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestVideos_ProcessAndStatus(t *testing.T) {
	var processBody ProcessRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/videos/process":
			json.NewDecoder(r.Body).Decode(&processBody)
			json.NewEncoder(w).Encode(ProcessResponse{JobID: "job-42"})
		case "/videos/status/job-42":
			w.Write([]byte(`{"status":"completed","progress":100,"transcript":[{"start":0,"end":1.5,"text":"hi"}],"videoInfo":{"lengthSeconds":321}}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())
	ctx := context.Background()

	resp, err := client.Videos().Process(ctx, "t", ProcessRequest{
		VideoURL:       "https://youtu.be/dQw4w9WgXcQ",
		IsYoutubeVideo: true,
		Context:        &ContextPayload{TargetAudience: "devs", ContentType: "tutorial"},
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if resp.JobID != "job-42" {
		t.Errorf("JobID = %q", resp.JobID)
	}
	if !processBody.IsYoutubeVideo || processBody.Context == nil || processBody.Context.TargetAudience != "devs" {
		t.Errorf("process body = %+v", processBody)
	}

	status, err := client.Videos().JobStatus(ctx, "t", "job-42")
	if err != nil {
		t.Fatalf("JobStatus() error = %v", err)
	}
	if status.Status != JobStatusCompleted || len(status.Transcript) != 1 || status.VideoInfo.LengthSeconds != 321 {
		t.Errorf("status = %+v", status)
	}
}

func TestVideos_Upload_Multipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	content := strings.Repeat("v", 100*1024)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos/upload" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile error: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if len(data) != len(content) {
			t.Errorf("uploaded %d bytes, want %d", len(data), len(content))
		}
		json.NewEncoder(w).Encode(VideoResponse{
			ID:       "vid-1",
			Title:    r.FormValue("title"),
			Filename: header.Filename,
			FileSize: int64(len(data)),
			Status:   "uploaded",
		})
	}))
	defer server.Close()

	var lastSent, lastTotal atomic.Int64
	client := NewHTTPClient(server.URL, testLogger())
	resp, err := client.Videos().Upload(context.Background(), "t", UploadFile{Path: path, Title: "My Clip"},
		func(sent, total int64) {
			lastSent.Store(sent)
			lastTotal.Store(total)
		})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if resp.ID != "vid-1" || resp.Title != "My Clip" || resp.Filename != "clip.mp4" {
		t.Errorf("response = %+v", resp)
	}
	if lastSent.Load() != int64(len(content)) || lastTotal.Load() != int64(len(content)) {
		t.Errorf("progress = %d/%d", lastSent.Load(), lastTotal.Load())
	}
}

func TestShorts_GenerateAndSave(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shorts/generate-timestamps":
			var req GenerateTimestampsRequest
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(GenerateTimestampsResponse{
				VideoID: req.VideoID,
				Shorts:  []ShortTimestamp{{Start: 1, End: 12.5, ID: "short_1"}},
			})
		case "/shorts/save-short":
			var req SaveShortRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.StartTime != 1 || req.EndTime != 12.5 {
				t.Errorf("save body = %+v", req)
			}
			json.NewEncoder(w).Encode(ShortResponse{ID: "short_12345", VideoID: req.VideoID, Title: req.Title})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())
	ctx := context.Background()

	gen, err := client.Shorts().GenerateTimestamps(ctx, "t", "vid-1", 3)
	if err != nil || len(gen.Shorts) != 1 {
		t.Fatalf("GenerateTimestamps() = %+v, %v", gen, err)
	}

	saved, err := client.Shorts().Save(ctx, "t", SaveShortRequest{VideoID: "vid-1", StartTime: 1, EndTime: 12.5, Title: "A"})
	if err != nil || saved.ID != "short_12345" {
		t.Fatalf("Save() = %+v, %v", saved, err)
	}
}

func TestHTTPClient_ImplementsClientInterface(t *testing.T) {
	var _ Client = (*HTTPClient)(nil)
}

func TestStubClient_ImplementsClientInterface(t *testing.T) {
	var _ Client = (*StubClient)(nil)
}

func TestStubVideos_CompletesAfterPolls(t *testing.T) {
	stub := NewStubClient(testLogger())
	ctx := context.Background()

	resp, _ := stub.Videos().Process(ctx, StubToken, ProcessRequest{})
	var status *JobStatus
	for i := 0; i < stubPollsToComplete; i++ {
		var err error
		status, err = stub.Videos().JobStatus(ctx, StubToken, resp.JobID)
		if err != nil {
			t.Fatalf("JobStatus() error = %v", err)
		}
	}
	if status.Status != JobStatusCompleted || len(status.Transcript) == 0 {
		t.Errorf("final status = %+v", status)
	}

	if _, err := stub.Videos().JobStatus(ctx, StubToken, "missing"); err == nil {
		t.Error("expected error for unknown job")
	}
}
