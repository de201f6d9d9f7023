package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reelcut/reelcut-agent/internal/api"
	"github.com/reelcut/reelcut-agent/internal/config"
	"github.com/reelcut/reelcut-agent/internal/library"
	"github.com/reelcut/reelcut-agent/internal/session"
	"github.com/reelcut/reelcut-agent/internal/youtube"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	t.Setenv(config.EnvAppEnv, "production")
	t.Setenv(config.EnvDataDir, t.TempDir())
	t.Setenv(config.EnvUseRealBackend, "false")
	t.Setenv(config.EnvFFprobe, "reelcut-test-missing-ffprobe")
	t.Setenv(config.EnvYoutubeAPIKey, "")
	t.Setenv(config.EnvOpenAIAPIKey, "")

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config.New() error = %v", err)
	}
	a, err := newApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { readPassword = orig })
}

func TestNewApp_CreatesDirectories(t *testing.T) {
	a := newTestApp(t)

	if info, err := os.Stat(a.cfg.ExportDir()); err != nil || !info.IsDir() {
		t.Errorf("export dir not created: %v", err)
	}
	if a.backend != backendSimulated {
		t.Errorf("backend = %q, want %q", a.backend, backendSimulated)
	}
}

func TestSessionCommands(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	stubPassword(t, "hunter2")

	var out bytes.Buffer
	if err := runCommand(ctx, a, "whoami", nil, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Not logged in") {
		t.Errorf("whoami before login = %q", out.String())
	}

	out.Reset()
	if err := runCommand(ctx, a, "login", []string{"ada@example.com"}, &out); err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !strings.Contains(out.String(), "Logged in as offline@localhost") {
		t.Errorf("login output = %q", out.String())
	}

	out.Reset()
	if err := runCommand(ctx, a, "whoami", nil, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Offline User <offline@localhost>") {
		t.Errorf("whoami output = %q", out.String())
	}

	out.Reset()
	if err := runCommand(ctx, a, "logout", nil, &out); err != nil {
		t.Fatal(err)
	}
	if _, err := a.session.Token(ctx); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Errorf("Token() after logout error = %v", err)
	}
}

func TestLoginCommand_Usage(t *testing.T) {
	a := newTestApp(t)
	stubPassword(t, "")

	var out bytes.Buffer
	if err := runCommand(context.Background(), a, "login", nil, &out); err == nil {
		t.Error("expected usage error without email")
	}
	if err := runCommand(context.Background(), a, "login", []string{"ada@example.com"}, &out); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestProcessCommand_LocalFile(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the simulated processor on the real clock")
	}
	a := newTestApp(t)
	src := filepath.Join(t.TempDir(), "launch.mp4")
	if err := os.WriteFile(src, []byte("not really a video"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := runCommand(context.Background(), a, "process", []string{"-keywords", "launch, demo", "-type", "tutorial", src}, &out)
	if err != nil {
		t.Fatalf("process error = %v\n%s", err, out.String())
	}

	got := out.String()
	for _, want := range []string{"Processing complete!", "launch.mp4", "5 shorts", "START"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	videos, err := a.library.Videos(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 1 || videos[0].Context == nil || videos[0].Context.ContentType != library.ContentTypeTutorial {
		t.Errorf("stored videos = %+v", videos)
	}

	out.Reset()
	if err := runCommand(context.Background(), a, "videos", nil, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "launch.mp4") {
		t.Errorf("videos output = %q", out.String())
	}
}

func TestProcessCommand_Errors(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer

	if err := runCommand(context.Background(), a, "process", nil, &out); err == nil {
		t.Error("expected usage error without a source")
	}
	notes := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(notes, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := runCommand(context.Background(), a, "process", []string{notes}, &out); err == nil {
		t.Error("expected error for a non-video file")
	}
}

type fixedMusic struct {
	theme  string
	tracks []youtube.MusicTrack
}

func (m *fixedMusic) SearchMusic(_ context.Context, theme string, _ int) ([]youtube.MusicTrack, error) {
	m.theme = theme
	return m.tracks, nil
}

func TestMusicCommand(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer

	if err := runCommand(context.Background(), a, "music", nil, &out); err == nil {
		t.Error("expected usage error without a theme")
	}
	err := runCommand(context.Background(), a, "music", []string{"upbeat"}, &out)
	if !errors.Is(err, youtube.ErrMusicUnavailable) {
		t.Fatalf("music without an API key error = %v", err)
	}

	m := &fixedMusic{tracks: []youtube.MusicTrack{{
		VideoID: "aaaaaaaaaaa",
		Title:   "Lo-fi Beats",
		Channel: "Chill",
		URL:     youtube.WatchURL("aaaaaaaaaaa"),
	}}}
	a.music = m
	out.Reset()
	if err := runCommand(context.Background(), a, "music", []string{"-n", "3", "lo-fi", "study"}, &out); err != nil {
		t.Fatalf("music error = %v", err)
	}
	if m.theme != "lo-fi study" {
		t.Errorf("theme = %q", m.theme)
	}
	if !strings.Contains(out.String(), "Lo-fi Beats") || !strings.Contains(out.String(), "watch?v=aaaaaaaaaaa") {
		t.Errorf("output = %q", out.String())
	}

	m.tracks = nil
	out.Reset()
	if err := runCommand(context.Background(), a, "music", []string{"silence"}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No music found") {
		t.Errorf("output = %q", out.String())
	}
}

func TestEnsureAuthToken(t *testing.T) {
	store := session.NewMemoryStore()

	first, err := ensureAuthToken(store)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 64 {
		t.Errorf("token length = %d, want 64", len(first))
	}
	second, err := ensureAuthToken(store)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("token should be stable across restarts")
	}
	if stored, _ := store.GetConfig(context.Background(), api.AgentTokenKey); stored != first {
		t.Errorf("stored token = %q", stored)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("/very/long/path/to/exports", 10); got != "...exports" {
		t.Errorf("truncate() = %q", got)
	}
}

func TestTrimCommand(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "talk.mp4")
	if err := os.WriteFile(src, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	v := &library.Video{ID: "v1", Name: "talk.mp4", Duration: 120, SourcePath: src}
	if err := a.library.SaveVideo(ctx, v); err != nil {
		t.Fatal(err)
	}
	if err := a.library.SaveShorts(ctx, "v1", []library.Short{{ID: "s1", Title: "Moment", TrimStart: 10, TrimEnd: 20}}); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := runCommand(ctx, a, "trim", []string{"-title", "Closing", "v1", "s1", "1:05", "90"}, &out)
	if err != nil {
		t.Fatalf("trim error = %v", err)
	}
	if !strings.Contains(out.String(), "s1: Closing starts at 1:05, 0:25 long") {
		t.Errorf("output = %q", out.String())
	}

	stored, err := a.library.Shorts(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 || stored[0].TrimStart != 65 || stored[0].TrimEnd != 90 {
		t.Errorf("stored = %+v", stored)
	}

	if err := runCommand(ctx, a, "trim", []string{"v1", "s1", "0:30", "200"}, &out); err == nil {
		t.Error("expected an end past the video duration to be rejected")
	}
	if err := runCommand(ctx, a, "trim", []string{"v1", "s1", "abc", "20"}, &out); err == nil {
		t.Error("expected an invalid time to be rejected")
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"90", 90},
		{"1:30", 90},
		{"1:00:05", 3605},
		{"12.5", 12.5},
	}
	for _, tt := range tests {
		got, err := parseTime(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parseTime(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}
