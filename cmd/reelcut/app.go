package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sashabaranov/go-openai"

	"github.com/reelcut/reelcut-agent/internal/clock"
	"github.com/reelcut/reelcut-agent/internal/cloud"
	"github.com/reelcut/reelcut-agent/internal/config"
	"github.com/reelcut/reelcut-agent/internal/db"
	"github.com/reelcut/reelcut-agent/internal/library"
	"github.com/reelcut/reelcut-agent/internal/logging"
	"github.com/reelcut/reelcut-agent/internal/pipeline"
	"github.com/reelcut/reelcut-agent/internal/playback"
	"github.com/reelcut/reelcut-agent/internal/session"
	"github.com/reelcut/reelcut-agent/internal/shorts"
	"github.com/reelcut/reelcut-agent/internal/upload"
	"github.com/reelcut/reelcut-agent/internal/youtube"
)

const (
	backendSimulated = "simulated"
	backendRemote    = "backend"
)

// app is the wired object graph shared by the server and the CLI commands.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	db      *db.DB
	repo    *library.SQLiteRepository
	library *library.Service
	session *session.Session
	media   *playback.Registry
	upload  *upload.Controller
	shorts  *shorts.Workflow
	music   youtube.MusicSearcher
	backend string
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ExportDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	repo := library.NewRepository(database.Conn())
	lib := library.NewService(repo, logger)
	media := playback.NewRegistry(logging.WithComponent(logger, "media"))

	var client cloud.Client
	backend := backendSimulated
	if cfg.UseRealBackend() {
		client = cloud.NewHTTPClient(cfg.APIURL(), logger)
		backend = backendRemote
		logger.Info("using processing backend", "api_url", cfg.APIURL())
	} else {
		client = cloud.NewStubClient(logger)
		logger.Info("real backend disabled, processing is simulated")
	}
	sess := session.New(repo, client.Auth(), logging.WithComponent(logger, "session"))

	var durations pipeline.Inspector
	if fp, err := pipeline.NewFFprobe(cfg.FFprobePath(), logger); err != nil {
		logger.Warn("ffprobe unavailable, local durations will not be measured", "error", err)
		durations = pipeline.NewStubInspector(logger)
	} else {
		durations = fp
	}

	var metadata youtube.MetadataFetcher = youtube.StaticFetcher{}
	var music youtube.MusicSearcher = youtube.NoMusic{}
	if key := cfg.YoutubeAPIKey(); key != "" {
		fetcher, err := youtube.NewAPIFetcher(ctx, key, logging.WithComponent(logger, "youtube"))
		if err != nil {
			logger.Warn("youtube data api unavailable, using static metadata", "error", err)
		} else {
			metadata = fetcher
			music = fetcher
		}
	}

	var processor upload.Processor
	var generator shorts.Generator = shorts.SimulatedGenerator{}
	wfCfg := shorts.Config{
		Library: lib,
		Media:   media,
		Logger:  logging.WithComponent(logger, "shorts"),
	}
	if backend == backendRemote {
		processor = upload.NewBackendProcessor(upload.BackendConfig{
			Videos:       client.Videos(),
			Token:        sess.Token,
			PollInterval: cfg.PollInterval(),
			Durations:    durations,
			Logger:       logger,
		})
		generator = shorts.BackendGenerator{Shorts: client.Shorts(), Token: sess.Token}
		wfCfg.Backend = client.Shorts()
		wfCfg.Token = sess.Token
	} else {
		processor = upload.NewSimulatedProcessor(clock.Real{}).WithDurations(durations)
	}
	wfCfg.Generator = generator

	if key := cfg.OpenAIAPIKey(); key != "" {
		wfCfg.Annotator = shorts.NewOpenAIAnnotator(openai.NewClient(key), cfg.OpenAIModel(), logger)
		logger.Info("short annotation enabled", "model", cfg.OpenAIModel())
	}

	ctrl := upload.NewController(upload.Config{
		Processor: processor,
		Media:     media,
		Metadata:  metadata,
		Jobs:      lib,
		Logger:    logging.WithComponent(logger, "upload"),
	})
	wf := shorts.NewWorkflow(wfCfg)

	ctrl.OnComplete(func(v library.Video) {
		if _, err := wf.Load(context.Background(), v); err != nil {
			logger.Error("failed to load shorts for processed video", "video_id", v.ID, "error", err)
		}
	})

	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      database,
		repo:    repo,
		library: lib,
		session: sess,
		media:   media,
		upload:  ctrl,
		shorts:  wf,
		music:   music,
		backend: backend,
	}, nil
}

func (a *app) Close() {
	a.upload.Close()
	a.shorts.Reset()
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}
