package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/reelcut/reelcut-agent/internal/cloud"
	"github.com/reelcut/reelcut-agent/internal/library"
	"github.com/reelcut/reelcut-agent/internal/logging"
	"github.com/reelcut/reelcut-agent/internal/playback"
	"github.com/reelcut/reelcut-agent/internal/youtube"
)

// MediaURLs issues and revokes the URLs local files are played from.
// playback.Registry implements it.
type MediaURLs interface {
	Create(path string) (string, error)
	Revoke(url string) bool
}

type Config struct {
	Processor Processor
	Media     MediaURLs
	Metadata  youtube.MetadataFetcher
	// Jobs records each attempt; nil disables tracking.
	Jobs   library.JobTracker
	Logger *slog.Logger
}

// Controller owns the upload session state machine. All methods are safe for
// concurrent use.
type Controller struct {
	processor Processor
	media     MediaURLs
	metadata  youtube.MetadataFetcher
	jobs      library.JobTracker
	logger    *slog.Logger

	mu        sync.Mutex
	state     Snapshot
	trackID   string
	handedOff bool
	gen       uint64
	cancel    context.CancelFunc
	closed    bool
	wg        sync.WaitGroup

	onComplete []func(library.Video)
	onChange   []func(Snapshot)
}

func NewController(cfg Config) *Controller {
	if cfg.Metadata == nil {
		cfg.Metadata = youtube.StaticFetcher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		processor: cfg.Processor,
		media:     cfg.Media,
		metadata:  cfg.Metadata,
		jobs:      cfg.Jobs,
		logger:    cfg.Logger,
		state:     Snapshot{Phase: PhaseIdle},
	}
}

// OnComplete registers fn to receive each finished video. It is called once
// per session, outside the controller lock.
func (c *Controller) OnComplete(fn func(library.Video)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onComplete = append(c.onComplete, fn)
}

// OnChange registers fn to receive a snapshot after every state change.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := c.state
	if s.File != nil {
		f := *s.File
		s.File = &f
	}
	if s.Youtube != nil {
		y := *s.Youtube
		s.Youtube = &y
	}
	if s.Context != nil {
		vc := *s.Context
		vc.Keywords = append([]string(nil), vc.Keywords...)
		s.Context = &vc
	}
	if s.Video != nil {
		v := *s.Video
		s.Video = &v
	}
	return s
}

// SelectFile starts a session for a local video file. Files whose type is
// not video/* are rejected and leave the controller untouched.
func (c *Controller) SelectFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("select file: %w", err)
	}
	if info.IsDir() {
		return ErrInvalidFileType
	}
	mimeType, err := detectType(path)
	if err != nil {
		return fmt.Errorf("select file: %w", err)
	}
	if !strings.HasPrefix(mimeType, "video/") {
		c.logger.Info("rejected non-video file", "file", filepath.Base(path), "mime", mimeType)
		return ErrInvalidFileType
	}

	c.mu.Lock()
	if err := c.selectableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	url, err := c.media.Create(path)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("create media url: %w", err)
	}
	c.beginLocked()
	c.state.File = &LocalFile{
		Path:      path,
		Name:      filepath.Base(path),
		SizeBytes: info.Size(),
		MIMEType:  mimeType,
		URL:       url,
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("video file selected", "file", snap.File.Name, "size", snap.File.Size())
	c.notify(snap)
	return nil
}

// detectType uses the extension first and falls back to sniffing content.
func detectType(path string) (string, error) {
	if t := playback.ContentType(path); t != "" {
		return t, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

// SubmitYoutubeLink starts a session for a YouTube video.
func (c *Controller) SubmitYoutubeLink(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if !youtube.IsValidURL(raw) {
		return ErrInvalidYoutubeURL
	}
	id := youtube.ExtractVideoID(raw)

	c.mu.Lock()
	err := c.selectableLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	md, err := c.metadata.Fetch(ctx, id)
	if err != nil {
		c.logger.Warn("youtube metadata unavailable", "video_id", id, "error", err)
		md, _ = youtube.StaticFetcher{}.Fetch(ctx, id)
	}
	if md.Title == "" {
		md.Title = youtube.DefaultTitle
	}

	c.mu.Lock()
	if err := c.selectableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.beginLocked()
	c.state.Youtube = &YoutubeLink{
		VideoID:      id,
		Title:        md.Title,
		ThumbnailURL: md.ThumbnailURL,
		EmbedURL:     youtube.EmbedURL(id),
		Duration:     library.Duration(md.DurationSeconds),
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("youtube link submitted", "video_id", id, "title", md.Title)
	c.notify(snap)
	return nil
}

func (c *Controller) selectableLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.state.Phase.Active() {
		return ErrBusy
	}
	return nil
}

// beginLocked discards the previous session and enters Collecting.
func (c *Controller) beginLocked() {
	c.releaseLocked()
	c.gen++
	c.state = Snapshot{Phase: PhaseCollecting, ContextState: ContextPending}
	c.trackID = ""
	c.handedOff = false
}

// releaseLocked revokes the local media URL unless it was handed off with a
// finished video. Embed URLs are never ours to revoke.
func (c *Controller) releaseLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.state.File != nil && c.state.File.URL != "" && !c.handedOff {
		c.media.Revoke(c.state.File.URL)
	}
}

// SubmitContext records the context for the current session. Processing
// still waits for Start.
func (c *Controller) SubmitContext(vc library.VideoContext) error {
	if err := vc.Normalize(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.state.Phase != PhaseCollecting {
		c.mu.Unlock()
		return ErrNoSource
	}
	c.state.Context = &vc
	c.state.ContextState = ContextCollected
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

func (c *Controller) SkipContext() error {
	c.mu.Lock()
	if c.state.Phase != PhaseCollecting {
		c.mu.Unlock()
		return ErrNoSource
	}
	c.state.Context = nil
	c.state.ContextState = ContextSkipped
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// Start hands the collected session to the processor. An undecided context
// counts as skipped. The run outlives ctx's cancellation; Reset stops it.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	switch {
	case c.state.Phase.Active():
		c.mu.Unlock()
		return ErrBusy
	case c.state.Phase != PhaseCollecting:
		c.mu.Unlock()
		return ErrNoSource
	}
	if c.state.ContextState == ContextPending {
		c.state.ContextState = ContextSkipped
	}

	c.gen++
	gen := c.gen
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.state.Phase = PhaseUploading
	c.state.Progress = 0
	c.state.Error = ""

	req := Request{Context: c.state.Context}
	kind, source := library.SourceKindFile, ""
	if c.state.File != nil {
		f := *c.state.File
		req.File = &f
		source = f.Path
	} else {
		y := *c.state.Youtube
		req.Youtube = &y
		kind, source = library.SourceKindYoutube, youtube.WatchURL(y.VideoID)
	}
	snap := c.snapshotLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	c.notify(snap)
	c.logger.Info("processing started", "source_kind", kind)

	go func() {
		defer c.wg.Done()
		c.track(runCtx, gen, kind, source)
		video, err := c.processor.Process(runCtx, req, &reporter{c: c, gen: gen})
		c.finish(runCtx, gen, video, err)
	}()
	return nil
}

func (c *Controller) track(ctx context.Context, gen uint64, kind, source string) {
	if c.jobs == nil {
		return
	}
	job, err := c.jobs.StartJob(ctx, kind, source)
	if err != nil {
		c.logger.Warn("failed to record upload job", "error", err)
		return
	}
	c.mu.Lock()
	if c.gen == gen {
		c.trackID = job.ID
	}
	c.mu.Unlock()
}

func (c *Controller) finish(ctx context.Context, gen uint64, video *library.Video, err error) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		c.logger.Debug("dropping result of discarded session")
		return
	}
	if cancel := c.cancel; cancel != nil {
		c.cancel = nil
		defer cancel()
	}
	trackID := c.trackID
	logger := c.logger
	if trackID != "" {
		logger = logging.WithJobID(logger, trackID)
	}

	if err != nil {
		c.state.Phase = PhaseFailed
		c.state.Error = userMessage(err)
		snap := c.snapshotLocked()
		c.mu.Unlock()

		logger.Warn("processing failed", "error", err)
		if c.jobs != nil && trackID != "" {
			if err := c.jobs.FailJob(ctx, trackID, snap.Error); err != nil {
				logger.Warn("failed to record job failure", "error", err)
			}
		}
		c.notify(snap)
		return
	}

	c.state.Phase = PhaseComplete
	c.state.Progress = 100
	c.state.Video = video
	c.handedOff = true
	snap := c.snapshotLocked()
	callbacks := slices.Clone(c.onComplete)
	c.mu.Unlock()

	logger = logging.WithVideoID(logger, video.ID)
	logger.Info("processing complete", "duration", video.Duration.String())
	if c.jobs != nil && trackID != "" {
		if err := c.jobs.FinishJob(ctx, trackID, video.ID); err != nil {
			logger.Warn("failed to record job completion", "error", err)
		}
	}
	c.notify(snap)
	for _, fn := range callbacks {
		fn(*video)
	}
}

func userMessage(err error) string {
	var failed *FailedError
	if errors.As(err, &failed) {
		return failed.Message
	}
	return cloud.UserMessage(err)
}

// Reset discards the session from any phase, stopping in-flight processing.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.releaseLocked()
	c.gen++
	c.state = Snapshot{Phase: PhaseIdle}
	c.trackID = ""
	c.handedOff = false
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("upload session reset")
	c.notify(snap)
}

// Close resets the controller, waits for the processor goroutine to exit and
// rejects further sessions.
func (c *Controller) Close() {
	c.Reset()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Controller) notify(s Snapshot) {
	c.mu.Lock()
	fns := slices.Clone(c.onChange)
	c.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// reporter forwards processor events for one session generation.
type reporter struct {
	c   *Controller
	gen uint64
}

func (r *reporter) Progress(percent int) {
	if percent > 100 {
		percent = 100
	}
	c := r.c
	c.mu.Lock()
	if c.gen != r.gen || percent <= c.state.Progress {
		c.mu.Unlock()
		return
	}
	c.state.Progress = percent
	trackID := c.trackID
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if c.jobs != nil && trackID != "" {
		if err := c.jobs.JobProgress(context.Background(), trackID, percent); err != nil {
			c.logger.Debug("failed to record job progress", "error", err)
		}
	}
	c.notify(snap)
}

func (r *reporter) Uploaded(sent, total int64) {
	c := r.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != r.gen {
		return
	}
	c.state.UploadedBytes = sent
}

func (r *reporter) JobAssigned(jobID string) {
	c := r.c
	c.mu.Lock()
	if c.gen != r.gen {
		c.mu.Unlock()
		return
	}
	c.state.JobID = jobID
	c.state.Phase = PhasePolling
	trackID := c.trackID
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if c.jobs != nil && trackID != "" {
		if err := c.jobs.JobAssigned(context.Background(), trackID, jobID); err != nil {
			c.logger.Warn("failed to record backend job id", "error", err)
		}
	}
	c.notify(snap)
}
