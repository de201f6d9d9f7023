// Package shorts owns the review of generated clips: the authoritative list
// of shorts for the current video, previews, trim edits and saving.
package shorts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/reelcut/reelcut-agent/internal/clock"
	"github.com/reelcut/reelcut-agent/internal/cloud"
	"github.com/reelcut/reelcut-agent/internal/library"
)

const defaultSaveConcurrency = 3

var (
	ErrNoVideo        = errors.New("no video loaded")
	ErrShortNotFound  = library.ErrShortNotFound
	ErrNotEditing     = errors.New("no short is being edited")
	ErrEditInProgress = errors.New("another short is being edited")

	errNoShorts = errors.New("no shorts generated")
)

// FallbackNotice is shown when the shorts came from the fallback generator.
const FallbackNotice = "Suggested moments were unavailable, showing estimated moments instead"

// Releaser frees a media URL once no view references it.
type Releaser interface {
	Revoke(url string) bool
}

type Config struct {
	Generator Generator
	// Fallback runs when Generator fails or finds nothing. Defaults to
	// SimulatedGenerator.
	Fallback Generator
	// Annotator is optional; failures keep the generated titles.
	Annotator Annotator
	Library   library.LibraryService
	// Backend and Token enable saving to the backend. Without them SaveAll
	// only marks shorts saved locally.
	Backend         cloud.ShortService
	Token           func(ctx context.Context) (string, error)
	Media           Releaser
	Clock           clock.Clock
	SaveConcurrency int
	Logger          *slog.Logger
}

// State is a copy of the review state.
type State struct {
	Video           *library.Video  `json:"video,omitempty"`
	Shorts          []library.Short `json:"shorts"`
	PreviewID       string          `json:"preview_id,omitempty"`
	PreviewOriginal bool            `json:"preview_original"`
	EditingID       string          `json:"editing_id,omitempty"`
	Notice          string          `json:"notice,omitempty"`
	LoadError       string          `json:"load_error,omitempty"`
}

type Workflow struct {
	cfg    Config
	logger *slog.Logger

	mu              sync.Mutex
	video           *library.Video
	shorts          []library.Short
	previewID       string
	previewOriginal bool
	editor          *Editor
	editingID       string
	notice          string
	loadErr         string
}

func NewWorkflow(cfg Config) *Workflow {
	if cfg.Generator == nil {
		cfg.Generator = SimulatedGenerator{}
	}
	if cfg.Fallback == nil {
		cfg.Fallback = SimulatedGenerator{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.SaveConcurrency <= 0 {
		cfg.SaveConcurrency = defaultSaveConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Workflow{cfg: cfg, logger: cfg.Logger}
}

// Load generates shorts for a freshly processed video, persists both and
// makes them the current review set. The video's media URL belongs to the
// workflow from here on; if Load fails it is revoked.
func (w *Workflow) Load(ctx context.Context, video library.Video) (_ []library.Short, err error) {
	if video.ID == "" {
		video.ID = library.NewID()
	}
	defer func() {
		if err != nil {
			w.failLoad(video, err)
		}
	}()

	generated, notice, err := w.generate(ctx, video)
	if err != nil {
		return nil, fmt.Errorf("generate shorts: %w", err)
	}

	if w.cfg.Annotator != nil {
		annotated, err := w.cfg.Annotator.Annotate(ctx, video, generated)
		if err != nil {
			w.logger.Warn("short annotation failed, keeping generated titles", "video_id", video.ID, "error", err)
		} else {
			generated = annotated
		}
	}

	for i := range generated {
		generated[i].VideoID = video.ID
		generated[i].IsShort = true
	}

	if w.cfg.Library != nil {
		if err := w.cfg.Library.SaveVideo(ctx, &video); err != nil {
			return nil, err
		}
		if err := w.cfg.Library.SaveShorts(ctx, video.ID, generated); err != nil {
			return nil, err
		}
	}

	w.mu.Lock()
	w.releaseLocked(video.VideoURL)
	w.video = &video
	w.shorts = generated
	w.previewID = ""
	w.previewOriginal = false
	w.notice = notice
	w.loadErr = ""
	w.mu.Unlock()

	w.logger.Info("shorts ready", "video_id", video.ID, "count", len(generated))
	return cloneShorts(generated), nil
}

func (w *Workflow) generate(ctx context.Context, video library.Video) ([]library.Short, string, error) {
	generated, err := w.cfg.Generator.Generate(ctx, video)
	if err == nil && len(generated) > 0 {
		return generated, "", nil
	}
	if err == nil {
		err = errNoShorts
	}

	w.logger.Warn("suggested moments unavailable, using fallback", "video_id", video.ID, "error", err)
	fallback, ferr := w.cfg.Fallback.Generate(ctx, video)
	if ferr != nil {
		return nil, "", errors.Join(err, ferr)
	}
	if len(fallback) == 0 {
		return nil, "", err
	}
	return fallback, FallbackNotice, nil
}

// failLoad records why a processed video never reached review and revokes
// its media URL, which nothing references any more.
func (w *Workflow) failLoad(video library.Video, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loadErr = err.Error()
	if w.cfg.Media == nil || video.VideoURL == "" || video.IsYoutubeVideo {
		return
	}
	if w.video != nil && w.video.VideoURL == video.VideoURL {
		return
	}
	w.cfg.Media.Revoke(video.VideoURL)
}

// Open makes a stored video and its shorts the current review set.
func (w *Workflow) Open(ctx context.Context, videoID string) error {
	if w.cfg.Library == nil {
		return ErrNoVideo
	}
	video, err := w.cfg.Library.GetVideo(ctx, videoID)
	if err != nil {
		return err
	}
	list, err := w.cfg.Library.Shorts(ctx, videoID)
	if err != nil {
		return fmt.Errorf("list shorts: %w", err)
	}
	w.remint(video, list)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.releaseLocked(video.VideoURL)
	w.video = video
	w.shorts = list
	w.previewID = ""
	w.previewOriginal = false
	w.notice = ""
	w.loadErr = ""
	return nil
}

// remint gives a stored local video a fresh media URL; URLs from an earlier
// run are no longer served.
func (w *Workflow) remint(video *library.Video, list []library.Short) {
	m, ok := w.cfg.Media.(interface {
		Create(path string) (string, error)
	})
	if !ok || video.SourcePath == "" || video.IsYoutubeVideo {
		return
	}
	url, err := m.Create(video.SourcePath)
	if err != nil {
		w.logger.Warn("source video unavailable", "video_id", video.ID, "error", err)
		return
	}
	video.VideoURL = url
	for i := range list {
		list[i].VideoURL = url
	}
}

// releaseLocked closes any editor and revokes the current video's media URL
// unless it is being kept.
func (w *Workflow) releaseLocked(keep string) {
	if w.editor != nil {
		w.editor.Close()
		w.editor = nil
		w.editingID = ""
	}
	if w.video != nil && w.cfg.Media != nil && w.video.VideoURL != keep {
		w.cfg.Media.Revoke(w.video.VideoURL)
	}
}

func (w *Workflow) Shorts() []library.Short {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneShorts(w.shorts)
}

func (w *Workflow) Video() (*library.Video, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.video == nil {
		return nil, false
	}
	v := *w.video
	return &v, true
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := State{
		Shorts:          cloneShorts(w.shorts),
		PreviewID:       w.previewID,
		PreviewOriginal: w.previewOriginal,
		EditingID:       w.editingID,
		Notice:          w.notice,
		LoadError:       w.loadErr,
	}
	if w.video != nil {
		v := *w.video
		st.Video = &v
	}
	return st
}

// Preview selects a short for the preview player.
func (w *Workflow) Preview(id string) (library.Short, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.indexLocked(id)
	if i < 0 {
		return library.Short{}, ErrShortNotFound
	}
	w.previewID = id
	w.previewOriginal = false
	return w.shorts[i], nil
}

// PreviewOriginal selects the full source video for the preview player.
func (w *Workflow) PreviewOriginal() (library.Video, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.video == nil {
		return library.Video{}, ErrNoVideo
	}
	w.previewID = ""
	w.previewOriginal = true
	return *w.video, nil
}

func (w *Workflow) ClosePreview() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.previewID = ""
	w.previewOriginal = false
}

// Edit opens a trim editor on a copy of the short. Only one short is edited
// at a time.
func (w *Workflow) Edit(id string, player Player) (*Editor, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.editor != nil && w.editingID != id {
		return nil, ErrEditInProgress
	}
	i := w.indexLocked(id)
	if i < 0 {
		return nil, ErrShortNotFound
	}
	if w.editor != nil {
		return w.editor, nil
	}
	w.editor = NewEditor(w.shorts[i], player, w.cfg.Clock)
	w.editingID = id
	return w.editor, nil
}

// Commit replaces the short with the same ID by s, persisting the edit. An
// editor open on that short is closed.
func (w *Workflow) Commit(ctx context.Context, s library.Short) (library.Short, error) {
	w.mu.Lock()
	if w.indexLocked(s.ID) < 0 {
		w.mu.Unlock()
		return library.Short{}, ErrShortNotFound
	}
	s.VideoID = w.video.ID
	w.mu.Unlock()

	if err := s.Validate(); err != nil {
		return library.Short{}, err
	}
	s.SyncDisplay()
	if w.cfg.Library != nil {
		updated, err := w.cfg.Library.UpdateShort(ctx, s)
		if err != nil {
			return library.Short{}, err
		}
		s = updated
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.indexLocked(s.ID)
	if i < 0 {
		return library.Short{}, ErrShortNotFound
	}
	w.shorts[i] = s
	if w.editingID == s.ID && w.editor != nil {
		w.editor.Close()
		w.editor = nil
		w.editingID = ""
	}
	w.logger.Info("short updated", "short_id", s.ID, "timestamp", s.Timestamp, "duration", s.Duration)
	return s, nil
}

// CommitEdit saves the open editor and commits the result.
func (w *Workflow) CommitEdit(ctx context.Context) (library.Short, error) {
	w.mu.Lock()
	ed := w.editor
	w.mu.Unlock()
	if ed == nil {
		return library.Short{}, ErrNotEditing
	}
	return w.Commit(ctx, ed.Save())
}

func (w *Workflow) CancelEdit() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.editor != nil {
		w.editor.Close()
	}
	w.editor = nil
	w.editingID = ""
}

// SaveResult reports one short of a SaveAll run.
type SaveResult struct {
	ShortID string `json:"short_id"`
	Error   string `json:"error,omitempty"`
}

// SaveAll sends every short to the backend with bounded concurrency and
// marks the successful ones saved. The first failure is returned after all
// attempts finish.
func (w *Workflow) SaveAll(ctx context.Context) ([]SaveResult, error) {
	w.mu.Lock()
	if w.video == nil {
		w.mu.Unlock()
		return nil, ErrNoVideo
	}
	list := cloneShorts(w.shorts)
	w.mu.Unlock()

	var token string
	if w.cfg.Backend != nil {
		t, err := w.cfg.Token(ctx)
		if err != nil {
			return nil, err
		}
		token = t
	}

	results := make([]SaveResult, len(list))
	var (
		errMu    sync.Mutex
		firstErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.SaveConcurrency)
	for i, s := range list {
		g.Go(func() error {
			results[i].ShortID = s.ID
			if err := w.saveOne(gctx, token, s); err != nil {
				results[i].Error = cloud.UserMessage(err)
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
				w.logger.Warn("failed to save short", "short_id", s.ID, "error", err)
			}
			return nil
		})
	}
	g.Wait()

	saved := w.cfg.Clock.Now()
	w.mu.Lock()
	for _, r := range results {
		if r.Error != "" {
			continue
		}
		if i := w.indexLocked(r.ShortID); i >= 0 {
			w.shorts[i].SavedAt = saved
		}
	}
	w.mu.Unlock()

	return results, firstErr
}

func (w *Workflow) saveOne(ctx context.Context, token string, s library.Short) error {
	if w.cfg.Backend != nil {
		description := s.Explanation
		if description == "" {
			description = s.Captions
		}
		_, err := w.cfg.Backend.Save(ctx, token, cloud.SaveShortRequest{
			VideoID:     s.VideoID,
			StartTime:   s.TrimStart,
			EndTime:     s.TrimEnd,
			Title:       s.Title,
			Description: description,
		})
		if err != nil {
			return err
		}
	}
	if w.cfg.Library != nil {
		return w.cfg.Library.MarkShortSaved(ctx, s)
	}
	return nil
}

// Reset clears the review set, releasing the video's media URL.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.releaseLocked("")
	w.video = nil
	w.shorts = nil
	w.previewID = ""
	w.previewOriginal = false
	w.notice = ""
	w.loadErr = ""
}

func (w *Workflow) indexLocked(id string) int {
	for i, s := range w.shorts {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func cloneShorts(in []library.Short) []library.Short {
	if in == nil {
		return []library.Short{}
	}
	out := make([]library.Short, len(in))
	for i, s := range in {
		s.Hashtags = append([]string(nil), s.Hashtags...)
		out[i] = s
	}
	return out
}
