// Package playback hands out revocable URLs for local video files and serves
// them with HTTP Range support so a browser player can seek.
package playback

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MediaPrefix is the route under which registered files are served.
const MediaPrefix = "/media/"

var ErrUnknownMedia = errors.New("unknown media token")

// videoTypes covers containers missing from minimal system mime tables.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
}

// ContentType guesses a MIME type from the file extension. It returns ""
// when the extension is unknown.
func ContentType(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

// Registry maps opaque tokens to local file paths. A token stays valid until
// Revoke is called for its URL.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]string
	logger  *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{entries: make(map[string]string), logger: logger}
}

// Create registers filePath and returns its media URL path.
func (r *Registry) Create(filePath string) (string, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return "", fmt.Errorf("stat media: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("media path is a directory: %s", filePath)
	}

	token := uuid.NewString()
	r.mu.Lock()
	r.entries[token] = filePath
	r.mu.Unlock()

	r.logger.Debug("media url created", "token", token, "file", filepath.Base(filePath))
	return MediaPrefix + token, nil
}

// Revoke invalidates a URL returned by Create. URLs that were never issued
// by this registry, such as YouTube embeds, are ignored.
func (r *Registry) Revoke(url string) bool {
	token, ok := tokenFromURL(url)
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[token]; !exists {
		return false
	}
	delete(r.entries, token)
	r.logger.Debug("media url revoked", "token", token)
	return true
}

// Owns reports whether url was issued by this registry and is still live.
func (r *Registry) Owns(url string) bool {
	_, ok := r.lookup(url)
	return ok
}

// Path resolves a live media URL back to its file.
func (r *Registry) Path(url string) (string, bool) {
	return r.lookup(url)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) lookup(url string) (string, bool) {
	token, ok := tokenFromURL(url)
	if !ok {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.entries[token]
	return p, ok
}

func tokenFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, MediaPrefix) {
		return "", false
	}
	token := path.Base(url)
	if _, err := uuid.Parse(token); err != nil {
		return "", false
	}
	return token, true
}

// ServeHTTP serves GET /media/{token}.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	filePath, ok := r.lookup(req.URL.Path)
	if !ok {
		http.Error(w, ErrUnknownMedia.Error(), http.StatusNotFound)
		return
	}
	if err := r.ServeFile(w, req, filePath); err != nil {
		r.logger.Error("media serve failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (r *Registry) ServeFile(w http.ResponseWriter, req *http.Request, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	size := stat.Size()
	contentType := ContentType(filePath)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Last-Modified", stat.ModTime().UTC().Format(http.TimeFormat))

	parsedRange, err := requestedRange(req, size, stat.ModTime())
	if errors.Is(err, ErrUnsatisfiable) {
		w.Header().Set("Content-Range", unsatisfiableContentRange(size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}
	if err != nil {
		return err
	}

	if parsedRange == nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		if req.Method != http.MethodHead {
			io.Copy(w, file)
		}
		return nil
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", parsedRange.ContentLength()))
	w.Header().Set("Content-Range", parsedRange.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if req.Method == http.MethodHead {
		return nil
	}
	if _, err := file.Seek(parsedRange.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	io.CopyN(w, file, parsedRange.ContentLength())
	return nil
}
