package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/reelcut/reelcut-agent/internal/library"
)

// Short titles come straight from the trim editor and video names from the
// user's disk, so both are cleaned before landing in an EDL or a file name.
const (
	maxClipName  = 64
	maxVideoName = 80
	edlSuffix    = "_shorts.edl"
)

var ErrInvalidOutputDir = errors.New("invalid output_dir")

// ClipName turns a short's title into an EDL clip name. Untitled shorts are
// named by their 1-based position.
func ClipName(title string, n int) string {
	if name := SanitizeName(title, maxClipName); name != "" {
		return name
	}
	return fmt.Sprintf("Short %d", n)
}

// FileName names the EDL written for video: its name without extension plus
// "_shorts.edl". Names that clean to nothing fall back to the video ID.
func FileName(video library.Video) string {
	stem := strings.TrimSuffix(video.Name, filepath.Ext(video.Name))
	for _, candidate := range []string{stem, video.ID} {
		// a leading dot would hide the file
		if base := strings.TrimLeft(SanitizeName(candidate, maxVideoName), ". "); base != "" {
			return base + edlSuffix
		}
	}
	return "video" + edlSuffix
}

// SanitizeName keeps letters, digits and a few separators. Anything else
// becomes '_', with runs collapsed. Control characters are dropped and the
// result is cut to maxLen runes when maxLen > 0.
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	replaced := false
	for _, r := range s {
		switch {
		case unicode.IsControl(r):
			continue
		case isAllowedNameRune(r):
			b.WriteRune(r)
			replaced = false
		case !replaced:
			b.WriteRune('_')
			replaced = true
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		if runes := []rune(cleaned); len(runes) > maxLen {
			cleaned = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')':
		return true
	}
	return false
}

// ValidateOutputDir requires an existing, clean, writable directory path
// without traversal segments. Errors wrap ErrInvalidOutputDir.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return outputDirError("output_dir is required")
	}
	if slices.Contains(strings.Split(filepath.ToSlash(dir), "/"), "..") {
		return outputDirError("output_dir cannot contain path traversal")
	}
	if filepath.Clean(dir) != dir {
		return outputDirError("output_dir must be clean path")
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return outputDirError("output_dir does not exist")
	case err != nil:
		return fmt.Errorf("%w: %v", ErrInvalidOutputDir, err)
	case !info.IsDir():
		return outputDirError("output_dir is not a directory")
	}

	f, err := os.CreateTemp(dir, ".reelcut-write-*")
	if err != nil {
		return outputDirError("output_dir is not writable")
	}
	f.Close()
	os.Remove(f.Name())
	return nil
}

type dirError struct{ msg string }

func (e *dirError) Error() string { return e.msg }
func (e *dirError) Unwrap() error { return ErrInvalidOutputDir }

func outputDirError(msg string) error { return &dirError{msg: msg} }

