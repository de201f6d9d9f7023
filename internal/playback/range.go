package playback

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Browser players open a video with "bytes=0-" and re-request from an offset
// on every seek. Only the first range of a multi-range request is answered.

var (
	ErrInvalidRange  = errors.New("invalid range format")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// Range is an inclusive byte window of a media file.
type Range struct {
	Start int64
	End   int64
}

func (r Range) ContentLength() int64 {
	return r.End - r.Start + 1
}

func (r Range) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, total)
}

func unsatisfiableContentRange(total int64) string {
	return fmt.Sprintf("bytes */%d", total)
}

// ParseRange resolves a Range header against a file of size bytes. An empty
// header asks for the whole file and yields nil.
func ParseRange(header string, size int64) (*Range, error) {
	if header == "" {
		return nil, nil
	}
	unit, set, ok := strings.Cut(header, "=")
	if !ok || strings.TrimSpace(unit) != "bytes" {
		return nil, ErrInvalidRange
	}
	first, _, _ := strings.Cut(set, ",")
	from, to, ok := strings.Cut(strings.TrimSpace(first), "-")
	if !ok {
		return nil, ErrInvalidRange
	}

	var r Range
	if from == "" {
		// suffix: the last n bytes, as players request when probing for an index
		n, err := parseOffset(to)
		if err != nil || n == 0 {
			return nil, ErrInvalidRange
		}
		r = Range{Start: max(size-n, 0), End: size - 1}
	} else {
		start, err := parseOffset(from)
		if err != nil {
			return nil, ErrInvalidRange
		}
		end := size - 1
		if to != "" {
			if end, err = parseOffset(to); err != nil {
				return nil, ErrInvalidRange
			}
		}
		r = Range{Start: start, End: min(end, size-1)}
	}

	if r.Start >= size || r.Start > r.End {
		return nil, ErrUnsatisfiable
	}
	return &r, nil
}

func parseOffset(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0, ErrInvalidRange
	}
	return n, nil
}

// requestedRange picks the window of a media file to send. Malformed headers
// are ignored and the whole file is sent. A stale If-Range date also gets the
// whole file, since the player's buffered bytes belong to an older version.
func requestedRange(req *http.Request, size int64, modTime time.Time) (*Range, error) {
	header := req.Header.Get("Range")
	if header == "" {
		return nil, nil
	}
	if v := req.Header.Get("If-Range"); v != "" && !ifRangeMatches(v, modTime) {
		return nil, nil
	}
	r, err := ParseRange(header, size)
	if errors.Is(err, ErrInvalidRange) {
		return nil, nil
	}
	return r, err
}

// ifRangeMatches compares an If-Range date with the file's modification time.
// Entity tags are never issued for media, so any tag is a mismatch.
func ifRangeMatches(v string, modTime time.Time) bool {
	t, err := http.ParseTime(v)
	if err != nil {
		return false
	}
	return modTime.Truncate(time.Second).Equal(t)
}
