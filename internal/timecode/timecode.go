// Package timecode converts between "M:SS" / "H:MM:SS" display strings and
// second counts.
package timecode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Parse converts "M:SS" or "H:MM:SS" into seconds. Fractional seconds are
// accepted in the last field.
func Parse(ts string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts)
	}

	var total float64
	for i, p := range parts {
		var v float64
		var err error
		if i == len(parts)-1 {
			v, err = strconv.ParseFloat(p, 64)
		} else {
			var n int
			n, err = strconv.Atoi(p)
			v = float64(n)
		}
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts)
		}
		// minutes and seconds fields below the leading one are base 60
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts)
		}
		total = total*60 + v
	}
	return total, nil
}

// Seconds is the lenient form of Parse used for display strings coming from
// generated shorts: anything unparseable is zero.
func Seconds(ts string) float64 {
	v, err := Parse(ts)
	if err != nil {
		return 0
	}
	return v
}

// Format renders whole seconds as "M:SS", or "H:MM:SS" from one hour up.
// Fractions are floored. Zero and negative values render as "0:00".
func Format(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) {
		return "0:00"
	}
	s := int(math.Floor(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

// FormatDuration renders a duration for video details. A non-positive value
// means the duration is not known.
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "Unknown"
	}
	return Format(seconds)
}
