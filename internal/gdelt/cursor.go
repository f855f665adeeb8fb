// Package gdelt talks to the GDELT DOC 2.0 document search API.
package gdelt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	wireLayout    = "20060102150405"
	displayLayout = "2006-01-02 15:04:05"
)

// ErrInvalidCursor indicates a timestamp string that cannot be parsed.
var ErrInvalidCursor = errors.New("invalid timestamp")

// Cursor is a second-precision point-in-time boundary for API windows.
// The zero Cursor is "no boundary".
type Cursor struct {
	t time.Time
}

// NewCursor creates a cursor from a time value, truncated to the second.
func NewCursor(t time.Time) Cursor {
	return Cursor{t: t.UTC().Truncate(time.Second)}
}

// ParseCursor parses a timestamp in YYYYMMDDHHMMSS form. Common
// separators (-, /, ., :, space) are stripped first, so values like
// "2020-01-02 15:04:05" are accepted. A bare date is padded to
// midnight.
func ParseCursor(s string) (Cursor, error) {
	cleaned := strings.NewReplacer(" ", "", ".", "", ":", "", "-", "", "/", "").Replace(s)
	if cleaned == "" {
		return Cursor{}, fmt.Errorf("%w: empty string", ErrInvalidCursor)
	}

	if len(cleaned) == 8 {
		cleaned += "000000"
	}

	t, err := time.Parse(wireLayout, cleaned)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %q", ErrInvalidCursor, s)
	}

	return Cursor{t: t}, nil
}

// NowCursor returns the current time pushed back by bufferHours.
// The API lags real time slightly, so requests ending at "now" come
// back short; a quarter-hour buffer avoids that.
func NowCursor(bufferHours float64) Cursor {
	return NewCursor(time.Now()).PushBack(bufferHours)
}

// Wire returns the compact timestamp format used in API requests.
func (c Cursor) Wire() string {
	return c.t.Format(wireLayout)
}

// Display returns the human-readable format used in logs.
func (c Cursor) Display() string {
	return c.t.Format(displayLayout)
}

// PushBack returns a cursor the given number of hours earlier.
// Fractional hours are supported.
func (c Cursor) PushBack(hours float64) Cursor {
	d := time.Duration(hours * float64(time.Hour))

	return Cursor{t: c.t.Add(-d).Truncate(time.Second)}
}

// Before reports whether c is strictly earlier than other.
func (c Cursor) Before(other Cursor) bool {
	return c.t.Before(other.t)
}

// After reports whether c is strictly later than other.
func (c Cursor) After(other Cursor) bool {
	return c.t.After(other.t)
}

// Equal reports whether both cursors name the same second.
func (c Cursor) Equal(other Cursor) bool {
	return c.t.Equal(other.t)
}

// IsZero reports whether the cursor is unset.
func (c Cursor) IsZero() bool {
	return c.t.IsZero()
}

// Min returns the earlier of the two cursors.
func (c Cursor) Min(other Cursor) Cursor {
	if other.t.Before(c.t) {
		return other
	}

	return c
}

// ParseRecordDate normalizes a publication date as it appears in an
// article row. The API has returned the column as 20060102T150405Z
// and as 2006-01-02 15:04:05 over time; both reduce to the same
// fourteen digits.
func ParseRecordDate(s string) (Cursor, error) {
	var digits strings.Builder

	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)

			if digits.Len() == 14 {
				break
			}
		}
	}

	if digits.Len() < 14 {
		return Cursor{}, fmt.Errorf("%w: %q", ErrInvalidCursor, s)
	}

	t, err := time.Parse(wireLayout, digits.String())
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %q", ErrInvalidCursor, s)
	}

	return Cursor{t: t}, nil
}
