// Package enrich rewrites display values of a validated sheet before it is
// published. Today that means header timestamps become relative time.
package enrich

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oddiville/sheets/internal/sheet"
)

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Enricher applies display rewrites. The zero value uses the wall clock.
type Enricher struct {
	Now func() time.Time
}

// New returns an Enricher on the wall clock.
func New() *Enricher {
	return &Enricher{Now: time.Now}
}

func (e *Enricher) now() time.Time {
	if e == nil || e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Sections rewrites header values in place and reports how many changed.
// Values that are not timestamps are left alone, so running it twice is the
// same as running it once.
func (e *Enricher) Sections(sections []sheet.Section) int {
	changed := 0
	for _, s := range sections {
		h, ok := s.Data.(*sheet.Header)
		if !ok || h.Value == "" {
			continue
		}
		if v := e.Value(h.Value); v != h.Value {
			h.Value = v
			changed++
		}
	}
	return changed
}

// epochWindow is how far from now a bare number may lie and still be read
// as a unix time. Phone numbers and numeric ids fall outside it.
const epochWindow = 5 * 365 * 24 * time.Hour

// Value returns s as relative time if it is a timestamp, else s.
func (e *Enricher) Value(s string) string {
	now := e.now()
	t, ok := ParseTimestamp(s, now)
	if !ok {
		return s
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// ParseTimestamp recognises RFC 3339, the two common SQL-ish layouts and
// 10 or 13 digit unix epochs (seconds or milliseconds). Epochs are only
// accepted within epochWindow of now.
func ParseTimestamp(s string, now time.Time) (time.Time, bool) {
	if n := len(s); (n == 10 || n == 13) && allDigits(s) {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		t := time.Unix(v, 0)
		if n == 13 {
			t = time.UnixMilli(v)
		}
		if d := t.Sub(now); d > epochWindow || d < -epochWindow {
			return time.Time{}, false
		}
		return t, true
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
