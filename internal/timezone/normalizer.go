// Package timezone converts between wall clock values entered in the configured
// display zone and absolute instants kept in storage.
package timezone

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	// FormLayout is the datetime-local layout used for form input and display.
	FormLayout = "2006-01-02T15:04"
	// DateLayout is the layout of date-only filter bounds.
	DateLayout = "2006-01-02"
)

var wallClockLayouts = []string{
	FormLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

var (
	ErrEmpty         = errors.New("timezone: value is empty")
	ErrInvalidFormat = errors.New("timezone: unsupported date/time format")
	ErrNonexistent   = errors.New("timezone: local time does not exist in the display zone")
	ErrAmbiguous     = errors.New("timezone: local time is ambiguous in the display zone")
)

// Normalizer is an immutable view of the process display zone.
type Normalizer struct {
	loc *time.Location
}

// New loads the named IANA zone.
func New(name string) (Normalizer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Normalizer{}, fmt.Errorf("timezone: zone name is empty")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Normalizer{}, fmt.Errorf("timezone: load %q: %w", name, err)
	}
	return Normalizer{loc: loc}, nil
}

// MustNew is New for package-level setup and tests.
func MustNew(name string) Normalizer {
	n, err := New(name)
	if err != nil {
		panic(err)
	}
	return n
}

// FromLocation wraps an already loaded location.
func FromLocation(loc *time.Location) Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return Normalizer{loc: loc}
}

// Location returns the display zone.
func (n Normalizer) Location() *time.Location {
	if n.loc == nil {
		return time.UTC
	}
	return n.loc
}

// Name returns the IANA name of the display zone.
func (n Normalizer) Name() string {
	return n.Location().String()
}

// Parse accepts either an RFC 3339 value, whose offset is kept verbatim, or a
// wall clock value in one of the form layouts, which is interpreted in the
// display zone.
func (n Normalizer) Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmpty
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	for _, layout := range wallClockLayouts {
		wall, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return n.Normalize(wall)
	}
	return time.Time{}, ErrInvalidFormat
}

// Normalize attaches the display zone to the wall clock fields of wall. The
// location carried by wall is ignored. Wall clock times skipped or repeated by
// a zone transition are rejected.
func (n Normalizer) Normalize(wall time.Time) (time.Time, error) {
	loc := n.Location()
	y, mo, d := wall.Date()
	h, mi, s := wall.Clock()
	ns := wall.Nanosecond()

	naive := time.Date(y, mo, d, h, mi, s, ns, time.UTC)

	seen := make(map[int]struct{}, 3)
	var matches []time.Time
	for _, probe := range []time.Time{naive.Add(-24 * time.Hour), naive, naive.Add(24 * time.Hour)} {
		_, offset := probe.In(loc).Zone()
		if _, ok := seen[offset]; ok {
			continue
		}
		seen[offset] = struct{}{}

		candidate := naive.Add(-time.Duration(offset) * time.Second).In(loc)
		cy, cmo, cd := candidate.Date()
		ch, cmi, cs := candidate.Clock()
		if cy == y && cmo == mo && cd == d && ch == h && cmi == mi && cs == s {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 0:
		return time.Time{}, ErrNonexistent
	case 1:
		return matches[0], nil
	default:
		return time.Time{}, ErrAmbiguous
	}
}

// Display renders an instant as a wall clock value in the display zone.
func (n Normalizer) Display(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(n.Location()).Format(FormLayout)
}

// In converts an instant into the display zone.
func (n Normalizer) In(t time.Time) time.Time {
	return t.In(n.Location())
}

// DateOf returns the calendar date of t in the display zone as YYYY-MM-DD.
func (n Normalizer) DateOf(t time.Time) string {
	return t.In(n.Location()).Format(DateLayout)
}

// ParseDate validates a YYYY-MM-DD value and returns it in canonical form.
func ParseDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrEmpty
	}
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return "", ErrInvalidFormat
	}
	return d.Format(DateLayout), nil
}
