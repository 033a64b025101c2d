package scheduler

import (
	"strings"
	"time"
)

// Status classifies a booking relative to a reference instant.
type Status string

const (
	StatusAll      Status = "all"
	StatusUpcoming Status = "upcoming"
	StatusOngoing  Status = "ongoing"
	StatusEnded    Status = "ended"
)

// ParseStatus maps a query value to a Status. Unknown values mean all.
func ParseStatus(value string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusUpcoming:
		return StatusUpcoming
	case StatusOngoing:
		return StatusOngoing
	case StatusEnded:
		return StatusEnded
	default:
		return StatusAll
	}
}

// Classify places a booking in exactly one of upcoming, ongoing or ended.
// Both boundaries of the ongoing window are inclusive.
func Classify(start, end, now time.Time) Status {
	switch {
	case start.After(now):
		return StatusUpcoming
	case end.Before(now):
		return StatusEnded
	default:
		return StatusOngoing
	}
}

// Matches reports whether a booking falls into the requested status.
func (s Status) Matches(start, end, now time.Time) bool {
	if s == StatusAll || s == "" {
		return true
	}
	return Classify(start, end, now) == s
}

// Counts tallies bookings per status.
type Counts struct {
	Total    int
	Upcoming int
	Ongoing  int
	Ended    int
}

// Add records one booking.
func (c *Counts) Add(start, end, now time.Time) {
	c.Total++
	switch Classify(start, end, now) {
	case StatusUpcoming:
		c.Upcoming++
	case StatusOngoing:
		c.Ongoing++
	case StatusEnded:
		c.Ended++
	}
}
