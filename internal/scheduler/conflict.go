package scheduler

import "time"

// Booking is the minimal view of a stored booking needed for conflict checks.
type Booking struct {
	ID     int64
	RoomID int64
	Start  time.Time
	End    time.Time
}

// Candidate describes a booking about to be written. ExcludeID is the id of
// the booking being edited, or zero on create.
type Candidate struct {
	RoomID    int64
	Start     time.Time
	End       time.Time
	ExcludeID int64
}

// Overlaps reports whether the half-open intervals [s1, e1) and [s2, e2)
// intersect. Intervals that only touch at an endpoint do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// FindConflict returns the earliest-starting booking in existing that occupies
// the candidate's room during its window. The booking named by
// candidate.ExcludeID never conflicts.
func FindConflict(existing []Booking, candidate Candidate) (Booking, bool) {
	var (
		found Booking
		ok    bool
	)
	for _, b := range existing {
		if b.RoomID != candidate.RoomID {
			continue
		}
		if candidate.ExcludeID != 0 && b.ID == candidate.ExcludeID {
			continue
		}
		if !Overlaps(b.Start, b.End, candidate.Start, candidate.End) {
			continue
		}
		if !ok || b.Start.Before(found.Start) || (b.Start.Equal(found.Start) && b.ID < found.ID) {
			found, ok = b, true
		}
	}
	return found, ok
}

// HasConflict reports whether any booking in existing conflicts with candidate.
func HasConflict(existing []Booking, candidate Candidate) bool {
	_, ok := FindConflict(existing, candidate)
	return ok
}
