package application

import (
	"strconv"
	"strings"
	"time"

	"github.com/example/meeting-rooms/internal/scheduler"
	"github.com/example/meeting-rooms/internal/timezone"
)

// ViewerScope selects which bookings a listing covers.
type ViewerScope string

const (
	// ScopeMine lists the principal's own bookings.
	ScopeMine ViewerScope = "mine"
	// ScopeAll lists every booking and also searches organizer usernames.
	ScopeAll ViewerScope = "all"
)

// DefaultPerPage is used when per_page is absent or invalid.
const DefaultPerPage = 10

// FilterParams holds the raw listing query values.
type FilterParams struct {
	Q        string
	Status   string
	DateFrom string
	DateTo   string
	Page     string
	PerPage  string
}

// AppliedFilters echoes the effective filter values for form repopulation.
type AppliedFilters struct {
	Q        string
	Status   string
	DateFrom string
	DateTo   string
	PerPage  int
}

// BookingPage is one page of a filtered listing.
type BookingPage struct {
	Items       []Booking
	Total       int
	Page        int
	PageCount   int
	HasNext     bool
	HasPrevious bool
	Filters     AppliedFilters
	Now         time.Time
}

// FilterBookings applies search, status and date filters to collection, which
// must already be ordered by start descending then id descending, and returns
// the requested page. now is the single reference instant for status checks.
func FilterBookings(collection []Booking, scope ViewerScope, params FilterParams, zone timezone.Normalizer, now time.Time) (BookingPage, error) {
	applied := AppliedFilters{
		Q:        strings.TrimSpace(params.Q),
		Status:   string(scheduler.ParseStatus(params.Status)),
		DateFrom: strings.TrimSpace(params.DateFrom),
		DateTo:   strings.TrimSpace(params.DateTo),
		PerPage:  parsePerPage(params.PerPage),
	}

	vErr := &ValidationError{}
	var dateFrom, dateTo string
	if applied.DateFrom != "" {
		d, err := timezone.ParseDate(applied.DateFrom)
		if err != nil {
			vErr.add("date_from", msgInvalidDate)
		}
		dateFrom = d
	}
	if applied.DateTo != "" {
		d, err := timezone.ParseDate(applied.DateTo)
		if err != nil {
			vErr.add("date_to", msgInvalidDate)
		}
		dateTo = d
	}
	if vErr.HasErrors() {
		return BookingPage{Filters: applied, Now: now}, vErr
	}

	status := scheduler.Status(applied.Status)
	needle := strings.ToLower(applied.Q)

	matched := make([]Booking, 0, len(collection))
	for _, b := range collection {
		if needle != "" && !bookingMatches(b, needle, scope) {
			continue
		}
		if !status.Matches(b.Start, b.End, now) {
			continue
		}
		if dateFrom != "" || dateTo != "" {
			day := zone.DateOf(b.Start)
			if dateFrom != "" && day < dateFrom {
				continue
			}
			if dateTo != "" && day > dateTo {
				continue
			}
		}
		matched = append(matched, b)
	}

	return paginate(matched, params.Page, applied, now), nil
}

func bookingMatches(b Booking, needle string, scope ViewerScope) bool {
	if strings.Contains(strings.ToLower(b.Title), needle) {
		return true
	}
	if b.Description != nil && strings.Contains(strings.ToLower(*b.Description), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(b.RoomName), needle) {
		return true
	}
	return scope == ScopeAll && strings.Contains(strings.ToLower(b.OrganizerUsername), needle)
}

func parsePerPage(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return DefaultPerPage
	}
	return n
}

// paginate clamps the requested page into range: non-numeric or below one
// means the first page, beyond the end means the last page.
func paginate(items []Booking, rawPage string, applied AppliedFilters, now time.Time) BookingPage {
	total := len(items)
	perPage := applied.PerPage
	pageCount := total / perPage
	if total%perPage != 0 {
		pageCount++
	}
	if pageCount == 0 {
		pageCount = 1
	}

	page, err := strconv.Atoi(strings.TrimSpace(rawPage))
	if err != nil || page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}

	// page > 1 implies perPage < total, so the product cannot overflow.
	lo := (page - 1) * perPage
	hi := lo + min(perPage, total-lo)
	return BookingPage{
		Items:       append([]Booking(nil), items[lo:hi]...),
		Total:       total,
		Page:        page,
		PageCount:   pageCount,
		HasNext:     page < pageCount,
		HasPrevious: page > 1,
		Filters:     applied,
		Now:         now,
	}
}
