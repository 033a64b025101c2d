package http

import (
	"fmt"
	"time"

	"github.com/example/meeting-rooms/internal/application"
	"github.com/example/meeting-rooms/internal/scheduler"
	"github.com/example/meeting-rooms/internal/timezone"
)

type roomDTO struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Location  *string `json:"location"`
	Capacity  int     `json:"capacity"`
	CreatedAt string  `json:"created_at,omitempty"`
}

func toRoomDTO(room application.Room) roomDTO {
	dto := roomDTO{
		ID:       room.ID,
		Name:     room.Name,
		Location: room.Location,
		Capacity: room.Capacity,
	}
	if !room.CreatedAt.IsZero() {
		dto.CreatedAt = room.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toRoomDTOs(rooms []application.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}

type roomRefDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type organizerDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type attachmentDTO struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

// bookingDTO renders times in the display zone.
type bookingDTO struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	Room        roomRefDTO     `json:"room"`
	Organizer   organizerDTO   `json:"organizer"`
	StartTime   string         `json:"start_time"`
	EndTime     string         `json:"end_time"`
	Status      string         `json:"status"`
	IsActive    bool           `json:"is_active"`
	Minutes     *attachmentDTO `json:"minutes,omitempty"`
	CreatedAt   string         `json:"created_at,omitempty"`
	CanEdit     bool           `json:"can_edit"`
}

type bookingPresenter struct {
	zone timezone.Normalizer
	now  time.Time
}

func (p bookingPresenter) booking(booking application.Booking, viewer application.Principal) bookingDTO {
	dto := bookingDTO{
		ID:          booking.ID,
		Title:       booking.Title,
		Description: booking.Description,
		Room:        roomRefDTO{ID: booking.RoomID, Name: booking.RoomName},
		Organizer:   organizerDTO{ID: booking.OrganizerID, Username: booking.OrganizerUsername},
		StartTime:   p.zone.In(booking.Start).Format(time.RFC3339),
		EndTime:     p.zone.In(booking.End).Format(time.RFC3339),
		Status:      string(scheduler.Classify(booking.Start, booking.End, p.now)),
		IsActive:    booking.IsActive,
		CanEdit:     application.IsOwnerOrAdmin(viewer, booking),
	}
	if !booking.CreatedAt.IsZero() {
		dto.CreatedAt = p.zone.In(booking.CreatedAt).Format(time.RFC3339)
	}
	if booking.Minutes != nil {
		dto.Minutes = &attachmentDTO{
			FileName:    booking.Minutes.FileName,
			ContentType: booking.Minutes.ContentType,
			Size:        booking.Minutes.Size,
			URL:         fmt.Sprintf("/meetings/%d/minutes", booking.ID),
		}
	}
	return dto
}

func (p bookingPresenter) bookings(items []application.Booking, viewer application.Principal) []bookingDTO {
	out := make([]bookingDTO, 0, len(items))
	for _, item := range items {
		out = append(out, p.booking(item, viewer))
	}
	return out
}

type filtersDTO struct {
	Q        string `json:"q"`
	Status   string `json:"status"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
	PerPage  int    `json:"per_page"`
}

type bookingPageDTO struct {
	Results     []bookingDTO `json:"results"`
	Count       int          `json:"count"`
	Page        int          `json:"page"`
	PageCount   int          `json:"page_count"`
	HasNext     bool         `json:"has_next"`
	HasPrevious bool         `json:"has_previous"`
	Filters     filtersDTO   `json:"filters"`
	Now         string       `json:"now"`
	TimeZone    string       `json:"time_zone"`
}

func (p bookingPresenter) page(page application.BookingPage, viewer application.Principal) bookingPageDTO {
	return bookingPageDTO{
		Results:     p.bookings(page.Items, viewer),
		Count:       page.Total,
		Page:        page.Page,
		PageCount:   page.PageCount,
		HasNext:     page.HasNext,
		HasPrevious: page.HasPrevious,
		Filters: filtersDTO{
			Q:        page.Filters.Q,
			Status:   page.Filters.Status,
			DateFrom: page.Filters.DateFrom,
			DateTo:   page.Filters.DateTo,
			PerPage:  page.Filters.PerPage,
		},
		Now:      p.zone.In(page.Now).Format(time.RFC3339),
		TimeZone: p.zone.Name(),
	}
}

type bookingFormDTO struct {
	Initial  application.BookingInput `json:"initial"`
	Rooms    []roomDTO                `json:"rooms"`
	Booking  *bookingDTO              `json:"booking,omitempty"`
	TimeZone string                   `json:"time_zone"`
}

type dashboardDTO struct {
	Username string `json:"username"`
	Total    int    `json:"total"`
	Upcoming int    `json:"upcoming"`
	Ongoing  int    `json:"ongoing"`
	Ended    int    `json:"ended"`
	Now      string `json:"now"`
	TimeZone string `json:"time_zone"`
}

type userDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{ID: user.ID, Username: user.Username, Email: user.Email, IsAdmin: user.IsAdmin}
}
