package application

import (
	"io"
	"time"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID   int64
	Username string
	IsAdmin  bool
}

// User represents an account exposed by the application services.
type User struct {
	ID        int64
	Username  string
	Email     string
	IsAdmin   bool
	CreatedAt time.Time
}

// UserCredentials pairs a user with the stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// SignupInput captures the account creation form.
type SignupInput struct {
	Username  string `json:"username" validate:"required,max=150,username"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Password1 string `json:"password1" validate:"required"`
	Password2 string `json:"password2" validate:"required"`
}

// Session represents an issued authentication session.
type Session struct {
	ID        string
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams wraps the login form.
type AuthenticateParams struct {
	Username string
	Password string
}

// AuthenticateResult is returned after a successful login.
type AuthenticateResult struct {
	User    User
	Session Session
}

// RoomInput captures caller provided room fields. A nil Capacity means the
// default of 10.
type RoomInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Location string `json:"location" validate:"max=200"`
	Capacity *int   `json:"capacity" validate:"omitempty,gt=0"`
}

// Room represents a catalog entry for a physical meeting room.
type Room struct {
	ID        int64
	Name      string
	Location  *string
	Capacity  int
	CreatedAt time.Time
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    int64
	Input     RoomInput
}

// ListRoomsParams filters the room catalog by a case-insensitive search over
// name and location.
type ListRoomsParams struct {
	Principal Principal
	Query     string
}

// Attachment describes a stored minutes document.
type Attachment struct {
	Key         string
	FileName    string
	ContentType string
	Size        int64
}

// Upload is a minutes document submitted with a booking form.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Booking represents a meeting scheduled in a room. Start and End are
// absolute instants.
type Booking struct {
	ID                int64
	Title             string
	Description       *string
	OrganizerID       int64
	OrganizerUsername string
	OrganizerEmail    string
	RoomID            int64
	RoomName          string
	Start             time.Time
	End               time.Time
	IsActive          bool
	Minutes           *Attachment
	CreatedAt         time.Time
}

// BookingInput holds the raw booking form values. Start and End are either
// wall clock values in the display zone or RFC 3339 instants.
type BookingInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	RoomID      string `json:"room" validate:"required"`
	Start       string `json:"start_time" validate:"required"`
	End         string `json:"end_time" validate:"required"`
}

// BookingForm carries everything needed to render a booking form.
type BookingForm struct {
	Initial BookingInput
	Rooms   []Room
	Booking *Booking
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
	Minutes   *Upload
}

// UpdateBookingParams wraps the data required to edit a booking.
type UpdateBookingParams struct {
	Principal Principal
	BookingID int64
	Input     BookingInput
	Minutes   *Upload
}

// GetBookingParams identifies a booking read. ScopeMine restricts the read to
// the organizer and administrators.
type GetBookingParams struct {
	Principal Principal
	BookingID int64
	Scope     ViewerScope
}

// DashboardCounts summarises the principal's bookings at Now.
type DashboardCounts struct {
	Total    int
	Upcoming int
	Ongoing  int
	Ended    int
	Now      time.Time
}
