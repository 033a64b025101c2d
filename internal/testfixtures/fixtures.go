package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/meeting-rooms/internal/application"
	"github.com/example/meeting-rooms/internal/persistence"
)

var (
	userCounter    uint64
	roomCounter    uint64
	bookingCounter uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic account. ID stays zero until the
// fixture is inserted or an ID is set explicitly.
type UserFixture struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	username := fmt.Sprintf("user%03d", idx)
	fixture := UserFixture{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID sets the user id.
func WithUserID(id int64) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

// WithUsername overrides the generated username.
func WithUsername(username string) UserOption {
	return func(f *UserFixture) { f.Username = username }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) { f.PasswordHash = hash }
}

// WithUserAdmin sets the staff flag.
func WithUserAdmin(isAdmin bool) UserOption {
	return func(f *UserFixture) { f.IsAdmin = isAdmin }
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:        f.ID,
		Username:  f.Username,
		Email:     f.Email,
		IsAdmin:   f.IsAdmin,
		CreatedAt: f.CreatedAt,
	}
}

// Credentials returns the user together with its password hash.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{User: f.Application(), PasswordHash: f.PasswordHash}
}

// Principal returns the fixture as an authenticated principal.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Username: f.Username, IsAdmin: f.IsAdmin}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Username:     f.Username,
		Email:        f.Email,
		PasswordHash: f.PasswordHash,
		IsAdmin:      f.IsAdmin,
		CreatedAt:    f.CreatedAt,
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic meeting room.
type RoomFixture struct {
	ID        int64
	Name      string
	Location  *string
	Capacity  int
	CreatedAt time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	location := fmt.Sprintf("Floor %d", idx%10)
	fixture := RoomFixture{
		Name:      fmt.Sprintf("Room %03d", idx),
		Location:  &location,
		Capacity:  10,
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID sets the room id.
func WithRoomID(id int64) RoomOption {
	return func(f *RoomFixture) { f.ID = id }
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) { f.Name = name }
}

// WithRoomLocation overrides the generated location.
func WithRoomLocation(location string) RoomOption {
	return func(f *RoomFixture) { f.Location = &location }
}

// WithoutRoomLocation clears the location.
func WithoutRoomLocation() RoomOption {
	return func(f *RoomFixture) { f.Location = nil }
}

// WithRoomCapacity overrides the default capacity of 10.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) { f.Capacity = capacity }
}

// Application returns the fixture as an application.Room value.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:        f.ID,
		Name:      f.Name,
		Location:  copyStringPtr(f.Location),
		Capacity:  f.Capacity,
		CreatedAt: f.CreatedAt,
	}
}

// Persistence returns the fixture as a persistence.Room value.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Location:  copyStringPtr(f.Location),
		Capacity:  f.Capacity,
		CreatedAt: f.CreatedAt,
	}
}

// Input returns the fixture as a room form.
func (f RoomFixture) Input() application.RoomInput {
	input := application.RoomInput{Name: f.Name}
	if f.Location != nil {
		input.Location = *f.Location
	}
	capacity := f.Capacity
	input.Capacity = &capacity
	return input
}

// --------------------------- Booking fixtures ----------------------------

// BookingFixture represents a deterministic booking. By default it starts a
// day after ReferenceTime and lasts one hour.
type BookingFixture struct {
	ID          int64
	Title       string
	Description *string
	OrganizerID int64
	RoomID      int64
	Start       time.Time
	End         time.Time
	IsActive    bool
	Minutes     *persistence.Attachment
	CreatedAt   time.Time
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a deterministic booking fixture with optional overrides.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	start := referenceTime.Add(24 * time.Hour)
	fixture := BookingFixture{
		Title:     fmt.Sprintf("Meeting %03d", idx),
		Start:     start,
		End:       start.Add(time.Hour),
		IsActive:  true,
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID sets the booking id.
func WithBookingID(id int64) BookingOption {
	return func(f *BookingFixture) { f.ID = id }
}

// WithBookingTitle overrides the generated title.
func WithBookingTitle(title string) BookingOption {
	return func(f *BookingFixture) { f.Title = title }
}

// WithBookingDescription sets the description.
func WithBookingDescription(description string) BookingOption {
	return func(f *BookingFixture) { f.Description = &description }
}

// WithBookingOrganizer sets the organizing user id.
func WithBookingOrganizer(id int64) BookingOption {
	return func(f *BookingFixture) { f.OrganizerID = id }
}

// WithBookingRoom sets the booked room id.
func WithBookingRoom(id int64) BookingOption {
	return func(f *BookingFixture) { f.RoomID = id }
}

// WithBookingWindow sets the booked interval.
func WithBookingWindow(start, end time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.Start = start
		f.End = end
	}
}

// WithBookingMinutes attaches a minutes document reference.
func WithBookingMinutes(attachment persistence.Attachment) BookingOption {
	return func(f *BookingFixture) { f.Minutes = &attachment }
}

// Persistence returns the fixture as a persistence.Booking value.
func (f BookingFixture) Persistence() persistence.Booking {
	booking := persistence.Booking{
		ID:          f.ID,
		Title:       f.Title,
		Description: copyStringPtr(f.Description),
		OrganizerID: f.OrganizerID,
		RoomID:      f.RoomID,
		Start:       f.Start,
		End:         f.End,
		IsActive:    f.IsActive,
		CreatedAt:   f.CreatedAt,
	}
	if f.Minutes != nil {
		minutes := *f.Minutes
		booking.Minutes = &minutes
	}
	return booking
}

// Application returns the fixture as an application.Booking value.
func (f BookingFixture) Application() application.Booking {
	booking := application.Booking{
		ID:          f.ID,
		Title:       f.Title,
		Description: copyStringPtr(f.Description),
		OrganizerID: f.OrganizerID,
		RoomID:      f.RoomID,
		Start:       f.Start,
		End:         f.End,
		IsActive:    f.IsActive,
		CreatedAt:   f.CreatedAt,
	}
	if f.Minutes != nil {
		booking.Minutes = &application.Attachment{
			Key:         f.Minutes.Key,
			FileName:    f.Minutes.FileName,
			ContentType: f.Minutes.ContentType,
			Size:        f.Minutes.Size,
		}
	}
	return booking
}

// ----------------------------- Session fixtures -------------------------

// SessionFixture represents a deterministic session valid for a day.
type SessionFixture struct {
	ID        string
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		Token:     fmt.Sprintf("token-%03d", idx),
		CreatedAt: referenceTime,
		ExpiresAt: referenceTime.Add(24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUserID sets the owning user id.
func WithSessionUserID(id int64) SessionOption {
	return func(f *SessionFixture) { f.UserID = id }
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) { f.Token = token }
}

// WithSessionExpiresAt overrides the expiry.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) { f.ExpiresAt = t }
}

// WithSessionRevokedAt marks the session revoked at t.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) { f.RevokedAt = &t }
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		RevokedAt: copyTimePtr(f.RevokedAt),
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		RevokedAt: copyTimePtr(f.RevokedAt),
	}
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}

func copyTimePtr(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}
