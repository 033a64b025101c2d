package persistence

import (
	"context"
	"time"
)

// UserRepository stores accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
}

// RoomRepository exposes CRUD operations for rooms. Deleting a room deletes
// its bookings.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	UpdateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id int64) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id int64) error
}

// BookingFilter narrows booking listings. A zero OrganizerID lists every booking.
type BookingFilter struct {
	OrganizerID int64
}

// BookingRepository stores bookings. Writes go through WithRoomLock so the
// overlap check and the write observe the same snapshot of the room.
type BookingRepository interface {
	GetBooking(ctx context.Context, id int64) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	DeleteBooking(ctx context.Context, id int64) error
	// WithRoomLock runs fn in a transaction that holds an exclusive lock on the
	// room. It returns ErrNotFound when the room does not exist.
	WithRoomLock(ctx context.Context, roomID int64, fn func(tx BookingTx) error) error
}

// BookingTx is the set of booking operations available inside a room lock.
type BookingTx interface {
	// OverlappingBookings returns bookings in roomID whose interval intersects
	// [start, end), skipping excludeID when it is non-zero.
	OverlappingBookings(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]Booking, error)
	InsertBooking(ctx context.Context, booking Booking) (Booking, error)
	UpdateBooking(ctx context.Context, booking Booking) (Booking, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
