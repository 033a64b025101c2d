package persistence

import "time"

// User represents an account that can sign in and organize meetings.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// Room represents a bookable meeting room.
type Room struct {
	ID        int64
	Name      string
	Location  *string
	Capacity  int
	CreatedAt time.Time
}

// Attachment references an uploaded minutes document held in blob storage.
type Attachment struct {
	Key         string
	FileName    string
	ContentType string
	Size        int64
}

// Booking represents a meeting scheduled in a room.
//
// RoomName, OrganizerUsername and OrganizerEmail are populated on reads and
// ignored on writes.
type Booking struct {
	ID          int64
	Title       string
	Description *string
	OrganizerID int64
	RoomID      int64
	Start       time.Time
	End         time.Time
	IsActive    bool
	Minutes     *Attachment
	CreatedAt   time.Time

	RoomName          string
	OrganizerUsername string
	OrganizerEmail    string
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}
