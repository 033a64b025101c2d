package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/meeting-rooms/internal/persistence"
	"github.com/example/meeting-rooms/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary, migrated
// SQLite database whose clock is the harness Clock.
type SQLiteHarness struct {
	Users    persistence.UserRepository
	Rooms    persistence.RoomRepository
	Bookings persistence.BookingRepository
	Sessions persistence.SessionRepository
	Clock    *Clock

	storage *sqlite.Storage
	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// Storage exposes the underlying database for tests that need raw access.
func (h *SQLiteHarness) Storage() *sqlite.Storage {
	return h.storage
}

// NewSQLiteHarness opens a fresh database under tb.TempDir. Close is
// registered with tb.Cleanup.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	clock := NewClock(ReferenceTime())
	dsn := "file:" + filepath.Join(tb.TempDir(), "meetings.db")

	storage, err := sqlite.Open(dsn, clock.NowFunc(), nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Users:    storage.Users,
		Rooms:    storage.Rooms,
		Bookings: storage.Bookings,
		Sessions: storage.Sessions,
		Clock:    clock,
		storage:  storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// InsertUser stores the fixture and returns the stored user.
func (h *SQLiteHarness) InsertUser(tb testing.TB, fixture UserFixture) persistence.User {
	tb.Helper()
	user, err := h.Users.CreateUser(context.Background(), fixture.Persistence())
	if err != nil {
		tb.Fatalf("failed to insert user %q: %v", fixture.Username, err)
	}
	return user
}

// InsertRoom stores the fixture and returns the stored room.
func (h *SQLiteHarness) InsertRoom(tb testing.TB, fixture RoomFixture) persistence.Room {
	tb.Helper()
	room, err := h.Rooms.CreateRoom(context.Background(), fixture.Persistence())
	if err != nil {
		tb.Fatalf("failed to insert room %q: %v", fixture.Name, err)
	}
	return room
}

// InsertBooking stores the fixture under its room lock without an overlap
// check and returns the stored booking.
func (h *SQLiteHarness) InsertBooking(tb testing.TB, fixture BookingFixture) persistence.Booking {
	tb.Helper()
	var stored persistence.Booking
	err := h.Bookings.WithRoomLock(context.Background(), fixture.RoomID, func(tx persistence.BookingTx) error {
		var err error
		stored, err = tx.InsertBooking(context.Background(), fixture.Persistence())
		return err
	})
	if err != nil {
		tb.Fatalf("failed to insert booking %q: %v", fixture.Title, err)
	}
	return stored
}

// Seed inserts an organizer, an administrator and a room, returning them in
// that order.
func (h *SQLiteHarness) Seed(tb testing.TB) (organizer, admin persistence.User, room persistence.Room) {
	tb.Helper()
	organizer = h.InsertUser(tb, NewUserFixture())
	admin = h.InsertUser(tb, NewUserFixture(WithUserAdmin(true)))
	room = h.InsertRoom(tb, NewRoomFixture())
	return organizer, admin, room
}
