package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/meeting-rooms/internal/persistence"
	"github.com/example/meeting-rooms/internal/testfixtures"
)

func TestUserRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)

	t.Run("create and fetch", func(t *testing.T) {
		fixture := testfixtures.NewUserFixture(testfixtures.WithUsername("Carol"))
		created := h.InsertUser(t, fixture)
		require.Positive(t, created.ID)

		got, err := h.Users.GetUser(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Carol", got.Username)
		assert.Equal(t, fixture.PasswordHash, got.PasswordHash)
		assert.True(t, got.CreatedAt.Equal(fixture.CreatedAt))

		byName, err := h.Users.GetUserByUsername(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byName.ID, "username lookup ignores case")
	})

	t.Run("usernames are unique regardless of case", func(t *testing.T) {
		h.InsertUser(t, testfixtures.NewUserFixture(testfixtures.WithUsername("dave")))
		_, err := h.Users.CreateUser(ctx, testfixtures.NewUserFixture(testfixtures.WithUsername("DAVE")).Persistence())
		assert.ErrorIs(t, err, persistence.ErrDuplicate)
	})

	t.Run("missing password hash is rejected", func(t *testing.T) {
		_, err := h.Users.CreateUser(ctx, testfixtures.NewUserFixture(testfixtures.WithUserPasswordHash("")).Persistence())
		assert.ErrorIs(t, err, persistence.ErrConstraintViolation)
	})

	t.Run("unknown users", func(t *testing.T) {
		_, err := h.Users.GetUser(ctx, 9999)
		assert.ErrorIs(t, err, persistence.ErrNotFound)
		_, err = h.Users.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})
}

func TestRoomRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)

	atrium := h.InsertRoom(t, testfixtures.NewRoomFixture(testfixtures.WithRoomName("Atrium"), testfixtures.WithRoomCapacity(12)))
	annex := h.InsertRoom(t, testfixtures.NewRoomFixture(testfixtures.WithRoomName("Annex"), testfixtures.WithoutRoomLocation()))

	t.Run("list is ordered by name", func(t *testing.T) {
		rooms, err := h.Rooms.ListRooms(ctx)
		require.NoError(t, err)
		require.Len(t, rooms, 2)
		assert.Equal(t, annex.ID, rooms[0].ID)
		assert.Nil(t, rooms[0].Location)
		assert.Equal(t, atrium.ID, rooms[1].ID)
	})

	t.Run("update", func(t *testing.T) {
		atrium.Capacity = 20
		updated, err := h.Rooms.UpdateRoom(ctx, atrium)
		require.NoError(t, err)
		assert.Equal(t, 20, updated.Capacity)

		annexCopy := annex
		annexCopy.Name = "Atrium"
		_, err = h.Rooms.UpdateRoom(ctx, annexCopy)
		assert.ErrorIs(t, err, persistence.ErrDuplicate)

		_, err = h.Rooms.UpdateRoom(ctx, persistence.Room{ID: 9999, Name: "Ghost", Capacity: 1})
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("non-positive capacity is rejected", func(t *testing.T) {
		_, err := h.Rooms.CreateRoom(ctx, testfixtures.NewRoomFixture(testfixtures.WithRoomCapacity(0)).Persistence())
		assert.ErrorIs(t, err, persistence.ErrConstraintViolation)
	})

	t.Run("delete cascades to bookings", func(t *testing.T) {
		organizer := h.InsertUser(t, testfixtures.NewUserFixture())
		booking := h.InsertBooking(t, testfixtures.NewBookingFixture(
			testfixtures.WithBookingOrganizer(organizer.ID),
			testfixtures.WithBookingRoom(annex.ID),
		))

		require.NoError(t, h.Rooms.DeleteRoom(ctx, annex.ID))

		_, err := h.Bookings.GetBooking(ctx, booking.ID)
		assert.ErrorIs(t, err, persistence.ErrNotFound)
		assert.ErrorIs(t, h.Rooms.DeleteRoom(ctx, annex.ID), persistence.ErrNotFound)
	})
}

func TestBookingRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	organizer, other, room := h.Seed(t)

	base := testfixtures.ReferenceTime().Add(48 * time.Hour)
	at := func(hours float64) time.Time { return base.Add(time.Duration(hours * float64(time.Hour))) }

	standup := h.InsertBooking(t, testfixtures.NewBookingFixture(
		testfixtures.WithBookingTitle("Standup"),
		testfixtures.WithBookingDescription("daily"),
		testfixtures.WithBookingOrganizer(organizer.ID),
		testfixtures.WithBookingRoom(room.ID),
		testfixtures.WithBookingWindow(at(10), at(11)),
		testfixtures.WithBookingMinutes(persistence.Attachment{Key: "minutes/a.pdf", FileName: "a.pdf", ContentType: "application/pdf", Size: 42}),
	))
	review := h.InsertBooking(t, testfixtures.NewBookingFixture(
		testfixtures.WithBookingTitle("Review"),
		testfixtures.WithBookingOrganizer(other.ID),
		testfixtures.WithBookingRoom(room.ID),
		testfixtures.WithBookingWindow(at(13), at(14)),
	))

	t.Run("reads join room and organizer", func(t *testing.T) {
		got, err := h.Bookings.GetBooking(ctx, standup.ID)
		require.NoError(t, err)
		assert.Equal(t, room.Name, got.RoomName)
		assert.Equal(t, organizer.Username, got.OrganizerUsername)
		assert.Equal(t, organizer.Email, got.OrganizerEmail)
		require.NotNil(t, got.Description)
		assert.Equal(t, "daily", *got.Description)
		require.NotNil(t, got.Minutes)
		assert.Equal(t, int64(42), got.Minutes.Size)
		assert.True(t, got.IsActive)
		assert.True(t, got.Start.Equal(at(10)))
	})

	t.Run("listing order and organizer filter", func(t *testing.T) {
		all, err := h.Bookings.ListBookings(ctx, persistence.BookingFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, review.ID, all[0].ID, "latest start first")

		mine, err := h.Bookings.ListBookings(ctx, persistence.BookingFilter{OrganizerID: organizer.ID})
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, standup.ID, mine[0].ID)
	})

	t.Run("overlap uses half-open intervals", func(t *testing.T) {
		tests := []struct {
			name       string
			start, end time.Time
			exclude    int64
			want       []int64
		}{
			{name: "inside", start: at(10.25), end: at(10.75), want: []int64{standup.ID}},
			{name: "straddles both", start: at(10.5), end: at(13.5), want: []int64{standup.ID, review.ID}},
			{name: "touching end is free", start: at(11), end: at(12), want: nil},
			{name: "touching start is free", start: at(9), end: at(10), want: nil},
			{name: "excluded self", start: at(10), end: at(11), exclude: standup.ID, want: nil},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				var got []int64
				err := h.Bookings.WithRoomLock(ctx, room.ID, func(tx persistence.BookingTx) error {
					overlaps, err := tx.OverlappingBookings(ctx, room.ID, tc.start, tc.end, tc.exclude)
					for _, b := range overlaps {
						got = append(got, b.ID)
					}
					return err
				})
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			})
		}
	})

	t.Run("update keeps organizer", func(t *testing.T) {
		changed := standup
		changed.Title = "Standup (moved)"
		changed.OrganizerID = other.ID
		changed.Start, changed.End = at(15), at(16)
		changed.Minutes = nil

		var updated persistence.Booking
		err := h.Bookings.WithRoomLock(ctx, room.ID, func(tx persistence.BookingTx) error {
			var err error
			updated, err = tx.UpdateBooking(ctx, changed)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, "Standup (moved)", updated.Title)
		assert.Equal(t, organizer.ID, updated.OrganizerID)
		assert.Nil(t, updated.Minutes)
		assert.True(t, updated.Start.Equal(at(15)))
	})

	t.Run("failed callbacks roll back", func(t *testing.T) {
		boom := errors.New("boom")
		err := h.Bookings.WithRoomLock(ctx, room.ID, func(tx persistence.BookingTx) error {
			if _, err := tx.InsertBooking(ctx, testfixtures.NewBookingFixture(
				testfixtures.WithBookingOrganizer(organizer.ID),
				testfixtures.WithBookingRoom(room.ID),
				testfixtures.WithBookingWindow(at(20), at(21)),
			).Persistence()); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		all, err := h.Bookings.ListBookings(ctx, persistence.BookingFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("invalid writes", func(t *testing.T) {
		err := h.Bookings.WithRoomLock(ctx, 9999, func(tx persistence.BookingTx) error { return nil })
		assert.ErrorIs(t, err, persistence.ErrNotFound)

		err = h.Bookings.WithRoomLock(ctx, room.ID, func(tx persistence.BookingTx) error {
			_, err := tx.InsertBooking(ctx, testfixtures.NewBookingFixture(
				testfixtures.WithBookingOrganizer(organizer.ID),
				testfixtures.WithBookingRoom(room.ID),
				testfixtures.WithBookingWindow(at(22), at(22)),
			).Persistence())
			return err
		})
		assert.ErrorIs(t, err, persistence.ErrConstraintViolation)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, h.Bookings.DeleteBooking(ctx, review.ID))
		assert.ErrorIs(t, h.Bookings.DeleteBooking(ctx, review.ID), persistence.ErrNotFound)
	})
}

func TestSessionRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	user := h.InsertUser(t, testfixtures.NewUserFixture())
	now := testfixtures.ReferenceTime()

	live, err := h.Sessions.CreateSession(ctx, testfixtures.NewSessionFixture(testfixtures.WithSessionUserID(user.ID)).Persistence())
	require.NoError(t, err)
	stale, err := h.Sessions.CreateSession(ctx, testfixtures.NewSessionFixture(
		testfixtures.WithSessionUserID(user.ID),
		testfixtures.WithSessionExpiresAt(now.Add(-time.Minute)),
	).Persistence())
	require.NoError(t, err)

	t.Run("lookup by token", func(t *testing.T) {
		got, err := h.Sessions.GetSession(ctx, live.Token)
		require.NoError(t, err)
		assert.Equal(t, live.ID, got.ID)
		assert.Nil(t, got.RevokedAt)
		assert.True(t, got.ExpiresAt.Equal(live.ExpiresAt))
	})

	t.Run("sessions need an owner", func(t *testing.T) {
		_, err := h.Sessions.CreateSession(ctx, testfixtures.NewSessionFixture().Persistence())
		assert.ErrorIs(t, err, persistence.ErrConstraintViolation)
	})

	t.Run("revocation keeps the first timestamp", func(t *testing.T) {
		first := now.Add(time.Minute)
		revoked, err := h.Sessions.RevokeSession(ctx, live.Token, first)
		require.NoError(t, err)
		require.NotNil(t, revoked.RevokedAt)

		again, err := h.Sessions.RevokeSession(ctx, live.Token, first.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, again.RevokedAt.Equal(first))

		_, err = h.Sessions.RevokeSession(ctx, "missing", first)
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("expired sessions are purged", func(t *testing.T) {
		require.NoError(t, h.Sessions.DeleteExpiredSessions(ctx, now))

		_, err := h.Sessions.GetSession(ctx, stale.Token)
		assert.ErrorIs(t, err, persistence.ErrNotFound)
		_, err = h.Sessions.GetSession(ctx, live.Token)
		assert.NoError(t, err)
	})
}
