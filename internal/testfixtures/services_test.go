package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/meeting-rooms/internal/application"
	"github.com/example/meeting-rooms/internal/timezone"
)

type capturingRoomRepo struct {
	created application.Room
}

func (c *capturingRoomRepo) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	room.ID = 1
	c.created = room
	return room, nil
}

func (c *capturingRoomRepo) GetRoom(ctx context.Context, id int64) (application.Room, error) {
	return application.Room{}, application.ErrNotFound
}

func (c *capturingRoomRepo) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	return room, nil
}

func (c *capturingRoomRepo) DeleteRoom(ctx context.Context, id int64) error { return nil }

func (c *capturingRoomRepo) ListRooms(ctx context.Context) ([]application.Room, error) {
	return nil, nil
}

type fixtureCredentials struct {
	user UserFixture
}

func (f fixtureCredentials) GetUserCredentialsByUsername(ctx context.Context, username string) (application.UserCredentials, error) {
	if username != f.user.Username {
		return application.UserCredentials{}, application.ErrNotFound
	}
	return f.user.Credentials(), nil
}

func (f fixtureCredentials) GetUser(ctx context.Context, id int64) (application.User, error) {
	return f.user.Application(), nil
}

type recordingSessions struct {
	created []application.Session
}

func (r *recordingSessions) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	r.created = append(r.created, session)
	return session, nil
}

func (r *recordingSessions) GetSession(ctx context.Context, token string) (application.Session, error) {
	return application.Session{}, application.ErrNotFound
}

func (r *recordingSessions) RevokeSession(ctx context.Context, token string, at time.Time) (application.Session, error) {
	return application.Session{}, application.ErrNotFound
}

func (r *recordingSessions) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return nil
}

func TestServiceFactoryRoomServiceUsesClock(t *testing.T) {
	t.Parallel()

	factory := NewServiceFactory()
	repo := &capturingRoomRepo{}
	svc := factory.NewRoomService(RoomServiceDeps{Rooms: repo})

	admin := NewUserFixture(WithUserID(9), WithUserAdmin(true))
	room, err := svc.CreateRoom(context.Background(), application.CreateRoomParams{
		Principal: admin.Principal(),
		Input:     NewRoomFixture(WithRoomName("Atrium")).Input(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Atrium", room.Name)
	assert.True(t, repo.created.CreatedAt.Equal(factory.Clock.Now()))
}

func TestServiceFactoryAuthServiceUsesTokenSequence(t *testing.T) {
	t.Parallel()

	factory := NewServiceFactory(WithTokens(NewTokenSequence("sess")))
	user := NewUserFixture(WithUserID(4), WithUserPasswordHash("plain:pw"))
	sessions := &recordingSessions{}

	svc := factory.NewAuthService(AuthServiceDeps{
		Credentials: fixtureCredentials{user: user},
		Sessions:    sessions,
		PasswordVerify: func(hash, password string) error {
			if hash != "plain:"+password {
				return errors.New("mismatch")
			}
			return nil
		},
		SessionTTL: time.Hour,
	})

	result, err := svc.Authenticate(context.Background(), application.AuthenticateParams{Username: user.Username, Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, "sess-1", result.Session.ID)
	assert.Equal(t, "sess-2", result.Session.Token)
	assert.Equal(t, factory.Clock.Now().Add(time.Hour), result.Session.ExpiresAt)
	require.Len(t, sessions.created, 1)
}

func TestServiceFactoryBookingServiceZone(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultZone, NewServiceFactory().NewBookingService(BookingServiceDeps{}).Zone().Name())

	tokyo := timezone.MustNew("Asia/Tokyo")
	svc := NewServiceFactory(WithZone(tokyo)).NewBookingService(BookingServiceDeps{})
	assert.Equal(t, "Asia/Tokyo", svc.Zone().Name())
}

func TestSQLiteHarnessSeed(t *testing.T) {
	t.Parallel()

	h := NewSQLiteHarness(t)
	organizer, admin, room := h.Seed(t)

	assert.Positive(t, organizer.ID)
	assert.True(t, admin.IsAdmin)
	assert.Equal(t, 10, room.Capacity)

	booking := h.InsertBooking(t, NewBookingFixture(WithBookingOrganizer(organizer.ID), WithBookingRoom(room.ID)))
	assert.Equal(t, room.Name, booking.RoomName)
	assert.Equal(t, organizer.Username, booking.OrganizerUsername)
	assert.True(t, booking.Start.Equal(ReferenceTime().Add(24*time.Hour)))
}
