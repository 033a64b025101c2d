package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/meeting-rooms/internal/application"
	"github.com/example/meeting-rooms/internal/timezone"
)

// DefaultZone is the display zone services are built with unless overridden.
const DefaultZone = "Africa/Nairobi"

// ServiceFactory builds application services sharing one clock, token
// sequence and display zone.
type ServiceFactory struct {
	Clock  *Clock
	Tokens *TokenSequence
	Zone   timezone.Normalizer
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:  NewClock(time.Time{}),
		Tokens: NewTokenSequence(""),
		Zone:   timezone.MustNew(DefaultZone),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.Tokens == nil {
		factory.Tokens = NewTokenSequence("")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithTokens overrides the session token sequence.
func WithTokens(tokens *TokenSequence) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Tokens = tokens
	}
}

// WithZone overrides the display zone.
func WithZone(zone timezone.Normalizer) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Zone = zone
	}
}

func (f *ServiceFactory) now(override func() time.Time) func() time.Time {
	if override != nil {
		return override
	}
	return f.Clock.NowFunc()
}

// RoomServiceDeps captures dependencies for constructing a room service.
type RoomServiceDeps struct {
	Rooms  application.RoomRepository
	Now    func() time.Time
	Logger *slog.Logger
}

// NewRoomService builds a room service using the supplied dependencies.
func (f *ServiceFactory) NewRoomService(deps RoomServiceDeps) *application.RoomService {
	return application.NewRoomServiceWithLogger(deps.Rooms, f.now(deps.Now), deps.Logger)
}

// UserServiceDeps captures dependencies for constructing a user service.
// A nil Hash uses the production argon2id hasher.
type UserServiceDeps struct {
	Users  application.UserRepository
	Hash   application.PasswordHasher
	Now    func() time.Time
	Logger *slog.Logger
}

// NewUserService builds a user service using the supplied dependencies.
func (f *ServiceFactory) NewUserService(deps UserServiceDeps) *application.UserService {
	return application.NewUserServiceWithLogger(deps.Users, deps.Hash, f.now(deps.Now), deps.Logger)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials    application.CredentialStore
	Sessions       application.SessionRepository
	PasswordVerify application.PasswordVerifier
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	token := deps.TokenGenerator
	if token == nil {
		token = f.Tokens.NextFunc()
	}
	return application.NewAuthServiceWithLogger(
		deps.Credentials,
		deps.Sessions,
		deps.PasswordVerify,
		token,
		f.now(deps.Now),
		deps.SessionTTL,
		deps.Logger,
	)
}

// BookingServiceDeps captures dependencies for constructing a booking
// service. Blobs and Notifier may be nil.
type BookingServiceDeps struct {
	Bookings application.BookingRepository
	Rooms    application.RoomRepository
	Blobs    application.BlobStore
	Notifier application.BookingNotifier
	Now      func() time.Time
	Logger   *slog.Logger
}

// NewBookingService builds a booking service in the factory's display zone.
func (f *ServiceFactory) NewBookingService(deps BookingServiceDeps) *application.BookingService {
	return application.NewBookingServiceWithLogger(
		deps.Bookings,
		deps.Rooms,
		deps.Blobs,
		deps.Notifier,
		f.Zone,
		f.now(deps.Now),
		deps.Logger,
	)
}
