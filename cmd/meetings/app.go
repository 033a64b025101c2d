package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/meeting-rooms/internal/application"
	"github.com/example/meeting-rooms/internal/auth"
	"github.com/example/meeting-rooms/internal/config"
	httptransport "github.com/example/meeting-rooms/internal/http"
	"github.com/example/meeting-rooms/internal/notify"
	"github.com/example/meeting-rooms/internal/persistence/postgres"
	"github.com/example/meeting-rooms/internal/persistence/sqlite"
	"github.com/example/meeting-rooms/internal/persistence/sqlstore"
	"github.com/example/meeting-rooms/internal/storage"
	"github.com/example/meeting-rooms/internal/timezone"
)

// database is the part of a storage backend the process manages directly.
type database interface {
	Migrate(ctx context.Context) error
	Close() error
}

// openDatabase opens and migrates the backend selected by cfg.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, now func() time.Time, logger *slog.Logger) (*sqlstore.Store, database, error) {
	var (
		store *sqlstore.Store
		db    database
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		pg, err := postgres.Open(cfg.PostgresDSN, now, logger)
		if err != nil {
			return nil, nil, err
		}
		store, db = pg.Store, pg
	case config.DriverSQLite, "":
		lite, err := sqlite.Open(cfg.SQLiteDSN, now, logger)
		if err != nil {
			return nil, nil, err
		}
		store, db = lite.Store, lite
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return store, db, nil
}

type app struct {
	handler http.Handler
	store   *sqlstore.Store
	closers []func() error
	logger  *slog.Logger
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildApp wires storage, services and handlers for cfg.
func buildApp(ctx context.Context, cfg config.Config, now func() time.Time, logger *slog.Logger) (*app, error) {
	if now == nil {
		now = time.Now
	}

	zone, err := timezone.New(cfg.DisplayZone)
	if err != nil {
		return nil, fmt.Errorf("invalid display zone: %w", err)
	}

	store, db, err := openDatabase(ctx, cfg.Database, now, logger)
	if err != nil {
		return nil, err
	}
	a := &app{store: store, logger: logger, closers: []func() error{db.Close}}

	blobs, err := storage.NewLocalStore(cfg.Media.Root, cfg.Media.MaxUploadBytes, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to prepare media root: %w", err)
	}

	notifier, err := notify.New(cfg.Notify, zone, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to configure notifications: %w", err)
	}
	a.closers = append(a.closers, notifier.Close)

	tokenGenerator := uuid.NewString

	userRepo := newUserRepositoryAdapter(store.Users)
	credentialStore := newCredentialStoreAdapter(store.Users)
	roomRepo := newRoomRepositoryAdapter(store.Rooms)
	bookingRepo := newBookingRepositoryAdapter(store.Bookings)
	sessionRepo := newSessionRepositoryAdapter(store.Sessions)

	authService := application.NewAuthServiceWithLogger(credentialStore, sessionRepo, nil, tokenGenerator, now, cfg.Auth.SessionTTL, logger)
	userService := application.NewUserServiceWithLogger(userRepo, nil, now, logger)
	roomService := application.NewRoomServiceWithLogger(roomRepo, now, logger)
	bookingService := application.NewBookingServiceWithLogger(bookingRepo, roomRepo, blobs, notifier, zone, now, logger)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL, now)

	secureCookies := cfg.IsProduction()
	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Auth:       httptransport.NewAuthHandler(authService, issuer, secureCookies, logger),
		Users:      httptransport.NewUserHandler(userService, authService, secureCookies, logger),
		Rooms:      httptransport.NewRoomHandler(roomService, logger),
		Bookings:   httptransport.NewBookingHandler(bookingService, cfg.Media.MaxUploadBytes, now, logger),
		Sessions:   authService,
		Tokens:     issuer,
		Logger:     logger,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	if err := sessionRepo.DeleteExpiredSessions(ctx, now()); err != nil {
		logger.WarnContext(ctx, "failed to purge expired sessions", "error", err)
	}
	return a, nil
}
