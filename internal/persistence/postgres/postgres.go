// Package postgres provides the PostgreSQL backend built on lib/pq.
//
// Overlapping bookings are prevented twice: the booking workflow locks the
// room row with SELECT ... FOR UPDATE before checking for conflicts, and the
// bookings table carries a btree_gist exclusion constraint that rejects any
// overlap the workflow did not see.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/example/meeting-rooms/internal/persistence"
	"github.com/example/meeting-rooms/internal/persistence/migration"
	"github.com/example/meeting-rooms/internal/persistence/sqlstore"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// PostgreSQL error codes handled by MapError.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeExclusionViolation  = "23P01"
)

// Storage is a PostgreSQL database exposing the persistence repositories.
type Storage struct {
	*sqlstore.Store
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to the database described by dsn.
func Open(dsn string, now func() time.Time, logger *slog.Logger) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	return New(db, now, logger), nil
}

// New wraps an already open handle.
func New(db *sql.DB, now func() time.Time, logger *slog.Logger) *Storage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Storage{
		Store:  sqlstore.New(db, Dialect{}, now),
		db:     db,
		logger: logger.With("component", "postgres"),
	}
}

// DB returns the underlying handle.
func (s *Storage) DB() *sql.DB {
	return s.db
}

// Close releases the database handle.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewSQLExecutor(s.db, migration.DollarBind),
		s.logger,
	)
	return manager.RunMigrations(ctx)
}

// Dialect implements sqlstore.Dialect for PostgreSQL.
type Dialect struct{}

func (Dialect) Name() string { return "postgres" }

func (Dialect) Bind(query string) string { return migration.DollarBind(query) }

func (Dialect) Time(t time.Time) any { return t.UTC() }

func (Dialect) LockRoom() string { return `SELECT id FROM rooms WHERE id = ? FOR UPDATE` }

// MapError maps PostgreSQL integrity violations to persistence errors.
func (Dialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case codeExclusionViolation:
		return fmt.Errorf("%w: %v", persistence.ErrOverlap, err)
	case codeUniqueViolation:
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
	case codeCheckViolation, codeNotNullViolation:
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return err
}
