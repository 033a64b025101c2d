// Package sqlite provides the embedded SQLite backend built on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/meeting-rooms/internal/persistence"
	"github.com/example/meeting-rooms/internal/persistence/migration"
	"github.com/example/meeting-rooms/internal/persistence/sqlstore"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage is a SQLite database exposing the persistence repositories.
type Storage struct {
	*sqlstore.Store
	db     *sql.DB
	logger *slog.Logger
}

// Open opens the database at dsn. All access goes through a single
// connection and transactions begin IMMEDIATE, so booking writers are
// serialized by the database itself.
func Open(dsn string, now func() time.Time, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", BuildDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	return &Storage{
		Store:  sqlstore.New(db, Dialect{}, now),
		db:     db,
		logger: logger.With("component", "sqlite"),
	}, nil
}

// BuildDSN adds the pragmas the repositories rely on unless dsn sets them.
func BuildDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	switch dsn {
	case "", ":memory:":
		dsn = "file::memory:"
	}

	var params []string
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if !strings.Contains(dsn, "_txlock") {
		params = append(params, "_txlock=immediate")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
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
		migration.NewSQLExecutor(s.db, migration.QuestionBind),
		s.logger,
	)
	return manager.RunMigrations(ctx)
}

// Dialect implements sqlstore.Dialect for SQLite.
type Dialect struct{}

// Name returns the driver name.
func (Dialect) Name() string { return "sqlite" }

// Bind keeps ? placeholders.
func (Dialect) Bind(query string) string { return migration.QuestionBind(query) }

// Time stores instants as fixed-width UTC text.
func (Dialect) Time(t time.Time) any { return t.UTC().Format(sqlstore.TextTimeLayout) }

// LockRoom only checks that the room exists; the IMMEDIATE transaction
// already holds the database write lock.
func (Dialect) LockRoom() string { return `SELECT id FROM rooms WHERE id = ?` }

// MapError maps SQLite constraint failures to persistence errors.
func (Dialect) MapError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr *sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
		case sqlite3lib.SQLITE_CONSTRAINT_CHECK, sqlite3lib.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "NOT NULL constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return err
}
