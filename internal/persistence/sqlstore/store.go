// Package sqlstore implements the persistence repositories over database/sql.
// The SQLite and PostgreSQL packages supply the Dialect and schema.
package sqlstore

import (
	"database/sql"
	"time"

	"github.com/example/meeting-rooms/internal/persistence"
)

// Store groups the repositories sharing one connection pool.
type Store struct {
	Pool     *ConnectionPool
	Users    *UserRepository
	Rooms    *RoomRepository
	Bookings *BookingRepository
	Sessions *SessionRepository
}

var (
	_ persistence.UserRepository    = (*UserRepository)(nil)
	_ persistence.RoomRepository    = (*RoomRepository)(nil)
	_ persistence.BookingRepository = (*BookingRepository)(nil)
	_ persistence.SessionRepository = (*SessionRepository)(nil)
)

// New builds a Store. A nil now defaults to time.Now.
func New(db *sql.DB, dialect Dialect, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	b := base{pool: NewConnectionPool(db), dialect: dialect, now: now}
	return &Store{
		Pool:     b.pool,
		Users:    &UserRepository{base: b},
		Rooms:    &RoomRepository{base: b},
		Bookings: &BookingRepository{base: b},
		Sessions: &SessionRepository{base: b},
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.Pool.Close()
}

type base struct {
	pool    *ConnectionPool
	dialect Dialect
	now     func() time.Time
}

func (b base) q(query string) string { return b.dialect.Bind(query) }

func (b base) t(t time.Time) any { return b.dialect.Time(t.UTC()) }

func (b base) mapError(err error) error { return mapError(b.dialect, err) }

// nullTime encodes an optional instant.
func (b base) nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return b.t(*t)
}

func rowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
