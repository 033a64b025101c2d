package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/meeting-rooms/internal/persistence"
)

// Dialect isolates the differences between the supported SQL backends.
// Queries in this package are written with ? placeholders and rebound by
// the dialect before execution.
type Dialect interface {
	Name() string
	Bind(query string) string
	// Time converts an instant to the value stored in timestamp columns.
	Time(t time.Time) any
	// LockRoom returns a query selecting the room id that also takes an
	// exclusive lock on the room for the rest of the transaction.
	LockRoom() string
	// MapError converts driver errors into persistence sentinels. Errors the
	// dialect does not recognise are returned unchanged.
	MapError(err error) error
}

func mapError(d Dialect, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}
	return d.MapError(err)
}

// TextTimeLayout is the fixed-width UTC layout used by backends that store
// instants as text. Fixed width keeps lexical and chronological order equal.
const TextTimeLayout = "2006-01-02T15:04:05.000000000Z"

// timeColumn scans timestamp columns returned either as time.Time or as text.
type timeColumn struct{ dst *time.Time }

func (c timeColumn) Scan(src any) error {
	t, err := parseTimeValue(src)
	if err != nil {
		return err
	}
	*c.dst = t
	return nil
}

// nullTimeColumn is timeColumn for nullable columns.
type nullTimeColumn struct{ dst **time.Time }

func (c nullTimeColumn) Scan(src any) error {
	if src == nil {
		*c.dst = nil
		return nil
	}
	t, err := parseTimeValue(src)
	if err != nil {
		return err
	}
	*c.dst = &t
	return nil
}

func parseTimeValue(src any) (time.Time, error) {
	switch v := src.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		return parseTimeText(v)
	case []byte:
		return parseTimeText(string(v))
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp value %T", src)
	}
}

func parseTimeText(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
