package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/meeting-rooms/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository.
type BookingRepository struct {
	base
}

const bookingSelect = `
	SELECT b.id, b.title, b.description, b.organizer_id, b.room_id, b.start_time, b.end_time,
	       b.is_active, b.minutes_key, b.minutes_name, b.minutes_content_type, b.minutes_size,
	       b.created_at, r.name, u.username, u.email
	FROM bookings b
	JOIN rooms r ON r.id = b.room_id
	JOIN users u ON u.id = b.organizer_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		b                       persistence.Booking
		description             sql.NullString
		minutesKey, minutesName sql.NullString
		minutesType             sql.NullString
		minutesSize             sql.NullInt64
	)
	err := row.Scan(
		&b.ID, &b.Title, &description, &b.OrganizerID, &b.RoomID,
		timeColumn{&b.Start}, timeColumn{&b.End},
		&b.IsActive, &minutesKey, &minutesName, &minutesType, &minutesSize,
		timeColumn{&b.CreatedAt}, &b.RoomName, &b.OrganizerUsername, &b.OrganizerEmail,
	)
	if err != nil {
		return persistence.Booking{}, err
	}
	b.Description = stringPtr(description)
	if minutesKey.Valid && minutesKey.String != "" {
		b.Minutes = &persistence.Attachment{
			Key:         minutesKey.String,
			FileName:    minutesName.String,
			ContentType: minutesType.String,
			Size:        minutesSize.Int64,
		}
	}
	return b, nil
}

func (r *BookingRepository) getBooking(ctx context.Context, db queryer, id int64) (persistence.Booking, error) {
	if id <= 0 {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	b, err := scanBooking(db.QueryRowContext(ctx, r.q(bookingSelect+` WHERE b.id = ?`), id))
	if err != nil {
		return persistence.Booking{}, r.mapError(err)
	}
	return b, nil
}

func (r *BookingRepository) listBookings(ctx context.Context, db queryer, query string, args ...any) ([]persistence.Booking, error) {
	rows, err := db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, r.mapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, r.mapError(err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapError(err)
	}
	return bookings, nil
}

// GetBooking retrieves a booking with its room and organizer names.
func (r *BookingRepository) GetBooking(ctx context.Context, id int64) (persistence.Booking, error) {
	return r.getBooking(ctx, r.pool.DB(), id)
}

// ListBookings returns bookings ordered by start descending then id descending.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	if filter.OrganizerID > 0 {
		return r.listBookings(ctx, r.pool.DB(),
			bookingSelect+` WHERE b.organizer_id = ? ORDER BY b.start_time DESC, b.id DESC`, filter.OrganizerID)
	}
	return r.listBookings(ctx, r.pool.DB(), bookingSelect+` ORDER BY b.start_time DESC, b.id DESC`)
}

// DeleteBooking removes a booking.
func (r *BookingRepository) DeleteBooking(ctx context.Context, id int64) error {
	if id <= 0 {
		return persistence.ErrNotFound
	}
	res, err := r.pool.DB().ExecContext(ctx, r.q(`DELETE FROM bookings WHERE id = ?`), id)
	if err != nil {
		return r.mapError(err)
	}
	return rowsAffected(res)
}

// WithRoomLock runs fn inside a transaction holding the room lock.
func (r *BookingRepository) WithRoomLock(ctx context.Context, roomID int64, fn func(tx persistence.BookingTx) error) error {
	if roomID <= 0 {
		return persistence.ErrNotFound
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var locked int64
		if err := tx.QueryRowContext(ctx, r.q(r.dialect.LockRoom()), roomID).Scan(&locked); err != nil {
			return r.mapError(err)
		}
		return fn(&bookingTx{repo: r, tx: tx})
	})
}

type bookingTx struct {
	repo *BookingRepository
	tx   *sql.Tx
}

// OverlappingBookings returns bookings in the room intersecting [start, end).
func (t *bookingTx) OverlappingBookings(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]persistence.Booking, error) {
	r := t.repo
	return r.listBookings(ctx, t.tx, bookingSelect+`
		WHERE b.room_id = ? AND b.start_time < ? AND b.end_time > ? AND b.id <> ?
		ORDER BY b.start_time ASC, b.id ASC`,
		roomID, r.t(end), r.t(start), excludeID)
}

// InsertBooking stores a new booking.
func (t *bookingTx) InsertBooking(ctx context.Context, b persistence.Booking) (persistence.Booking, error) {
	r := t.repo
	if err := validBooking(b); err != nil {
		return persistence.Booking{}, err
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.now()
	}

	key, name, contentType, size := minutesColumns(b.Minutes)
	var id int64
	err := t.tx.QueryRowContext(ctx, r.q(`
		INSERT INTO bookings (title, description, organizer_id, room_id, start_time, end_time, is_active,
		                      minutes_key, minutes_name, minutes_content_type, minutes_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		strings.TrimSpace(b.Title), nullString(b.Description), b.OrganizerID, b.RoomID,
		r.t(b.Start), r.t(b.End), b.IsActive,
		key, name, contentType, size, r.t(b.CreatedAt),
	).Scan(&id)
	if err != nil {
		return persistence.Booking{}, r.mapError(err)
	}
	return r.getBooking(ctx, t.tx, id)
}

// UpdateBooking rewrites the mutable fields of a booking. The organizer and
// creation time are never changed.
func (t *bookingTx) UpdateBooking(ctx context.Context, b persistence.Booking) (persistence.Booking, error) {
	r := t.repo
	if b.ID <= 0 {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	if err := validBooking(b); err != nil {
		return persistence.Booking{}, err
	}

	key, name, contentType, size := minutesColumns(b.Minutes)
	res, err := t.tx.ExecContext(ctx, r.q(`
		UPDATE bookings
		SET title = ?, description = ?, room_id = ?, start_time = ?, end_time = ?, is_active = ?,
		    minutes_key = ?, minutes_name = ?, minutes_content_type = ?, minutes_size = ?
		WHERE id = ?`),
		strings.TrimSpace(b.Title), nullString(b.Description), b.RoomID, r.t(b.Start), r.t(b.End), b.IsActive,
		key, name, contentType, size, b.ID,
	)
	if err != nil {
		return persistence.Booking{}, r.mapError(err)
	}
	if err := rowsAffected(res); err != nil {
		return persistence.Booking{}, err
	}
	return r.getBooking(ctx, t.tx, b.ID)
}

func validBooking(b persistence.Booking) error {
	if strings.TrimSpace(b.Title) == "" || b.OrganizerID <= 0 || b.RoomID <= 0 {
		return persistence.ErrConstraintViolation
	}
	if !b.End.After(b.Start) {
		return persistence.ErrConstraintViolation
	}
	return nil
}

func minutesColumns(a *persistence.Attachment) (key, name, contentType sql.NullString, size sql.NullInt64) {
	if a == nil || a.Key == "" {
		return
	}
	return sql.NullString{String: a.Key, Valid: true},
		sql.NullString{String: a.FileName, Valid: true},
		sql.NullString{String: a.ContentType, Valid: true},
		sql.NullInt64{Int64: a.Size, Valid: true}
}
