package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/meeting-rooms/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository.
type RoomRepository struct {
	base
}

const roomColumns = `id, name, location, capacity, created_at`

// CreateRoom inserts a room and returns it with its generated id.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	room.Name = strings.TrimSpace(room.Name)
	if room.Name == "" || room.Capacity <= 0 {
		return persistence.Room{}, persistence.ErrConstraintViolation
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = r.now()
	}
	room.CreatedAt = room.CreatedAt.UTC()

	err := r.pool.DB().QueryRowContext(ctx, r.q(`
		INSERT INTO rooms (name, location, capacity, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`),
		room.Name, nullString(room.Location), room.Capacity, r.t(room.CreatedAt),
	).Scan(&room.ID)
	if err != nil {
		return persistence.Room{}, r.mapError(err)
	}
	return room, nil
}

// UpdateRoom updates the mutable fields of a room.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	room.Name = strings.TrimSpace(room.Name)
	if room.ID <= 0 {
		return persistence.Room{}, persistence.ErrNotFound
	}
	if room.Name == "" || room.Capacity <= 0 {
		return persistence.Room{}, persistence.ErrConstraintViolation
	}

	res, err := r.pool.DB().ExecContext(ctx, r.q(`UPDATE rooms SET name = ?, location = ?, capacity = ? WHERE id = ?`),
		room.Name, nullString(room.Location), room.Capacity, room.ID)
	if err != nil {
		return persistence.Room{}, r.mapError(err)
	}
	if err := rowsAffected(res); err != nil {
		return persistence.Room{}, err
	}
	return r.GetRoom(ctx, room.ID)
}

// GetRoom retrieves a room by id.
func (r *RoomRepository) GetRoom(ctx context.Context, id int64) (persistence.Room, error) {
	if id <= 0 {
		return persistence.Room{}, persistence.ErrNotFound
	}
	var room persistence.Room
	var location sql.NullString
	err := r.pool.DB().QueryRowContext(ctx, r.q(`SELECT `+roomColumns+` FROM rooms WHERE id = ?`), id).
		Scan(&room.ID, &room.Name, &location, &room.Capacity, timeColumn{&room.CreatedAt})
	if err != nil {
		return persistence.Room{}, r.mapError(err)
	}
	room.Location = stringPtr(location)
	return room, nil
}

// ListRooms returns all rooms ordered by name then id.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, r.mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		var room persistence.Room
		var location sql.NullString
		if err := rows.Scan(&room.ID, &room.Name, &location, &room.Capacity, timeColumn{&room.CreatedAt}); err != nil {
			return nil, r.mapError(err)
		}
		room.Location = stringPtr(location)
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapError(err)
	}
	return rooms, nil
}

// DeleteRoom removes a room. Its bookings are removed by the foreign key cascade.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id int64) error {
	if id <= 0 {
		return persistence.ErrNotFound
	}
	res, err := r.pool.DB().ExecContext(ctx, r.q(`DELETE FROM rooms WHERE id = ?`), id)
	if err != nil {
		return r.mapError(err)
	}
	return rowsAffected(res)
}
