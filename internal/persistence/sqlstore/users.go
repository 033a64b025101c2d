package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/meeting-rooms/internal/persistence"
)

// UserRepository implements persistence.UserRepository.
type UserRepository struct {
	base
}

const userColumns = `id, username, email, password_hash, is_admin, created_at`

// CreateUser inserts a user and returns it with its generated id.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	user.Email = strings.TrimSpace(user.Email)
	if user.Username == "" || user.PasswordHash == "" {
		return persistence.User{}, persistence.ErrConstraintViolation
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}
	user.CreatedAt = user.CreatedAt.UTC()

	err := r.pool.DB().QueryRowContext(ctx, r.q(`
		INSERT INTO users (username, email, password_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		user.Username, user.Email, user.PasswordHash, user.IsAdmin, r.t(user.CreatedAt),
	).Scan(&user.ID)
	if err != nil {
		return persistence.User{}, r.mapError(err)
	}
	return user, nil
}

// GetUser retrieves a user by id.
func (r *UserRepository) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	if id <= 0 {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, r.q(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	return r.scan(row)
}

// GetUserByUsername retrieves a user by username, ignoring case.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx,
		r.q(`SELECT `+userColumns+` FROM users WHERE lower(username) = lower(?)`), username)
	return r.scan(row)
}

func (r *UserRepository) scan(row *sql.Row) (persistence.User, error) {
	var u persistence.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, timeColumn{&u.CreatedAt}); err != nil {
		return persistence.User{}, r.mapError(err)
	}
	return u, nil
}
