package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/example/meeting-rooms/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository.
type SessionRepository struct {
	base
}

const sessionColumns = `id, user_id, token, expires_at, created_at, revoked_at`

// CreateSession stores a new session token for a user
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	session.Token = strings.TrimSpace(session.Token)
	if session.ID == "" || session.UserID <= 0 || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.now()
	}
	session.CreatedAt = session.CreatedAt.UTC()
	session.ExpiresAt = session.ExpiresAt.UTC()

	_, err := r.pool.DB().ExecContext(ctx, r.q(`
		INSERT INTO sessions (id, user_id, token, expires_at, created_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		session.ID, session.UserID, session.Token, r.t(session.ExpiresAt), r.t(session.CreatedAt), r.nullTime(session.RevokedAt),
	)
	if err != nil {
		return persistence.Session{}, r.mapError(err)
	}
	return session, nil
}

// GetSession retrieves a session by its token value
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	var s persistence.Session
	err := r.pool.DB().QueryRowContext(ctx, r.q(`SELECT `+sessionColumns+` FROM sessions WHERE token = ?`), token).
		Scan(&s.ID, &s.UserID, &s.Token, timeColumn{&s.ExpiresAt}, timeColumn{&s.CreatedAt}, nullTimeColumn{&s.RevokedAt})
	if err != nil {
		return persistence.Session{}, r.mapError(err)
	}
	return s, nil
}

// RevokeSession marks a session as revoked. Revoking twice keeps the first
// revocation time.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	res, err := r.pool.DB().ExecContext(ctx,
		r.q(`UPDATE sessions SET revoked_at = COALESCE(revoked_at, ?) WHERE token = ?`),
		r.t(revokedAt), token)
	if err != nil {
		return persistence.Session{}, r.mapError(err)
	}
	if err := rowsAffected(res); err != nil {
		return persistence.Session{}, err
	}
	return r.GetSession(ctx, token)
}

// DeleteExpiredSessions removes sessions that expired on or before reference.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.pool.DB().ExecContext(ctx, r.q(`DELETE FROM sessions WHERE expires_at <= ?`), r.t(reference))
	return r.mapError(err)
}
