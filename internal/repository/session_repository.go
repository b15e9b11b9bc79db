package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"budgetbook/api/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// ReplaceForLogin runs the login bookkeeping as one transaction: purge the
// user's expired sessions, evict the oldest active ones until limit-1
// remain, then insert the new session. The user's session rows are locked
// for the duration, so two concurrent logins for the same user cannot
// transiently exceed the limit or double-evict.
func (r *SessionRepository) ReplaceForLogin(ctx context.Context, userID string, session models.Session, limit int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const lockQuery = `
		SELECT id, expires_at FROM sessions
		WHERE user_id = $1
		ORDER BY expires_at DESC
		FOR UPDATE
	`
	rows, err := tx.Query(ctx, lockQuery, userID)
	if err != nil {
		return err
	}

	type sessionRow struct {
		id        string
		expiresAt time.Time
	}
	var existing []sessionRow
	for rows.Next() {
		var row sessionRow
		if err := rows.Scan(&row.id, &row.expiresAt); err != nil {
			rows.Close()
			return err
		}
		existing = append(existing, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	now := time.Now()
	var evict []string
	var active []sessionRow
	for _, row := range existing {
		if row.expiresAt.Before(now) {
			evict = append(evict, row.id)
		} else {
			active = append(active, row)
		}
	}

	// Active rows are ordered newest-expiry first; keep limit-1 of them to
	// make room for exactly one new session.
	if len(active) >= limit {
		for _, row := range active[limit-1:] {
			evict = append(evict, row.id)
		}
	}

	if len(evict) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE id = ANY($1)`, evict); err != nil {
			return err
		}
	}

	const insertQuery = `
		INSERT INTO sessions (id, user_id, hash, created_at, expires_at)
		VALUES ($1, $2, $3, NOW(), $4)
	`
	if _, err := tx.Exec(ctx, insertQuery, session.ID, session.UserID, session.Hash, session.ExpiresAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindLive returns the session with the given hash if it belongs to the
// user and has not expired. Expired rows are simply ignored here; they are
// removed on the user's next login.
func (r *SessionRepository) FindLive(ctx context.Context, userID string, hash string) (models.Session, error) {
	const query = `
		SELECT id, user_id, hash, created_at, expires_at
		FROM sessions
		WHERE user_id = $1 AND hash = $2 AND expires_at > NOW()
	`
	row := r.pool.QueryRow(ctx, query, userID, hash)
	var session models.Session
	if err := row.Scan(&session.ID, &session.UserID, &session.Hash, &session.CreatedAt, &session.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return session, nil
}

// FindLiveByHash looks a session up by hash alone, which is how the refresh
// flow resolves an opaque refresh token to its owner.
func (r *SessionRepository) FindLiveByHash(ctx context.Context, hash string) (models.Session, error) {
	const query = `
		SELECT id, user_id, hash, created_at, expires_at
		FROM sessions
		WHERE hash = $1 AND expires_at > NOW()
	`
	row := r.pool.QueryRow(ctx, query, hash)
	var session models.Session
	if err := row.Scan(&session.ID, &session.UserID, &session.Hash, &session.CreatedAt, &session.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return session, nil
}

func (r *SessionRepository) DeleteByHash(ctx context.Context, hash string) (int64, error) {
	const query = `DELETE FROM sessions WHERE hash = $1`
	cmd, err := r.pool.Exec(ctx, query, hash)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *SessionRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	const query = `DELETE FROM sessions WHERE user_id = $1`
	cmd, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
