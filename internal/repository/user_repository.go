package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"budgetbook/api/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrUsernameTaken      = errors.New("username already exists")
)

const uniqueViolationCode = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateWithCredential inserts the user and its password credential in one
// transaction. The username unique constraint is the authoritative guard
// against duplicate registrations; a violation maps to ErrUsernameTaken so
// the caller reports it the same way as the pre-check.
func (r *UserRepository) CreateWithCredential(ctx context.Context, user models.User, cred models.Credential) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const userQuery = `
		INSERT INTO users (id, display_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	if _, err := tx.Exec(ctx, userQuery, user.ID, user.DisplayName, user.Status); err != nil {
		return err
	}

	const credQuery = `
		INSERT INTO user_credentials (user_id, username, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	if _, err := tx.Exec(ctx, credQuery, cred.UserID, cred.Username, cred.PasswordHash); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrUsernameTaken
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *UserRepository) FindCredential(ctx context.Context, username string) (models.Credential, error) {
	const query = `
		SELECT user_id, username, password_hash, created_at
		FROM user_credentials WHERE username = $1
	`
	row := r.pool.QueryRow(ctx, query, username)
	var cred models.Credential
	if err := row.Scan(&cred.UserID, &cred.Username, &cred.PasswordHash, &cred.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Credential{}, ErrCredentialNotFound
		}
		return models.Credential{}, err
	}
	return cred, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	const query = `
		SELECT id, display_name, status, created_at, updated_at
		FROM users WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	var user models.User
	if err := row.Scan(&user.ID, &user.DisplayName, &user.Status, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) UpdateDisplayName(ctx context.Context, id string, displayName string) (models.User, error) {
	const query = `
		UPDATE users SET display_name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, display_name, status, created_at, updated_at
	`
	row := r.pool.QueryRow(ctx, query, id, displayName)
	var user models.User
	if err := row.Scan(&user.ID, &user.DisplayName, &user.Status, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
