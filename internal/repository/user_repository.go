package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/movie-service/internal/domain"
)

// UserRepository is the Postgres-backed user directory.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	LookupByUsername(ctx context.Context, username string) (*domain.User, error)
	LookupByID(ctx context.Context, id string) (*domain.User, error)
	UpdateTokens(ctx context.Context, id string, update domain.TokenUpdate) error
	SetVerified(ctx context.Context, id string) error
}

type userRepository struct {
	pool PgxPool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool PgxPool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id::text, username, email, password_hash, role,
        COALESCE(access_token, ''), COALESCE(refresh_token, ''), refresh_expires_at,
        active, verified, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, email, password_hash, role, access_token, refresh_token, refresh_expires_at, active, verified)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)
        RETURNING id::text, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.AccessToken,
		user.RefreshToken,
		user.RefreshExpiresAt,
		user.Active,
		user.Verified,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// ExistsByUsernameOrEmail reports whether either identifier is already taken.
func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (r *userRepository) LookupByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.lookup(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepository) LookupByID(ctx context.Context, id string) (*domain.User, error) {
	return r.lookup(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) lookup(ctx context.Context, query string, arg string) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.AccessToken,
		&user.RefreshToken,
		&user.RefreshExpiresAt,
		&user.Active,
		&user.Verified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	user.Role = domain.Role(role)
	return &user, nil
}

// UpdateTokens replaces the stored credentials. Empty tokens are stored as NULL.
func (r *userRepository) UpdateTokens(ctx context.Context, id string, update domain.TokenUpdate) error {
	const query = `
        UPDATE users
        SET access_token = NULLIF($1, ''), refresh_token = NULLIF($2, ''),
            refresh_expires_at = $3, active = $4, updated_at = NOW()
        WHERE id = $5`

	cmd, err := r.pool.Exec(ctx, query,
		update.AccessToken,
		update.RefreshToken,
		update.RefreshExpiresAt,
		update.Active,
		id,
	)
	if err != nil {
		return fmt.Errorf("update tokens: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) SetVerified(ctx context.Context, id string) error {
	const query = `UPDATE users SET verified = TRUE, updated_at = NOW() WHERE id = $1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("set verified: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
