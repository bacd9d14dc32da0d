package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/leogadddd/ordura-v2/internal/domain"
	"github.com/leogadddd/ordura-v2/pkg/database"
	apperrors "github.com/leogadddd/ordura-v2/pkg/errors"
)

// DB is the subset of pgxpool.Pool the repositories use. pgxmock pools
// satisfy it as well, so tests can construct repositories directly.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, username, first_name, last_name, password_hash, role, is_active, last_login_at, created_at, updated_at`

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, username, first_name, last_name, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	ctx, end := database.TraceQuery(ctx, "CreateUser", query)
	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.Email,
		u.Username,
		u.FirstName,
		u.LastName,
		u.PasswordHash,
		u.Role,
		u.IsActive,
		u.CreatedAt,
		u.UpdatedAt,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			field, value := "email", u.Email
			if strings.Contains(err.Error(), "username") {
				field, value = "username", u.Username
			}
			return apperrors.AlreadyExists("user", field, value)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`

	return r.scanUser(ctx, "GetUserByID", query, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`

	return r.scanUser(ctx, "GetUserByEmail", query, email)
}

// GetByUsername retrieves a user by their username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1`

	return r.scanUser(ctx, "GetUserByUsername", query, username)
}

// GetByIdentifier retrieves a user whose email or username matches the given
// identifier. Callers normalize the identifier to lower case first.
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 OR username = $1`

	return r.scanUser(ctx, "GetUserByIdentifier", query, identifier)
}

// UpdateLastLogin records the time of the user's most recent login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_login_at = $1, updated_at = $1 WHERE id = $2`

	ctx, end := database.TraceQuery(ctx, "UpdateLastLogin", query)
	ct, err := r.db.Exec(ctx, query, at, id)
	end(err)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// scanUser is a helper that executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, operation, query string, args ...any) (*domain.User, error) {
	var u domain.User

	ctx, end := database.TraceQuery(ctx, operation, query)
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.Role,
		&u.IsActive,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

// --- Session Repository ---

// SessionRepository implements repository.SessionRepository using PostgreSQL.
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new PostgreSQL-backed session repository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new session keyed by the refresh token hash.
func (r *SessionRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	query := `
		INSERT INTO sessions (user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`

	ctx, end := database.TraceQuery(ctx, "CreateSession", query)
	_, err := r.db.Exec(ctx, query, userID, tokenHash, expiresAt, time.Now().UTC())
	end(err)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetByHash retrieves a session by its token hash.
func (r *SessionRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM sessions
		WHERE token_hash = $1`

	var s domain.Session
	ctx, end := database.TraceQuery(ctx, "GetSessionByHash", query)
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&s.ID,
		&s.UserID,
		&s.TokenHash,
		&s.ExpiresAt,
		&s.CreatedAt,
	)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return &s, nil
}

// Delete removes the session with the given token hash. Zero rows affected is
// not an error, logout must stay idempotent.
func (r *SessionRepository) Delete(ctx context.Context, tokenHash string) error {
	query := `DELETE FROM sessions WHERE token_hash = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteSession", query)
	_, err := r.db.Exec(ctx, query, tokenHash)
	end(err)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// DeleteByUserID removes all sessions belonging to the given user.
func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	query := `DELETE FROM sessions WHERE user_id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteSessionsByUser", query)
	_, err := r.db.Exec(ctx, query, userID)
	end(err)
	if err != nil {
		return fmt.Errorf("delete sessions by user: %w", err)
	}

	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
