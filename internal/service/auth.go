package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/leogadddd/ordura-v2/internal/auth"
	"github.com/leogadddd/ordura-v2/internal/domain"
	"github.com/leogadddd/ordura-v2/internal/repository"
	apperrors "github.com/leogadddd/ordura-v2/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 10

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// invalidCredentials is the single message returned for every login failure
// mode so callers cannot tell which accounts exist.
const invalidCredentials = "invalid credentials"

// dummyPasswordHash is compared against when login hits an unknown
// identifier, keeping the missing-user path as slow as the wrong-password
// path.
var dummyPasswordHash, _ = bcrypt.GenerateFromPassword([]byte("ordura-timing-equalizer"), bcryptCost)

// AuthEventPublisher publishes user lifecycle events.
type AuthEventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishUserLoggedIn(ctx context.Context, user *domain.User) error
}

// AuthService implements registration, login, and session lifecycle logic.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	jwtManager *auth.JWTManager
	events     AuthEventPublisher
	logger     *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	jwtManager *auth.JWTManager,
	events AuthEventPublisher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwtManager: jwtManager,
		events:     events,
		logger:     logger,
	}
}

// RegisterInput holds the parameters for registering a new user. FirstName
// and LastName are optional profile fields.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// LoginInput holds the parameters for user login. Identifier matches either
// the email address or the username.
type LoginInput struct {
	Identifier string
	Password   string
}

// Register creates a new user account, hashes the password, opens a session,
// and returns the user with a token pair.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.ToLower(strings.TrimSpace(input.Username))

	if email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if username == "" {
		return nil, nil, apperrors.InvalidInput("username is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	// Self-registration always yields a staff account. Admin roles are
	// assigned out of band, never through this endpoint.
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		FirstName:    optionalName(input.FirstName),
		LastName:     optionalName(input.LastName),
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleStaff,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("open session: %w", err)
	}

	// Event publishing is best-effort; registration already succeeded.
	if err := s.events.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, tokens, nil
}

// Login authenticates a user by email or username plus password. Unknown
// identifier, deactivated account, and wrong password are indistinguishable
// to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	identifier := strings.ToLower(strings.TrimSpace(input.Identifier))

	if identifier == "" {
		return nil, nil, apperrors.InvalidInput("identifier is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		// Burn a bcrypt compare so this path takes as long as a real one.
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(input.Password))
		return nil, nil, apperrors.Unauthorized(invalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized(invalidCredentials)
	}

	if !user.IsActive {
		return nil, nil, apperrors.Unauthorized(invalidCredentials)
	}

	tokens, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("open session: %w", err)
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.ErrorContext(ctx, "failed to record last login",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	} else {
		user.LastLoginAt = &now
	}

	if err := s.events.PublishUserLoggedIn(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.logged_in event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, tokens, nil
}

// Refresh validates a refresh token against its stored session and issues a
// new access token. The refresh token itself is left untouched; the session
// keeps its original expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperrors.Unauthorized("refresh token is required")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.Unauthorized("invalid or expired refresh token")
	}

	session, err := s.sessions.GetByHash(ctx, hashToken(refreshToken))
	if err != nil {
		return "", apperrors.Unauthorized("invalid or expired refresh token")
	}

	if session.Expired(time.Now().UTC()) {
		// Expired sessions are dead weight; clean up before rejecting.
		if err := s.sessions.Delete(ctx, session.TokenHash); err != nil {
			s.logger.ErrorContext(ctx, "failed to delete expired session",
				slog.String("user_id", session.UserID),
				slog.String("error", err.Error()),
			)
		}
		return "", apperrors.Unauthorized("invalid or expired refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", apperrors.Unauthorized("invalid or expired refresh token")
	}
	if !user.IsActive {
		return "", apperrors.Unauthorized("invalid or expired refresh token")
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}

	s.logger.InfoContext(ctx, "access token refreshed",
		slog.String("user_id", user.ID),
	)

	return accessToken, nil
}

// Logout removes the session for the given refresh token. It never fails on
// missing or unrecognized tokens; logging out twice is a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	if err := s.sessions.Delete(ctx, hashToken(refreshToken)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// CurrentUser retrieves the authenticated user's record.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return user, nil
}

// ValidateAccessToken verifies an access token and returns its claims. Used
// by the HTTP auth middleware.
func (s *AuthService) ValidateAccessToken(token string) (*auth.Claims, error) {
	return s.jwtManager.ValidateAccessToken(token)
}

// --- Helpers ---

// openSession creates an access/refresh token pair and stores the session
// keyed by the refresh token hash.
func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.jwtManager.RefreshExpiry())
	if err := s.sessions.Create(ctx, user.ID, hashToken(refreshToken), expiresAt); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// hashToken returns the SHA256 hex digest of the given token string.
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// optionalName trims a profile name and maps the empty string to nil.
func optionalName(name string) *string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &name
}

// validatePassword checks the minimum password length.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}
