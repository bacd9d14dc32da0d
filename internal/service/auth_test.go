package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/leogadddd/ordura-v2/internal/auth"
	"github.com/leogadddd/ordura-v2/internal/domain"
	apperrors "github.com/leogadddd/ordura-v2/pkg/errors"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// --- Mock Session Repository ---

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *mockSessionRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepository) Delete(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *mockSessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Mock Event Publisher ---

type mockAuthPublisher struct {
	mock.Mock
}

func (m *mockAuthPublisher) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockAuthPublisher) PublishUserLoggedIn(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Fixtures ---

type authFixture struct {
	users    *mockUserRepository
	sessions *mockSessionRepository
	events   *mockAuthPublisher
	jwt      *auth.JWTManager
	svc      *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    new(mockUserRepository),
		sessions: new(mockSessionRepository),
		events:   new(mockAuthPublisher),
		jwt:      auth.NewJWTManager("test-secret-at-least-32-characters!!", 15*time.Minute, 7*24*time.Hour),
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	f.svc = NewAuthService(f.users, f.sessions, f.jwt, f.events, logger)
	return f
}

// hashForTest uses a low bcrypt cost to keep the suite fast.
func hashForTest(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func activeUser(t *testing.T) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	return &domain.User{
		ID:           "7f3b2c1d-0000-4000-8000-000000000001",
		Email:        "cashier@ordura.dev",
		Username:     "cashier1",
		PasswordHash: hashForTest(t, "correct-horse-battery"),
		Role:         domain.RoleStaff,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// --- Register ---

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthFixture(t)

	f.users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	f.sessions.On("Create", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
	f.events.On("PublishUserRegistered", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	user, tokens, err := f.svc.Register(context.Background(), RegisterInput{
		Email:     "  Cashier@Ordura.DEV ",
		Username:  "Cashier1",
		Password:  "correct-horse-battery",
		FirstName: " Alice ",
		LastName:  "Liddell",
	})

	require.NoError(t, err)
	assert.Equal(t, "cashier@ordura.dev", user.Email)
	assert.Equal(t, "cashier1", user.Username)
	require.NotNil(t, user.FirstName)
	assert.Equal(t, "Alice", *user.FirstName)
	require.NotNil(t, user.LastName)
	assert.Equal(t, "Liddell", *user.LastName)
	assert.Equal(t, domain.RoleStaff, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "correct-horse-battery", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse-battery")))
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	f.users.AssertExpectations(t)
	f.sessions.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestAuthService_Register_ShortPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.svc.Register(context.Background(), RegisterInput{
		Email:    "a@b.co",
		Username: "shorty",
		Password: "secret",
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Register_OmittedNamesStayNil(t *testing.T) {
	f := newAuthFixture(t)

	f.users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	f.sessions.On("Create", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
	f.events.On("PublishUserRegistered", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	user, _, err := f.svc.Register(context.Background(), RegisterInput{
		Email:    "a@b.co",
		Username: "cashier1",
		Password: "long-enough-pass",
		LastName: "   ",
	})

	require.NoError(t, err)
	assert.Nil(t, user.FirstName)
	assert.Nil(t, user.LastName)
	assert.Equal(t, domain.RoleStaff, user.Role)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)

	f.users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Return(apperrors.AlreadyExists("user", "email", "cashier@ordura.dev"))

	_, _, err := f.svc.Register(context.Background(), RegisterInput{
		Email:    "cashier@ordura.dev",
		Username: "cashier1",
		Password: "long-enough-pass",
	})

	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Register_PublishFailureDoesNotFail(t *testing.T) {
	f := newAuthFixture(t)

	f.users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	f.sessions.On("Create", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
	f.events.On("PublishUserRegistered", mock.Anything, mock.AnythingOfType("*domain.User")).
		Return(assert.AnError)

	_, tokens, err := f.svc.Register(context.Background(), RegisterInput{
		Email:    "cashier@ordura.dev",
		Username: "cashier1",
		Password: "long-enough-pass",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
}

// --- Login ---

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture(t)
	user := activeUser(t)

	f.users.On("GetByIdentifier", mock.Anything, "cashier1").Return(user, nil)
	f.sessions.On("Create", mock.Anything, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
	f.users.On("UpdateLastLogin", mock.Anything, user.ID, mock.AnythingOfType("time.Time")).Return(nil)
	f.events.On("PublishUserLoggedIn", mock.Anything, user).Return(nil)

	got, tokens, err := f.svc.Login(context.Background(), LoginInput{
		Identifier: "Cashier1",
		Password:   "correct-horse-battery",
	})

	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	require.NotNil(t, got.LastLoginAt)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	f.users.AssertExpectations(t)
	f.sessions.AssertExpectations(t)
}

func TestAuthService_Login_FailureModesIndistinguishable(t *testing.T) {
	unknown := func(f *authFixture) {
		f.users.On("GetByIdentifier", mock.Anything, "ghost").
			Return(nil, apperrors.NotFound("user", "ghost"))
	}
	wrongPassword := func(f *authFixture) {
		u := activeUser(t)
		u.Username = "ghost"
		f.users.On("GetByIdentifier", mock.Anything, "ghost").Return(u, nil)
	}
	inactive := func(f *authFixture) {
		u := activeUser(t)
		u.Username = "ghost"
		u.PasswordHash = hashForTest(t, "whatever-password")
		u.IsActive = false
		f.users.On("GetByIdentifier", mock.Anything, "ghost").Return(u, nil)
	}

	cases := map[string]func(*authFixture){
		"unknown identifier":  unknown,
		"wrong password":      wrongPassword,
		"deactivated account": inactive,
	}

	var messages []string
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			f := newAuthFixture(t)
			setup(f)

			_, _, err := f.svc.Login(context.Background(), LoginInput{
				Identifier: "ghost",
				Password:   "whatever-password",
			})

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			messages = append(messages, appErr.Message)
			f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}

	// Every failure mode yields the same message.
	require.Len(t, messages, 3)
	assert.Equal(t, messages[0], messages[1])
	assert.Equal(t, messages[1], messages[2])
}

func TestAuthService_Login_WrongPasswordForInactiveAccount(t *testing.T) {
	f := newAuthFixture(t)
	user := activeUser(t)
	user.IsActive = false

	f.users.On("GetByIdentifier", mock.Anything, "cashier1").Return(user, nil)

	_, _, err := f.svc.Login(context.Background(), LoginInput{
		Identifier: "cashier1",
		Password:   "not-the-password",
	})

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_Login_LastLoginFailureDoesNotFail(t *testing.T) {
	f := newAuthFixture(t)
	user := activeUser(t)

	f.users.On("GetByIdentifier", mock.Anything, "cashier1").Return(user, nil)
	f.sessions.On("Create", mock.Anything, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
	f.users.On("UpdateLastLogin", mock.Anything, user.ID, mock.AnythingOfType("time.Time")).Return(assert.AnError)
	f.events.On("PublishUserLoggedIn", mock.Anything, user).Return(nil)

	got, _, err := f.svc.Login(context.Background(), LoginInput{
		Identifier: "cashier1",
		Password:   "correct-horse-battery",
	})

	require.NoError(t, err)
	assert.Nil(t, got.LastLoginAt)
}

// --- Refresh ---

func TestAuthService_Refresh_IssuesNewAccessTokenOnly(t *testing.T) {
	f := newAuthFixture(t)
	user := activeUser(t)

	refreshToken, err := f.jwt.GenerateRefreshToken(user)
	require.NoError(t, err)

	session := &domain.Session{
		ID:        "s-1",
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	f.sessions.On("GetByHash", mock.Anything, hashToken(refreshToken)).Return(session, nil)
	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	accessToken, err := f.svc.Refresh(context.Background(), refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)

	claims, err := f.jwt.ValidateAccessToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Role, claims.Role)

	// The session row is untouched; the refresh token is not rotated.
	f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.sessions.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	user := activeUser(t)

	accessToken, err := f.jwt.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), accessToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	f.sessions.AssertNotCalled(t, "GetByHash", mock.Anything, mock.Anything)
}

func TestAuthService_Refresh_MissingSession(t *testing.T) {
	f := newAuthFixture(t)
	user := activeUser(t)

	refreshToken, err := f.jwt.GenerateRefreshToken(user)
	require.NoError(t, err)

	f.sessions.On("GetByHash", mock.Anything, hashToken(refreshToken)).
		Return(nil, apperrors.NotFound("session", "unknown"))

	_, err = f.svc.Refresh(context.Background(), refreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_Refresh_ExpiredSessionIsDeleted(t *testing.T) {
	f := newAuthFixture(t)
	user := activeUser(t)

	refreshToken, err := f.jwt.GenerateRefreshToken(user)
	require.NoError(t, err)

	session := &domain.Session{
		ID:        "s-1",
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	f.sessions.On("GetByHash", mock.Anything, session.TokenHash).Return(session, nil)
	f.sessions.On("Delete", mock.Anything, session.TokenHash).Return(nil)

	_, err = f.svc.Refresh(context.Background(), refreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	f.sessions.AssertExpectations(t)
}

func TestAuthService_Refresh_DeactivatedUser(t *testing.T) {
	f := newAuthFixture(t)
	user := activeUser(t)

	refreshToken, err := f.jwt.GenerateRefreshToken(user)
	require.NoError(t, err)

	session := &domain.Session{
		ID:        "s-1",
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	deactivated := *user
	deactivated.IsActive = false

	f.sessions.On("GetByHash", mock.Anything, session.TokenHash).Return(session, nil)
	f.users.On("GetByID", mock.Anything, user.ID).Return(&deactivated, nil)

	_, err = f.svc.Refresh(context.Background(), refreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// --- Logout ---

func TestAuthService_Logout_DeletesSession(t *testing.T) {
	f := newAuthFixture(t)
	user := activeUser(t)

	refreshToken, err := f.jwt.GenerateRefreshToken(user)
	require.NoError(t, err)

	f.sessions.On("Delete", mock.Anything, hashToken(refreshToken)).Return(nil)

	require.NoError(t, f.svc.Logout(context.Background(), refreshToken))
	f.sessions.AssertExpectations(t)
}

func TestAuthService_Logout_EmptyTokenIsNoop(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.Logout(context.Background(), ""))
	f.sessions.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAuthService_Logout_UnknownTokenIsNoop(t *testing.T) {
	f := newAuthFixture(t)

	// The session repo treats a missing row as success, so a second logout
	// with the same token behaves exactly like the first.
	f.sessions.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	require.NoError(t, f.svc.Logout(context.Background(), "already-logged-out-token"))
}

// --- CurrentUser ---

func TestAuthService_CurrentUser(t *testing.T) {
	f := newAuthFixture(t)
	user := activeUser(t)

	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	got, err := f.svc.CurrentUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
}

func TestAuthService_CurrentUser_NotFound(t *testing.T) {
	f := newAuthFixture(t)

	f.users.On("GetByID", mock.Anything, "missing").
		Return(nil, apperrors.NotFound("user", "ghost"))

	_, err := f.svc.CurrentUser(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
