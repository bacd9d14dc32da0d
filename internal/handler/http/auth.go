package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/leogadddd/ordura-v2/internal/service"
	"github.com/leogadddd/ordura-v2/pkg/httputil"
	"github.com/leogadddd/ordura-v2/pkg/middleware"
	"github.com/leogadddd/ordura-v2/pkg/validator"
)

// RefreshTokenCookie is the cookie carrying the refresh token.
const RefreshTokenCookie = "refreshToken"

// maxBodyBytes caps request body size for JSON endpoints.
const maxBodyBytes = 1 << 20

// CookieConfig controls how auth cookies are issued.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthHandler handles HTTP requests for authentication endpoints.
type AuthHandler struct {
	service *service.AuthService
	cookies CookieConfig
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, cookies CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for user registration. New
// accounts always start as staff; there is no role field here.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"first_name" validate:"omitempty,max=50"`
	LastName  string `json:"last_name" validate:"omitempty,max=50"`
}

// LoginRequest is the JSON request body for login. Identifier matches either
// an email address or a username.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// RefreshRequest is the JSON request body for token refresh. The body is
// optional; the refresh cookie takes precedence.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// --- Response DTOs ---

// AuthData wraps the user object for register and login responses. Tokens
// travel only in the httpOnly cookies, never in the body.
type AuthData struct {
	User any `json:"user"`
}

// --- Handlers ---

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, tokens, err := h.service.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.setAuthCookies(w, tokens.AccessToken, tokens.RefreshToken)
	httputil.WriteSuccess(w, http.StatusCreated, "registration successful", AuthData{User: user})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, tokens, err := h.service.Login(r.Context(), service.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.setAuthCookies(w, tokens.AccessToken, tokens.RefreshToken)
	httputil.WriteSuccess(w, http.StatusOK, "login successful", AuthData{User: user})
}

// Refresh handles POST /api/auth/refresh. The refresh token comes from the
// cookie when present, otherwise from the request body. Only the access
// token is reissued; the refresh token and its session stay as they are.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	accessToken, err := h.service.Refresh(r.Context(), refreshTokenFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.setAccessCookie(w, accessToken)
	httputil.WriteSuccess(w, http.StatusOK, "token refreshed", nil)
}

// Logout handles POST /api/auth/logout. It removes the session and clears
// both cookies. A missing or unknown token still succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := h.service.Logout(r.Context(), refreshTokenFromRequest(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.clearAuthCookies(w)
	httputil.WriteSuccess(w, http.StatusOK, "logout successful", nil)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "current user", user)
}

// --- Cookie helpers ---

func (h *AuthHandler) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	h.setAccessCookie(w, accessToken)
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(h.cookies.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) setAccessCookie(w http.ResponseWriter, accessToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(h.cookies.AccessTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cookies.Secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// refreshTokenFromRequest prefers the refresh cookie and falls back to the
// JSON body.
func refreshTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(RefreshTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}
