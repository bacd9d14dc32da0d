package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/leogadddd/ordura-v2/internal/domain"
)

const issuer = "ordura"

// Token type discriminator carried in the claims so an access token can never
// be replayed as a refresh token or vice versa.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims represents the JWT claims for both access and refresh tokens.
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token generation and validation.
type JWTManager struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewJWTManager creates a new JWT manager with the given secret and expiry durations.
func NewJWTManager(secret string, accessExpiry, refreshExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// AccessExpiry returns the configured access token lifetime.
func (m *JWTManager) AccessExpiry() time.Duration { return m.accessExpiry }

// RefreshExpiry returns the configured refresh token lifetime.
func (m *JWTManager) RefreshExpiry() time.Duration { return m.refreshExpiry }

// GenerateAccessToken creates a signed JWT access token carrying the user's
// identity claims.
func (m *JWTManager) GenerateAccessToken(user *domain.User) (string, error) {
	return m.generate(user, tokenTypeAccess, m.accessExpiry)
}

// GenerateRefreshToken creates a signed JWT refresh token. It carries the same
// identity claims as the access token but a longer lifetime.
func (m *JWTManager) GenerateRefreshToken(user *domain.User) (string, error) {
	return m.generate(user, tokenTypeRefresh, m.refreshExpiry)
}

func (m *JWTManager) generate(user *domain.User, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}

	return signedToken, nil
}

// ValidateAccessToken parses and validates an access token, returning the claims.
func (m *JWTManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, tokenTypeAccess)
}

// ValidateRefreshToken parses and validates a refresh token, returning the claims.
func (m *JWTManager) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, tokenTypeRefresh)
}

func (m *JWTManager) validate(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse %s token: %w", tokenType, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid %s token claims", tokenType)
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("invalid %s token claims", tokenType)
	}

	return claims, nil
}
