package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// User Struct Tests
// ============================================================================

func TestUser_PasswordHashExcludedFromJSON(t *testing.T) {
	u := User{PasswordHash: "secret"}
	assert.Equal(t, "secret", u.PasswordHash)
	// The json:"-" tag ensures PasswordHash is excluded from serialization.
}

func TestUser_DefaultFields(t *testing.T) {
	u := User{}
	assert.False(t, u.IsActive)
	assert.Nil(t, u.LastLoginAt)
	assert.Empty(t, u.Role)
}

func TestUser_ActiveUser(t *testing.T) {
	now := time.Now()
	u := User{
		ID:          "user-1",
		Email:       "cashier@store.test",
		Username:    "cashier1",
		Role:        RoleStaff,
		IsActive:    true,
		LastLoginAt: &now,
	}
	assert.True(t, u.IsActive)
	assert.NotNil(t, u.LastLoginAt)
	assert.Equal(t, RoleStaff, u.Role)
}

// ============================================================================
// Session Tests
// ============================================================================

func TestSession_TokenHashExcludedFromJSON(t *testing.T) {
	s := Session{TokenHash: "hashed-value"}
	assert.Equal(t, "hashed-value", s.TokenHash)
}

func TestSession_Expired_Future(t *testing.T) {
	s := Session{ExpiresAt: time.Now().Add(24 * time.Hour)}
	assert.False(t, s.Expired(time.Now()))
}

func TestSession_Expired_Past(t *testing.T) {
	s := Session{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.True(t, s.Expired(time.Now()))
}

func TestSession_Expired_ExactBoundary(t *testing.T) {
	// A session is expired at the exact moment its expiry is reached.
	now := time.Now()
	s := Session{ExpiresAt: now}
	assert.True(t, s.Expired(now))
}

// ============================================================================
// TokenPair Tests
// ============================================================================

func TestTokenPair_Fields(t *testing.T) {
	tp := TokenPair{AccessToken: "access-123", RefreshToken: "refresh-456"}
	assert.Equal(t, "access-123", tp.AccessToken)
	assert.Equal(t, "refresh-456", tp.RefreshToken)
}

// ============================================================================
// Product Tests
// ============================================================================

func TestValidProductStatuses(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{ProductStatusActive, ProductStatusInactive, ProductStatusOutOfStock},
		ValidProductStatuses())
}

func TestIsValidProductStatus(t *testing.T) {
	assert.True(t, IsValidProductStatus(ProductStatusActive))
	assert.True(t, IsValidProductStatus(ProductStatusOutOfStock))
	assert.False(t, IsValidProductStatus("active"))
	assert.False(t, IsValidProductStatus(""))
}

func TestProduct_PricesAreCents(t *testing.T) {
	p := Product{PriceCents: 1999, CostCents: 1250}
	assert.Equal(t, int64(1999), p.PriceCents)
	assert.Equal(t, int64(1250), p.CostCents)
}
