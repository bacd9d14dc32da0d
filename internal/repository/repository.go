package repository

import (
	"context"
	"time"

	"github.com/leogadddd/ordura-v2/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByUsername retrieves a user by their username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByIdentifier retrieves a user whose email or username matches the
	// given identifier.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)

	// UpdateLastLogin records the time of the user's most recent login.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// SessionRepository defines the interface for refresh session persistence.
type SessionRepository interface {
	// Create stores a new session keyed by the refresh token hash.
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// GetByHash retrieves a session by its token hash.
	GetByHash(ctx context.Context, tokenHash string) (*domain.Session, error)

	// Delete removes the session with the given token hash. Deleting a
	// session that does not exist is not an error.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteByUserID removes all sessions belonging to the given user.
	DeleteByUserID(ctx context.Context, userID string) error
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	Category      string
	Status        string
	Search        string
	IncludeDrafts bool
	Limit         int
	Offset        int
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// NextID reserves and returns the next sequential product number.
	NextID(ctx context.Context) (int64, error)

	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns products matching the filter plus the total match count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Update modifies an existing product in the store.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product from the store by its identifier.
	Delete(ctx context.Context, id string) error
}
