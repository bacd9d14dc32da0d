package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/leogadddd/ordura-v2/internal/domain"
	"github.com/leogadddd/ordura-v2/internal/repository"
	apperrors "github.com/leogadddd/ordura-v2/pkg/errors"
)

// skuRandLength is the number of random base36 characters in a generated SKU.
const skuRandLength = 4

// skuMaxAttempts bounds SKU collision retries on create.
const skuMaxAttempts = 5

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ProductEventPublisher publishes product lifecycle events.
type ProductEventPublisher interface {
	PublishProductCreated(ctx context.Context, product *domain.Product) error
	PublishProductUpdated(ctx context.Context, product *domain.Product) error
	PublishProductDeleted(ctx context.Context, product *domain.Product) error
}

// ProductCache is a read cache for single products. A miss returns (nil, nil).
type ProductCache interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Invalidate(ctx context.Context, id string) error
}

// ProductService implements the catalog business logic.
type ProductService struct {
	products repository.ProductRepository
	cache    ProductCache
	events   ProductEventPublisher
	logger   *slog.Logger
}

// NewProductService creates a new product service. cache may be nil to
// disable caching.
func NewProductService(
	products repository.ProductRepository,
	cache ProductCache,
	events ProductEventPublisher,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		products: products,
		cache:    cache,
		events:   events,
		logger:   logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string
	Description string
	Category    string
	PriceCents  int64
	CostCents   int64
	Stock       int
	MinStock    int
	Barcode     string
	IsDraft     bool
}

// UpdateProductInput holds the parameters for updating a product. Nil fields
// are left unchanged.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	PriceCents  *int64
	CostCents   *int64
	Stock       *int
	MinStock    *int
	Barcode     *string
	Status      *string
	IsDraft     *bool
}

// ListProductsInput narrows and paginates a product listing.
type ListProductsInput struct {
	Category      string
	Status        string
	Search        string
	IncludeDrafts bool
	Page          int
	PerPage       int
}

// Create generates an ID and SKU for the product and stores it. SKU
// collisions are retried with a fresh random suffix.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Category == "" {
		return nil, apperrors.InvalidInput("category is required")
	}
	if input.PriceCents < 0 || input.CostCents < 0 {
		return nil, apperrors.InvalidInput("prices must not be negative")
	}
	if input.Stock < 0 {
		return nil, apperrors.InvalidInput("stock must not be negative")
	}

	seq, err := s.products.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserve product id: %w", err)
	}

	status := domain.ProductStatusActive
	if input.Stock == 0 {
		status = domain.ProductStatusOutOfStock
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          fmt.Sprintf("P%06d", seq),
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		PriceCents:  input.PriceCents,
		CostCents:   input.CostCents,
		Stock:       input.Stock,
		MinStock:    input.MinStock,
		Barcode:     input.Barcode,
		Status:      status,
		IsDraft:     input.IsDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for attempt := 0; attempt < skuMaxAttempts; attempt++ {
		sku, err := generateSKU(input.Category, now)
		if err != nil {
			return nil, fmt.Errorf("generate sku: %w", err)
		}
		product.SKU = sku

		err = s.products.Create(ctx, product)
		if err == nil {
			break
		}
		if errors.Is(err, apperrors.ErrAlreadyExists) && attempt < skuMaxAttempts-1 {
			continue
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.events.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("sku", product.SKU),
	)

	return product, nil
}

// Get retrieves a product by ID, consulting the cache first.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "product cache read failed",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		} else if cached != nil {
			return cached, nil
		}
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, product); err != nil {
			s.logger.WarnContext(ctx, "product cache write failed",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return product, nil
}

// List returns products matching the filter plus the total match count.
func (s *ProductService) List(ctx context.Context, input ListProductsInput) ([]domain.Product, int, error) {
	if input.Status != "" && !domain.IsValidProductStatus(input.Status) {
		return nil, 0, apperrors.InvalidInput("invalid product status")
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	perPage := input.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	filter := repository.ProductFilter{
		Category:      input.Category,
		Status:        input.Status,
		Search:        input.Search,
		IncludeDrafts: input.IncludeDrafts,
		Limit:         perPage,
		Offset:        (page - 1) * perPage,
	}

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

// Update applies the given changes to a product and invalidates its cache
// entry.
func (s *ProductService) Update(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		if *input.Category == "" {
			return nil, apperrors.InvalidInput("category must not be empty")
		}
		product.Category = *input.Category
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		product.PriceCents = *input.PriceCents
	}
	if input.CostCents != nil {
		if *input.CostCents < 0 {
			return nil, apperrors.InvalidInput("cost must not be negative")
		}
		product.CostCents = *input.CostCents
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, apperrors.InvalidInput("stock must not be negative")
		}
		product.Stock = *input.Stock
	}
	if input.MinStock != nil {
		product.MinStock = *input.MinStock
	}
	if input.Barcode != nil {
		product.Barcode = *input.Barcode
	}
	if input.Status != nil {
		if !domain.IsValidProductStatus(*input.Status) {
			return nil, apperrors.InvalidInput("invalid product status")
		}
		product.Status = *input.Status
	}
	if input.IsDraft != nil {
		product.IsDraft = *input.IsDraft
	}

	// Stock changes flip the out-of-stock status unless explicitly overridden.
	if input.Stock != nil && input.Status == nil {
		if product.Stock == 0 {
			product.Status = domain.ProductStatusOutOfStock
		} else if product.Status == domain.ProductStatusOutOfStock {
			product.Status = domain.ProductStatusActive
		}
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidate(ctx, id)

	if err := s.events.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	return product, nil
}

// Delete removes a product and invalidates its cache entry.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product for delete: %w", err)
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.invalidate(ctx, id)

	if err := s.events.PublishProductDeleted(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
	)

	return nil
}

func (s *ProductService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "product cache invalidation failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// generateSKU builds a SKU of the form CAT-YYYYMMDD-XXXX: a three-letter
// category prefix, the creation date, and four random base36 characters.
func generateSKU(category string, at time.Time) (string, error) {
	prefix := strings.ToUpper(strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return r
		}
		return -1
	}, category))
	if len(prefix) >= 3 {
		prefix = prefix[:3]
	} else {
		prefix = (prefix + "XXX")[:3]
	}

	suffix := make([]byte, skuRandLength)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(base36Alphabet))))
		if err != nil {
			return "", fmt.Errorf("random sku suffix: %w", err)
		}
		suffix[i] = base36Alphabet[n.Int64()]
	}

	return fmt.Sprintf("%s-%s-%s", prefix, at.Format("20060102"), string(suffix)), nil
}
