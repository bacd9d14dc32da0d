package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/leogadddd/ordura-v2/internal/domain"
	"github.com/leogadddd/ordura-v2/internal/repository"
	"github.com/leogadddd/ordura-v2/pkg/database"
	apperrors "github.com/leogadddd/ordura-v2/pkg/errors"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db DB
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, sku, name, description, category, price_cents, cost_cents, stock, min_stock, barcode, status, is_draft, created_at, updated_at`

// NextID reserves and returns the next sequential product number.
func (r *ProductRepository) NextID(ctx context.Context) (int64, error) {
	query := `SELECT nextval('product_id_seq')`

	var n int64
	ctx, end := database.TraceQuery(ctx, "NextProductID", query)
	err := r.db.QueryRow(ctx, query).Scan(&n)
	end(err)
	if err != nil {
		return 0, fmt.Errorf("next product id: %w", err)
	}
	return n, nil
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, sku, name, description, category, price_cents, cost_cents, stock, min_stock, barcode, status, is_draft, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.SKU,
		p.Name,
		p.Description,
		p.Category,
		p.PriceCents,
		p.CostCents,
		p.Stock,
		p.MinStock,
		p.Barcode,
		p.Status,
		p.IsDraft,
		p.CreatedAt,
		p.UpdatedAt,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "sku", p.SKU)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1`

	var p domain.Product
	ctx, end := database.TraceQuery(ctx, "GetProductByID", query)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.SKU,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.PriceCents,
		&p.CostCents,
		&p.Stock,
		&p.MinStock,
		&p.Barcode,
		&p.Status,
		&p.IsDraft,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	return &p, nil
}

// buildProductWhere assembles the WHERE clause and args for a product filter.
func buildProductWhere(filter repository.ProductFilter) (string, []any) {
	var conds []string
	var args []any

	if !filter.IncludeDrafts {
		conds = append(conds, "is_draft = false")
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, "category = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, "(name ILIKE $"+n+" OR sku ILIKE $"+n+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns products matching the filter plus the total match count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	where, args := buildProductWhere(filter)

	countQuery := `SELECT COUNT(*) FROM products` + where

	var total int
	ctx, end := database.TraceQuery(ctx, "CountProducts", countQuery)
	err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total)
	end(err)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	listQuery := `
		SELECT ` + productColumns + `
		FROM products` + where + `
		ORDER BY created_at DESC
		LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	ctx, end = database.TraceQuery(ctx, "ListProducts", listQuery)
	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		end(err)
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.SKU,
			&p.Name,
			&p.Description,
			&p.Category,
			&p.PriceCents,
			&p.CostCents,
			&p.Stock,
			&p.MinStock,
			&p.Barcode,
			&p.Status,
			&p.IsDraft,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			end(err)
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		end(err)
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}
	end(nil)

	if products == nil {
		products = []domain.Product{}
	}

	return products, total, nil
}

// Update modifies an existing product in the database.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, description = $2, category = $3, price_cents = $4, cost_cents = $5,
		    stock = $6, min_stock = $7, barcode = $8, status = $9, is_draft = $10, updated_at = $11
		WHERE id = $12`

	ctx, end := database.TraceQuery(ctx, "UpdateProduct", query)
	ct, err := r.db.Exec(ctx, query,
		p.Name,
		p.Description,
		p.Category,
		p.PriceCents,
		p.CostCents,
		p.Stock,
		p.MinStock,
		p.Barcode,
		p.Status,
		p.IsDraft,
		p.UpdatedAt,
		p.ID,
	)
	end(err)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	return nil
}

// Delete removes a product from the database by its ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteProduct", query)
	ct, err := r.db.Exec(ctx, query, id)
	end(err)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}
