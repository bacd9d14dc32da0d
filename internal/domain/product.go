package domain

import (
	"time"
)

// Product status values.
const (
	ProductStatusActive     = "ACTIVE"
	ProductStatusInactive   = "INACTIVE"
	ProductStatusOutOfStock = "OUT_OF_STOCK"
)

// ValidProductStatuses returns the set of valid product statuses.
func ValidProductStatuses() []string {
	return []string{ProductStatusActive, ProductStatusInactive, ProductStatusOutOfStock}
}

// IsValidProductStatus checks whether the given status is valid.
func IsValidProductStatus(status string) bool {
	for _, s := range ValidProductStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// Product represents a catalog item sold at the register.
// Monetary amounts are integer cents.
type Product struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	PriceCents  int64     `json:"price_cents"`
	CostCents   int64     `json:"cost_cents"`
	Stock       int       `json:"stock"`
	MinStock    int       `json:"min_stock"`
	Barcode     string    `json:"barcode,omitempty"`
	Status      string    `json:"status"`
	IsDraft     bool      `json:"is_draft"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
