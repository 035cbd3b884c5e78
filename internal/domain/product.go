package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalog item. Category is a free-text label rather
// than a reference to a separate table.
type Product struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	Title              string          `json:"title" db:"title"`
	Description        string          `json:"description" db:"description"`
	Category           string          `json:"category" db:"category"`
	Price              decimal.Decimal `json:"price" db:"price"`
	Rating             float64         `json:"rating" db:"rating"`
	Stock              int             `json:"stock" db:"stock"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" db:"discount_percentage"`
	Thumbnail          string          `json:"thumbnail" db:"thumbnail"`
	Images             []string        `json:"images" db:"images"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// ProductSummary is the slice of product data joined onto cart and order
// lines for display.
type ProductSummary struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Thumbnail string          `json:"thumbnail"`
}

// Summary returns the display subset of a product.
func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:        p.ID,
		Title:     p.Title,
		Price:     p.Price,
		Thumbnail: p.Thumbnail,
	}
}
