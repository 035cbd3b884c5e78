package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quickbasket/internal/domain"
	"quickbasket/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyQuery rejects searches with a blank term before touching the
	// database; callers must surface it as a client error, never a 500.
	ErrEmptyQuery = errors.New("no query given")
)

// ProductInput carries the writable fields of a product for the staff
// administration operations.
type ProductInput struct {
	Title              string
	Description        string
	Category           string
	Price              decimal.Decimal
	Rating             float64
	Stock              int
	DiscountPercentage decimal.Decimal
	Thumbnail          string
	Images             []string
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListByCategory(ctx context.Context, category string, limit int) ([]*domain.Product, error)
	Search(ctx context.Context, query string) ([]*domain.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

// Create adds a product to the catalog
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	now := time.Now()
	product := &domain.Product{
		ID:                 uuid.New(),
		Title:              input.Title,
		Description:        input.Description,
		Category:           input.Category,
		Price:              input.Price,
		Rating:             input.Rating,
		Stock:              input.Stock,
		DiscountPercentage: input.DiscountPercentage,
		Thumbnail:          input.Thumbnail,
		Images:             input.Images,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// Update overwrites a product in place. There is no versioning.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Title = input.Title
	product.Description = input.Description
	product.Category = input.Category
	product.Price = input.Price
	product.Rating = input.Rating
	product.Stock = input.Stock
	product.DiscountPercentage = input.DiscountPercentage
	product.Thumbnail = input.Thumbnail
	product.Images = input.Images
	if product.Images == nil {
		product.Images = []string{}
	}
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Delete removes a product from the catalog
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

// GetByID retrieves a single product
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// ListByCategory lists products filtered by category label, ordered by rating
func (s *productService) ListByCategory(ctx context.Context, category string, limit int) ([]*domain.Product, error) {
	return s.productRepo.ListByCategory(ctx, category, limit)
}

// Search finds products matching the query across title, category and
// description. A blank query is rejected with ErrEmptyQuery.
func (s *productService) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	return s.productRepo.Search(ctx, query)
}
