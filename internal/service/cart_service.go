package service

import (
	"context"
	"errors"
	"fmt"

	"quickbasket/internal/domain"
	"quickbasket/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// CartService defines the interface for cart business logic
type CartService interface {
	// AddOrIncrement adds quantity to the (user, product) line, creating it
	// if absent. Concurrent adds for the same pair never produce duplicate
	// lines; the storage layer upserts atomically by composite key.
	AddOrIncrement(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// AddOrIncrement validates the quantity and product, then upserts the line
func (s *cartService) AddOrIncrement(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	// Referential check so an unknown product surfaces as not-found rather
	// than a foreign key violation.
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	item, err := s.cartRepo.Upsert(ctx, userID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	return item, nil
}

// Remove deletes the line. A missing line is reported to the caller.
func (s *cartService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.cartRepo.Delete(ctx, userID, productID)
}

// List returns the cart joined with the live product snapshot
func (s *cartService) List(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	return s.cartRepo.ListByUser(ctx, userID)
}
