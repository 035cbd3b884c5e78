package service

import (
	"context"

	"quickbasket/internal/domain"
	"quickbasket/internal/repository"

	"github.com/google/uuid"
)

// OrderService defines the interface for order history queries. Orders are
// written only by checkout; this surface is read-only.
type OrderService interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

// ListByUser returns the user's orders with their lines, newest first
func (s *orderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}
