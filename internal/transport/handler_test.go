package transport

import (
	"context"
	"net/http"
	"testing"
	"time"

	"quickbasket/internal/domain"
	"quickbasket/internal/middleware"
	"quickbasket/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Stub services implementing the business interfaces, returning canned
// results so handler tests exercise only the HTTP layer.

type stubProductService struct {
	product       *domain.Product
	getErr        error
	listResults   []*domain.Product
	searchResults []*domain.Product
	searchErr     error
}

func (s *stubProductService) Create(ctx context.Context, input service.ProductInput) (*domain.Product, error) {
	product := &domain.Product{
		ID:       uuid.New(),
		Title:    input.Title,
		Category: input.Category,
		Price:    input.Price,
		Images:   []string{},
	}
	return product, nil
}

func (s *stubProductService) Update(ctx context.Context, id uuid.UUID, input service.ProductInput) (*domain.Product, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.product, nil
}

func (s *stubProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.getErr
}

func (s *stubProductService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.product, nil
}

func (s *stubProductService) ListByCategory(ctx context.Context, category string, limit int) ([]*domain.Product, error) {
	return s.listResults, nil
}

func (s *stubProductService) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.searchResults, nil
}

type stubCartService struct {
	item    *domain.CartItem
	items   []*domain.CartItem
	addErr  error
	delErr  error
	listErr error
}

func (s *stubCartService) AddOrIncrement(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	return s.item, nil
}

func (s *stubCartService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.delErr
}

func (s *stubCartService) List(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.items, nil
}

type stubCheckoutService struct {
	session    *service.CheckoutSession
	sessionErr error
	order      *domain.Order
	orderErr   error
	confirmed  *service.ConfirmedOrder
	confirmErr error

	confirmCalls int
}

func (s *stubCheckoutService) BeginCardCheckout(ctx context.Context, userID uuid.UUID, shippingAddress string) (*service.CheckoutSession, error) {
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	return s.session, nil
}

func (s *stubCheckoutService) PlaceCODOrder(ctx context.Context, userID uuid.UUID, shippingAddress string) (*domain.Order, error) {
	if s.orderErr != nil {
		return nil, s.orderErr
	}
	return s.order, nil
}

func (s *stubCheckoutService) ConfirmPayment(ctx context.Context, sessionID string) (*service.ConfirmedOrder, error) {
	s.confirmCalls++
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	return s.confirmed, nil
}

type stubOrderService struct {
	orders  []*domain.Order
	listErr error
}

func (s *stubOrderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.orders, nil
}

const testJWTSecret = "test-secret"

func authCookie(t *testing.T, userID uuid.UUID, role string) *http.Cookie {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return &http.Cookie{Name: middleware.AuthCookieName, Value: token}
}
