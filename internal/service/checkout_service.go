package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"quickbasket/internal/domain"
	"quickbasket/internal/events"
	"quickbasket/internal/payment"
	"quickbasket/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pricing rules: free shipping above the threshold, otherwise a flat fee;
// tax is applied to the subtotal.
var (
	freeShippingThreshold = decimal.NewFromInt(500)
	flatShippingFee       = decimal.NewFromInt(40)
	taxRate               = decimal.NewFromFloat(0.18)
	centsPerUnit          = decimal.NewFromInt(100)
)

const (
	orderNumberPrefix   = "QB"
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberSuffix   = 5
	orderNumberRetries  = 3

	// sessionTagPrefix marks card orders with the payment session that
	// produced them, e.g. "stripe_cs_123".
	sessionTagPrefix = "stripe_"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrPaymentSession      = errors.New("failed to create payment session")
	ErrMissingSession      = errors.New("session ID required")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrMissingMetadata     = errors.New("payment session metadata is missing the user")
)

// Quote is the priced view of a cart at checkout time, computed from live
// catalog prices.
type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// QuoteCart prices a set of cart lines: subtotal from live prices, shipping
// waived above the free-shipping threshold, tax on the subtotal.
func QuoteCart(items []*domain.CartItem) Quote {
	subtotal := decimal.Zero
	for _, item := range items {
		lineTotal := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)
	}

	shipping := flatShippingFee
	if subtotal.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(taxRate)

	return Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// CheckoutSession is what the card branch hands back to the client: the
// session to verify later and the hosted page to redirect to.
type CheckoutSession struct {
	SessionID   string `json:"sessionId"`
	RedirectURL string `json:"url"`
}

// ConfirmedOrder is the minimal order reference returned by payment
// confirmation.
type ConfirmedOrder struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"orderNumber"`
}

// CheckoutService orchestrates cart pricing, the payment-method branch, order
// materialization and payment confirmation.
type CheckoutService interface {
	// BeginCardCheckout prices the cart and opens a hosted payment session.
	// The order is deferred until ConfirmPayment; the cart is left untouched.
	BeginCardCheckout(ctx context.Context, userID uuid.UUID, shippingAddress string) (*CheckoutSession, error)

	// PlaceCODOrder materializes a cash-on-delivery order immediately with
	// status PENDING, clearing the cart.
	PlaceCODOrder(ctx context.Context, userID uuid.UUID, shippingAddress string) (*domain.Order, error)

	// ConfirmPayment verifies a hosted session and ensures exactly one order
	// exists for it. Safe to call more than once for the same session.
	ConfirmPayment(ctx context.Context, sessionID string) (*ConfirmedOrder, error)
}

type checkoutService struct {
	cartRepo   repository.CartRepository
	orderRepo  repository.OrderRepository
	provider   payment.Provider
	publisher  *events.Publisher
	successURL string
	cancelURL  string
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	provider payment.Provider,
	publisher *events.Publisher,
	successURL string,
	cancelURL string,
) CheckoutService {
	return &checkoutService{
		cartRepo:   cartRepo,
		orderRepo:  orderRepo,
		provider:   provider,
		publisher:  publisher,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// BeginCardCheckout builds the hosted session from the priced cart
func (s *checkoutService) BeginCardCheckout(ctx context.Context, userID uuid.UUID, shippingAddress string) (*CheckoutSession, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	quote := QuoteCart(items)

	// One display line per cart line, unit prices in cents.
	lineItems := make([]payment.LineItem, 0, len(items)+2)
	for _, item := range items {
		lineItems = append(lineItems, payment.LineItem{
			Name:       item.Product.Title,
			Images:     []string{item.Product.Thumbnail},
			UnitAmount: toCents(item.Product.Price),
			Quantity:   int64(item.Quantity),
		})
	}

	if quote.Shipping.IsPositive() {
		lineItems = append(lineItems, payment.LineItem{
			Name:       "Shipping",
			UnitAmount: toCents(quote.Shipping),
			Quantity:   1,
		})
	}

	lineItems = append(lineItems, payment.LineItem{
		Name:       "Tax (18% GST)",
		UnitAmount: toCents(quote.Tax),
		Quantity:   1,
	})

	session, err := s.provider.CreateSession(ctx, payment.CreateSessionInput{
		LineItems:  lineItems,
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
		Metadata: map[string]string{
			"user_id":          userID.String(),
			"shipping_address": shippingAddress,
			"total_amount":     quote.Total.StringFixed(2),
		},
	})
	if err != nil {
		// No cart or order state has been touched; surface the typed failure.
		return nil, fmt.Errorf("%w: %v", ErrPaymentSession, err)
	}

	return &CheckoutSession{
		SessionID:   session.ID,
		RedirectURL: session.URL,
	}, nil
}

// PlaceCODOrder materializes the order immediately from the priced cart
func (s *checkoutService) PlaceCODOrder(ctx context.Context, userID uuid.UUID, shippingAddress string) (*domain.Order, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	quote := QuoteCart(items)

	return s.materialize(ctx, userID, items, quote.Total, shippingAddress, domain.PaymentMethodCOD, domain.OrderStatusPending)
}

// ConfirmPayment reconciles a hosted session into exactly one order
func (s *checkoutService) ConfirmPayment(ctx context.Context, sessionID string) (*ConfirmedOrder, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrMissingSession
	}

	session, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment session: %w", err)
	}

	if !session.Paid {
		return nil, ErrPaymentNotCompleted
	}

	userIDStr := session.Metadata["user_id"]
	if userIDStr == "" {
		return nil, ErrMissingMetadata
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("%w: bad user ID %q", ErrMissingMetadata, userIDStr)
	}

	shippingAddress := session.Metadata["shipping_address"]
	if shippingAddress == "" {
		shippingAddress = "Not provided"
	}

	total, err := decimal.NewFromString(session.Metadata["total_amount"])
	if err != nil {
		total = decimal.Zero
	}

	// Idempotency check: one order per payment session. Confirmation may run
	// more than once (page reload, webhook plus client call).
	tag := sessionTagPrefix + sessionID
	existing, err := s.orderRepo.FindByPaymentMethod(ctx, userID, tag)
	if err == nil {
		return &ConfirmedOrder{ID: existing.ID, OrderNumber: existing.OrderNumber}, nil
	}
	if !errors.Is(err, repository.ErrOrderNotFound) {
		return nil, fmt.Errorf("failed to check existing order: %w", err)
	}

	// The cart must still hold the lines the session was created from. An
	// empty cart here means a previous confirmation consumed it without
	// persisting an order, which is a hard failure, not a silent success.
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	order, err := s.materialize(ctx, userID, items, total, shippingAddress, tag, domain.OrderStatusConfirmed)
	if err != nil {
		// A concurrent confirmation won the unique index on the session tag;
		// return its order.
		if errors.Is(err, repository.ErrDuplicatePaymentSession) {
			existing, findErr := s.orderRepo.FindByPaymentMethod(ctx, userID, tag)
			if findErr != nil {
				return nil, fmt.Errorf("failed to load concurrently created order: %w", findErr)
			}
			return &ConfirmedOrder{ID: existing.ID, OrderNumber: existing.OrderNumber}, nil
		}
		return nil, err
	}

	return &ConfirmedOrder{ID: order.ID, OrderNumber: order.OrderNumber}, nil
}

// materialize converts cart lines into an immutable order with frozen line
// prices and clears the cart atomically with order creation.
func (s *checkoutService) materialize(
	ctx context.Context,
	userID uuid.UUID,
	items []*domain.CartItem,
	total decimal.Decimal,
	shippingAddress string,
	paymentMethod string,
	status domain.OrderStatus,
) (*domain.Order, error) {
	order := &domain.Order{
		ID:              uuid.New(),
		UserID:          userID,
		TotalAmount:     total,
		ShippingAddress: shippingAddress,
		PaymentMethod:   paymentMethod,
		Status:          status,
		CreatedAt:       time.Now(),
	}

	for _, item := range items {
		order.Items = append(order.Items, &domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			// Frozen at this exact moment; later catalog updates must not
			// change it.
			Price: item.Product.Price,
		})
	}

	// The order number is unique by constraint; regenerate on the rare
	// collision.
	var err error
	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		order.OrderNumber, err = generateOrderNumber()
		if err != nil {
			return nil, fmt.Errorf("failed to generate order number: %w", err)
		}

		err = s.orderRepo.CreateFromCart(ctx, order)
		if err == nil {
			s.publisher.OrderCreated(order)
			return order, nil
		}
		if !errors.Is(err, repository.ErrOrderNumberTaken) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("failed to create order: %w", err)
}

// generateOrderNumber builds a human-readable order number: prefix, epoch
// milliseconds, and a short random alphanumeric suffix, uppercased.
func generateOrderNumber() (string, error) {
	buf := make([]byte, orderNumberSuffix)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	suffix := make([]byte, orderNumberSuffix)
	for i, b := range buf {
		suffix[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}

	return fmt.Sprintf("%s-%d-%s", orderNumberPrefix, time.Now().UnixMilli(), suffix), nil
}

// toCents converts a decimal currency amount to minor units, rounded to the
// nearest integer.
func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(centsPerUnit).Round(0).IntPart()
}
