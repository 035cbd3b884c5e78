package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quickbasket/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNumberTaken signals an order_number collision; the caller
	// regenerates and retries.
	ErrOrderNumberTaken = errors.New("order number already taken")
	// ErrDuplicatePaymentSession signals that an order for this payment
	// session tag already exists. The unique index closes the
	// check-then-create race on concurrent confirmations.
	ErrDuplicatePaymentSession = errors.New("order for this payment session already exists")
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// CreateFromCart inserts the order and its lines and clears the user's
	// cart in a single transaction, so a committed order never leaves its
	// source cart lines behind.
	CreateFromCart(ctx context.Context, order *domain.Order) error
	FindByPaymentMethod(ctx context.Context, userID uuid.UUID, paymentMethod string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// CreateFromCart materializes an order atomically with cart clearing
func (r *orderRepository) CreateFromCart(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (id, order_number, user_id, total_amount, shipping_address, payment_method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = tx.ExecContext(
		ctx,
		orderQuery,
		order.ID,
		order.OrderNumber,
		order.UserID,
		order.TotalAmount,
		order.ShippingAddress,
		order.PaymentMethod,
		order.Status,
		order.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "orders_order_number_key") {
			return ErrOrderNumberTaken
		}
		if isUniqueViolation(err, "idx_orders_payment_session") {
			return ErrDuplicatePaymentSession
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, item := range order.Items {
		_, err = tx.ExecContext(
			ctx,
			itemQuery,
			item.ID,
			order.ID,
			item.ProductID,
			item.Quantity,
			item.Price,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, order.UserID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

// FindByPaymentMethod retrieves a user's order carrying the exact payment
// method string. Used for the payment-session idempotency check.
func (r *orderRepository) FindByPaymentMethod(ctx context.Context, userID uuid.UUID, paymentMethod string) (*domain.Order, error) {
	query := `
		SELECT id, order_number, user_id, total_amount, shipping_address, payment_method, status, created_at
		FROM orders
		WHERE user_id = $1 AND payment_method = $2
	`

	order := &domain.Order{}
	err := r.db.QueryRowContext(ctx, query, userID, paymentMethod).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.TotalAmount,
		&order.ShippingAddress,
		&order.PaymentMethod,
		&order.Status,
		&order.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by payment method: %w", err)
	}

	return order, nil
}

// ListByUser returns the user's orders newest first, each with its lines and
// a joined product summary for display.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `
		SELECT id, order_number, user_id, total_amount, shipping_address, payment_method, status, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	byID := make(map[uuid.UUID]*domain.Order)
	for rows.Next() {
		order := &domain.Order{Items: []*domain.OrderItem{}}
		err := rows.Scan(
			&order.ID,
			&order.OrderNumber,
			&order.UserID,
			&order.TotalAmount,
			&order.ShippingAddress,
			&order.PaymentMethod,
			&order.Status,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
		byID[order.ID] = order
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	itemQuery := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price,
		       p.id, p.title, p.price, p.thumbnail
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.user_id = $1
		ORDER BY oi.id
	`

	itemRows, err := r.db.QueryContext(ctx, itemQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		item := &domain.OrderItem{Product: &domain.ProductSummary{}}
		err := itemRows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.Price,
			&item.Product.ID,
			&item.Product.Title,
			&item.Product.Price,
			&item.Product.Thumbnail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return orders, nil
}
