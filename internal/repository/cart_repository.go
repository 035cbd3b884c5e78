package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quickbasket/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartRepository defines the interface for cart data access
type CartRepository interface {
	// Upsert adds quantity to the (user, product) line, creating it if absent.
	// The insert-or-increment is a single atomic statement keyed by the
	// UNIQUE (user_id, product_id) constraint.
	Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error)
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// Upsert performs the atomic add-or-increment keyed by (user_id, product_id)
func (r *cartRepository) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		RETURNING id, user_id, product_id, quantity, created_at, updated_at
	`

	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, uuid.New(), userID, productID, quantity, time.Now()).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert cart item: %w", err)
	}

	return item, nil
}

// Delete removes the line for (user, product). Deleting a nonexistent line is
// reported as ErrCartItemNotFound, not silently ignored.
func (r *cartRepository) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

// ListByUser returns all cart lines joined with the current product snapshot.
// The joined price is the live catalog price, never a frozen one.
func (r *cartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	query := fmt.Sprintf(`
		SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
		       %s
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at ASC
	`, prefixedProductColumns("p"))

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []*domain.CartItem{}
	for rows.Next() {
		item, err := scanCartItemWithProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

func prefixedProductColumns(alias string) string {
	return fmt.Sprintf(
		`%[1]s.id, %[1]s.title, %[1]s.description, %[1]s.category, %[1]s.price, %[1]s.rating, %[1]s.stock, %[1]s.discount_percentage, %[1]s.thumbnail, %[1]s.images, %[1]s.created_at, %[1]s.updated_at`,
		alias,
	)
}

func scanCartItemWithProduct(rows *sql.Rows) (*domain.CartItem, error) {
	item := &domain.CartItem{Product: &domain.Product{}}
	var images []byte

	err := rows.Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.Product.ID,
		&item.Product.Title,
		&item.Product.Description,
		&item.Product.Category,
		&item.Product.Price,
		&item.Product.Rating,
		&item.Product.Stock,
		&item.Product.DiscountPercentage,
		&item.Product.Thumbnail,
		&images,
		&item.Product.CreatedAt,
		&item.Product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalImages(images, &item.Product.Images); err != nil {
		return nil, err
	}

	return item, nil
}
