package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"quickbasket/internal/domain"
	"quickbasket/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func newCartFixture() (*mockProductRepository, *mockCartRepository, CartService) {
	products := newMockProductRepository()
	cart := newMockCartRepository(products)
	return products, cart, NewCartService(cart, products)
}

func seedCartProduct(t *testing.T, products *mockProductRepository) *domain.Product {
	t.Helper()
	product := &domain.Product{
		ID:        uuid.New(),
		Title:     "Keyboard",
		Category:  "electronics",
		Price:     decimal.NewFromInt(100),
		Images:    []string{},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := products.Create(context.Background(), product); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return product
}

func TestAddOrIncrement_RejectsNonPositiveQuantity(t *testing.T) {
	products, _, svc := newCartFixture()
	product := seedCartProduct(t, products)
	userID := uuid.New()

	for _, quantity := range []int{0, -1, -100} {
		_, err := svc.AddOrIncrement(context.Background(), userID, product.ID, quantity)
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("AddOrIncrement(quantity=%d) = %v, want ErrInvalidQuantity", quantity, err)
		}
	}
}

func TestAddOrIncrement_UnknownProduct(t *testing.T) {
	_, _, svc := newCartFixture()

	_, err := svc.AddOrIncrement(context.Background(), uuid.New(), uuid.New(), 1)
	if !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}
}

func TestAddOrIncrement_MergesIntoOneLine(t *testing.T) {
	products, _, svc := newCartFixture()
	product := seedCartProduct(t, products)
	userID := uuid.New()

	if _, err := svc.AddOrIncrement(context.Background(), userID, product.ID, 2); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	item, err := svc.AddOrIncrement(context.Background(), userID, product.ID, 3)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	if item.Quantity != 5 {
		t.Errorf("quantity = %d, want 5", item.Quantity)
	}

	items, err := svc.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("cart has %d lines, want 1", len(items))
	}
}

func TestProperty_RepeatedAddsSumQuantities(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("any sequence of adds for one product yields one line with the summed quantity", prop.ForAll(
		func(quantities []int) bool {
			products, _, svc := newCartFixture()
			product := seedCartProduct(t, products)
			userID := uuid.New()
			ctx := context.Background()

			total := 0
			for _, quantity := range quantities {
				if _, err := svc.AddOrIncrement(ctx, userID, product.ID, quantity); err != nil {
					t.Logf("FAIL: add failed: %v", err)
					return false
				}
				total += quantity
			}

			items, err := svc.List(ctx, userID)
			if err != nil {
				t.Logf("FAIL: list failed: %v", err)
				return false
			}

			if len(quantities) == 0 {
				return len(items) == 0
			}
			if len(items) != 1 {
				t.Logf("FAIL: %d lines, want 1", len(items))
				return false
			}
			return items[0].Quantity == total
		},
		gen.SliceOf(gen.IntRange(1, 50)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRemove(t *testing.T) {
	products, _, svc := newCartFixture()
	product := seedCartProduct(t, products)
	userID := uuid.New()

	if _, err := svc.AddOrIncrement(context.Background(), userID, product.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if err := svc.Remove(context.Background(), userID, product.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	items, err := svc.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("cart has %d lines after remove, want 0", len(items))
	}
}

func TestRemove_MissingLine(t *testing.T) {
	_, _, svc := newCartFixture()

	err := svc.Remove(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, repository.ErrCartItemNotFound) {
		t.Errorf("err = %v, want ErrCartItemNotFound", err)
	}
}
