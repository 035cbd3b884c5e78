package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"quickbasket/internal/domain"
	"quickbasket/internal/payment"
	"quickbasket/internal/repository"

	"github.com/google/uuid"
)

// In-memory fakes mirroring the repository contracts, including the unique
// constraints the real schema enforces.

type mockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type mockProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.products[product.ID]; !exists {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.products[id]; !exists {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) ListByCategory(ctx context.Context, category string, limit int) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := []*domain.Product{}
	for _, product := range m.products {
		if category == "" || strings.Contains(strings.ToLower(product.Category), strings.ToLower(category)) {
			results = append(results, product)
		}
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *mockProductRepository) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	results := []*domain.Product{}
	for _, product := range m.products {
		haystack := strings.ToLower(product.Title + " " + product.Category + " " + product.Description)
		if strings.Contains(haystack, q) {
			results = append(results, product)
		}
	}
	return results, nil
}

// mockCartRepository keeps one ordered slice of lines per user and joins the
// product on list, like the real repository does.
type mockCartRepository struct {
	mu       sync.Mutex
	lines    map[uuid.UUID][]*domain.CartItem
	products *mockProductRepository
}

func newMockCartRepository(products *mockProductRepository) *mockCartRepository {
	return &mockCartRepository{
		lines:    make(map[uuid.UUID][]*domain.CartItem),
		products: products,
	}
}

func (m *mockCartRepository) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range m.lines[userID] {
		if line.ProductID == productID {
			line.Quantity += quantity
			line.UpdatedAt = time.Now()
			return line, nil
		}
	}
	line := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.lines[userID] = append(m.lines[userID], line)
	return line, nil
}

func (m *mockCartRepository) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.lines[userID]
	for i, line := range lines {
		if line.ProductID == productID {
			m.lines[userID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *mockCartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []*domain.CartItem{}
	for _, line := range m.lines[userID] {
		joined := *line
		product, err := m.products.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		joined.Product = product
		items = append(items, &joined)
	}
	return items, nil
}

func (m *mockCartRepository) clear(userID uuid.UUID) {
	delete(m.lines, userID)
}

// mockOrderRepository enforces the order number and payment session uniqueness
// the real schema carries, and clears the cart with the insert.
type mockOrderRepository struct {
	mu           sync.Mutex
	orders       []*domain.Order
	orderNumbers map[string]bool
	sessionTags  map[string]bool
	cart         *mockCartRepository

	// forcedCollisions makes the next N inserts fail as number collisions.
	forcedCollisions int

	// onCreate runs once at the start of the next insert, under the lock.
	// Tests use it to interleave a concurrent writer.
	onCreate func()
}

func newMockOrderRepository(cart *mockCartRepository) *mockOrderRepository {
	return &mockOrderRepository{
		orderNumbers: make(map[string]bool),
		sessionTags:  make(map[string]bool),
		cart:         cart,
	}
}

func (m *mockOrderRepository) CreateFromCart(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.onCreate != nil {
		hook := m.onCreate
		m.onCreate = nil
		hook()
	}

	if m.forcedCollisions > 0 {
		m.forcedCollisions--
		return repository.ErrOrderNumberTaken
	}
	if m.orderNumbers[order.OrderNumber] {
		return repository.ErrOrderNumberTaken
	}
	if strings.HasPrefix(order.PaymentMethod, "stripe_") {
		if m.sessionTags[order.PaymentMethod] {
			return repository.ErrDuplicatePaymentSession
		}
		m.sessionTags[order.PaymentMethod] = true
	}

	m.orderNumbers[order.OrderNumber] = true
	m.orders = append(m.orders, order)
	m.cart.clear(order.UserID)
	return nil
}

func (m *mockOrderRepository) FindByPaymentMethod(ctx context.Context, userID uuid.UUID, paymentMethod string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.UserID == userID && order.PaymentMethod == paymentMethod {
			return order, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := []*domain.Order{}
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].UserID == userID {
			orders = append(orders, m.orders[i])
		}
	}
	return orders, nil
}

// mockPaymentProvider records created sessions; tests flip Paid to simulate a
// completed hosted checkout.
type mockPaymentProvider struct {
	mu        sync.Mutex
	sessions  map[string]*payment.Session
	createErr error
	lastInput payment.CreateSessionInput
	nextID    int
}

func newMockPaymentProvider() *mockPaymentProvider {
	return &mockPaymentProvider{sessions: make(map[string]*payment.Session)}
}

func (m *mockPaymentProvider) CreateSession(ctx context.Context, input payment.CreateSessionInput) (*payment.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	m.lastInput = input

	metadata := make(map[string]string, len(input.Metadata))
	for k, v := range input.Metadata {
		metadata[k] = v
	}

	session := &payment.Session{
		ID:       fmt.Sprintf("cs_test_%d", m.nextID),
		URL:      fmt.Sprintf("https://checkout.example.com/%d", m.nextID),
		Metadata: metadata,
	}
	m.sessions[session.ID] = session
	return session, nil
}

func (m *mockPaymentProvider) RetrieveSession(ctx context.Context, id string) (*payment.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, exists := m.sessions[id]
	if !exists {
		return nil, fmt.Errorf("no such session: %s", id)
	}
	return session, nil
}

func (m *mockPaymentProvider) markPaid(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, exists := m.sessions[id]; exists {
		session.Paid = true
	}
}
