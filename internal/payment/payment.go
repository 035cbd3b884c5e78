// Package payment abstracts the hosted-checkout provider. The checkout
// service only sees sessions: created with line items and redirect URLs,
// later retrieved to learn their paid status and metadata.
package payment

import "context"

// LineItem is one display line on the hosted checkout page. UnitAmount is in
// minor currency units (cents).
type LineItem struct {
	Name       string
	Images     []string
	UnitAmount int64
	Quantity   int64
}

// CreateSessionInput carries everything needed to open a hosted session.
type CreateSessionInput struct {
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// Session is the provider's view of a pending or completed payment.
type Session struct {
	ID       string
	URL      string
	Paid     bool
	Metadata map[string]string
}

// Provider is implemented by hosted-checkout backends.
type Provider interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	RetrieveSession(ctx context.Context, id string) (*Session, error)
}
