// Package events publishes order lifecycle events to RabbitMQ. Publishing is
// best effort: a failed publish is logged and never fails the request that
// produced it.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"quickbasket/internal/domain"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const (
	exchangeName    = "quickbasket.orders"
	orderCreatedKey = "order.created"
)

// Publisher holds the RabbitMQ connection and channel.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
}

// OrderCreated is the payload published when an order is materialized.
type OrderCreated struct {
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	UserID        string    `json:"user_id"`
	TotalAmount   string    `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewPublisher connects to RabbitMQ and declares the orders exchange.
func NewPublisher(url string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{conn: conn, channel: ch, logger: logger}, nil
}

// OrderCreated publishes an order.created event. A nil publisher is a no-op,
// so callers need not care whether event publishing is configured.
func (p *Publisher) OrderCreated(order *domain.Order) {
	if p == nil {
		return
	}

	event := OrderCreated{
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID.String(),
		TotalAmount:   order.TotalAmount.StringFixed(2),
		PaymentMethod: order.PaymentMethod,
		Status:        string(order.Status),
		CreatedAt:     order.CreatedAt,
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal order event", zap.Error(err))
		return
	}

	err = p.channel.Publish(exchangeName, orderCreatedKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   time.Now(),
	})
	if err != nil {
		p.logger.Warn("Failed to publish order created event",
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("Published order created event", zap.String("order_id", event.OrderID))
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
