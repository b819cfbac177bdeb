// Package events publishes domain events after state changes commit.
//
// Publishing is best-effort: events are emitted only after the owning
// transaction committed, and a failed publish never fails the request.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Subjects.
const (
	SubjectOrderPlaced        = "orders.placed"
	SubjectOrderStatusChanged = "orders.status_changed"
	SubjectReviewCreated      = "reviews.created"
)

// Envelope wraps every published payload.
type Envelope struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// OrderPlaced is published after a checkout commits.
type OrderPlaced struct {
	OrderID    string `json:"order_id"`
	UserID     string `json:"user_id"`
	Total      string `json:"total"`
	PaymentRef string `json:"payment_ref"`
	Units      int    `json:"units"`
	Lines      []Line `json:"lines"`
}

// Line is one order line in an event payload.
type Line struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
	Price     string `json:"price"`
}

// OrderStatusChanged is published after an admin status update.
type OrderStatusChanged struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// ReviewCreated is published after a review is written.
type ReviewCreated struct {
	ReviewID  string `json:"review_id"`
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id"`
	Rating    int    `json:"rating"`
}

// Publisher emits events on a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// NATSPublisher publishes JSON envelopes over a NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
}

// Connect dials NATS and returns a publisher.
func Connect(url string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("epharmacy"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// Publish marshals payload into an Envelope and publishes it.
func (p *NATSPublisher) Publish(_ context.Context, subject string, payload any) error {
	data, err := Marshal(subject, payload)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// Marshal builds the wire form of an event.
func Marshal(subject string, payload any) ([]byte, error) {
	data, err := json.Marshal(Envelope{
		EventID:    uuid.NewString(),
		Type:       subject,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", subject, err)
	}
	return data, nil
}

// Nop discards events. Used when NATS_URL is unset.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
