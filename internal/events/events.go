// Package events publishes domain events. Publishing is best effort: callers log
// failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TopicUsers    = "user_events"
	TopicProducts = "product_events"
	TopicCarts    = "cart_events"
	TopicOrders   = "order_events"
)

const (
	UserRegistered  = "user_registered"
	ProductCreated  = "product_created"
	ProductUpdated  = "product_updated"
	ProductDeleted  = "product_deleted"
	CartItemAdded   = "cart_item_added"
	CartItemRemoved = "cart_item_removed"
	CartCleared     = "cart_cleared"
	OrderPlaced     = "order_placed"
)

type Envelope struct {
	EventID    string          `json:"eventId"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType string, payload any, at time.Time) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:    uuid.NewString(),
		Type:       eventType,
		OccurredAt: at.UTC(),
		Payload:    raw,
	}, nil
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, ev Envelope) error
	Close() error
}

type Nop struct{}

func (Nop) Publish(context.Context, string, string, Envelope) error { return nil }

func (Nop) Close() error { return nil }

type Published struct {
	Topic string
	Key   string
	Event Envelope
}

// Memory keeps everything it was given; handy in tests and local runs.
type Memory struct {
	mu     sync.Mutex
	events []Published
}

func (m *Memory) Publish(_ context.Context, topic, key string, ev Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Published{Topic: topic, Key: key, Event: ev})
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Events() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Published, len(m.events))
	copy(out, m.events)
	return out
}

// Types lists the event types published to topic, in order.
func (m *Memory) Types(topic string) []string {
	var out []string
	for _, p := range m.Events() {
		if p.Topic == topic {
			out = append(out, p.Event.Type)
		}
	}
	return out
}
