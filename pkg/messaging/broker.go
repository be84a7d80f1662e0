package messaging

import (
	"context"
	"time"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Message is the envelope relayed to push subscribers.
type Message struct {
	Type        string      `json:"type"`
	Priority    string      `json:"priority"`
	RecipientID string      `json:"recipient_id,omitempty"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	Payload     interface{} `json:"payload,omitempty"`
	SentAt      time.Time   `json:"sent_at"`
}

// UserChannel is the per-user push topic.
func UserChannel(userID string) string {
	return "push:user:" + userID
}
