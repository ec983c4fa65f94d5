package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Message is the envelope published on broadcast channels.
type Message struct {
	Type    string      `json:"type"`
	Origin  string      `json:"origin,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// ChannelIdentityUpdated carries "identity changed, re-read it" broadcasts.
const ChannelIdentityUpdated = "identity.updated"

// Message types on ChannelIdentityUpdated. TypeIdentityChanged names one
// stored user in its payload; TypeSessionRefreshed has no payload and tells
// session binders to re-read their store.
const (
	TypeIdentityChanged  = "identity.changed"
	TypeSessionRefreshed = "session.refreshed"
)
