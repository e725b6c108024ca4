// Package events publishes account lifecycle events for other services.
package events

import (
	"context"
	"time"
)

const (
	TypeUserRegistered   = "user.registered"
	TypeUserVerified     = "user.verified"
	TypeIdentityLinked   = "identity.linked"
	TypeIdentityUnlinked = "identity.unlinked"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	Email      string    `json:"email,omitempty"`
	Channel    string    `json:"channel,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops events; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
