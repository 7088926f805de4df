package ports

import (
	"context"

	"github.com/quacc/access-point-api/internal/core/domain"
)

// Notifier delivers a text message to one user's push endpoint.
type Notifier interface {
	Send(ctx context.Context, username, message string) error
}

// PushRegistrar records where a user's notifications are delivered.
type PushRegistrar interface {
	RegisterSubscription(ctx context.Context, username string, sub domain.PushSubscription) error
	PublicKey() string
}

// PushSubscriptionStore holds at most one subscription per username.
// Get returns domain.ErrNoSubscription when none was registered.
type PushSubscriptionStore interface {
	Put(ctx context.Context, username string, sub domain.PushSubscription) error
	Get(ctx context.Context, username string) (domain.PushSubscription, error)
}
