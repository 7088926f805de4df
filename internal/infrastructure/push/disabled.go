package push

import (
	"context"

	"github.com/quacc/access-point-api/internal/core/domain"
)

// Disabled stands in for the Dispatcher when no VAPID key could be loaded.
// Every operation fails with domain.ErrPushDisabled.
type Disabled struct{}

func (Disabled) Send(context.Context, string, string) error {
	return domain.ErrPushDisabled
}

func (Disabled) RegisterSubscription(context.Context, string, domain.PushSubscription) error {
	return domain.ErrPushDisabled
}

func (Disabled) PublicKey() string { return "" }
