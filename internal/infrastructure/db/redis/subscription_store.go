package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/quacc/access-point-api/internal/core/domain"
	"github.com/quacc/access-point-api/internal/core/ports"
)

// SubscriptionStore keeps push subscriptions in Redis so they survive a
// restart. Key format: push:subscription:<username>
type SubscriptionStore struct {
	client *redis.Client
}

var _ ports.PushSubscriptionStore = (*SubscriptionStore)(nil)

// NewSubscriptionStore wraps the given Redis client.
func NewSubscriptionStore(client *redis.Client) *SubscriptionStore {
	return &SubscriptionStore{client: client}
}

// Put stores or overwrites the subscription for username. Entries never expire.
func (s *SubscriptionStore) Put(ctx context.Context, username string, sub domain.PushSubscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	if err := s.client.Set(ctx, subscriptionKey(username), data, 0).Err(); err != nil {
		return fmt.Errorf("store subscription: %w", err)
	}
	return nil
}

// Get loads the subscription for username.
func (s *SubscriptionStore) Get(ctx context.Context, username string) (domain.PushSubscription, error) {
	data, err := s.client.Get(ctx, subscriptionKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PushSubscription{}, domain.ErrNoSubscription
		}
		return domain.PushSubscription{}, fmt.Errorf("load subscription: %w", err)
	}

	var sub domain.PushSubscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return domain.PushSubscription{}, fmt.Errorf("decode subscription: %w", err)
	}
	return sub, nil
}

func subscriptionKey(username string) string {
	return "push:subscription:" + username
}
