package domain

import "errors"

var (
	ErrNoSubscription      = errors.New("no push subscription registered")
	ErrDelivery            = errors.New("push delivery failed")
	ErrPushDisabled        = errors.New("push notifications are disabled")
	// ErrInvalidSubscription is returned for subscriptions missing an endpoint or keys.
	ErrInvalidSubscription = errors.New("invalid push subscription")
)

// PushKeys are the client keys a push payload is encrypted for.
type PushKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushSubscription is the delivery target a browser push agent hands out.
type PushSubscription struct {
	Endpoint string   `json:"endpoint"`
	Keys     PushKeys `json:"keys"`
}
