package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"github.com/quacc/access-point-api/internal/api/metrics"
	"github.com/quacc/access-point-api/internal/core/domain"
	"github.com/quacc/access-point-api/internal/core/ports"
)

const (
	defaultTTL     = 60
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4096
)

// Config tunes delivery. Zero values take the defaults.
type Config struct {
	// Subject is the VAPID "sub" claim, a mailto: or https: contact. A bare
	// address is sent as mailto:.
	Subject string
	// TTL is how long, in seconds, the push service keeps an undelivered message.
	TTL int
	// Timeout bounds one delivery including encryption and the HTTP round trip.
	Timeout time.Duration
}

// Dispatcher encrypts and delivers push messages to registered subscriptions.
type Dispatcher struct {
	store  ports.PushSubscriptionStore
	keys   VAPIDKeys
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

var (
	_ ports.Notifier      = (*Dispatcher)(nil)
	_ ports.PushRegistrar = (*Dispatcher)(nil)
)

// NewDispatcher builds a Dispatcher signing with keys.
func NewDispatcher(store ports.PushSubscriptionStore, keys VAPIDKeys, cfg Config, log zerolog.Logger) *Dispatcher {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Dispatcher{
		store:  store,
		keys:   keys,
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With().Str("component", "push").Logger(),
	}
}

// PublicKey is the application server key clients subscribe with.
func (d *Dispatcher) PublicKey() string { return d.keys.PublicKey }

// RegisterSubscription stores sub as username's delivery target, replacing
// any earlier one.
func (d *Dispatcher) RegisterSubscription(ctx context.Context, username string, sub domain.PushSubscription) error {
	if username == "" || sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return domain.ErrInvalidSubscription
	}
	if err := d.store.Put(ctx, username, sub); err != nil {
		return fmt.Errorf("register subscription: %w", err)
	}
	d.log.Info().Str("username", username).Msg("push subscription registered")
	return nil
}

// Send encrypts message for username's subscription and posts it to the
// push endpoint.
func (d *Dispatcher) Send(ctx context.Context, username, message string) error {
	sub, err := d.store.Get(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNoSubscription) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := webpush.SendNotificationWithContext(ctx, []byte(message), &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      d.client,
		Subscriber:      strings.TrimPrefix(d.cfg.Subject, "mailto:"),
		TTL:             d.cfg.TTL,
		Urgency:         webpush.UrgencyNormal,
		VAPIDPublicKey:  d.keys.PublicKey,
		VAPIDPrivateKey: d.keys.PrivateKey,
	})
	metrics.NotificationDeliveryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		evt := d.log.Debug().
			Str("username", username).
			Int("status_code", resp.StatusCode)
		if body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)); err != nil {
			evt = evt.AnErr("body_error", err)
		} else {
			evt = evt.Bytes("body", body)
		}
		evt.Msg("push endpoint rejected message")
		return fmt.Errorf("%w: endpoint returned %d", domain.ErrDelivery, resp.StatusCode)
	}
	return nil
}
