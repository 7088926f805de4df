package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/quacc/access-point-api/internal/api/metrics"
	"github.com/quacc/access-point-api/internal/core/domain"
	"github.com/quacc/access-point-api/internal/core/ports"
)

const defaultFanout = 8

type reportService struct {
	accessPoints ports.AccessPointRegistry
	users        ports.UserRegistry
	notifier     ports.Notifier
	fanout       int
	log          zerolog.Logger
}

// NewReportService returns the report fulfillment pipeline. fanout bounds the
// number of concurrent deliveries per report; values <= 0 use defaultFanout.
func NewReportService(
	accessPoints ports.AccessPointRegistry,
	users ports.UserRegistry,
	notifier ports.Notifier,
	fanout int,
	log zerolog.Logger,
) ports.ReportService {
	if fanout <= 0 {
		fanout = defaultFanout
	}
	return &reportService{
		accessPoints: accessPoints,
		users:        users,
		notifier:     notifier,
		fanout:       fanout,
		log:          log.With().Str("component", "reports").Logger(),
	}
}

// Fulfill applies the report and notifies every subscriber of the target.
// Only the status change can fail the call; delivery problems are logged and
// counted in the result.
func (s *reportService) Fulfill(ctx context.Context, report domain.Report) (*ports.FulfillResult, error) {
	// 1. Commit the status change. Nothing is sent for an unknown access point.
	if err := s.accessPoints.SetStatus(report.Target, report.Status); err != nil {
		metrics.ReportsFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, fmt.Errorf("fulfill report: %w", err)
	}
	metrics.ReportsFulfilledTotal.WithLabelValues(string(report.Status)).Inc()

	ap, err := s.accessPoints.Get(report.Target)
	if err != nil {
		// Deletion does not exist, so this only happens if the registry is swapped out.
		return nil, fmt.Errorf("fulfill report: %w", err)
	}

	// 2. Resolve subscribers. The access point registry is no longer locked here.
	subscribers := s.users.SubscribersOf(report.Target)

	s.log.Info().
		Uint64("access_point_id", uint64(report.Target)).
		Str("status", string(report.Status)).
		Int("subscribers", len(subscribers)).
		Msg("report fulfilled")

	result := &ports.FulfillResult{AccessPoint: ap, Subscribers: subscribers}
	if len(subscribers) == 0 {
		return result, nil
	}

	// 3. Fan out deliveries. Individual failures never cancel the others.
	message := notificationText(ap, report)
	var delivered, failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(s.fanout)
	for _, username := range subscribers {
		g.Go(func() error {
			if err := s.notifier.Send(ctx, username, message); err != nil {
				failed.Add(1)
				reason := deliveryFailureReason(err)
				metrics.NotificationsFailedTotal.WithLabelValues(reason).Inc()
				s.log.Warn().Err(err).
					Str("username", username).
					Uint64("access_point_id", uint64(report.Target)).
					Str("reason", reason).
					Msg("notification not delivered")
				return nil
			}
			delivered.Add(1)
			metrics.NotificationsSentTotal.Inc()
			return nil
		})
	}
	_ = g.Wait()

	result.Delivered = int(delivered.Load())
	result.Failed = int(failed.Load())
	return result, nil
}

// notificationText is the push payload body shown by the client.
func notificationText(ap domain.AccessPoint, report domain.Report) string {
	text := fmt.Sprintf("%s is now %s", ap.DisplayName(), report.Status.Display())
	if report.HasDescription() {
		text += ": " + report.Description
	}
	return text
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidStatus):
		return "invalid_status"
	default:
		return "error"
	}
}

func deliveryFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoSubscription):
		return "no_subscription"
	case errors.Is(err, domain.ErrDelivery):
		return "delivery_failed"
	case errors.Is(err, domain.ErrPushDisabled):
		return "push_disabled"
	default:
		return "error"
	}
}
