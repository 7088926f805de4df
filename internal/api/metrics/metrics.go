// Package metrics defines and registers the custom Prometheus metrics of the
// access point API. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "access_points"

// ── Registry metrics ──────────────────────────────────────────────────────────

// AccessPointsCreatedTotal counts created access points.
// Label:
//   - kind: display form of the kind (e.g. "Wheelchair", "Other")
var AccessPointsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "created_total",
		Help:      "Total number of access points created, by kind.",
	},
	[]string{"kind"},
)

// UsersCreatedTotal counts user accounts created.
var UsersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of user accounts created.",
	},
)

// ── Report metrics ────────────────────────────────────────────────────────────

// ReportsFulfilledTotal counts reports applied to an access point.
// Label:
//   - status: the status the report set (e.g. "NotWorking")
var ReportsFulfilledTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_fulfilled_total",
		Help:      "Total number of reports successfully applied.",
	},
	[]string{"status"},
)

// ReportsFailedTotal counts reports that could not be applied.
// Label:
//   - reason: "not_found", "invalid_status" or "error"
var ReportsFailedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_failed_total",
		Help:      "Total number of reports that failed.",
	},
	[]string{"reason"},
)

// ReportQueueDepth tracks queued batch reports per worker.
// Label:
//   - worker_id: numeric worker index
var ReportQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "report_queue_depth",
		Help:      "Current number of reports pending in each queue worker.",
	},
	[]string{"worker_id"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsSentTotal counts push messages accepted by a push service.
var NotificationsSentTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of push notifications delivered.",
	},
)

// NotificationsFailedTotal counts failed notification attempts.
// Label:
//   - reason: "no_subscription", "delivery_failed", "push_disabled" or "error"
var NotificationsFailedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_failed_total",
		Help:      "Total number of push notifications that could not be delivered.",
	},
	[]string{"reason"},
)

// NotificationDeliveryDuration measures one HTTP delivery to a push endpoint.
var NotificationDeliveryDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_delivery_duration_seconds",
		Help:      "Duration of push endpoint requests.",
		Buckets:   prometheus.DefBuckets,
	},
)
