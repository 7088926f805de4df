package ports

import (
	"context"

	"github.com/quacc/access-point-api/internal/core/domain"
)

// FulfillResult describes a fulfilled report. Delivery failures are counted,
// never returned as errors.
type FulfillResult struct {
	AccessPoint domain.AccessPoint
	Subscribers []string
	Delivered   int
	Failed      int
}

// ReportService applies reports and notifies subscribers.
type ReportService interface {
	Fulfill(ctx context.Context, report domain.Report) (*FulfillResult, error)
}
