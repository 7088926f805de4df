package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/quacc/access-point-api/internal/api/metrics"
	"github.com/quacc/access-point-api/internal/core/domain"
	"github.com/quacc/access-point-api/internal/core/ports"
)

// ReportQueue is the interface the handler uses to enqueue batch reports.
type ReportQueue interface {
	EnqueueBatch(ctx context.Context, reports []domain.Report) (int, error)
}

// AccessPointHandler handles access point creation, lookup and reports.
type AccessPointHandler struct {
	accessPoints ports.AccessPointRegistry
	reports      ports.ReportService
	queue        ReportQueue
}

func NewAccessPointHandler(accessPoints ports.AccessPointRegistry, reports ports.ReportService, queue ReportQueue) *AccessPointHandler {
	return &AccessPointHandler{accessPoints: accessPoints, reports: reports, queue: queue}
}

// Create handles POST /ap.
//
// @Summary      Create an access point
// @Tags         access-points
// @Accept       json
// @Produce      json
// @Param        body  body      createAccessPointRequest  true  "Location and optional attributes"
// @Success      201   {object}  createAccessPointResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /ap [post]
func (h *AccessPointHandler) Create(c echo.Context) error {
	var req createAccessPointRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	opts := domain.AccessPointOptions{Name: req.Name}
	status, err := optionalStatus(req.Status)
	if err != nil {
		return err
	}
	opts.Status = status
	if req.Kind != nil {
		kind := domain.NewKind(*req.Kind)
		opts.Kind = &kind
	}

	ap := h.accessPoints.Create(domain.Location{Lat: *req.Lat, Long: *req.Long}, opts)
	metrics.AccessPointsCreatedTotal.WithLabelValues(ap.KindDisplay).Inc()

	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/ap/%d", ap.ID))
	return c.JSON(http.StatusCreated, createAccessPointResponse{ID: ap.ID})
}

// List handles GET /ap.
//
// @Summary      List all access points
// @Tags         access-points
// @Produce      json
// @Success      200  {array}  domain.AccessPoint
// @Router       /ap [get]
func (h *AccessPointHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.accessPoints.List())
}

// Get handles GET /ap/:id.
//
// @Summary      Get an access point
// @Tags         access-points
// @Produce      json
// @Param        id   path      int  true  "Access point id"
// @Success      200  {object}  domain.AccessPoint
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /ap/{id} [get]
func (h *AccessPointHandler) Get(c echo.Context) error {
	id, err := accessPointID(c)
	if err != nil {
		return err
	}
	ap, err := h.accessPoints.Get(id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ap)
}

// Report handles POST /ap/:id/report. An empty body reports the point as
// not working.
//
// @Summary      Report an access point status change
// @Tags         access-points
// @Accept       json
// @Produce      json
// @Param        id    path      int            true   "Access point id"
// @Param        body  body      reportRequest  false  "Optional status and description"
// @Success      200   {object}  reportResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /ap/{id}/report [post]
func (h *AccessPointHandler) Report(c echo.Context) error {
	id, err := accessPointID(c)
	if err != nil {
		return err
	}

	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	report, err := toReport(id, req.Status, req.Description)
	if err != nil {
		return err
	}

	result, err := h.reports.Fulfill(c.Request().Context(), report)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reportResponse{
		AccessPoint: result.AccessPoint,
		Subscribers: len(result.Subscribers),
		Delivered:   result.Delivered,
		Failed:      result.Failed,
	})
}

// ReportBatch handles POST /ap/reports/batch. Reports are applied
// asynchronously, in order per access point.
//
// @Summary      Queue a batch of reports
// @Tags         access-points
// @Accept       json
// @Produce      json
// @Param        body  body      []batchReportRequest  true  "Reports"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /ap/reports/batch [post]
func (h *AccessPointHandler) ReportBatch(c echo.Context) error {
	var reqs []batchReportRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(reqs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "batch cannot be empty")
	}

	reports := make([]domain.Report, 0, len(reqs))
	for i, req := range reqs {
		if err := c.Validate(&req); err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity,
				fmt.Sprintf("report[%d]: %s", i, err.Error()))
		}
		report, err := toReport(domain.AccessPointID(*req.ID), req.Status, req.Description)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity,
				fmt.Sprintf("report[%d]: %s", i, err.Error()))
		}
		reports = append(reports, report)
	}

	n, err := h.queue.EnqueueBatch(c.Request().Context(), reports)
	if err != nil {
		return fmt.Errorf("queued %d of %d reports: %w", n, len(reports), err)
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "reports accepted", Count: n})
}

func accessPointID(c echo.Context) (domain.AccessPointID, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid access point id")
	}
	return domain.AccessPointID(id), nil
}

// optionalStatus parses s, or returns nil when s is empty.
func optionalStatus(s string) (*domain.AccessPointStatus, error) {
	if s == "" {
		return nil, nil
	}
	status, err := domain.ParseStatus(s)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func toReport(id domain.AccessPointID, status, description string) (domain.Report, error) {
	st, err := optionalStatus(status)
	if err != nil {
		return domain.Report{}, err
	}
	return domain.NewReport(id, domain.ReportOptions{Status: st, Description: description}), nil
}
