package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quacc/access-point-api/internal/core/domain"
	"github.com/quacc/access-point-api/internal/core/ports"
)

// testMessage is the fixed payload of POST /notifications/test.
const testMessage = "Test notification from the access point service"

type NotificationHandler struct {
	registrar ports.PushRegistrar
	notifier  ports.Notifier
}

func NewNotificationHandler(registrar ports.PushRegistrar, notifier ports.Notifier) *NotificationHandler {
	return &NotificationHandler{registrar: registrar, notifier: notifier}
}

// Register handles POST /notifications/subscription.
//
// @Summary      Register a push subscription
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        body  body      registerSubscriptionRequest  true  "Username and PushSubscription JSON"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /notifications/subscription [post]
func (h *NotificationHandler) Register(c echo.Context) error {
	var req registerSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	sub := domain.PushSubscription{
		Endpoint: req.Subscription.Endpoint,
		Keys: domain.PushKeys{
			P256dh: req.Subscription.Keys.P256dh,
			Auth:   req.Subscription.Keys.Auth,
		},
	}
	if err := h.registrar.RegisterSubscription(c.Request().Context(), req.Username, sub); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "subscription registered"})
}

// Test handles POST /notifications/test.
//
// @Summary      Send a test notification
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        body  body      testNotificationRequest  true  "Recipient"
// @Success      200   {object}  messageResponse
// @Failure      404   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /notifications/test [post]
func (h *NotificationHandler) Test(c echo.Context) error {
	var req testNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.notifier.Send(c.Request().Context(), req.Username, testMessage); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "notification sent"})
}

// PublicKey handles GET /notifications/vapid-public-key.
//
// @Summary      Get the VAPID application server key
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  publicKeyResponse
// @Failure      503  {object}  errorResponse
// @Router       /notifications/vapid-public-key [get]
func (h *NotificationHandler) PublicKey(c echo.Context) error {
	key := h.registrar.PublicKey()
	if key == "" {
		return domain.ErrPushDisabled
	}
	return c.JSON(http.StatusOK, publicKeyResponse{PublicKey: key})
}
