package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quacc/access-point-api/internal/api/metrics"
	"github.com/quacc/access-point-api/internal/core/domain"
	"github.com/quacc/access-point-api/internal/core/ports"
)

type UserHandler struct {
	users ports.UserRegistry
}

func NewUserHandler(users ports.UserRegistry) *UserHandler {
	return &UserHandler{users: users}
}

// Create handles POST /user.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "Credentials"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /user [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.users.Create(req.Username, req.Password)
	if err != nil {
		return err
	}
	metrics.UsersCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Subscribe handles POST /user/add.
//
// @Summary      Follow an access point
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      subscribeRequest  true  "Username and access point id"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /user/add [post]
func (h *UserHandler) Subscribe(c echo.Context) error {
	var req subscribeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.users.Subscribe(req.Username, domain.AccessPointID(*req.AccessPointID)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "subscribed"})
}

// Get handles GET /user/:username. The password hash is never returned.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  userResponse
// @Failure      404       {object}  errorResponse
// @Router       /user/{username} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.Get(c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func toUserResponse(u domain.User) userResponse {
	ids := u.AccessPoints
	if ids == nil {
		ids = []domain.AccessPointID{}
	}
	return userResponse{Username: u.Username, AccessPoints: ids}
}
