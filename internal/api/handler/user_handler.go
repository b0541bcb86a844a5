package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/inventory-system/internal/core/ports"
)

// UserHandler exposes account administration. Routes are admin-only.
type UserHandler struct {
	authService ports.AuthService
}

func NewUserHandler(authService ports.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// List handles GET /api/users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.authService.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(users))
}

// Create handles POST /api/users.
//
// @Summary      Provision a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New account"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.CreateUser(c.Request().Context(), ports.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}
