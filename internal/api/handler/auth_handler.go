package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/inventory-system/internal/api/metrics"
	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}

// ChangePassword replaces the caller's password after re-checking the current one.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/change-password [patch]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.ChangePassword(c.Request().Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Password updated successfully"})
}

// Me returns the caller's profile.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Profile(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
