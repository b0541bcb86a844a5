package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/inventory-system/internal/core/domain"
)

// Machine-readable error codes returned in the "code" field.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeCategoryInUse      = "CATEGORY_IN_USE"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeInvalidPassword    = "INVALID_PASSWORD"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeRateLimited        = "RATE_LIMITED"
	CodeIdempotency        = "IDEMPOTENCY_CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and error code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error", "code", "fields"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, errorResponse{Error: verr.Error(), Code: CodeValidation, Fields: verr.Fields}
	}

	// Echo's own errors (bind failures, 404 from router, throttling, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: codeForStatus(he.Code)}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: CodeValidation}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: domain.ErrInvalidCredentials.Error(), Code: CodeInvalidCredentials}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{Error: "authentication required", Code: CodeUnauthorized}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: domain.ErrForbidden.Error(), Code: CodeForbidden}
	case errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrMovementNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error(), Code: CodeNotFound}
	case errors.Is(err, domain.ErrCategoryInUse):
		return http.StatusBadRequest, errorResponse{Error: domain.ErrCategoryInUse.Error(), Code: CodeCategoryInUse}
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusBadRequest, errorResponse{Error: domain.ErrInsufficientStock.Error(), Code: CodeInsufficientStock}
	case errors.Is(err, domain.ErrIncorrectPassword):
		return http.StatusBadRequest, errorResponse{Error: domain.ErrIncorrectPassword.Error(), Code: CodeInvalidPassword}
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, errorResponse{Error: domain.ErrEmailTaken.Error(), Code: CodeEmailTaken}
	case errors.Is(err, domain.ErrIdempotencyInProgress):
		return http.StatusConflict, errorResponse{Error: domain.ErrIdempotencyInProgress.Error(), Code: CodeIdempotency}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: CodeInternal}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusInternalServerError:
		return CodeInternal
	}
	return ""
}
