package handler

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/inventory-system/internal/api/metrics"
	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/export"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry POST /api/movements safely.
const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyKeyLength = 200

type MovementHandler struct {
	service ports.MovementService
}

func NewMovementHandler(service ports.MovementService) *MovementHandler {
	return &MovementHandler{service: service}
}

// Create handles POST /api/movements.
//
// @Summary      Record a stock movement
// @Description  Applies an in/out movement to the item and appends it to the ledger.
// @Tags         movements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                 false  "Replay-safe key"
// @Param        body             body      createMovementRequest  true   "Movement"
// @Success      201              {object}  domain.Movement
// @Success      200              {object}  domain.Movement  "Replayed by Idempotency-Key"
// @Failure      400              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Router       /movements [post]
func (h *MovementHandler) Create(c echo.Context) error {
	var req createMovementRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.MovementsRejectedTotal.WithLabelValues("validation").Inc()
		return err
	}

	key := c.Request().Header.Get(HeaderIdempotencyKey)
	if len(key) > maxIdempotencyKeyLength {
		return domain.NewValidationError(HeaderIdempotencyKey, "Idempotency-Key must be at most 200 characters")
	}

	userID, _ := currentUserID(c)
	res, err := h.service.Post(c.Request().Context(), ports.PostMovementInput{
		ItemID:         req.ItemID,
		Type:           req.Type,
		Quantity:       req.Quantity,
		Reason:         req.Reason,
		CreatedBy:      userID,
		IdempotencyKey: key,
	})
	if err != nil {
		metrics.MovementsRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		return err
	}

	if res.AlreadyExisted {
		return c.JSON(http.StatusOK, res.Movement)
	}

	metrics.MovementsPostedTotal.WithLabelValues(req.Type).Inc()
	metrics.MovementQuantity.WithLabelValues(req.Type).Observe(req.Quantity)
	return c.JSON(http.StatusCreated, res.Movement)
}

// List handles GET /api/movements.
//
// @Summary      List movements
// @Tags         movements
// @Produce      json
// @Security     BearerAuth
// @Param        itemId  query     string  false  "Item id"
// @Param        from    query     string  false  "Earliest date (YYYY-MM-DD or RFC 3339)"
// @Param        to      query     string  false  "Latest date (YYYY-MM-DD or RFC 3339)"
// @Param        limit   query     int     false  "Max rows (default 50, max 100)"
// @Success      200     {array}   domain.Movement
// @Failure      400     {object}  errorResponse
// @Router       /movements [get]
func (h *MovementHandler) List(c echo.Context) error {
	in, err := movementQuery(c)
	if err != nil {
		return err
	}
	movements, err := h.service.List(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(movements))
}

// Export handles GET /api/movements/export.
//
// @Summary      Export movements as CSV
// @Tags         movements
// @Produce      text/csv
// @Security     BearerAuth
// @Param        itemId  query  string  false  "Item id"
// @Param        from    query  string  false  "Earliest date"
// @Param        to      query  string  false  "Latest date"
// @Param        limit   query  int     false  "Max rows (default and max 5000)"
// @Success      200
// @Router       /movements/export [get]
func (h *MovementHandler) Export(c echo.Context) error {
	in, err := movementQuery(c)
	if err != nil {
		return err
	}
	movements, err := h.service.ListForExport(c.Request().Context(), in)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteMovements(&buf, movements); err != nil {
		return err
	}
	return sendCSV(c, export.MovementsFilename, buf.Bytes())
}

func movementQuery(c echo.Context) (ports.ListMovementsInput, error) {
	verr := &domain.ValidationError{}
	in := ports.ListMovementsInput{
		ItemID: queryID(c, "itemId", verr),
		From:   queryDate(c, "from", verr),
		To:     queryDate(c, "to", verr),
		Limit:  queryPositiveInt(c, "limit", verr),
	}
	if !verr.Empty() {
		return in, verr
	}
	return in, nil
}

func rejectReason(err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrItemNotFound), errors.Is(err, domain.ErrInvalidID):
		return "item_not_found"
	case errors.Is(err, domain.ErrIdempotencyInProgress):
		return "idempotency_conflict"
	case errors.As(err, &verr):
		return "validation"
	default:
		return "error"
	}
}
