package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/inventory-system/internal/core/ports"
)

type DashboardHandler struct {
	service ports.DashboardService
}

func NewDashboardHandler(service ports.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary handles GET /api/dashboard/summary.
//
// @Summary      Dashboard summary
// @Description  Item count, low-stock count and items expiring within 7 days.
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dashboardResponse
// @Router       /dashboard/summary [get]
func (h *DashboardHandler) Summary(c echo.Context) error {
	sum, err := h.service.Summary(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDashboardResponse(sum))
}
