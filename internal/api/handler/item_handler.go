package handler

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/export"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

const maxSearchLength = 100

type ItemHandler struct {
	service ports.ItemService
}

func NewItemHandler(service ports.ItemService) *ItemHandler {
	return &ItemHandler{service: service}
}

// List handles GET /api/items.
//
// @Summary      List items
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        categoryId  query     string  false  "Category id"
// @Param        lowStock    query     bool    false  "Only items at or below their minimum"
// @Param        search      query     string  false  "Case-insensitive name match"
// @Success      200         {array}   domain.Item
// @Failure      400         {object}  errorResponse
// @Router       /items [get]
func (h *ItemHandler) List(c echo.Context) error {
	filter, err := itemFilter(c)
	if err != nil {
		return err
	}
	items, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(items))
}

// Export handles GET /api/items/export.
//
// @Summary      Export items as CSV
// @Tags         items
// @Produce      text/csv
// @Security     BearerAuth
// @Param        categoryId  query  string  false  "Category id"
// @Param        lowStock    query  bool    false  "Only items at or below their minimum"
// @Param        search      query  string  false  "Case-insensitive name match"
// @Success      200
// @Router       /items/export [get]
func (h *ItemHandler) Export(c echo.Context) error {
	filter, err := itemFilter(c)
	if err != nil {
		return err
	}
	items, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteItems(&buf, items); err != nil {
		return err
	}
	return sendCSV(c, export.ItemsFilename, buf.Bytes())
}

// Reorder handles GET /api/items/reorder.
//
// @Summary      Reorder list
// @Description  Low-stock items with suggested order quantity max(0, minQuantity - quantity + 1).
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        categoryId  query     string  false  "Category id"
// @Success      200         {array}   reorderLineResponse
// @Router       /items/reorder [get]
func (h *ItemHandler) Reorder(c echo.Context) error {
	filter, err := itemFilter(c)
	if err != nil {
		return err
	}
	lines, err := h.service.ReorderList(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReorderLines(lines))
}

// Get handles GET /api/items/:id.
//
// @Summary      Get an item
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item id"
// @Success      200  {object}  domain.Item
// @Failure      404  {object}  errorResponse
// @Router       /items/{id} [get]
func (h *ItemHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	item, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// Create handles POST /api/items.
//
// @Summary      Create an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createItemRequest  true  "Item"
// @Success      201   {object}  domain.Item
// @Failure      400   {object}  errorResponse
// @Router       /items [post]
func (h *ItemHandler) Create(c echo.Context) error {
	var req createItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in, err := toCreateItemInput(req)
	if err != nil {
		return err
	}

	item, err := h.service.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

// Update handles PUT /api/items/:id. A quantity sent here overwrites the
// stock level without a ledger entry.
//
// @Summary      Update an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Item id"
// @Param        body  body      updateItemRequest  true  "Fields to change"
// @Success      200   {object}  domain.Item
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /items/{id} [put]
func (h *ItemHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	upd, err := toItemUpdate(req)
	if err != nil {
		return err
	}

	item, err := h.service.Update(c.Request().Context(), id, upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// Delete handles DELETE /api/items/:id.
//
// @Summary      Delete an item
// @Tags         items
// @Security     BearerAuth
// @Param        id   path  string  true  "Item id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /items/{id} [delete]
func (h *ItemHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func itemFilter(c echo.Context) (ports.ItemFilter, error) {
	verr := &domain.ValidationError{}
	f := ports.ItemFilter{
		CategoryID: queryID(c, "categoryId", verr),
		Search:     strings.TrimSpace(c.QueryParam("search")),
	}

	switch c.QueryParam("lowStock") {
	case "", "false":
	case "true":
		f.LowStock = true
	default:
		verr.Add("lowStock", "lowStock must be true or false")
	}
	if len(f.Search) > maxSearchLength {
		verr.Add("search", "search must be at most 100 characters")
	}

	if !verr.Empty() {
		return f, verr
	}
	return f, nil
}

func sendCSV(c echo.Context, filename string, body []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+filename)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", body)
}
