package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/inventory-system/internal/core/ports"
)

type CategoryHandler struct {
	service ports.CategoryService
}

func NewCategoryHandler(service ports.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// List handles GET /api/categories.
//
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Category
// @Router       /categories [get]
func (h *CategoryHandler) List(c echo.Context) error {
	cats, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(cats))
}

// Get handles GET /api/categories/:id.
//
// @Summary      Get a category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Category id"
// @Success      200  {object}  domain.Category
// @Failure      404  {object}  errorResponse
// @Router       /categories/{id} [get]
func (h *CategoryHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	cat, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

// Create handles POST /api/categories.
//
// @Summary      Create a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCategoryRequest  true  "Category"
// @Success      201   {object}  domain.Category
// @Failure      400   {object}  errorResponse
// @Router       /categories [post]
func (h *CategoryHandler) Create(c echo.Context) error {
	var req createCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cat, err := h.service.Create(c.Request().Context(), ports.CreateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cat)
}

// Update handles PUT /api/categories/:id.
//
// @Summary      Update a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Category id"
// @Param        body  body      updateCategoryRequest  true  "Fields to change"
// @Success      200   {object}  domain.Category
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /categories/{id} [put]
func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cat, err := h.service.Update(c.Request().Context(), id, ports.CategoryUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

// Delete handles DELETE /api/categories/:id.
//
// @Summary      Delete a category
// @Description  Fails with CATEGORY_IN_USE while items reference the category.
// @Tags         categories
// @Security     BearerAuth
// @Param        id   path  string  true  "Category id"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /categories/{id} [delete]
func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
