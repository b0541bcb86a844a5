package handler

import (
	"github.com/99minutos/inventory-system/internal/core/domain"
)

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Users ---

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"required,max=200"`
	Role     string `json:"role" validate:"omitempty,oneof=admin staff"`
}

// --- Categories ---

type createCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=500"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// --- Items ---

type createItemRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	CategoryID  string   `json:"categoryId" validate:"required,mongodb"`
	Unit        string   `json:"unit" validate:"required,max=50"`
	Quantity    float64  `json:"quantity" validate:"gte=0"`
	MinQuantity float64  `json:"minQuantity" validate:"gte=0"`
	MaxQuantity *float64 `json:"maxQuantity" validate:"omitempty,gte=0"`
	Supplier    string   `json:"supplier" validate:"max=200"`
	ExpiryDate  string   `json:"expiryDate"`
}

// updateItemRequest is partial; an empty expiryDate clears the date.
type updateItemRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=200"`
	CategoryID  *string  `json:"categoryId" validate:"omitempty,mongodb"`
	Unit        *string  `json:"unit" validate:"omitempty,max=50"`
	Quantity    *float64 `json:"quantity" validate:"omitempty,gte=0"`
	MinQuantity *float64 `json:"minQuantity" validate:"omitempty,gte=0"`
	MaxQuantity *float64 `json:"maxQuantity" validate:"omitempty,gte=0"`
	Supplier    *string  `json:"supplier" validate:"omitempty,max=200"`
	ExpiryDate  *string  `json:"expiryDate"`
}

type reorderLineResponse struct {
	*domain.Item
	LowStock  bool    `json:"lowStock"`
	Suggested float64 `json:"suggested"`
}

// --- Movements ---

type createMovementRequest struct {
	ItemID   string  `json:"itemId" validate:"required,mongodb"`
	Type     string  `json:"type" validate:"required,oneof=in out"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
	Reason   string  `json:"reason" validate:"max=200"`
}

// --- Dashboard ---

type dashboardResponse struct {
	TotalItems        int            `json:"totalItems"`
	LowStockCount     int            `json:"lowStockCount"`
	ExpiringSoonCount int            `json:"expiringSoonCount"`
	ExpiringSoon      []*domain.Item `json:"expiringSoon"`
}

// errorResponse documents the error envelope for swagger.
type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}
