package handler

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func newJSONContext(e *echo.Echo, method, target string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

type stubAuthService struct {
	loginFn          func(ctx context.Context, email, password string) (string, *domain.User, error)
	changePasswordFn func(ctx context.Context, userID, current, next string) error
	profileFn        func(ctx context.Context, userID string) (*domain.User, error)
	createUserFn     func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error)
	listUsersFn      func(ctx context.Context) ([]*domain.User, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	return s.changePasswordFn(ctx, userID, current, next)
}

func (s *stubAuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.profileFn(ctx, userID)
}

func (s *stubAuthService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	return s.createUserFn(ctx, in)
}

func (s *stubAuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.listUsersFn(ctx)
}

func (s *stubAuthService) ResetPassword(context.Context, string, string) error {
	return nil
}

type stubItemService struct {
	listFn    func(ctx context.Context, f ports.ItemFilter) ([]*domain.Item, error)
	updateFn  func(ctx context.Context, id string, upd ports.ItemUpdate) (*domain.Item, error)
	createFn  func(ctx context.Context, in ports.CreateItemInput) (*domain.Item, error)
	reorderFn func(ctx context.Context, f ports.ItemFilter) ([]ports.ReorderLine, error)
}

func (s *stubItemService) List(ctx context.Context, f ports.ItemFilter) ([]*domain.Item, error) {
	return s.listFn(ctx, f)
}

func (s *stubItemService) Get(context.Context, string) (*domain.Item, error) {
	return nil, domain.ErrItemNotFound
}

func (s *stubItemService) Create(ctx context.Context, in ports.CreateItemInput) (*domain.Item, error) {
	return s.createFn(ctx, in)
}

func (s *stubItemService) Update(ctx context.Context, id string, upd ports.ItemUpdate) (*domain.Item, error) {
	return s.updateFn(ctx, id, upd)
}

func (s *stubItemService) Delete(context.Context, string) error {
	return nil
}

func (s *stubItemService) ReorderList(ctx context.Context, f ports.ItemFilter) ([]ports.ReorderLine, error) {
	return s.reorderFn(ctx, f)
}

type stubMovementService struct {
	postFn   func(ctx context.Context, in ports.PostMovementInput) (*ports.MovementResult, error)
	listFn   func(ctx context.Context, in ports.ListMovementsInput) ([]*domain.Movement, error)
	exportFn func(ctx context.Context, in ports.ListMovementsInput) ([]*domain.Movement, error)
}

func (s *stubMovementService) Post(ctx context.Context, in ports.PostMovementInput) (*ports.MovementResult, error) {
	return s.postFn(ctx, in)
}

func (s *stubMovementService) List(ctx context.Context, in ports.ListMovementsInput) ([]*domain.Movement, error) {
	return s.listFn(ctx, in)
}

func (s *stubMovementService) ListForExport(ctx context.Context, in ports.ListMovementsInput) ([]*domain.Movement, error) {
	return s.exportFn(ctx, in)
}
