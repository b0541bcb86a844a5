package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

const bcryptCost = 10

// AuthService implements login, password management and provisioning.
type AuthService struct {
	repo      ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL, log: log}
}

// Login verifies the credentials and issues a signed token. An unknown email
// and a wrong password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Burn comparable time so response latency does not reveal unknown emails.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("login: sign token: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return token, user, nil
}

// ChangePassword re-verifies the current password before replacing the hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if msg := passwordProblem(newPassword); msg != "" {
		return domain.NewValidationError("newPassword", msg)
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUnauthorized
		}
		return fmt.Errorf("change password: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return domain.ErrIncorrectPassword
	}

	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password changed")
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// CreateUser provisions a new account. Callers must already hold the admin
// role; that check lives in the transport layer.
func (s *AuthService) CreateUser(ctx context.Context, input ports.CreateUserInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)
	role := input.Role
	if role == "" {
		role = domain.RoleStaff
	}

	verr := &domain.ValidationError{}
	if email == "" {
		verr.Add("email", "email is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		verr.Add("name", "name is required")
	}
	if msg := passwordProblem(input.Password); msg != "" {
		verr.Add("password", msg)
	}
	if !domain.ValidRole(role) {
		verr.Add("role", "role must be one of: admin staff")
	}
	if !verr.Empty() {
		return nil, verr
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("create user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user created")
	return created, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if msg := passwordProblem(newPassword); msg != "" {
		return domain.NewValidationError("password", msg)
	}

	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}

	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}

func (s *AuthService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePasswordHash(ctx, userID, string(hash))
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// passwordProblem returns the validation message for an unusable password,
// or "" when it is acceptable. bcrypt rejects inputs over 72 bytes.
func passwordProblem(password string) string {
	switch {
	case len(password) < domain.MinPasswordLength:
		return fmt.Sprintf("password must be at least %d characters", domain.MinPasswordLength)
	case len(password) > domain.MaxPasswordBytes:
		return fmt.Sprintf("password must be at most %d bytes", domain.MaxPasswordBytes)
	}
	return ""
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// dummyHash is compared against when the email is unknown.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("inventory-dummy-password"), bcryptCost)
