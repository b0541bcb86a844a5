package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

const (
	defaultListLimit  = 50
	maxListLimit      = 100
	maxExportLimit    = 5000
	maxMovementReason = 200
)

type movementService struct {
	movements ports.MovementRepository
	items     ports.ItemRepository
	idem      ports.IdempotencyStore
	log       zerolog.Logger
}

// NewMovementService returns a MovementService. idem may be nil, in which case
// Idempotency-Key values are ignored.
func NewMovementService(
	movements ports.MovementRepository,
	items ports.ItemRepository,
	idem ports.IdempotencyStore,
	log zerolog.Logger,
) ports.MovementService {
	return &movementService{
		movements: movements,
		items:     items,
		idem:      idem,
		log:       log,
	}
}

// Post validates and records a stock movement, adjusting the item quantity.
func (s *movementService) Post(ctx context.Context, in ports.PostMovementInput) (*ports.MovementResult, error) {
	mt := domain.MovementType(in.Type)
	reason := strings.TrimSpace(in.Reason)

	verr := &domain.ValidationError{}
	if !mt.Valid() {
		verr.Add("type", "type must be one of: in out")
	}
	if in.Quantity <= 0 {
		verr.Add("quantity", "quantity must be greater than 0")
	}
	if utf8.RuneCountInString(reason) > maxMovementReason {
		verr.Add("reason", "reason must be at most 200 characters")
	}
	if !verr.Empty() {
		return nil, verr
	}

	replay, held, err := s.claim(ctx, in.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("post movement: %w", err)
	}
	if replay != nil {
		return &ports.MovementResult{Movement: replay, AlreadyExisted: true}, nil
	}

	m, err := s.apply(ctx, mt, reason, in)
	if held {
		s.settle(ctx, in.IdempotencyKey, m, err)
	}
	if err != nil {
		return nil, fmt.Errorf("post movement: %w", err)
	}
	return &ports.MovementResult{Movement: m}, nil
}

// apply checks the item and records the movement through the repository.
func (s *movementService) apply(ctx context.Context, mt domain.MovementType, reason string, in ports.PostMovementInput) (*domain.Movement, error) {
	item, err := s.items.FindByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}

	if mt == domain.MovementOut && item.Quantity < in.Quantity {
		return nil, fmt.Errorf("%w (available %g, requested %g)",
			domain.ErrInsufficientStock, item.Quantity, in.Quantity)
	}

	m := &domain.Movement{
		ItemID:    item.ID,
		Type:      mt,
		Quantity:  in.Quantity,
		Reason:    reason,
		CreatedBy: in.CreatedBy,
	}
	updated, err := s.movements.Post(ctx, m)
	if err != nil {
		return nil, err
	}

	m.ItemName = updated.Name
	m.ItemUnit = updated.Unit

	s.log.Info().
		Str("movement_id", m.ID).
		Str("item_id", item.ID).
		Str("type", string(mt)).
		Float64("quantity", in.Quantity).
		Float64("balance", updated.Quantity).
		Msg("movement posted")

	if updated.IsLowStock() {
		s.log.Warn().Str("item_id", item.ID).Float64("quantity", updated.Quantity).Msg("item at or below minimum")
	}
	return m, nil
}

// claim reserves an Idempotency-Key before anything is written. It returns the
// earlier movement when the key was already completed, and held reports
// whether this request owns the key. Store failures are logged and the
// request proceeds without idempotency.
func (s *movementService) claim(ctx context.Context, key string) (replay *domain.Movement, held bool, err error) {
	if key == "" || s.idem == nil {
		return nil, false, nil
	}

	id, claimed, err := s.idem.Claim(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("idempotency claim failed, processing anyway")
		return nil, false, nil
	}
	if claimed {
		return nil, true, nil
	}
	if id == "" {
		return nil, false, domain.ErrIdempotencyInProgress
	}

	m, err := s.movements.FindByID(ctx, id)
	if errors.Is(err, domain.ErrMovementNotFound) {
		s.log.Warn().Str("movement_id", id).Msg("idempotency key points at a missing movement, processing anyway")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load replayed movement: %w", err)
	}

	s.log.Debug().Str("movement_id", id).Msg("idempotent replay")
	return m, false, nil
}

// settle completes a held key with the posted movement, or releases it when
// the post failed. It outlives a cancelled request context.
func (s *movementService) settle(ctx context.Context, key string, m *domain.Movement, postErr error) {
	ctx = context.WithoutCancel(ctx)
	if postErr != nil {
		if err := s.idem.Release(ctx, key); err != nil {
			s.log.Warn().Err(err).Msg("failed to release idempotency key")
		}
		return
	}
	if err := s.idem.Complete(ctx, key, m.ID); err != nil {
		s.log.Warn().Err(err).Str("movement_id", m.ID).Msg("failed to store idempotency key")
	}
}

func (s *movementService) List(ctx context.Context, in ports.ListMovementsInput) ([]*domain.Movement, error) {
	return s.list(ctx, in, defaultListLimit, maxListLimit)
}

func (s *movementService) ListForExport(ctx context.Context, in ports.ListMovementsInput) ([]*domain.Movement, error) {
	return s.list(ctx, in, maxExportLimit, maxExportLimit)
}

func (s *movementService) list(ctx context.Context, in ports.ListMovementsInput, def, max int) ([]*domain.Movement, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		return nil, domain.NewValidationError("limit", fmt.Sprintf("limit must be at most %d", max))
	}
	if !in.From.IsZero() && !in.To.IsZero() && in.To.Before(in.From) {
		return nil, domain.NewValidationError("to", "to must not be before from")
	}

	return s.movements.List(ctx, ports.MovementFilter{
		ItemID: in.ItemID,
		From:   in.From,
		To:     in.To,
		Limit:  limit,
	})
}
