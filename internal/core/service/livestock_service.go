package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

const defaultHealthStatus = "healthy"

// LivestockService manages the farmer-owned animal registry.
type LivestockService struct {
	repo   ports.LivestockRepository
	logger zerolog.Logger
}

func NewLivestockService(repo ports.LivestockRepository, logger zerolog.Logger) *LivestockService {
	return &LivestockService{repo: repo, logger: logger}
}

func (s *LivestockService) Create(ctx context.Context, actor domain.Actor, in ports.CreateLivestockInput) (*domain.Livestock, error) {
	kind := strings.TrimSpace(in.LivestockType)
	if kind == "" {
		return nil, fmt.Errorf("%w: livestock_type is required", domain.ErrValidation)
	}
	health := strings.TrimSpace(in.HealthStatus)
	if health == "" {
		health = defaultHealthStatus
	}

	l := &domain.Livestock{
		OwnerID:       actor.ID,
		LivestockType: kind,
		Breed:         strings.TrimSpace(in.Breed),
		Name:          strings.TrimSpace(in.Name),
		TagNumber:     domain.NormalizeTag(in.TagNumber),
		Gender:        strings.TrimSpace(in.Gender),
		HealthStatus:  health,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, tagConflict(err)
	}
	s.logger.Info().Uint("livestock_id", l.ID).Uint("owner_id", actor.ID).Msg("livestock registered")
	return l, nil
}

func (s *LivestockService) List(ctx context.Context, actor domain.Actor, page, limit int) (*ports.Page[domain.Livestock], error) {
	page, limit = normalizePage(page, limit)
	items, total, err := s.repo.List(ctx, domain.PolicyFor(actor).Scope(), page, limit)
	if err != nil {
		return nil, fmt.Errorf("list livestock: %w", err)
	}
	return newPage(items, total, page, limit), nil
}

// Get returns the animal when it falls inside the actor's scope.
func (s *LivestockService) Get(ctx context.Context, actor domain.Actor, id uint) (*domain.Livestock, error) {
	return s.repo.FindInScope(ctx, domain.PolicyFor(actor).Scope(), id)
}

func (s *LivestockService) Update(ctx context.Context, actor domain.Actor, id uint, ch domain.LivestockChanges) (*domain.Livestock, error) {
	l, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if ch.LivestockType != nil {
		kind := strings.TrimSpace(*ch.LivestockType)
		if kind == "" {
			return nil, fmt.Errorf("%w: livestock_type cannot be empty", domain.ErrValidation)
		}
		l.LivestockType = kind
	}
	if ch.Breed != nil {
		l.Breed = strings.TrimSpace(*ch.Breed)
	}
	if ch.Name != nil {
		l.Name = strings.TrimSpace(*ch.Name)
	}
	if ch.TagNumber != nil {
		l.TagNumber = domain.NormalizeTag(ch.TagNumber)
	}
	if ch.Gender != nil {
		l.Gender = strings.TrimSpace(*ch.Gender)
	}
	if ch.HealthStatus != nil && strings.TrimSpace(*ch.HealthStatus) != "" {
		l.HealthStatus = strings.TrimSpace(*ch.HealthStatus)
	}
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, tagConflict(err)
	}
	return l, nil
}

func (s *LivestockService) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	l, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, l.ID)
}

// owned loads the animal and checks that actor may change it.
func (s *LivestockService) owned(ctx context.Context, actor domain.Actor, id uint) (*domain.Livestock, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.OwnerID != actor.ID && !actor.IsSupervisor() {
		return nil, domain.ErrForbidden
	}
	return l, nil
}

func tagConflict(err error) error {
	if errors.Is(err, domain.ErrDuplicateKey) {
		return fmt.Errorf("%w: tag number already registered", domain.ErrDuplicateKey)
	}
	return err
}
