package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// UserService handles account approval and vet availability.
type UserService struct {
	users    ports.UserRepository
	uow      ports.UnitOfWork
	notifier ports.NotificationService
	logger   zerolog.Logger
}

func NewUserService(users ports.UserRepository, uow ports.UnitOfWork, notifier ports.NotificationService, logger zerolog.Logger) *UserService {
	return &UserService{users: users, uow: uow, notifier: notifier, logger: logger}
}

func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

// GetByPhone resolves the account behind a USSD session.
func (s *UserService) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return s.users.FindByPhone(ctx, phone)
}

func (s *UserService) PendingApprovals(ctx context.Context, actor domain.Actor) ([]*domain.User, error) {
	if !actor.IsSupervisor() {
		return nil, domain.ErrForbidden
	}
	return s.users.ListPendingApprovals(ctx)
}

// Approve marks the account approved and verified. Approving an already
// approved account is a no-op.
func (s *UserService) Approve(ctx context.Context, actor domain.Actor, userID uint) (*domain.User, error) {
	if !actor.IsSupervisor() {
		return nil, domain.ErrForbidden
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsApprovedByAdmin {
		return user, nil
	}

	now := time.Now().UTC()
	user.IsApprovedByAdmin = true
	user.IsVerified = true
	user.ApprovedByID = &actor.ID
	user.ApprovedAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("approve user: %w", err)
	}

	s.logger.Info().Uint("user_id", user.ID).Uint("approved_by", actor.ID).Msg("account approved")
	s.notifier.Notify(ctx, user, domain.Message{
		Title: "Account Approved",
		Body:  "Your account has been approved. You can now log in to AnimalGuardian.",
	}, true)
	return user, nil
}

// SetAvailability toggles the vet's assignment eligibility and mirrors it
// onto the account's active flag.
func (s *UserService) SetAvailability(ctx context.Context, actor domain.Actor, available bool) (*domain.VeterinarianProfile, error) {
	if !actor.Role.IsVet() {
		return nil, domain.ErrForbidden
	}

	var profile *domain.VeterinarianProfile
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		user, err := repos.Users.FindByID(ctx, actor.ID)
		if err != nil {
			return err
		}
		if user.VeterinarianProfile == nil {
			return domain.ErrVetProfileNotFound
		}
		profile = user.VeterinarianProfile
		profile.IsAvailable = available
		if err := repos.Users.UpdateProfile(ctx, profile); err != nil {
			return err
		}
		user.IsActive = available
		user.VeterinarianProfile = nil
		return repos.Users.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint("vet_id", actor.ID).Bool("available", available).Msg("availability changed")
	return profile, nil
}
