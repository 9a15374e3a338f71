package ports

import (
	"context"

	"github.com/animalguardian/platform/internal/core/domain"
)

// RegisterInput carries the self-registration payload.
type RegisterInput struct {
	PhoneNumber   string
	Email         string
	Password      string
	FirstName     string
	LastName      string
	UserType      domain.Role
	Sector        string
	District      string
	LicenseNumber string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// Login returns a signed token and the authenticated user.
	Login(ctx context.Context, phone, password string) (string, *domain.User, error)
}

// UserService covers account administration.
type UserService interface {
	Get(ctx context.Context, id uint) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	PendingApprovals(ctx context.Context, actor domain.Actor) ([]*domain.User, error)
	Approve(ctx context.Context, actor domain.Actor, userID uint) (*domain.User, error)
	SetAvailability(ctx context.Context, actor domain.Actor, available bool) (*domain.VeterinarianProfile, error)
}
