package ports

import (
	"context"

	"github.com/animalguardian/platform/internal/core/domain"
)

type CreateLivestockInput struct {
	LivestockType string
	Breed         string
	Name          string
	TagNumber     *string
	Gender        string
	HealthStatus  string
}

// LivestockService defines the livestock registry use cases.
type LivestockService interface {
	Create(ctx context.Context, actor domain.Actor, in CreateLivestockInput) (*domain.Livestock, error)
	List(ctx context.Context, actor domain.Actor, page, limit int) (*Page[domain.Livestock], error)
	Get(ctx context.Context, actor domain.Actor, id uint) (*domain.Livestock, error)
	Update(ctx context.Context, actor domain.Actor, id uint, changes domain.LivestockChanges) (*domain.Livestock, error)
	Delete(ctx context.Context, actor domain.Actor, id uint) error
}
