package ports

import (
	"context"

	"github.com/animalguardian/platform/internal/core/domain"
)

// CreateCaseInput carries the client-supplied fields of a new case report.
// The reporter is always the calling actor.
type CreateCaseInput struct {
	SymptomsObserved string
	LocationNotes    string
	Urgency          domain.Urgency
	LivestockID      *uint
	IdempotencyKey   string
}

// CreateCaseResult is returned by CaseService.Create.
type CreateCaseResult struct {
	Case *domain.CaseReport
	// AlreadyExisted is true when the Idempotency-Key matched an earlier case.
	AlreadyExisted bool
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items      []*T
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// CaseService defines the case lifecycle use cases.
type CaseService interface {
	Create(ctx context.Context, actor domain.Actor, in CreateCaseInput) (*CreateCaseResult, error)
	List(ctx context.Context, actor domain.Actor, filter domain.CaseFilter) (*Page[domain.CaseReport], error)
	Get(ctx context.Context, actor domain.Actor, id uint) (*domain.CaseReport, error)
	GetByCaseID(ctx context.Context, actor domain.Actor, caseID string) (*domain.CaseReport, error)
	Update(ctx context.Context, actor domain.Actor, id uint, changes domain.CaseChanges) (*domain.CaseReport, error)
	Delete(ctx context.Context, actor domain.Actor, id uint) error
	// Assign binds the case to a local vet. vetID zero means it was not supplied.
	Assign(ctx context.Context, actor domain.Actor, id, vetID uint) (*domain.CaseReport, error)
	Unassign(ctx context.Context, actor domain.Actor, id uint) (*domain.CaseReport, error)
	AvailableVets(ctx context.Context, actor domain.Actor, sector, district string) ([]*domain.User, error)
	History(ctx context.Context, actor domain.Actor, id uint) ([]*domain.CaseEvent, error)
}
