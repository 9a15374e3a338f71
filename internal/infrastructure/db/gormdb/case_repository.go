package gormdb

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// caseMutableColumns are written by Update. case_id and reporter_id are
// deliberately absent.
var caseMutableColumns = []string{
	"livestock_id",
	"assigned_veterinarian_id",
	"assigned_at",
	"assigned_by_id",
	"status",
	"urgency",
	"symptoms_observed",
	"location_notes",
	"diagnosis",
	"treatment_notes",
	"farmer_confirmed_completion",
	"farmer_confirmed_at",
	"resolved_at",
	"updated_at",
}

// CaseRepository implements ports.CaseRepository with gorm.
type CaseRepository struct{ db *gorm.DB }

func NewCaseRepository(db *gorm.DB) *CaseRepository { return &CaseRepository{db: db} }

var _ ports.CaseRepository = (*CaseRepository)(nil)

func (r *CaseRepository) Create(ctx context.Context, c *domain.CaseReport) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error, nil)
}

func (r *CaseRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Reporter").
		Preload("AssignedVeterinarian").
		Preload("Livestock")
}

func (r *CaseRepository) FindByID(ctx context.Context, id uint) (*domain.CaseReport, error) {
	var out domain.CaseReport
	if err := r.withRelations(ctx).First(&out, id).Error; err != nil {
		return nil, translate(err, domain.ErrCaseNotFound)
	}
	return &out, nil
}

func (r *CaseRepository) FindByCaseID(ctx context.Context, caseID string) (*domain.CaseReport, error) {
	var out domain.CaseReport
	if err := r.withRelations(ctx).Where("case_id = ?", caseID).First(&out).Error; err != nil {
		return nil, translate(err, domain.ErrCaseNotFound)
	}
	return &out, nil
}

func (r *CaseRepository) FindByIdempotencyKey(ctx context.Context, reporterID uint, key string) (*domain.CaseReport, error) {
	var out domain.CaseReport
	err := r.withRelations(ctx).
		Where("reporter_id = ? AND idempotency_key = ?", reporterID, key).
		First(&out).Error
	if err != nil {
		return nil, translate(err, domain.ErrCaseNotFound)
	}
	return &out, nil
}

func scopeCases(q *gorm.DB, scope domain.Scope) *gorm.DB {
	switch {
	case scope.All:
		return q
	case scope.AssigneeID != 0:
		return q.Where("case_reports.assigned_veterinarian_id = ?", scope.AssigneeID)
	default:
		return q.Where("case_reports.reporter_id = ?", scope.OwnerID)
	}
}

func (r *CaseRepository) List(ctx context.Context, scope domain.Scope, f domain.CaseFilter) ([]*domain.CaseReport, int64, error) {
	q := scopeCases(r.db.WithContext(ctx).Model(&domain.CaseReport{}), scope)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Urgency != "" {
		q = q.Where("urgency = ?", f.Urgency)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []*domain.CaseReport
	err := q.
		Preload("Reporter").
		Preload("AssignedVeterinarian").
		Preload("Livestock").
		Order("reported_at DESC, id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *CaseRepository) Update(ctx context.Context, c *domain.CaseReport) error {
	res := r.db.WithContext(ctx).Model(c).Select(caseMutableColumns).Updates(c)
	return translate(res.Error, domain.ErrCaseNotFound)
}

func (r *CaseRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.CaseReport{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCaseNotFound
	}
	return nil
}
