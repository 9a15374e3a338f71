package gormdb

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// LivestockRepository implements ports.LivestockRepository with gorm.
type LivestockRepository struct{ db *gorm.DB }

func NewLivestockRepository(db *gorm.DB) *LivestockRepository { return &LivestockRepository{db: db} }

var _ ports.LivestockRepository = (*LivestockRepository)(nil)

func (r *LivestockRepository) Create(ctx context.Context, l *domain.Livestock) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error, nil)
}

func (r *LivestockRepository) FindByID(ctx context.Context, id uint) (*domain.Livestock, error) {
	var out domain.Livestock
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, translate(err, domain.ErrLivestockNotFound)
	}
	return &out, nil
}

// scopeLivestock restricts q to the animals visible under scope. Vets see
// animals linked to cases assigned to them.
func (r *LivestockRepository) scopeLivestock(ctx context.Context, q *gorm.DB, scope domain.Scope) *gorm.DB {
	switch {
	case scope.All:
		return q
	case scope.AssigneeID != 0:
		linked := r.db.WithContext(ctx).
			Model(&domain.CaseReport{}).
			Select("livestock_id").
			Where("assigned_veterinarian_id = ? AND livestock_id IS NOT NULL", scope.AssigneeID)
		return q.Where("livestock.id IN (?)", linked)
	default:
		return q.Where("livestock.owner_id = ?", scope.OwnerID)
	}
}

func (r *LivestockRepository) FindInScope(ctx context.Context, scope domain.Scope, id uint) (*domain.Livestock, error) {
	var out domain.Livestock
	q := r.scopeLivestock(ctx, r.db.WithContext(ctx).Model(&domain.Livestock{}), scope)
	if err := q.Where("livestock.id = ?", id).First(&out).Error; err != nil {
		return nil, translate(err, domain.ErrLivestockNotFound)
	}
	return &out, nil
}

func (r *LivestockRepository) List(ctx context.Context, scope domain.Scope, page, limit int) ([]*domain.Livestock, int64, error) {
	q := r.scopeLivestock(ctx, r.db.WithContext(ctx).Model(&domain.Livestock{}), scope).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []*domain.Livestock
	err := q.Order("created_at DESC, id DESC").Offset((page - 1) * limit).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *LivestockRepository) Update(ctx context.Context, l *domain.Livestock) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(l).Error, domain.ErrLivestockNotFound)
}

func (r *LivestockRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Livestock{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrLivestockNotFound
	}
	return nil
}
