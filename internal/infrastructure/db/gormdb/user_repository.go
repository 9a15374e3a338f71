package gormdb

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// UserRepository implements ports.UserRepository with gorm.
type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

var _ ports.UserRepository = (*UserRepository)(nil)

// Create inserts the user; gorm saves the has-one VeterinarianProfile in the
// same statement batch.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error, nil)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var out domain.User
	if err := r.db.WithContext(ctx).Preload("VeterinarianProfile").First(&out, id).Error; err != nil {
		return nil, translate(err, domain.ErrUserNotFound)
	}
	return &out, nil
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var out domain.User
	err := r.db.WithContext(ctx).Preload("VeterinarianProfile").Where("phone_number = ?", phone).First(&out).Error
	if err != nil {
		return nil, translate(err, domain.ErrUserNotFound)
	}
	return &out, nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(u).Error, domain.ErrUserNotFound)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, p *domain.VeterinarianProfile) error {
	return translate(r.db.WithContext(ctx).Save(p).Error, domain.ErrVetProfileNotFound)
}

func (r *UserRepository) ListAvailableVets(ctx context.Context, sector, district string) ([]*domain.User, error) {
	q := r.db.WithContext(ctx).
		Joins("JOIN veterinarian_profiles ON veterinarian_profiles.user_id = users.id").
		Where("users.user_type = ? AND users.is_approved_by_admin = ? AND veterinarian_profiles.is_available = ?",
			domain.RoleLocalVet, true, true)
	if sector != "" {
		q = q.Where("users.sector = ?", sector)
	}
	if district != "" {
		q = q.Where("users.district = ?", district)
	}

	var out []*domain.User
	if err := q.Preload("VeterinarianProfile").Order("users.id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UserRepository) ListPendingApprovals(ctx context.Context) ([]*domain.User, error) {
	var out []*domain.User
	err := r.db.WithContext(ctx).
		Preload("VeterinarianProfile").
		Where("user_type IN ? AND is_approved_by_admin = ?", []domain.Role{domain.RoleLocalVet, domain.RoleSectorVet}, false).
		Order("created_at").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
