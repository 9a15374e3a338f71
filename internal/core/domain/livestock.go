package domain

import (
	"errors"
	"strings"
	"time"
)

var ErrLivestockNotFound = errors.New("livestock not found")

// Livestock is a farmer-owned animal record.
type Livestock struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OwnerID       uint      `gorm:"index;not null" json:"owner_id"`
	LivestockType string    `gorm:"size:30;not null" json:"livestock_type"`
	Breed         string    `gorm:"size:100" json:"breed"`
	Name          string    `gorm:"size:100" json:"name"`
	TagNumber     *string   `gorm:"size:50;uniqueIndex" json:"tag_number"`
	Gender        string    `gorm:"size:10" json:"gender"`
	HealthStatus  string    `gorm:"size:20;not null;default:healthy" json:"health_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"-"`
}

func (Livestock) TableName() string { return "livestock" }

// NormalizeTag trims a tag number and maps the empty string to nil so that
// untagged animals never collide on the unique index.
func NormalizeTag(tag *string) *string {
	if tag == nil {
		return nil
	}
	t := strings.TrimSpace(*tag)
	if t == "" {
		return nil
	}
	return &t
}

// LivestockChanges carries a partial livestock update.
type LivestockChanges struct {
	LivestockType *string
	Breed         *string
	Name          *string
	TagNumber     *string
	Gender        *string
	HealthStatus  *string
}
