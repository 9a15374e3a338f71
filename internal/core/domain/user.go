package domain

import (
	"errors"
	"time"
)

// Role is the user_type discriminator carried by every account and JWT.
type Role string

const (
	RoleFarmer       Role = "farmer"
	RoleLocalVet     Role = "local_vet"
	RoleSectorVet    Role = "sector_vet"
	RoleAdmin        Role = "admin"
	RoleFieldOfficer Role = "field_officer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleLocalVet, RoleSectorVet, RoleAdmin, RoleFieldOfficer:
		return true
	}
	return false
}

// IsVet reports whether accounts of this role carry a VeterinarianProfile.
func (r Role) IsVet() bool {
	return r == RoleLocalVet || r == RoleSectorVet
}

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrUserExists             = errors.New("user already exists")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAccountPendingApproval = errors.New("account pending admin approval")
	ErrAccountInactive        = errors.New("account is inactive")
	ErrVetProfileNotFound     = errors.New("veterinarian profile not found")
)

// User models an authenticated actor in the system.
type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	PhoneNumber       string     `gorm:"size:20;uniqueIndex;not null" json:"phone_number"`
	Email             *string    `gorm:"size:254;uniqueIndex" json:"email,omitempty"`
	PasswordHash      string     `gorm:"not null" json:"-"`
	FirstName         string     `gorm:"size:100" json:"first_name"`
	LastName          string     `gorm:"size:100" json:"last_name"`
	UserType          Role       `gorm:"size:20;index;not null" json:"user_type"`
	Sector            string     `gorm:"size:100;index" json:"sector,omitempty"`
	District          string     `gorm:"size:100;index" json:"district,omitempty"`
	IsActive          bool       `gorm:"not null;default:true" json:"is_active"`
	IsApprovedByAdmin bool       `gorm:"not null;default:false" json:"is_approved_by_admin"`
	IsVerified        bool       `gorm:"not null;default:false" json:"is_verified"`
	IsStaff           bool       `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser       bool       `gorm:"not null;default:false" json:"-"`
	ApprovedByID      *uint      `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	VeterinarianProfile *VeterinarianProfile `gorm:"foreignKey:UserID" json:"veterinarian_profile,omitempty"`
}

func (User) TableName() string { return "users" }

// FullName falls back to the phone number for accounts created without names (USSD).
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.PhoneNumber
	}
	return name
}

// EmailAddress returns the address used for the email side-channel, or "".
func (u *User) EmailAddress() string {
	if u == nil || u.Email == nil {
		return ""
	}
	return *u.Email
}

// CanAuthenticate applies the login gate: unapproved local vets are rejected,
// and non-vet accounts must be active. A vet's is_active mirrors availability,
// so it does not block login.
func (u *User) CanAuthenticate() error {
	if u.UserType == RoleLocalVet && !u.IsApprovedByAdmin {
		return ErrAccountPendingApproval
	}
	if !u.UserType.IsVet() && !u.IsActive {
		return ErrAccountInactive
	}
	return nil
}

// VeterinarianProfile is the one-to-one extension of a vet account.
type VeterinarianProfile struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	LicenseNumber     string    `gorm:"size:50;uniqueIndex;not null" json:"license_number"`
	Specialization    string    `gorm:"size:100" json:"specialization,omitempty"`
	YearsOfExperience int       `json:"years_of_experience"`
	IsAvailable       bool      `gorm:"not null;default:true" json:"is_available"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (VeterinarianProfile) TableName() string { return "veterinarian_profiles" }

// Actor is the authenticated caller as seen by the services.
type Actor struct {
	ID      uint
	Role    Role
	IsStaff bool
}

// IsSupervisor reports whether the actor holds assignment and approval authority.
func (a Actor) IsSupervisor() bool {
	return a.IsStaff || a.Role == RoleSectorVet || a.Role == RoleAdmin
}
