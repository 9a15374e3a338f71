package handler

import "time"

type registerRequest struct {
	PhoneNumber   string `json:"phone_number"   validate:"required,min=10,max=20"`
	Email         string `json:"email"          validate:"omitempty,email"`
	Password      string `json:"password"       validate:"required,min=8"`
	FirstName     string `json:"first_name"     validate:"max=100"`
	LastName      string `json:"last_name"      validate:"max=100"`
	UserType      string `json:"user_type"      validate:"required,user_role"`
	Sector        string `json:"sector"`
	District      string `json:"district"`
	LicenseNumber string `json:"license_number" validate:"max=50"`
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Password    string `json:"password"     validate:"required"`
}

type availabilityRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

type vetProfileResponse struct {
	LicenseNumber     string `json:"license_number"`
	Specialization    string `json:"specialization,omitempty"`
	YearsOfExperience int    `json:"years_of_experience"`
	IsAvailable       bool   `json:"is_available"`
}

type userResponse struct {
	ID                  uint                `json:"id"`
	PhoneNumber         string              `json:"phone_number"`
	Email               string              `json:"email,omitempty"`
	FirstName           string              `json:"first_name"`
	LastName            string              `json:"last_name"`
	FullName            string              `json:"full_name"`
	UserType            string              `json:"user_type"`
	Sector              string              `json:"sector,omitempty"`
	District            string              `json:"district,omitempty"`
	IsActive            bool                `json:"is_active"`
	IsApprovedByAdmin   bool                `json:"is_approved_by_admin"`
	IsVerified          bool                `json:"is_verified"`
	ApprovedAt          *time.Time          `json:"approved_at,omitempty"`
	VeterinarianProfile *vetProfileResponse `json:"veterinarian_profile,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
}

type authResponse struct {
	Token string        `json:"token,omitempty"`
	User  *userResponse `json:"user,omitempty"`
}
