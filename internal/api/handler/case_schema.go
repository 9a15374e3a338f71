package handler

import "time"

type createCaseRequest struct {
	SymptomsObserved string `json:"symptoms_observed" validate:"required"`
	LocationNotes    string `json:"location_notes"`
	Urgency          string `json:"urgency"           validate:"omitempty,urgency"`
	LivestockID      *uint  `json:"livestock_id"`
}

// updateCaseRequest is shared by PATCH and PUT; absent fields are left alone.
type updateCaseRequest struct {
	Status                    *string `json:"status"                      validate:"omitempty,case_status"`
	Urgency                   *string `json:"urgency"                     validate:"omitempty,urgency"`
	SymptomsObserved          *string `json:"symptoms_observed"`
	LocationNotes             *string `json:"location_notes"`
	Diagnosis                 *string `json:"diagnosis"`
	TreatmentNotes            *string `json:"treatment_notes"`
	LivestockID               *uint   `json:"livestock_id"`
	FarmerConfirmedCompletion *bool   `json:"farmer_confirmed_completion"`
}

type assignCaseRequest struct {
	VeterinarianID *uint `json:"veterinarian_id"`
}

type userSummary struct {
	ID          uint   `json:"id"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	UserType    string `json:"user_type"`
}

type livestockSummary struct {
	ID            uint    `json:"id"`
	LivestockType string  `json:"livestock_type"`
	Name          string  `json:"name,omitempty"`
	TagNumber     *string `json:"tag_number,omitempty"`
}

type caseResponse struct {
	ID                        uint              `json:"id"`
	CaseID                    string            `json:"case_id"`
	Status                    string            `json:"status"`
	StatusDisplay             string            `json:"status_display"`
	Urgency                   string            `json:"urgency"`
	SymptomsObserved          string            `json:"symptoms_observed"`
	LocationNotes             string            `json:"location_notes"`
	Diagnosis                 string            `json:"diagnosis"`
	TreatmentNotes            string            `json:"treatment_notes"`
	Reporter                  *userSummary      `json:"reporter"`
	Livestock                 *livestockSummary `json:"livestock"`
	AssignedVeterinarian      *userSummary      `json:"assigned_veterinarian"`
	AssignedAt                *time.Time        `json:"assigned_at"`
	AssignedBy                *uint             `json:"assigned_by"`
	FarmerConfirmedCompletion bool              `json:"farmer_confirmed_completion"`
	FarmerConfirmedAt         *time.Time        `json:"farmer_confirmed_at"`
	ResolvedAt                *time.Time        `json:"resolved_at"`
	ReportedAt                time.Time         `json:"reported_at"`
	UpdatedAt                 time.Time         `json:"updated_at"`
}

type vetResponse struct {
	ID                uint   `json:"id"`
	FullName          string `json:"full_name"`
	PhoneNumber       string `json:"phone_number"`
	Email             string `json:"email,omitempty"`
	Sector            string `json:"sector"`
	District          string `json:"district"`
	LicenseNumber     string `json:"license_number"`
	Specialization    string `json:"specialization,omitempty"`
	YearsOfExperience int    `json:"years_of_experience"`
}

type caseEventResponse struct {
	Type           string    `json:"type"`
	FromStatus     string    `json:"from_status,omitempty"`
	ToStatus       string    `json:"to_status,omitempty"`
	ActorID        uint      `json:"actor_id"`
	ActorRole      string    `json:"actor_role"`
	VeterinarianID *uint     `json:"veterinarian_id,omitempty"`
	ChangedFields  []string  `json:"changed_fields,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// pageResponse is the envelope of every paginated listing.
type pageResponse[T any] struct {
	Count      int64 `json:"count"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
	Results    []T   `json:"results"`
}
