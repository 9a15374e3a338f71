package domain

import (
	"errors"
	"time"
)

// CaseStatus represents the lifecycle state of a case report.
type CaseStatus string

const (
	CaseStatusPending       CaseStatus = "pending"
	CaseStatusUnderReview   CaseStatus = "under_review"
	CaseStatusInvestigation CaseStatus = "investigation"
	CaseStatusDiagnosed     CaseStatus = "diagnosed"
	CaseStatusTreated       CaseStatus = "treated"
	CaseStatusResolved      CaseStatus = "resolved"
	CaseStatusRejected      CaseStatus = "rejected"
	CaseStatusEscalated     CaseStatus = "escalated"
)

var caseStatusLabels = map[CaseStatus]string{
	CaseStatusPending:       "Pending",
	CaseStatusUnderReview:   "Under Review",
	CaseStatusInvestigation: "Under Investigation",
	CaseStatusDiagnosed:     "Diagnosed",
	CaseStatusTreated:       "Treated",
	CaseStatusResolved:      "Resolved",
	CaseStatusRejected:      "Rejected",
	CaseStatusEscalated:     "Escalated",
}

// Label is the human-readable form used in notification messages.
func (s CaseStatus) Label() string {
	if l, ok := caseStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is a known status.
func (s CaseStatus) Valid() bool {
	_, ok := caseStatusLabels[s]
	return ok
}

// progression orders the active statuses a case moves through on its way to
// resolution. Moving forward along it is always allowed, skips included.
var progression = map[CaseStatus]int{
	CaseStatusPending:       0,
	CaseStatusUnderReview:   1,
	CaseStatusInvestigation: 2,
	CaseStatusDiagnosed:     3,
	CaseStatusTreated:       4,
	CaseStatusResolved:      5,
}

// CanTransitionTo reports whether a non-supervisor may move a case from s to
// next. Resolved is terminal and a rejected case can only be reopened as
// pending. Any active case may be rejected or escalated, and an escalated
// case may resume anywhere past pending.
func (s CaseStatus) CanTransitionTo(next CaseStatus) bool {
	if s == next || !next.Valid() {
		return false
	}
	switch s {
	case CaseStatusResolved:
		return false
	case CaseStatusRejected:
		return next == CaseStatusPending
	}
	switch next {
	case CaseStatusRejected, CaseStatusEscalated:
		return true
	case CaseStatusPending:
		return s == CaseStatusUnderReview
	}
	if s == CaseStatusEscalated {
		return true
	}
	return progression[next] > progression[s]
}

// Assignable reports whether a case in this status may be bound to a vet.
func (s CaseStatus) Assignable() bool {
	return s == CaseStatusPending || s == CaseStatusUnderReview
}

// Urgency ranks how quickly a case needs attention.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyUrgent:
		return true
	}
	return false
}

var (
	ErrCaseNotFound      = errors.New("case not found")
	ErrForbidden         = errors.New("access forbidden")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrVetUnavailable    = errors.New("veterinarian is not available")
	ErrNotLocalVet       = errors.New("user is not a local veterinarian")
	ErrDuplicateKey      = errors.New("duplicate key")
)

// CaseReport is the workflow entity that tracks a livestock health incident.
type CaseReport struct {
	ID                        uint       `gorm:"primaryKey" json:"id"`
	CaseID                    string     `gorm:"size:40;uniqueIndex;not null" json:"case_id"`
	ReporterID                uint       `gorm:"index;not null;uniqueIndex:idx_reporter_idem,priority:1" json:"reporter_id"`
	LivestockID               *uint      `gorm:"index" json:"livestock_id,omitempty"`
	AssignedVeterinarianID    *uint      `gorm:"index" json:"assigned_veterinarian_id,omitempty"`
	AssignedAt                *time.Time `json:"assigned_at,omitempty"`
	AssignedByID              *uint      `json:"assigned_by_id,omitempty"`
	Status                    CaseStatus `gorm:"size:20;index;not null" json:"status"`
	Urgency                   Urgency    `gorm:"size:10;index;not null" json:"urgency"`
	SymptomsObserved          string     `gorm:"type:text;not null" json:"symptoms_observed"`
	LocationNotes             string     `gorm:"type:text" json:"location_notes"`
	Diagnosis                 string     `gorm:"type:text" json:"diagnosis"`
	TreatmentNotes            string     `gorm:"type:text" json:"treatment_notes"`
	FarmerConfirmedCompletion bool       `gorm:"not null;default:false" json:"farmer_confirmed_completion"`
	FarmerConfirmedAt         *time.Time `json:"farmer_confirmed_at,omitempty"`
	ResolvedAt                *time.Time `json:"resolved_at,omitempty"`
	IdempotencyKey            *string    `gorm:"size:100;uniqueIndex:idx_reporter_idem,priority:2" json:"-"`
	ReportedAt                time.Time  `gorm:"autoCreateTime" json:"reported_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`

	Reporter             *User      `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	AssignedVeterinarian *User      `gorm:"foreignKey:AssignedVeterinarianID;constraint:OnDelete:SET NULL" json:"assigned_veterinarian,omitempty"`
	Livestock            *Livestock `gorm:"foreignKey:LivestockID;constraint:OnDelete:SET NULL" json:"livestock,omitempty"`
}

func (CaseReport) TableName() string { return "case_reports" }

// IsAssigned reports whether a veterinarian is bound to the case.
func (c *CaseReport) IsAssigned() bool {
	return c.AssignedVeterinarianID != nil
}

// AssignTo binds the case to vet, stamping the assignment triple.
func (c *CaseReport) AssignTo(vetID, byID uint, at time.Time) {
	c.AssignedVeterinarianID = &vetID
	c.AssignedByID = &byID
	c.AssignedAt = &at
	c.Status = CaseStatusUnderReview
}

// Unassign clears the assignment triple and returns the case to pending.
func (c *CaseReport) Unassign() {
	c.AssignedVeterinarianID = nil
	c.AssignedByID = nil
	c.AssignedAt = nil
	c.Status = CaseStatusPending
}

// CaseFilter narrows a case listing. Zero values are ignored.
type CaseFilter struct {
	Status  CaseStatus
	Urgency Urgency
	Page    int
	Limit   int
}

// CaseChanges carries a partial update. Nil pointers leave a field untouched.
type CaseChanges struct {
	Status                    *CaseStatus
	Urgency                   *Urgency
	SymptomsObserved          *string
	LocationNotes             *string
	Diagnosis                 *string
	TreatmentNotes            *string
	LivestockID               *uint
	FarmerConfirmedCompletion *bool
}

// Fields lists the editable field names present in the change set.
func (ch CaseChanges) Fields() []CaseField {
	var out []CaseField
	if ch.Status != nil {
		out = append(out, FieldStatus)
	}
	if ch.Urgency != nil {
		out = append(out, FieldUrgency)
	}
	if ch.SymptomsObserved != nil {
		out = append(out, FieldSymptoms)
	}
	if ch.LocationNotes != nil {
		out = append(out, FieldLocation)
	}
	if ch.Diagnosis != nil {
		out = append(out, FieldDiagnosis)
	}
	if ch.TreatmentNotes != nil {
		out = append(out, FieldTreatment)
	}
	if ch.LivestockID != nil {
		out = append(out, FieldLivestock)
	}
	if ch.FarmerConfirmedCompletion != nil {
		out = append(out, FieldCompletion)
	}
	return out
}

// CaseField names a client-editable column of CaseReport.
type CaseField string

const (
	FieldStatus     CaseField = "status"
	FieldUrgency    CaseField = "urgency"
	FieldSymptoms   CaseField = "symptoms_observed"
	FieldLocation   CaseField = "location_notes"
	FieldDiagnosis  CaseField = "diagnosis"
	FieldTreatment  CaseField = "treatment_notes"
	FieldLivestock  CaseField = "livestock_id"
	FieldCompletion CaseField = "farmer_confirmed_completion"
)
