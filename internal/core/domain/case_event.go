package domain

import "time"

// CaseEventType enumerates the audit events recorded for a case.
type CaseEventType string

const (
	CaseEventCreated       CaseEventType = "created"
	CaseEventAssigned      CaseEventType = "assigned"
	CaseEventUnassigned    CaseEventType = "unassigned"
	CaseEventUpdated       CaseEventType = "updated"
	CaseEventStatusChanged CaseEventType = "status_changed"
	CaseEventDeleted       CaseEventType = "deleted"
)

// CaseEvent is an append-only audit record of a case mutation.
type CaseEvent struct {
	CaseID         string        `json:"case_id" bson:"case_id"`
	CaseDBID       uint          `json:"case_pk" bson:"case_pk"`
	Type           CaseEventType `json:"type" bson:"type"`
	FromStatus     CaseStatus    `json:"from_status,omitempty" bson:"from_status,omitempty"`
	ToStatus       CaseStatus    `json:"to_status,omitempty" bson:"to_status,omitempty"`
	ActorID        uint          `json:"actor_id" bson:"actor_id"`
	ActorRole      Role          `json:"actor_role" bson:"actor_role"`
	VeterinarianID *uint         `json:"veterinarian_id,omitempty" bson:"veterinarian_id,omitempty"`
	ChangedFields  []string      `json:"changed_fields,omitempty" bson:"changed_fields,omitempty"`
	Timestamp      time.Time     `json:"timestamp" bson:"timestamp"`
}
