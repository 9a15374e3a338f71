package domain

import (
	"fmt"

	"github.com/samber/lo"
)

// Scope restricts which records an actor may read. Exactly one of the fields
// is meaningful: All, OwnerID (reporter or livestock owner) or AssigneeID.
type Scope struct {
	All        bool
	OwnerID    uint
	AssigneeID uint
}

// AllowsCase reports whether c falls inside the scope.
func (s Scope) AllowsCase(c *CaseReport) bool {
	switch {
	case s.All:
		return true
	case s.AssigneeID != 0:
		return c.AssignedVeterinarianID != nil && *c.AssignedVeterinarianID == s.AssigneeID
	default:
		return c.ReporterID == s.OwnerID
	}
}

// CasePolicy captures what one role may see and do with case reports.
type CasePolicy interface {
	Name() string
	Scope() Scope
	// CanModify reports whether the actor may update the case at all.
	CanModify(c *CaseReport) bool
	// EditableFields lists the fields the actor may change.
	EditableFields() []CaseField
	// AllowsTransition reports whether the actor may move a case between
	// the two statuses.
	AllowsTransition(from, to CaseStatus) bool
	// CanDelete returns ErrForbidden for an ownership violation and
	// ErrValidation when the case status does not allow deletion.
	CanDelete(c *CaseReport) error
}

var (
	farmerFields     = []CaseField{FieldSymptoms, FieldLocation, FieldUrgency, FieldLivestock, FieldCompletion}
	vetFields        = []CaseField{FieldStatus, FieldDiagnosis, FieldTreatment, FieldUrgency}
	supervisorFields = []CaseField{FieldStatus, FieldUrgency, FieldSymptoms, FieldLocation, FieldDiagnosis, FieldTreatment, FieldLivestock}

	farmerDeletable = []CaseStatus{CaseStatusPending, CaseStatusRejected}
	vetDeletable    = []CaseStatus{CaseStatusPending, CaseStatusRejected, CaseStatusUnderReview}
)

// PolicyFor resolves the policy governing actor. Staff flags take precedence
// over the role; roles without a dedicated policy get fallbackPolicy.
func PolicyFor(a Actor) CasePolicy {
	if a.IsSupervisor() {
		return supervisorPolicy{}
	}
	switch a.Role {
	case RoleFarmer:
		return farmerPolicy{actorID: a.ID}
	case RoleLocalVet:
		return assignedVetPolicy{actorID: a.ID, name: string(RoleLocalVet), mayDelete: true}
	case RoleFieldOfficer:
		return assignedVetPolicy{actorID: a.ID, name: string(RoleFieldOfficer)}
	default:
		return fallbackPolicy{farmerPolicy{actorID: a.ID}}
	}
}

type farmerPolicy struct {
	actorID uint
}

func (p farmerPolicy) Name() string { return string(RoleFarmer) }

func (p farmerPolicy) Scope() Scope { return Scope{OwnerID: p.actorID} }

func (p farmerPolicy) CanModify(c *CaseReport) bool { return c.ReporterID == p.actorID }

func (p farmerPolicy) EditableFields() []CaseField { return farmerFields }

func (p farmerPolicy) AllowsTransition(from, to CaseStatus) bool { return from.CanTransitionTo(to) }

func (p farmerPolicy) CanDelete(c *CaseReport) error {
	if c.ReporterID != p.actorID {
		return ErrForbidden
	}
	if !lo.Contains(farmerDeletable, c.Status) {
		return fmt.Errorf("%w: cases can only be deleted while pending or rejected", ErrValidation)
	}
	return nil
}

// assignedVetPolicy serves local vets and field officers: both see the cases
// assigned to them. Field officers cannot delete.
type assignedVetPolicy struct {
	actorID   uint
	name      string
	mayDelete bool
}

func (p assignedVetPolicy) Name() string { return p.name }

func (p assignedVetPolicy) Scope() Scope { return Scope{AssigneeID: p.actorID} }

func (p assignedVetPolicy) CanModify(c *CaseReport) bool {
	return c.AssignedVeterinarianID != nil && *c.AssignedVeterinarianID == p.actorID
}

func (p assignedVetPolicy) EditableFields() []CaseField { return vetFields }

func (p assignedVetPolicy) AllowsTransition(from, to CaseStatus) bool {
	return from.CanTransitionTo(to)
}

func (p assignedVetPolicy) CanDelete(c *CaseReport) error {
	if !p.mayDelete || !p.CanModify(c) {
		return ErrForbidden
	}
	if !lo.Contains(vetDeletable, c.Status) {
		return fmt.Errorf("%w: cases can only be deleted while pending, rejected or under review", ErrValidation)
	}
	return nil
}

type supervisorPolicy struct{}

func (supervisorPolicy) Name() string { return "supervisor" }

func (supervisorPolicy) Scope() Scope { return Scope{All: true} }

func (supervisorPolicy) CanModify(*CaseReport) bool { return true }

func (supervisorPolicy) EditableFields() []CaseField { return supervisorFields }

// Supervisors may set any known status, including reopening resolved cases.
func (supervisorPolicy) AllowsTransition(from, to CaseStatus) bool {
	return from != to && to.Valid()
}

func (supervisorPolicy) CanDelete(*CaseReport) error { return nil }

// fallbackPolicy applies to roles with no dedicated policy. It restricts the
// actor to their own reports, exactly like a farmer.
type fallbackPolicy struct {
	farmerPolicy
}

func (fallbackPolicy) Name() string { return "fallback" }

// CheckFields returns ErrForbidden if changes touch a field the policy does
// not allow.
func CheckFields(p CasePolicy, changes CaseChanges) error {
	allowed := p.EditableFields()
	denied := lo.Filter(changes.Fields(), func(f CaseField, _ int) bool {
		return !lo.Contains(allowed, f)
	})
	if len(denied) > 0 {
		return fmt.Errorf("%w: %s may not change %v", ErrForbidden, p.Name(), denied)
	}
	return nil
}
