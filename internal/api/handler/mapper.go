package handler

import (
	"github.com/samber/lo"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// --- Request → Service input ---

func toCaseChanges(req updateCaseRequest) domain.CaseChanges {
	ch := domain.CaseChanges{
		SymptomsObserved:          req.SymptomsObserved,
		LocationNotes:             req.LocationNotes,
		Diagnosis:                 req.Diagnosis,
		TreatmentNotes:            req.TreatmentNotes,
		LivestockID:               req.LivestockID,
		FarmerConfirmedCompletion: req.FarmerConfirmedCompletion,
	}
	if req.Status != nil {
		st := domain.CaseStatus(*req.Status)
		ch.Status = &st
	}
	if req.Urgency != nil {
		u := domain.Urgency(*req.Urgency)
		ch.Urgency = &u
	}
	return ch
}

// --- Domain → HTTP response ---

func toUserSummary(u *domain.User) *userSummary {
	if u == nil {
		return nil
	}
	return &userSummary{
		ID:          u.ID,
		FullName:    u.FullName(),
		PhoneNumber: u.PhoneNumber,
		UserType:    string(u.UserType),
	}
}

func toLivestockSummary(l *domain.Livestock) *livestockSummary {
	if l == nil {
		return nil
	}
	return &livestockSummary{ID: l.ID, LivestockType: l.LivestockType, Name: l.Name, TagNumber: l.TagNumber}
}

func toCaseResponse(c *domain.CaseReport) caseResponse {
	return caseResponse{
		ID:                        c.ID,
		CaseID:                    c.CaseID,
		Status:                    string(c.Status),
		StatusDisplay:             c.Status.Label(),
		Urgency:                   string(c.Urgency),
		SymptomsObserved:          c.SymptomsObserved,
		LocationNotes:             c.LocationNotes,
		Diagnosis:                 c.Diagnosis,
		TreatmentNotes:            c.TreatmentNotes,
		Reporter:                  toUserSummary(c.Reporter),
		Livestock:                 toLivestockSummary(c.Livestock),
		AssignedVeterinarian:      toUserSummary(c.AssignedVeterinarian),
		AssignedAt:                c.AssignedAt,
		AssignedBy:                c.AssignedByID,
		FarmerConfirmedCompletion: c.FarmerConfirmedCompletion,
		FarmerConfirmedAt:         c.FarmerConfirmedAt,
		ResolvedAt:                c.ResolvedAt,
		ReportedAt:                c.ReportedAt,
		UpdatedAt:                 c.UpdatedAt,
	}
}

func toVetResponse(u *domain.User) vetResponse {
	out := vetResponse{
		ID:          u.ID,
		FullName:    u.FullName(),
		PhoneNumber: u.PhoneNumber,
		Email:       u.EmailAddress(),
		Sector:      u.Sector,
		District:    u.District,
	}
	if p := u.VeterinarianProfile; p != nil {
		out.LicenseNumber = p.LicenseNumber
		out.Specialization = p.Specialization
		out.YearsOfExperience = p.YearsOfExperience
	}
	return out
}

func toCaseEventResponse(e *domain.CaseEvent) caseEventResponse {
	return caseEventResponse{
		Type:           string(e.Type),
		FromStatus:     string(e.FromStatus),
		ToStatus:       string(e.ToStatus),
		ActorID:        e.ActorID,
		ActorRole:      string(e.ActorRole),
		VeterinarianID: e.VeterinarianID,
		ChangedFields:  e.ChangedFields,
		Timestamp:      e.Timestamp,
	}
}

func toPageResponse[T, R any](p *ports.Page[T], conv func(*T) R) pageResponse[R] {
	return pageResponse[R]{
		Count:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
		Results:    lo.Map(p.Items, func(item *T, _ int) R { return conv(item) }),
	}
}

func toVetProfileResponse(p *domain.VeterinarianProfile) *vetProfileResponse {
	if p == nil {
		return nil
	}
	return &vetProfileResponse{
		LicenseNumber:     p.LicenseNumber,
		Specialization:    p.Specialization,
		YearsOfExperience: p.YearsOfExperience,
		IsAvailable:       p.IsAvailable,
	}
}

func toUserResponse(u *domain.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:                  u.ID,
		PhoneNumber:         u.PhoneNumber,
		Email:               u.EmailAddress(),
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		FullName:            u.FullName(),
		UserType:            string(u.UserType),
		Sector:              u.Sector,
		District:            u.District,
		IsActive:            u.IsActive,
		IsApprovedByAdmin:   u.IsApprovedByAdmin,
		IsVerified:          u.IsVerified,
		ApprovedAt:          u.ApprovedAt,
		VeterinarianProfile: toVetProfileResponse(u.VeterinarianProfile),
		CreatedAt:           u.CreatedAt,
	}
}
