package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// CaseService implements the case lifecycle: creation, scoped reads,
// updates, deletion and vet assignment.
type CaseService struct {
	uow       ports.UnitOfWork
	cases     ports.CaseRepository
	users     ports.UserRepository
	livestock ports.LivestockRepository
	notifier  ports.NotificationService
	events    eventRecorder
	ids       caseIDGenerator
	now       func() time.Time
	logger    zerolog.Logger
}

func NewCaseService(
	repos ports.Repositories,
	uow ports.UnitOfWork,
	notifier ports.NotificationService,
	eventRepo ports.CaseEventRepository,
	publisher ports.EventPublisher,
	logger zerolog.Logger,
) *CaseService {
	now := func() time.Time { return time.Now().UTC() }
	return &CaseService{
		uow:       uow,
		cases:     repos.Cases,
		users:     repos.Users,
		livestock: repos.Livestock,
		notifier:  notifier,
		events:    eventRecorder{repo: eventRepo, publisher: publisher, log: logger},
		ids:       caseIDGenerator{now: now},
		now:       now,
		logger:    logger,
	}
}

// Create stores a new pending case reported by actor. If an idempotency key
// is provided and already used by actor, the earlier case is returned.
func (s *CaseService) Create(ctx context.Context, actor domain.Actor, in ports.CreateCaseInput) (*ports.CreateCaseResult, error) {
	if in.IdempotencyKey != "" {
		existing, err := s.cases.FindByIdempotencyKey(ctx, actor.ID, in.IdempotencyKey)
		if err == nil && existing != nil {
			s.logger.Info().Str("idempotency_key", in.IdempotencyKey).Str("case_id", existing.CaseID).Msg("idempotent replay")
			return &ports.CreateCaseResult{Case: existing, AlreadyExisted: true}, nil
		}
	}

	symptoms := strings.TrimSpace(in.SymptomsObserved)
	if symptoms == "" {
		return nil, fmt.Errorf("%w: symptoms_observed is required", domain.ErrValidation)
	}
	urgency := in.Urgency
	if urgency == "" {
		urgency = domain.UrgencyMedium
	}
	if !urgency.Valid() {
		return nil, fmt.Errorf("%w: unknown urgency %q", domain.ErrValidation, urgency)
	}
	if in.LivestockID != nil {
		if err := s.checkLivestock(ctx, s.livestock, actor.ID, *in.LivestockID); err != nil {
			return nil, err
		}
	}

	c := &domain.CaseReport{
		ReporterID:       actor.ID,
		LivestockID:      in.LivestockID,
		Status:           domain.CaseStatusPending,
		Urgency:          urgency,
		SymptomsObserved: symptoms,
		LocationNotes:    strings.TrimSpace(in.LocationNotes),
	}
	if in.IdempotencyKey != "" {
		c.IdempotencyKey = &in.IdempotencyKey
	}

	var err error
	for attempt := 0; attempt < maxCaseIDAttempts; attempt++ {
		c.ID = 0
		c.CaseID = s.ids.next(attempt)
		err = s.cases.Create(ctx, c)
		if !errors.Is(err, domain.ErrDuplicateKey) {
			break
		}
		// The key index is per reporter, so a hit here is a concurrent replay
		// of the same request. Otherwise the clash was on case_id.
		if c.IdempotencyKey != nil {
			if existing, findErr := s.cases.FindByIdempotencyKey(ctx, actor.ID, *c.IdempotencyKey); findErr == nil {
				return &ports.CreateCaseResult{Case: existing, AlreadyExisted: true}, nil
			}
		}
		s.logger.Warn().Str("case_id", c.CaseID).Int("attempt", attempt+1).Msg("case id collision, regenerating")
	}
	if err != nil {
		s.logger.Error().Err(err).Uint("reporter_id", actor.ID).Msg("failed to create case")
		return nil, fmt.Errorf("create case: %w", err)
	}

	s.logger.Info().Str("case_id", c.CaseID).Uint("reporter_id", actor.ID).Str("urgency", string(urgency)).Msg("case created")
	s.events.record(ctx, &domain.CaseEvent{
		CaseID:    c.CaseID,
		CaseDBID:  c.ID,
		Type:      domain.CaseEventCreated,
		ToStatus:  c.Status,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Timestamp: s.now(),
	})

	return &ports.CreateCaseResult{Case: s.reload(ctx, c)}, nil
}

// List returns the page of cases visible to actor.
func (s *CaseService) List(ctx context.Context, actor domain.Actor, filter domain.CaseFilter) (*ports.Page[domain.CaseReport], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, filter.Status)
	}
	if filter.Urgency != "" && !filter.Urgency.Valid() {
		return nil, fmt.Errorf("%w: unknown urgency %q", domain.ErrValidation, filter.Urgency)
	}
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	items, total, err := s.cases.List(ctx, domain.PolicyFor(actor).Scope(), filter)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return newPage(items, total, filter.Page, filter.Limit), nil
}

// Get returns the case if it is visible to actor. Invisible cases are
// reported as not found.
func (s *CaseService) Get(ctx context.Context, actor domain.Actor, id uint) (*domain.CaseReport, error) {
	c, err := s.cases.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.PolicyFor(actor).Scope().AllowsCase(c) {
		return nil, domain.ErrCaseNotFound
	}
	return c, nil
}

// GetByCaseID looks a case up by its public CR identifier.
func (s *CaseService) GetByCaseID(ctx context.Context, actor domain.Actor, caseID string) (*domain.CaseReport, error) {
	c, err := s.cases.FindByCaseID(ctx, strings.ToUpper(strings.TrimSpace(caseID)))
	if err != nil {
		return nil, err
	}
	if !domain.PolicyFor(actor).Scope().AllowsCase(c) {
		return nil, domain.ErrCaseNotFound
	}
	return c, nil
}

// Update applies a partial change to the case under a row lock, then fans
// out notifications for status changes and farmer edits.
func (s *CaseService) Update(ctx context.Context, actor domain.Actor, id uint, changes domain.CaseChanges) (*domain.CaseReport, error) {
	if len(changes.Fields()) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", domain.ErrValidation)
	}
	policy := domain.PolicyFor(actor)

	var before domain.CaseReport
	var after *domain.CaseReport
	err := s.uow.WithinCaseTx(ctx, id, func(ctx context.Context, repos ports.Repositories, c *domain.CaseReport) error {
		if !policy.CanModify(c) {
			return domain.ErrForbidden
		}
		if changes.Status != nil && *changes.Status == c.Status {
			changes.Status = nil
		}
		if err := domain.CheckFields(policy, changes); err != nil {
			return err
		}
		before = *c
		if err := s.applyChanges(ctx, repos, policy, c, changes); err != nil {
			return err
		}
		if err := repos.Cases.Update(ctx, c); err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		after = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	statusChanged := before.Status != after.Status
	symptomsChanged := before.SymptomsObserved != after.SymptomsObserved
	locationChanged := before.LocationNotes != after.LocationNotes

	s.logger.Info().
		Str("case_id", after.CaseID).
		Uint("actor_id", actor.ID).
		Str("from_status", string(before.Status)).
		Str("to_status", string(after.Status)).
		Msg("case updated")

	ev := &domain.CaseEvent{
		CaseID:        after.CaseID,
		CaseDBID:      after.ID,
		Type:          domain.CaseEventUpdated,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		ChangedFields: lo.Map(changes.Fields(), func(f domain.CaseField, _ int) string { return string(f) }),
		Timestamp:     s.now(),
	}
	if statusChanged {
		ev.Type = domain.CaseEventStatusChanged
		ev.FromStatus = before.Status
		ev.ToStatus = after.Status
	}
	s.events.record(ctx, ev)

	full := s.reload(ctx, after)

	if statusChanged {
		msg := domain.Message{
			Title: "Case Status Updated",
			Body: fmt.Sprintf("Case %s status changed from %s to %s.",
				full.CaseID, before.Status.Label(), full.Status.Label()),
			CaseID:   &full.ID,
			Metadata: map[string]any{"case_id": full.CaseID, "old_status": before.Status, "new_status": full.Status},
		}
		s.notifier.Notify(ctx, s.reporterOf(ctx, full), msg, true)
		if full.IsAssigned() {
			s.notifier.Notify(ctx, s.vetOf(ctx, full), msg, true)
		}
	}

	if actor.Role == domain.RoleFarmer && actor.ID == full.ReporterID && (symptomsChanged || locationChanged) && full.IsAssigned() {
		var fields []string
		if symptomsChanged {
			fields = append(fields, "symptoms")
		}
		if locationChanged {
			fields = append(fields, "location notes")
		}
		reporter := s.reporterOf(ctx, full)
		name := "The farmer"
		if reporter != nil {
			name = reporter.FullName()
		}
		s.notifier.Notify(ctx, s.vetOf(ctx, full), domain.Message{
			Title:    "Case Updated by Farmer",
			Body:     fmt.Sprintf("%s updated %s on case %s.", name, strings.Join(fields, " and "), full.CaseID),
			CaseID:   &full.ID,
			Metadata: map[string]any{"case_id": full.CaseID, "changed_fields": fields},
		}, true)
	}

	return full, nil
}

// applyChanges validates and copies changes onto c.
func (s *CaseService) applyChanges(ctx context.Context, repos ports.Repositories, policy domain.CasePolicy, c *domain.CaseReport, ch domain.CaseChanges) error {
	if ch.Status != nil && *ch.Status != c.Status {
		next := *ch.Status
		if !next.Valid() {
			return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, next)
		}
		if !policy.AllowsTransition(c.Status, next) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, c.Status, next)
		}
		c.Status = next
		if next == domain.CaseStatusResolved {
			t := s.now()
			c.ResolvedAt = &t
		} else {
			c.ResolvedAt = nil
		}
	}
	if ch.Urgency != nil {
		if !ch.Urgency.Valid() {
			return fmt.Errorf("%w: unknown urgency %q", domain.ErrValidation, *ch.Urgency)
		}
		c.Urgency = *ch.Urgency
	}
	if ch.SymptomsObserved != nil {
		symptoms := strings.TrimSpace(*ch.SymptomsObserved)
		if symptoms == "" {
			return fmt.Errorf("%w: symptoms_observed cannot be empty", domain.ErrValidation)
		}
		c.SymptomsObserved = symptoms
	}
	if ch.LocationNotes != nil {
		c.LocationNotes = strings.TrimSpace(*ch.LocationNotes)
	}
	if ch.Diagnosis != nil {
		c.Diagnosis = strings.TrimSpace(*ch.Diagnosis)
	}
	if ch.TreatmentNotes != nil {
		c.TreatmentNotes = strings.TrimSpace(*ch.TreatmentNotes)
	}
	if ch.LivestockID != nil {
		if err := s.checkLivestock(ctx, repos.Livestock, c.ReporterID, *ch.LivestockID); err != nil {
			return err
		}
		c.LivestockID = ch.LivestockID
	}
	if ch.FarmerConfirmedCompletion != nil {
		if *ch.FarmerConfirmedCompletion {
			if c.Status != domain.CaseStatusTreated && c.Status != domain.CaseStatusResolved {
				return fmt.Errorf("%w: completion can only be confirmed once the case is treated or resolved", domain.ErrValidation)
			}
			if !c.FarmerConfirmedCompletion {
				t := s.now()
				c.FarmerConfirmedAt = &t
			}
		} else {
			c.FarmerConfirmedAt = nil
		}
		c.FarmerConfirmedCompletion = *ch.FarmerConfirmedCompletion
	}
	return nil
}

// Delete removes the case when the actor's policy allows it. A farmer
// deleting an assigned case notifies the vet in-app.
func (s *CaseService) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	policy := domain.PolicyFor(actor)

	var deleted domain.CaseReport
	err := s.uow.WithinCaseTx(ctx, id, func(ctx context.Context, repos ports.Repositories, c *domain.CaseReport) error {
		if err := policy.CanDelete(c); err != nil {
			return err
		}
		deleted = *c
		return repos.Cases.Delete(ctx, c.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("case_id", deleted.CaseID).Uint("actor_id", actor.ID).Msg("case deleted")
	s.events.record(ctx, &domain.CaseEvent{
		CaseID:     deleted.CaseID,
		CaseDBID:   deleted.ID,
		Type:       domain.CaseEventDeleted,
		FromStatus: deleted.Status,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Timestamp:  s.now(),
	})

	if actor.Role == domain.RoleFarmer && !actor.IsSupervisor() && deleted.IsAssigned() {
		s.notifier.Notify(ctx, s.vetOf(ctx, &deleted), domain.Message{
			Title:    "Case Deleted",
			Body:     fmt.Sprintf("Case %s has been deleted by the farmer.", deleted.CaseID),
			Metadata: map[string]any{"case_id": deleted.CaseID},
		}, false)
	}
	return nil
}

// Assign binds the case to an available local vet and moves it to
// under_review. Only supervisors may assign.
func (s *CaseService) Assign(ctx context.Context, actor domain.Actor, id, vetID uint) (*domain.CaseReport, error) {
	if !actor.IsSupervisor() {
		return nil, domain.ErrForbidden
	}
	if vetID == 0 {
		return nil, fmt.Errorf("%w: veterinarian_id is required", domain.ErrValidation)
	}

	var from domain.CaseStatus
	var assigned *domain.CaseReport
	var vet *domain.User
	err := s.uow.WithinCaseTx(ctx, id, func(ctx context.Context, repos ports.Repositories, c *domain.CaseReport) error {
		v, err := repos.Users.FindByID(ctx, vetID)
		if err != nil {
			return err
		}
		if v.UserType != domain.RoleLocalVet {
			return domain.ErrNotLocalVet
		}
		if v.VeterinarianProfile == nil {
			return domain.ErrVetProfileNotFound
		}
		if !v.VeterinarianProfile.IsAvailable {
			return domain.ErrVetUnavailable
		}
		if !c.Status.Assignable() {
			return fmt.Errorf("%w: cannot assign a case in status %s", domain.ErrInvalidTransition, c.Status)
		}

		from = c.Status
		c.AssignTo(v.ID, actor.ID, s.now())
		if err := repos.Cases.Update(ctx, c); err != nil {
			return fmt.Errorf("assign case: %w", err)
		}
		assigned, vet = c, v
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("case_id", assigned.CaseID).Uint("vet_id", vet.ID).Uint("assigned_by", actor.ID).Msg("case assigned")
	s.events.record(ctx, &domain.CaseEvent{
		CaseID:         assigned.CaseID,
		CaseDBID:       assigned.ID,
		Type:           domain.CaseEventAssigned,
		FromStatus:     from,
		ToStatus:       assigned.Status,
		ActorID:        actor.ID,
		ActorRole:      actor.Role,
		VeterinarianID: &vet.ID,
		Timestamp:      s.now(),
	})

	full := s.reload(ctx, assigned)
	s.notifier.Notify(ctx, vet, domain.Message{
		Title: "New Case Assigned",
		Body: fmt.Sprintf("You have been assigned case %s (urgency: %s). Symptoms: %s",
			full.CaseID, full.Urgency, full.SymptomsObserved),
		CaseID:      &full.ID,
		LivestockID: full.LivestockID,
		Metadata:    map[string]any{"case_id": full.CaseID, "urgency": full.Urgency},
	}, true)

	return full, nil
}

// Unassign clears the assignment and returns the case to pending. No
// notification is sent.
func (s *CaseService) Unassign(ctx context.Context, actor domain.Actor, id uint) (*domain.CaseReport, error) {
	if !actor.IsSupervisor() {
		return nil, domain.ErrForbidden
	}

	var from domain.CaseStatus
	var previousVet *uint
	var updated *domain.CaseReport
	err := s.uow.WithinCaseTx(ctx, id, func(ctx context.Context, repos ports.Repositories, c *domain.CaseReport) error {
		from, previousVet = c.Status, c.AssignedVeterinarianID
		c.Unassign()
		if err := repos.Cases.Update(ctx, c); err != nil {
			return fmt.Errorf("unassign case: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("case_id", updated.CaseID).Uint("actor_id", actor.ID).Msg("case unassigned")
	s.events.record(ctx, &domain.CaseEvent{
		CaseID:         updated.CaseID,
		CaseDBID:       updated.ID,
		Type:           domain.CaseEventUnassigned,
		FromStatus:     from,
		ToStatus:       updated.Status,
		ActorID:        actor.ID,
		ActorRole:      actor.Role,
		VeterinarianID: previousVet,
		Timestamp:      s.now(),
	})
	return s.reload(ctx, updated), nil
}

// AvailableVets lists assignable local vets in the given location.
func (s *CaseService) AvailableVets(ctx context.Context, actor domain.Actor, sector, district string) ([]*domain.User, error) {
	if !actor.IsSupervisor() {
		return nil, domain.ErrForbidden
	}
	vets, err := s.users.ListAvailableVets(ctx, strings.TrimSpace(sector), strings.TrimSpace(district))
	if err != nil {
		return nil, fmt.Errorf("list available vets: %w", err)
	}
	return vets, nil
}

// History returns the audit trail of a visible case, oldest first.
func (s *CaseService) History(ctx context.Context, actor domain.Actor, id uint) ([]*domain.CaseEvent, error) {
	c, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if s.events.repo == nil {
		return []*domain.CaseEvent{}, nil
	}
	events, err := s.events.repo.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("case history: %w", err)
	}
	return events, nil
}

func (s *CaseService) checkLivestock(ctx context.Context, repo ports.LivestockRepository, ownerID, livestockID uint) error {
	l, err := repo.FindByID(ctx, livestockID)
	if errors.Is(err, domain.ErrLivestockNotFound) {
		return fmt.Errorf("%w: livestock %d does not exist", domain.ErrValidation, livestockID)
	}
	if err != nil {
		return err
	}
	if l.OwnerID != ownerID {
		return fmt.Errorf("%w: livestock %d does not belong to the reporter", domain.ErrValidation, livestockID)
	}
	return nil
}

// reload fetches c with its relations. On failure the unloaded value is returned.
func (s *CaseService) reload(ctx context.Context, c *domain.CaseReport) *domain.CaseReport {
	full, err := s.cases.FindByID(ctx, c.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("case_id", c.CaseID).Msg("reload case")
		return c
	}
	return full
}

func (s *CaseService) reporterOf(ctx context.Context, c *domain.CaseReport) *domain.User {
	if c.Reporter != nil {
		return c.Reporter
	}
	return s.lookupUser(ctx, c.ReporterID)
}

func (s *CaseService) vetOf(ctx context.Context, c *domain.CaseReport) *domain.User {
	if c.AssignedVeterinarianID == nil {
		return nil
	}
	if c.AssignedVeterinarian != nil {
		return c.AssignedVeterinarian
	}
	return s.lookupUser(ctx, *c.AssignedVeterinarianID)
}

func (s *CaseService) lookupUser(ctx context.Context, id uint) *domain.User {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", id).Msg("notification recipient lookup failed")
		return nil
	}
	return u
}
