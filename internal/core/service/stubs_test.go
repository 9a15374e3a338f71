package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory repositories shared by the service tests.
// ---------------------------------------------------------------------------

type stubCaseRepo struct {
	mu        sync.Mutex
	byID      map[uint]*domain.CaseReport
	nextID    uint
	createErr []error // consumed one per Create call
	users     *stubUserRepo
}

func newStubCaseRepo(users *stubUserRepo) *stubCaseRepo {
	return &stubCaseRepo{byID: make(map[uint]*domain.CaseReport), users: users}
}

func cloneCase(c *domain.CaseReport) *domain.CaseReport {
	cp := *c
	return &cp
}

func (r *stubCaseRepo) Create(_ context.Context, c *domain.CaseReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.createErr) > 0 {
		err := r.createErr[0]
		r.createErr = r.createErr[1:]
		if err != nil {
			return err
		}
	}
	for _, existing := range r.byID {
		if existing.CaseID == c.CaseID {
			return domain.ErrDuplicateKey
		}
	}
	r.nextID++
	c.ID = r.nextID
	r.byID[c.ID] = cloneCase(c)
	return nil
}

func (r *stubCaseRepo) withRelations(c *domain.CaseReport) *domain.CaseReport {
	cp := cloneCase(c)
	if r.users != nil {
		cp.Reporter, _ = r.users.FindByID(context.Background(), c.ReporterID)
		if c.AssignedVeterinarianID != nil {
			cp.AssignedVeterinarian, _ = r.users.FindByID(context.Background(), *c.AssignedVeterinarianID)
		}
	}
	return cp
}

func (r *stubCaseRepo) FindByID(_ context.Context, id uint) (*domain.CaseReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCaseNotFound
	}
	return r.withRelations(c), nil
}

func (r *stubCaseRepo) FindByCaseID(_ context.Context, caseID string) (*domain.CaseReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if c.CaseID == caseID {
			return r.withRelations(c), nil
		}
	}
	return nil, domain.ErrCaseNotFound
}

func (r *stubCaseRepo) FindByIdempotencyKey(_ context.Context, reporterID uint, key string) (*domain.CaseReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if c.ReporterID == reporterID && c.IdempotencyKey != nil && *c.IdempotencyKey == key {
			return cloneCase(c), nil
		}
	}
	return nil, domain.ErrCaseNotFound
}

func (r *stubCaseRepo) List(_ context.Context, scope domain.Scope, f domain.CaseFilter) ([]*domain.CaseReport, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CaseReport
	for _, c := range r.byID {
		if !scope.AllowsCase(c) {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Urgency != "" && c.Urgency != f.Urgency {
			continue
		}
		out = append(out, cloneCase(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	start := (f.Page - 1) * f.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + f.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r *stubCaseRepo) Update(_ context.Context, c *domain.CaseReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[c.ID]
	if !ok {
		return domain.ErrCaseNotFound
	}
	cp := cloneCase(c)
	cp.CaseID = existing.CaseID
	cp.ReporterID = existing.ReporterID
	cp.Reporter, cp.AssignedVeterinarian, cp.Livestock = nil, nil, nil
	r.byID[c.ID] = cp
	return nil
}

func (r *stubCaseRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrCaseNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubCaseRepo) get(id uint) *domain.CaseReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		return cloneCase(c)
	}
	return nil
}

type stubUserRepo struct {
	mu     sync.Mutex
	byID   map[uint]*domain.User
	nextID uint
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[uint]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	if u.VeterinarianProfile != nil {
		p := *u.VeterinarianProfile
		cp.VeterinarianProfile = &p
	}
	return &cp
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.PhoneNumber == u.PhoneNumber {
			return domain.ErrDuplicateKey
		}
		if u.Email != nil && existing.Email != nil && *existing.Email == *u.Email {
			return domain.ErrDuplicateKey
		}
	}
	r.nextID++
	u.ID = r.nextID
	if u.VeterinarianProfile != nil {
		u.VeterinarianProfile.UserID = u.ID
		u.VeterinarianProfile.ID = u.ID
	}
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByPhone(_ context.Context, phone string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.PhoneNumber == phone {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[u.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	cp := cloneUser(u)
	cp.VeterinarianProfile = existing.VeterinarianProfile
	r.byID[u.ID] = cp
	return nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, p *domain.VeterinarianProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[p.UserID]
	if !ok || u.VeterinarianProfile == nil {
		return domain.ErrVetProfileNotFound
	}
	cp := *p
	u.VeterinarianProfile = &cp
	return nil
}

func (r *stubUserRepo) ListAvailableVets(_ context.Context, sector, district string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.byID {
		if u.UserType != domain.RoleLocalVet || !u.IsApprovedByAdmin || u.VeterinarianProfile == nil || !u.VeterinarianProfile.IsAvailable {
			continue
		}
		if sector != "" && u.Sector != sector {
			continue
		}
		if district != "" && u.District != district {
			continue
		}
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) ListPendingApprovals(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.byID {
		if u.UserType.IsVet() && !u.IsApprovedByAdmin {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *stubUserRepo) add(u *domain.User) *domain.User {
	_ = r.Create(context.Background(), u)
	return u
}

type stubLivestockRepo struct {
	byID   map[uint]*domain.Livestock
	nextID uint
	cases  *stubCaseRepo
}

func newStubLivestockRepo(cases *stubCaseRepo) *stubLivestockRepo {
	return &stubLivestockRepo{byID: make(map[uint]*domain.Livestock), cases: cases}
}

func (r *stubLivestockRepo) Create(_ context.Context, l *domain.Livestock) error {
	if l.TagNumber != nil {
		for _, existing := range r.byID {
			if existing.TagNumber != nil && *existing.TagNumber == *l.TagNumber {
				return domain.ErrDuplicateKey
			}
		}
	}
	r.nextID++
	l.ID = r.nextID
	cp := *l
	r.byID[l.ID] = &cp
	return nil
}

func (r *stubLivestockRepo) FindByID(_ context.Context, id uint) (*domain.Livestock, error) {
	l, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrLivestockNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *stubLivestockRepo) visible(scope domain.Scope, l *domain.Livestock) bool {
	switch {
	case scope.All:
		return true
	case scope.AssigneeID != 0:
		if r.cases == nil {
			return false
		}
		for _, c := range r.cases.byID {
			if c.LivestockID != nil && *c.LivestockID == l.ID && scope.AllowsCase(c) {
				return true
			}
		}
		return false
	default:
		return l.OwnerID == scope.OwnerID
	}
}

func (r *stubLivestockRepo) FindInScope(ctx context.Context, scope domain.Scope, id uint) (*domain.Livestock, error) {
	l, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.visible(scope, l) {
		return nil, domain.ErrLivestockNotFound
	}
	return l, nil
}

func (r *stubLivestockRepo) List(_ context.Context, scope domain.Scope, _, _ int) ([]*domain.Livestock, int64, error) {
	var out []*domain.Livestock
	for _, l := range r.byID {
		if r.visible(scope, l) {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubLivestockRepo) Update(_ context.Context, l *domain.Livestock) error {
	if _, ok := r.byID[l.ID]; !ok {
		return domain.ErrLivestockNotFound
	}
	cp := *l
	r.byID[l.ID] = &cp
	return nil
}

func (r *stubLivestockRepo) Delete(_ context.Context, id uint) error {
	delete(r.byID, id)
	return nil
}

type deliveryRecord struct {
	status   domain.NotificationStatus
	attempts int
	lastErr  string
}

type stubNotificationRepo struct {
	mu         sync.Mutex
	items      []*domain.Notification
	createErr  error
	deliveries map[uint][]deliveryRecord
}

func newStubNotificationRepo() *stubNotificationRepo {
	return &stubNotificationRepo{deliveries: make(map[uint][]deliveryRecord)}
}

func (r *stubNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	n.ID = uint(len(r.items) + 1)
	cp := *n
	r.items = append(r.items, &cp)
	return nil
}

func (r *stubNotificationRepo) FindByID(_ context.Context, id uint) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, domain.ErrNotificationNotFound
}

func (r *stubNotificationRepo) ListByRecipient(_ context.Context, recipientID uint, _, _ int) ([]*domain.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for i := len(r.items) - 1; i >= 0; i-- {
		n := r.items[i]
		if n.RecipientID == recipientID && n.Channel == domain.ChannelInApp {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubNotificationRepo) CountUnread(_ context.Context, recipientID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, it := range r.items {
		if it.RecipientID == recipientID && it.Channel == domain.ChannelInApp && it.Status != domain.NotificationRead {
			n++
		}
	}
	return n, nil
}

func (r *stubNotificationRepo) MarkRead(_ context.Context, id, recipientID uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.ID == id && it.RecipientID == recipientID {
			it.Status = domain.NotificationRead
			it.ReadAt = &at
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

func (r *stubNotificationRepo) MarkAllRead(_ context.Context, recipientID uint, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, it := range r.items {
		if it.RecipientID == recipientID && it.Channel == domain.ChannelInApp && it.Status != domain.NotificationRead {
			it.Status = domain.NotificationRead
			it.ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (r *stubNotificationRepo) RecordDelivery(_ context.Context, id uint, status domain.NotificationStatus, attempts int, lastErr string, _ *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries[id] = append(r.deliveries[id], deliveryRecord{status: status, attempts: attempts, lastErr: lastErr})
	for _, it := range r.items {
		if it.ID == id {
			it.Status = status
			it.Attempts = attempts
		}
	}
	return nil
}

func (r *stubNotificationRepo) ListPendingEmails(_ context.Context, before time.Time, afterID uint, limit int) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for _, it := range r.items {
		if len(out) == limit {
			break
		}
		if it.Channel == domain.ChannelEmail && it.Status == domain.NotificationPending && !it.CreatedAt.After(before) && it.ID > afterID {
			cp := *it
			out = append(out, &cp)
		}
	}
	return out, nil
}

// byRecipient returns the notifications of one channel addressed to id.
func (r *stubNotificationRepo) byRecipient(id uint, ch domain.Channel) []*domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for _, it := range r.items {
		if it.RecipientID == id && it.Channel == ch {
			out = append(out, it)
		}
	}
	return out
}

func (r *stubNotificationRepo) count(ch domain.Channel) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.items {
		if it.Channel == ch {
			n++
		}
	}
	return n
}

// stubUnitOfWork runs fn directly against the in-memory repositories.
type stubUnitOfWork struct {
	repos ports.Repositories
	calls int
}

func (u *stubUnitOfWork) WithinTx(ctx context.Context, fn func(context.Context, ports.Repositories) error) error {
	u.calls++
	return fn(ctx, u.repos)
}

func (u *stubUnitOfWork) WithinCaseTx(ctx context.Context, id uint, fn func(context.Context, ports.Repositories, *domain.CaseReport) error) error {
	u.calls++
	c, err := u.repos.Cases.FindByID(ctx, id)
	if err != nil {
		return err
	}
	c.Reporter, c.AssignedVeterinarian, c.Livestock = nil, nil, nil
	return fn(ctx, u.repos, c)
}

type stubQueue struct {
	mu   sync.Mutex
	jobs []domain.EmailJob
	full bool
}

func (q *stubQueue) setFull(full bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.full = full
}

func (q *stubQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *stubQueue) Enqueue(job domain.EmailJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.jobs = append(q.jobs, job)
	return true
}

type stubEventRepo struct {
	inserted  []*domain.CaseEvent
	insertErr error
}

func (r *stubEventRepo) Insert(_ context.Context, e *domain.CaseEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, e)
	return nil
}

func (r *stubEventRepo) ListByCase(_ context.Context, id uint) ([]*domain.CaseEvent, error) {
	var out []*domain.CaseEvent
	for _, e := range r.inserted {
		if e.CaseDBID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubPublisher struct {
	published []*domain.CaseEvent
	err       error
}

func (p *stubPublisher) Publish(_ context.Context, e *domain.CaseEvent) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, e)
	return nil
}
