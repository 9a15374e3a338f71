package gormdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

var errDup = domain.ErrDuplicateKey

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(Config{
		Driver:       DriverSQLite,
		DSN:          ":memory:",
		MaxOpenConns: 1,
		Logger:       zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, phone string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		PhoneNumber:       phone,
		PasswordHash:      "x",
		UserType:          role,
		IsActive:          true,
		IsApprovedByAdmin: true,
		Sector:            "Kigali",
		District:          "Gasabo",
	}
	if role.IsVet() {
		u.VeterinarianProfile = &domain.VeterinarianProfile{LicenseNumber: "LIC-" + phone, IsAvailable: true}
	}
	if err := NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func seedCase(t *testing.T, db *gorm.DB, caseID string, reporter uint) *domain.CaseReport {
	t.Helper()
	c := &domain.CaseReport{
		CaseID:           caseID,
		ReporterID:       reporter,
		Status:           domain.CaseStatusPending,
		Urgency:          domain.UrgencyMedium,
		SymptomsObserved: "coughing",
	}
	if err := NewCaseRepository(db).Create(context.Background(), c); err != nil {
		t.Fatalf("create case: %v", err)
	}
	return c
}

func TestCaseRepository_CreateAndFind(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	farmer := seedUser(t, db, "0780000001", domain.RoleFarmer)
	c := seedCase(t, db, "CR20250101120000", farmer.ID)

	if c.ID == 0 || c.ReportedAt.IsZero() {
		t.Fatalf("expected id and reported_at, got %+v", c)
	}

	repo := NewCaseRepository(db)
	got, err := repo.FindByCaseID(ctx, "CR20250101120000")
	if err != nil {
		t.Fatalf("FindByCaseID: %v", err)
	}
	if got.Reporter == nil || got.Reporter.PhoneNumber != "0780000001" {
		t.Fatalf("reporter not preloaded: %+v", got.Reporter)
	}

	if _, err := repo.FindByID(ctx, 999); !errors.Is(err, domain.ErrCaseNotFound) {
		t.Fatalf("want ErrCaseNotFound, got %v", err)
	}
}

func TestCaseRepository_DuplicateCaseID(t *testing.T) {
	db := openTestDB(t)
	farmer := seedUser(t, db, "0780000001", domain.RoleFarmer)
	seedCase(t, db, "CR1", farmer.ID)

	dup := &domain.CaseReport{CaseID: "CR1", ReporterID: farmer.ID, Status: domain.CaseStatusPending, Urgency: domain.UrgencyLow, SymptomsObserved: "x"}
	err := NewCaseRepository(db).Create(context.Background(), dup)
	if !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("want ErrDuplicateKey, got %v", err)
	}
}

func TestCaseRepository_IdempotencyKey(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	farmer := seedUser(t, db, "0780000001", domain.RoleFarmer)
	key := "abc-123"
	c := &domain.CaseReport{CaseID: "CR1", ReporterID: farmer.ID, Status: domain.CaseStatusPending, Urgency: domain.UrgencyLow, SymptomsObserved: "x", IdempotencyKey: &key}
	repo := NewCaseRepository(db)
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.FindByIdempotencyKey(ctx, farmer.ID, key)
	if err != nil || got.ID != c.ID {
		t.Fatalf("FindByIdempotencyKey = %v, %v", got, err)
	}
	if _, err := repo.FindByIdempotencyKey(ctx, farmer.ID+1, key); !errors.Is(err, domain.ErrCaseNotFound) {
		t.Fatalf("key must be scoped to reporter, got %v", err)
	}
}

func TestCaseRepository_IdempotencyKeyUniquePerReporter(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	a := seedUser(t, db, "0780000001", domain.RoleFarmer)
	b := seedUser(t, db, "0780000002", domain.RoleFarmer)
	repo := NewCaseRepository(db)
	key := "k1"

	mk := func(caseID string, reporter uint) *domain.CaseReport {
		k := key
		return &domain.CaseReport{CaseID: caseID, ReporterID: reporter, Status: domain.CaseStatusPending, Urgency: domain.UrgencyLow, SymptomsObserved: "x", IdempotencyKey: &k}
	}
	if err := repo.Create(ctx, mk("CR1", a.ID)); err != nil {
		t.Fatalf("farmer a: %v", err)
	}
	if err := repo.Create(ctx, mk("CR2", b.ID)); err != nil {
		t.Fatalf("farmer b must be able to reuse the key: %v", err)
	}
	if err := repo.Create(ctx, mk("CR3", a.ID)); !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("same reporter, same key: want ErrDuplicateKey, got %v", err)
	}
	// cases without a key never collide
	for _, id := range []string{"CR4", "CR5"} {
		c := mk(id, a.ID)
		c.IdempotencyKey = nil
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
}

func TestCaseRepository_ListScopes(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	f1 := seedUser(t, db, "0780000001", domain.RoleFarmer)
	f2 := seedUser(t, db, "0780000002", domain.RoleFarmer)
	vet := seedUser(t, db, "0780000003", domain.RoleLocalVet)

	repo := NewCaseRepository(db)
	a := seedCase(t, db, "CR-A", f1.ID)
	seedCase(t, db, "CR-B", f1.ID)
	seedCase(t, db, "CR-C", f2.ID)

	a.AssignTo(vet.ID, f2.ID, time.Now())
	a.Urgency = domain.UrgencyUrgent
	if err := repo.Update(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}

	page := domain.CaseFilter{Page: 1, Limit: 10}

	all, total, err := repo.List(ctx, domain.Scope{All: true}, page)
	if err != nil || total != 3 || len(all) != 3 {
		t.Fatalf("all: total=%d len=%d err=%v", total, len(all), err)
	}

	own, total, _ := repo.List(ctx, domain.Scope{OwnerID: f1.ID}, page)
	if total != 2 || len(own) != 2 {
		t.Fatalf("owner scope: total=%d", total)
	}

	assigned, total, _ := repo.List(ctx, domain.Scope{AssigneeID: vet.ID}, page)
	if total != 1 || assigned[0].CaseID != "CR-A" {
		t.Fatalf("assignee scope: total=%d", total)
	}
	if assigned[0].AssignedVeterinarian == nil || assigned[0].AssignedVeterinarian.ID != vet.ID {
		t.Fatal("assigned vet not preloaded")
	}

	filtered, total, _ := repo.List(ctx, domain.Scope{All: true}, domain.CaseFilter{Status: domain.CaseStatusUnderReview, Urgency: domain.UrgencyUrgent, Page: 1, Limit: 10})
	if total != 1 || filtered[0].ID != a.ID {
		t.Fatalf("filter: total=%d", total)
	}

	paged, total, _ := repo.List(ctx, domain.Scope{All: true}, domain.CaseFilter{Page: 2, Limit: 2})
	if total != 3 || len(paged) != 1 {
		t.Fatalf("paging: total=%d len=%d", total, len(paged))
	}
}

func TestCaseRepository_UpdateKeepsCaseID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	farmer := seedUser(t, db, "0780000001", domain.RoleFarmer)
	c := seedCase(t, db, "CR-KEEP", farmer.ID)

	c.CaseID = "CR-CHANGED"
	c.Diagnosis = "FMD"
	repo := NewCaseRepository(db)
	if err := repo.Update(ctx, c); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.CaseID != "CR-KEEP" || got.Diagnosis != "FMD" {
		t.Fatalf("got case_id=%s diagnosis=%s", got.CaseID, got.Diagnosis)
	}
}

func TestCaseRepository_UnassignClearsColumns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	farmer := seedUser(t, db, "0780000001", domain.RoleFarmer)
	vet := seedUser(t, db, "0780000003", domain.RoleLocalVet)
	c := seedCase(t, db, "CR-U", farmer.ID)
	repo := NewCaseRepository(db)

	c.AssignTo(vet.ID, farmer.ID, time.Now())
	if err := repo.Update(ctx, c); err != nil {
		t.Fatalf("assign: %v", err)
	}
	c.Unassign()
	if err := repo.Update(ctx, c); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	got, _ := repo.FindByID(ctx, c.ID)
	if got.AssignedVeterinarianID != nil || got.AssignedAt != nil || got.Status != domain.CaseStatusPending {
		t.Fatalf("assignment not cleared: %+v", got)
	}
}

func TestCaseRepository_Delete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	farmer := seedUser(t, db, "0780000001", domain.RoleFarmer)
	c := seedCase(t, db, "CR-D", farmer.ID)
	repo := NewCaseRepository(db)

	if err := repo.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, c.ID); !errors.Is(err, domain.ErrCaseNotFound) {
		t.Fatalf("second delete: want ErrCaseNotFound, got %v", err)
	}
}

func TestUserRepository_ProfileAndVets(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	vet := seedUser(t, db, "0780000010", domain.RoleLocalVet)
	busy := seedUser(t, db, "0780000011", domain.RoleLocalVet)
	seedUser(t, db, "0780000012", domain.RoleSectorVet)

	got, err := repo.FindByPhone(ctx, "0780000010")
	if err != nil || got.VeterinarianProfile == nil {
		t.Fatalf("FindByPhone: %v %+v", err, got)
	}

	busy.VeterinarianProfile.IsAvailable = false
	if err := repo.UpdateProfile(ctx, busy.VeterinarianProfile); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	vets, err := repo.ListAvailableVets(ctx, "", "")
	if err != nil {
		t.Fatalf("ListAvailableVets: %v", err)
	}
	if len(vets) != 1 || vets[0].ID != vet.ID {
		t.Fatalf("available vets = %d", len(vets))
	}

	vets, _ = repo.ListAvailableVets(ctx, "Musanze", "")
	if len(vets) != 0 {
		t.Fatalf("sector filter ignored: %d", len(vets))
	}

	if err := repo.Create(ctx, &domain.User{PhoneNumber: "0780000010", PasswordHash: "x", UserType: domain.RoleFarmer}); !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("duplicate phone: want ErrDuplicateKey, got %v", err)
	}
	if _, err := repo.FindByID(ctx, 999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_PendingApprovals(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	pending := seedUser(t, db, "0780000020", domain.RoleLocalVet)
	pending.IsApprovedByAdmin = false
	if err := repo.Update(ctx, pending); err != nil {
		t.Fatalf("update: %v", err)
	}
	seedUser(t, db, "0780000021", domain.RoleLocalVet)
	seedUser(t, db, "0780000022", domain.RoleFarmer)

	list, err := repo.ListPendingApprovals(ctx)
	if err != nil {
		t.Fatalf("ListPendingApprovals: %v", err)
	}
	if len(list) != 1 || list[0].ID != pending.ID {
		t.Fatalf("pending = %d", len(list))
	}
}

func TestLivestockRepository_Scopes(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	farmer := seedUser(t, db, "0780000001", domain.RoleFarmer)
	other := seedUser(t, db, "0780000002", domain.RoleFarmer)
	vet := seedUser(t, db, "0780000003", domain.RoleLocalVet)
	repo := NewLivestockRepository(db)

	cow := &domain.Livestock{OwnerID: farmer.ID, LivestockType: "cattle", HealthStatus: "healthy"}
	goat := &domain.Livestock{OwnerID: farmer.ID, LivestockType: "goat", HealthStatus: "healthy"}
	pig := &domain.Livestock{OwnerID: other.ID, LivestockType: "pig", HealthStatus: "healthy"}
	for _, l := range []*domain.Livestock{cow, goat, pig} {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("create livestock: %v", err)
		}
	}

	c := seedCase(t, db, "CR-L", farmer.ID)
	c.LivestockID = &cow.ID
	c.AssignTo(vet.ID, farmer.ID, time.Now())
	if err := NewCaseRepository(db).Update(ctx, c); err != nil {
		t.Fatalf("update case: %v", err)
	}

	_, total, err := repo.List(ctx, domain.Scope{OwnerID: farmer.ID}, 1, 10)
	if err != nil || total != 2 {
		t.Fatalf("owner list total=%d err=%v", total, err)
	}

	items, total, _ := repo.List(ctx, domain.Scope{AssigneeID: vet.ID}, 1, 10)
	if total != 1 || items[0].ID != cow.ID {
		t.Fatalf("vet list total=%d", total)
	}

	if _, err := repo.FindInScope(ctx, domain.Scope{AssigneeID: vet.ID}, goat.ID); !errors.Is(err, domain.ErrLivestockNotFound) {
		t.Fatalf("vet must not see goat: %v", err)
	}
	if _, err := repo.FindInScope(ctx, domain.Scope{All: true}, pig.ID); err != nil {
		t.Fatalf("supervisor FindInScope: %v", err)
	}
}

func TestLivestockRepository_TagUnique(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	farmer := seedUser(t, db, "0780000001", domain.RoleFarmer)
	repo := NewLivestockRepository(db)
	tag := "RW-001"

	if err := repo.Create(ctx, &domain.Livestock{OwnerID: farmer.ID, LivestockType: "cattle", TagNumber: &tag, HealthStatus: "healthy"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.Create(ctx, &domain.Livestock{OwnerID: farmer.ID, LivestockType: "cattle", TagNumber: &tag, HealthStatus: "healthy"})
	if !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("want ErrDuplicateKey, got %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := repo.Create(ctx, &domain.Livestock{OwnerID: farmer.ID, LivestockType: "goat", HealthStatus: "healthy"}); err != nil {
			t.Fatalf("untagged create %d: %v", i, err)
		}
	}
}

func TestNotificationRepository_Inbox(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db, "0780000001", domain.RoleFarmer)
	repo := NewNotificationRepository(db)

	inApp := []*domain.Notification{
		{RecipientID: user.ID, Channel: domain.ChannelInApp, Title: "a", Message: "a", Status: domain.NotificationSent},
		{RecipientID: user.ID, Channel: domain.ChannelInApp, Title: "b", Message: "b", Status: domain.NotificationSent},
	}
	email := &domain.Notification{RecipientID: user.ID, Channel: domain.ChannelEmail, Title: "a", Message: "a", Status: domain.NotificationPending, Destination: "f@example.com"}
	for _, n := range append(inApp, email) {
		if err := repo.Create(ctx, n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	items, total, err := repo.ListByRecipient(ctx, user.ID, 1, 10)
	if err != nil || total != 2 || len(items) != 2 {
		t.Fatalf("inbox total=%d err=%v", total, err)
	}

	unread, _ := repo.CountUnread(ctx, user.ID)
	if unread != 2 {
		t.Fatalf("unread = %d", unread)
	}

	now := time.Now()
	if err := repo.MarkRead(ctx, inApp[0].ID, user.ID, now); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if err := repo.MarkRead(ctx, inApp[1].ID, user.ID+1, now); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Fatalf("foreign MarkRead: want not found, got %v", err)
	}
	if err := repo.MarkRead(ctx, email.ID, user.ID, now); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Fatalf("email row MarkRead: want not found, got %v", err)
	}

	n, err := repo.MarkAllRead(ctx, user.ID, now)
	if err != nil || n != 1 {
		t.Fatalf("MarkAllRead = %d, %v", n, err)
	}
	unread, _ = repo.CountUnread(ctx, user.ID)
	if unread != 0 {
		t.Fatalf("unread after mark all = %d", unread)
	}
}

func TestNotificationRepository_Delivery(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db, "0780000001", domain.RoleFarmer)
	repo := NewNotificationRepository(db)

	n := &domain.Notification{RecipientID: user.ID, Channel: domain.ChannelEmail, Title: "t", Message: "m", Status: domain.NotificationPending, Destination: "f@example.com"}
	if err := repo.Create(ctx, n); err != nil {
		t.Fatalf("create: %v", err)
	}

	later := time.Now().Add(time.Minute)
	pending, _ := repo.ListPendingEmails(ctx, later, 0, 10)
	if len(pending) != 1 {
		t.Fatalf("pending = %d", len(pending))
	}

	sent := time.Now()
	if err := repo.RecordDelivery(ctx, n.ID, domain.NotificationSent, 2, "", &sent); err != nil {
		t.Fatalf("RecordDelivery: %v", err)
	}
	got, _ := repo.FindByID(ctx, n.ID)
	if got.Status != domain.NotificationSent || got.Attempts != 2 || got.SentAt == nil {
		t.Fatalf("delivery not recorded: %+v", got)
	}

	pending, _ = repo.ListPendingEmails(ctx, later, 0, 10)
	if len(pending) != 0 {
		t.Fatalf("pending after send = %d", len(pending))
	}
	if err := repo.RecordDelivery(ctx, 999, domain.NotificationFailed, 1, "x", nil); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestUnitOfWork_WithinTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	uow := NewUnitOfWork(db)

	err := uow.WithinTx(ctx, func(ctx context.Context, r ports.Repositories) error {
		return r.Users.Create(ctx, &domain.User{PhoneNumber: "0780000100", PasswordHash: "x", UserType: domain.RoleFarmer})
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := NewUserRepository(db).FindByPhone(ctx, "0780000100"); err != nil {
		t.Fatalf("not visible after commit: %v", err)
	}

	boom := errors.New("boom")
	err = uow.WithinTx(ctx, func(ctx context.Context, r ports.Repositories) error {
		if err := r.Users.Create(ctx, &domain.User{PhoneNumber: "0780000101", PasswordHash: "x", UserType: domain.RoleFarmer}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if _, err := NewUserRepository(db).FindByPhone(ctx, "0780000101"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("rollback failed: %v", err)
	}
}

func TestUnitOfWork_WithinCaseTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	farmer := seedUser(t, db, "0780000001", domain.RoleFarmer)
	c := seedCase(t, db, "CR-TX", farmer.ID)
	uow := NewUnitOfWork(db)

	err := uow.WithinCaseTx(ctx, c.ID, func(ctx context.Context, r ports.Repositories, locked *domain.CaseReport) error {
		if locked.CaseID != "CR-TX" {
			t.Fatalf("locked wrong case %s", locked.CaseID)
		}
		locked.Diagnosis = "mastitis"
		return r.Cases.Update(ctx, locked)
	})
	if err != nil {
		t.Fatalf("WithinCaseTx: %v", err)
	}
	got, _ := NewCaseRepository(db).FindByID(ctx, c.ID)
	if got.Diagnosis != "mastitis" {
		t.Fatalf("diagnosis = %q", got.Diagnosis)
	}

	err = uow.WithinCaseTx(ctx, 999, func(context.Context, ports.Repositories, *domain.CaseReport) error {
		t.Fatal("callback must not run for a missing case")
		return nil
	})
	if !errors.Is(err, domain.ErrCaseNotFound) {
		t.Fatalf("want ErrCaseNotFound, got %v", err)
	}
}

func TestNotificationRepository_ListPendingEmailsPages(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db, "0780000001", domain.RoleFarmer)
	repo := NewNotificationRepository(db)

	created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	var ids []uint
	for i := 0; i < 3; i++ {
		n := &domain.Notification{RecipientID: user.ID, Channel: domain.ChannelEmail, Title: "t", Message: "m",
			Status: domain.NotificationPending, Destination: "f@example.com", CreatedAt: created}
		if err := repo.Create(ctx, n); err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, n.ID)
	}

	cutoff := created.Add(time.Minute)
	first, err := repo.ListPendingEmails(ctx, cutoff, 0, 2)
	if err != nil || len(first) != 2 || first[0].ID != ids[0] || first[1].ID != ids[1] {
		t.Fatalf("first page = %v, %v", first, err)
	}
	rest, _ := repo.ListPendingEmails(ctx, cutoff, first[1].ID, 2)
	if len(rest) != 1 || rest[0].ID != ids[2] {
		t.Fatalf("second page = %v", rest)
	}
	if fresh, _ := repo.ListPendingEmails(ctx, created.Add(-time.Minute), 0, 10); len(fresh) != 0 {
		t.Fatalf("rows newer than the cutoff listed: %d", len(fresh))
	}
}
