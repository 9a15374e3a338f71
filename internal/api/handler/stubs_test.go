package handler

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/animalguardian/platform/internal/api/middleware"
	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// newTestContext builds an echo context with the validator installed and,
// when actor.ID is set, the claims the Auth middleware would have injected.
func newTestContext(method, target string, body io.Reader, contentType string, actor domain.Actor) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor.ID != 0 {
		c.Set(middleware.KeyActor, actor)
	}
	return c, rec
}

var (
	farmerActor = domain.Actor{ID: 1, Role: domain.RoleFarmer}
	vetActor    = domain.Actor{ID: 2, Role: domain.RoleLocalVet}
	adminActor  = domain.Actor{ID: 3, Role: domain.RoleSectorVet}
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, phone, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, phone, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, phone, password)
}

type stubUserService struct {
	getFn             func(ctx context.Context, id uint) (*domain.User, error)
	getByPhoneFn      func(ctx context.Context, phone string) (*domain.User, error)
	pendingFn         func(ctx context.Context, actor domain.Actor) ([]*domain.User, error)
	approveFn         func(ctx context.Context, actor domain.Actor, userID uint) (*domain.User, error)
	setAvailabilityFn func(ctx context.Context, actor domain.Actor, available bool) (*domain.VeterinarianProfile, error)
}

func (s *stubUserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return s.getByPhoneFn(ctx, phone)
}

func (s *stubUserService) PendingApprovals(ctx context.Context, actor domain.Actor) ([]*domain.User, error) {
	return s.pendingFn(ctx, actor)
}

func (s *stubUserService) Approve(ctx context.Context, actor domain.Actor, userID uint) (*domain.User, error) {
	return s.approveFn(ctx, actor, userID)
}

func (s *stubUserService) SetAvailability(ctx context.Context, actor domain.Actor, available bool) (*domain.VeterinarianProfile, error) {
	return s.setAvailabilityFn(ctx, actor, available)
}

type stubCaseService struct {
	createFn        func(ctx context.Context, actor domain.Actor, in ports.CreateCaseInput) (*ports.CreateCaseResult, error)
	listFn          func(ctx context.Context, actor domain.Actor, f domain.CaseFilter) (*ports.Page[domain.CaseReport], error)
	getFn           func(ctx context.Context, actor domain.Actor, id uint) (*domain.CaseReport, error)
	getByCaseIDFn   func(ctx context.Context, actor domain.Actor, caseID string) (*domain.CaseReport, error)
	updateFn        func(ctx context.Context, actor domain.Actor, id uint, ch domain.CaseChanges) (*domain.CaseReport, error)
	deleteFn        func(ctx context.Context, actor domain.Actor, id uint) error
	assignFn        func(ctx context.Context, actor domain.Actor, id, vetID uint) (*domain.CaseReport, error)
	unassignFn      func(ctx context.Context, actor domain.Actor, id uint) (*domain.CaseReport, error)
	availableVetsFn func(ctx context.Context, actor domain.Actor, sector, district string) ([]*domain.User, error)
	historyFn       func(ctx context.Context, actor domain.Actor, id uint) ([]*domain.CaseEvent, error)
}

func (s *stubCaseService) Create(ctx context.Context, actor domain.Actor, in ports.CreateCaseInput) (*ports.CreateCaseResult, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubCaseService) List(ctx context.Context, actor domain.Actor, f domain.CaseFilter) (*ports.Page[domain.CaseReport], error) {
	return s.listFn(ctx, actor, f)
}

func (s *stubCaseService) Get(ctx context.Context, actor domain.Actor, id uint) (*domain.CaseReport, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubCaseService) GetByCaseID(ctx context.Context, actor domain.Actor, caseID string) (*domain.CaseReport, error) {
	return s.getByCaseIDFn(ctx, actor, caseID)
}

func (s *stubCaseService) Update(ctx context.Context, actor domain.Actor, id uint, ch domain.CaseChanges) (*domain.CaseReport, error) {
	return s.updateFn(ctx, actor, id, ch)
}

func (s *stubCaseService) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	return s.deleteFn(ctx, actor, id)
}

func (s *stubCaseService) Assign(ctx context.Context, actor domain.Actor, id, vetID uint) (*domain.CaseReport, error) {
	return s.assignFn(ctx, actor, id, vetID)
}

func (s *stubCaseService) Unassign(ctx context.Context, actor domain.Actor, id uint) (*domain.CaseReport, error) {
	return s.unassignFn(ctx, actor, id)
}

func (s *stubCaseService) AvailableVets(ctx context.Context, actor domain.Actor, sector, district string) ([]*domain.User, error) {
	return s.availableVetsFn(ctx, actor, sector, district)
}

func (s *stubCaseService) History(ctx context.Context, actor domain.Actor, id uint) ([]*domain.CaseEvent, error) {
	return s.historyFn(ctx, actor, id)
}

type stubLivestockService struct {
	createFn func(ctx context.Context, actor domain.Actor, in ports.CreateLivestockInput) (*domain.Livestock, error)
	listFn   func(ctx context.Context, actor domain.Actor, page, limit int) (*ports.Page[domain.Livestock], error)
	getFn    func(ctx context.Context, actor domain.Actor, id uint) (*domain.Livestock, error)
	updateFn func(ctx context.Context, actor domain.Actor, id uint, ch domain.LivestockChanges) (*domain.Livestock, error)
	deleteFn func(ctx context.Context, actor domain.Actor, id uint) error
}

func (s *stubLivestockService) Create(ctx context.Context, actor domain.Actor, in ports.CreateLivestockInput) (*domain.Livestock, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubLivestockService) List(ctx context.Context, actor domain.Actor, page, limit int) (*ports.Page[domain.Livestock], error) {
	return s.listFn(ctx, actor, page, limit)
}

func (s *stubLivestockService) Get(ctx context.Context, actor domain.Actor, id uint) (*domain.Livestock, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubLivestockService) Update(ctx context.Context, actor domain.Actor, id uint, ch domain.LivestockChanges) (*domain.Livestock, error) {
	return s.updateFn(ctx, actor, id, ch)
}

func (s *stubLivestockService) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	return s.deleteFn(ctx, actor, id)
}

type stubNotificationService struct {
	listFn        func(ctx context.Context, actor domain.Actor, page, limit int) (*ports.Page[domain.Notification], error)
	unreadFn      func(ctx context.Context, actor domain.Actor) (int64, error)
	markReadFn    func(ctx context.Context, actor domain.Actor, id uint) error
	markAllReadFn func(ctx context.Context, actor domain.Actor) (int64, error)
}

func (s *stubNotificationService) Notify(context.Context, *domain.User, domain.Message, bool) {}

func (s *stubNotificationService) List(ctx context.Context, actor domain.Actor, page, limit int) (*ports.Page[domain.Notification], error) {
	return s.listFn(ctx, actor, page, limit)
}

func (s *stubNotificationService) UnreadCount(ctx context.Context, actor domain.Actor) (int64, error) {
	return s.unreadFn(ctx, actor)
}

func (s *stubNotificationService) MarkRead(ctx context.Context, actor domain.Actor, id uint) error {
	return s.markReadFn(ctx, actor, id)
}

func (s *stubNotificationService) MarkAllRead(ctx context.Context, actor domain.Actor) (int64, error) {
	return s.markAllReadFn(ctx, actor)
}

func (s *stubNotificationService) ResumePending(context.Context) (int, error) { return 0, nil }
