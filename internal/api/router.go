package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/animalguardian/platform/internal/api/handler"
	"github.com/animalguardian/platform/internal/api/middleware"
	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	Logger    zerolog.Logger
	Debug     bool
	JWTSecret string

	Auth          ports.AuthService
	Users         ports.UserService
	Cases         ports.CaseService
	Livestock     ports.LivestockService
	Notifications ports.NotificationService

	// Checks are the readiness probes keyed by dependency name.
	Checks map[string]handler.Check
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger, d.Debug)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddleware("animalguardian"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Users)
	userHandler := handler.NewUserHandler(d.Users)
	caseHandler := handler.NewCaseHandler(d.Cases)
	livestockHandler := handler.NewLivestockHandler(d.Livestock)
	notificationHandler := handler.NewNotificationHandler(d.Notifications)
	ussdHandler := handler.NewUssdHandler(d.Cases, d.Users, d.Logger)
	healthHandler := handler.NewHealthHandler(d.Checks)

	authMW := middleware.Auth(d.JWTSecret)
	supervisors := middleware.RequireRole(domain.RoleSectorVet, domain.RoleAdmin)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// --- Auth ---
	api.POST("/auth/register/", authHandler.Register)
	api.POST("/auth/login/", authHandler.Login)
	api.GET("/auth/me/", authHandler.Me, authMW)

	// --- USSD gateway (authenticated by phone number) ---
	api.POST("/ussd/", ussdHandler.Handle)

	// --- Accounts ---
	users := api.Group("/users", authMW)
	users.GET("/pending-approvals/", userHandler.PendingApprovals, supervisors)
	users.POST("/:id/approve/", userHandler.Approve, supervisors)

	vets := api.Group("/vets", authMW)
	vets.PATCH("/me/availability/", userHandler.SetAvailability,
		middleware.RequireRole(domain.RoleLocalVet, domain.RoleSectorVet))

	// --- Livestock ---
	livestock := api.Group("/livestock", authMW)
	livestock.POST("/", livestockHandler.Create, middleware.RequireRole(domain.RoleFarmer))
	livestock.GET("/", livestockHandler.List)
	livestock.GET("/:id/", livestockHandler.Get)
	livestock.PATCH("/:id/", livestockHandler.Update)
	livestock.DELETE("/:id/", livestockHandler.Delete)

	// --- Case reports ---
	cases := api.Group("/cases/reports", authMW)
	cases.POST("/", caseHandler.Create)
	cases.GET("/", caseHandler.List)
	cases.GET("/available_vets_by_location/", caseHandler.AvailableVets, supervisors)
	cases.GET("/:id/", caseHandler.Get)
	cases.PATCH("/:id/", caseHandler.Update)
	cases.PUT("/:id/", caseHandler.Update)
	cases.DELETE("/:id/", caseHandler.Delete)
	cases.GET("/:id/history/", caseHandler.History)
	cases.POST("/:id/assign/", caseHandler.Assign, supervisors)
	cases.POST("/:id/unassign/", caseHandler.Unassign, supervisors)

	// --- Notifications ---
	notifications := api.Group("/notifications", authMW)
	notifications.GET("/", notificationHandler.List)
	notifications.GET("/unread-count/", notificationHandler.UnreadCount)
	notifications.POST("/read-all/", notificationHandler.MarkAllRead)
	notifications.POST("/:id/read/", notificationHandler.MarkRead)

	return e
}

// requestLogger writes one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
