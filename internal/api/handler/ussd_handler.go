package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/animalguardian/platform/internal/api/metrics"
	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

const (
	ussdMainMenu = "Welcome to AnimalGuardian\n1. Report sick animal\n2. My recent cases\n3. Check case status"
	ussdRecent   = 3
)

const ussdUrgencyPrompt = "Select urgency:\n1. Low\n2. Medium\n3. High\n4. Urgent"

var ussdUrgency = map[string]domain.Urgency{
	"1": domain.UrgencyLow,
	"2": domain.UrgencyMedium,
	"3": domain.UrgencyHigh,
	"4": domain.UrgencyUrgent,
}

// ussdRequest is the gateway callback form. text holds every answer of the
// session so far joined with "*".
type ussdRequest struct {
	SessionID   string `form:"sessionId"`
	ServiceCode string `form:"serviceCode"`
	PhoneNumber string `form:"phoneNumber"`
	Text        string `form:"text"`
}

// UssdHandler drives the feature-phone menu. Every reply is plain text
// prefixed with CON (expects more input) or END (closes the session).
type UssdHandler struct {
	cases  ports.CaseService
	users  ports.UserService
	logger zerolog.Logger
}

func NewUssdHandler(cases ports.CaseService, users ports.UserService, logger zerolog.Logger) *UssdHandler {
	return &UssdHandler{cases: cases, users: users, logger: logger}
}

// Handle handles POST /api/ussd/.
//
// @Summary      USSD gateway callback
// @Tags         ussd
// @Accept       x-www-form-urlencoded
// @Produce      plain
// @Param        sessionId    formData  string  true   "Gateway session id"
// @Param        serviceCode  formData  string  false  "Dialled service code"
// @Param        phoneNumber  formData  string  true   "Caller phone number"
// @Param        text         formData  string  false  "Answers so far, joined with *"
// @Success      200  {string}  string
// @Router       /api/ussd/ [post]
func (h *UssdHandler) Handle(c echo.Context) error {
	var req ussdRequest
	if err := c.Bind(&req); err != nil {
		return h.reply(c, false, "Invalid request.")
	}
	phone := strings.TrimSpace(req.PhoneNumber)
	if phone == "" {
		return h.reply(c, false, "Invalid request.")
	}

	ctx := c.Request().Context()
	user, err := h.users.GetByPhone(ctx, phone)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return h.reply(c, false, "This number is not registered. Please register with AnimalGuardian first.")
	case err != nil:
		return h.fail(c, err, "user lookup")
	case user.UserType != domain.RoleFarmer:
		return h.reply(c, false, "USSD reporting is available to farmers only.")
	case !user.IsActive:
		return h.reply(c, false, "Your account is inactive.")
	}
	actor := domain.Actor{ID: user.ID, Role: user.UserType, IsStaff: user.IsStaff}

	var steps []string
	if req.Text != "" {
		steps = strings.Split(req.Text, "*")
	}
	if len(steps) == 0 {
		return h.reply(c, true, ussdMainMenu)
	}

	switch steps[0] {
	case "1":
		return h.report(c, actor, req.SessionID, steps[1:])
	case "2":
		return h.recent(c, actor)
	case "3":
		return h.status(c, actor, steps[1:])
	default:
		return h.reply(c, false, "Invalid option.")
	}
}

func (h *UssdHandler) report(c echo.Context, actor domain.Actor, sessionID string, steps []string) error {
	switch len(steps) {
	case 0:
		return h.reply(c, true, "Enter animal type (e.g. cow, goat):")
	case 1:
		return h.reply(c, true, "Describe the symptoms:")
	case 2:
		return h.reply(c, true, ussdUrgencyPrompt)
	}

	// The gateway joins answers with '*', so symptoms typed with a '*' arrive
	// as extra segments. Only a final numeric segment answers the urgency
	// prompt; anything else is still part of the symptoms.
	last := strings.TrimSpace(steps[len(steps)-1])
	urgency, ok := ussdUrgency[last]
	if !ok {
		if isDigits(last) {
			return h.reply(c, false, "Invalid urgency option.")
		}
		return h.reply(c, true, ussdUrgencyPrompt)
	}
	animal := strings.TrimSpace(steps[0])
	symptoms := strings.TrimSpace(strings.Join(steps[1:len(steps)-1], "*"))
	if symptoms == "" {
		return h.reply(c, false, "Symptoms are required.")
	}
	if animal != "" {
		symptoms = fmt.Sprintf("%s: %s", animal, symptoms)
	}

	in := ports.CreateCaseInput{
		SymptomsObserved: symptoms,
		LocationNotes:    "Reported via USSD",
		Urgency:          urgency,
	}
	if sessionID != "" {
		in.IdempotencyKey = "ussd:" + sessionID
	}
	res, err := h.cases.Create(c.Request().Context(), actor, in)
	if err != nil {
		return h.fail(c, err, "create case")
	}
	if !res.AlreadyExisted {
		metrics.CasesReportedTotal.WithLabelValues(string(urgency), "ussd").Inc()
	}
	return h.reply(c, false, fmt.Sprintf("Case %s reported. A veterinarian will contact you.", res.Case.CaseID))
}

func (h *UssdHandler) recent(c echo.Context, actor domain.Actor) error {
	page, err := h.cases.List(c.Request().Context(), actor, domain.CaseFilter{Page: 1, Limit: ussdRecent})
	if err != nil {
		return h.fail(c, err, "list cases")
	}
	if len(page.Items) == 0 {
		return h.reply(c, false, "You have no reported cases.")
	}
	var b strings.Builder
	b.WriteString("Your recent cases:")
	for _, cs := range page.Items {
		fmt.Fprintf(&b, "\n%s - %s", cs.CaseID, cs.Status.Label())
	}
	return h.reply(c, false, b.String())
}

func (h *UssdHandler) status(c echo.Context, actor domain.Actor, steps []string) error {
	if len(steps) == 0 {
		return h.reply(c, true, "Enter case ID:")
	}
	cs, err := h.cases.GetByCaseID(c.Request().Context(), actor, steps[0])
	switch {
	case errors.Is(err, domain.ErrCaseNotFound), errors.Is(err, domain.ErrForbidden):
		return h.reply(c, false, "Case not found.")
	case err != nil:
		return h.fail(c, err, "case status")
	}
	msg := fmt.Sprintf("Case %s: %s", cs.CaseID, cs.Status.Label())
	if cs.AssignedVeterinarian != nil {
		msg += "\nVet: " + cs.AssignedVeterinarian.FullName()
	}
	return h.reply(c, false, msg)
}

func (h *UssdHandler) reply(c echo.Context, more bool, msg string) error {
	prefix, outcome := "END ", "end"
	if more {
		prefix, outcome = "CON ", "continue"
	}
	metrics.UssdRequestsTotal.WithLabelValues(outcome).Inc()
	return c.String(http.StatusOK, prefix+msg)
}

func (h *UssdHandler) fail(c echo.Context, err error, op string) error {
	h.logger.Error().Err(err).Str("op", op).Msg("ussd request failed")
	metrics.UssdRequestsTotal.WithLabelValues("error").Inc()
	return c.String(http.StatusOK, "END Service unavailable, please try again later.")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
