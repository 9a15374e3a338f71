package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/animalguardian/platform/internal/api/metrics"
	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// CaseHandler handles HTTP requests for case report operations.
type CaseHandler struct {
	service ports.CaseService
}

func NewCaseHandler(service ports.CaseService) *CaseHandler {
	return &CaseHandler{service: service}
}

// Create handles POST /api/cases/reports/.
//
// @Summary      Report a sick animal
// @Tags         cases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createCaseRequest  true   "Case details"
// @Success      201              {object}  caseResponse
// @Success      200              {object}  caseResponse  "Replayed idempotent request"
// @Failure      400              {object}  map[string]string
// @Failure      401              {object}  map[string]string
// @Router       /api/cases/reports/ [post]
func (h *CaseHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req createCaseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.Create(c.Request().Context(), actor, ports.CreateCaseInput{
		SymptomsObserved: req.SymptomsObserved,
		LocationNotes:    req.LocationNotes,
		Urgency:          domain.Urgency(req.Urgency),
		LivestockID:      req.LivestockID,
		IdempotencyKey:   c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}

	if res.AlreadyExisted {
		c.Response().Header().Set("Idempotent-Replayed", "true")
		return c.JSON(http.StatusOK, toCaseResponse(res.Case))
	}
	metrics.CasesReportedTotal.WithLabelValues(string(res.Case.Urgency), "api").Inc()
	return c.JSON(http.StatusCreated, toCaseResponse(res.Case))
}

// List handles GET /api/cases/reports/.
//
// @Summary      List visible case reports
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Param        status   query     string  false  "Filter by status"
// @Param        urgency  query     string  false  "Filter by urgency"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Page size (default 20, max 100)"
// @Success      200      {object}  pageResponse[caseResponse]
// @Failure      400      {object}  map[string]string
// @Router       /api/cases/reports/ [get]
func (h *CaseHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	page, limit, err := pagination(c)
	if err != nil {
		return err
	}

	result, err := h.service.List(c.Request().Context(), actor, domain.CaseFilter{
		Status:  domain.CaseStatus(c.QueryParam("status")),
		Urgency: domain.Urgency(c.QueryParam("urgency")),
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(result, func(cr *domain.CaseReport) caseResponse {
		return toCaseResponse(cr)
	}))
}

// Get handles GET /api/cases/reports/:id/.
//
// @Summary      Retrieve a case report
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Case primary key"
// @Success      200  {object}  caseResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/cases/reports/{id}/ [get]
func (h *CaseHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cr, err := h.service.Get(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCaseResponse(cr))
}

// Update handles PATCH and PUT /api/cases/reports/:id/. Both are partial:
// only the fields present in the body are applied.
//
// @Summary      Update a case report
// @Tags         cases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Case primary key"
// @Param        body  body      updateCaseRequest  true  "Fields to change"
// @Success      200   {object}  caseResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/cases/reports/{id}/ [patch]
func (h *CaseHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateCaseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cr, err := h.service.Update(c.Request().Context(), actor, id, toCaseChanges(req))
	if err != nil {
		return err
	}
	if req.Status != nil {
		metrics.CaseStatusChangesTotal.WithLabelValues(string(cr.Status)).Inc()
	}
	return c.JSON(http.StatusOK, toCaseResponse(cr))
}

// Delete handles DELETE /api/cases/reports/:id/.
//
// @Summary      Delete a case report
// @Tags         cases
// @Security     BearerAuth
// @Param        id   path  int  true  "Case primary key"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/cases/reports/{id}/ [delete]
func (h *CaseHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Assign handles POST /api/cases/reports/:id/assign/.
//
// @Summary      Assign a case to a local veterinarian
// @Tags         cases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Case primary key"
// @Param        body  body      assignCaseRequest  true  "Veterinarian to assign"
// @Success      200   {object}  caseResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/cases/reports/{id}/assign/ [post]
func (h *CaseHandler) Assign(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req assignCaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	cr, err := h.service.Assign(c.Request().Context(), actor, id, lo.FromPtr(req.VeterinarianID))
	if err != nil {
		metrics.CaseAssignmentsTotal.WithLabelValues("assign", "rejected").Inc()
		return err
	}
	metrics.CaseAssignmentsTotal.WithLabelValues("assign", "ok").Inc()
	return c.JSON(http.StatusOK, toCaseResponse(cr))
}

// Unassign handles POST /api/cases/reports/:id/unassign/.
//
// @Summary      Remove the veterinarian from a case
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Case primary key"
// @Success      200  {object}  caseResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/cases/reports/{id}/unassign/ [post]
func (h *CaseHandler) Unassign(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cr, err := h.service.Unassign(c.Request().Context(), actor, id)
	if err != nil {
		metrics.CaseAssignmentsTotal.WithLabelValues("unassign", "rejected").Inc()
		return err
	}
	metrics.CaseAssignmentsTotal.WithLabelValues("unassign", "ok").Inc()
	return c.JSON(http.StatusOK, toCaseResponse(cr))
}

// AvailableVets handles GET /api/cases/reports/available_vets_by_location/.
//
// @Summary      List available local vets by location
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Param        sector    query     string  false  "Sector"
// @Param        district  query     string  false  "District"
// @Success      200       {array}   vetResponse
// @Failure      403       {object}  map[string]string
// @Router       /api/cases/reports/available_vets_by_location/ [get]
func (h *CaseHandler) AvailableVets(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	vets, err := h.service.AvailableVets(c.Request().Context(), actor, c.QueryParam("sector"), c.QueryParam("district"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lo.Map(vets, func(u *domain.User, _ int) vetResponse { return toVetResponse(u) }))
}

// History handles GET /api/cases/reports/:id/history/.
//
// @Summary      Case audit trail
// @Tags         cases
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Case primary key"
// @Success      200  {array}   caseEventResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/cases/reports/{id}/history/ [get]
func (h *CaseHandler) History(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	events, err := h.service.History(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lo.Map(events, func(e *domain.CaseEvent, _ int) caseEventResponse {
		return toCaseEventResponse(e)
	}))
}
