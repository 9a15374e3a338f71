package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

type livestockRequest struct {
	LivestockType string  `json:"livestock_type" validate:"required,max=30"`
	Breed         string  `json:"breed"          validate:"max=100"`
	Name          string  `json:"name"           validate:"max=100"`
	TagNumber     *string `json:"tag_number"     validate:"omitempty,max=50"`
	Gender        string  `json:"gender"         validate:"omitempty,oneof=male female"`
	HealthStatus  string  `json:"health_status"  validate:"omitempty,oneof=healthy sick under_treatment recovered deceased"`
}

type livestockPatchRequest struct {
	LivestockType *string `json:"livestock_type" validate:"omitempty,max=30"`
	Breed         *string `json:"breed"          validate:"omitempty,max=100"`
	Name          *string `json:"name"           validate:"omitempty,max=100"`
	TagNumber     *string `json:"tag_number"     validate:"omitempty,max=50"`
	Gender        *string `json:"gender"         validate:"omitempty,oneof=male female"`
	HealthStatus  *string `json:"health_status"  validate:"omitempty,oneof=healthy sick under_treatment recovered deceased"`
}

type livestockResponse struct {
	ID            uint      `json:"id"`
	OwnerID       uint      `json:"owner_id"`
	LivestockType string    `json:"livestock_type"`
	Breed         string    `json:"breed"`
	Name          string    `json:"name"`
	TagNumber     *string   `json:"tag_number"`
	Gender        string    `json:"gender"`
	HealthStatus  string    `json:"health_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toLivestockResponse(l *domain.Livestock) livestockResponse {
	return livestockResponse{
		ID:            l.ID,
		OwnerID:       l.OwnerID,
		LivestockType: l.LivestockType,
		Breed:         l.Breed,
		Name:          l.Name,
		TagNumber:     l.TagNumber,
		Gender:        l.Gender,
		HealthStatus:  l.HealthStatus,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

// LivestockHandler serves the livestock registry.
type LivestockHandler struct {
	service ports.LivestockService
}

func NewLivestockHandler(service ports.LivestockService) *LivestockHandler {
	return &LivestockHandler{service: service}
}

// Create handles POST /api/livestock/.
//
// @Summary      Register an animal
// @Tags         livestock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      livestockRequest  true  "Animal"
// @Success      201   {object}  livestockResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/livestock/ [post]
func (h *LivestockHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req livestockRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	l, err := h.service.Create(c.Request().Context(), actor, ports.CreateLivestockInput{
		LivestockType: req.LivestockType,
		Breed:         req.Breed,
		Name:          req.Name,
		TagNumber:     req.TagNumber,
		Gender:        req.Gender,
		HealthStatus:  req.HealthStatus,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toLivestockResponse(l))
}

// List handles GET /api/livestock/.
//
// @Summary      List visible animals
// @Tags         livestock
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  pageResponse[livestockResponse]
// @Router       /api/livestock/ [get]
func (h *LivestockHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	page, limit, err := pagination(c)
	if err != nil {
		return err
	}
	result, err := h.service.List(c.Request().Context(), actor, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(result, toLivestockResponse))
}

// Get handles GET /api/livestock/:id/.
//
// @Summary      Retrieve an animal
// @Tags         livestock
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Livestock id"
// @Success      200  {object}  livestockResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/livestock/{id}/ [get]
func (h *LivestockHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	l, err := h.service.Get(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toLivestockResponse(l))
}

// Update handles PATCH /api/livestock/:id/.
//
// @Summary      Update an animal
// @Tags         livestock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                    true  "Livestock id"
// @Param        body  body      livestockPatchRequest  true  "Fields to change"
// @Success      200   {object}  livestockResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/livestock/{id}/ [patch]
func (h *LivestockHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req livestockPatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	l, err := h.service.Update(c.Request().Context(), actor, id, domain.LivestockChanges{
		LivestockType: req.LivestockType,
		Breed:         req.Breed,
		Name:          req.Name,
		TagNumber:     req.TagNumber,
		Gender:        req.Gender,
		HealthStatus:  req.HealthStatus,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toLivestockResponse(l))
}

// Delete handles DELETE /api/livestock/:id/.
//
// @Summary      Remove an animal
// @Tags         livestock
// @Security     BearerAuth
// @Param        id  path  int  true  "Livestock id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/livestock/{id}/ [delete]
func (h *LivestockHandler) Delete(c echo.Context) error {
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
