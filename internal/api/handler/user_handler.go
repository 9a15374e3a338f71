package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// UserHandler serves account approval and vet availability.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// PendingApprovals handles GET /api/users/pending-approvals/.
//
// @Summary      Vet accounts awaiting approval
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userResponse
// @Failure      403  {object}  map[string]string
// @Router       /api/users/pending-approvals/ [get]
func (h *UserHandler) PendingApprovals(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	users, err := h.service.PendingApprovals(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lo.Map(users, func(u *domain.User, _ int) *userResponse { return toUserResponse(u) }))
}

// Approve handles POST /api/users/:id/approve/.
//
// @Summary      Approve an account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/users/{id}/approve/ [post]
func (h *UserHandler) Approve(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.service.Approve(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// SetAvailability handles PATCH /api/vets/me/availability/.
//
// @Summary      Toggle vet availability
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      availabilityRequest  true  "Availability"
// @Success      200   {object}  vetProfileResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/vets/me/availability/ [patch]
func (h *UserHandler) SetAvailability(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req availabilityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	profile, err := h.service.SetAvailability(c.Request().Context(), actor, *req.IsAvailable)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toVetProfileResponse(profile))
}
