package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

type notificationResponse struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	CaseID      *uint           `json:"case_id,omitempty"`
	LivestockID *uint           `json:"livestock_id,omitempty"`
	Status      string          `json:"status"`
	IsRead      bool            `json:"is_read"`
	Metadata    json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
	CreatedAt   time.Time       `json:"created_at"`
	ReadAt      *time.Time      `json:"read_at,omitempty"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

func toNotificationResponse(n *domain.Notification) notificationResponse {
	out := notificationResponse{
		ID:          n.ID,
		Title:       n.Title,
		Message:     n.Message,
		CaseID:      n.CaseID,
		LivestockID: n.LivestockID,
		Status:      string(n.Status),
		IsRead:      n.Status == domain.NotificationRead,
		CreatedAt:   n.CreatedAt,
		ReadAt:      n.ReadAt,
	}
	if len(n.Metadata) > 0 {
		out.Metadata = json.RawMessage(n.Metadata)
	}
	return out
}

// NotificationHandler serves the caller's in-app inbox.
type NotificationHandler struct {
	service ports.NotificationService
}

func NewNotificationHandler(service ports.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List handles GET /api/notifications/.
//
// @Summary      List my notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  pageResponse[notificationResponse]
// @Router       /api/notifications/ [get]
func (h *NotificationHandler) List(c echo.Context) error {
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
	return c.JSON(http.StatusOK, toPageResponse(result, toNotificationResponse))
}

// UnreadCount handles GET /api/notifications/unread-count/.
//
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  countResponse
// @Router       /api/notifications/unread-count/ [get]
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	n, err := h.service.UnreadCount(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}

// MarkRead handles POST /api/notifications/:id/read/.
//
// @Summary      Mark a notification read
// @Tags         notifications
// @Security     BearerAuth
// @Param        id  path  int  true  "Notification id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/notifications/{id}/read/ [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.MarkRead(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead handles POST /api/notifications/read-all/.
//
// @Summary      Mark every notification read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  countResponse
// @Router       /api/notifications/read-all/ [post]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	n, err := h.service.MarkAllRead(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}
