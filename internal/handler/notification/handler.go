package notification

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/appointment-api/internal/middleware"
	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/pkg/errors"
	"github.com/jwalitptl/appointment-api/pkg/httputil"
)

type Inbox interface {
	List(ctx context.Context, caller *model.UserContext, page model.Pagination) ([]*model.Notification, int, error)
	MarkRead(ctx context.Context, caller *model.UserContext, id uuid.UUID) error
}

type Handler struct {
	inbox Inbox
}

func NewHandler(inbox Inbox) *Handler {
	return &Handler{inbox: inbox}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.PATCH("/:id/read", h.MarkRead)
	}
}

func (h *Handler) ListNotifications(c *gin.Context) {
	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid pagination", err))
		return
	}
	page = page.Normalize()

	items, total, err := h.inbox.List(c.Request.Context(), middleware.CurrentUser(c), page)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, items, page.Page, page.PageSize, total)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid notification ID", err))
		return
	}
	if err := h.inbox.MarkRead(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, "notification marked as read", nil)
}
