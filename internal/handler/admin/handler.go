package admin

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/appointment-api/internal/middleware"
	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/pkg/errors"
	"github.com/jwalitptl/appointment-api/pkg/httputil"
)

type Service interface {
	ApproveProvider(ctx context.Context, caller *model.UserContext, id uuid.UUID) (*model.User, error)
	RejectProvider(ctx context.Context, caller *model.UserContext, id uuid.UUID) (*model.User, error)
	BlockUser(ctx context.Context, caller *model.UserContext, id uuid.UUID) (*model.User, error)
	UnblockUser(ctx context.Context, caller *model.UserContext, id uuid.UUID) (*model.User, error)
	Alert(ctx context.Context, caller *model.UserContext, req *model.AlertRequest) error
}

// AccessLog is the queryable side of the access decision log.
type AccessLog interface {
	Entries(f model.AccessLogFilter) []model.AccessLogEntry
}

type Handler struct {
	service Service
	log     AccessLog
}

func NewHandler(service Service, log AccessLog) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	{
		admin.POST("/providers/:id/approve", h.userAction("provider approved", h.service.ApproveProvider))
		admin.POST("/providers/:id/reject", h.userAction("provider rejected", h.service.RejectProvider))
		admin.POST("/users/:id/block", h.userAction("user blocked", h.service.BlockUser))
		admin.POST("/users/:id/unblock", h.userAction("user unblocked", h.service.UnblockUser))

		admin.POST("/alerts", h.RaiseAlert)
		admin.GET("/access-logs", h.ListAccessLogs)
	}
}

type userActionFunc func(ctx context.Context, caller *model.UserContext, id uuid.UUID) (*model.User, error)

func (h *Handler) userAction(message string, fn userActionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			httputil.RespondWithError(c, errors.NewBadRequest("invalid user ID", err))
			return
		}

		user, err := fn(c.Request.Context(), middleware.CurrentUser(c), id)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		user.PasswordHash = ""
		user.RefreshToken = ""
		httputil.RespondWithSuccess(c, message, user)
	}
}

func (h *Handler) RaiseAlert(c *gin.Context) {
	var req model.AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("title and message are required", err))
		return
	}
	if err := h.service.Alert(c.Request.Context(), middleware.CurrentUser(c), &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, "alert sent", nil)
}

// ListAccessLogs returns access decisions newest first.
func (h *Handler) ListAccessLogs(c *gin.Context) {
	var filter model.AccessLogFilter

	if raw := c.Query("caller_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, errors.NewBadRequest("invalid caller_id", err))
			return
		}
		filter.CallerID = id
	}
	if raw := c.Query("success"); raw != "" {
		ok, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.RespondWithError(c, errors.NewBadRequest("success must be true or false", err))
			return
		}
		filter.Success = &ok
	}
	filter.Limit = 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			httputil.RespondWithError(c, errors.NewBadRequest("limit must be between 1 and 1000", err))
			return
		}
		filter.Limit = n
	}

	httputil.RespondWithSuccess(c, "", h.log.Entries(filter))
}
