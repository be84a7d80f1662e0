// Package resource exposes users, provider profiles and medical records
// through the access proxy. Every request is authorized, logged and redacted
// by the proxy; the handler only maps HTTP onto it.
package resource

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/appointment-api/internal/middleware"
	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/service/access"
	"github.com/jwalitptl/appointment-api/pkg/errors"
	"github.com/jwalitptl/appointment-api/pkg/httputil"
)

type Proxy interface {
	Read(ctx context.Context, caller *model.UserContext, r access.Resource, id uuid.UUID) (model.JSONMap, error)
	Update(ctx context.Context, caller *model.UserContext, r access.Resource, id uuid.UUID, fields model.JSONMap) (model.JSONMap, error)
	Delete(ctx context.Context, caller *model.UserContext, r access.Resource, id uuid.UUID) error
}

type Handler struct {
	proxy Proxy
}

func NewHandler(proxy Proxy) *Handler {
	return &Handler{proxy: proxy}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("/:id", h.read(access.ResourceUser))
		users.PATCH("/:id", h.update(access.ResourceUser))
		users.DELETE("/:id", h.delete(access.ResourceUser))
	}

	providers := r.Group("/providers")
	{
		providers.GET("/:id", h.read(access.ResourceProvider))
		providers.PATCH("/:id", h.update(access.ResourceProvider))
	}

	records := r.Group("/medical-records")
	{
		records.GET("/:id", h.read(access.ResourceMedicalRecord))
		records.PATCH("/:id", h.update(access.ResourceMedicalRecord))
		records.DELETE("/:id", h.delete(access.ResourceMedicalRecord))
	}
}

func (h *Handler) read(res access.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := resourceID(c, res)
		if !ok {
			return
		}
		data, err := h.proxy.Read(c.Request.Context(), middleware.CurrentUser(c), res, id)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, "", data)
	}
}

func (h *Handler) update(res access.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := resourceID(c, res)
		if !ok {
			return
		}
		var fields model.JSONMap
		if err := c.ShouldBindJSON(&fields); err != nil {
			httputil.RespondWithError(c, errors.NewBadRequest("request body must be a JSON object", err))
			return
		}
		data, err := h.proxy.Update(c.Request.Context(), middleware.CurrentUser(c), res, id, fields)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, string(res)+" updated", data)
	}
}

func (h *Handler) delete(res access.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := resourceID(c, res)
		if !ok {
			return
		}
		if err := h.proxy.Delete(c.Request.Context(), middleware.CurrentUser(c), res, id); err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func resourceID(c *gin.Context, res access.Resource) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid "+string(res)+" ID", err))
		return uuid.Nil, false
	}
	return id, true
}
