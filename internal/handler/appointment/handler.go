package appointment

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/appointment-api/internal/middleware"
	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/service/access"
	"github.com/jwalitptl/appointment-api/pkg/errors"
	"github.com/jwalitptl/appointment-api/pkg/httputil"
)

// Service is the lifecycle surface the handler drives.
type Service interface {
	Book(ctx context.Context, caller *model.UserContext, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	Approve(ctx context.Context, caller *model.UserContext, id uuid.UUID, req *model.ApproveAppointmentRequest) (*model.Appointment, error)
	Reject(ctx context.Context, caller *model.UserContext, id uuid.UUID, reason string) (*model.Appointment, error)
	Confirm(ctx context.Context, caller *model.UserContext, id uuid.UUID) (*model.Appointment, error)
	Complete(ctx context.Context, caller *model.UserContext, id uuid.UUID, req *model.CompleteAppointmentRequest) (*model.Appointment, error)
	Cancel(ctx context.Context, caller *model.UserContext, id uuid.UUID, reason string) (*model.Appointment, error)
	Reschedule(ctx context.Context, caller *model.UserContext, id uuid.UUID, req *model.RescheduleAppointmentRequest) (*model.Appointment, error)
	Rate(ctx context.Context, caller *model.UserContext, id uuid.UUID, req *model.RateAppointmentRequest) (*model.Appointment, error)
	List(ctx context.Context, caller *model.UserContext, filters model.AppointmentFilters) ([]*model.Appointment, int, error)
}

// Reader serves single-appointment reads through the access proxy.
type Reader interface {
	Read(ctx context.Context, caller *model.UserContext, r access.Resource, id uuid.UUID) (model.JSONMap, error)
}

type Handler struct {
	service Service
	reader  Reader
}

func NewHandler(service Service, reader Reader) *Handler {
	return &Handler{service: service, reader: reader}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)

		appointments.PATCH("/:id/approve", h.ApproveAppointment)
		appointments.PATCH("/:id/reject", h.RejectAppointment)
		appointments.PATCH("/:id/confirm", h.ConfirmAppointment)
		appointments.PATCH("/:id/complete", h.CompleteAppointment)
		appointments.PATCH("/:id/cancel", h.CancelAppointment)
		appointments.PATCH("/:id/reschedule", h.RescheduleAppointment)
		appointments.POST("/:id/rate", h.RateAppointment)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid request body", err))
		return
	}

	appt, err := h.service.Book(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusCreated, "appointment booked", appt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}

	data, err := h.reader.Read(c.Request.Context(), middleware.CurrentUser(c), access.ResourceAppointment, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, "", data)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	var filters model.AppointmentFilters
	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid pagination", err))
		return
	}
	filters.Pagination = filters.Pagination.Normalize()

	if status := c.Query("status"); status != "" {
		s := model.AppointmentStatus(status)
		if !s.Valid() {
			httputil.RespondWithError(c, errors.NewBadRequest("invalid status filter", nil))
			return
		}
		filters.Status = s
	}
	for param, dst := range map[string]**model.Date{"from": &filters.From, "to": &filters.To} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		d, err := model.ParseDate(raw)
		if err != nil {
			httputil.RespondWithError(c, errors.NewBadRequest(param+" must be YYYY-MM-DD", err))
			return
		}
		*dst = &d
	}

	items, total, err := h.service.List(c.Request.Context(), middleware.CurrentUser(c), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, items, filters.Page, filters.PageSize, total)
}

func (h *Handler) ApproveAppointment(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}
	var req model.ApproveAppointmentRequest
	if !bindOptional(c, &req) {
		return
	}

	appt, err := h.service.Approve(c.Request.Context(), middleware.CurrentUser(c), id, &req)
	respond(c, "appointment approved", appt, err)
}

func (h *Handler) RejectAppointment(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}
	var req model.ReasonRequest
	if !bindOptional(c, &req) {
		return
	}

	appt, err := h.service.Reject(c.Request.Context(), middleware.CurrentUser(c), id, req.Reason)
	respond(c, "appointment rejected", appt, err)
}

func (h *Handler) ConfirmAppointment(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}

	appt, err := h.service.Confirm(c.Request.Context(), middleware.CurrentUser(c), id)
	respond(c, "appointment confirmed", appt, err)
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}
	var req model.CompleteAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid request body", err))
		return
	}

	appt, err := h.service.Complete(c.Request.Context(), middleware.CurrentUser(c), id, &req)
	respond(c, "appointment completed", appt, err)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}
	var req model.ReasonRequest
	if !bindOptional(c, &req) {
		return
	}

	appt, err := h.service.Cancel(c.Request.Context(), middleware.CurrentUser(c), id, req.Reason)
	respond(c, "appointment cancelled", appt, err)
}

func (h *Handler) RescheduleAppointment(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}
	var req model.RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid request body", err))
		return
	}

	appt, err := h.service.Reschedule(c.Request.Context(), middleware.CurrentUser(c), id, &req)
	respond(c, "appointment rescheduled", appt, err)
}

func (h *Handler) RateAppointment(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}
	var req model.RateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid request body", err))
		return
	}

	appt, err := h.service.Rate(c.Request.Context(), middleware.CurrentUser(c), id, &req)
	respond(c, "appointment rated", appt, err)
}

func respond(c *gin.Context, message string, appt *model.Appointment, err error) {
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, message, appt)
}

func appointmentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.NewBadRequest("invalid appointment ID", err))
		return uuid.Nil, false
	}
	return id, true
}

// bindOptional binds a JSON body when one was sent.
func bindOptional(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || stderrors.Is(err, io.EOF) {
		return true
	}
	httputil.RespondWithError(c, errors.NewBadRequest("invalid request body", err))
	return false
}
