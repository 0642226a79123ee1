package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/scribe-api/internal/handler"
	"github.com/jwalitptl/scribe-api/internal/model"
	"github.com/jwalitptl/scribe-api/internal/service/appointment"
	"github.com/jwalitptl/scribe-api/internal/service/processing"
)

type Handler struct {
	service    *appointment.Service
	processing *processing.Service
}

func NewHandler(service *appointment.Service, processing *processing.Service) *Handler {
	return &Handler{service: service, processing: processing}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.DELETE("/:id", h.CancelAppointment)
		appointments.POST("/:id/process", h.ProcessAppointment)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.service.Create(c.Request.Context(), handler.ActorID(c), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	practiceID, err := uuid.Parse(c.Query("practice_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid practice ID"))
		return
	}

	filters := &model.AppointmentFilters{PracticeID: practiceID}

	if status := c.Query("status"); status != "" {
		filters.Status = model.AppointmentStatus(status)
	}
	if date := c.Query("start_date"); date != "" {
		parsed, err := time.Parse(time.RFC3339, date)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid start date"))
			return
		}
		filters.StartDate = parsed
	}
	if date := c.Query("end_date"); date != "" {
		parsed, err := time.Parse(time.RFC3339, date)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid end date"))
			return
		}
		filters.EndDate = parsed
	}

	appointments, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.Update(c.Request.Context(), handler.ActorID(c), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	if err := h.service.Cancel(c.Request.Context(), handler.ActorID(c), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

// ProcessAppointment kicks off the background pipeline and returns
// immediately with the queued task id.
func (h *Handler) ProcessAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	taskID, err := h.processing.Start(c.Request.Context(), id, handler.ActorID(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(gin.H{
		"appointment_id": id,
		"task_id":        taskID,
	}))
}
