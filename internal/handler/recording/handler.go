package recording

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/scribe-api/internal/handler"
	"github.com/jwalitptl/scribe-api/internal/service/recording"
)

type Handler struct {
	service *recording.Service
}

func NewHandler(service *recording.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/appointments/:id/recordings", h.UploadRecording)
	r.GET("/appointments/:id/recordings", h.ListRecordings)
	r.GET("/recordings/:id", h.GetRecording)
}

// UploadRecording accepts a multipart audio file for the appointment.
func (h *Handler) UploadRecording(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("missing audio file"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("unreadable audio file"))
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")

	uploaded, err := h.service.Upload(c.Request.Context(), handler.ActorID(c), appointmentID,
		fileHeader.Filename, contentType, fileHeader.Size, file)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(uploaded))
}

func (h *Handler) ListRecordings(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	recordings, err := h.service.ListByAppointment(c.Request.Context(), appointmentID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(recordings))
}

func (h *Handler) GetRecording(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid recording ID"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}
