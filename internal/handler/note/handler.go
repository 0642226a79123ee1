package note

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/scribe-api/internal/handler"
	"github.com/jwalitptl/scribe-api/internal/service/note"
)

type Handler struct {
	service *note.Service
}

func NewHandler(service *note.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notes := r.Group("/notes")
	{
		notes.GET("/:id", h.GetNote)
		notes.PUT("/:id", h.UpdateNote)
		notes.POST("/:id/review", h.ReviewNote)
		notes.POST("/:id/finalize", h.FinalizeNote)
	}
	r.GET("/transcripts/:id/notes", h.ListTranscriptNotes)
}

func (h *Handler) GetNote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid note ID"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) ListTranscriptNotes(c *gin.Context) {
	transcriptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid transcript ID"))
		return
	}

	notes, err := h.service.ListByTranscript(c.Request.Context(), transcriptID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(notes))
}

type updateNoteRequest struct {
	FinalContent string `json:"final_content" binding:"required"`
}

func (h *Handler) UpdateNote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid note ID"))
		return
	}

	var req updateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.UpdateContent(c.Request.Context(), handler.ActorID(c), id, req.FinalContent)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) ReviewNote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid note ID"))
		return
	}

	reviewed, err := h.service.Review(c.Request.Context(), handler.ActorID(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(reviewed))
}

func (h *Handler) FinalizeNote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid note ID"))
		return
	}

	finalized, err := h.service.Finalize(c.Request.Context(), handler.ActorID(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(finalized))
}
