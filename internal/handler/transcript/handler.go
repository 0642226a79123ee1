package transcript

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/scribe-api/internal/handler"
	"github.com/jwalitptl/scribe-api/internal/model"
	"github.com/jwalitptl/scribe-api/internal/queue"
	"github.com/jwalitptl/scribe-api/internal/repository"
)

type Handler struct {
	transcripts repository.TranscriptRepository
	recordings  repository.RecordingRepository
	enqueuer    queue.Enqueuer
}

func NewHandler(transcripts repository.TranscriptRepository, recordings repository.RecordingRepository, enqueuer queue.Enqueuer) *Handler {
	return &Handler{transcripts: transcripts, recordings: recordings, enqueuer: enqueuer}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/transcripts/:id", h.GetTranscript)
	r.GET("/recordings/:id/transcript", h.GetRecordingTranscript)
	r.POST("/recordings/:id/transcript", h.GenerateTranscript)
}

func (h *Handler) GetTranscript(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid transcript ID"))
		return
	}

	found, err := h.transcripts.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) GetRecordingTranscript(c *gin.Context) {
	recordingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid recording ID"))
		return
	}

	found, err := h.transcripts.GetByRecording(c.Request.Context(), recordingID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

// GenerateTranscript queues transcription for one recording. Safe to call
// repeatedly: an existing transcript is returned without a second dispatch.
func (h *Handler) GenerateTranscript(c *gin.Context) {
	recordingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid recording ID"))
		return
	}

	recording, err := h.recordings.Get(c.Request.Context(), recordingID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if recording.Status != model.RecordingStatusUploaded {
		c.JSON(http.StatusConflict, handler.NewErrorResponse("recording is not ready for transcription"))
		return
	}

	transcript, created, err := h.transcripts.CreateIfAbsent(c.Request.Context(), &model.Transcript{
		RecordingID: recordingID,
		Status:      model.TranscriptStatusPending,
		Language:    "en",
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	if created {
		if _, err := h.enqueuer.EnqueueTranscribeRecording(c.Request.Context(), queue.TranscribeRecordingPayload{
			TranscriptID: transcript.ID,
			RecordingID:  recordingID,
		}); err != nil {
			handler.RespondError(c, err)
			return
		}
	}

	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(transcript))
}
