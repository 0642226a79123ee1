package recording

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"

	"github.com/jwalitptl/scribe-api/internal/model"
	"github.com/jwalitptl/scribe-api/internal/repository"
	"github.com/jwalitptl/scribe-api/internal/service/audit"
	apperrors "github.com/jwalitptl/scribe-api/pkg/errors"
	"github.com/jwalitptl/scribe-api/pkg/logger"
	"github.com/jwalitptl/scribe-api/pkg/validator"
)

// ObjectUploader stores audio bytes under an object key.
type ObjectUploader interface {
	Upload(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
}

// Service handles audio uploads. The row is written first in uploading state
// so a crashed upload is visible, then flipped to uploaded once the object
// store accepted the bytes.
type Service struct {
	recordings   repository.RecordingRepository
	appointments repository.AppointmentRepository
	storage      ObjectUploader
	auditor      *audit.Service
	logger       *logger.Logger
	maxSizeBytes int64
}

func NewService(
	recordings repository.RecordingRepository,
	appointments repository.AppointmentRepository,
	store ObjectUploader,
	auditor *audit.Service,
	lg *logger.Logger,
	maxSizeMB int64,
) *Service {
	return &Service{
		recordings:   recordings,
		appointments: appointments,
		storage:      store,
		auditor:      auditor,
		logger:       lg,
		maxSizeBytes: maxSizeMB * 1024 * 1024,
	}
}

// Upload stores the audio and registers the recording against the
// appointment.
func (s *Service) Upload(ctx context.Context, actorID, appointmentID uuid.UUID, filename, contentType string, size int64, body io.Reader) (*model.Recording, error) {
	if !validator.IsAllowedAudioType(contentType) {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unsupported audio type %q", contentType), nil)
	}
	if size <= 0 {
		return nil, apperrors.NewBadRequest("empty upload", nil)
	}
	if size > s.maxSizeBytes {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("upload exceeds %d byte limit", s.maxSizeBytes), nil)
	}

	appointment, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status == model.AppointmentStatusCancelled {
		return nil, apperrors.NewInvalidState("appointment is cancelled")
	}

	recording := &model.Recording{
		AppointmentID: appointmentID,
		Filename:      filename,
		ContentType:   contentType,
		FileSize:      size,
		Status:        model.RecordingStatusUploading,
	}
	recording.StoragePath = objectKey(appointmentID, recording)

	if err := s.recordings.Create(ctx, recording); err != nil {
		return nil, err
	}

	if err := s.storage.Upload(ctx, recording.StoragePath, body, size, contentType); err != nil {
		if markErr := s.recordings.UpdateStatus(ctx, recording.ID, model.RecordingStatusFailed); markErr != nil {
			s.logger.Error(markErr, "failed to mark recording failed", "recording_id", recording.ID.String())
		}
		return nil, fmt.Errorf("store recording: %w", err)
	}

	if err := s.recordings.UpdateStatus(ctx, recording.ID, model.RecordingStatusUploaded); err != nil {
		return nil, err
	}
	recording.Status = model.RecordingStatusUploaded

	s.auditor.LogAsync(ctx, actorID, model.AuditActionUpload, model.AuditResourceRecording, recording.ID, true, &audit.LogOptions{
		Details: map[string]interface{}{"appointment_id": appointmentID, "size": size},
	})

	return recording, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Recording, error) {
	return s.recordings.Get(ctx, id)
}

func (s *Service) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Recording, error) {
	return s.recordings.ListByAppointment(ctx, appointmentID)
}

// objectKey namespaces objects per appointment with a fresh id so repeated
// uploads of the same filename never collide.
func objectKey(appointmentID uuid.UUID, recording *model.Recording) string {
	if recording.ID == uuid.Nil {
		recording.ID = uuid.New()
	}
	ext := path.Ext(recording.Filename)
	return fmt.Sprintf("recordings/%s/%s%s", appointmentID, recording.ID, ext)
}
