package transcription

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/scribe-api/internal/model"
	"github.com/jwalitptl/scribe-api/internal/queue"
	"github.com/jwalitptl/scribe-api/internal/repository"
	"github.com/jwalitptl/scribe-api/internal/stt"
	apperrors "github.com/jwalitptl/scribe-api/pkg/errors"
	"github.com/jwalitptl/scribe-api/pkg/logger"
)

// ObjectDownloader fetches stored audio by object key.
type ObjectDownloader interface {
	Download(ctx context.Context, objectKey string) ([]byte, error)
}

// Service converts one recording into a completed transcript: download the
// audio, run speech-to-text, persist the result. When the parent appointment
// is mid-orchestration it also re-enqueues the orchestrator so completion is
// event driven instead of poll driven.
type Service struct {
	transcripts  repository.TranscriptRepository
	recordings   repository.RecordingRepository
	appointments repository.AppointmentRepository
	storage      ObjectDownloader
	transcriber  stt.Transcriber
	enqueuer     queue.Enqueuer
	logger       *logger.Logger
}

func NewService(
	transcripts repository.TranscriptRepository,
	recordings repository.RecordingRepository,
	appointments repository.AppointmentRepository,
	store ObjectDownloader,
	transcriber stt.Transcriber,
	enqueuer queue.Enqueuer,
	lg *logger.Logger,
) *Service {
	return &Service{
		transcripts:  transcripts,
		recordings:   recordings,
		appointments: appointments,
		storage:      store,
		transcriber:  transcriber,
		enqueuer:     enqueuer,
		logger:       lg,
	}
}

// Transcribe runs the full pipeline for one (transcript, recording) pair.
// On failure both rows are marked failed before the error is returned so the
// queue's retry state and the stored state never diverge.
func (s *Service) Transcribe(ctx context.Context, transcriptID, recordingID uuid.UUID) error {
	transcript, err := s.transcripts.Get(ctx, transcriptID)
	if err != nil {
		return err
	}
	if transcript.Status == model.TranscriptStatusCompleted {
		// Redelivered task, nothing left to do.
		return nil
	}

	recording, err := s.recordings.Get(ctx, recordingID)
	if err != nil {
		return err
	}

	if err := s.transcripts.UpdateStatus(ctx, transcriptID, model.TranscriptStatusProcessing); err != nil {
		return err
	}
	if err := s.recordings.UpdateStatus(ctx, recordingID, model.RecordingStatusProcessing); err != nil {
		return err
	}

	if err := s.run(ctx, transcript, recording); err != nil {
		s.markFailed(ctx, transcriptID, recordingID)
		return err
	}

	if err := s.transcripts.UpdateResult(ctx, transcript); err != nil {
		s.markFailed(ctx, transcriptID, recordingID)
		return err
	}
	if err := s.recordings.UpdateStatus(ctx, recordingID, model.RecordingStatusTranscribed); err != nil {
		return err
	}

	s.logger.ZL.Info().
		Str("transcript_id", transcriptID.String()).
		Str("recording_id", recordingID.String()).
		Int("word_count", derefInt(transcript.WordCount)).
		Msg("transcription completed")

	s.continueOrchestration(ctx, recording.AppointmentID)
	return nil
}

// run mutates the transcript in place with the speech-to-text result.
func (s *Service) run(ctx context.Context, transcript *model.Transcript, recording *model.Recording) error {
	audio, err := s.storage.Download(ctx, recording.StoragePath)
	if err != nil {
		return fmt.Errorf("download recording: %w", err)
	}

	sttResult, err := s.transcriber.Transcribe(ctx, audio, recording.Filename, transcript.Language)
	if err != nil {
		return fmt.Errorf("speech-to-text: %w", err)
	}

	wordCount := len(strings.Fields(sttResult.Text))

	transcript.Content = sttResult.Text
	transcript.Segments = sttResult.Segments
	transcript.Language = sttResult.Language
	transcript.WordCount = &wordCount
	transcript.Status = model.TranscriptStatusCompleted
	return nil
}

// continueOrchestration nudges the orchestrator when the appointment is still
// in flight so completed transcripts are picked up immediately. Best effort:
// the orchestrator's retry schedule covers a missed nudge.
func (s *Service) continueOrchestration(ctx context.Context, appointmentID uuid.UUID) {
	appointment, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		if apperrors.Code(err) != apperrors.ErrNotFound {
			s.logger.Error(err, "failed to load appointment for continuation", "appointment_id", appointmentID.String())
		}
		return
	}
	if appointment.Status != model.AppointmentStatusInProgress {
		return
	}

	if _, err := s.enqueuer.EnqueueProcessAppointment(ctx, queue.ProcessAppointmentPayload{
		AppointmentID: appointmentID,
	}, 0); err != nil {
		s.logger.Error(err, "failed to enqueue orchestration continuation", "appointment_id", appointmentID.String())
	}
}

func (s *Service) markFailed(ctx context.Context, transcriptID, recordingID uuid.UUID) {
	if err := s.transcripts.UpdateStatus(ctx, transcriptID, model.TranscriptStatusFailed); err != nil {
		s.logger.Error(err, "failed to mark transcript failed", "transcript_id", transcriptID.String())
	}
	if err := s.recordings.UpdateStatus(ctx, recordingID, model.RecordingStatusFailed); err != nil {
		s.logger.Error(err, "failed to mark recording failed", "recording_id", recordingID.String())
	}
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
