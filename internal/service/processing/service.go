package processing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scribe-api/internal/config"
	"github.com/jwalitptl/scribe-api/internal/lock"
	"github.com/jwalitptl/scribe-api/internal/model"
	"github.com/jwalitptl/scribe-api/internal/queue"
	"github.com/jwalitptl/scribe-api/internal/repository"
	"github.com/jwalitptl/scribe-api/internal/service/audit"
	apperrors "github.com/jwalitptl/scribe-api/pkg/errors"
	"github.com/jwalitptl/scribe-api/pkg/logger"
)

// Service orchestrates appointment processing: it makes sure every uploaded
// recording gets a transcript, then fans out note generation over every
// (completed transcript, assigned template) pair. Every run re-derives its
// state from the store, nothing is carried between attempts.
type Service struct {
	appointments repository.AppointmentRepository
	recordings   repository.RecordingRepository
	transcripts  repository.TranscriptRepository
	templates    repository.TemplateRepository
	notes        repository.NoteRepository
	enqueuer     queue.Enqueuer
	locker       lock.Locker
	auditor      *audit.Service
	logger       *logger.Logger
	cfg          config.ProcessingConfig
}

func NewService(
	appointments repository.AppointmentRepository,
	recordings repository.RecordingRepository,
	transcripts repository.TranscriptRepository,
	templates repository.TemplateRepository,
	notes repository.NoteRepository,
	enqueuer queue.Enqueuer,
	locker lock.Locker,
	auditor *audit.Service,
	lg *logger.Logger,
	cfg config.ProcessingConfig,
) *Service {
	return &Service{
		appointments: appointments,
		recordings:   recordings,
		transcripts:  transcripts,
		templates:    templates,
		notes:        notes,
		enqueuer:     enqueuer,
		locker:       locker,
		auditor:      auditor,
		logger:       lg,
		cfg:          cfg,
	}
}

// Summary describes what one orchestration run observed and dispatched.
type Summary struct {
	RecordingsConsidered int `json:"recordings_considered"`
	TranscriptsCompleted int `json:"transcripts_completed"`
	TranscriptsQueued    int `json:"transcripts_queued"`
	NotesQueued          int `json:"notes_queued"`
}

// Validate checks the trigger preconditions without mutating anything:
// the appointment must exist, be schedulable, and own at least one assigned
// template and one uploaded recording.
func (s *Service) Validate(ctx context.Context, appointmentID uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	switch appointment.Status {
	case model.AppointmentStatusCancelled:
		return nil, apperrors.NewInvalidState("appointment is cancelled")
	case model.AppointmentStatusInProgress:
		return nil, apperrors.NewInvalidState("appointment is already being processed")
	}

	if len(appointment.TemplateUUIDs()) == 0 {
		return nil, apperrors.NewInvalidState("appointment has no assigned templates")
	}

	uploaded, err := s.recordings.ListByAppointmentAndStatus(ctx, appointmentID, model.RecordingStatusUploaded)
	if err != nil {
		return nil, err
	}
	if len(uploaded) == 0 {
		return nil, apperrors.NewInvalidState("appointment has no uploaded recordings")
	}

	return appointment, nil
}

// Start is the synchronous trigger path: validate, flip the appointment to
// in_progress, enqueue exactly one orchestration job.
func (s *Service) Start(ctx context.Context, appointmentID, actorID uuid.UUID) (string, error) {
	if _, err := s.Validate(ctx, appointmentID); err != nil {
		return "", err
	}

	if err := s.appointments.UpdateStatus(ctx, appointmentID, model.AppointmentStatusInProgress); err != nil {
		return "", err
	}

	taskID, err := s.enqueuer.EnqueueProcessAppointment(ctx, queue.ProcessAppointmentPayload{
		AppointmentID: appointmentID,
		ActorID:       actorID,
	}, 0)
	if err != nil {
		// Do not leave the appointment stuck in in_progress when nothing
		// was queued.
		if revertErr := s.appointments.UpdateStatus(ctx, appointmentID, model.AppointmentStatusScheduled); revertErr != nil {
			s.logger.Error(revertErr, "failed to revert appointment status after enqueue failure")
		}
		return "", err
	}

	s.auditor.LogAsync(ctx, actorID, model.AuditActionProcessingStart, model.AuditResourceAppointment, appointmentID, true, &audit.LogOptions{
		Details: map[string]interface{}{"task_id": taskID},
	})

	s.logger.ZL.Info().
		Str("appointment_id", appointmentID.String()).
		Str("task_id", taskID).
		Msg("appointment processing queued")

	return taskID, nil
}

// Run executes one orchestration attempt. It is re-entrant: already-created
// transcripts and notes are left alone and never re-dispatched. A NotReady
// error means transcription is still in flight and the attempt should be
// retried after a backoff.
func (s *Service) Run(ctx context.Context, appointmentID, actorID uuid.UUID) (*Summary, error) {
	release, acquired, err := s.locker.Acquire(ctx, lockKey(appointmentID), s.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, apperrors.NewNotReady("another orchestration run holds the appointment lease")
	}
	defer release()

	appointment, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if appointment.Status == model.AppointmentStatusCancelled {
		// Cancellation does not abort queued work, the run just stops
		// advancing the appointment.
		s.logger.ZL.Info().
			Str("appointment_id", appointmentID.String()).
			Msg("appointment cancelled, skipping orchestration")
		return &Summary{}, nil
	}

	templateIDs := appointment.TemplateUUIDs()
	if len(templateIDs) == 0 {
		return nil, apperrors.NewInvalidState("appointment has no assigned templates")
	}

	recordings, err := s.transcribableRecordings(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if len(recordings) == 0 {
		return nil, apperrors.NewInvalidState("appointment has no transcribable recordings")
	}

	summary := &Summary{RecordingsConsidered: len(recordings)}

	transcripts, err := s.ensureTranscripts(ctx, recordings, summary)
	if err != nil {
		return nil, err
	}

	completed := make([]*model.Transcript, 0, len(transcripts))
	for _, transcript := range transcripts {
		if transcript.Status == model.TranscriptStatusCompleted {
			completed = append(completed, transcript)
		}
	}
	summary.TranscriptsCompleted = len(completed)

	if len(completed) < len(recordings) {
		return summary, apperrors.NewNotReady(fmt.Sprintf(
			"%d of %d transcripts completed", len(completed), len(recordings)))
	}

	templates, err := s.templates.GetByIDs(ctx, templateIDs)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, apperrors.NewNotFound("assigned templates", nil)
	}

	if err := s.ensureNotes(ctx, completed, templates, summary); err != nil {
		return nil, err
	}

	if err := s.appointments.UpdateStatus(ctx, appointmentID, model.AppointmentStatusCompleted); err != nil {
		return nil, err
	}

	s.auditor.LogAsync(ctx, actorID, model.AuditActionProcessingDone, model.AuditResourceAppointment, appointmentID, true, &audit.LogOptions{
		Details: summary,
	})

	s.logger.ZL.Info().
		Str("appointment_id", appointmentID.String()).
		Int("recordings", summary.RecordingsConsidered).
		Int("transcripts_completed", summary.TranscriptsCompleted).
		Int("notes_queued", summary.NotesQueued).
		Msg("appointment processing completed")

	return summary, nil
}

// HandleFailure is invoked by the job boundary once retries are exhausted or
// a permanent error occurred: the appointment is moved back to scheduled with
// a diagnostic note so it never sits silently in in_progress.
func (s *Service) HandleFailure(ctx context.Context, appointmentID, actorID uuid.UUID, cause error) {
	if err := s.appointments.UpdateStatus(ctx, appointmentID, model.AppointmentStatusScheduled); err != nil {
		s.logger.Error(err, "failed to revert appointment status", "appointment_id", appointmentID.String())
	}

	diagnostic := fmt.Sprintf("[processing failed %s] %v", time.Now().Format(time.RFC3339), cause)
	if err := s.appointments.AppendNote(ctx, appointmentID, diagnostic); err != nil {
		s.logger.Error(err, "failed to append diagnostic note", "appointment_id", appointmentID.String())
	}

	s.auditor.LogAsync(ctx, actorID, model.AuditActionProcessingFailure, model.AuditResourceAppointment, appointmentID, false, &audit.LogOptions{
		Details: map[string]interface{}{"error": cause.Error()},
	})
}

// transcribableRecordings returns the recordings that should produce a
// transcript: uploaded ones plus those already picked up by a previous run.
// Failed and still-uploading recordings are excluded.
func (s *Service) transcribableRecordings(ctx context.Context, appointmentID uuid.UUID) ([]*model.Recording, error) {
	all, err := s.recordings.ListByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	recordings := make([]*model.Recording, 0, len(all))
	for _, recording := range all {
		switch recording.Status {
		case model.RecordingStatusUploaded, model.RecordingStatusProcessing, model.RecordingStatusTranscribed:
			recordings = append(recordings, recording)
		}
	}
	return recordings, nil
}

// ensureTranscripts guarantees a transcript row per recording and dispatches
// a transcription job for each row this run created. The unique index on
// recording_id makes the create race-free, losers adopt the existing row.
func (s *Service) ensureTranscripts(ctx context.Context, recordings []*model.Recording, summary *Summary) ([]*model.Transcript, error) {
	transcripts := make([]*model.Transcript, 0, len(recordings))

	for _, recording := range recordings {
		transcript, created, err := s.transcripts.CreateIfAbsent(ctx, &model.Transcript{
			RecordingID: recording.ID,
			Status:      model.TranscriptStatusPending,
			Language:    "en",
		})
		if err != nil {
			return nil, err
		}
		transcripts = append(transcripts, transcript)

		if !created {
			continue
		}

		if _, err := s.enqueuer.EnqueueTranscribeRecording(ctx, queue.TranscribeRecordingPayload{
			TranscriptID: transcript.ID,
			RecordingID:  recording.ID,
		}); err != nil {
			return nil, err
		}
		summary.TranscriptsQueued++
	}

	return transcripts, nil
}

// ensureNotes guarantees a draft note per (transcript, template) pair and
// dispatches generation for the pairs this run created.
func (s *Service) ensureNotes(ctx context.Context, transcripts []*model.Transcript, templates []*model.Template, summary *Summary) error {
	for _, transcript := range transcripts {
		for _, template := range templates {
			note, created, err := s.notes.CreateIfAbsent(ctx, &model.ClinicalNote{
				TranscriptID:     transcript.ID,
				TemplateID:       template.ID,
				GeneratedContent: "",
				Status:           model.NoteStatusDraft,
			})
			if err != nil {
				return err
			}
			if !created {
				continue
			}

			if _, err := s.enqueuer.EnqueueGenerateNote(ctx, queue.GenerateNotePayload{
				NoteID:            note.ID,
				TranscriptContent: transcript.Content,
				TemplateContent:   template.Content,
			}); err != nil {
				return err
			}
			summary.NotesQueued++
		}
	}
	return nil
}

func lockKey(appointmentID uuid.UUID) string {
	return "appointment:process:" + appointmentID.String()
}
