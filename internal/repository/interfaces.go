package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/scribe-api/internal/model"
)

// All repository interfaces in one file
type (
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
		AppendNote(ctx context.Context, id uuid.UUID, note string) error
		Cancel(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	}

	RecordingRepository interface {
		Create(ctx context.Context, recording *model.Recording) error
		Get(ctx context.Context, id uuid.UUID) (*model.Recording, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.RecordingStatus) error
		ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Recording, error)
		ListByAppointmentAndStatus(ctx context.Context, appointmentID uuid.UUID, status model.RecordingStatus) ([]*model.Recording, error)
	}

	TranscriptRepository interface {
		// CreateIfAbsent inserts the transcript unless one already exists for
		// the recording. Returns the persisted row and whether this call
		// created it.
		CreateIfAbsent(ctx context.Context, transcript *model.Transcript) (*model.Transcript, bool, error)
		Get(ctx context.Context, id uuid.UUID) (*model.Transcript, error)
		GetByRecording(ctx context.Context, recordingID uuid.UUID) (*model.Transcript, error)
		ListByRecordings(ctx context.Context, recordingIDs []uuid.UUID) ([]*model.Transcript, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.TranscriptStatus) error
		UpdateResult(ctx context.Context, transcript *model.Transcript) error
	}

	TemplateRepository interface {
		Create(ctx context.Context, template *model.Template) error
		Get(ctx context.Context, id uuid.UUID) (*model.Template, error)
		GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Template, error)
		List(ctx context.Context, practiceID *uuid.UUID) ([]*model.Template, error)
		Update(ctx context.Context, template *model.Template) error
	}

	NoteRepository interface {
		// CreateIfAbsent inserts the note unless one already exists for the
		// (transcript, template) pair. Returns the persisted row and whether
		// this call created it.
		CreateIfAbsent(ctx context.Context, note *model.ClinicalNote) (*model.ClinicalNote, bool, error)
		Get(ctx context.Context, id uuid.UUID) (*model.ClinicalNote, error)
		GetByPair(ctx context.Context, transcriptID, templateID uuid.UUID) (*model.ClinicalNote, error)
		ListByTranscript(ctx context.Context, transcriptID uuid.UUID) ([]*model.ClinicalNote, error)
		UpdateGenerated(ctx context.Context, id uuid.UUID, content string, analysis *model.AnalysisResult, status model.NoteStatus) error
		Update(ctx context.Context, note *model.ClinicalNote) error
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filters map[string]interface{}) ([]*model.AuditLog, error)
	}
)
