package note

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scribe-api/internal/model"
	"github.com/jwalitptl/scribe-api/internal/repository"
	"github.com/jwalitptl/scribe-api/internal/service/audit"
	apperrors "github.com/jwalitptl/scribe-api/pkg/errors"
)

// Service manages the review lifecycle of generated notes:
// generated -> reviewed -> finalized. Finalized notes are immutable.
type Service struct {
	notes   repository.NoteRepository
	auditor *audit.Service
}

func NewService(notes repository.NoteRepository, auditor *audit.Service) *Service {
	return &Service{notes: notes, auditor: auditor}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.ClinicalNote, error) {
	return s.notes.Get(ctx, id)
}

func (s *Service) ListByTranscript(ctx context.Context, transcriptID uuid.UUID) ([]*model.ClinicalNote, error) {
	return s.notes.ListByTranscript(ctx, transcriptID)
}

// UpdateContent stores edited content on a note that is still under review.
func (s *Service) UpdateContent(ctx context.Context, actorID, id uuid.UUID, finalContent string) (*model.ClinicalNote, error) {
	note, err := s.notes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.Status == model.NoteStatusFinalized || note.Status == model.NoteStatusExported {
		return nil, apperrors.NewInvalidState("note is finalized")
	}

	note.FinalContent = &finalContent
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, err
	}

	s.auditor.LogAsync(ctx, actorID, model.AuditActionUpdate, model.AuditResourceNote, id, true, nil)
	return note, nil
}

// Review marks a generated note as reviewed by the actor.
func (s *Service) Review(ctx context.Context, actorID, id uuid.UUID) (*model.ClinicalNote, error) {
	note, err := s.notes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.Status != model.NoteStatusGenerated {
		return nil, apperrors.NewInvalidState("only generated notes can be reviewed")
	}

	now := time.Now()
	note.Status = model.NoteStatusReviewed
	note.ReviewedAt = &now
	note.ReviewedBy = &actorID

	if err := s.notes.Update(ctx, note); err != nil {
		return nil, err
	}

	s.auditor.LogAsync(ctx, actorID, model.AuditActionUpdate, model.AuditResourceNote, id, true, &audit.LogOptions{
		Details: map[string]interface{}{"status": note.Status},
	})
	return note, nil
}

// Finalize locks a reviewed note. The final content defaults to the
// generated content when no edit was made.
func (s *Service) Finalize(ctx context.Context, actorID, id uuid.UUID) (*model.ClinicalNote, error) {
	note, err := s.notes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.Status != model.NoteStatusReviewed {
		return nil, apperrors.NewInvalidState("only reviewed notes can be finalized")
	}

	now := time.Now()
	note.Status = model.NoteStatusFinalized
	note.FinalizedAt = &now
	note.FinalizedBy = &actorID
	if note.FinalContent == nil {
		content := note.GeneratedContent
		note.FinalContent = &content
	}

	if err := s.notes.Update(ctx, note); err != nil {
		return nil, err
	}

	s.auditor.LogAsync(ctx, actorID, model.AuditActionUpdate, model.AuditResourceNote, id, true, &audit.LogOptions{
		Details: map[string]interface{}{"status": note.Status},
	})
	return note, nil
}
