package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scribe-api/internal/model"
	apperrors "github.com/jwalitptl/scribe-api/pkg/errors"
)

const noteColumns = `
	id, transcript_id, template_id, generated_content, final_content,
	analysis, status, reviewed_at, reviewed_by, finalized_at, finalized_by,
	created_at, updated_at, deleted_at
`

// CreateIfAbsent relies on the unique index on (transcript_id, template_id),
// see CreateIfAbsent on the transcript repository for the race handling.
func (r *noteRepository) CreateIfAbsent(ctx context.Context, note *model.ClinicalNote) (*model.ClinicalNote, bool, error) {
	query := `
		INSERT INTO clinical_notes (
			id, transcript_id, template_id, generated_content, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (transcript_id, template_id) DO NOTHING
		RETURNING ` + noteColumns

	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	note.CreatedAt = time.Now()
	note.UpdatedAt = time.Now()

	var inserted model.ClinicalNote
	err := r.db.GetContext(ctx, &inserted, query,
		note.ID,
		note.TranscriptID,
		note.TemplateID,
		note.GeneratedContent,
		note.Status,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		existing, getErr := r.GetByPair(ctx, note.TranscriptID, note.TemplateID)
		if getErr != nil {
			return nil, false, fmt.Errorf("failed to load existing note: %w", getErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create note: %w", err)
	}
	return &inserted, true, nil
}

func (r *noteRepository) Get(ctx context.Context, id uuid.UUID) (*model.ClinicalNote, error) {
	query := `SELECT ` + noteColumns + ` FROM clinical_notes WHERE id = $1 AND deleted_at IS NULL`

	var note model.ClinicalNote
	err := r.db.GetContext(ctx, &note, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("clinical note", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return &note, nil
}

func (r *noteRepository) GetByPair(ctx context.Context, transcriptID, templateID uuid.UUID) (*model.ClinicalNote, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM clinical_notes
		WHERE transcript_id = $1 AND template_id = $2 AND deleted_at IS NULL
	`
	var note model.ClinicalNote
	err := r.db.GetContext(ctx, &note, query, transcriptID, templateID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("clinical note", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note by pair: %w", err)
	}
	return &note, nil
}

func (r *noteRepository) ListByTranscript(ctx context.Context, transcriptID uuid.UUID) ([]*model.ClinicalNote, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM clinical_notes
		WHERE transcript_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	var notes []*model.ClinicalNote
	err := r.db.SelectContext(ctx, &notes, query, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

func (r *noteRepository) UpdateGenerated(ctx context.Context, id uuid.UUID, content string, analysis *model.AnalysisResult, status model.NoteStatus) error {
	query := `
		UPDATE clinical_notes
		SET generated_content = $1, analysis = $2, status = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, content, analysis, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update generated note: %w", err)
	}
	return checkAffected(result, "clinical note")
}

func (r *noteRepository) Update(ctx context.Context, note *model.ClinicalNote) error {
	query := `
		UPDATE clinical_notes
		SET generated_content = $1, final_content = $2, status = $3,
			reviewed_at = $4, reviewed_by = $5, finalized_at = $6, finalized_by = $7,
			updated_at = $8
		WHERE id = $9 AND deleted_at IS NULL
	`
	note.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		note.GeneratedContent,
		note.FinalContent,
		note.Status,
		note.ReviewedAt,
		note.ReviewedBy,
		note.FinalizedAt,
		note.FinalizedBy,
		note.UpdatedAt,
		note.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return checkAffected(result, "clinical note")
}
