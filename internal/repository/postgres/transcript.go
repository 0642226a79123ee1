package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/scribe-api/internal/model"
	apperrors "github.com/jwalitptl/scribe-api/pkg/errors"
)

const transcriptColumns = `
	id, recording_id, content, segments, status, language,
	word_count, created_at, updated_at, deleted_at
`

// CreateIfAbsent relies on the unique index on recording_id: concurrent
// callers race on the insert, the conflict loser reads back the winner's row.
func (r *transcriptRepository) CreateIfAbsent(ctx context.Context, transcript *model.Transcript) (*model.Transcript, bool, error) {
	query := `
		INSERT INTO transcripts (
			id, recording_id, content, segments, status, language, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (recording_id) DO NOTHING
		RETURNING ` + transcriptColumns

	if transcript.ID == uuid.Nil {
		transcript.ID = uuid.New()
	}
	transcript.CreatedAt = time.Now()
	transcript.UpdatedAt = time.Now()
	if transcript.Segments == nil {
		transcript.Segments = model.Segments{}
	}

	var inserted model.Transcript
	err := r.db.GetContext(ctx, &inserted, query,
		transcript.ID,
		transcript.RecordingID,
		transcript.Content,
		transcript.Segments,
		transcript.Status,
		transcript.Language,
		transcript.CreatedAt,
		transcript.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		existing, getErr := r.GetByRecording(ctx, transcript.RecordingID)
		if getErr != nil {
			return nil, false, fmt.Errorf("failed to load existing transcript: %w", getErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create transcript: %w", err)
	}
	return &inserted, true, nil
}

func (r *transcriptRepository) Get(ctx context.Context, id uuid.UUID) (*model.Transcript, error) {
	query := `SELECT ` + transcriptColumns + ` FROM transcripts WHERE id = $1 AND deleted_at IS NULL`

	var transcript model.Transcript
	err := r.db.GetContext(ctx, &transcript, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("transcript", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return &transcript, nil
}

func (r *transcriptRepository) GetByRecording(ctx context.Context, recordingID uuid.UUID) (*model.Transcript, error) {
	query := `SELECT ` + transcriptColumns + ` FROM transcripts WHERE recording_id = $1 AND deleted_at IS NULL`

	var transcript model.Transcript
	err := r.db.GetContext(ctx, &transcript, query, recordingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("transcript", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript by recording: %w", err)
	}
	return &transcript, nil
}

func (r *transcriptRepository) ListByRecordings(ctx context.Context, recordingIDs []uuid.UUID) ([]*model.Transcript, error) {
	if len(recordingIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(recordingIDs))
	for i, id := range recordingIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT ` + transcriptColumns + `
		FROM transcripts
		WHERE recording_id = ANY($1) AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	var transcripts []*model.Transcript
	err := r.db.SelectContext(ctx, &transcripts, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	return transcripts, nil
}

func (r *transcriptRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TranscriptStatus) error {
	query := `
		UPDATE transcripts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update transcript status: %w", err)
	}
	return checkAffected(result, "transcript")
}

func (r *transcriptRepository) UpdateResult(ctx context.Context, transcript *model.Transcript) error {
	query := `
		UPDATE transcripts
		SET content = $1, segments = $2, status = $3, language = $4,
			word_count = $5, updated_at = $6
		WHERE id = $7 AND deleted_at IS NULL
	`
	transcript.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		transcript.Content,
		transcript.Segments,
		transcript.Status,
		transcript.Language,
		transcript.WordCount,
		transcript.UpdatedAt,
		transcript.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transcript result: %w", err)
	}
	return checkAffected(result, "transcript")
}
