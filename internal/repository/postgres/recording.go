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

const recordingColumns = `
	id, appointment_id, storage_path, filename, content_type,
	file_size, duration_seconds, status, created_at, updated_at, deleted_at
`

func (r *recordingRepository) Create(ctx context.Context, recording *model.Recording) error {
	query := `
		INSERT INTO recordings (
			id, appointment_id, storage_path, filename, content_type,
			file_size, duration_seconds, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if recording.ID == uuid.Nil {
		recording.ID = uuid.New()
	}
	recording.CreatedAt = time.Now()
	recording.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		recording.ID,
		recording.AppointmentID,
		recording.StoragePath,
		recording.Filename,
		recording.ContentType,
		recording.FileSize,
		recording.DurationSeconds,
		recording.Status,
		recording.CreatedAt,
		recording.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	return nil
}

func (r *recordingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM recordings WHERE id = $1 AND deleted_at IS NULL`

	var recording model.Recording
	err := r.db.GetContext(ctx, &recording, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("recording", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recording: %w", err)
	}
	return &recording, nil
}

func (r *recordingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.RecordingStatus) error {
	query := `
		UPDATE recordings
		SET status = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update recording status: %w", err)
	}
	return checkAffected(result, "recording")
}

func (r *recordingRepository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Recording, error) {
	query := `
		SELECT ` + recordingColumns + `
		FROM recordings
		WHERE appointment_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	var recordings []*model.Recording
	err := r.db.SelectContext(ctx, &recordings, query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	return recordings, nil
}

func (r *recordingRepository) ListByAppointmentAndStatus(ctx context.Context, appointmentID uuid.UUID, status model.RecordingStatus) ([]*model.Recording, error) {
	query := `
		SELECT ` + recordingColumns + `
		FROM recordings
		WHERE appointment_id = $1 AND status = $2 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	var recordings []*model.Recording
	err := r.db.SelectContext(ctx, &recordings, query, appointmentID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings by status: %w", err)
	}
	return recordings, nil
}
