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

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, practice_id, patient_ref, appointment_date,
			status, notes, template_ids, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()
	if appointment.TemplateIDs == nil {
		appointment.TemplateIDs = pq.StringArray{}
	}

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PracticeID,
		appointment.PatientRef,
		appointment.AppointmentDate,
		appointment.Status,
		appointment.Notes,
		appointment.TemplateIDs,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, practice_id, patient_ref, appointment_date,
			   status, notes, template_ids, created_at, updated_at, deleted_at
		FROM appointments
		WHERE id = $1 AND deleted_at IS NULL
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET patient_ref = $1, appointment_date = $2, status = $3,
			notes = $4, template_ids = $5, updated_at = $6
		WHERE id = $7 AND deleted_at IS NULL
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.PatientRef,
		appointment.AppointmentDate,
		appointment.Status,
		appointment.Notes,
		appointment.TemplateIDs,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return checkAffected(result, "appointment")
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	return checkAffected(result, "appointment")
}

// AppendNote appends a diagnostic line to the free-text notes field.
func (r *appointmentRepository) AppendNote(ctx context.Context, id uuid.UUID, note string) error {
	query := `
		UPDATE appointments
		SET notes = CASE WHEN notes = '' THEN $1 ELSE notes || E'\n' || $1 END,
			updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, note, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to append appointment note: %w", err)
	}
	return checkAffected(result, "appointment")
}

// Cancel is a soft delete, reachable from any state.
func (r *appointmentRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, model.AppointmentStatusCancelled, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}
	return checkAffected(result, "appointment")
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, practice_id, patient_ref, appointment_date,
			   status, notes, template_ids, created_at, updated_at, deleted_at
		FROM appointments
		WHERE deleted_at IS NULL
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.PracticeID != uuid.Nil {
			query += fmt.Sprintf(" AND practice_id = $%d", argCount)
			args = append(args, filters.PracticeID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if !filters.StartDate.IsZero() {
			query += fmt.Sprintf(" AND appointment_date >= $%d", argCount)
			args = append(args, filters.StartDate)
			argCount++
		}
		if !filters.EndDate.IsZero() {
			query += fmt.Sprintf(" AND appointment_date <= $%d", argCount)
			args = append(args, filters.EndDate)
			argCount++
		}
	}

	query += " ORDER BY appointment_date DESC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func checkAffected(result sql.Result, resource string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound(resource, nil)
	}
	return nil
}
