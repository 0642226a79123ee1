package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scribe-api/internal/model"
)

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, actor_id, action, resource_type, resource_id,
			success, details, ip_address, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.ActorID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.Success,
		log.Details,
		log.IPAddress,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, filters map[string]interface{}) ([]*model.AuditLog, error) {
	query := `
		SELECT id, actor_id, action, resource_type, resource_id,
			   success, details, ip_address, created_at
		FROM audit_logs WHERE 1=1
	`
	var args []interface{}

	if v, ok := filters["actor_id"]; ok {
		query += fmt.Sprintf(" AND actor_id = $%d", len(args)+1)
		args = append(args, v)
	}
	if v, ok := filters["resource_type"]; ok {
		query += fmt.Sprintf(" AND resource_type = $%d", len(args)+1)
		args = append(args, v)
	}
	if v, ok := filters["resource_id"]; ok {
		query += fmt.Sprintf(" AND resource_id = $%d", len(args)+1)
		args = append(args, v)
	}
	if v, ok := filters["action"]; ok {
		query += fmt.Sprintf(" AND action = $%d", len(args)+1)
		args = append(args, v)
	}

	query += " ORDER BY created_at DESC"

	var logs []*model.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}
