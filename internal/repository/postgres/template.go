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

const templateColumns = `
	id, practice_id, name, description, template_type, content,
	variables, version, is_default, is_active, created_at, updated_at, deleted_at
`

func (r *templateRepository) Create(ctx context.Context, template *model.Template) error {
	query := `
		INSERT INTO templates (
			id, practice_id, name, description, template_type, content,
			variables, version, is_default, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	if template.Version == 0 {
		template.Version = 1
	}
	template.CreatedAt = time.Now()
	template.UpdatedAt = time.Now()
	if template.Variables == nil {
		template.Variables = model.TemplateVariables{}
	}

	_, err := r.db.ExecContext(ctx, query,
		template.ID,
		template.PracticeID,
		template.Name,
		template.Description,
		template.TemplateType,
		template.Content,
		template.Variables,
		template.Version,
		template.IsDefault,
		template.IsActive,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (r *templateRepository) Get(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = $1 AND deleted_at IS NULL`

	var template model.Template
	err := r.db.GetContext(ctx, &template, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("template", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &template, nil
}

func (r *templateRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Template, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	query := `
		SELECT ` + templateColumns + `
		FROM templates
		WHERE id = ANY($1) AND deleted_at IS NULL
		ORDER BY name ASC
	`
	var templates []*model.Template
	err := r.db.SelectContext(ctx, &templates, query, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to get templates by ids: %w", err)
	}
	return templates, nil
}

// List returns practice templates together with system-wide ones
// (practice_id IS NULL). A nil practiceID returns system templates only.
func (r *templateRepository) List(ctx context.Context, practiceID *uuid.UUID) ([]*model.Template, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM templates
		WHERE deleted_at IS NULL AND is_active = TRUE
	`
	args := []interface{}{}
	if practiceID != nil {
		query += " AND (practice_id = $1 OR practice_id IS NULL)"
		args = append(args, *practiceID)
	} else {
		query += " AND practice_id IS NULL"
	}
	query += " ORDER BY is_default DESC, name ASC"

	var templates []*model.Template
	err := r.db.SelectContext(ctx, &templates, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

func (r *templateRepository) Update(ctx context.Context, template *model.Template) error {
	query := `
		UPDATE templates
		SET name = $1, description = $2, content = $3, variables = $4,
			version = $5, is_active = $6, updated_at = $7
		WHERE id = $8 AND deleted_at IS NULL
	`
	template.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		template.Name,
		template.Description,
		template.Content,
		template.Variables,
		template.Version,
		template.IsActive,
		template.UpdatedAt,
		template.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return checkAffected(result, "template")
}
