package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/scribe-api/internal/model"
	"github.com/jwalitptl/scribe-api/internal/repository"
)

type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

type LogOptions struct {
	Details   interface{}
	IPAddress string
}

// Log creates an audit log entry.
func (s *Service) Log(ctx context.Context, actorID uuid.UUID, action, resourceType string, resourceID uuid.UUID, success bool, opts *LogOptions) error {
	var details json.RawMessage
	var ipAddress string

	if opts != nil {
		if opts.Details != nil {
			var err error
			details, err = json.Marshal(opts.Details)
			if err != nil {
				return err
			}
		}
		ipAddress = opts.IPAddress
	}

	entry := &model.AuditLog{
		ID:           uuid.New(),
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Success:      success,
		Details:      details,
		IPAddress:    ipAddress,
		CreatedAt:    time.Now(),
	}

	return s.repo.Create(ctx, entry)
}

// LogAsync records the entry without blocking the caller. Audit failures are
// logged, never propagated.
func (s *Service) LogAsync(ctx context.Context, actorID uuid.UUID, action, resourceType string, resourceID uuid.UUID, success bool, opts *LogOptions) {
	go func() {
		if err := s.Log(context.WithoutCancel(ctx), actorID, action, resourceType, resourceID, success, opts); err != nil {
			log.Error().Err(err).Str("action", action).Str("resource_type", resourceType).Msg("failed to write audit log")
		}
	}()
}

func (s *Service) List(ctx context.Context, filters map[string]interface{}) ([]*model.AuditLog, error) {
	return s.repo.List(ctx, filters)
}
