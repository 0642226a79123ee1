package template

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/scribe-api/internal/model"
	"github.com/jwalitptl/scribe-api/internal/repository"
	"github.com/jwalitptl/scribe-api/pkg/logger"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// Service manages note templates. Reads go through a short-lived in-memory
// cache since templates change rarely but are read on every note generation.
type Service struct {
	repo   repository.TemplateRepository
	cache  *gocache.Cache
	logger *logger.Logger
}

func NewService(repo repository.TemplateRepository, lg *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  gocache.New(cacheTTL, cacheCleanup),
		logger: lg,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateTemplateRequest) (*model.Template, error) {
	templateType := req.TemplateType
	if templateType == "" {
		templateType = model.TemplateTypeCustom
	}

	template := &model.Template{
		PracticeID:   req.PracticeID,
		Name:         req.Name,
		Description:  req.Description,
		TemplateType: templateType,
		Content:      req.Content,
		Variables:    req.Variables,
		Version:      1,
		IsActive:     true,
	}
	if len(template.Variables) == 0 {
		template.Variables = declaredVariables(req.Content)
	}

	if err := s.repo.Create(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	if cached, ok := s.cache.Get(id.String()); ok {
		return cached.(*model.Template), nil
	}

	template, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id.String(), template, gocache.DefaultExpiration)
	return template, nil
}

func (s *Service) List(ctx context.Context, practiceID *uuid.UUID) ([]*model.Template, error) {
	return s.repo.List(ctx, practiceID)
}

// Update applies partial changes. A content change bumps the version so
// already-generated notes keep a stable reference to what rendered them.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateTemplateRequest) (*model.Template, error) {
	template, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	if req.Content != nil && *req.Content != template.Content {
		template.Content = *req.Content
		template.Version++
		if req.Variables == nil {
			template.Variables = declaredVariables(template.Content)
		}
	}
	if req.Variables != nil {
		template.Variables = *req.Variables
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, template); err != nil {
		return nil, err
	}
	s.cache.Delete(id.String())
	return template, nil
}

// SeedDefaults creates the system templates that do not exist yet. Matching
// is by template type among system-wide defaults, so re-running on startup is
// a no-op.
func (s *Service) SeedDefaults(ctx context.Context) error {
	existing, err := s.repo.List(ctx, nil)
	if err != nil {
		return err
	}

	present := make(map[model.TemplateType]bool)
	for _, template := range existing {
		if template.PracticeID == nil && template.IsDefault {
			present[template.TemplateType] = true
		}
	}

	for _, template := range DefaultTemplates() {
		if present[template.TemplateType] {
			continue
		}
		if err := s.repo.Create(ctx, template); err != nil {
			return err
		}
		s.logger.ZL.Info().
			Str("name", template.Name).
			Str("type", string(template.TemplateType)).
			Msg("seeded default template")
	}
	return nil
}

func declaredVariables(content string) model.TemplateVariables {
	names := ExtractVariables(content)
	variables := make(model.TemplateVariables, 0, len(names))
	for _, name := range names {
		variables = append(variables, model.TemplateVariable{Name: name})
	}
	return variables
}
