package template_test

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scribe-api/internal/model"
	"github.com/jwalitptl/scribe-api/internal/service/template"
	apperrors "github.com/jwalitptl/scribe-api/pkg/errors"
	"github.com/jwalitptl/scribe-api/pkg/logger"
)

type templateStore struct {
	byID map[uuid.UUID]*model.Template
}

func newTemplateStore() *templateStore {
	return &templateStore{byID: make(map[uuid.UUID]*model.Template)}
}

func (s *templateStore) Create(_ context.Context, t *model.Template) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	s.byID[t.ID] = t
	return nil
}

func (s *templateStore) Get(_ context.Context, id uuid.UUID) (*model.Template, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFound("template", nil)
	}
	copied := *t
	return &copied, nil
}

func (s *templateStore) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*model.Template, error) {
	var out []*model.Template
	for _, id := range ids {
		if t, ok := s.byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *templateStore) List(_ context.Context, _ *uuid.UUID) ([]*model.Template, error) {
	var out []*model.Template
	for _, t := range s.byID {
		out = append(out, t)
	}
	return out, nil
}

func (s *templateStore) Update(_ context.Context, t *model.Template) error {
	s.byID[t.ID] = t
	return nil
}

func newService(store *templateStore) *template.Service {
	lg := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return template.NewService(store, lg)
}

func TestCreateDerivesVariablesFromContent(t *testing.T) {
	store := newTemplateStore()
	svc := newService(store)

	created, err := svc.Create(context.Background(), &model.CreateTemplateRequest{
		Name:    "Custom",
		Content: "{{chief_complaint}} / {{summary}}",
	})
	require.NoError(t, err)

	assert.Equal(t, model.TemplateTypeCustom, created.TemplateType)
	assert.Equal(t, 1, created.Version)
	require.Len(t, created.Variables, 2)
	assert.Equal(t, "chief_complaint", created.Variables[0].Name)
}

func TestUpdateContentBumpsVersion(t *testing.T) {
	store := newTemplateStore()
	svc := newService(store)

	created, err := svc.Create(context.Background(), &model.CreateTemplateRequest{
		Name:    "Custom",
		Content: "{{summary}}",
	})
	require.NoError(t, err)

	newContent := "{{summary}} and {{findings}}"
	updated, err := svc.Update(context.Background(), created.ID, &model.UpdateTemplateRequest{
		Content: &newContent,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Len(t, updated.Variables, 2)

	// Metadata-only updates do not bump the version.
	name := "Renamed"
	updated, err = svc.Update(context.Background(), created.ID, &model.UpdateTemplateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	store := newTemplateStore()
	svc := newService(store)

	require.NoError(t, svc.SeedDefaults(context.Background()))
	assert.Len(t, store.byID, 3)

	require.NoError(t, svc.SeedDefaults(context.Background()))
	assert.Len(t, store.byID, 3)
}
