package notegen

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scribe-api/internal/config"
	"github.com/jwalitptl/scribe-api/internal/llm"
	"github.com/jwalitptl/scribe-api/internal/model"
	apperrors "github.com/jwalitptl/scribe-api/pkg/errors"
	"github.com/jwalitptl/scribe-api/pkg/logger"
)

type noteStore struct {
	byID map[uuid.UUID]*model.ClinicalNote
}

func (s *noteStore) CreateIfAbsent(_ context.Context, n *model.ClinicalNote) (*model.ClinicalNote, bool, error) {
	s.byID[n.ID] = n
	return n, true, nil
}

func (s *noteStore) Get(_ context.Context, id uuid.UUID) (*model.ClinicalNote, error) {
	n, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFound("clinical note", nil)
	}
	return n, nil
}

func (s *noteStore) GetByPair(_ context.Context, _, _ uuid.UUID) (*model.ClinicalNote, error) {
	return nil, apperrors.NewNotFound("clinical note", nil)
}

func (s *noteStore) ListByTranscript(_ context.Context, _ uuid.UUID) ([]*model.ClinicalNote, error) {
	return nil, nil
}

func (s *noteStore) UpdateGenerated(_ context.Context, id uuid.UUID, content string, analysis *model.AnalysisResult, status model.NoteStatus) error {
	n, ok := s.byID[id]
	if !ok {
		return apperrors.NewNotFound("clinical note", nil)
	}
	n.GeneratedContent = content
	n.Analysis = analysis
	n.Status = status
	return nil
}

func (s *noteStore) Update(_ context.Context, n *model.ClinicalNote) error {
	s.byID[n.ID] = n
	return nil
}

type stubProvider struct {
	analysis    *model.AnalysisResult
	analysisErr error
	content     string
	generateErr error
}

func (p *stubProvider) AnalyzeTranscript(_ context.Context, _ string) (*model.AnalysisResult, error) {
	return p.analysis, p.analysisErr
}

func (p *stubProvider) GenerateNote(_ context.Context, _, _ string, _ *model.AnalysisResult) (string, error) {
	return p.content, p.generateErr
}

func (p *stubProvider) Complete(_ context.Context, _, _ string) (string, error) {
	return "", nil
}

func newTestService(store *noteStore, provider *stubProvider) *Service {
	lg := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(store, config.LLMConfig{Provider: "openai"}, lg)
	svc.newProvider = func(_ config.LLMConfig, _ string) (llm.Provider, error) {
		return provider, nil
	}
	return svc
}

func draftNote(store *noteStore) *model.ClinicalNote {
	n := &model.ClinicalNote{
		Base:         model.Base{ID: uuid.New()},
		TranscriptID: uuid.New(),
		TemplateID:   uuid.New(),
		Status:       model.NoteStatusDraft,
	}
	store.byID[n.ID] = n
	return n
}

func TestGenerateMovesNoteToGenerated(t *testing.T) {
	store := &noteStore{byID: make(map[uuid.UUID]*model.ClinicalNote)}
	chief := "toothache"
	provider := &stubProvider{
		analysis: &model.AnalysisResult{ChiefComplaint: &chief, Procedures: []string{"filling"}},
		content:  "SUBJECTIVE: toothache...",
	}
	svc := newTestService(store, provider)
	note := draftNote(store)

	err := svc.Generate(context.Background(), note.ID, "transcript text", "template text", "")
	require.NoError(t, err)

	assert.Equal(t, model.NoteStatusGenerated, note.Status)
	assert.Equal(t, "SUBJECTIVE: toothache...", note.GeneratedContent)
	require.NotNil(t, note.Analysis)
	assert.Equal(t, []string{"filling"}, note.Analysis.Procedures)
}

func TestGenerateProceedsWithoutAnalysisOnAnalysisError(t *testing.T) {
	store := &noteStore{byID: make(map[uuid.UUID]*model.ClinicalNote)}
	provider := &stubProvider{
		analysisErr: errors.New("model overloaded"),
		content:     "narrative note",
	}
	svc := newTestService(store, provider)
	note := draftNote(store)

	err := svc.Generate(context.Background(), note.ID, "transcript text", "template text", "")
	require.NoError(t, err)

	assert.Equal(t, model.NoteStatusGenerated, note.Status)
	assert.Equal(t, "narrative note", note.GeneratedContent)
	assert.Nil(t, note.Analysis)
}

func TestGenerateFailureRevertsToDraftWithDiagnostic(t *testing.T) {
	store := &noteStore{byID: make(map[uuid.UUID]*model.ClinicalNote)}
	provider := &stubProvider{generateErr: errors.New("rate limited")}
	svc := newTestService(store, provider)
	note := draftNote(store)

	err := svc.Generate(context.Background(), note.ID, "transcript text", "template text", "")
	require.Error(t, err)

	assert.Equal(t, model.NoteStatusDraft, note.Status)
	assert.Contains(t, note.GeneratedContent, "Error generating note")
	assert.Contains(t, note.GeneratedContent, "rate limited")
}

func TestGenerateRedeliveredAdvancedNoteIsNoop(t *testing.T) {
	store := &noteStore{byID: make(map[uuid.UUID]*model.ClinicalNote)}
	provider := &stubProvider{content: "should not be used"}
	svc := newTestService(store, provider)
	note := draftNote(store)
	note.Status = model.NoteStatusGenerated
	note.GeneratedContent = "existing"

	err := svc.Generate(context.Background(), note.ID, "transcript text", "template text", "")
	require.NoError(t, err)

	assert.Equal(t, "existing", note.GeneratedContent)
}

func TestGenerateMissingNoteIsNotFound(t *testing.T) {
	store := &noteStore{byID: make(map[uuid.UUID]*model.ClinicalNote)}
	svc := newTestService(store, &stubProvider{})

	err := svc.Generate(context.Background(), uuid.New(), "t", "t", "")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.Code(err))
}
