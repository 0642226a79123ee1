package notegen

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/scribe-api/internal/config"
	"github.com/jwalitptl/scribe-api/internal/llm"
	"github.com/jwalitptl/scribe-api/internal/model"
	"github.com/jwalitptl/scribe-api/internal/repository"
	"github.com/jwalitptl/scribe-api/pkg/logger"
)

// Service turns one (transcript, template) pair into a generated clinical
// note via the two-phase analyze-then-generate pipeline.
type Service struct {
	notes  repository.NoteRepository
	llmCfg config.LLMConfig
	logger *logger.Logger

	// newProvider is swappable in tests.
	newProvider func(cfg config.LLMConfig, name string) (llm.Provider, error)
}

func NewService(notes repository.NoteRepository, llmCfg config.LLMConfig, lg *logger.Logger) *Service {
	return &Service{
		notes:       notes,
		llmCfg:      llmCfg,
		logger:      lg,
		newProvider: llm.New,
	}
}

// Generate analyzes the transcript, renders the note content and moves the
// note to generated. On failure the note reverts to draft carrying the error
// message so reviewers can see what happened, and the error propagates to the
// queue for retry.
func (s *Service) Generate(ctx context.Context, noteID uuid.UUID, transcriptContent, templateContent, providerName string) error {
	note, err := s.notes.Get(ctx, noteID)
	if err != nil {
		return err
	}
	if note.Status != model.NoteStatusDraft {
		// Redelivered task, the note already advanced.
		return nil
	}

	provider, err := s.newProvider(s.llmCfg, providerName)
	if err != nil {
		s.recordFailure(ctx, noteID, err)
		return err
	}

	analysis, err := provider.AnalyzeTranscript(ctx, transcriptContent)
	if err != nil {
		// Analysis is best effort, generation still works from the raw
		// transcript.
		s.logger.Error(err, "transcript analysis failed, generating without it", "note_id", noteID.String())
		analysis = nil
	}

	content, err := provider.GenerateNote(ctx, transcriptContent, templateContent, analysis)
	if err != nil {
		s.recordFailure(ctx, noteID, err)
		return fmt.Errorf("generate note: %w", err)
	}

	if err := s.notes.UpdateGenerated(ctx, noteID, content, analysis, model.NoteStatusGenerated); err != nil {
		return err
	}

	s.logger.ZL.Info().
		Str("note_id", noteID.String()).
		Int("content_length", len(content)).
		Msg("clinical note generated")

	return nil
}

// recordFailure leaves the note in draft with a diagnostic body. Best effort.
func (s *Service) recordFailure(ctx context.Context, noteID uuid.UUID, cause error) {
	diagnostic := fmt.Sprintf("Error generating note: %v", cause)
	if err := s.notes.UpdateGenerated(ctx, noteID, diagnostic, nil, model.NoteStatusDraft); err != nil {
		s.logger.Error(err, "failed to record note generation failure", "note_id", noteID.String())
	}
}
