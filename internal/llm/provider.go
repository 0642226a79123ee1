package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/scribe-api/internal/config"
	"github.com/jwalitptl/scribe-api/internal/model"
)

// Provider is the common capability contract for clinical language models.
type Provider interface {
	// AnalyzeTranscript extracts structured clinical information. Malformed
	// model output degrades to an empty result, it never returns a parse
	// error.
	AnalyzeTranscript(ctx context.Context, transcript string) (*model.AnalysisResult, error)
	// GenerateNote renders a clinical note from the transcript and template,
	// optionally informed by a prior analysis.
	GenerateNote(ctx context.Context, transcript, template string, analysis *model.AnalysisResult) (string, error)
	// Complete runs a generic prompt.
	Complete(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// New returns the provider selected by name, falling back to the configured
// default when name is empty.
func New(cfg config.LLMConfig, name string) (Provider, error) {
	if name == "" {
		name = cfg.Provider
	}
	switch name {
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic), nil
	case "ollama":
		return NewOllamaProvider(cfg.Ollama), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", name)
	}
}

// Providers lists the selectable provider names.
func Providers() []string {
	return []string{"openai", "anthropic", "ollama"}
}

type analysisPayload struct {
	ChiefComplaint  *string  `json:"chief_complaint"`
	Procedures      []string `json:"procedures"`
	Findings        []string `json:"findings"`
	Recommendations []string `json:"recommendations"`
	Summary         *string  `json:"summary"`
}

// parseAnalysis turns raw model output into an AnalysisResult. Code-fence
// wrapping is stripped and unparseable output falls back to an empty result.
func parseAnalysis(raw string) *model.AnalysisResult {
	cleaned := stripCodeFences(raw)

	var payload analysisPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		log.Error().Str("output", truncate(raw, 500)).Msg("failed to parse analysis response")
		return model.EmptyAnalysisResult()
	}

	result := &model.AnalysisResult{
		ChiefComplaint:  payload.ChiefComplaint,
		Procedures:      orEmpty(payload.Procedures),
		Findings:        orEmpty(payload.Findings),
		Recommendations: orEmpty(payload.Recommendations),
		Summary:         payload.Summary,
		Entities:        []model.ClinicalEntity{},
	}

	for _, procedure := range result.Procedures {
		result.Entities = append(result.Entities, model.ClinicalEntity{EntityType: "procedure", Value: procedure})
	}
	for _, finding := range result.Findings {
		result.Entities = append(result.Entities, model.ClinicalEntity{EntityType: "finding", Value: finding})
	}
	for _, rec := range result.Recommendations {
		result.Entities = append(result.Entities, model.ClinicalEntity{EntityType: "recommendation", Value: rec})
	}

	return result
}

// stripCodeFences unwraps ```json ... ``` style blocks some models emit
// despite instructions to return bare JSON.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	} else if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+len("```"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	return strings.TrimSpace(s)
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func analysisContext(analysis *model.AnalysisResult) string {
	if analysis == nil {
		return ""
	}
	chief := "Not specified"
	if analysis.ChiefComplaint != nil && *analysis.ChiefComplaint != "" {
		chief = *analysis.ChiefComplaint
	}
	return fmt.Sprintf(`
Pre-analyzed information:
- Chief Complaint: %s
- Procedures: %s
- Findings: %s
- Recommendations: %s
`, chief, joinOrNone(analysis.Procedures), joinOrNone(analysis.Findings), joinOrNone(analysis.Recommendations))
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

func analysisUserPrompt(transcript string) string {
	return fmt.Sprintf(`Analyze the following dental appointment transcript and extract clinical information.

Transcript:
---
%s
---

Provide your analysis in the specified JSON format. Return ONLY valid JSON, no other text.`, transcript)
}

func notePrompt(transcript, template string, analysis *model.AnalysisResult) string {
	return fmt.Sprintf(`Generate a clinical note using the following template and transcript.

Template:
---
%s
---

Transcript:
---
%s
---
%s
Generate the clinical note following the template structure. Replace all placeholders with appropriate content from the transcript.`, template, transcript, analysisContext(analysis))
}
