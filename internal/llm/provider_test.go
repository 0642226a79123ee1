package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scribe-api/internal/config"
)

func TestParseAnalysisValidPayload(t *testing.T) {
	raw := `{
		"chief_complaint": "sensitivity in upper right quadrant",
		"procedures": ["composite filling"],
		"findings": ["caries on tooth 3"],
		"recommendations": ["avoid cold drinks", "follow up in 2 weeks"],
		"summary": "routine restorative visit"
	}`

	result := parseAnalysis(raw)

	require.NotNil(t, result.ChiefComplaint)
	assert.Equal(t, "sensitivity in upper right quadrant", *result.ChiefComplaint)
	assert.Equal(t, []string{"composite filling"}, result.Procedures)
	assert.Equal(t, []string{"caries on tooth 3"}, result.Findings)
	assert.Len(t, result.Recommendations, 2)
	assert.Len(t, result.Entities, 4)
}

func TestParseAnalysisStripsCodeFences(t *testing.T) {
	raw := "Here is the analysis:\n```json\n{\"procedures\": [\"extraction\"], \"findings\": [], \"recommendations\": []}\n```"

	result := parseAnalysis(raw)

	assert.Equal(t, []string{"extraction"}, result.Procedures)
}

func TestParseAnalysisStripsBareFences(t *testing.T) {
	raw := "```\n{\"procedures\": [], \"findings\": [\"plaque buildup\"], \"recommendations\": []}\n```"

	result := parseAnalysis(raw)

	assert.Equal(t, []string{"plaque buildup"}, result.Findings)
}

func TestParseAnalysisMalformedFallsBackToEmpty(t *testing.T) {
	result := parseAnalysis("I'm sorry, I can't produce JSON right now.")

	assert.Nil(t, result.ChiefComplaint)
	assert.NotNil(t, result.Procedures)
	assert.Empty(t, result.Procedures)
	assert.NotNil(t, result.Findings)
	assert.Empty(t, result.Findings)
	assert.NotNil(t, result.Recommendations)
	assert.Empty(t, result.Recommendations)
	assert.Empty(t, result.Entities)
}

func TestParseAnalysisNullListsBecomeEmpty(t *testing.T) {
	result := parseAnalysis(`{"chief_complaint": null, "procedures": null, "findings": null, "recommendations": null}`)

	assert.NotNil(t, result.Procedures)
	assert.NotNil(t, result.Findings)
	assert.NotNil(t, result.Recommendations)
}

func TestNewSelectsConfiguredProvider(t *testing.T) {
	cfg := config.LLMConfig{Provider: "ollama"}

	provider, err := New(cfg, "")
	require.NoError(t, err)
	assert.IsType(t, &OllamaProvider{}, provider)

	provider, err = New(cfg, "openai")
	require.NoError(t, err)
	assert.IsType(t, &OpenAIProvider{}, provider)

	_, err = New(cfg, "unknown")
	require.Error(t, err)
}
