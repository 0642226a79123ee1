package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scribe-api/internal/model"
	"github.com/jwalitptl/scribe-api/internal/service/template"
)

func TestRenderSubstitutesVariables(t *testing.T) {
	content := "Chief Complaint: {{chief_complaint}}\nPlan: {{ procedures }}"
	out := template.Render(content, map[string]string{
		"chief_complaint": "toothache",
		"procedures":      "- filling",
	})

	assert.Equal(t, "Chief Complaint: toothache\nPlan: - filling", out)
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	out := template.Render("Provider: {{provider}}", map[string]string{})

	assert.Equal(t, "Provider: {{provider}}", out)
}

func TestExtractVariablesDedupesInOrder(t *testing.T) {
	content := "{{summary}} {{findings}} {{summary}} {{ procedures }}"

	names := template.ExtractVariables(content)

	assert.Equal(t, []string{"summary", "findings", "procedures"}, names)
}

func TestBulletListEmpty(t *testing.T) {
	assert.Equal(t, "None documented", template.BulletList(nil))
	assert.Equal(t, "None documented", template.NumberedList(nil))
}

func TestBulletListFormatsItems(t *testing.T) {
	out := template.BulletList([]string{"caries on tooth 3", "gingival inflammation"})
	assert.Equal(t, "- caries on tooth 3\n- gingival inflammation", out)

	numbered := template.NumberedList([]string{"floss daily", "return in 6 months"})
	assert.Equal(t, "1. floss daily\n2. return in 6 months", numbered)
}

func TestVariablesFromAnalysis(t *testing.T) {
	chief := "cracked molar"
	analysis := &model.AnalysisResult{
		ChiefComplaint:  &chief,
		Procedures:      []string{"crown prep"},
		Findings:        []string{},
		Recommendations: []string{"soft foods"},
	}

	vars := template.VariablesFromAnalysis(analysis, "full transcript")

	assert.Equal(t, "cracked molar", vars["chief_complaint"])
	assert.Equal(t, "- crown prep", vars["procedures"])
	assert.Equal(t, "None documented", vars["findings"])
	assert.Equal(t, "1. soft foods", vars["recommendations"])
	assert.Equal(t, "full transcript", vars["transcript"])
}

func TestVariablesFromNilAnalysis(t *testing.T) {
	vars := template.VariablesFromAnalysis(nil, "")

	assert.Equal(t, "Not specified", vars["chief_complaint"])
	assert.Equal(t, "None documented", vars["procedures"])
}

func TestDefaultTemplatesRenderable(t *testing.T) {
	for _, tpl := range template.DefaultTemplates() {
		names := template.ExtractVariables(tpl.Content)
		require.NotEmpty(t, names, tpl.Name)
		assert.Contains(t, names, "chief_complaint", tpl.Name)
	}
}
