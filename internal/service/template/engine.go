package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jwalitptl/scribe-api/internal/model"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// Render substitutes {{variable}} placeholders with their values. Unknown
// placeholders are left in place so missing data stays visible in the draft.
func Render(content string, variables map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := variables[name]; ok {
			return value
		}
		return match
	})
}

// ExtractVariables returns the distinct placeholder names in template order.
func ExtractVariables(content string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(content, -1) {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// VariablesFromAnalysis maps a clinical analysis onto the variable names the
// seeded templates use.
func VariablesFromAnalysis(analysis *model.AnalysisResult, transcript string) map[string]string {
	if analysis == nil {
		analysis = model.EmptyAnalysisResult()
	}
	return map[string]string{
		"chief_complaint": orDefault(analysis.ChiefComplaint, "Not specified"),
		"procedures":      BulletList(analysis.Procedures),
		"findings":        BulletList(analysis.Findings),
		"recommendations": NumberedList(analysis.Recommendations),
		"summary":         orDefault(analysis.Summary, ""),
		"transcript":      transcript,
	}
}

// BulletList renders items as a markdown bullet list, or a placeholder line
// when there is nothing to list.
func BulletList(items []string) string {
	if len(items) == 0 {
		return "None documented"
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return strings.Join(lines, "\n")
}

// NumberedList renders items as a numbered list, or a placeholder line when
// there is nothing to list.
func NumberedList(items []string) string {
	if len(items) == 0 {
		return "None documented"
	}
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
	}
	return strings.Join(lines, "\n")
}

func orDefault(v *string, fallback string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fallback
	}
	return *v
}
