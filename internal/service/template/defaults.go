package template

import "github.com/jwalitptl/scribe-api/internal/model"

// DefaultTemplates are the system-wide templates seeded on startup. They are
// owned by no practice and cover the common clinical note formats.
func DefaultTemplates() []*model.Template {
	return []*model.Template{
		{
			Name:         "SOAP Note",
			Description:  "Standard SOAP format (Subjective, Objective, Assessment, Plan)",
			TemplateType: model.TemplateTypeSOAP,
			Content:      soapContent,
			Variables:    clinicalVariables(),
			Version:      1,
			IsDefault:    true,
			IsActive:     true,
		},
		{
			Name:         "DAP Note",
			Description:  "Data, Assessment, Plan format",
			TemplateType: model.TemplateTypeDAP,
			Content:      dapContent,
			Variables:    clinicalVariables(),
			Version:      1,
			IsDefault:    true,
			IsActive:     true,
		},
		{
			Name:         "Narrative Note",
			Description:  "Free-form narrative clinical note",
			TemplateType: model.TemplateTypeNarrative,
			Content:      narrativeContent,
			Variables:    clinicalVariables(),
			Version:      1,
			IsDefault:    true,
			IsActive:     true,
		},
	}
}

func clinicalVariables() model.TemplateVariables {
	return model.TemplateVariables{
		{Name: "chief_complaint", Description: "Reason for the visit", Required: true},
		{Name: "findings", Description: "Clinical examination findings", Required: false},
		{Name: "procedures", Description: "Procedures performed", Required: false},
		{Name: "recommendations", Description: "Recommendations and follow-up", Required: false},
		{Name: "summary", Description: "Visit summary", Required: false},
	}
}

const soapContent = `DENTAL CLINICAL NOTE - SOAP FORMAT

Date: {{date}}
Provider: {{provider}}

SUBJECTIVE:
Chief Complaint: {{chief_complaint}}

OBJECTIVE:
Clinical Examination:
{{findings}}

ASSESSMENT:
{{summary}}

PLAN:
Procedures Performed:
{{procedures}}

Recommendations:
{{recommendations}}

_____________________________
Provider Signature
`

const dapContent = `DENTAL CLINICAL NOTE - DAP FORMAT

Date: {{date}}
Provider: {{provider}}

DATA:
{{chief_complaint}}

Clinical Findings:
{{findings}}

ASSESSMENT:
{{summary}}

PLAN:
{{procedures}}

Recommendations:
{{recommendations}}

_____________________________
Provider Signature
`

const narrativeContent = `DENTAL CLINICAL NOTE

Date: {{date}}
Provider: {{provider}}
Patient Reference: {{patient_ref}}

{{summary}}

Chief Complaint:
{{chief_complaint}}

Clinical Findings:
{{findings}}

Treatment Provided:
{{procedures}}

Recommendations and Follow-up:
{{recommendations}}

_____________________________
Provider Signature
`
