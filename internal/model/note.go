package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NoteStatus string

const (
	NoteStatusDraft     NoteStatus = "draft"
	NoteStatusGenerated NoteStatus = "generated"
	NoteStatusReviewed  NoteStatus = "reviewed"
	NoteStatusFinalized NoteStatus = "finalized"
	NoteStatusExported  NoteStatus = "exported"
)

// ClinicalEntity is a single extracted item from the transcript analysis.
type ClinicalEntity struct {
	EntityType string   `json:"entity_type"`
	Value      string   `json:"value"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// AnalysisResult is the structured output of the LLM analysis pass.
type AnalysisResult struct {
	ChiefComplaint  *string          `json:"chief_complaint,omitempty"`
	Procedures      []string         `json:"procedures"`
	Findings        []string         `json:"findings"`
	Recommendations []string         `json:"recommendations"`
	Entities        []ClinicalEntity `json:"entities"`
	Summary         *string          `json:"summary,omitempty"`
}

// EmptyAnalysisResult returns a result with all list fields present but
// empty, used when provider output cannot be parsed.
func EmptyAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		Procedures:      []string{},
		Findings:        []string{},
		Recommendations: []string{},
		Entities:        []ClinicalEntity{},
	}
}

func (a *AnalysisResult) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func (a *AnalysisResult) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported analysis type %T", src)
	}
	return json.Unmarshal(b, a)
}

// ClinicalNote is the rendered output for one (transcript, template) pair,
// the pair carries a unique index.
type ClinicalNote struct {
	Base
	TranscriptID     uuid.UUID       `db:"transcript_id" json:"transcript_id"`
	TemplateID       uuid.UUID       `db:"template_id" json:"template_id"`
	GeneratedContent string          `db:"generated_content" json:"generated_content"`
	FinalContent     *string         `db:"final_content" json:"final_content,omitempty"`
	Analysis         *AnalysisResult `db:"analysis" json:"analysis,omitempty"`
	Status           NoteStatus      `db:"status" json:"status"`
	ReviewedAt       *time.Time      `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy       *uuid.UUID      `db:"reviewed_by" json:"reviewed_by,omitempty"`
	FinalizedAt      *time.Time      `db:"finalized_at" json:"finalized_at,omitempty"`
	FinalizedBy      *uuid.UUID      `db:"finalized_by" json:"finalized_by,omitempty"`
}

type CreateNoteRequest struct {
	TranscriptID uuid.UUID `json:"transcript_id" binding:"required"`
	TemplateID   uuid.UUID `json:"template_id" binding:"required"`
}

type UpdateNoteRequest struct {
	FinalContent *string     `json:"final_content"`
	Status       *NoteStatus `json:"status"`
}
