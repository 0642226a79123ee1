package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type TranscriptStatus string

const (
	TranscriptStatusPending    TranscriptStatus = "pending"
	TranscriptStatusProcessing TranscriptStatus = "processing"
	TranscriptStatusCompleted  TranscriptStatus = "completed"
	TranscriptStatusFailed     TranscriptStatus = "failed"
)

// TranscriptSegment is one timed span of the transcript.
type TranscriptSegment struct {
	StartTime  float64  `json:"start_time"`
	EndTime    float64  `json:"end_time"`
	Text       string   `json:"text"`
	Speaker    *string  `json:"speaker,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Segments is stored as a JSONB column.
type Segments []TranscriptSegment

func (s Segments) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal(Segments{})
	}
	return json.Marshal(s)
}

func (s *Segments) Scan(src interface{}) error {
	if src == nil {
		*s = Segments{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported segments type %T", src)
	}
	return json.Unmarshal(b, s)
}

// Transcript holds the speech-to-text result for exactly one recording,
// RecordingID carries a unique index.
type Transcript struct {
	Base
	RecordingID uuid.UUID        `db:"recording_id" json:"recording_id"`
	Content     string           `db:"content" json:"content"`
	Segments    Segments         `db:"segments" json:"segments"`
	Status      TranscriptStatus `db:"status" json:"status"`
	Language    string           `db:"language" json:"language"`
	WordCount   *int             `db:"word_count" json:"word_count,omitempty"`
}
