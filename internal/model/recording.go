package model

import (
	"github.com/google/uuid"
)

type RecordingStatus string

const (
	RecordingStatusUploading   RecordingStatus = "uploading"
	RecordingStatusUploaded    RecordingStatus = "uploaded"
	RecordingStatusProcessing  RecordingStatus = "processing"
	RecordingStatusTranscribed RecordingStatus = "transcribed"
	RecordingStatusFailed      RecordingStatus = "failed"
)

// Recording is an uploaded audio file tied to an appointment. The row is
// immutable once transcribed or failed, apart from soft deletion.
type Recording struct {
	Base
	AppointmentID   uuid.UUID       `db:"appointment_id" json:"appointment_id"`
	StoragePath     string          `db:"storage_path" json:"storage_path"`
	Filename        string          `db:"filename" json:"filename"`
	ContentType     string          `db:"content_type" json:"content_type"`
	FileSize        int64           `db:"file_size" json:"file_size"`
	DurationSeconds *int            `db:"duration_seconds" json:"duration_seconds,omitempty"`
	Status          RecordingStatus `db:"status" json:"status"`
}
