package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records who touched which resource, including the processing
// lifecycle events emitted by the background workers.
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	ActorID      uuid.UUID       `json:"actor_id" db:"actor_id"`
	Action       string          `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"`
	ResourceID   uuid.UUID       `json:"resource_id" db:"resource_id"`
	Success      bool            `json:"success" db:"success"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"`
	IPAddress    string          `json:"ip_address,omitempty" db:"ip_address"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionCreate            = "create"
	AuditActionRead              = "read"
	AuditActionUpdate            = "update"
	AuditActionDelete            = "delete"
	AuditActionUpload            = "upload"
	AuditActionGenerate          = "generate"
	AuditActionProcessingStart   = "processing_start"
	AuditActionProcessingDone    = "processing_complete"
	AuditActionProcessingFailure = "processing_failed"

	// Resource types
	AuditResourceAppointment = "appointment"
	AuditResourceRecording   = "recording"
	AuditResourceTranscript  = "transcript"
	AuditResourceTemplate    = "template"
	AuditResourceNote        = "clinical_note"
)
