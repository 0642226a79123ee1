package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
)

// Appointment owns the recordings captured during a visit. PatientRef is an
// external reference only, no PHI is stored on the row itself.
type Appointment struct {
	Base
	PracticeID      uuid.UUID         `db:"practice_id" json:"practice_id"`
	PatientRef      string            `db:"patient_ref" json:"patient_ref"`
	AppointmentDate time.Time         `db:"appointment_date" json:"appointment_date"`
	Status          AppointmentStatus `db:"status" json:"status"`
	Notes           string            `db:"notes" json:"notes,omitempty"`
	TemplateIDs     pq.StringArray    `db:"template_ids" json:"template_ids"`
}

// TemplateUUIDs parses the stored template id strings, skipping anything
// that does not parse.
func (a *Appointment) TemplateUUIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(a.TemplateIDs))
	for _, raw := range a.TemplateIDs {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

type CreateAppointmentRequest struct {
	PracticeID      uuid.UUID `json:"practice_id" binding:"required"`
	PatientRef      string    `json:"patient_ref" binding:"required,max=255"`
	AppointmentDate time.Time `json:"appointment_date" binding:"required"`
	Notes           string    `json:"notes" binding:"max=4000"`
	TemplateIDs     []string  `json:"template_ids" binding:"dive,uuid"`
}

type UpdateAppointmentRequest struct {
	PatientRef      *string            `json:"patient_ref"`
	AppointmentDate *time.Time         `json:"appointment_date"`
	Status          *AppointmentStatus `json:"status"`
	Notes           *string            `json:"notes"`
	TemplateIDs     *[]string          `json:"template_ids"`
}

type AppointmentFilters struct {
	PracticeID uuid.UUID
	Status     AppointmentStatus
	StartDate  time.Time
	EndDate    time.Time
}
