package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/scribe-api/internal/model"
	"github.com/jwalitptl/scribe-api/internal/repository"
	"github.com/jwalitptl/scribe-api/internal/service/audit"
	apperrors "github.com/jwalitptl/scribe-api/pkg/errors"
)

type Service struct {
	repo    repository.AppointmentRepository
	auditor *audit.Service
}

func NewService(repo repository.AppointmentRepository, auditor *audit.Service) *Service {
	return &Service{repo: repo, auditor: auditor}
}

func (s *Service) Create(ctx context.Context, actorID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	appointment := &model.Appointment{
		PracticeID:      req.PracticeID,
		PatientRef:      req.PatientRef,
		AppointmentDate: req.AppointmentDate,
		Status:          model.AppointmentStatusScheduled,
		Notes:           req.Notes,
		TemplateIDs:     req.TemplateIDs,
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		return nil, err
	}

	s.auditor.LogAsync(ctx, actorID, model.AuditActionCreate, model.AuditResourceAppointment, appointment.ID, true, nil)
	return appointment, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Update(ctx context.Context, actorID, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status == model.AppointmentStatusInProgress {
		return nil, apperrors.NewInvalidState("appointment is being processed")
	}

	if req.PatientRef != nil {
		appointment.PatientRef = *req.PatientRef
	}
	if req.AppointmentDate != nil {
		appointment.AppointmentDate = *req.AppointmentDate
	}
	if req.Status != nil {
		appointment.Status = *req.Status
	}
	if req.Notes != nil {
		appointment.Notes = *req.Notes
	}
	if req.TemplateIDs != nil {
		appointment.TemplateIDs = *req.TemplateIDs
	}

	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, err
	}

	s.auditor.LogAsync(ctx, actorID, model.AuditActionUpdate, model.AuditResourceAppointment, id, true, nil)
	return appointment, nil
}

// Cancel marks the appointment cancelled. In-flight background work is not
// aborted, the orchestrator stops advancing a cancelled appointment on its
// next run.
func (s *Service) Cancel(ctx context.Context, actorID, id uuid.UUID) error {
	if err := s.repo.Cancel(ctx, id); err != nil {
		return err
	}
	s.auditor.LogAsync(ctx, actorID, model.AuditActionDelete, model.AuditResourceAppointment, id, true, nil)
	return nil
}
