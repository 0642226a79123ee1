package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jwalitptl/scribe-api/internal/config"
	"github.com/jwalitptl/scribe-api/internal/queue"
	"github.com/jwalitptl/scribe-api/internal/service/notegen"
	"github.com/jwalitptl/scribe-api/internal/service/processing"
	"github.com/jwalitptl/scribe-api/internal/service/transcription"
	apperrors "github.com/jwalitptl/scribe-api/pkg/errors"
	"github.com/jwalitptl/scribe-api/pkg/logger"
	"github.com/jwalitptl/scribe-api/pkg/metrics"
)

// Processor wires the queue tasks to their services and owns the failure
// policy at the job boundary: permanent errors skip retries, exhausted
// orchestrations revert the appointment.
type Processor struct {
	processing    *processing.Service
	transcription *transcription.Service
	notegen       *notegen.Service
	metrics       *metrics.Metrics
	logger        *logger.Logger
	cfg           config.ProcessingConfig
}

func NewProcessor(
	proc *processing.Service,
	trans *transcription.Service,
	gen *notegen.Service,
	m *metrics.Metrics,
	lg *logger.Logger,
	cfg config.ProcessingConfig,
) *Processor {
	return &Processor{
		processing:    proc,
		transcription: trans,
		notegen:       gen,
		metrics:       m,
		logger:        lg,
		cfg:           cfg,
	}
}

// Handler returns the task mux for the asynq server.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.ProcessAppointmentTask, p.handleProcessAppointment)
	mux.HandleFunc(queue.TranscribeRecordingTask, p.handleTranscribeRecording)
	mux.HandleFunc(queue.GenerateNoteTask, p.handleGenerateNote)
	return mux
}

// RetryDelay schedules retries per task: a not-ready orchestration polls on a
// short interval, everything else backs off longer.
func (p *Processor) RetryDelay(n int, err error, task *asynq.Task) time.Duration {
	switch task.Type() {
	case queue.ProcessAppointmentTask:
		if apperrors.IsNotReady(err) {
			return p.cfg.NotReadyBackoff
		}
		return p.cfg.FailureBackoff
	case queue.TranscribeRecordingTask:
		return p.cfg.TranscriptionBackoff
	case queue.GenerateNoteTask:
		return p.cfg.NoteBackoff
	default:
		return asynq.DefaultRetryDelayFunc(n, err, task)
	}
}

func (p *Processor) handleProcessAppointment(ctx context.Context, task *asynq.Task) error {
	var payload queue.ProcessAppointmentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	start := time.Now()
	summary, err := p.processing.Run(ctx, payload.AppointmentID, payload.ActorID)
	p.metrics.JobDuration.WithLabelValues(queue.ProcessAppointmentTask).Observe(time.Since(start).Seconds())

	if summary != nil {
		p.metrics.TranscriptsQueued.Add(float64(summary.TranscriptsQueued))
		p.metrics.NotesQueued.Add(float64(summary.NotesQueued))
	}

	if err == nil {
		p.metrics.JobsProcessed.WithLabelValues(queue.ProcessAppointmentTask).Inc()
		return nil
	}

	if apperrors.IsPermanent(err) {
		p.metrics.JobsFailed.WithLabelValues(queue.ProcessAppointmentTask).Inc()
		p.processing.HandleFailure(ctx, payload.AppointmentID, payload.ActorID, err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if p.lastAttempt(ctx) {
		p.metrics.JobsFailed.WithLabelValues(queue.ProcessAppointmentTask).Inc()
		p.processing.HandleFailure(ctx, payload.AppointmentID, payload.ActorID, err)
		return err
	}

	p.metrics.JobsRetried.WithLabelValues(queue.ProcessAppointmentTask).Inc()
	if summary != nil && apperrors.IsNotReady(err) {
		p.logger.ZL.Info().
			Str("appointment_id", payload.AppointmentID.String()).
			Int("transcripts_completed", summary.TranscriptsCompleted).
			Int("recordings", summary.RecordingsConsidered).
			Msg("orchestration waiting on transcripts")
	}
	return err
}

func (p *Processor) handleTranscribeRecording(ctx context.Context, task *asynq.Task) error {
	var payload queue.TranscribeRecordingPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	start := time.Now()
	err := p.transcription.Transcribe(ctx, payload.TranscriptID, payload.RecordingID)
	p.metrics.JobDuration.WithLabelValues(queue.TranscribeRecordingTask).Observe(time.Since(start).Seconds())

	return p.finish(queue.TranscribeRecordingTask, err)
}

func (p *Processor) handleGenerateNote(ctx context.Context, task *asynq.Task) error {
	var payload queue.GenerateNotePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	start := time.Now()
	err := p.notegen.Generate(ctx, payload.NoteID, payload.TranscriptContent, payload.TemplateContent, payload.Provider)
	p.metrics.JobDuration.WithLabelValues(queue.GenerateNoteTask).Observe(time.Since(start).Seconds())

	return p.finish(queue.GenerateNoteTask, err)
}

func (p *Processor) finish(taskName string, err error) error {
	if err == nil {
		p.metrics.JobsProcessed.WithLabelValues(taskName).Inc()
		return nil
	}
	if apperrors.IsPermanent(err) {
		p.metrics.JobsFailed.WithLabelValues(taskName).Inc()
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	p.metrics.JobsRetried.WithLabelValues(taskName).Inc()
	return err
}

// lastAttempt reports whether the current delivery has no retries left.
func (p *Processor) lastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return false
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return false
	}
	return retried >= maxRetry
}
