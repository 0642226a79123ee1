package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// ProcessAppointmentTask fans out transcription and note generation for
	// one appointment. Scheduled by the trigger endpoint and re-scheduled by
	// the queue while transcripts are still pending.
	ProcessAppointmentTask = "appointment:process"

	// TranscribeRecordingTask converts one recording into a transcript.
	TranscribeRecordingTask = "transcript:generate"

	// GenerateNoteTask renders one (transcript, template) pair.
	GenerateNoteTask = "note:generate"
)

// ProcessAppointmentPayload identifies the appointment and the user who
// triggered processing.
type ProcessAppointmentPayload struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	ActorID       uuid.UUID `json:"actor_id"`
}

type TranscribeRecordingPayload struct {
	TranscriptID uuid.UUID `json:"transcript_id"`
	RecordingID  uuid.UUID `json:"recording_id"`
}

// GenerateNotePayload carries the content snapshots so the worker does not
// re-read transcript and template rows.
type GenerateNotePayload struct {
	NoteID            uuid.UUID `json:"note_id"`
	TranscriptContent string    `json:"transcript_content"`
	TemplateContent   string    `json:"template_content"`
	Provider          string    `json:"provider,omitempty"`
}

// Enqueuer dispatches background jobs. The orchestrator and the trigger
// endpoint only depend on this interface.
type Enqueuer interface {
	EnqueueProcessAppointment(ctx context.Context, payload ProcessAppointmentPayload, delay time.Duration) (string, error)
	EnqueueTranscribeRecording(ctx context.Context, payload TranscribeRecordingPayload) (string, error)
	EnqueueGenerateNote(ctx context.Context, payload GenerateNotePayload) (string, error)
}

// Options tune per-task retry budgets and the wall-clock job timeout.
type Options struct {
	OrchestratorMaxRetries int
	WorkerMaxRetries       int
	JobTimeout             time.Duration
}

func DefaultOptions() Options {
	return Options{
		OrchestratorMaxRetries: 2,
		WorkerMaxRetries:       3,
		JobTimeout:             10 * time.Minute,
	}
}

type Client struct {
	client *asynq.Client
	opts   Options
}

func NewClient(client *asynq.Client, opts Options) *Client {
	return &Client{client: client, opts: opts}
}

func (c *Client) EnqueueProcessAppointment(ctx context.Context, payload ProcessAppointmentPayload, delay time.Duration) (string, error) {
	return c.enqueue(ctx, ProcessAppointmentTask, payload,
		asynq.MaxRetry(c.opts.OrchestratorMaxRetries),
		asynq.Timeout(c.opts.JobTimeout),
		asynq.ProcessIn(delay),
	)
}

func (c *Client) EnqueueTranscribeRecording(ctx context.Context, payload TranscribeRecordingPayload) (string, error) {
	return c.enqueue(ctx, TranscribeRecordingTask, payload,
		asynq.MaxRetry(c.opts.WorkerMaxRetries),
		asynq.Timeout(c.opts.JobTimeout),
	)
}

func (c *Client) EnqueueGenerateNote(ctx context.Context, payload GenerateNotePayload) (string, error) {
	return c.enqueue(ctx, GenerateNoteTask, payload,
		asynq.MaxRetry(c.opts.WorkerMaxRetries),
		asynq.Timeout(c.opts.JobTimeout),
	)
}

func (c *Client) enqueue(ctx context.Context, taskName string, payload interface{}, opts ...asynq.Option) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskName, data)
	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", taskName, err)
	}
	return info.ID, nil
}
