package worker

import (
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/scribe-api/internal/config"
	"github.com/jwalitptl/scribe-api/internal/queue"
	apperrors "github.com/jwalitptl/scribe-api/pkg/errors"
)

func testProcessor() *Processor {
	return &Processor{
		cfg: config.ProcessingConfig{
			NotReadyBackoff:      time.Minute,
			FailureBackoff:       2 * time.Minute,
			TranscriptionBackoff: time.Minute,
			NoteBackoff:          30 * time.Second,
		},
	}
}

func TestRetryDelayPollsFasterWhenNotReady(t *testing.T) {
	p := testProcessor()
	task := asynq.NewTask(queue.ProcessAppointmentTask, nil)

	notReady := p.RetryDelay(0, apperrors.NewNotReady("1 of 2 transcripts completed"), task)
	assert.Equal(t, time.Minute, notReady)

	failed := p.RetryDelay(0, errors.New("connection refused"), task)
	assert.Equal(t, 2*time.Minute, failed)
}

func TestRetryDelayPerTask(t *testing.T) {
	p := testProcessor()
	err := errors.New("transient")

	assert.Equal(t, time.Minute, p.RetryDelay(0, err, asynq.NewTask(queue.TranscribeRecordingTask, nil)))
	assert.Equal(t, 30*time.Second, p.RetryDelay(0, err, asynq.NewTask(queue.GenerateNoteTask, nil)))
}
