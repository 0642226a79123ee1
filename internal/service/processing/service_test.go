package processing_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scribe-api/internal/config"
	"github.com/jwalitptl/scribe-api/internal/model"
	"github.com/jwalitptl/scribe-api/internal/queue"
	"github.com/jwalitptl/scribe-api/internal/service/audit"
	"github.com/jwalitptl/scribe-api/internal/service/processing"
	apperrors "github.com/jwalitptl/scribe-api/pkg/errors"
	"github.com/jwalitptl/scribe-api/pkg/logger"
)

// ---- in-memory fakes ----

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
	notes        map[uuid.UUID][]string
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{
		appointments: make(map[uuid.UUID]*model.Appointment),
		notes:        make(map[uuid.UUID][]string),
	}
}

func (r *fakeAppointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.appointments[a.ID] = a
	return nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NewNotFound("appointment", nil)
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, a *model.Appointment) error {
	r.appointments[a.ID] = a
	return nil
}

func (r *fakeAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	a, ok := r.appointments[id]
	if !ok {
		return apperrors.NewNotFound("appointment", nil)
	}
	a.Status = status
	return nil
}

func (r *fakeAppointmentRepo) AppendNote(_ context.Context, id uuid.UUID, note string) error {
	r.notes[id] = append(r.notes[id], note)
	return nil
}

func (r *fakeAppointmentRepo) Cancel(_ context.Context, id uuid.UUID) error {
	return r.UpdateStatus(context.Background(), id, model.AppointmentStatusCancelled)
}

func (r *fakeAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}

type fakeRecordingRepo struct {
	recordings map[uuid.UUID]*model.Recording
}

func newFakeRecordingRepo() *fakeRecordingRepo {
	return &fakeRecordingRepo{recordings: make(map[uuid.UUID]*model.Recording)}
}

func (r *fakeRecordingRepo) Create(_ context.Context, rec *model.Recording) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	r.recordings[rec.ID] = rec
	return nil
}

func (r *fakeRecordingRepo) Get(_ context.Context, id uuid.UUID) (*model.Recording, error) {
	rec, ok := r.recordings[id]
	if !ok {
		return nil, apperrors.NewNotFound("recording", nil)
	}
	return rec, nil
}

func (r *fakeRecordingRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.RecordingStatus) error {
	rec, ok := r.recordings[id]
	if !ok {
		return apperrors.NewNotFound("recording", nil)
	}
	rec.Status = status
	return nil
}

func (r *fakeRecordingRepo) ListByAppointment(_ context.Context, appointmentID uuid.UUID) ([]*model.Recording, error) {
	var out []*model.Recording
	for _, rec := range r.recordings {
		if rec.AppointmentID == appointmentID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRecordingRepo) ListByAppointmentAndStatus(_ context.Context, appointmentID uuid.UUID, status model.RecordingStatus) ([]*model.Recording, error) {
	var out []*model.Recording
	for _, rec := range r.recordings {
		if rec.AppointmentID == appointmentID && rec.Status == status {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeTranscriptRepo struct {
	byRecording map[uuid.UUID]*model.Transcript
}

func newFakeTranscriptRepo() *fakeTranscriptRepo {
	return &fakeTranscriptRepo{byRecording: make(map[uuid.UUID]*model.Transcript)}
}

func (r *fakeTranscriptRepo) CreateIfAbsent(_ context.Context, t *model.Transcript) (*model.Transcript, bool, error) {
	if existing, ok := r.byRecording[t.RecordingID]; ok {
		return existing, false, nil
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.byRecording[t.RecordingID] = t
	return t, true, nil
}

func (r *fakeTranscriptRepo) Get(_ context.Context, id uuid.UUID) (*model.Transcript, error) {
	for _, t := range r.byRecording {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, apperrors.NewNotFound("transcript", nil)
}

func (r *fakeTranscriptRepo) GetByRecording(_ context.Context, recordingID uuid.UUID) (*model.Transcript, error) {
	t, ok := r.byRecording[recordingID]
	if !ok {
		return nil, apperrors.NewNotFound("transcript", nil)
	}
	return t, nil
}

func (r *fakeTranscriptRepo) ListByRecordings(_ context.Context, recordingIDs []uuid.UUID) ([]*model.Transcript, error) {
	var out []*model.Transcript
	for _, id := range recordingIDs {
		if t, ok := r.byRecording[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTranscriptRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.TranscriptStatus) error {
	t, err := r.Get(context.Background(), id)
	if err != nil {
		return err
	}
	t.Status = status
	return nil
}

func (r *fakeTranscriptRepo) UpdateResult(_ context.Context, transcript *model.Transcript) error {
	stored, err := r.Get(context.Background(), transcript.ID)
	if err != nil {
		return err
	}
	*stored = *transcript
	return nil
}

type fakeTemplateRepo struct {
	templates map[uuid.UUID]*model.Template
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: make(map[uuid.UUID]*model.Template)}
}

func (r *fakeTemplateRepo) Create(_ context.Context, t *model.Template) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.templates[t.ID] = t
	return nil
}

func (r *fakeTemplateRepo) Get(_ context.Context, id uuid.UUID) (*model.Template, error) {
	t, ok := r.templates[id]
	if !ok {
		return nil, apperrors.NewNotFound("template", nil)
	}
	return t, nil
}

func (r *fakeTemplateRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*model.Template, error) {
	var out []*model.Template
	for _, id := range ids {
		if t, ok := r.templates[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTemplateRepo) List(_ context.Context, _ *uuid.UUID) ([]*model.Template, error) {
	var out []*model.Template
	for _, t := range r.templates {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTemplateRepo) Update(_ context.Context, t *model.Template) error {
	r.templates[t.ID] = t
	return nil
}

type notePair struct {
	transcriptID uuid.UUID
	templateID   uuid.UUID
}

type fakeNoteRepo struct {
	byPair map[notePair]*model.ClinicalNote
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{byPair: make(map[notePair]*model.ClinicalNote)}
}

func (r *fakeNoteRepo) CreateIfAbsent(_ context.Context, n *model.ClinicalNote) (*model.ClinicalNote, bool, error) {
	key := notePair{n.TranscriptID, n.TemplateID}
	if existing, ok := r.byPair[key]; ok {
		return existing, false, nil
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	r.byPair[key] = n
	return n, true, nil
}

func (r *fakeNoteRepo) Get(_ context.Context, id uuid.UUID) (*model.ClinicalNote, error) {
	for _, n := range r.byPair {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, apperrors.NewNotFound("clinical note", nil)
}

func (r *fakeNoteRepo) GetByPair(_ context.Context, transcriptID, templateID uuid.UUID) (*model.ClinicalNote, error) {
	n, ok := r.byPair[notePair{transcriptID, templateID}]
	if !ok {
		return nil, apperrors.NewNotFound("clinical note", nil)
	}
	return n, nil
}

func (r *fakeNoteRepo) ListByTranscript(_ context.Context, transcriptID uuid.UUID) ([]*model.ClinicalNote, error) {
	var out []*model.ClinicalNote
	for _, n := range r.byPair {
		if n.TranscriptID == transcriptID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNoteRepo) UpdateGenerated(_ context.Context, id uuid.UUID, content string, analysis *model.AnalysisResult, status model.NoteStatus) error {
	n, err := r.Get(context.Background(), id)
	if err != nil {
		return err
	}
	n.GeneratedContent = content
	n.Analysis = analysis
	n.Status = status
	return nil
}

func (r *fakeNoteRepo) Update(_ context.Context, n *model.ClinicalNote) error {
	r.byPair[notePair{n.TranscriptID, n.TemplateID}] = n
	return nil
}

type fakeAuditRepo struct{}

func (fakeAuditRepo) Create(_ context.Context, _ *model.AuditLog) error { return nil }
func (fakeAuditRepo) List(_ context.Context, _ map[string]interface{}) ([]*model.AuditLog, error) {
	return nil, nil
}

// fakeEnqueuer records every dispatched task.
type fakeEnqueuer struct {
	processCalls    []queue.ProcessAppointmentPayload
	transcribeCalls []queue.TranscribeRecordingPayload
	noteCalls       []queue.GenerateNotePayload
}

func (e *fakeEnqueuer) EnqueueProcessAppointment(_ context.Context, p queue.ProcessAppointmentPayload, _ time.Duration) (string, error) {
	e.processCalls = append(e.processCalls, p)
	return uuid.NewString(), nil
}

func (e *fakeEnqueuer) EnqueueTranscribeRecording(_ context.Context, p queue.TranscribeRecordingPayload) (string, error) {
	e.transcribeCalls = append(e.transcribeCalls, p)
	return uuid.NewString(), nil
}

func (e *fakeEnqueuer) EnqueueGenerateNote(_ context.Context, p queue.GenerateNotePayload) (string, error) {
	e.noteCalls = append(e.noteCalls, p)
	return uuid.NewString(), nil
}

type fakeLocker struct {
	acquired bool
	held     int
}

func (l *fakeLocker) Acquire(_ context.Context, _ string, _ time.Duration) (func(), bool, error) {
	if !l.acquired {
		return func() {}, false, nil
	}
	l.held++
	return func() { l.held-- }, true, nil
}

// ---- fixture ----

type fixture struct {
	svc          *processing.Service
	appointments *fakeAppointmentRepo
	recordings   *fakeRecordingRepo
	transcripts  *fakeTranscriptRepo
	templates    *fakeTemplateRepo
	notes        *fakeNoteRepo
	enqueuer     *fakeEnqueuer
	locker       *fakeLocker
}

func newFixture() *fixture {
	f := &fixture{
		appointments: newFakeAppointmentRepo(),
		recordings:   newFakeRecordingRepo(),
		transcripts:  newFakeTranscriptRepo(),
		templates:    newFakeTemplateRepo(),
		notes:        newFakeNoteRepo(),
		enqueuer:     &fakeEnqueuer{},
		locker:       &fakeLocker{acquired: true},
	}

	lg := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	f.svc = processing.NewService(
		f.appointments, f.recordings, f.transcripts, f.templates, f.notes,
		f.enqueuer, f.locker, audit.NewService(fakeAuditRepo{}), lg,
		config.ProcessingConfig{
			OrchestratorMaxRetries: 2,
			NotReadyBackoff:        time.Minute,
			FailureBackoff:         2 * time.Minute,
			LockTTL:                5 * time.Minute,
		},
	)
	return f
}

func (f *fixture) addAppointment(templateIDs ...uuid.UUID) *model.Appointment {
	ids := make([]string, 0, len(templateIDs))
	for _, id := range templateIDs {
		ids = append(ids, id.String())
	}
	a := &model.Appointment{
		PracticeID:      uuid.New(),
		PatientRef:      "patient-001",
		AppointmentDate: time.Now(),
		Status:          model.AppointmentStatusScheduled,
		TemplateIDs:     ids,
	}
	_ = f.appointments.Create(context.Background(), a)
	return a
}

func (f *fixture) addTemplate() *model.Template {
	t := &model.Template{
		Name:         "SOAP Note",
		TemplateType: model.TemplateTypeSOAP,
		Content:      "Chief Complaint: {{chief_complaint}}",
		IsActive:     true,
	}
	_ = f.templates.Create(context.Background(), t)
	return t
}

func (f *fixture) addRecording(appointmentID uuid.UUID, status model.RecordingStatus) *model.Recording {
	r := &model.Recording{
		AppointmentID: appointmentID,
		StoragePath:   "recordings/" + uuid.NewString() + ".mp3",
		Filename:      "visit.mp3",
		ContentType:   "audio/mpeg",
		FileSize:      1024,
		Status:        status,
	}
	_ = f.recordings.Create(context.Background(), r)
	return r
}

func (f *fixture) completeTranscript(recordingID uuid.UUID, content string) *model.Transcript {
	t, _ := f.transcripts.GetByRecording(context.Background(), recordingID)
	t.Content = content
	t.Status = model.TranscriptStatusCompleted
	_ = f.recordings.UpdateStatus(context.Background(), recordingID, model.RecordingStatusTranscribed)
	return t
}

// ---- tests ----

func TestRunDispatchesTranscriptionOncePerRecording(t *testing.T) {
	f := newFixture()
	template := f.addTemplate()
	appointment := f.addAppointment(template.ID)
	f.addRecording(appointment.ID, model.RecordingStatusUploaded)
	f.addRecording(appointment.ID, model.RecordingStatusUploaded)

	_, err := f.svc.Run(context.Background(), appointment.ID, uuid.Nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotReady(err))

	// Second run while nothing completed: no duplicate rows or jobs.
	_, err = f.svc.Run(context.Background(), appointment.ID, uuid.Nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotReady(err))

	assert.Len(t, f.transcripts.byRecording, 2)
	assert.Len(t, f.enqueuer.transcribeCalls, 2)
}

func TestRunCreatesNoNotesWhileTranscriptsPending(t *testing.T) {
	f := newFixture()
	template := f.addTemplate()
	appointment := f.addAppointment(template.ID)
	r1 := f.addRecording(appointment.ID, model.RecordingStatusUploaded)
	f.addRecording(appointment.ID, model.RecordingStatusUploaded)

	_, err := f.svc.Run(context.Background(), appointment.ID, uuid.Nil)
	require.True(t, apperrors.IsNotReady(err))

	// One of two completes: still not ready, still no notes.
	f.completeTranscript(r1.ID, "transcript one")

	summary, err := f.svc.Run(context.Background(), appointment.ID, uuid.Nil)
	require.True(t, apperrors.IsNotReady(err))
	assert.Equal(t, 1, summary.TranscriptsCompleted)
	assert.Empty(t, f.notes.byPair)
	assert.Empty(t, f.enqueuer.noteCalls)
}

func TestRunCreatesNotePerTranscriptTemplatePair(t *testing.T) {
	f := newFixture()
	t1 := f.addTemplate()
	t2 := f.addTemplate()
	t3 := f.addTemplate()
	appointment := f.addAppointment(t1.ID, t2.ID, t3.ID)
	r1 := f.addRecording(appointment.ID, model.RecordingStatusUploaded)
	r2 := f.addRecording(appointment.ID, model.RecordingStatusUploaded)

	_, err := f.svc.Run(context.Background(), appointment.ID, uuid.Nil)
	require.True(t, apperrors.IsNotReady(err))

	f.completeTranscript(r1.ID, "transcript one")
	f.completeTranscript(r2.ID, "transcript two")

	summary, err := f.svc.Run(context.Background(), appointment.ID, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 6, summary.NotesQueued)
	assert.Len(t, f.notes.byPair, 6)

	for _, note := range f.notes.byPair {
		assert.Equal(t, model.NoteStatusDraft, note.Status)
		assert.Empty(t, note.GeneratedContent)
	}
}

func TestRunCreatesNoDuplicateNotes(t *testing.T) {
	f := newFixture()
	template := f.addTemplate()
	appointment := f.addAppointment(template.ID)
	r1 := f.addRecording(appointment.ID, model.RecordingStatusUploaded)

	_, err := f.svc.Run(context.Background(), appointment.ID, uuid.Nil)
	require.True(t, apperrors.IsNotReady(err))
	f.completeTranscript(r1.ID, "transcript one")

	_, err = f.svc.Run(context.Background(), appointment.ID, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, f.notes.byPair, 1)
	noteCalls := len(f.enqueuer.noteCalls)

	// Re-running a completed appointment adds nothing.
	_, err = f.svc.Run(context.Background(), appointment.ID, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, f.notes.byPair, 1)
	assert.Len(t, f.enqueuer.noteCalls, noteCalls)
}

func TestStartRejectsAppointmentWithoutTemplates(t *testing.T) {
	f := newFixture()
	appointment := f.addAppointment()
	f.addRecording(appointment.ID, model.RecordingStatusUploaded)

	_, err := f.svc.Start(context.Background(), appointment.ID, uuid.Nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInvalidState, apperrors.Code(err))
	assert.Empty(t, f.enqueuer.processCalls)

	stored, _ := f.appointments.Get(context.Background(), appointment.ID)
	assert.Equal(t, model.AppointmentStatusScheduled, stored.Status)
}

func TestStartRejectsAppointmentWithoutUploadedRecordings(t *testing.T) {
	f := newFixture()
	template := f.addTemplate()
	appointment := f.addAppointment(template.ID)

	_, err := f.svc.Start(context.Background(), appointment.ID, uuid.Nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInvalidState, apperrors.Code(err))
	assert.Empty(t, f.enqueuer.processCalls)
}

func TestStartEnqueuesAndFlipsToInProgress(t *testing.T) {
	f := newFixture()
	template := f.addTemplate()
	appointment := f.addAppointment(template.ID)
	f.addRecording(appointment.ID, model.RecordingStatusUploaded)

	taskID, err := f.svc.Start(context.Background(), appointment.ID, uuid.New())
	require.NoError(t, err)
	assert.NotEmpty(t, taskID)
	require.Len(t, f.enqueuer.processCalls, 1)

	stored, _ := f.appointments.Get(context.Background(), appointment.ID)
	assert.Equal(t, model.AppointmentStatusInProgress, stored.Status)
}

func TestRunMarksAppointmentCompleted(t *testing.T) {
	f := newFixture()
	template := f.addTemplate()
	appointment := f.addAppointment(template.ID)
	r1 := f.addRecording(appointment.ID, model.RecordingStatusUploaded)

	_, err := f.svc.Run(context.Background(), appointment.ID, uuid.Nil)
	require.True(t, apperrors.IsNotReady(err))
	f.completeTranscript(r1.ID, "transcript one")

	_, err = f.svc.Run(context.Background(), appointment.ID, uuid.Nil)
	require.NoError(t, err)

	stored, _ := f.appointments.Get(context.Background(), appointment.ID)
	assert.Equal(t, model.AppointmentStatusCompleted, stored.Status)
}

func TestHandleFailureRevertsToScheduledWithDiagnostic(t *testing.T) {
	f := newFixture()
	template := f.addTemplate()
	appointment := f.addAppointment(template.ID)
	_ = f.appointments.UpdateStatus(context.Background(), appointment.ID, model.AppointmentStatusInProgress)

	f.svc.HandleFailure(context.Background(), appointment.ID, uuid.Nil, apperrors.NewNotReady("1 of 2 transcripts completed"))

	stored, _ := f.appointments.Get(context.Background(), appointment.ID)
	assert.Equal(t, model.AppointmentStatusScheduled, stored.Status)
	require.Len(t, f.appointments.notes[appointment.ID], 1)
	assert.NotEmpty(t, f.appointments.notes[appointment.ID][0])
}

func TestRunSkipsCancelledAppointment(t *testing.T) {
	f := newFixture()
	template := f.addTemplate()
	appointment := f.addAppointment(template.ID)
	f.addRecording(appointment.ID, model.RecordingStatusUploaded)
	_ = f.appointments.Cancel(context.Background(), appointment.ID)

	summary, err := f.svc.Run(context.Background(), appointment.ID, uuid.Nil)
	require.NoError(t, err)
	assert.Zero(t, summary.RecordingsConsidered)
	assert.Empty(t, f.transcripts.byRecording)
	assert.Empty(t, f.enqueuer.transcribeCalls)
}

func TestRunFailsWhenLeaseUnavailable(t *testing.T) {
	f := newFixture()
	f.locker.acquired = false
	template := f.addTemplate()
	appointment := f.addAppointment(template.ID)
	f.addRecording(appointment.ID, model.RecordingStatusUploaded)

	_, err := f.svc.Run(context.Background(), appointment.ID, uuid.Nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotReady(err))
	assert.Empty(t, f.transcripts.byRecording)
}

func TestRunMissingAppointmentIsPermanent(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Run(context.Background(), uuid.New(), uuid.Nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsPermanent(err))
}

func TestFullPipelineScenario(t *testing.T) {
	f := newFixture()
	t1 := f.addTemplate()
	t2 := f.addTemplate()
	appointment := f.addAppointment(t1.ID, t2.ID)
	r1 := f.addRecording(appointment.ID, model.RecordingStatusUploaded)
	r2 := f.addRecording(appointment.ID, model.RecordingStatusUploaded)

	// First run: transcripts created as pending, jobs dispatched, not ready.
	summary, err := f.svc.Run(context.Background(), appointment.ID, uuid.Nil)
	require.True(t, apperrors.IsNotReady(err))
	assert.Equal(t, 2, summary.TranscriptsQueued)

	tr1, _ := f.transcripts.GetByRecording(context.Background(), r1.ID)
	tr2, _ := f.transcripts.GetByRecording(context.Background(), r2.ID)
	assert.Equal(t, model.TranscriptStatusPending, tr1.Status)
	assert.Equal(t, model.TranscriptStatusPending, tr2.Status)

	// Transcription finishes out of band.
	f.completeTranscript(r1.ID, "first visit transcript")
	f.completeTranscript(r2.ID, "second visit transcript")

	// Second run: all four pairs materialize and the appointment completes.
	summary, err = f.svc.Run(context.Background(), appointment.ID, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.NotesQueued)
	assert.Len(t, f.notes.byPair, 4)

	for _, pair := range []struct{ transcriptID, templateID uuid.UUID }{
		{tr1.ID, t1.ID}, {tr1.ID, t2.ID}, {tr2.ID, t1.ID}, {tr2.ID, t2.ID},
	} {
		note, err := f.notes.GetByPair(context.Background(), pair.transcriptID, pair.templateID)
		require.NoError(t, err)
		assert.Equal(t, model.NoteStatusDraft, note.Status)
	}

	stored, _ := f.appointments.Get(context.Background(), appointment.ID)
	assert.Equal(t, model.AppointmentStatusCompleted, stored.Status)
}
