package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/scribe-api/internal/config"
	"github.com/jwalitptl/scribe-api/internal/repository"
)

func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

type appointmentRepository struct {
	db *sqlx.DB
}

type recordingRepository struct {
	db *sqlx.DB
}

type transcriptRepository struct {
	db *sqlx.DB
}

type templateRepository struct {
	db *sqlx.DB
}

type noteRepository struct {
	db *sqlx.DB
}

type auditRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewRecordingRepository(db *sqlx.DB) repository.RecordingRepository {
	return &recordingRepository{db: db}
}

func NewTranscriptRepository(db *sqlx.DB) repository.TranscriptRepository {
	return &transcriptRepository{db: db}
}

func NewTemplateRepository(db *sqlx.DB) repository.TemplateRepository {
	return &templateRepository{db: db}
}

func NewNoteRepository(db *sqlx.DB) repository.NoteRepository {
	return &noteRepository{db: db}
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}
