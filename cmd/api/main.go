package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/scribe-api/internal/config"
	appointmentHandler "github.com/jwalitptl/scribe-api/internal/handler/appointment"
	auditHandler "github.com/jwalitptl/scribe-api/internal/handler/audit"
	noteHandler "github.com/jwalitptl/scribe-api/internal/handler/note"
	recordingHandler "github.com/jwalitptl/scribe-api/internal/handler/recording"
	templateHandler "github.com/jwalitptl/scribe-api/internal/handler/template"
	transcriptHandler "github.com/jwalitptl/scribe-api/internal/handler/transcript"
	"github.com/jwalitptl/scribe-api/internal/lock"
	"github.com/jwalitptl/scribe-api/internal/middleware"
	"github.com/jwalitptl/scribe-api/internal/queue"
	"github.com/jwalitptl/scribe-api/internal/repository/postgres"
	"github.com/jwalitptl/scribe-api/internal/router"
	appointmentService "github.com/jwalitptl/scribe-api/internal/service/appointment"
	auditService "github.com/jwalitptl/scribe-api/internal/service/audit"
	noteService "github.com/jwalitptl/scribe-api/internal/service/note"
	processingService "github.com/jwalitptl/scribe-api/internal/service/processing"
	recordingService "github.com/jwalitptl/scribe-api/internal/service/recording"
	templateService "github.com/jwalitptl/scribe-api/internal/service/template"
	"github.com/jwalitptl/scribe-api/internal/storage"
	"github.com/jwalitptl/scribe-api/pkg/auth"
	"github.com/jwalitptl/scribe-api/pkg/logger"
	"github.com/jwalitptl/scribe-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	lg := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}
	if err := store.EnsureBucket(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure storage bucket")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	enqueuer := queue.NewClient(asynqClient, queue.Options{
		OrchestratorMaxRetries: cfg.Processing.OrchestratorMaxRetries,
		WorkerMaxRetries:       queue.DefaultOptions().WorkerMaxRetries,
		JobTimeout:             cfg.Processing.JobTimeout,
	})

	// Repositories
	appointmentRepo := postgres.NewAppointmentRepository(db)
	recordingRepo := postgres.NewRecordingRepository(db)
	transcriptRepo := postgres.NewTranscriptRepository(db)
	templateRepo := postgres.NewTemplateRepository(db)
	noteRepo := postgres.NewNoteRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Services
	auditSvc := auditService.NewService(auditRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, auditSvc)
	recordingSvc := recordingService.NewService(recordingRepo, appointmentRepo, store, auditSvc, lg, cfg.Upload.MaxSizeMB)
	templateSvc := templateService.NewService(templateRepo, lg)
	noteSvc := noteService.NewService(noteRepo, auditSvc)
	processingSvc := processingService.NewService(
		appointmentRepo, recordingRepo, transcriptRepo, templateRepo, noteRepo,
		enqueuer, lock.NewRedisLocker(redisClient), auditSvc, lg, cfg.Processing,
	)

	if err := templateSvc.SeedDefaults(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to seed default templates")
	}

	validator.RegisterCustom()

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	r := router.NewRouter(
		authMiddleware,
		db,
		appointmentHandler.NewHandler(appointmentSvc, processingSvc),
		recordingHandler.NewHandler(recordingSvc),
		transcriptHandler.NewHandler(transcriptRepo, recordingRepo, enqueuer),
		templateHandler.NewHandler(templateSvc),
		noteHandler.NewHandler(noteSvc),
		auditHandler.NewHandler(auditSvc),
		router.Config{RateLimit: rate.Limit(100), RateBurst: 200},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		lg.ZL.Info().Int("port", cfg.Server.Port).Msg("api server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.ZL.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
