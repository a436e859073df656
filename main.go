package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alvifsandana/qms-be/internal/api"
	"github.com/alvifsandana/qms-be/internal/auth"
	"github.com/alvifsandana/qms-be/internal/config"
	"github.com/alvifsandana/qms-be/internal/database"
	"github.com/alvifsandana/qms-be/internal/logger"
	"github.com/alvifsandana/qms-be/internal/monitoring"
	"github.com/alvifsandana/qms-be/internal/services"
	"github.com/alvifsandana/qms-be/internal/storage/gitstore"
	"github.com/alvifsandana/qms-be/internal/storage/miniostore"
	"github.com/alvifsandana/qms-be/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.AppEnv)
	auth.Init(cfg.Auth.JWTSecret)

	// Ensure the upload directory exists
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create upload directory")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the remote attachment backend
	var remote services.RemoteStore
	switch cfg.Attachment.Backend {
	case "minio":
		remote, err = miniostore.New(context.Background(), cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize object store backend")
		}
	case "gitstore":
		remote = gitstore.New(gitstore.Options{
			BaseURL:  cfg.GitStore.BaseURL,
			Token:    cfg.GitStore.Token,
			Owner:    cfg.GitStore.Owner,
			Repo:     cfg.GitStore.Repo,
			Branch:   cfg.GitStore.Branch,
			BasePath: cfg.GitStore.BasePath,
		})
	default:
		log.Fatal().Str("backend", cfg.Attachment.Backend).Msg("Unknown attachment backend")
	}

	// Set up WebSocket hub for the audit event feed
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	userService := services.NewUserService(db)
	sessionService := services.NewSessionService(db, cfg.Auth.SessionTTL)
	eventService := services.NewEventService(db, hub)
	ncrService := services.NewNCRService(db)
	attachmentService := services.NewAttachmentService(cfg.PublicDir, cfg.UploadDir, []byte(cfg.Attachment.HMACKey), remote)

	// Set up and run the background janitor
	janitor, err := monitoring.NewJanitor(sessionService, eventService, cfg.CleanupSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize janitor")
	}
	go janitor.Run()

	// Set up router
	router := api.NewRouter(cfg, hub, userService, sessionService, eventService, ncrService, attachmentService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
