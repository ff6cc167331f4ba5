/*
Package main is the entry point for the talkroom server.

It is responsible for loading configuration, initializing the global logging system,
opening the database, wiring the account, message and session services,
setting up the HTTP server, and gracefully handling operating system interrupt
signals (SIGINT, SIGTERM) to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talkroom/internal/app/chat"
	"talkroom/internal/app/db"
	"talkroom/internal/app/session"
	"talkroom/internal/app/storage"
	"talkroom/internal/app/user"
	"talkroom/internal/configs"
	"talkroom/internal/handler"
	"talkroom/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("storage_backend", cfg.StorageBackend).
		Bool("redis_sessions", cfg.RedisURL != "").
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, sqlDB, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to open database")
	}
	defer pool.Close()
	defer sqlDB.Close()

	users := user.NewService(user.NewPostgresRepository(sqlDB), cfg.BcryptCost)
	messages := chat.NewService(chat.NewPostgresRepository(sqlDB), users)

	store, janitor, closeStore, err := newSessionStore(ctx, cfg, sqlDB)
	if err != nil {
		logx.Fatal(err, "Failed to initialize session store")
	}
	defer closeStore()

	sessions := session.NewManager(store, users, session.Options{
		Secret: cfg.SessionSecret,
		TTL:    cfg.SessionTTL,
		Secure: !cfg.IsDevelopment(),
	})

	avatars, err := storage.NewStorageService(ctx, storage.ServiceConfig{
		Backend:           cfg.StorageBackend,
		UploadDir:         cfg.UploadDir,
		MediaURL:          cfg.MediaURL,
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3PublicURL:       cfg.S3PublicURL,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize avatar storage")
	}

	renderer, err := handler.NewTemplateRenderer(avatars.URL)
	if err != nil {
		logx.Fatal(err, "Failed to parse templates")
	}

	// Setup HTTP server and routes
	router := handler.Router(&handler.AppDeps{
		Config:   cfg,
		Users:    users,
		Chat:     messages,
		Sessions: sessions,
		Storage:  avatars,
		Renderer: renderer,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if janitor != nil {
		if _, err := janitor.Purge(ctx); err != nil {
			logx.Error(err, "Failed to purge expired sessions")
		}
		janitor.Start()
	}

	go func() {
		logx.Info(fmt.Sprintf("talkroom server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	if janitor != nil {
		janitor.Stop(shutdownCtx)
	}

	logx.Info("Server gracefully stopped.")
}

// newSessionStore picks Redis when REDIS_URL is set and the sessions table
// otherwise. Only the table needs a janitor; Redis expires keys itself. The
// janitor purges once at startup and on SESSION_CLEANUP_SCHEDULE if set.
func newSessionStore(ctx context.Context, cfg *configs.AppConfig, conn db.DBTX) (session.Store, *session.Janitor, func(), error) {
	if cfg.RedisURL != "" {
		store, err := session.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		closeStore := func() {
			if err := store.Close(); err != nil {
				logx.Error(err, "Failed to close Redis session store")
			}
		}
		return store, nil, closeStore, nil
	}

	store := session.NewPostgresStore(conn)
	janitor, err := session.NewJanitor(store, cfg.SessionCleanupSchedule)
	if err != nil {
		return nil, nil, nil, err
	}
	return store, janitor, func() {}, nil
}
