package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"rollcall/internal/attendance"
	"rollcall/internal/blobstore"
	"rollcall/internal/classroom"
	"rollcall/internal/config"
	"rollcall/internal/httpapi"
	"rollcall/internal/notification"
	"rollcall/internal/queue"
	"rollcall/internal/roster"
	"rollcall/internal/stats"
	"rollcall/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func run(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelMigrate()
	if err := db.Migrate(migrateCtx); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:tasks")
	}

	var blobs blobstore.BlobStore = blobstore.Unavailable{}
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		blobs = blobstore.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	rosterRepo := roster.NewRepository(db.Client)
	statsRepo := stats.NewRepository(db.Client)
	notifRepo := notification.NewRepository(db.Client)

	statsService := stats.NewService(statsRepo, stats.NewLeaderboardCache(redisClient.Client, cfg.LeaderboardCacheTTL))

	server := &httpapi.Server{
		Cfg:           cfg,
		Users:         rosterRepo,
		Roster:        roster.NewService(rosterRepo),
		Classes:       classroom.NewService(classroom.NewRepository(db.Client)),
		Attendance:    attendance.NewService(attendance.NewRepository(db.Client)),
		Stats:         statsService,
		Notifications: notification.NewService(notifRepo, statsService),
		Blobs:         blobs,
		Queue:         q,
		RedisHealth:   redisClient,
		DBHealth:      db,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}
