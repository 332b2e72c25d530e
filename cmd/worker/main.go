package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rollcall/internal/config"
	"rollcall/internal/faceclient"
	"rollcall/internal/queue"
	"rollcall/internal/roster"
	"rollcall/internal/store"
)

// Worker consumes queue messages and rebuilds face embeddings for students
// whose reference photo changed.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:tasks")
	}

	students := roster.NewRepository(db.Client)
	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip)

	if !cfg.FaceSkip {
		if err := face.Health(ctx); err != nil {
			log.Printf("WARNING: face service not available: %v", err)
			log.Println("Worker will retry when messages arrive")
		} else {
			log.Println("Face service connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != queue.TypeEmbedRebuild {
			continue
		}

		roll := string(msg.Body)
		log.Printf("rebuilding embedding for %s", roll)

		student, err := students.StudentByRoll(ctx, roll)
		if err != nil {
			log.Printf("fetch student %s failed: %v", roll, err)
			continue
		}
		if student == nil || student.PhotoURL == "" {
			log.Printf("student %s has no photo on record, skipping", roll)
			continue
		}

		result, err := face.RebuildEmbedding(ctx, student.UniversityRoll, student.PhotoURL)
		if err != nil {
			log.Printf("embedding rebuild failed for %s: %v", roll, err)
			continue
		}
		if result != nil {
			log.Printf("embedding rebuilt for %s (quality: %.2f)", roll, result.QualityScore)
		}

		time.Sleep(10 * time.Millisecond)
	}

	log.Println("worker stopped")
}
