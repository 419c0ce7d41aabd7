package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/handlers"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/logger"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/runner"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/services"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/services/queue"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting story crawler worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL,
		"output_dir", cfg.OutputDir)

	if cfg.RedisURL == "" {
		log.Error("REDIS_URL is required for the worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Initialize queue service
	queueClient, err := queue.NewClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()
	jobs := queue.NewJobQueue(queueClient)
	log.Info("Queue service initialized successfully")

	// Crawl environment, sharing downloaded assets through the same redis
	env, closeEnv, err := crawl.Setup(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to set up crawl environment", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeEnv(); err != nil {
			log.Error("Error closing asset cache", "error", err)
		}
	}()

	urls, err := cfg.URLs()
	if err != nil {
		log.Error("Failed to load URL templates", "error", err, "file", cfg.URLsFile)
		os.Exit(1)
	}
	r := runner.New(env, urls, runner.Options{SekaiEventSource: os.Getenv("SEKAI_EVENT_SOURCE")})

	w := worker.New(jobs, r, queueClient.Redis(), env.Metrics, log, worker.Options{
		ID:           os.Getenv("WORKER_ID"),
		QueueTimeout: cfg.QueueTimeout,
		LockTTL:      cfg.JobLockTTL,
	})

	if cfg.HealthAddr != "" {
		healthCache, err := services.NewRedisService(cfg.RedisURL, log)
		if err != nil {
			log.Error("Failed to create health check client", "error", err)
			os.Exit(1)
		}
		defer healthCache.Close()

		mux := http.NewServeMux()
		mux.Handle("/health", handlers.NewHealthHandler(healthCache, jobs, w.ID(), log))
		server := &http.Server{Addr: cfg.HealthAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info("Health endpoint listening", "addr", cfg.HealthAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Health server error", "error", err)
			}
		}()
		defer server.Close()
	}

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Worker started, waiting for jobs...", "worker_id", w.ID())

	<-quit
	log.Info("Worker shutdown signal received")
	w.Stop()

	// Let the current job finish
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		log.Warn("Worker did not finish the current job in time")
	}

	log.Info("Worker exited")
}
