package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/icg/internal/api"
	"github.com/your-org/icg/internal/api/ws"
	"github.com/your-org/icg/internal/config"
	"github.com/your-org/icg/internal/identity"
	"github.com/your-org/icg/internal/models"
	"github.com/your-org/icg/internal/motion"
	"github.com/your-org/icg/internal/observability"
	"github.com/your-org/icg/internal/quality"
	"github.com/your-org/icg/internal/queue"
	"github.com/your-org/icg/internal/storage"
	"github.com/your-org/icg/internal/synth"
	"github.com/your-org/icg/internal/workflow"
)

// eventSink fans workflow events out to WebSocket clients and, when a
// queue is configured, to the events stream for other consumers.
type eventSink struct {
	hub      *ws.Hub
	producer *queue.Producer
}

func (s *eventSink) Publish(ctx context.Context, ev models.WorkflowEvent) {
	s.hub.BroadcastEvent(ev)
	if s.producer != nil {
		if err := s.producer.PublishEvent(ctx, ev); err != nil {
			slog.Warn("publish workflow event", "error", err)
		}
	}
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting ICG API service", "port", cfg.Server.Port, "storage_driver", cfg.Storage.Driver)

	// Storage
	store, closeStore, err := storage.Open(cfg, identity.NewRandomExtractor(), slog.Default())
	if err != nil {
		slog.Error("open storage", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Object storage for export archives (optional)
	var uploader *storage.ArchiveUploader
	if cfg.MinIO.Endpoint != "" {
		uploader, err = storage.NewArchiveUploader(cfg.MinIO)
		if err != nil {
			slog.Error("connect to minio", "error", err)
			os.Exit(1)
		}
		if err := uploader.EnsureBucket(context.Background()); err != nil {
			slog.Warn("ensure minio bucket", "error", err)
		}
	}

	// Render queue (optional; without it videos render in-process)
	var producer *queue.Producer
	if cfg.NATS.URL != "" {
		producer, err = queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			slog.Error("connect to nats", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		if err := producer.EnsureStreams(context.Background()); err != nil {
			slog.Warn("ensure nats streams", "error", err)
		}
	}

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Broadcast worker events via WebSocket
	if cfg.NATS.URL != "" {
		consumer, err := queue.NewConsumer(cfg.NATS.URL)
		if err != nil {
			slog.Error("create event consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()

		err = consumer.ConsumeEvents(ctx, "api-events", func(ctx context.Context, msg jetstream.Msg) error {
			var ev models.WorkflowEvent
			if err := json.Unmarshal(msg.Data(), &ev); err != nil {
				return err
			}
			hub.BroadcastEvent(ev)
			return nil
		})
		if err != nil {
			slog.Warn("start event consumer", "error", err)
		}
	}

	// Workflows
	generator := synth.NewClient(cfg.Synthesis, slog.Default())
	synthesizer := motion.NewSynthesizer(cfg.Video, slog.Default())
	validator := quality.NewValidator(cfg.Quality, slog.Default())

	flow := workflow.NewOrchestrator(store, generator, synthesizer,
		&eventSink{hub: hub, producer: producer}, cfg.Synthesis, cfg.Video, slog.Default())

	// Periodically report queue depth
	if producer != nil {
		go func() {
			ticker := time.NewTicker(10 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					depth, err := producer.QueueDepth(ctx)
					if err == nil {
						observability.QueueDepth.Set(float64(depth))
					}
				}
			}
		}()
	}

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		APIKey:      cfg.Server.APIKey,
		Store:       store,
		StorageRoot: cfg.Storage.Root,
		ReportDir:   filepath.Join(cfg.Storage.Root, "validation", "reports"),
		Flow:        flow,
		Validator:   validator,
		Hub:         hub,
		Producer:    producer,
		Uploader:    uploader,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // synchronous renders are slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}
