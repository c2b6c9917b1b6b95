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
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/icg/internal/config"
	"github.com/your-org/icg/internal/identity"
	"github.com/your-org/icg/internal/models"
	"github.com/your-org/icg/internal/motion"
	"github.com/your-org/icg/internal/observability"
	"github.com/your-org/icg/internal/queue"
	"github.com/your-org/icg/internal/storage"
	"github.com/your-org/icg/internal/synth"
	"github.com/your-org/icg/internal/workflow"
)

// queueSink publishes workflow events to the events stream, where the
// API picks them up for WebSocket broadcast.
type queueSink struct {
	producer *queue.Producer
}

func (s *queueSink) Publish(ctx context.Context, ev models.WorkflowEvent) {
	if err := s.producer.PublishEvent(ctx, ev); err != nil {
		slog.Warn("publish workflow event", "error", err)
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

	slog.Info("starting ICG render worker",
		"workers", cfg.Video.WorkerCount,
		"cpu_cores", runtime.NumCPU(),
	)

	if cfg.NATS.URL == "" {
		slog.Error("worker requires a NATS URL")
		os.Exit(1)
	}

	// Storage
	store, closeStore, err := storage.Open(cfg, identity.NewRandomExtractor(), slog.Default())
	if err != nil {
		slog.Error("open storage", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	// Workflows
	generator := synth.NewClient(cfg.Synthesis, slog.Default())
	synthesizer := motion.NewSynthesizer(cfg.Video, slog.Default())
	flow := workflow.NewOrchestrator(store, generator, synthesizer,
		&queueSink{producer: producer}, cfg.Synthesis, cfg.Video, slog.Default())

	// Create NATS consumer
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start consuming render jobs
	err = consumer.ConsumeRenders(ctx, "render-workers", func(ctx context.Context, msg jetstream.Msg) error {
		var job models.RenderJob
		if err := json.Unmarshal(msg.Data(), &job); err != nil {
			slog.Error("unmarshal render job", "error", err)
			return nil // Don't retry on unmarshal errors
		}

		if err := flow.ProcessRenderJob(ctx, job); err != nil {
			return fmt.Errorf("render job %s: %w", job.JobID, err)
		}
		return nil
	}, cfg.Video.WorkerCount)
	if err != nil {
		slog.Error("start render consumer", "error", err)
		os.Exit(1)
	}

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		slog.Info("worker metrics listening", "addr", ":8082")
		if err := http.ListenAndServe(":8082", mux); err != nil {
			slog.Error("metrics server error", "error", err)
		}
	}()

	// Periodically report queue depth
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

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	cancel()
	time.Sleep(2 * time.Second)
	slog.Info("worker stopped")
}
