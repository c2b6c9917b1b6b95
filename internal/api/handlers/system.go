package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/icg/internal/queue"
	"github.com/your-org/icg/internal/storage"
)

type SystemHandler struct {
	store       storage.Store
	storageRoot string
	producer    *queue.Producer
}

func NewSystemHandler(store storage.Store, storageRoot string, producer *queue.Producer) *SystemHandler {
	return &SystemHandler{store: store, storageRoot: storageRoot, producer: producer}
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	// Check storage
	if pg, ok := h.store.(*storage.PostgresStore); ok {
		if err := pg.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		} else {
			checks["postgres"] = "ok"
		}
	}
	if _, err := os.Stat(h.storageRoot); err != nil {
		checks["storage_root"] = err.Error()
		healthy = false
	} else {
		checks["storage_root"] = "ok"
	}

	// Check NATS when configured
	if h.producer != nil {
		if err := h.producer.Ping(); err != nil {
			checks["nats"] = err.Error()
			healthy = false
		} else {
			checks["nats"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status": map[bool]string{true: "ready", false: "not ready"}[healthy],
		"checks": checks,
	})
}
