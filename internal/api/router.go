package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/icg/internal/api/handlers"
	"github.com/your-org/icg/internal/api/ws"
	"github.com/your-org/icg/internal/auth"
	"github.com/your-org/icg/internal/quality"
	"github.com/your-org/icg/internal/queue"
	"github.com/your-org/icg/internal/storage"
	"github.com/your-org/icg/internal/workflow"
)

type RouterConfig struct {
	APIKey      string
	Store       storage.Store
	StorageRoot string
	ReportDir   string
	Flow        *workflow.Orchestrator
	Validator   *quality.Validator
	Hub         *ws.Hub
	// Producer is nil when no queue is configured.
	Producer *queue.Producer
	// Uploader is nil when no object storage is configured.
	Uploader *storage.ArchiveUploader
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.Store, cfg.StorageRoot, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Personas
	personaH := handlers.NewPersonaHandler(cfg.Store, cfg.Flow)
	v1.POST("/personas", personaH.Create)
	v1.GET("/personas", personaH.List)
	v1.GET("/personas/:id", personaH.Get)
	v1.PATCH("/personas/:id", personaH.Update)
	v1.DELETE("/personas/:id", personaH.Delete)
	v1.POST("/personas/:id/identity", personaH.ExtractIdentity)
	v1.GET("/personas/:id/similar", personaH.Similar)

	// Content
	contentH := handlers.NewContentHandler(cfg.Store, cfg.Flow)
	v1.POST("/content/generate", contentH.Generate)
	v1.POST("/content/upload", contentH.Upload)
	v1.GET("/content", contentH.List)
	v1.GET("/content/:id", contentH.Get)
	v1.DELETE("/content/:id", contentH.Delete)
	v1.GET("/content/:id/file", contentH.File)
	v1.GET("/content/:id/thumbnail", contentH.Thumbnail)

	// Videos
	videoH := handlers.NewVideoHandler(cfg.Flow, cfg.Producer)
	v1.POST("/videos", videoH.Create)

	// Export
	exportH := handlers.NewExportHandler(cfg.Flow, cfg.Uploader)
	v1.POST("/export", exportH.Create)

	// Validation
	validateH := handlers.NewValidateHandler(cfg.Store, cfg.Validator, cfg.ReportDir)
	v1.POST("/validate", validateH.Validate)
	v1.POST("/validate/consistency", validateH.Consistency)
	v1.POST("/validate/report", validateH.Report)

	return r
}
