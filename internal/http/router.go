package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/docupine/docupine-backend/internal/http/handlers"
	httpMW "github.com/docupine/docupine-backend/internal/http/middleware"
	"github.com/docupine/docupine-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware
	CORSOrigins    []string

	UploadHandler   *httpH.UploadHandler
	DocumentHandler *httpH.DocumentHandler
	MessageHandler  *httpH.MessageHandler
	EventsHandler   *httpH.EventsHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		if cfg.UploadHandler != nil {
			api.POST("/uploadthing", cfg.UploadHandler.UploadComplete)
		}
		if cfg.DocumentHandler != nil {
			api.GET("/files", cfg.DocumentHandler.List)
			api.GET("/files/key/:key", cfg.DocumentHandler.GetByStorageKey)
			api.GET("/files/:id", cfg.DocumentHandler.GetByID)
			api.DELETE("/files/:id", cfg.DocumentHandler.Delete)
		}
		if cfg.MessageHandler != nil {
			api.GET("/files/:id/messages", cfg.MessageHandler.List)
			api.POST("/message", cfg.MessageHandler.Send)
		}
		if cfg.EventsHandler != nil {
			api.GET("/events", cfg.EventsHandler.Stream)
		}
	}

	return r
}
