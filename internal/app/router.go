package app

import (
	"github.com/gin-gonic/gin"

	internalhttp "github.com/docupine/docupine-backend/internal/http"
	"github.com/docupine/docupine-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlerset Handlers, mw Middleware) *gin.Engine {
	return internalhttp.NewRouter(internalhttp.RouterConfig{
		Log:            log,
		AuthMiddleware: mw.Auth,
		CORSOrigins:    cfg.CORSOrigins,

		UploadHandler:   handlerset.Upload,
		DocumentHandler: handlerset.Document,
		MessageHandler:  handlerset.Message,
		EventsHandler:   handlerset.Events,
		HealthHandler:   handlerset.Health,
	})
}
