package app

import (
	httpH "github.com/docupine/docupine-backend/internal/http/handlers"
	"github.com/docupine/docupine-backend/internal/platform/logger"
	"github.com/docupine/docupine-backend/internal/sse"
)

type Handlers struct {
	Upload   *httpH.UploadHandler
	Document *httpH.DocumentHandler
	Message  *httpH.MessageHandler
	Events   *httpH.EventsHandler
	Health   *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, hub *sse.Hub) Handlers {
	return Handlers{
		Upload:   httpH.NewUploadHandler(log, serviceset.Queue),
		Document: httpH.NewDocumentHandler(serviceset.Document),
		Message:  httpH.NewMessageHandler(log, serviceset.Chat),
		Events:   httpH.NewEventsHandler(hub),
		Health:   httpH.NewHealthHandler(),
	}
}
