package app

import (
	"fmt"

	httpMW "github.com/docupine/docupine-backend/internal/http/middleware"
	"github.com/docupine/docupine-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) (Middleware, error) {
	auth, err := httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey)
	if err != nil {
		return Middleware{}, fmt.Errorf("auth middleware: %w", err)
	}
	return Middleware{Auth: auth}, nil
}
