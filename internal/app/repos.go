package app

import (
	"gorm.io/gorm"

	"github.com/docupine/docupine-backend/internal/platform/logger"
	"github.com/docupine/docupine-backend/internal/repos"
)

type Repos struct {
	Document      repos.DocumentRepo
	DocumentChunk repos.DocumentChunkRepo
	Message       repos.MessageRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Document:      repos.NewDocumentRepo(db, log),
		DocumentChunk: repos.NewDocumentChunkRepo(db, log),
		Message:       repos.NewMessageRepo(db, log),
	}
}
