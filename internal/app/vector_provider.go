package app

import (
	"fmt"
	"strings"

	pineconeclient "github.com/docupine/docupine-backend/internal/clients/pinecone"
	"github.com/docupine/docupine-backend/internal/platform/logger"
	"github.com/docupine/docupine-backend/internal/platform/pinecone"
	"github.com/docupine/docupine-backend/internal/platform/qdrant"
	"github.com/docupine/docupine-backend/internal/platform/vector"
)

// resolveVectorStore picks the configured provider. Both adapters
// implement the same Store interface, so nothing downstream knows
// which backend is active.
func resolveVectorStore(log *logger.Logger, cfg Config) (vector.Store, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.VectorProvider))
	switch provider {
	case "", "pinecone":
		pc, err := pineconeclient.New(log, pineconeclient.Config{
			APIKey: cfg.PineconeAPIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("pinecone client: %w", err)
		}
		store, err := pinecone.NewVectorStore(log, pc, pinecone.Config{
			IndexName:       cfg.PineconeIndex,
			IndexHost:       cfg.PineconeIndexHost,
			NamespacePrefix: cfg.NamespacePrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("pinecone vector store: %w", err)
		}
		return store, nil
	case "qdrant":
		store, err := qdrant.NewVectorStore(log, qdrant.Config{
			URL:             cfg.QdrantURL,
			Collection:      cfg.QdrantCollection,
			NamespacePrefix: cfg.NamespacePrefix,
			VectorDim:       cfg.EmbedDimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant vector store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown vector provider %q (want pinecone or qdrant)", cfg.VectorProvider)
	}
}
