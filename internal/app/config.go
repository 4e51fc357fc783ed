package app

import (
	"strings"
	"time"

	"github.com/docupine/docupine-backend/internal/platform/logger"
	"github.com/docupine/docupine-backend/internal/utils"
)

type Config struct {
	JWTSecretKey string
	CORSOrigins  []string

	// Embedding config is pinned: ingestion and retrieval must agree on
	// model and dimensionality or queries return garbage.
	OpenAIAPIKey    string
	EmbedModel      string
	EmbedDimensions int

	VectorProvider    string
	PineconeAPIKey    string
	PineconeIndex     string
	PineconeIndexHost string
	QdrantURL         string
	QdrantCollection  string
	NamespacePrefix   string

	StorageBaseURL string
	MaxFetchBytes  int64
	FetchTimeout   time.Duration

	RedisAddr     string
	RedisPassword string
	IngestWorkers int

	FreePlanPages int
	ProPlanPages  int
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		JWTSecretKey: utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		CORSOrigins:  splitOrigins(utils.GetEnv("CORS_ORIGINS", "", log)),

		OpenAIAPIKey:    utils.GetEnv("OPENAI_API_KEY", "", log),
		EmbedModel:      utils.GetEnv("EMBED_MODEL", "text-embedding-3-small", log),
		EmbedDimensions: utils.GetEnvAsInt("EMBED_DIMENSIONS", 1024, log),

		VectorProvider:    utils.GetEnv("VECTOR_PROVIDER", "pinecone", log),
		PineconeAPIKey:    utils.GetEnv("PINECONE_API_KEY", "", log),
		PineconeIndex:     utils.GetEnv("PINECONE_INDEX", "docupine", log),
		PineconeIndexHost: utils.GetEnv("PINECONE_INDEX_HOST", "", log),
		QdrantURL:         utils.GetEnv("QDRANT_URL", "", log),
		QdrantCollection:  utils.GetEnv("QDRANT_COLLECTION", "docupine", log),
		NamespacePrefix:   utils.GetEnv("VECTOR_NAMESPACE_PREFIX", "dp", log),

		StorageBaseURL: utils.GetEnv("STORAGE_BASE_URL", "https://utfs.io/f", log),
		MaxFetchBytes:  int64(utils.GetEnvAsInt("MAX_FETCH_BYTES", 64<<20, log)),
		FetchTimeout:   time.Duration(utils.GetEnvAsInt("FETCH_TIMEOUT_SECONDS", 60, log)) * time.Second,

		RedisAddr:     utils.GetEnv("REDIS_ADDR", "localhost:6379", log),
		RedisPassword: utils.GetEnv("REDIS_PASSWORD", "", log),
		IngestWorkers: utils.GetEnvAsInt("INGEST_WORKERS", 2, log),

		FreePlanPages: utils.GetEnvAsInt("FREE_PLAN_PAGES", 5, log),
		ProPlanPages:  utils.GetEnvAsInt("PRO_PLAN_PAGES", 25, log),
	}
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
