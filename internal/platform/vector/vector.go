package vector

import "context"

// Vector is one embedded chunk bound for the index. Metadata carries
// the chunk text and its page provenance so retrieval can quote it.
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Match is one retrieval hit, highest score first.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// Store is the capability the pipeline and responder need from a
// vector index. One namespace per document keeps retrieval isolated;
// provider adapters (pinecone, qdrant) live behind this interface.
type Store interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	Query(ctx context.Context, namespace string, q []float32, topK int) ([]Match, error)
	DeleteNamespace(ctx context.Context, namespace string) error
}

func MatchText(m Match) string {
	if m.Metadata == nil {
		return ""
	}
	if s, ok := m.Metadata["text"].(string); ok {
		return s
	}
	return ""
}

func MatchPage(m Match) int {
	if m.Metadata == nil {
		return 0
	}
	switch v := m.Metadata["page"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
