// Package vectortest provides an in-memory vector.Store for tests:
// namespaced storage with recorded calls and injectable failures.
package vectortest

import (
	"context"
	"sort"
	"sync"

	"github.com/docupine/docupine-backend/internal/platform/vector"
)

type Store struct {
	mu         sync.Mutex
	namespaces map[string][]vector.Vector
	upsertErr  error
	queryErr   error
	deleteErr  error

	QueryCalls []QueryCall
}

type QueryCall struct {
	Namespace string
	TopK      int
}

func New() *Store {
	return &Store{namespaces: map[string][]vector.Vector{}}
}

func (s *Store) FailUpsert(err error) { s.mu.Lock(); s.upsertErr = err; s.mu.Unlock() }
func (s *Store) FailQuery(err error)  { s.mu.Lock(); s.queryErr = err; s.mu.Unlock() }
func (s *Store) FailDelete(err error) { s.mu.Lock(); s.deleteErr = err; s.mu.Unlock() }

func (s *Store) Upsert(ctx context.Context, namespace string, vectors []vector.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.namespaces[namespace] = append(s.namespaces[namespace], vectors...)
	return nil
}

// Query returns the namespace's vectors as matches in insertion order,
// capped at topK. Scores descend from 1.0 so ordering is deterministic.
func (s *Store) Query(ctx context.Context, namespace string, q []float32, topK int) ([]vector.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.QueryCalls = append(s.QueryCalls, QueryCall{Namespace: namespace, TopK: topK})
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	stored := s.namespaces[namespace]
	var out []vector.Match
	for i, v := range stored {
		if topK > 0 && len(out) >= topK {
			break
		}
		out = append(out, vector.Match{
			ID:       v.ID,
			Score:    1.0 - float64(i)*0.01,
			Metadata: v.Metadata,
		})
	}
	return out, nil
}

func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.namespaces, namespace)
	return nil
}

func (s *Store) Count(namespace string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.namespaces[namespace])
}

func (s *Store) Namespaces() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.namespaces))
	for ns := range s.namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

var _ vector.Store = (*Store)(nil)
