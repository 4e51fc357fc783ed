package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docupine/docupine-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func embeddingsServer(t *testing.T, dims int, failures int) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization: %q", got)
		}
		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Dimensions != dims {
			t.Errorf("request dimensions: want %d got %d", dims, req.Dimensions)
		}
		if calls <= failures {
			http.Error(w, `{"error":"overloaded"}`, http.StatusTooManyRequests)
			return
		}
		var resp embeddingsResponse
		for i := range req.Input {
			emb := make([]float64, dims)
			resp.Data = append(resp.Data, struct {
				Embedding []float64 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: emb, Index: i})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(t *testing.T, baseURL string, dims, retries int) EmbeddingsClient {
	t.Helper()
	c, err := NewEmbeddingsClient(testLogger(t), Config{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Dimensions: dims,
		MaxRetries: retries,
	})
	if err != nil {
		t.Fatalf("NewEmbeddingsClient: %v", err)
	}
	return c
}

func TestEmbed(t *testing.T) {
	srv, _ := embeddingsServer(t, 8, 0)
	c := newTestClient(t, srv.URL, 8, 0)

	vecs, err := c.Embed(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 8 || len(vecs[1]) != 8 {
		t.Fatalf("vectors: %d x %d", len(vecs), len(vecs[0]))
	}
}

func TestEmbedRetriesOn429(t *testing.T) {
	srv, calls := embeddingsServer(t, 4, 2)
	c := newTestClient(t, srv.URL, 4, 3)

	if _, err := c.Embed(context.Background(), []string{"x"}); err != nil {
		t.Fatalf("Embed after retries: %v", err)
	}
	if *calls != 3 {
		t.Fatalf("calls: want 3 got %d", *calls)
	}
}

func TestEmbedDoesNotRetryOn400(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"bad input"}`, http.StatusBadRequest)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 4, 5)

	_, err := c.Embed(context.Background(), []string{"x"})
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("want 400 error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("client retried a 400: %d calls", calls)
	}
}

func TestEmbedRejectsDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"embedding":[1,2,3],"index":0}]}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 1024, 0)

	_, err := c.Embed(context.Background(), []string{"x"})
	if err == nil || !strings.Contains(err.Error(), "dimension mismatch") {
		t.Fatalf("want dimension mismatch, got %v", err)
	}
}

func TestEmbedRejectsMissingIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"embedding":[1,2],"index":1}]}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 2, 0)

	_, err := c.Embed(context.Background(), []string{"a", "b"})
	if err == nil || !strings.Contains(err.Error(), "missing embedding for index 0") {
		t.Fatalf("want missing index error, got %v", err)
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	c := newTestClient(t, "http://unreachable.invalid", 4, 0)
	vecs, err := c.Embed(context.Background(), nil)
	if err != nil || len(vecs) != 0 {
		t.Fatalf("empty input: vecs=%v err=%v", vecs, err)
	}
}
