package pinecone

import (
	"context"
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

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(testLogger(t), Config{APIKey: "  "})
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Fatalf("want API key error, got %v", err)
	}
}

func TestDescribeIndex(t *testing.T) {
	var gotPath, gotKey, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Api-Key")
		gotVersion = r.Header.Get("X-Pinecone-Api-Version")
		fmt.Fprint(w, `{"name":"docupine","host":"docupine-abc123.svc.pinecone.io","dimension":1024,"metric":"cosine","status":{"ready":true,"state":"Ready"}}`)
	}))
	defer srv.Close()

	c, err := New(testLogger(t), Config{APIKey: "pk-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	desc, err := c.DescribeIndex(context.Background(), "docupine")
	if err != nil {
		t.Fatalf("DescribeIndex: %v", err)
	}
	if gotPath != "/indexes/docupine" {
		t.Fatalf("path: %s", gotPath)
	}
	if gotKey != "pk-test" {
		t.Fatalf("api key header: %q", gotKey)
	}
	if gotVersion == "" {
		t.Fatalf("missing api version header")
	}
	if desc.Host != "docupine-abc123.svc.pinecone.io" {
		t.Fatalf("host: %s", desc.Host)
	}
	if desc.Dimension != 1024 {
		t.Fatalf("dimension: %d", desc.Dimension)
	}
}

func TestDescribeIndexRejectsEmptyHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"docupine","host":""}`)
	}))
	defer srv.Close()

	c, err := New(testLogger(t), Config{APIKey: "pk-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.DescribeIndex(context.Background(), "docupine")
	if err == nil || !strings.Contains(err.Error(), "empty host") {
		t.Fatalf("want empty host error, got %v", err)
	}
}

func TestDescribeIndexSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"index not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(testLogger(t), Config{APIKey: "pk-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.DescribeIndex(context.Background(), "missing")
	if err == nil || !strings.Contains(err.Error(), "http 404") {
		t.Fatalf("want http 404 error, got %v", err)
	}
}
