package pinecone

import (
	"context"
	"fmt"
	"testing"

	pineconeclient "github.com/docupine/docupine-backend/internal/clients/pinecone"
	"github.com/docupine/docupine-backend/internal/platform/logger"
	"github.com/docupine/docupine-backend/internal/platform/vector"
)

type fakeClient struct {
	describeCalls int
	describeHost  string
	describeErr   error

	upsertHost string
	upsertReq  pineconeclient.UpsertRequest
	queryHost  string
	queryReq   pineconeclient.QueryRequest
	queryResp  *pineconeclient.QueryResponse
	deleteReq  pineconeclient.DeleteRequest
}

func (f *fakeClient) DescribeIndex(ctx context.Context, indexName string) (*pineconeclient.IndexDescription, error) {
	f.describeCalls++
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &pineconeclient.IndexDescription{Name: indexName, Host: f.describeHost}, nil
}

func (f *fakeClient) UpsertVectors(ctx context.Context, host string, req pineconeclient.UpsertRequest) (*pineconeclient.UpsertResponse, error) {
	f.upsertHost = host
	f.upsertReq = req
	return &pineconeclient.UpsertResponse{UpsertedCount: int64(len(req.Vectors))}, nil
}

func (f *fakeClient) Query(ctx context.Context, host string, req pineconeclient.QueryRequest) (*pineconeclient.QueryResponse, error) {
	f.queryHost = host
	f.queryReq = req
	if f.queryResp != nil {
		return f.queryResp, nil
	}
	return &pineconeclient.QueryResponse{}, nil
}

func (f *fakeClient) DeleteVectors(ctx context.Context, host string, req pineconeclient.DeleteRequest) error {
	f.deleteReq = req
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newStore(t *testing.T, pc pineconeclient.Client, cfg Config) vector.Store {
	t.Helper()
	s, err := NewVectorStore(testLogger(t), pc, cfg)
	if err != nil {
		t.Fatalf("NewVectorStore: %v", err)
	}
	return s
}

func TestNewVectorStoreResolvesHostWhenMissing(t *testing.T) {
	fc := &fakeClient{describeHost: "resolved.svc.pinecone.io"}
	s := newStore(t, fc, Config{IndexName: "docupine"})

	if fc.describeCalls != 1 {
		t.Fatalf("describe calls: %d", fc.describeCalls)
	}
	if err := s.DeleteNamespace(context.Background(), "doc-1"); err != nil {
		t.Fatalf("DeleteNamespace: %v", err)
	}
}

func TestNewVectorStoreFailsWhenHostUnresolvable(t *testing.T) {
	fc := &fakeClient{describeErr: fmt.Errorf("index not found")}
	_, err := NewVectorStore(testLogger(t), fc, Config{IndexName: "docupine"})
	if err == nil {
		t.Fatalf("want error when describe_index fails")
	}
	if fc.describeCalls != 1 {
		t.Fatalf("describe calls: %d", fc.describeCalls)
	}
}

func TestNewVectorStoreSkipsDescribeWhenHostConfigured(t *testing.T) {
	fc := &fakeClient{}
	newStore(t, fc, Config{IndexName: "docupine", IndexHost: "fixed.svc.pinecone.io"})
	if fc.describeCalls != 0 {
		t.Fatalf("describe calls: %d", fc.describeCalls)
	}
}

func TestUpsertQualifiesNamespace(t *testing.T) {
	fc := &fakeClient{}
	s := newStore(t, fc, Config{IndexName: "docupine", IndexHost: "h", NamespacePrefix: "dp"})

	err := s.Upsert(context.Background(), "doc-1", []vector.Vector{
		{ID: "doc-1-p0001", Values: []float32{0.1, 0.2}, Metadata: map[string]any{"page": 1}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if fc.upsertHost != "h" {
		t.Fatalf("host: %s", fc.upsertHost)
	}
	if fc.upsertReq.Namespace != "dp:doc-1" {
		t.Fatalf("namespace: %s", fc.upsertReq.Namespace)
	}
	if len(fc.upsertReq.Vectors) != 1 || fc.upsertReq.Vectors[0].ID != "doc-1-p0001" {
		t.Fatalf("vectors: %+v", fc.upsertReq.Vectors)
	}
}

func TestUpsertRejectsBlankVectorID(t *testing.T) {
	fc := &fakeClient{}
	s := newStore(t, fc, Config{IndexName: "docupine", IndexHost: "h"})

	err := s.Upsert(context.Background(), "doc-1", []vector.Vector{{ID: "  ", Values: []float32{0.1}}})
	if err == nil {
		t.Fatalf("want error for blank vector id")
	}
}

func TestQueryMapsMatchesAndDropsBlankIDs(t *testing.T) {
	fc := &fakeClient{queryResp: &pineconeclient.QueryResponse{Matches: []pineconeclient.QueryMatch{
		{ID: "c1", Score: 0.91, Metadata: map[string]any{"text": "first", "page": 1}},
		{ID: "", Score: 0.5},
		{ID: "c2", Score: 0.42, Metadata: map[string]any{"text": "second"}},
	}}}
	s := newStore(t, fc, Config{IndexName: "docupine", IndexHost: "h"})

	matches, err := s.Query(context.Background(), "doc-1", []float32{0.1, 0.2}, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches: %d", len(matches))
	}
	if matches[0].ID != "c1" || matches[0].Score != 0.91 {
		t.Fatalf("first match: %+v", matches[0])
	}
	if fc.queryReq.Namespace != "dp:doc-1" {
		t.Fatalf("query namespace: %s", fc.queryReq.Namespace)
	}
	if fc.queryReq.TopK != 2 {
		t.Fatalf("topK: %d", fc.queryReq.TopK)
	}
	if !fc.queryReq.IncludeMetadata || fc.queryReq.IncludeValues {
		t.Fatalf("payload flags: %+v", fc.queryReq)
	}
}

func TestDeleteNamespaceDeletesAll(t *testing.T) {
	fc := &fakeClient{}
	s := newStore(t, fc, Config{IndexName: "docupine", IndexHost: "h"})

	if err := s.DeleteNamespace(context.Background(), "doc-9"); err != nil {
		t.Fatalf("DeleteNamespace: %v", err)
	}
	if fc.deleteReq.Namespace != "dp:doc-9" {
		t.Fatalf("namespace: %s", fc.deleteReq.Namespace)
	}
	if !fc.deleteReq.DeleteAll {
		t.Fatalf("DeleteAll not set")
	}
}
