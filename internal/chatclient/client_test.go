package chatclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListMessages(t *testing.T) {
	var gotPath, gotAuth, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotLimit = r.URL.Query().Get("limit")
		fmt.Fprint(w, `{"messages":[
			{"id":"m2","text":"the answer","is_user_message":false,"created_at":"2026-09-01T12:00:01Z"},
			{"id":"m1","text":"the question","is_user_message":true,"created_at":"2026-09-01T12:00:00Z"}
		]}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "tok-1", nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	msgs, err := c.ListMessages(context.Background(), "doc-1", 10)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}

	if gotPath != "/api/files/doc-1/messages" {
		t.Fatalf("path: %s", gotPath)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("auth header: %q", gotAuth)
	}
	if gotLimit != "10" {
		t.Fatalf("limit: %q", gotLimit)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages: %d", len(msgs))
	}
	if msgs[0].ID != "m2" || msgs[0].IsUserMessage {
		t.Fatalf("first message: %+v", msgs[0])
	}
	if msgs[1].Text != "the question" || !msgs[1].IsUserMessage {
		t.Fatalf("second message: %+v", msgs[1])
	}
}

func TestListMessagesSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"document_not_found"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "tok-1", nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.ListMessages(context.Background(), "doc-404", 0); err == nil {
		t.Fatalf("want error for 404")
	}
}
