package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docupine/docupine-backend/internal/platform/apierr"
	"github.com/docupine/docupine-backend/internal/platform/logger"
	"github.com/docupine/docupine-backend/internal/platform/vector"
	"github.com/docupine/docupine-backend/internal/types"
	"github.com/docupine/docupine-backend/internal/vectortest"
)

type fakeDocService struct {
	docs map[uuid.UUID]*types.Document
}

func (f *fakeDocService) GetByStorageKey(ctx context.Context, ownerID uuid.UUID, storageKey string) (*types.Document, error) {
	for _, d := range f.docs {
		if d.StorageKey == storageKey && d.OwnerID == ownerID {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeDocService) GetByID(ctx context.Context, ownerID, documentID uuid.UUID) (*types.Document, error) {
	d, ok := f.docs[documentID]
	if !ok || d.OwnerID != ownerID {
		return nil, apierr.New(http.StatusNotFound, "document_not_found", nil)
	}
	return d, nil
}

func (f *fakeDocService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*types.Document, error) {
	return nil, nil
}

func (f *fakeDocService) Delete(ctx context.Context, ownerID, documentID uuid.UUID) error {
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*types.Message
}

func (f *fakeMessageRepo) Create(ctx context.Context, tx *gorm.DB, msg *types.Message) (*types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = uuid.New()
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeMessageRepo) ListByDocument(ctx context.Context, tx *gorm.DB, documentID uuid.UUID, limit int, before *time.Time) ([]*types.Message, error) {
	return nil, nil
}

type chatEmbedder struct {
	err error
}

func (e *chatEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(inputs))
	for i := range out {
		out[i] = make([]float32, 4)
	}
	return out, nil
}

func (e *chatEmbedder) Model() string   { return "text-embedding-3-small" }
func (e *chatEmbedder) Dimensions() int { return 4 }

func newChatFixture(t *testing.T, status types.DocumentStatus) (ChatService, *fakeMessageRepo, *vectortest.Store, *types.Document, uuid.UUID) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	owner := uuid.New()
	doc := &types.Document{
		ID:         uuid.New(),
		StorageKey: "chat-key",
		Name:       "thesis.pdf",
		OwnerID:    owner,
		Status:     status,
	}
	docs := &fakeDocService{docs: map[uuid.UUID]*types.Document{doc.ID: doc}}
	messages := &fakeMessageRepo{}
	store := vectortest.New()
	svc := NewChatService(log, docs, messages, &chatEmbedder{}, store)
	return svc, messages, store, doc, owner
}

func drain(t *testing.T, s *AnswerStream) string {
	t.Helper()
	var b strings.Builder
	for fragment := range s.Fragments {
		b.WriteString(fragment)
	}
	return b.String()
}

func TestAnswerDocumentNotReady(t *testing.T) {
	svc, messages, _, doc, owner := newChatFixture(t, types.DocumentStatusProcessing)

	stream, err := svc.Answer(context.Background(), owner, doc.ID, "what is this about?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if stream.Text != notReadyText {
		t.Fatalf("answer: %q", stream.Text)
	}
	if got := drain(t, stream); got != notReadyText {
		t.Fatalf("streamed: %q", got)
	}

	// The question is persisted even though the document is not ready.
	if len(messages.messages) != 2 {
		t.Fatalf("messages: want 2 got %d", len(messages.messages))
	}
	if !messages.messages[0].IsUserMessage || messages.messages[0].Text != "what is this about?" {
		t.Fatalf("first message: %+v", messages.messages[0])
	}
	if messages.messages[1].IsUserMessage {
		t.Fatalf("second message should be the answer")
	}
}

func TestAnswerMissingDocument(t *testing.T) {
	svc, messages, _, _, owner := newChatFixture(t, types.DocumentStatusSuccess)

	_, err := svc.Answer(context.Background(), owner, uuid.New(), "hello")
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusNotFound {
		t.Fatalf("want 404 apierr, got %v", err)
	}
	if len(messages.messages) != 0 {
		t.Fatalf("no messages should persist for a missing document")
	}
}

func TestAnswerCrossOwnerDocument(t *testing.T) {
	svc, _, _, doc, _ := newChatFixture(t, types.DocumentStatusSuccess)

	_, err := svc.Answer(context.Background(), uuid.New(), doc.ID, "hello")
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusNotFound {
		t.Fatalf("cross-owner: want 404 apierr, got %v", err)
	}
}

func TestAnswerEmptyQuestion(t *testing.T) {
	svc, messages, _, doc, owner := newChatFixture(t, types.DocumentStatusSuccess)

	_, err := svc.Answer(context.Background(), owner, doc.ID, "   \n\t")
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusBadRequest {
		t.Fatalf("want 400 apierr, got %v", err)
	}
	if len(messages.messages) != 0 {
		t.Fatalf("empty question must not persist")
	}
}

func TestAnswerComposesFromMatches(t *testing.T) {
	svc, messages, store, doc, owner := newChatFixture(t, types.DocumentStatusSuccess)

	long := strings.Repeat("x", 300)
	store.Upsert(context.Background(), doc.ID.String(), []vector.Vector{
		{ID: "p1", Metadata: map[string]any{"text": "first passage", "page": 1}},
		{ID: "p2", Metadata: map[string]any{"text": long, "page": 2}},
		{ID: "p3", Metadata: map[string]any{"text": "never reached", "page": 3}},
	})

	stream, err := svc.Answer(context.Background(), owner, doc.ID, "what about x?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	got := drain(t, stream)
	if got != stream.Text {
		t.Fatalf("stream/full text mismatch:\n%q\n%q", got, stream.Text)
	}

	if !strings.Contains(got, `I found 2 relevant sections in your PDF "thesis.pdf"`) {
		t.Fatalf("answer header: %q", got)
	}
	if !strings.Contains(got, "first passage") {
		t.Fatalf("missing first quote: %q", got)
	}
	if !strings.Contains(got, "(page 1)") || !strings.Contains(got, "(page 2)") {
		t.Fatalf("missing page numbers: %q", got)
	}
	// Quotes cap at 200 chars.
	if strings.Contains(got, strings.Repeat("x", 201)) {
		t.Fatalf("quote not truncated")
	}
	if !strings.Contains(got, strings.Repeat("x", 200)) {
		t.Fatalf("expected 200-char quote: %q", got)
	}
	if strings.Contains(got, "never reached") {
		t.Fatalf("topK leak: %q", got)
	}

	// Retrieval asks for exactly two passages from the document's
	// namespace.
	if len(store.QueryCalls) != 1 {
		t.Fatalf("query calls: %d", len(store.QueryCalls))
	}
	call := store.QueryCalls[0]
	if call.Namespace != doc.ID.String() || call.TopK != 2 {
		t.Fatalf("query call: %+v", call)
	}

	if len(messages.messages) != 2 || messages.messages[1].Text != stream.Text {
		t.Fatalf("answer not persisted verbatim")
	}
}

func TestAnswerNoMatches(t *testing.T) {
	svc, _, _, doc, owner := newChatFixture(t, types.DocumentStatusSuccess)

	stream, err := svc.Answer(context.Background(), owner, doc.ID, "anything?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !strings.Contains(stream.Text, "I couldn't find specific content related to your question.") {
		t.Fatalf("answer: %q", stream.Text)
	}
}

func TestAnswerDegradedOnQueryFailure(t *testing.T) {
	svc, messages, store, doc, owner := newChatFixture(t, types.DocumentStatusSuccess)
	store.FailQuery(fmt.Errorf("connection refused"))

	stream, err := svc.Answer(context.Background(), owner, doc.ID, "still there?")
	if err != nil {
		t.Fatalf("degraded path must not error: %v", err)
	}
	if !strings.Contains(stream.Text, `I can see your PDF "thesis.pdf"`) ||
		!strings.Contains(stream.Text, "connection refused") {
		t.Fatalf("degraded answer: %q", stream.Text)
	}
	if len(messages.messages) != 2 {
		t.Fatalf("degraded answer must persist")
	}
}
