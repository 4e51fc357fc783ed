package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docupine/docupine-backend/internal/clients/openai"
	"github.com/docupine/docupine-backend/internal/platform/apierr"
	"github.com/docupine/docupine-backend/internal/platform/logger"
	"github.com/docupine/docupine-backend/internal/platform/vector"
	"github.com/docupine/docupine-backend/internal/repos"
	"github.com/docupine/docupine-backend/internal/types"
)

const (
	retrievalTopK = 2
	quoteLimit    = 200
	fragmentRunes = 64

	notReadyText = "I can see you've uploaded a PDF, but it's still being processed. Please wait a moment and try again."
)

// AnswerStream carries one completed answer. The full text is already
// persisted by the time the stream is returned; Fragments replays it in
// order for chunked transports.
type AnswerStream struct {
	Text      string
	Fragments <-chan string
}

type ChatService interface {
	Answer(ctx context.Context, ownerID, documentID uuid.UUID, question string) (*AnswerStream, error)
	ListMessages(ctx context.Context, ownerID, documentID uuid.UUID, limit int, before *time.Time) ([]*types.Message, error)
}

type chatService struct {
	log      *logger.Logger
	docs     DocumentService
	messages repos.MessageRepo
	embedder openai.EmbeddingsClient
	store    vector.Store
}

func NewChatService(
	baseLog *logger.Logger,
	docs DocumentService,
	messages repos.MessageRepo,
	embedder openai.EmbeddingsClient,
	store vector.Store,
) ChatService {
	return &chatService{
		log:      baseLog.With("service", "ChatService"),
		docs:     docs,
		messages: messages,
		embedder: embedder,
		store:    store,
	}
}

// Answer persists the user's question, retrieves against the document's
// namespace, and returns a streamable composed response. A document
// that is not ready, or a retrieval failure, still produces a persisted
// answer rather than an error; only a missing document or a malformed
// question is refused.
func (s *chatService) Answer(ctx context.Context, ownerID, documentID uuid.UUID, question string) (*AnswerStream, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apierr.BadRequest(apierr.CodeEmptyMessage)
	}

	doc, err := s.docs.GetByID(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}

	// The question is part of the conversation regardless of what
	// happens next.
	if _, err := s.messages.Create(ctx, nil, &types.Message{
		DocumentID:    doc.ID,
		OwnerID:       ownerID,
		Text:          question,
		IsUserMessage: true,
	}); err != nil {
		return nil, apierr.Database(err)
	}

	var answer string
	switch {
	case doc.Status != types.DocumentStatusSuccess:
		answer = notReadyText
	default:
		answer = s.retrieve(ctx, doc, question)
	}

	if _, err := s.messages.Create(ctx, nil, &types.Message{
		DocumentID:    doc.ID,
		OwnerID:       ownerID,
		Text:          answer,
		IsUserMessage: false,
	}); err != nil {
		return nil, apierr.Database(err)
	}

	return &AnswerStream{Text: answer, Fragments: fragments(ctx, answer)}, nil
}

func (s *chatService) ListMessages(ctx context.Context, ownerID, documentID uuid.UUID, limit int, before *time.Time) ([]*types.Message, error) {
	doc, err := s.docs.GetByID(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByDocument(ctx, nil, doc.ID, limit, before)
	if err != nil {
		return nil, apierr.Database(err)
	}
	return msgs, nil
}

// retrieve embeds the question and composes an answer from the top
// matches. Failures degrade to a text naming the cause.
func (s *chatService) retrieve(ctx context.Context, doc *types.Document, question string) string {
	vecs, err := s.embedder.Embed(ctx, []string{question})
	if err != nil || len(vecs) != 1 {
		if err == nil {
			err = fmt.Errorf("expected 1 embedding, got %d", len(vecs))
		}
		s.log.Warn("Question embedding failed", "document_id", doc.ID, "error", err)
		return degradedText(doc.Name, err)
	}

	matches, err := s.store.Query(ctx, doc.ID.String(), vecs[0], retrievalTopK)
	if err != nil {
		s.log.Warn("Vector query failed", "document_id", doc.ID, "error", err)
		return degradedText(doc.Name, err)
	}

	return composeAnswer(doc.Name, question, matches)
}

func composeAnswer(fileName, question string, matches []vector.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d relevant sections in your PDF %q related to %q. ", len(matches), fileName, question)
	if len(matches) == 0 {
		b.WriteString("I couldn't find specific content related to your question.")
		return b.String()
	}
	b.WriteString("Here's what I found:\n\n")
	for i, m := range matches {
		quote := truncateRunes(vector.MatchText(m), quoteLimit)
		if page := vector.MatchPage(m); page > 0 {
			fmt.Fprintf(&b, "**Section %d (page %d):**\n%s...\n\n", i+1, page, quote)
		} else {
			fmt.Fprintf(&b, "**Section %d:**\n%s...\n\n", i+1, quote)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func degradedText(fileName string, err error) string {
	return fmt.Sprintf("I can see your PDF %q but I'm having trouble searching through it right now. The error was: %v", fileName, err)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// fragments replays text as bounded chunks on a channel the transport
// can flush one by one. Chunk boundaries respect rune boundaries.
func fragments(ctx context.Context, text string) <-chan string {
	out := make(chan string, 4)
	go func() {
		defer close(out)
		runes := []rune(text)
		for start := 0; start < len(runes); start += fragmentRunes {
			end := start + fragmentRunes
			if end > len(runes) {
				end = len(runes)
			}
			select {
			case <-ctx.Done():
				return
			case out <- string(runes[start:end]):
			}
		}
	}()
	return out
}
