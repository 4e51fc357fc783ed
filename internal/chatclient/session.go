package chatclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

var (
	ErrBusy         = errors.New("a message is already in flight")
	ErrEmptyMessage = errors.New("message is empty")
)

type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transport sends one question and returns the answer as a fragment
// stream. The HTTP client implements this against POST /api/message.
type Transport interface {
	SendMessage(ctx context.Context, fileID, text string) (io.ReadCloser, error)
}

// MessageLister is the optional transport capability used to refresh
// the conversation from the server once a stream completes. Client
// implements it against GET /api/files/:id/messages.
type MessageLister interface {
	ListMessages(ctx context.Context, fileID string, limit int) ([]CachedMessage, error)
}

// Notifier surfaces user-facing notices (send failures). Nil is fine.
type Notifier func(notice string)

// Session drives one document's conversation. Submissions are
// single-flight: a second Submit while one is in flight is refused
// rather than queued.
type Session struct {
	mu        sync.Mutex
	state     State
	input     string
	fileID    string
	cache     *MessageCache
	transport Transport
	notify    Notifier
}

func NewSession(fileID string, cache *MessageCache, transport Transport, notify Notifier) (*Session, error) {
	if fileID == "" {
		return nil, fmt.Errorf("file id required")
	}
	if cache == nil {
		return nil, fmt.Errorf("message cache required")
	}
	if transport == nil {
		return nil, fmt.Errorf("transport required")
	}
	return &Session{
		state:     StateIdle,
		fileID:    fileID,
		cache:     cache,
		transport: transport,
		notify:    notify,
	}, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Input returns the composer text, restored after a failed submit.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

func (s *Session) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = text
}

// Submit sends the current input. The cache is updated optimistically
// before the request; any failure rolls the cache back, restores the
// input text, and returns the session to Idle.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	text := strings.TrimSpace(s.input)
	if text == "" {
		s.mu.Unlock()
		return ErrEmptyMessage
	}
	snapshot := s.cache.Snapshot()
	previousInput := s.input
	s.state = StateSending
	s.input = ""
	s.mu.Unlock()

	s.cache.AddUserMessage(text)

	err := s.stream(ctx, text)
	if err != nil {
		s.cache.Restore(snapshot)
		s.mu.Lock()
		s.input = previousInput
		s.state = StateIdle
		s.mu.Unlock()
		if s.notify != nil {
			s.notify("There was a problem sending this message. Please try again.")
		}
		return err
	}

	s.refresh(ctx)
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
	return nil
}

// refresh swaps the optimistic log for the server's persisted listing,
// replacing the placeholder with the real answer record. When the
// transport cannot list, or the listing fails, the placeholder is
// promoted locally and the fetched ids arrive on the next refresh.
func (s *Session) refresh(ctx context.Context) {
	lister, ok := s.transport.(MessageLister)
	if !ok {
		s.cache.FinalizePlaceholder()
		return
	}
	list, err := lister.ListMessages(ctx, s.fileID, 0)
	if err != nil {
		s.cache.FinalizePlaceholder()
		return
	}
	// The server returns newest first; the log reads oldest first.
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	s.cache.Reconcile(list)
}

func (s *Session) stream(ctx context.Context, text string) error {
	body, err := s.transport.SendMessage(ctx, s.fileID, text)
	if err != nil {
		return err
	}
	defer body.Close()

	s.mu.Lock()
	s.state = StateStreaming
	s.mu.Unlock()

	buf := make([]byte, 512)
	got := false
	for {
		n, err := body.Read(buf)
		if n > 0 {
			got = true
			s.cache.AppendFragment(string(buf[:n]))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("answer stream interrupted: %w", err)
		}
	}
	if !got {
		return fmt.Errorf("answer stream was empty")
	}
	return nil
}
