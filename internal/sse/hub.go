package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docupine/docupine-backend/internal/platform/logger"
	"github.com/docupine/docupine-backend/internal/types"
)

type Event string

const (
	EventDocumentStatusChanged Event = "DocumentStatusChanged"
)

type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}

// DocumentStatusPayload is what the ingestion side publishes whenever a
// document changes status; the web client uses it to stop polling early.
type DocumentStatusPayload struct {
	DocumentID    uuid.UUID            `json:"document_id"`
	StorageKey    string               `json:"storage_key"`
	Status        types.DocumentStatus `json:"status"`
	FailureReason string               `json:"failure_reason,omitempty"`
	PageCount     int                  `json:"page_count"`
}

type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Outbound chan Message
	done     chan struct{}
}

// Hub fans document events out to connected clients. Channels are
// per-user, so one owner's status updates never reach another.
type Hub struct {
	mu            sync.RWMutex
	logger        *logger.Logger
	subscriptions map[string]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger:        log.With("component", "SSEHub"),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}

func (hub *Hub) NewClient(userID uuid.UUID) *Client {
	client := &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Outbound: make(chan Message, 16),
		done:     make(chan struct{}),
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	channel := UserChannel(userID)
	clients, exists := hub.subscriptions[channel]
	if !exists {
		clients = make(map[*Client]bool)
		hub.subscriptions[channel] = clients
	}
	clients[client] = true
	hub.logger.Debug("SSE client subscribed", "clientID", client.ID, "channel", channel)
	return client
}

func (hub *Hub) CloseClient(client *Client) {
	hub.mu.Lock()
	channel := UserChannel(client.UserID)
	if subMap, ok := hub.subscriptions[channel]; ok {
		delete(subMap, client)
		if len(subMap) == 0 {
			delete(hub.subscriptions, channel)
		}
	}
	hub.mu.Unlock()
	close(client.done)
	hub.logger.Debug("SSE client disconnected", "clientID", client.ID)
}

func (hub *Hub) Broadcast(msg Message) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if msg.Channel == "" {
		return
	}
	clientsMap, ok := hub.subscriptions[msg.Channel]
	if !ok {
		return
	}
	for c := range clientsMap {
		select {
		case c.Outbound <- msg:
		default:
			hub.logger.Warn("Dropping SSE message; outbound buffer full", "clientID", c.ID)
		}
	}
}

// DocumentStatusChanged makes the hub usable as the ingestion
// pipeline's status notifier.
func (hub *Hub) DocumentStatusChanged(ownerID uuid.UUID, doc *types.Document) {
	hub.Broadcast(Message{
		Channel: UserChannel(ownerID),
		Event:   EventDocumentStatusChanged,
		Data: DocumentStatusPayload{
			DocumentID:    doc.ID,
			StorageKey:    doc.StorageKey,
			Status:        doc.Status,
			FailureReason: doc.FailureReason,
			PageCount:     doc.PageCount,
		},
	})
}

func (hub *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			hub.logger.Debug("SSE client context done", "clientID", client.ID, "err", ctx.Err())
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg := <-client.Outbound:
			jsonBytes, err := json.Marshal(msg)
			if err != nil {
				hub.logger.Warn("Failed to marshal SSE message", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", string(jsonBytes))
			flusher.Flush()
		}
	}
}
