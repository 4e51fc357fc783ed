package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// FileInfo is the subset of the document payload the client cares
// about.
type FileInfo struct {
	ID            string `json:"id"`
	StorageKey    string `json:"storage_key"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason"`
	PageCount     int    `json:"page_count"`
}

// ErrNotFound marks a poll attempt that came back 404; the caller
// retries within its budget.
type ErrNotFound struct{ Key string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("file %q not found yet", e.Key) }

// Client talks to the backend API. It implements Transport for
// Session.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base url required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: baseURL, token: token, http: httpClient}, nil
}

// SendMessage posts the question and hands back the raw fragment
// stream; the caller owns closing it.
func (c *Client) SendMessage(ctx context.Context, fileID, text string) (io.ReadCloser, error) {
	payload, err := json.Marshal(map[string]string{"fileId": fileID, "message": text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/message", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		defer res.Body.Close()
		return nil, apiError("send message", res)
	}
	return res.Body, nil
}

// ListMessages fetches the persisted conversation for a document,
// newest first as the server returns it.
func (c *Client) ListMessages(ctx context.Context, fileID string, limit int) ([]CachedMessage, error) {
	u := c.baseURL + "/api/files/" + fileID + "/messages"
	if limit > 0 {
		u += "?limit=" + strconv.Itoa(limit)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, apiError("list messages", res)
	}

	var envelope struct {
		Messages []struct {
			ID            string    `json:"id"`
			Text          string    `json:"text"`
			IsUserMessage bool      `json:"is_user_message"`
			CreatedAt     time.Time `json:"created_at"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("list messages: decode: %w", err)
	}

	out := make([]CachedMessage, 0, len(envelope.Messages))
	for _, m := range envelope.Messages {
		out = append(out, CachedMessage{
			ID:            m.ID,
			Text:          m.Text,
			IsUserMessage: m.IsUserMessage,
			CreatedAt:     m.CreatedAt,
		})
	}
	return out, nil
}

// FileByKey fetches the document for an upload's storage key; a 404
// comes back as *ErrNotFound.
func (c *Client) FileByKey(ctx context.Context, key string) (*FileInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/files/key/"+key, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get file by key: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, &ErrNotFound{Key: key}
	}
	if res.StatusCode != http.StatusOK {
		return nil, apiError("get file by key", res)
	}

	var envelope struct {
		File FileInfo `json:"file"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("get file by key: decode: %w", err)
	}
	return &envelope.File, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func apiError(op string, res *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = res.Status
	}
	return fmt.Errorf("%s: unexpected status %d: %s", op, res.StatusCode, msg)
}
