package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/docupine/docupine-backend/internal/platform/logger"
)

// Fetcher retrieves uploaded file bytes. The primary source is the URL
// the upload transport issued; if that fails, a direct storage URL is
// reconstructed from the storage key before giving up.
type Fetcher interface {
	Fetch(ctx context.Context, fileURL, storageKey string) ([]byte, string, error)
}

type httpFetcher struct {
	log         *logger.Logger
	http        *http.Client
	storageBase string
	maxBytes    int64
}

func NewFetcher(log *logger.Logger, httpClient *http.Client, storageBase string, maxBytes int64) Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	return &httpFetcher{
		log:         log.With("service", "Fetcher"),
		http:        httpClient,
		storageBase: strings.TrimRight(storageBase, "/"),
		maxBytes:    maxBytes,
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, fileURL, storageKey string) ([]byte, string, error) {
	data, contentType, primaryErr := f.fetchOne(ctx, fileURL)
	if primaryErr == nil {
		return data, contentType, nil
	}

	if f.storageBase == "" || strings.TrimSpace(storageKey) == "" {
		return nil, "", primaryErr
	}

	fallbackURL := f.storageBase + "/" + storageKey
	f.log.Warn("Direct fetch failed, trying storage fallback",
		"url", fileURL,
		"fallback_url", fallbackURL,
		"error", primaryErr,
	)

	data, contentType, fallbackErr := f.fetchOne(ctx, fallbackURL)
	if fallbackErr != nil {
		return nil, "", fmt.Errorf("fetch failed on all sources: primary: %v; fallback: %w", primaryErr, fallbackErr)
	}
	return data, contentType, nil
}

func (f *httpFetcher) fetchOne(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; PDF-Processor/1.0)")
	req.Header.Set("Accept", "application/pdf,*/*")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("http %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", fmt.Errorf("file exceeds %d byte limit", f.maxBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
