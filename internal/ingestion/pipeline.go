package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/docupine/docupine-backend/internal/clients/openai"
	"github.com/docupine/docupine-backend/internal/ingestion/extract"
	"github.com/docupine/docupine-backend/internal/platform/logger"
	"github.com/docupine/docupine-backend/internal/platform/vector"
	"github.com/docupine/docupine-backend/internal/repos"
	"github.com/docupine/docupine-backend/internal/types"
)

const (
	// ReasonPageLimitExceeded is persisted on the document so the
	// client can tell a policy rejection from a generic failure.
	ReasonPageLimitExceeded = "page_limit_exceeded"

	embedBatchSize   = 32
	embedConcurrency = 4
)

type Outcome string

const (
	OutcomeIngested      Outcome = "ingested"
	OutcomeAlreadyExists Outcome = "already_exists"
	OutcomeQuotaExceeded Outcome = "quota_exceeded"
	OutcomeFailed        Outcome = "failed"
)

// Request is the triple the upload transport hands over once a
// client-side upload completes, plus the authenticated owner and their
// plan tier.
type Request struct {
	StorageKey string
	FileName   string
	FileURL    string
	OwnerID    uuid.UUID
	Subscribed bool
}

type Result struct {
	Outcome  Outcome
	Document *types.Document
	Pages    int
	Reason   string
}

// PlanLimits carries the page quotas for the two plan tiers.
type PlanLimits struct {
	FreePages int
	ProPages  int
}

func (p PlanLimits) For(subscribed bool) int {
	if subscribed {
		return p.ProPages
	}
	return p.FreePages
}

// StatusNotifier is told about every document status transition; the
// SSE hub hangs off this seam.
type StatusNotifier interface {
	DocumentStatusChanged(ownerID uuid.UUID, doc *types.Document)
}

type Pipeline interface {
	Ingest(ctx context.Context, req Request) (*Result, error)
}

type pipeline struct {
	log       *logger.Logger
	documents repos.DocumentRepo
	chunks    repos.DocumentChunkRepo
	fetcher   Fetcher
	embedder  openai.EmbeddingsClient
	store     vector.Store
	limits    PlanLimits
	notifier  StatusNotifier

	extractPages func(data []byte) ([]extract.Page, error)
}

func NewPipeline(
	log *logger.Logger,
	documents repos.DocumentRepo,
	chunks repos.DocumentChunkRepo,
	fetcher Fetcher,
	embedder openai.EmbeddingsClient,
	store vector.Store,
	limits PlanLimits,
	notifier StatusNotifier,
) (Pipeline, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if documents == nil || chunks == nil {
		return nil, fmt.Errorf("repos required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embeddings client required")
	}
	if store == nil {
		return nil, fmt.Errorf("vector store required")
	}
	if limits.FreePages <= 0 {
		limits.FreePages = 5
	}
	if limits.ProPages <= 0 {
		limits.ProPages = 25
	}
	return &pipeline{
		log:          log.With("service", "IngestionPipeline"),
		documents:    documents,
		chunks:       chunks,
		fetcher:      fetcher,
		embedder:     embedder,
		store:        store,
		limits:       limits,
		notifier:     notifier,
		extractPages: extract.Pages,
	}, nil
}

// Ingest runs the full upload-to-index sequence for one completed
// upload. Every document created here leaves in SUCCESS or FAILED;
// finalization is deferred so no error path can strand PROCESSING.
func (p *pipeline) Ingest(ctx context.Context, req Request) (*Result, error) {
	log := p.log.With("storage_key", req.StorageKey, "owner_id", req.OwnerID)

	if strings.TrimSpace(req.StorageKey) == "" {
		return nil, fmt.Errorf("storage key required")
	}
	if req.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("owner id required")
	}

	// Step 1: at-most-once per storage key.
	existing, err := p.documents.GetByStorageKey(ctx, nil, req.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}
	if existing != nil {
		log.Info("Document already ingested for storage key, skipping", "document_id", existing.ID)
		return &Result{Outcome: OutcomeAlreadyExists, Document: existing}, nil
	}

	// Step 2: record before any heavy work so partial failures are
	// observable rather than silent.
	doc, err := p.documents.Create(ctx, nil, &types.Document{
		StorageKey: req.StorageKey,
		Name:       req.FileName,
		OwnerID:    req.OwnerID,
		SourceURL:  req.FileURL,
		Status:     types.DocumentStatusProcessing,
	})
	if err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}
	log = log.With("document_id", doc.ID)
	p.notifyStatus(req.OwnerID, doc)

	finalized := false
	defer func() {
		if finalized {
			return
		}
		p.finalize(doc, types.DocumentStatusFailed, "")
	}()

	// Step 3: fetch bytes, with the storage fallback inside Fetch.
	data, contentType, err := p.fetcher.Fetch(ctx, req.FileURL, req.StorageKey)
	if err != nil {
		finalized = true
		p.finalize(doc, types.DocumentStatusFailed, "")
		log.Error("Fetch failed on all sources", "error", err)
		return &Result{Outcome: OutcomeFailed, Document: doc, Reason: "fetch_failed"}, err
	}

	// Step 4: permissive extraction. An unexpected declared content
	// type is worth a warning but not a refusal.
	if !strings.Contains(strings.ToLower(contentType), "pdf") && contentType != "application/octet-stream" && contentType != "" {
		log.Warn("Declared content type is not PDF, attempting extraction anyway", "content_type", contentType)
	}
	if !extract.IsPDF(data) {
		log.Warn("Payload is missing the PDF magic bytes, attempting extraction anyway")
	}
	pages, err := p.extractPages(data)
	if err != nil {
		finalized = true
		p.finalize(doc, types.DocumentStatusFailed, "")
		log.Error("Extraction failed", "error", err)
		return &Result{Outcome: OutcomeFailed, Document: doc, Reason: "extract_failed"}, err
	}
	if err := p.documents.UpdatePageCount(ctx, nil, doc.ID, len(pages)); err != nil {
		log.Warn("Could not record page count", "error", err)
	}
	doc.PageCount = len(pages)

	// Step 5: plan quota. An oversized document is an expected policy
	// rejection, not an error.
	limit := p.limits.For(req.Subscribed)
	if len(pages) > limit {
		finalized = true
		p.finalize(doc, types.DocumentStatusFailed, ReasonPageLimitExceeded)
		log.Info("Page limit exceeded",
			"pages", len(pages),
			"limit", limit,
			"subscribed", req.Subscribed,
		)
		return &Result{
			Outcome:  OutcomeQuotaExceeded,
			Document: doc,
			Pages:    len(pages),
			Reason:   ReasonPageLimitExceeded,
		}, nil
	}

	// Step 6: embed + index. The namespace is fully populated in one
	// upsert; any failure here leaves the document FAILED and the
	// responder treats its partition as unqueryable.
	vectors, chunkRows, err := p.embedPages(ctx, doc, pages)
	if err != nil {
		finalized = true
		p.finalize(doc, types.DocumentStatusFailed, "")
		log.Error("Embedding failed", "error", err)
		return &Result{Outcome: OutcomeFailed, Document: doc, Pages: len(pages), Reason: "embed_failed"}, err
	}
	if err := p.store.Upsert(ctx, doc.ID.String(), vectors); err != nil {
		finalized = true
		p.finalize(doc, types.DocumentStatusFailed, "")
		log.Error("Vector upsert failed", "error", err)
		return &Result{Outcome: OutcomeFailed, Document: doc, Pages: len(pages), Reason: "index_failed"}, err
	}
	if _, err := p.chunks.Create(ctx, nil, chunkRows); err != nil {
		finalized = true
		p.finalize(doc, types.DocumentStatusFailed, "")
		log.Error("Chunk persistence failed", "error", err)
		return &Result{Outcome: OutcomeFailed, Document: doc, Pages: len(pages), Reason: "chunk_persist_failed"}, err
	}

	// Step 7: finalize.
	finalized = true
	p.finalize(doc, types.DocumentStatusSuccess, "")
	log.Info("Document ingested", "pages", len(pages), "vectors", len(vectors))
	return &Result{Outcome: OutcomeIngested, Document: doc, Pages: len(pages)}, nil
}

func (p *pipeline) finalize(doc *types.Document, status types.DocumentStatus, reason string) {
	// Finalization must run even when the causing error came from a
	// canceled context, so it gets its own.
	ctx := context.Background()
	if err := p.documents.UpdateStatus(ctx, nil, doc.ID, status, reason); err != nil {
		p.log.Error("Failed to finalize document status",
			"document_id", doc.ID,
			"status", status,
			"error", err,
		)
		return
	}
	doc.Status = status
	doc.FailureReason = reason
	p.notifyStatus(doc.OwnerID, doc)
}

func (p *pipeline) notifyStatus(ownerID uuid.UUID, doc *types.Document) {
	if p.notifier == nil {
		return
	}
	p.notifier.DocumentStatusChanged(ownerID, doc)
}

// embedPages turns non-empty pages into vectors and chunk rows. Batches
// run concurrently but results land at fixed offsets, so chunk order is
// deterministic.
func (p *pipeline) embedPages(ctx context.Context, doc *types.Document, pages []extract.Page) ([]vector.Vector, []*types.DocumentChunk, error) {
	kept := make([]extract.Page, 0, len(pages))
	for _, pg := range pages {
		if strings.TrimSpace(pg.Text) != "" {
			kept = append(kept, pg)
		}
	}
	if len(kept) == 0 {
		return nil, nil, fmt.Errorf("no extractable text in %d pages", len(pages))
	}

	embedded := make([][]float32, len(kept))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for start := 0; start < len(kept); start += embedBatchSize {
		start := start
		end := start + embedBatchSize
		if end > len(kept) {
			end = len(kept)
		}
		g.Go(func() error {
			inputs := make([]string, 0, end-start)
			for _, pg := range kept[start:end] {
				inputs = append(inputs, pg.Text)
			}
			vecs, err := p.embedder.Embed(gctx, inputs)
			if err != nil {
				return fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("embed batch [%d:%d]: got %d vectors", start, end, len(vecs))
			}
			copy(embedded[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	vectors := make([]vector.Vector, 0, len(kept))
	chunkRows := make([]*types.DocumentChunk, 0, len(kept))
	for i, pg := range kept {
		meta, _ := json.Marshal(map[string]any{"page": pg.Number})
		vectors = append(vectors, vector.Vector{
			ID:     fmt.Sprintf("%s-p%04d", doc.ID, pg.Number),
			Values: embedded[i],
			Metadata: map[string]any{
				"text":        pg.Text,
				"page":        pg.Number,
				"document_id": doc.ID.String(),
			},
		})
		chunkRows = append(chunkRows, &types.DocumentChunk{
			DocumentID: doc.ID,
			Page:       pg.Number,
			Text:       pg.Text,
			Metadata:   datatypes.JSON(meta),
		})
	}
	return vectors, chunkRows, nil
}
