package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/docupine/docupine-backend/internal/ingestion"
	"github.com/docupine/docupine-backend/internal/platform/logger"
)

// Worker drains the ingest queue with a fixed pool of goroutines. Each
// job runs the full pipeline; a failed job is already finalized as a
// FAILED document by the pipeline, so nothing is retried here.
type Worker struct {
	log      *logger.Logger
	queue    Queue
	pipeline ingestion.Pipeline
	workers  int

	wg sync.WaitGroup
}

func NewWorker(baseLog *logger.Logger, queue Queue, pipeline ingestion.Pipeline, workers int) (*Worker, error) {
	if baseLog == nil {
		return nil, fmt.Errorf("logger required")
	}
	if queue == nil {
		return nil, fmt.Errorf("queue required")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline required")
	}
	if workers <= 0 {
		workers = 2
	}
	return &Worker{
		log:      baseLog.With("component", "IngestWorker"),
		queue:    queue,
		pipeline: pipeline,
		workers:  workers,
	}, nil
}

func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.loop(ctx, i)
	}
}

// Wait blocks until every worker goroutine has exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) loop(ctx context.Context, id int) {
	defer w.wg.Done()
	log := w.log.With("worker", id)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		req, err := w.queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("Dequeue failed, backing off", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
			continue
		}
		if req == nil {
			continue
		}
		w.run(ctx, log, *req)
	}
}

func (w *Worker) run(ctx context.Context, log *logger.Logger, req ingestion.Request) {
	// A handler panic must not take the pool down.
	defer func() {
		if r := recover(); r != nil {
			log.Error("Ingest job panic", "storage_key", req.StorageKey, "panic", r)
		}
	}()
	res, err := w.pipeline.Ingest(ctx, req)
	if err != nil {
		log.Error("Ingest job failed", "storage_key", req.StorageKey, "error", err)
		return
	}
	log.Info("Ingest job done",
		"storage_key", req.StorageKey,
		"outcome", res.Outcome,
		"pages", res.Pages,
	)
}
