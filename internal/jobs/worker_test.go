package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/docupine/docupine-backend/internal/ingestion"
	"github.com/docupine/docupine-backend/internal/platform/logger"
)

type channelQueue struct {
	ch chan ingestion.Request
}

func newChannelQueue(reqs ...ingestion.Request) *channelQueue {
	q := &channelQueue{ch: make(chan ingestion.Request, len(reqs)+1)}
	for _, r := range reqs {
		q.ch <- r
	}
	return q
}

func (q *channelQueue) Enqueue(ctx context.Context, req ingestion.Request) error {
	q.ch <- req
	return nil
}

func (q *channelQueue) Dequeue(ctx context.Context, timeout time.Duration) (*ingestion.Request, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case req := <-q.ch:
		return &req, nil
	case <-time.After(timeout):
		return nil, nil
	}
}

type recordingPipeline struct {
	mu        sync.Mutex
	keys      []string
	panicKeys map[string]bool
	done      chan string
}

func newRecordingPipeline(buffer int) *recordingPipeline {
	return &recordingPipeline{
		panicKeys: map[string]bool{},
		done:      make(chan string, buffer),
	}
}

func (p *recordingPipeline) Ingest(ctx context.Context, req ingestion.Request) (*ingestion.Result, error) {
	p.mu.Lock()
	p.keys = append(p.keys, req.StorageKey)
	shouldPanic := p.panicKeys[req.StorageKey]
	p.mu.Unlock()
	p.done <- req.StorageKey
	if shouldPanic {
		panic("extract blew up")
	}
	return &ingestion.Result{Outcome: ingestion.OutcomeIngested, Pages: 1}, nil
}

func (p *recordingPipeline) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

func workerLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func collect(t *testing.T, ch <-chan string, n int) map[string]bool {
	t.Helper()
	got := map[string]bool{}
	for i := 0; i < n; i++ {
		select {
		case k := <-ch:
			got[k] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for job %d of %d", i+1, n)
		}
	}
	return got
}

func TestWorkerProcessesJobs(t *testing.T) {
	queue := newChannelQueue(
		ingestion.Request{StorageKey: "key-a"},
		ingestion.Request{StorageKey: "key-b"},
	)
	pipe := newRecordingPipeline(4)
	w, err := NewWorker(workerLogger(t), queue, pipe, 2)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	got := collect(t, pipe.done, 2)
	if !got["key-a"] || !got["key-b"] {
		t.Fatalf("processed: %v", got)
	}

	cancel()
	w.Wait()
}

func TestWorkerSurvivesPanickingJob(t *testing.T) {
	queue := newChannelQueue(
		ingestion.Request{StorageKey: "key-boom"},
		ingestion.Request{StorageKey: "key-after"},
	)
	pipe := newRecordingPipeline(4)
	pipe.panicKeys["key-boom"] = true
	w, err := NewWorker(workerLogger(t), queue, pipe, 1)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	got := collect(t, pipe.done, 2)
	if !got["key-after"] {
		t.Fatalf("worker died after panic; processed %v", pipe.seen())
	}

	cancel()
	w.Wait()
}

func TestWorkerStopsOnCancel(t *testing.T) {
	queue := newChannelQueue()
	pipe := newRecordingPipeline(1)
	w, err := NewWorker(workerLogger(t), queue, pipe, 2)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	stopped := make(chan struct{})
	go func() {
		w.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatalf("workers did not exit after cancel")
	}
	if len(pipe.seen()) != 0 {
		t.Fatalf("unexpected jobs ran: %v", pipe.seen())
	}
}
