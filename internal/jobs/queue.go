package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/docupine/docupine-backend/internal/ingestion"
)

const defaultQueueKey = "docupine:ingest"

// Queue decouples the upload callback from the ingestion worker. The
// HTTP handler enqueues and returns 202; a worker picks the job up.
type Queue interface {
	Enqueue(ctx context.Context, req ingestion.Request) error
	// Dequeue blocks up to timeout; a nil request with nil error means
	// the wait elapsed with nothing to do.
	Dequeue(ctx context.Context, timeout time.Duration) (*ingestion.Request, error)
}

type redisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(client *redis.Client, key string) (Queue, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if key == "" {
		key = defaultQueueKey
	}
	return &redisQueue{client: client, key: key}, nil
}

func (q *redisQueue) Enqueue(ctx context.Context, req ingestion.Request) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode ingest job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue ingest job: %w", err)
	}
	return nil
}

func (q *redisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*ingestion.Request, error) {
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue ingest job: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("dequeue ingest job: unexpected reply shape (%d elements)", len(res))
	}
	var req ingestion.Request
	if err := json.Unmarshal([]byte(res[1]), &req); err != nil {
		return nil, fmt.Errorf("decode ingest job: %w", err)
	}
	return &req, nil
}
