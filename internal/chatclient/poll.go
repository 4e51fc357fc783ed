package chatclient

import (
	"context"
	"fmt"
	"time"
)

// FileLookup is the one call polling needs; Client satisfies it.
type FileLookup interface {
	FileByKey(ctx context.Context, key string) (*FileInfo, error)
}

// PollDocument waits for an uploaded file to appear, retrying on 404
// with the policy's schedule. It returns the file as soon as the
// backend knows about it, whatever its processing status; exhausting
// the budget is a terminal error.
func PollDocument(ctx context.Context, lookup FileLookup, policy RetryPolicy, key string) (*FileInfo, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		delay, ok := policy.Delay(attempt)
		if !ok {
			if lastErr == nil {
				lastErr = fmt.Errorf("no attempts allowed by policy")
			}
			return nil, fmt.Errorf("file %q did not appear after %d attempts: %w", key, policy.MaxAttempts, lastErr)
		}

		info, err := lookup.FileByKey(ctx, key)
		if err == nil {
			return info, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		// Transient transport errors spend the same budget as 404s.
		lastErr = err

		// The delay sits between attempts; after the last one the
		// failure is terminal immediately.
		if _, more := policy.Delay(attempt + 1); !more {
			return nil, fmt.Errorf("file %q did not appear after %d attempts: %w", key, policy.MaxAttempts, lastErr)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
