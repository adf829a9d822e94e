package worker

// Dead letter queue: one Redis list per source queue (dlq:{queue}) holding
// jobs that failed permanently or ran out of attempts. Nothing consumes them
// automatically; an admin re-drives them with Redrive once the cause is fixed.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// ErrUnknownQueue is returned for queue names the pool does not consume.
var ErrUnknownQueue = errors.New("unknown job queue")

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // ISO 8601
	Attempts      int             `json:"attempts"`
}

// SendToDLQ pushes a failed job to the dead letter queue.
func SendToDLQ(ctx context.Context, rdb Queue, queue string, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of entries in a DLQ for monitoring.
func DLQLength(ctx context.Context, rdb Queue, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// Redrive moves up to limit dead-lettered jobs back onto their queue with a
// fresh attempt budget. Oldest entries go first. Malformed envelopes cannot be
// replayed and are rotated back into the DLQ.
func (d *Dispatcher) Redrive(ctx context.Context, queue string, limit int) (int, error) {
	if queue != QueueLiquidation && queue != QueueEmailIngest {
		return 0, fmt.Errorf("%w: %s", ErrUnknownQueue, queue)
	}
	moved := 0
	for i := 0; i < limit; i++ {
		raw, err := d.rdb.RPop(ctx, DLQPrefix+queue).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return moved, err
		}
		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.JobType == "" || entry.JobType == unknownJobType {
			if err := d.rdb.LPush(ctx, DLQPrefix+queue, raw).Err(); err != nil {
				return moved, err
			}
			continue
		}
		encoded, err := json.Marshal(Job{Type: entry.JobType, Payload: entry.Payload})
		if err != nil {
			return moved, err
		}
		if err := d.rdb.LPush(ctx, queue, encoded).Err(); err != nil {
			// put it back where it was
			_ = d.rdb.RPush(ctx, DLQPrefix+queue, raw).Err()
			return moved, err
		}
		moved++
	}
	if moved > 0 {
		log.Info().Str("queue", queue).Int("moved", moved).Msg("dlq: re-driven")
	}
	return moved, nil
}
