package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"itineramio/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueLiquidation = "jobs:liquidation"
	QueueEmailIngest = "jobs:email_ingest"

	// MaxJobAttempts counts the first run; a job failing this many times is dead-lettered.
	MaxJobAttempts = 3

	popTimeout = 5 * time.Second
	// popBackoff is the pause after a failed BRPOP (Redis down, pool exhausted).
	popBackoff = 2 * time.Second

	unknownJobType = "unknown"
)

// ErrPermanent marks failures that retrying cannot fix (bad payloads).
var ErrPermanent = errors.New("permanent job failure")

// Queue is the subset of the Redis client the job layer uses.
// *redis.Client satisfies it.
type Queue interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
	RPop(ctx context.Context, key string) *redis.StringCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// JobHandler processes one payload. A nil error acknowledges the job.
type JobHandler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb Queue
}

func NewDispatcher(rdb Queue) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueLiquidationBatch queues one monthly liquidation run.
func (d *Dispatcher) EnqueueLiquidationBatch(ctx context.Context, req dto.BatchLiquidationRequest) error {
	encoded, err := encodeJob("liquidation_batch", req, 0)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, QueueLiquidation, encoded).Err()
}

// EnqueueEmailReservations queues one job per parsed email so a bad message
// never blocks the rest. All jobs are pushed in a single LPUSH.
func (d *Dispatcher) EnqueueEmailReservations(ctx context.Context, list []dto.ParsedEmailReservation) (int, error) {
	if len(list) == 0 {
		return 0, nil
	}
	values := make([]interface{}, 0, len(list))
	for _, e := range list {
		encoded, err := encodeJob("email_reservation", e, 0)
		if err != nil {
			return 0, err
		}
		values = append(values, encoded)
	}
	if err := d.rdb.LPush(ctx, QueueEmailIngest, values...).Err(); err != nil {
		return 0, err
	}
	return len(values), nil
}

// QueueStats reports pending and dead-lettered jobs per queue.
func (d *Dispatcher) QueueStats(ctx context.Context) (map[string]dto.QueueStats, error) {
	queues := []string{QueueLiquidation, QueueEmailIngest}
	out := make(map[string]dto.QueueStats, len(queues))
	for _, q := range queues {
		pending, err := d.rdb.LLen(ctx, q).Result()
		if err != nil {
			return nil, err
		}
		dead, err := DLQLength(ctx, d.rdb, q)
		if err != nil {
			return nil, err
		}
		out[q] = dto.QueueStats{Pending: pending, DeadLettered: dead}
	}
	return out, nil
}

func encodeJob(jobType string, payload interface{}, attempts int) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Job{Type: jobType, Payload: data, Attempts: attempts})
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb      Queue
	handlers map[string]JobHandler // by queue
	backoff  time.Duration
}

func NewPool(rdb Queue, handlers map[string]JobHandler) *Pool {
	return &Pool{rdb: rdb, handlers: handlers, backoff: popBackoff}
}

// Start launches numWorkers goroutines consuming every queue with a handler.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	queues := make([]string, 0, len(p.handlers))
	for _, q := range []string{QueueLiquidation, QueueEmailIngest} {
		if _, ok := p.handlers[q]; ok {
			queues = append(queues, q)
		}
	}
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i, queues)
	}
	log.Info().Int("workers", numWorkers).Strs("queues", queues).Msg("worker pool started")
}

func (p *Pool) run(ctx context.Context, id int, queues []string) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
			// Blocking pop; waits up to popTimeout then loops to check ctx
			result, err := p.rdb.BRPop(ctx, popTimeout, queues...).Result()
			if err != nil && !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Warn().Err(err).Int("worker", id).Dur("backoff", p.backoff).Msg("queue pop failed")
				select {
				case <-ctx.Done():
				case <-time.After(p.backoff):
				}
				continue
			}
			if err != nil || len(result) < 2 {
				continue
			}
			p.processJob(ctx, result[0], result[1])
		}
	}
}

// processJob runs the handler of queue. Transient failures are re-queued with
// an incremented attempt count until MaxJobAttempts, then dead-lettered.
func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		quoted, _ := json.Marshal(raw)
		SendToDLQ(ctx, p.rdb, queue, unknownJobType, quoted, "malformed envelope", 1)
		return
	}
	h, ok := p.handlers[queue]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "no handler for queue", job.Attempts+1)
		return
	}

	attempts := job.Attempts + 1
	err := h.Process(ctx, job.Payload)
	switch {
	case err == nil:
		log.Debug().Str("queue", queue).Str("type", job.Type).Int("attempts", attempts).Msg("job done")
	case errors.Is(err, ErrPermanent) || attempts >= MaxJobAttempts:
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), attempts)
	default:
		log.Warn().Err(err).Str("queue", queue).Str("type", job.Type).Int("attempts", attempts).Msg("job failed, re-queued")
		encoded, encErr := json.Marshal(Job{Type: job.Type, Payload: job.Payload, Attempts: attempts})
		if encErr == nil {
			encErr = p.rdb.LPush(ctx, queue, encoded).Err()
		}
		if encErr != nil {
			SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "requeue failed: "+encErr.Error(), attempts)
		}
	}
}
