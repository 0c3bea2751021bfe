package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nidhogg/mentat/internal/attention"
)

// Bus publishes cycle telemetry over Redis Streams so external consumers
// (dashboards, downstream allocators) can follow the attention economy
// without polling the daemon.
type Bus struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// CycleEvent is one published cycle summary.
type CycleEvent struct {
	ID        string               `json:"id"`
	Stats     attention.CycleStats `json:"stats"`
	Timestamp time.Time            `json:"timestamp"`
}

const cycleStream = "mentat:cycles"

// NewBus creates a Redis-backed telemetry bus.
func NewBus(redisURL string, logger *zap.Logger) (*Bus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Bus{rdb: rdb, logger: logger}, nil
}

// Publish appends a cycle event to the stream.
func (b *Bus) Publish(ctx context.Context, stats attention.CycleStats) error {
	event := CycleEvent{
		ID:        uuid.New().String(),
		Stats:     stats,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: cycleStream,
		MaxLen: 10_000,
		Approx: true,
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish cycle event: %w", err)
	}

	b.logger.Debug("cycle event published",
		zap.String("event", event.ID),
		zap.Float64("bank", stats.Bank))
	return nil
}

// Subscribe listens for cycle events. Returns a channel that emits events;
// cancel the context to stop.
func (b *Bus) Subscribe(ctx context.Context) <-chan *CycleEvent {
	ch := make(chan *CycleEvent, 16)

	go func() {
		defer close(ch)
		lastID := "$"

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			results, err := b.rdb.XRead(ctx, &redis.XReadArgs{
				Streams: []string{cycleStream, lastID},
				Count:   10,
				Block:   time.Second * 2,
			}).Result()

			if err != nil {
				if err == context.Canceled || err == context.DeadlineExceeded {
					return
				}
				continue
			}

			for _, r := range results {
				for _, msg := range r.Messages {
					lastID = msg.ID
					data, ok := msg.Values["data"].(string)
					if !ok {
						continue
					}
					var ev CycleEvent
					if json.Unmarshal([]byte(data), &ev) == nil {
						ch <- &ev
					}
				}
			}
		}
	}()

	return ch
}

// Close shuts down the Redis connection.
func (b *Bus) Close() error {
	return b.rdb.Close()
}
