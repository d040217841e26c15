package taskq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ticketq/internal/domain"
	"ticketq/internal/ports"
)

var _ ports.Queue = (*Client)(nil)

func (c *Client) Enqueue(ctx context.Context, t domain.PurchaseTask) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Status = domain.StatusQueued
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	b, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal task: %w", err)
	}
	if _, err := c.Rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: c.Cfg.StreamKey,
		Values: map[string]interface{}{"task": b},
	}).Result(); err != nil {
		return "", err
	}

	_ = c.SaveState(ctx, t)
	return t.ID, nil
}

// EnqueueDelayed parks the task in the scheduled zset until runAt; the
// scheduler moves it back onto the stream once due.
func (c *Client) EnqueueDelayed(ctx context.Context, t domain.PurchaseTask, runAt time.Time) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Status = domain.StatusDelayed
	t.NextRunAt = runAt
	if err := c.SaveState(ctx, t); err != nil {
		return "", err
	}

	score := float64(runAt.UnixMilli())
	if err := c.Rdb.ZAdd(ctx, c.Cfg.ScheduledZSet, redis.Z{
		Score:  score,
		Member: t.ID,
	}).Err(); err != nil {
		return "", err
	}
	return t.ID, nil
}

func (c *Client) Claim(ctx context.Context, consumer string, block time.Duration) (*domain.PurchaseTask, string, error) {
	res, err := c.Rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.Cfg.Group,
		Consumer: consumer,
		Streams:  []string{c.Cfg.StreamKey, ">"},
		Count:    1,
		Block:    block,
	}).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", nil
		}
		return nil, "", err
	}

	if len(res) == 0 || len(res[0].Messages) == 0 {
		return nil, "", nil
	}

	msg := res[0].Messages[0]
	raw := msg.Values["task"]
	var t domain.PurchaseTask
	switch v := raw.(type) {
	case string:
		err = json.Unmarshal([]byte(v), &t)
	case []byte:
		err = json.Unmarshal(v, &t)
	default:
		return nil, "", fmt.Errorf("unexpected task type: %T", v)
	}
	if err != nil {
		return nil, "", fmt.Errorf("decode task: %w", err)
	}
	return &t, msg.ID, nil
}

func (c *Client) Ack(ctx context.Context, streamID string) error {
	return c.Rdb.XAck(ctx, c.Cfg.StreamKey, c.Cfg.Group, streamID).Err()
}

// ToDLQ records the exhausted task with its failure reason, acks it off the
// work stream and marks the state hash failed.
func (c *Client) ToDLQ(ctx context.Context, streamID string, t domain.PurchaseTask, reason string) error {
	b, err := json.Marshal(struct {
		domain.PurchaseTask
		Reason string `json:"reason"`
	}{t, reason})
	if err != nil {
		return fmt.Errorf("marshal dlq task: %w", err)
	}
	if err := c.Rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: c.Cfg.DLQStreamKey,
		Values: map[string]interface{}{"task": b},
	}).Err(); err != nil {
		return err
	}

	_ = c.Rdb.XAck(ctx, c.Cfg.StreamKey, c.Cfg.Group, streamID).Err()
	t.Status = domain.StatusFailed
	return c.SaveState(ctx, t)
}

// SaveState keeps the task's queue-side state in a hash, including the full
// JSON so delayed tasks survive the zset round trip intact.
func (c *Client) SaveState(ctx context.Context, t domain.PurchaseTask) error {
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	m := map[string]any{
		"status":       string(t.Status),
		"attempts":     t.Attempts,
		"max_attempts": t.MaxAttempts,
		"record_id":    t.RecordID,
		"event_code":   t.EventCode,
		"next_run_at":  t.NextRunAt.UnixMilli(),
		"task":         b,
	}
	return c.Rdb.HSet(ctx, taskKey(t.ID), m).Err()
}

func (c *Client) Get(ctx context.Context, id string) (*domain.PurchaseTask, error) {
	h, err := c.Rdb.HGetAll(ctx, taskKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(h) == 0 {
		return nil, nil
	}

	var t domain.PurchaseTask
	if err := json.Unmarshal([]byte(h["task"]), &t); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", id, err)
	}
	t.Status = domain.TaskStatus(h["status"])
	return &t, nil
}
