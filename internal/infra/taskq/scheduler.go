package taskq

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"ticketq/internal/ports"
)

var _ ports.Scheduler = (*Scheduler)(nil)

// Scheduler polls the scheduled zset and moves due delayed tasks back onto
// the work stream.
type Scheduler struct {
	C        *Client
	Interval time.Duration
}

func NewScheduler(c *Client, interval time.Duration) *Scheduler {
	return &Scheduler{C: c, Interval: interval}
}

func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		if err := s.moveDue(ctx); err != nil {
			log.Ctx(ctx).Err(err).Msg("failed to move due tasks")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) moveDue(ctx context.Context) error {
	now := float64(time.Now().UnixMilli())
	ids, err := s.C.Rdb.ZRangeByScore(ctx, s.C.Cfg.ScheduledZSet, &redis.ZRangeBy{
		Min:    "-inf",
		Max:    strconv.FormatFloat(now, 'f', -1, 64),
		Offset: 0,
		Count:  128,
	}).Result()
	if err != nil {
		return err
	}

	for _, id := range ids {
		b, err := s.C.Rdb.HGet(ctx, taskKey(id), "task").Result()
		if err != nil {
			log.Ctx(ctx).Err(err).Str("task_id", id).Msg("load delayed task")
			continue
		}

		if _, err := s.C.Rdb.XAdd(ctx, &redis.XAddArgs{
			Stream: s.C.Cfg.StreamKey,
			Values: map[string]interface{}{"task": b},
		}).Result(); err == nil {
			_ = s.C.Rdb.ZRem(ctx, s.C.Cfg.ScheduledZSet, id).Err()
		}
	}
	return nil
}
