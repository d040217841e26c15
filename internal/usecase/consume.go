package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ticketq/internal/booking"
	"ticketq/internal/domain"
	"ticketq/internal/ports"
)

// Handler executes one attempt of a claimed task.
type Handler func(ctx context.Context, t domain.PurchaseTask) error

// Consumer drives the task state machine: claim → run → ack, retry with
// backoff, or terminal failure. It is the only layer that decides retry vs
// discard, based solely on the error kind.
type Consumer struct {
	Q            ports.Queue
	Records      ports.RecordStore
	Policy       RetryPolicy
	ConsumerName string
	ClaimBlock   time.Duration
	Log          zerolog.Logger

	now func() time.Time
}

func NewConsumer(q ports.Queue, records ports.RecordStore, policy RetryPolicy, name string) *Consumer {
	return &Consumer{
		Q:            q,
		Records:      records,
		Policy:       policy,
		ConsumerName: name,
		ClaimBlock:   5 * time.Second,
		Log:          zerolog.Nop(),
		now:          time.Now,
	}
}

func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t, streamID, err := c.Q.Claim(ctx, c.ConsumerName, c.ClaimBlock)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.Log.Error().Err(err).Msg("claim failed")
			continue
		}
		if t == nil {
			continue
		}

		c.process(ctx, *t, streamID, handle)
	}
}

func (c *Consumer) process(ctx context.Context, t domain.PurchaseTask, streamID string, handle Handler) {
	t.Status = domain.StatusRunning
	_ = c.Q.SaveState(ctx, t)

	err := handle(ctx, t)
	if err == nil {
		_ = c.Q.Ack(ctx, streamID)
		t.Status = domain.StatusDone
		_ = c.Q.SaveState(ctx, t)
		return
	}

	executions := t.Attempts + 1
	t.Attempts = executions

	if booking.IsValidation(err) {
		c.Log.Error().Err(err).
			Str("event_code", t.EventCode).
			Int64("record_id", t.RecordID).
			Msg("discarding purchase task: validation error")
		c.fail(ctx, t, streamID, err)
		return
	}

	maxAttempts := c.Policy.MaxAttempts
	if t.MaxAttempts > 0 {
		maxAttempts = t.MaxAttempts
	}

	// Final-attempt check happens before deciding to re-queue so the cap is
	// exact: executions counts the attempt that just failed.
	if executions >= maxAttempts {
		c.Log.Error().Err(err).
			Str("event_code", t.EventCode).
			Int64("record_id", t.RecordID).
			Int("attempts", executions).
			Msg("purchase task failed permanently: retries exhausted")
		c.fail(ctx, t, streamID, err)
		return
	}

	delay := c.Policy.Delay(executions)
	t.NextRunAt = c.now().Add(delay)
	c.Log.Warn().Err(err).
		Str("event_code", t.EventCode).
		Int64("record_id", t.RecordID).
		Int("attempt", executions).
		Dur("retry_in", delay).
		Msg("retryable purchase error, re-queueing")

	// Ack first to clear the PEL, then park the task for its delayed retry.
	_ = c.Q.Ack(ctx, streamID)
	if _, reErr := c.Q.EnqueueDelayed(ctx, t, t.NextRunAt); reErr != nil {
		c.Log.Error().Err(reErr).
			Str("event_code", t.EventCode).
			Int64("record_id", t.RecordID).
			Msg("failed to re-queue purchase task")
	}
}

// fail records the terminal outcome on the purchase record and parks the task
// in the DLQ.
func (c *Consumer) fail(ctx context.Context, t domain.PurchaseTask, streamID string, cause error) {
	failed := domain.RecordFailed
	msg := cause.Error()
	now := c.now()
	if err := c.Records.Update(ctx, t.RecordID, domain.RecordUpdate{
		Status:       &failed,
		ErrorMessage: &msg,
		CompletedAt:  &now,
	}); err != nil {
		c.Log.Error().Err(err).
			Int64("record_id", t.RecordID).
			Msg("failed to mark purchase record failed")
	}

	if err := c.Q.ToDLQ(ctx, streamID, t, msg); err != nil {
		c.Log.Error().Err(err).
			Str("event_code", t.EventCode).
			Msg("failed to move task to DLQ")
	}
}
