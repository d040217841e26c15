package ports

import (
	"context"
	"time"

	"ticketq/internal/domain"
)

// Queue is the durable at-least-once task queue the purchase pipeline runs
// on. Claim returns (nil, "", nil) when no task arrived within block.
type Queue interface {
	Enqueue(ctx context.Context, t domain.PurchaseTask) (string, error)
	EnqueueDelayed(ctx context.Context, t domain.PurchaseTask, runAt time.Time) (string, error)
	Claim(ctx context.Context, consumer string, block time.Duration) (*domain.PurchaseTask, string /*streamID*/, error)
	Ack(ctx context.Context, streamID string) error
	ToDLQ(ctx context.Context, streamID string, t domain.PurchaseTask, reason string) error
	SaveState(ctx context.Context, t domain.PurchaseTask) error
	Get(ctx context.Context, id string) (*domain.PurchaseTask, error)
}

type Scheduler interface {
	// moves due delayed tasks back into the stream
	Run(ctx context.Context) error
}

// RecordStore is the durable source of truth for purchase outcomes.
type RecordStore interface {
	Create(ctx context.Context, p CreateRecordParams) (*domain.PurchaseRecord, error)
	Update(ctx context.Context, id int64, u domain.RecordUpdate) error
	Get(ctx context.Context, id int64) (*domain.PurchaseRecord, error)
	Stats(ctx context.Context, since time.Time) (domain.Stats, error)
}

type CreateRecordParams struct {
	EventCode string
	UserEmail string
	Quantity  int
	Price     float64
}
