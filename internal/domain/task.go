package domain

import "time"

type TaskStatus string

const (
	StatusQueued  TaskStatus = "queued"
	StatusRunning TaskStatus = "running"
	StatusDone    TaskStatus = "done"
	StatusFailed  TaskStatus = "failed"
	StatusDelayed TaskStatus = "delayed"
)

// PurchaseTask is one purchase request submitted for asynchronous execution.
// It is built at enqueue time and discarded once the worker completes or
// permanently fails it; the durable outcome lives on the PurchaseRecord.
type PurchaseTask struct {
	ID          string     `json:"id"`
	RecordID    int64      `json:"record_id"`
	EventCode   string     `json:"event_code"`
	EventDate   string     `json:"event_date"`
	Price       *float64   `json:"price,omitempty"`
	Quantity    int        `json:"quantity"`
	UserEmail   string     `json:"user_email"`
	SeatCode    string     `json:"seat_code,omitempty"`
	ClientID    string     `json:"client_id,omitempty"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	NextRunAt   time.Time  `json:"next_run_at"`
}
