package domain

import "time"

type RecordStatus string

const (
	RecordPending   RecordStatus = "pending"
	RecordCompleted RecordStatus = "completed"
	RecordFailed    RecordStatus = "failed"
)

// Valid returns true if the RecordStatus is one of the known states.
func (s RecordStatus) Valid() bool {
	return s == RecordPending || s == RecordCompleted || s == RecordFailed
}

// PurchaseRecord is the durable row tracking a purchase task's lifecycle.
// Status only moves pending→completed or pending→failed; completed_at is set
// exactly when status leaves pending.
type PurchaseRecord struct {
	ID           int64        `json:"id"`
	EventCode    string       `json:"event_code"`
	UserEmail    string       `json:"user_email"`
	Quantity     int          `json:"quantity"`
	Price        float64      `json:"price"`
	Status       RecordStatus `json:"status"`
	APISuccess   bool         `json:"api_success"`
	EmailSent    bool         `json:"email_sent"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// RecordUpdate is a partial mutation of a PurchaseRecord. Nil fields are left
// untouched. Setting Status to a terminal state only succeeds while the record
// is still pending.
type RecordUpdate struct {
	Status       *RecordStatus
	APISuccess   *bool
	EmailSent    *bool
	ErrorMessage *string
	CompletedAt  *time.Time
}

// IsZero reports whether the update would change nothing.
func (u RecordUpdate) IsZero() bool {
	return u.Status == nil && u.APISuccess == nil && u.EmailSent == nil &&
		u.ErrorMessage == nil && u.CompletedAt == nil
}

// Stats aggregates purchase record counts over a creation window.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	APISuccess int `json:"api_success"`
	EmailSent  int `json:"email_sent"`
}

// Confirmation carries everything the notification dispatcher needs to build
// a purchase confirmation email.
type Confirmation struct {
	Email     string
	EventCode string
	EventDate string
	Price     float64
	Quantity  int
}
