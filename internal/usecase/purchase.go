package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ticketq/internal/booking"
	"ticketq/internal/domain"
	"ticketq/internal/ports"
)

// BookingAPI is the slice of the booking client the executor needs.
type BookingAPI interface {
	PurchaseTicket(ctx context.Context, p booking.PurchaseParams) (map[string]any, error)
}

// Notifier sends the confirmation email best-effort and reports whether
// dispatch was accepted. It must never return an error.
type Notifier interface {
	SendConfirmation(ctx context.Context, c domain.Confirmation) bool
}

// Executor runs a single purchase attempt: external call, durable
// api_success marker, best-effort confirmation, completed record.
type Executor struct {
	Booking BookingAPI
	Records ports.RecordStore
	Notify  Notifier
	Log     zerolog.Logger

	// now is swappable in tests.
	now func() time.Time
}

func NewExecutor(api BookingAPI, records ports.RecordStore, notify Notifier, logger zerolog.Logger) *Executor {
	return &Executor{
		Booking: api,
		Records: records,
		Notify:  notify,
		Log:     logger,
		now:     time.Now,
	}
}

// Execute performs one attempt. Any returned error goes through the retry
// policy; a nil return means the record reached completed.
func (e *Executor) Execute(ctx context.Context, t domain.PurchaseTask) error {
	_, err := e.Booking.PurchaseTicket(ctx, booking.PurchaseParams{
		EventCode: t.EventCode,
		EventDate: t.EventDate,
		Price:     t.Price,
		Quantity:  t.Quantity,
		ClientID:  t.ClientID,
		SeatCode:  t.SeatCode,
	})
	if err != nil {
		return err
	}

	// Persist api_success before anything else so a crash mid-notification
	// resumes as pending+api_success=true instead of losing the outcome.
	apiSuccess := true
	if err := e.Records.Update(ctx, t.RecordID, domain.RecordUpdate{APISuccess: &apiSuccess}); err != nil {
		return err
	}
	e.Log.Info().
		Str("event_code", t.EventCode).
		Int64("record_id", t.RecordID).
		Int("quantity", t.Quantity).
		Msg("ticket purchase succeeded")

	var price float64
	if t.Price != nil {
		price = *t.Price
	}
	emailSent := e.Notify.SendConfirmation(ctx, domain.Confirmation{
		Email:     t.UserEmail,
		EventCode: t.EventCode,
		EventDate: t.EventDate,
		Price:     price,
		Quantity:  t.Quantity,
	})

	completed := domain.RecordCompleted
	now := e.now()
	return e.Records.Update(ctx, t.RecordID, domain.RecordUpdate{
		Status:      &completed,
		EmailSent:   &emailSent,
		CompletedAt: &now,
	})
}
