package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ticketq/internal/domain"
)

// Dispatcher composes and sends purchase confirmations. SendConfirmation
// never fails the caller: a blank recipient or a transport error yields
// false.
type Dispatcher struct {
	Sender Sender
	Log    zerolog.Logger
}

func NewDispatcher(sender Sender, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{Sender: sender, Log: logger}
}

func (d *Dispatcher) SendConfirmation(ctx context.Context, c domain.Confirmation) bool {
	if strings.TrimSpace(c.Email) == "" {
		return false
	}

	subject := fmt.Sprintf("Ticket Purchase Confirmation - %s", c.EventCode)
	total := c.Price * float64(c.Quantity)
	body := fmt.Sprintf(
		"Your ticket purchase is confirmed.\n\n"+
			"Event: %s\nDate: %s\nQuantity: %d\nUnit price: %.2f\nTotal: %.2f\n",
		c.EventCode, c.EventDate, c.Quantity, c.Price, total,
	)

	if err := d.Sender.Send(ctx, c.Email, subject, body); err != nil {
		d.Log.Error().Err(err).
			Str("event_code", c.EventCode).
			Msg("failed to send confirmation email")
		return false
	}
	return true
}
