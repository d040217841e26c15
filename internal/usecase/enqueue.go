package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"ticketq/internal/domain"
	"ticketq/internal/ports"
)

var (
	ErrMissingEventCode = errors.New("event code is required")
	ErrMissingEventDate = errors.New("event date is required")
	ErrMissingUserEmail = errors.New("user email is required")
)

// Enqueuer accepts purchase requests: it creates the pending purchase record
// and puts the task on the queue. The caller gets the record back immediately;
// the outcome lands on the record asynchronously.
type Enqueuer struct {
	Q       ports.Queue
	Records ports.RecordStore
	Policy  RetryPolicy
	Log     zerolog.Logger
}

type EnqueueParams struct {
	EventCode string
	EventDate string
	Price     *float64
	Quantity  int
	UserEmail string
	SeatCode  string
	ClientID  string
}

// Enqueue validates the request shape, normalizes quantity (anything below 1
// becomes 1) and submits the task. Returns the created record and the task id.
func (e Enqueuer) Enqueue(ctx context.Context, p EnqueueParams) (*domain.PurchaseRecord, string, error) {
	if strings.TrimSpace(p.EventCode) == "" {
		return nil, "", ErrMissingEventCode
	}
	if strings.TrimSpace(p.EventDate) == "" {
		return nil, "", ErrMissingEventDate
	}
	if strings.TrimSpace(p.UserEmail) == "" {
		return nil, "", ErrMissingUserEmail
	}
	if p.Quantity <= 0 {
		p.Quantity = 1
	}

	var price float64
	if p.Price != nil {
		price = *p.Price
	}
	rec, err := e.Records.Create(ctx, ports.CreateRecordParams{
		EventCode: p.EventCode,
		UserEmail: p.UserEmail,
		Quantity:  p.Quantity,
		Price:     price,
	})
	if err != nil {
		return nil, "", err
	}

	taskID, err := e.EnqueueForRecord(ctx, rec.ID, p)
	if err != nil {
		// Record stays pending so the failure is visible on the dashboard.
		return rec, "", err
	}
	return rec, taskID, nil
}

// EnqueueForRecord submits a task for a purchase record that already exists,
// returning immediately with the task id.
func (e Enqueuer) EnqueueForRecord(ctx context.Context, recordID int64, p EnqueueParams) (string, error) {
	task := domain.PurchaseTask{
		RecordID:    recordID,
		EventCode:   p.EventCode,
		EventDate:   p.EventDate,
		Price:       p.Price,
		Quantity:    p.Quantity,
		UserEmail:   p.UserEmail,
		SeatCode:    p.SeatCode,
		ClientID:    p.ClientID,
		MaxAttempts: e.Policy.MaxAttempts,
	}
	taskID, err := e.Q.Enqueue(ctx, task)
	if err != nil {
		e.Log.Error().Err(err).
			Str("event_code", p.EventCode).
			Int64("record_id", recordID).
			Msg("failed to enqueue purchase task")
		return "", err
	}

	e.Log.Info().
		Str("event_code", p.EventCode).
		Int64("record_id", recordID).
		Str("task_id", taskID).
		Msg("purchase task enqueued")
	return taskID, nil
}
