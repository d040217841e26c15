package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"ticketq/internal/booking"
	"ticketq/internal/domain"
	"ticketq/internal/ports"
)

// fakeQueue is an in-memory ports.Queue. Delayed tasks become claimable
// immediately so retry loops can be driven synchronously.
type fakeQueue struct {
	mu      sync.Mutex
	pending []domain.PurchaseTask
	nextID  int

	acked   []string
	dlq     []dlqEntry
	delayed []domain.PurchaseTask
	states  []domain.PurchaseTask
}

type dlqEntry struct {
	task   domain.PurchaseTask
	reason string
}

func (q *fakeQueue) Enqueue(_ context.Context, t domain.PurchaseTask) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	if t.ID == "" {
		t.ID = "task-" + time.Now().Format("150405.000")
	}
	t.Status = domain.StatusQueued
	q.pending = append(q.pending, t)
	return t.ID, nil
}

func (q *fakeQueue) EnqueueDelayed(_ context.Context, t domain.PurchaseTask, runAt time.Time) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t.Status = domain.StatusDelayed
	t.NextRunAt = runAt
	q.delayed = append(q.delayed, t)
	q.pending = append(q.pending, t)
	return t.ID, nil
}

func (q *fakeQueue) Claim(_ context.Context, _ string, _ time.Duration) (*domain.PurchaseTask, string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, "", nil
	}
	t := q.pending[0]
	q.pending = q.pending[1:]
	return &t, "stream-" + t.ID, nil
}

func (q *fakeQueue) Ack(_ context.Context, streamID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, streamID)
	return nil
}

func (q *fakeQueue) ToDLQ(_ context.Context, _ string, t domain.PurchaseTask, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dlq = append(q.dlq, dlqEntry{task: t, reason: reason})
	return nil
}

func (q *fakeQueue) SaveState(_ context.Context, t domain.PurchaseTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.states = append(q.states, t)
	return nil
}

func (q *fakeQueue) Get(_ context.Context, _ string) (*domain.PurchaseTask, error) {
	return nil, nil
}

// fakeStore is an in-memory ports.RecordStore that also keeps the order of
// applied updates, so tests can assert api_success lands before completed.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]*domain.PurchaseRecord
	updates []appliedUpdate
}

type appliedUpdate struct {
	id     int64
	update domain.RecordUpdate
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[int64]*domain.PurchaseRecord{}}
}

func (s *fakeStore) Create(_ context.Context, p ports.CreateRecordParams) (*domain.PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec := &domain.PurchaseRecord{
		ID:        s.nextID,
		EventCode: p.EventCode,
		UserEmail: p.UserEmail,
		Quantity:  p.Quantity,
		Price:     p.Price,
		Status:    domain.RecordPending,
		CreatedAt: time.Now(),
	}
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *fakeStore) Update(_ context.Context, id int64, u domain.RecordUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return errors.New("record not found")
	}
	if u.Status != nil {
		if rec.Status != domain.RecordPending && *u.Status != rec.Status {
			return errors.New("invalid transition")
		}
		rec.Status = *u.Status
	}
	if u.APISuccess != nil {
		rec.APISuccess = *u.APISuccess
	}
	if u.EmailSent != nil {
		rec.EmailSent = *u.EmailSent
	}
	if u.ErrorMessage != nil {
		rec.ErrorMessage = u.ErrorMessage
	}
	if u.CompletedAt != nil {
		rec.CompletedAt = u.CompletedAt
	}
	s.updates = append(s.updates, appliedUpdate{id: id, update: u})
	return nil
}

func (s *fakeStore) Get(_ context.Context, id int64) (*domain.PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) Stats(_ context.Context, since time.Time) (domain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st domain.Stats
	for _, rec := range s.records {
		if !rec.CreatedAt.After(since) {
			continue
		}
		st.Total++
		switch rec.Status {
		case domain.RecordPending:
			st.Pending++
		case domain.RecordCompleted:
			st.Completed++
		case domain.RecordFailed:
			st.Failed++
		}
		if rec.APISuccess {
			st.APISuccess++
		}
		if rec.EmailSent {
			st.EmailSent++
		}
	}
	return st, nil
}

// fakeBooking scripts PurchaseTicket responses per call.
type fakeBooking struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (b *fakeBooking) PurchaseTicket(_ context.Context, p booking.PurchaseParams) (map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.calls
	b.calls++
	if i < len(b.errs) && b.errs[i] != nil {
		return nil, b.errs[i]
	}
	return map[string]any{"confirmed": true}, nil
}

// fakeNotifier records dispatches and returns a scripted result.
type fakeNotifier struct {
	result bool
	calls  []domain.Confirmation
}

func (n *fakeNotifier) SendConfirmation(_ context.Context, c domain.Confirmation) bool {
	n.calls = append(n.calls, c)
	return n.result
}

func ptr[T any](v T) *T { return &v }
