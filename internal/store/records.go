// Package store persists purchase records in Postgres. The table is the
// source of truth for purchase outcomes and the stats dashboard.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// registers the pgx stdlib driver for database/sql
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"ticketq/internal/domain"
	"ticketq/internal/ports"
)

var _ ports.RecordStore = (*RecordRepo)(nil)

const recordColumns = `
	id,
	event_code,
	user_email,
	quantity,
	price,
	status,
	api_success,
	email_sent,
	error_message,
	completed_at,
	created_at,
	updated_at
`

// RecordRepo provides database operations for purchase records.
type RecordRepo struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewRecordRepo(db *sql.DB, logger zerolog.Logger) *RecordRepo {
	return &RecordRepo{db: db, log: logger}
}

// Open connects to postgres with the pgx stdlib driver and verifies the
// connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Create inserts a new record in pending status.
func (r *RecordRepo) Create(ctx context.Context, p ports.CreateRecordParams) (*domain.PurchaseRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO purchase_records (event_code, user_email, quantity, price, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING`+recordColumns,
		p.EventCode, p.UserEmail, p.Quantity, p.Price)

	rec, err := scanRecord(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return rec, nil
}

// Update applies a partial mutation. When the update moves status out of
// pending, the WHERE clause enforces that the record still is pending, so a
// terminal state is never overwritten.
func (r *RecordRepo) Update(ctx context.Context, id int64, u domain.RecordUpdate) error {
	if u.IsZero() {
		return ErrEmptyUpdate
	}

	sets := []string{"updated_at = now()"}
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	guard := ""
	if u.Status != nil {
		if !u.Status.Valid() {
			return fmt.Errorf("invalid status %q", *u.Status)
		}
		add("status", string(*u.Status))
		if *u.Status != domain.RecordPending {
			guard = " AND status = 'pending'"
		}
	}
	if u.APISuccess != nil {
		add("api_success", *u.APISuccess)
	}
	if u.EmailSent != nil {
		add("email_sent", *u.EmailSent)
	}
	if u.ErrorMessage != nil {
		add("error_message", *u.ErrorMessage)
	}
	if u.CompletedAt != nil {
		add("completed_at", *u.CompletedAt)
	}

	query := "UPDATE purchase_records SET " + strings.Join(sets, ", ") + " WHERE id = $1" + guard
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapDBError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return getErr
		}
		return ErrInvalidTransition
	}
	return nil
}

func (r *RecordRepo) Get(ctx context.Context, id int64) (*domain.PurchaseRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT`+recordColumns+`FROM purchase_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return rec, nil
}

// Stats aggregates counts over records created after since.
func (r *RecordRepo) Stats(ctx context.Context, since time.Time) (domain.Stats, error) {
	var s domain.Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'pending'),
			count(*) FILTER (WHERE status = 'completed'),
			count(*) FILTER (WHERE status = 'failed'),
			count(*) FILTER (WHERE api_success),
			count(*) FILTER (WHERE email_sent)
		FROM purchase_records
		WHERE created_at > $1
	`, since).Scan(&s.Total, &s.Pending, &s.Completed, &s.Failed, &s.APISuccess, &s.EmailSent)
	if err != nil {
		return domain.Stats{}, mapDBError(err)
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.PurchaseRecord, error) {
	var (
		rec      domain.PurchaseRecord
		errMsg   sql.NullString
		doneAt   sql.NullTime
		price    sql.NullFloat64
		statusDB string
	)
	err := row.Scan(
		&rec.ID,
		&rec.EventCode,
		&rec.UserEmail,
		&rec.Quantity,
		&price,
		&statusDB,
		&rec.APISuccess,
		&rec.EmailSent,
		&errMsg,
		&doneAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = domain.RecordStatus(statusDB)
	if price.Valid {
		rec.Price = price.Float64
	}
	if errMsg.Valid {
		rec.ErrorMessage = &errMsg.String
	}
	if doneAt.Valid {
		rec.CompletedAt = &doneAt.Time
	}
	return &rec, nil
}
