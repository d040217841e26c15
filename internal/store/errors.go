package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrRecordNotFound is returned when no purchase record has the given id.
	ErrRecordNotFound = errors.New("purchase record not found")
	// ErrInvalidTransition is returned when a status update would move a
	// record out of a terminal state.
	ErrInvalidTransition = errors.New("purchase record status can only leave pending")
	// ErrEmptyUpdate is returned when an update contains no fields.
	ErrEmptyUpdate = errors.New("purchase record update is empty")
)

// mapDBError folds common postgres failures into package sentinels or a
// wrapped error; unrecognized errors pass through.
func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	// database/sql surfaces sql.ErrNoRows; raw pgx queries surface pgx.ErrNoRows.
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return ErrRecordNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.NotNullViolation, pgerrcode.CheckViolation:
			return fmt.Errorf("invalid purchase record data: %w", pgErr)
		}
	}
	return err
}
