package store

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS purchase_records (
	id            BIGSERIAL PRIMARY KEY,
	event_code    TEXT NOT NULL,
	user_email    TEXT NOT NULL,
	quantity      INTEGER NOT NULL DEFAULT 1,
	price         NUMERIC(10,2),
	status        TEXT NOT NULL DEFAULT 'pending'
	              CHECK (status IN ('pending', 'completed', 'failed')),
	api_success   BOOLEAN NOT NULL DEFAULT FALSE,
	email_sent    BOOLEAN NOT NULL DEFAULT FALSE,
	error_message TEXT,
	completed_at  TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_purchase_records_status ON purchase_records (status);
CREATE INDEX IF NOT EXISTS idx_purchase_records_created_at ON purchase_records (created_at);
`

// Migrate applies the purchase_records schema. Statements are idempotent so
// it is safe to run on every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply purchase_records schema: %w", err)
	}
	return nil
}
