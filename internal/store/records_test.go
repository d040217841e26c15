package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketq/internal/domain"
	"ticketq/internal/ports"
)

// setupTestDB connects to the database named by TEST_DB_DSN and applies the
// schema. Tests are skipped when the variable is unset so the suite runs
// without infrastructure.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping store integration tests")
	}

	ctx := context.Background()
	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db))
	_, err = db.ExecContext(ctx, `TRUNCATE purchase_records RESTART IDENTITY`)
	require.NoError(t, err)
	return db
}

func testRepo(t *testing.T) *RecordRepo {
	return NewRecordRepo(setupTestDB(t), zerolog.Nop())
}

func createParams() ports.CreateRecordParams {
	return ports.CreateRecordParams{
		EventCode: "GLS_21",
		UserEmail: "buyer@example.com",
		Quantity:  2,
		Price:     50,
	}
}

func TestRecordRepoCreate(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, createParams())
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, domain.RecordPending, rec.Status)
	assert.False(t, rec.APISuccess)
	assert.False(t, rec.EmailSent)
	assert.Nil(t, rec.ErrorMessage)
	assert.Nil(t, rec.CompletedAt)
	assert.WithinDuration(t, time.Now(), rec.CreatedAt, 5*time.Second)
}

func TestRecordRepoUpdatePartial(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, createParams())
	require.NoError(t, err)

	apiSuccess := true
	require.NoError(t, repo.Update(ctx, rec.ID, domain.RecordUpdate{APISuccess: &apiSuccess}))

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.APISuccess)
	assert.Equal(t, domain.RecordPending, got.Status, "other fields untouched")

	completed := domain.RecordCompleted
	emailSent := true
	now := time.Now()
	require.NoError(t, repo.Update(ctx, rec.ID, domain.RecordUpdate{
		Status:      &completed,
		EmailSent:   &emailSent,
		CompletedAt: &now,
	}))

	got, err = repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordCompleted, got.Status)
	assert.True(t, got.EmailSent)
	require.NotNil(t, got.CompletedAt)
}

func TestRecordRepoRejectsBackwardTransition(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, createParams())
	require.NoError(t, err)

	completed := domain.RecordCompleted
	now := time.Now()
	require.NoError(t, repo.Update(ctx, rec.ID, domain.RecordUpdate{Status: &completed, CompletedAt: &now}))

	failed := domain.RecordFailed
	err = repo.Update(ctx, rec.ID, domain.RecordUpdate{Status: &failed})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordCompleted, got.Status, "terminal state survives")
}

func TestRecordRepoUpdateMissingRecord(t *testing.T) {
	repo := testRepo(t)

	apiSuccess := true
	err := repo.Update(context.Background(), 9999, domain.RecordUpdate{APISuccess: &apiSuccess})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRecordRepoEmptyUpdate(t *testing.T) {
	repo := testRepo(t)

	err := repo.Update(context.Background(), 1, domain.RecordUpdate{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)
}

func TestRecordRepoStats(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	complete := func(rec *domain.PurchaseRecord, emailSent bool) {
		apiSuccess := true
		require.NoError(t, repo.Update(ctx, rec.ID, domain.RecordUpdate{APISuccess: &apiSuccess}))
		completed := domain.RecordCompleted
		now := time.Now()
		require.NoError(t, repo.Update(ctx, rec.ID, domain.RecordUpdate{
			Status: &completed, EmailSent: &emailSent, CompletedAt: &now,
		}))
	}

	r1, err := repo.Create(ctx, createParams())
	require.NoError(t, err)
	complete(r1, true)

	r2, err := repo.Create(ctx, createParams())
	require.NoError(t, err)
	complete(r2, false)

	r3, err := repo.Create(ctx, createParams())
	require.NoError(t, err)
	failed := domain.RecordFailed
	msg := "server error (500)"
	now := time.Now()
	require.NoError(t, repo.Update(ctx, r3.ID, domain.RecordUpdate{
		Status: &failed, ErrorMessage: &msg, CompletedAt: &now,
	}))

	_, err = repo.Create(ctx, createParams()) // stays pending
	require.NoError(t, err)

	stats, err := repo.Stats(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.APISuccess)
	assert.Equal(t, 1, stats.EmailSent)
	assert.Equal(t, stats.Total, stats.Pending+stats.Completed+stats.Failed)

	// a window in the future excludes everything
	stats, err = repo.Stats(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}
