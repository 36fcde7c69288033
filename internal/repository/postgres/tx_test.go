package postgres

import (
	"context"
	"database/sql"
	"testing"

	"happymemories/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestTransactor_WithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits cascade", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM rsvps WHERE event_id = \$1`).
			WithArgs("ev-1").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
			WithArgs("ev-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		var deleted int64
		err = NewTransactor(db).WithinTx(ctx, func(ctx context.Context, events domain.EventRepository, rsvps domain.RsvpRepository) error {
			n, err := rsvps.DeleteAllForEvent(ctx, "ev-1")
			if err != nil {
				return err
			}
			deleted = n
			return events.Delete(ctx, "ev-1")
		})
		require.NoError(t, err)
		require.Equal(t, int64(2), deleted)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the event delete fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM rsvps WHERE event_id = \$1`).
			WithArgs("ev-1").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
			WithArgs("ev-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = NewTransactor(db).WithinTx(ctx, func(ctx context.Context, events domain.EventRepository, rsvps domain.RsvpRepository) error {
			if _, err := rsvps.DeleteAllForEvent(ctx, "ev-1"); err != nil {
				return err
			}
			return events.Delete(ctx, "ev-1")
		})
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure is storage unavailable", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

		called := false
		err = NewTransactor(db).WithinTx(ctx, func(ctx context.Context, _ domain.EventRepository, _ domain.RsvpRepository) error {
			called = true
			return nil
		})
		require.ErrorIs(t, err, domain.ErrStorageUnavailable)
		require.False(t, called)
	})

	t.Run("commit failure is uncertain and not retryable", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM rsvps WHERE event_id = \$1`).
			WithArgs("ev-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit().WillReturnError(sql.ErrConnDone)

		err = NewTransactor(db).WithinTx(ctx, func(ctx context.Context, _ domain.EventRepository, rsvps domain.RsvpRepository) error {
			_, err := rsvps.DeleteAllForEvent(ctx, "ev-1")
			return err
		})
		require.ErrorIs(t, err, domain.ErrCommitUncertain)
		require.ErrorIs(t, err, domain.ErrStorageUnavailable)
		require.False(t, domain.IsRetryable(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
