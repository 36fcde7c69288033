package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"happymemories/internal/domain"
)

type transactor struct {
	DB *sql.DB
}

// NewTransactor returns a domain.Transactor running callbacks in one Postgres transaction
// at the default READ COMMITTED isolation level.
func NewTransactor(db *sql.DB) domain.Transactor {
	return &transactor{DB: db}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, events domain.EventRepository, rsvps domain.RsvpRepository) error) (err error) {
	tx, err := t.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", classify(err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &eventRepository{DB: tx}, &rsvpRepository{DB: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		// The server may have applied the transaction before the connection failed.
		return fmt.Errorf("commit tx: %w: %w", domain.ErrCommitUncertain, classify(err))
	}
	return nil
}
