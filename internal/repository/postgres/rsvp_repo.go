package postgres

import (
	"context"
	"database/sql"

	"happymemories/internal/domain"
)

type rsvpRepository struct {
	DB dbtx
}

func NewRsvpRepository(db *sql.DB) domain.RsvpRepository {
	return &rsvpRepository{
		DB: db,
	}
}

func scanRsvp(row rowScanner) (*domain.Rsvp, error) {
	rsvp := &domain.Rsvp{}
	var status string
	if err := row.Scan(&rsvp.ID, &rsvp.EventID, &rsvp.AttendeeID, &status, &rsvp.CreatedAt, &rsvp.UpdatedAt); err != nil {
		return nil, err
	}
	rsvp.Status = domain.RsvpStatus(status)
	return rsvp, nil
}

// Upsert relies on the rsvps_event_attendee_key unique constraint: concurrent calls for the
// same pair serialize on the index and exactly one of them inserts. xmax is zero only for a
// freshly inserted tuple, which tells the two outcomes apart. The foreign key turns an upsert
// against a deleted event into domain.ErrNotFound.
func (r *rsvpRepository) Upsert(ctx context.Context, rsvp *domain.Rsvp) (domain.UpsertOutcome, error) {
	query := `
		INSERT INTO rsvps (event_id, attendee_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id, attendee_id) DO UPDATE
		SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, (xmax = 0) AS inserted
	`
	var inserted bool
	err := r.DB.QueryRowContext(ctx, query,
		rsvp.EventID, rsvp.AttendeeID, string(rsvp.Status), rsvp.CreatedAt, rsvp.UpdatedAt,
	).Scan(&rsvp.ID, &rsvp.CreatedAt, &inserted)
	if err != nil {
		return 0, classify(err)
	}
	if inserted {
		return domain.UpsertCreated, nil
	}
	return domain.UpsertUpdated, nil
}

func (r *rsvpRepository) GetByID(ctx context.Context, id string) (*domain.Rsvp, error) {
	query := `
		SELECT id, event_id, attendee_id, status, created_at, updated_at
		FROM rsvps
		WHERE id = $1
	`
	rsvp, err := scanRsvp(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify(err)
	}
	return rsvp, nil
}

func (r *rsvpRepository) CountByStatus(ctx context.Context, eventID string, status domain.RsvpStatus) (int, error) {
	query := `SELECT COUNT(*) FROM rsvps WHERE event_id = $1 AND status = $2`
	var n int
	if err := r.DB.QueryRowContext(ctx, query, eventID, string(status)).Scan(&n); err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func (r *rsvpRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM rsvps WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return classify(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *rsvpRepository) DeleteAllForEvent(ctx context.Context, eventID string) (int64, error) {
	query := `DELETE FROM rsvps WHERE event_id = $1`
	result, err := r.DB.ExecContext(ctx, query, eventID)
	if err != nil {
		return 0, classify(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func (r *rsvpRepository) ListByAttendee(ctx context.Context, attendeeID string) ([]*domain.Rsvp, error) {
	query := `
		SELECT id, event_id, attendee_id, status, created_at, updated_at
		FROM rsvps
		WHERE attendee_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, attendeeID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	rsvps := make([]*domain.Rsvp, 0)
	for rows.Next() {
		rsvp, err := scanRsvp(rows)
		if err != nil {
			return nil, classify(err)
		}
		rsvps = append(rsvps, rsvp)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return rsvps, nil
}
