package postgres

import (
	"context"
	"database/sql"
	"time"

	"happymemories/internal/domain"
)

const eventColumns = `id, category, title, details, location, start_date, end_date, image, host_id, created_at, updated_at`

type eventRepository struct {
	DB dbtx
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	err := row.Scan(
		&e.ID, &e.Category, &e.Title, &e.Details, &e.Location,
		&e.StartDate, &e.EndDate, &e.Image, &e.HostID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (category, title, details, location, start_date, end_date, image, host_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.Category, e.Title, e.Details, e.Location, e.StartDate, e.EndDate, e.Image, e.HostID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	return classify(err)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify(err)
	}
	return e, nil
}

func (r *eventRepository) Update(ctx context.Context, id string, f domain.EventFields, updatedAt time.Time) (*domain.Event, error) {
	query := `
		UPDATE events
		SET category = $1, title = $2, details = $3, location = $4, start_date = $5, end_date = $6, image = $7, updated_at = $8
		WHERE id = $9
		RETURNING ` + eventColumns
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query,
		f.Category, f.Title, f.Details, f.Location, f.StartDate, f.EndDate, f.Image, updatedAt, id,
	))
	if err != nil {
		return nil, classify(err)
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
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

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY start_date ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, classify(err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return events, nil
}

func (r *eventRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT category FROM events ORDER BY category`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	categories := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, classify(err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return categories, nil
}
