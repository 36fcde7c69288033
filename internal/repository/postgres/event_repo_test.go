package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"happymemories/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var eventCols = []string{"id", "category", "title", "details", "location", "start_date", "end_date", "image", "host_id", "created_at", "updated_at"}

var (
	t0    = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	start = time.Date(2030, 6, 1, 18, 0, 0, 0, time.UTC)
	end   = time.Date(2030, 6, 1, 22, 0, 0, 0, time.UTC)
)

func sampleEvent() *domain.Event {
	return &domain.Event{
		Category:  "Party",
		Title:     "Summer party",
		Details:   "Drinks on the rooftop terrace.",
		Location:  "Rooftop",
		StartDate: start,
		EndDate:   end,
		Image:     "/img/party.png",
		HostID:    "host-1",
		CreatedAt: t0,
		UpdatedAt: t0,
	}
}

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		event   *domain.Event
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr error
	}{
		{
			name:  "success",
			event: sampleEvent(),
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events \(category, title, details, location, start_date, end_date, image, host_id, created_at, updated_at\)`).
					WithArgs("Party", "Summer party", "Drinks on the rooftop terrace.", "Rooftop", start, end, "/img/party.png", "host-1", t0, t0).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-uuid-1"))
			},
			wantID: "ev-uuid-1",
		},
		{
			name:  "connection lost",
			event: sampleEvent(),
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: domain.ErrStorageUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			err = repo.Create(ctx, tt.event)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tt.event.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		id      string
		mock    func(mock sqlmock.Sqlmock)
		want    *domain.Event
		wantErr error
	}{
		{
			name: "success",
			id:   "ev-1",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, category, title, details, location, start_date, end_date, image, host_id, created_at, updated_at FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnRows(sqlmock.NewRows(eventCols).
						AddRow("ev-1", "Party", "Summer party", "Drinks on the rooftop terrace.", "Rooftop", start, end, "/img/party.png", "host-1", t0, t0))
			},
			want: func() *domain.Event {
				e := sampleEvent()
				e.ID = "ev-1"
				return e
			}(),
		},
		{
			name: "not found",
			id:   "ev-missing",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM events WHERE id = \$1`).
					WithArgs("ev-missing").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "malformed uuid",
			id:   "not-a-uuid",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM events WHERE id = \$1`).
					WithArgs("not-a-uuid").
					WillReturnError(&pq.Error{Code: "22P02", Message: "invalid input syntax for type uuid"})
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			got, err := repo.GetByID(ctx, tt.id)
			if tt.wantErr != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tt.wantErr))
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_Update(t *testing.T) {
	ctx := context.Background()
	fields := domain.EventFields{
		Category:  "Party",
		Title:     "Renamed party",
		Details:   "Drinks on the rooftop terrace.",
		Location:  "Rooftop",
		StartDate: start,
		EndDate:   end,
		Image:     "/img/party.png",
	}
	updatedAt := t0.Add(time.Hour)

	t.Run("success keeps host", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE events\s+SET category = \$1, title = \$2`).
			WithArgs("Party", "Renamed party", "Drinks on the rooftop terrace.", "Rooftop", start, end, "/img/party.png", updatedAt, "ev-1").
			WillReturnRows(sqlmock.NewRows(eventCols).
				AddRow("ev-1", "Party", "Renamed party", "Drinks on the rooftop terrace.", "Rooftop", start, end, "/img/party.png", "host-1", t0, updatedAt))

		got, err := NewEventRepository(db).Update(ctx, "ev-1", fields, updatedAt)
		require.NoError(t, err)
		require.Equal(t, "Renamed party", got.Title)
		require.Equal(t, "host-1", got.HostID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE events`).WillReturnError(sql.ErrNoRows)

		_, err = NewEventRepository(db).Update(ctx, "ev-missing", fields, updatedAt)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEventRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("success multiple", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows(eventCols).
			AddRow("ev-1", "Party", "A", "Drinks on the rooftop terrace.", "Rooftop", start, end, "/a.png", "host-1", t0, t0).
			AddRow("ev-2", "Talk", "B", "A talk about gardens and bees.", "Library", start, end, "/b.png", "host-2", t0, t0)
		mock.ExpectQuery(`SELECT .* FROM events ORDER BY start_date ASC, id ASC`).WillReturnRows(rows)

		got, err := NewEventRepository(db).List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, "ev-2", got[1].ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success empty", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .* FROM events`).WillReturnRows(sqlmock.NewRows(eventCols))

		got, err := NewEventRepository(db).List(ctx)
		require.NoError(t, err)
		require.Equal(t, []*domain.Event{}, got)
	})
}

func TestEventRepository_DistinctCategories(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT DISTINCT category FROM events ORDER BY category`).
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("Party").AddRow("Talk"))

	got, err := NewEventRepository(db).DistinctCategories(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Party", "Talk"}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		id      string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			id:   "ev-1",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not found",
			id:   "ev-missing",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
					WithArgs("ev-missing").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "db error",
			id:   "ev-1",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: domain.ErrStorageUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			err = repo.Delete(ctx, tt.id)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr))
				require.NoError(t, mock.ExpectationsWereMet())
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
