package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"happymemories/internal/domain"
	"happymemories/internal/repository/memory"
)

func TestEventService_SetRsvp(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		actorID     string
		eventID     string // empty means the created event
		status      domain.RsvpStatus
		wantStatus  domain.RsvpStatus
		wantOutcome domain.UpsertOutcome
		wantErr     error
	}{
		{name: "attendee says yes", actorID: "user-1", status: domain.RsvpYes, wantStatus: domain.RsvpYes, wantOutcome: domain.UpsertCreated},
		{name: "status is case insensitive", actorID: "user-1", status: "maybe", wantStatus: domain.RsvpMaybe, wantOutcome: domain.UpsertCreated},
		{name: "unknown status", actorID: "user-1", status: "Perhaps", wantErr: domain.ErrValidation},
		{name: "empty status", actorID: "user-1", status: "", wantErr: domain.ErrValidation},
		{name: "anonymous actor", actorID: "", status: domain.RsvpYes, wantErr: domain.ErrUnauthorized},
		{name: "missing event", actorID: "user-1", eventID: "ev-missing", status: domain.RsvpYes, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newMemoryService(t)
			event := mustCreateEvent(t, svc, "host-1")
			eventID := tt.eventID
			if eventID == "" {
				eventID = event.ID
			}

			rsvp, outcome, err := svc.SetRsvp(ctx, tt.actorID, eventID, tt.status)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, rsvp)
				stored, err := store.Rsvps().ListByAttendee(ctx, tt.actorID)
				require.NoError(t, err)
				require.Empty(t, stored)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantOutcome, outcome)
			require.Equal(t, tt.wantStatus, rsvp.Status)
			require.Equal(t, tt.actorID, rsvp.AttendeeID)
			require.Equal(t, event.ID, rsvp.EventID)
		})
	}
}

func TestEventService_SetRsvp_HostExcluded(t *testing.T) {
	ctx := context.Background()
	svc, store := newMemoryService(t)
	event := mustCreateEvent(t, svc, "host-1")

	for _, status := range domain.RsvpStatuses {
		_, _, err := svc.SetRsvp(ctx, "host-1", event.ID, status)
		require.ErrorIs(t, err, domain.ErrUnauthorized, "status %s", status)
	}
	requireNoRsvps(t, store, event.ID)
}

func TestEventService_SetRsvp_OneRowPerPair(t *testing.T) {
	ctx := context.Background()
	svc, store := newMemoryService(t)
	event := mustCreateEvent(t, svc, "host-1")

	sequence := []domain.RsvpStatus{domain.RsvpYes, domain.RsvpYes, domain.RsvpNo, domain.RsvpMaybe, domain.RsvpYes, domain.RsvpNo}
	var firstID string
	for i, status := range sequence {
		rsvp, outcome, err := svc.SetRsvp(ctx, "user-1", event.ID, status)
		require.NoError(t, err)
		if i == 0 {
			require.Equal(t, domain.UpsertCreated, outcome)
			firstID = rsvp.ID
		} else {
			require.Equal(t, domain.UpsertUpdated, outcome)
			require.Equal(t, firstID, rsvp.ID)
		}

		stored, err := store.Rsvps().ListByAttendee(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, stored, 1)
		require.Equal(t, status, stored[0].Status)
	}
}

func TestEventService_SetRsvp_ConcurrentSamePair(t *testing.T) {
	ctx := context.Background()
	svc, store := newMemoryService(t)
	event := mustCreateEvent(t, svc, "host-1")

	const workers = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = make(map[string]struct{})
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := domain.RsvpStatuses[i%len(domain.RsvpStatuses)]
			rsvp, outcome, err := svc.SetRsvp(ctx, "user-1", event.ID, status)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if outcome == domain.UpsertCreated {
				created++
			}
			ids[rsvp.ID] = struct{}{}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, created)
	require.Len(t, ids, 1)
	stored, err := store.Rsvps().ListByAttendee(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestEventService_CascadeVersusSetRsvp(t *testing.T) {
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		svc, store := newMemoryService(t)
		event := mustCreateEvent(t, svc, "host-1")

		const attendees = 16
		var wg sync.WaitGroup
		for i := 0; i < attendees; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _, err := svc.SetRsvp(ctx, fmt.Sprintf("user-%d", i), event.ID, domain.RsvpYes)
				if err != nil {
					assert.ErrorIs(t, err, domain.ErrNotFound)
				}
			}(i)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.DeleteEventCascade(ctx, "host-1", event.ID)
			assert.NoError(t, err)
		}()
		wg.Wait()

		_, err := svc.GetEvent(ctx, event.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)
		requireNoRsvps(t, store, event.ID)
	}
}

func TestEventService_SetRsvp_EventDeletedDuringWrite(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rsvps := &flakyRsvpRepo{RsvpRepository: store.Rsvps()}
	svc := NewEventService(store.Events(), rsvps, nil, nil, nil, testConfig())
	event := mustCreateEvent(t, svc, "host-1")

	// The whole cascade completes right after the upsert lands.
	rsvps.afterUpsert = func() {
		require.NoError(t, store.Events().Delete(ctx, event.ID))
	}

	_, _, err := svc.SetRsvp(ctx, "user-1", event.ID, domain.RsvpYes)
	require.ErrorIs(t, err, domain.ErrNotFound)

	stored, err := store.Rsvps().ListByAttendee(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestEventService_SetRsvp_OrphanCleanupFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rsvps := &flakyRsvpRepo{
		RsvpRepository: store.Rsvps(),
		deleteErrs:     []error{domain.ErrStorageUnavailable, domain.ErrStorageUnavailable},
	}
	svc := NewEventService(store.Events(), rsvps, nil, nil, nil, testConfig())
	event := mustCreateEvent(t, svc, "host-1")

	rsvps.afterUpsert = func() {
		require.NoError(t, store.Events().Delete(ctx, event.ID))
	}

	_, _, err := svc.SetRsvp(ctx, "user-1", event.ID, domain.RsvpYes)
	var cerr *domain.CascadeError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, event.ID, cerr.EventID)
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
	require.NotErrorIs(t, err, domain.ErrNotFound)
	require.Equal(t, 2, rsvps.deleteCalls)

	stored, err := store.Rsvps().ListByAttendee(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestEventService_SetRsvp_Retry(t *testing.T) {
	ctx := context.Background()

	t.Run("unavailable once", func(t *testing.T) {
		store := memory.NewStore()
		rsvps := &flakyRsvpRepo{RsvpRepository: store.Rsvps(), upsertErrs: []error{domain.ErrStorageUnavailable}}
		svc := NewEventService(store.Events(), rsvps, nil, nil, nil, testConfig())
		event := mustCreateEvent(t, svc, "host-1")

		_, outcome, err := svc.SetRsvp(ctx, "user-1", event.ID, domain.RsvpYes)
		require.NoError(t, err)
		require.Equal(t, domain.UpsertCreated, outcome)
		require.Equal(t, 2, rsvps.upsertCalls)
	})

	t.Run("unavailable twice", func(t *testing.T) {
		store := memory.NewStore()
		rsvps := &flakyRsvpRepo{RsvpRepository: store.Rsvps(), upsertErrs: []error{domain.ErrStorageUnavailable, domain.ErrStorageUnavailable}}
		svc := NewEventService(store.Events(), rsvps, nil, nil, nil, testConfig())
		event := mustCreateEvent(t, svc, "host-1")

		_, _, err := svc.SetRsvp(ctx, "user-1", event.ID, domain.RsvpYes)
		require.ErrorIs(t, err, domain.ErrStorageUnavailable)
		require.Equal(t, 2, rsvps.upsertCalls)
	})

	t.Run("conflict is surfaced without retry", func(t *testing.T) {
		store := memory.NewStore()
		rsvps := &flakyRsvpRepo{RsvpRepository: store.Rsvps(), upsertErrs: []error{domain.ErrConflict}}
		svc := NewEventService(store.Events(), rsvps, nil, nil, nil, testConfig())
		event := mustCreateEvent(t, svc, "host-1")

		_, _, err := svc.SetRsvp(ctx, "user-1", event.ID, domain.RsvpYes)
		require.ErrorIs(t, err, domain.ErrConflict)
		require.Equal(t, 1, rsvps.upsertCalls)
	})
}

func TestEventService_DeleteRsvp(t *testing.T) {
	ctx := context.Background()

	t.Run("owner deletes", func(t *testing.T) {
		svc, store := newMemoryService(t)
		event := mustCreateEvent(t, svc, "host-1")
		rsvp, _, err := svc.SetRsvp(ctx, "user-1", event.ID, domain.RsvpYes)
		require.NoError(t, err)

		require.NoError(t, svc.DeleteRsvp(ctx, "user-1", rsvp.ID))
		_, err = store.Rsvps().GetByID(ctx, rsvp.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)

		// The pair can answer again afterwards.
		_, outcome, err := svc.SetRsvp(ctx, "user-1", event.ID, domain.RsvpNo)
		require.NoError(t, err)
		require.Equal(t, domain.UpsertCreated, outcome)
	})

	t.Run("other actor is unauthorized", func(t *testing.T) {
		svc, store := newMemoryService(t)
		event := mustCreateEvent(t, svc, "host-1")
		rsvp, _, err := svc.SetRsvp(ctx, "user-1", event.ID, domain.RsvpYes)
		require.NoError(t, err)

		for _, actor := range []string{"user-2", "host-1", ""} {
			err := svc.DeleteRsvp(ctx, actor, rsvp.ID)
			require.ErrorIs(t, err, domain.ErrUnauthorized, "actor %q", actor)
		}
		_, err = store.Rsvps().GetByID(ctx, rsvp.ID)
		require.NoError(t, err)
	})

	t.Run("missing rsvp", func(t *testing.T) {
		svc, _ := newMemoryService(t)
		require.ErrorIs(t, svc.DeleteRsvp(ctx, "user-1", "rsvp-missing"), domain.ErrNotFound)
	})
}

func TestEventService_ListAttendeeRsvps(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t)
	first := mustCreateEvent(t, svc, "host-1")
	second := mustCreateEvent(t, svc, "host-2")

	_, _, err := svc.SetRsvp(ctx, "user-1", first.ID, domain.RsvpYes)
	require.NoError(t, err)
	_, _, err = svc.SetRsvp(ctx, "user-1", second.ID, domain.RsvpMaybe)
	require.NoError(t, err)
	_, _, err = svc.SetRsvp(ctx, "user-2", second.ID, domain.RsvpNo)
	require.NoError(t, err)

	got, err := svc.ListAttendeeRsvps(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].Event.ID)
	assert.Equal(t, domain.RsvpMaybe, got[0].Rsvp.Status)
	assert.Equal(t, first.ID, got[1].Event.ID)

	_, err = svc.DeleteEventCascade(ctx, "host-2", second.ID)
	require.NoError(t, err)
	got, err = svc.ListAttendeeRsvps(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = svc.ListAttendeeRsvps(ctx, "")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	none, err := svc.ListAttendeeRsvps(ctx, "user-9")
	require.NoError(t, err)
	require.Empty(t, none)
}
