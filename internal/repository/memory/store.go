// Package memory is an in-process storage backend for events and RSVPs.
//
// Both repositories share one lock, so an RSVP upsert and the existence check
// of its event happen in the same critical section: an RSVP can never be
// written for an event that is already gone. The backend does not implement
// domain.Transactor.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"happymemories/internal/domain"
)

type pairKey struct {
	eventID    string
	attendeeID string
}

// Store holds events and RSVPs in maps guarded by a single RWMutex.
type Store struct {
	mu     sync.RWMutex
	events map[string]*domain.Event
	rsvps  map[string]*domain.Rsvp
	byPair map[pairKey]string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		events: make(map[string]*domain.Event),
		rsvps:  make(map[string]*domain.Rsvp),
		byPair: make(map[pairKey]string),
	}
}

// Events returns the event repository view of the store.
func (s *Store) Events() domain.EventRepository { return &eventRepository{s: s} }

// Rsvps returns the RSVP repository view of the store.
func (s *Store) Rsvps() domain.RsvpRepository { return &rsvpRepository{s: s} }

// ctxErr reports a done ctx as unavailable storage, the way a backend timeout is reported.
func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

type eventRepository struct {
	s *Store
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = uuid.NewString()
	cp := *e
	r.s.events[e.ID] = &cp
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *eventRepository) Update(ctx context.Context, id string, fields domain.EventFields, updatedAt time.Time) (*domain.Event, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.Category = fields.Category
	e.Title = fields.Title
	e.Details = fields.Details
	e.Location = fields.Location
	e.StartDate = fields.StartDate
	e.EndDate = fields.EndDate
	e.Image = fields.Image
	e.UpdatedAt = updatedAt
	cp := *e
	return &cp, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.events, id)
	return nil
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	events := make([]*domain.Event, 0, len(r.s.events))
	for _, e := range r.s.events {
		cp := *e
		events = append(events, &cp)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].StartDate.Equal(events[j].StartDate) {
			return events[i].ID < events[j].ID
		}
		return events[i].StartDate.Before(events[j].StartDate)
	})
	return events, nil
}

func (r *eventRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, e := range r.s.events {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		categories = append(categories, e.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

type rsvpRepository struct {
	s *Store
}

func (r *rsvpRepository) Upsert(ctx context.Context, rsvp *domain.Rsvp) (domain.UpsertOutcome, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[rsvp.EventID]; !ok {
		return 0, domain.ErrNotFound
	}
	key := pairKey{eventID: rsvp.EventID, attendeeID: rsvp.AttendeeID}
	if id, ok := r.s.byPair[key]; ok {
		existing := r.s.rsvps[id]
		existing.Status = rsvp.Status
		existing.UpdatedAt = rsvp.UpdatedAt
		rsvp.ID = existing.ID
		rsvp.CreatedAt = existing.CreatedAt
		return domain.UpsertUpdated, nil
	}
	rsvp.ID = uuid.NewString()
	cp := *rsvp
	r.s.rsvps[rsvp.ID] = &cp
	r.s.byPair[key] = rsvp.ID
	return domain.UpsertCreated, nil
}

func (r *rsvpRepository) GetByID(ctx context.Context, id string) (*domain.Rsvp, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rsvp, ok := r.s.rsvps[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rsvp
	return &cp, nil
}

func (r *rsvpRepository) CountByStatus(ctx context.Context, eventID string, status domain.RsvpStatus) (int, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, rsvp := range r.s.rsvps {
		if rsvp.EventID == eventID && rsvp.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *rsvpRepository) Delete(ctx context.Context, id string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rsvp, ok := r.s.rsvps[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.s.remove(rsvp)
	return nil
}

func (r *rsvpRepository) DeleteAllForEvent(ctx context.Context, eventID string) (int64, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, rsvp := range r.s.rsvps {
		if rsvp.EventID == eventID {
			r.s.remove(rsvp)
			n++
		}
	}
	return n, nil
}

func (r *rsvpRepository) ListByAttendee(ctx context.Context, attendeeID string) ([]*domain.Rsvp, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Rsvp, 0)
	for _, rsvp := range r.s.rsvps {
		if rsvp.AttendeeID == attendeeID {
			cp := *rsvp
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// remove deletes rsvp from both indexes. Callers hold the write lock.
func (s *Store) remove(rsvp *domain.Rsvp) {
	delete(s.rsvps, rsvp.ID)
	delete(s.byPair, pairKey{eventID: rsvp.EventID, attendeeID: rsvp.AttendeeID})
}
