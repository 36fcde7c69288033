package services

import (
	"context"
	"errors"
	"fmt"

	"happymemories/internal/domain"
)

// SetRsvp creates the actor's RSVP for the event or changes its status. With a transactor the
// foreign key rejects an upsert for a deleted event; without one the event is looked up again
// after the write and the RSVP is removed if the event has gone.
func (s *eventService) SetRsvp(ctx context.Context, actorID, eventID string, status domain.RsvpStatus) (*domain.Rsvp, domain.UpsertOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	status, err := domain.ParseRsvpStatus(string(status))
	if err != nil {
		return nil, 0, s.fail("set_rsvp", err)
	}
	if actorID == "" {
		return nil, 0, s.fail("set_rsvp", domain.ErrUnauthorized)
	}

	var (
		rsvp    *domain.Rsvp
		outcome domain.UpsertOutcome
	)
	if s.tx != nil {
		rsvp, outcome, err = s.setRsvpTx(ctx, actorID, eventID, status)
	} else {
		rsvp, outcome, err = s.setRsvpOrdered(ctx, actorID, eventID, status)
	}
	if err != nil {
		return nil, 0, s.fail("set_rsvp", err)
	}

	s.metrics.RsvpUpserted(outcome)
	s.logger.InfoContext(ctx, "rsvp set",
		"rsvp_id", rsvp.ID, "event_id", eventID, "attendee_id", actorID,
		"status", string(status), "outcome", outcome.String())
	return rsvp, outcome, nil
}

func (s *eventService) setRsvpTx(ctx context.Context, actorID, eventID string, status domain.RsvpStatus) (*domain.Rsvp, domain.UpsertOutcome, error) {
	var (
		rsvp    *domain.Rsvp
		outcome domain.UpsertOutcome
	)
	err := s.retry(ctx, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context, events domain.EventRepository, rsvps domain.RsvpRepository) error {
			event, err := events.GetByID(ctx, eventID)
			if err != nil {
				return err
			}
			if err := CanRsvp(actorID, event); err != nil {
				return err
			}
			now := s.now()
			rsvp = domain.NewRsvp(eventID, actorID, status, now, now)
			outcome, err = rsvps.Upsert(ctx, rsvp)
			if err != nil {
				return fmt.Errorf("upsert rsvp: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, err
	}
	return rsvp, outcome, nil
}

func (s *eventService) setRsvpOrdered(ctx context.Context, actorID, eventID string, status domain.RsvpStatus) (*domain.Rsvp, domain.UpsertOutcome, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}
	if err := CanRsvp(actorID, event); err != nil {
		return nil, 0, err
	}

	now := s.now()
	rsvp := domain.NewRsvp(eventID, actorID, status, now, now)
	var outcome domain.UpsertOutcome
	if err := s.retry(ctx, func() error {
		var err error
		outcome, err = s.rsvpRepo.Upsert(ctx, rsvp)
		return err
	}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("upsert rsvp: %w", err)
	}

	// A cascade may have finished its final sweep between the lookup and the write.
	if _, err := s.getEvent(ctx, eventID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, 0, fmt.Errorf("verify event: %w", err)
		}
		if err := s.retry(ctx, func() error { return s.rsvpRepo.Delete(ctx, rsvp.ID) }); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.ErrorContext(ctx, "orphaned rsvp not removed", "rsvp_id", rsvp.ID, "event_id", eventID, "error", err)
			return nil, 0, &domain.CascadeError{EventID: eventID, Err: fmt.Errorf("remove orphaned rsvp %s: %w", rsvp.ID, err)}
		}
		return nil, 0, domain.ErrNotFound
	}
	return rsvp, outcome, nil
}

// DeleteRsvp removes an RSVP. Only the attendee who owns it may delete it.
func (s *eventService) DeleteRsvp(ctx context.Context, actorID, rsvpID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if actorID == "" {
		return s.fail("delete_rsvp", domain.ErrUnauthorized)
	}

	var rsvp *domain.Rsvp
	if err := s.retry(ctx, func() error {
		var err error
		rsvp, err = s.rsvpRepo.GetByID(ctx, rsvpID)
		return err
	}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.fail("delete_rsvp", domain.ErrNotFound)
		}
		return s.fail("delete_rsvp", fmt.Errorf("get rsvp: %w", err))
	}
	if rsvp.AttendeeID != actorID {
		return s.fail("delete_rsvp", domain.ErrUnauthorized)
	}

	if err := s.retry(ctx, func() error { return s.rsvpRepo.Delete(ctx, rsvpID) }); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.fail("delete_rsvp", domain.ErrNotFound)
		}
		return s.fail("delete_rsvp", fmt.Errorf("delete rsvp: %w", err))
	}
	s.logger.InfoContext(ctx, "rsvp deleted", "rsvp_id", rsvpID, "event_id", rsvp.EventID)
	return nil
}

// ListAttendeeRsvps returns the actor's RSVPs, most recently changed first, each with its event.
func (s *eventService) ListAttendeeRsvps(ctx context.Context, actorID string) ([]*domain.RsvpWithEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if actorID == "" {
		return nil, s.fail("list_rsvps", domain.ErrUnauthorized)
	}

	var rsvps []*domain.Rsvp
	if err := s.retry(ctx, func() error {
		var err error
		rsvps, err = s.rsvpRepo.ListByAttendee(ctx, actorID)
		return err
	}); err != nil {
		return nil, s.fail("list_rsvps", fmt.Errorf("list rsvps: %w", err))
	}

	eventsByID := make(map[string]*domain.Event)
	result := make([]*domain.RsvpWithEvent, 0, len(rsvps))
	for _, rsvp := range rsvps {
		ev, ok := eventsByID[rsvp.EventID]
		if !ok {
			var err error
			ev, err = s.getEvent(ctx, rsvp.EventID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					// Cascade in progress.
					continue
				}
				return nil, s.fail("list_rsvps", err)
			}
			eventsByID[rsvp.EventID] = ev
		}
		result = append(result, &domain.RsvpWithEvent{Rsvp: rsvp, Event: ev})
	}
	return result, nil
}
