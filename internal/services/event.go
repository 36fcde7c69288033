package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"happymemories/internal/domain"
	"happymemories/internal/metrics"
	"happymemories/internal/validation"
)

const defaultContextTimeout = 5 * time.Second

// EventServiceConfig tunes the event service. Zero values fall back to defaults.
type EventServiceConfig struct {
	Timeout    time.Duration
	RetryDelay time.Duration
	Now        func() time.Time
}

type eventService struct {
	eventRepo      domain.EventRepository
	rsvpRepo       domain.RsvpRepository
	tx             domain.Transactor
	logger         *slog.Logger
	metrics        *metrics.Recorder
	contextTimeout time.Duration
	retryDelay     time.Duration
	now            func() time.Time
}

// NewEventService wires the event and RSVP operations. tx may be nil for backends without
// transactions; the service then orders its writes so that no RSVP outlives its event.
func NewEventService(
	eventRepo domain.EventRepository,
	rsvpRepo domain.RsvpRepository,
	tx domain.Transactor,
	logger *slog.Logger,
	recorder *metrics.Recorder,
	cfg EventServiceConfig,
) domain.EventService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultContextTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &eventService{
		eventRepo:      eventRepo,
		rsvpRepo:       rsvpRepo,
		tx:             tx,
		logger:         logger,
		metrics:        recorder,
		contextTimeout: cfg.Timeout,
		retryDelay:     cfg.RetryDelay,
		now:            cfg.Now,
	}
}

func (s *eventService) retry(ctx context.Context, op func() error) error {
	return withRetry(ctx, s.retryDelay, op)
}

func (s *eventService) fail(op string, err error) error {
	s.metrics.OperationFailed(op, err)
	return err
}

func (s *eventService) getEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	var event *domain.Event
	err := s.retry(ctx, func() error {
		var err error
		event, err = s.eventRepo.GetByID(ctx, eventID)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) (*domain.EventListing, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var events []*domain.Event
	if err := s.retry(ctx, func() error {
		var err error
		events, err = s.eventRepo.List(ctx)
		return err
	}); err != nil {
		return nil, s.fail("list_events", fmt.Errorf("list events: %w", err))
	}

	var categories []string
	if err := s.retry(ctx, func() error {
		var err error
		categories, err = s.eventRepo.DistinctCategories(ctx)
		return err
	}); err != nil {
		return nil, s.fail("list_events", fmt.Errorf("list categories: %w", err))
	}

	if events == nil {
		events = []*domain.Event{}
	}
	if categories == nil {
		categories = []string{}
	}
	return &domain.EventListing{Events: events, Categories: categories}, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.EventDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, s.fail("get_event", err)
	}

	var going int
	if err := s.retry(ctx, func() error {
		var err error
		going, err = s.rsvpRepo.CountByStatus(ctx, eventID, domain.RsvpYes)
		return err
	}); err != nil {
		return nil, s.fail("get_event", fmt.Errorf("count rsvps: %w", err))
	}
	return &domain.EventDetails{Event: event, GoingCount: going}, nil
}

func (s *eventService) CreateEvent(ctx context.Context, actorID string, input domain.EventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if actorID == "" {
		return nil, s.fail("create_event", domain.ErrUnauthorized)
	}
	now := s.now()
	// A past start date is reported even when other fields are also invalid.
	if start, err := validation.ParseDate(input.StartDate); err == nil {
		if err := validation.ValidateEventIsFuture(start, now); err != nil {
			return nil, s.fail("create_event", err)
		}
	}
	fields, err := validation.ValidateEventFields(input)
	if err != nil {
		return nil, s.fail("create_event", err)
	}

	event := domain.NewEvent(fields, actorID, now, now)
	// Not retried: a create that timed out may still have been applied.
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, s.fail("create_event", fmt.Errorf("create event: %w", err))
	}
	s.logger.InfoContext(ctx, "event created", "event_id", event.ID, "host_id", actorID)
	return event, nil
}

// UpdateEvent re-validates the fields but not the future-date rule. The host never changes.
func (s *eventService) UpdateEvent(ctx context.Context, actorID, eventID string, input domain.EventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, s.fail("update_event", err)
	}
	if !CanMutateEvent(actorID, event) {
		return nil, s.fail("update_event", domain.ErrUnauthorized)
	}
	fields, err := validation.ValidateEventFields(input)
	if err != nil {
		return nil, s.fail("update_event", err)
	}

	var updated *domain.Event
	if err := s.retry(ctx, func() error {
		var err error
		updated, err = s.eventRepo.Update(ctx, eventID, fields, s.now())
		return err
	}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, s.fail("update_event", domain.ErrNotFound)
		}
		return nil, s.fail("update_event", fmt.Errorf("update event: %w", err))
	}
	s.logger.InfoContext(ctx, "event updated", "event_id", eventID)
	return updated, nil
}

func (s *eventService) DeleteEventCascade(ctx context.Context, actorID, eventID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var (
		removed int64
		err     error
	)
	if s.tx != nil {
		removed, err = s.deleteCascadeTx(ctx, actorID, eventID)
	} else {
		removed, err = s.deleteCascadeOrdered(ctx, actorID, eventID)
	}
	if err != nil {
		var cerr *domain.CascadeError
		if errors.As(err, &cerr) {
			s.logger.ErrorContext(ctx, "cascade delete incomplete",
				"event_id", eventID, "rsvps_deleted", cerr.RsvpsDeleted, "error", cerr.Err)
			s.metrics.CascadeDeleted(cerr.RsvpsDeleted, true)
		}
		return 0, s.fail("delete_event", err)
	}

	s.metrics.CascadeDeleted(removed, false)
	s.logger.InfoContext(ctx, "event deleted", "event_id", eventID, "rsvps_deleted", removed)
	return removed, nil
}

// deleteCascadeTx runs the whole cascade in one transaction. The whole transaction is retried
// on ErrStorageUnavailable since a failed attempt leaves nothing behind. A failed commit is not
// retried because it may have been applied.
func (s *eventService) deleteCascadeTx(ctx context.Context, actorID, eventID string) (int64, error) {
	var removed int64
	err := s.retry(ctx, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context, events domain.EventRepository, rsvps domain.RsvpRepository) error {
			event, err := events.GetByID(ctx, eventID)
			if err != nil {
				return err
			}
			if !CanMutateEvent(actorID, event) {
				return domain.ErrUnauthorized
			}
			n, err := rsvps.DeleteAllForEvent(ctx, eventID)
			if err != nil {
				return fmt.Errorf("delete rsvps: %w", err)
			}
			if err := events.Delete(ctx, eventID); err != nil {
				return fmt.Errorf("delete event: %w", err)
			}
			removed = n
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return removed, nil
}

// deleteCascadeOrdered deletes RSVPs, then the event, then sweeps RSVPs once more to catch
// any upsert that landed between the first two steps.
func (s *eventService) deleteCascadeOrdered(ctx context.Context, actorID, eventID string) (int64, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if !CanMutateEvent(actorID, event) {
		return 0, domain.ErrUnauthorized
	}

	var removed int64
	deleteRsvps := func() error {
		n, err := s.rsvpRepo.DeleteAllForEvent(ctx, eventID)
		if err != nil {
			return err
		}
		removed += n
		return nil
	}

	if err := s.retry(ctx, deleteRsvps); err != nil {
		return 0, fmt.Errorf("delete rsvps: %w", err)
	}

	attempts := 0
	if err := s.retry(ctx, func() error {
		attempts++
		err := s.eventRepo.Delete(ctx, eventID)
		if attempts > 1 && errors.Is(err, domain.ErrNotFound) {
			// The failed attempt was applied before its reply was lost.
			return nil
		}
		return err
	}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Deleted concurrently by another request.
			return 0, domain.ErrNotFound
		}
		return 0, &domain.CascadeError{EventID: eventID, RsvpsDeleted: removed, Err: fmt.Errorf("delete event: %w", err)}
	}

	if err := s.retry(ctx, deleteRsvps); err != nil {
		return 0, &domain.CascadeError{EventID: eventID, RsvpsDeleted: removed, Err: fmt.Errorf("sweep rsvps: %w", err)}
	}
	return removed, nil
}
