package services

import "happymemories/internal/domain"

// CanMutateEvent reports whether actorID may edit or delete event. Only the host may.
func CanMutateEvent(actorID string, event *domain.Event) bool {
	return actorID != "" && actorID == event.HostID
}

// CanRsvp returns domain.ErrUnauthorized when actorID is anonymous or hosts event.
func CanRsvp(actorID string, event *domain.Event) error {
	if actorID == "" || actorID == event.HostID {
		return domain.ErrUnauthorized
	}
	return nil
}
