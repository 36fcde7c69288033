package domain

import (
	"context"
	"strings"
	"time"
)

// RsvpStatus is an attendee's answer to an event.
type RsvpStatus string

const (
	RsvpYes   RsvpStatus = "Yes"
	RsvpNo    RsvpStatus = "No"
	RsvpMaybe RsvpStatus = "Maybe"
)

// RsvpStatuses lists every valid status.
var RsvpStatuses = []RsvpStatus{RsvpYes, RsvpNo, RsvpMaybe}

// Valid reports whether s is one of Yes, No or Maybe.
func (s RsvpStatus) Valid() bool {
	switch s {
	case RsvpYes, RsvpNo, RsvpMaybe:
		return true
	}
	return false
}

// ParseRsvpStatus maps case-insensitive input onto a RsvpStatus.
func ParseRsvpStatus(s string) (RsvpStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return RsvpYes, nil
	case "no":
		return RsvpNo, nil
	case "maybe":
		return RsvpMaybe, nil
	case "":
		return "", NewValidationError("status", "Status is required")
	}
	return "", NewValidationError("status", "Status must be one of Yes, No or Maybe")
}

// UpsertOutcome tells whether an upsert inserted a new row or updated an existing one.
type UpsertOutcome int

const (
	UpsertCreated UpsertOutcome = iota + 1
	UpsertUpdated
)

func (o UpsertOutcome) String() string {
	switch o {
	case UpsertCreated:
		return "created"
	case UpsertUpdated:
		return "updated"
	}
	return "unknown"
}

// Rsvp is the single attendance record of one attendee for one event.
// swagger:model Rsvp
type Rsvp struct {
	ID         string     `json:"id"`
	EventID    string     `json:"event_id"`
	AttendeeID string     `json:"attendee_id"`
	Status     RsvpStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewRsvp creates a new Rsvp. ID is set by the repository on upsert.
func NewRsvp(eventID, attendeeID string, status RsvpStatus, createdAt, updatedAt time.Time) *Rsvp {
	return &Rsvp{
		EventID:    eventID,
		AttendeeID: attendeeID,
		Status:     status,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}

// RsvpWithEvent bundles an RSVP with the event it answers.
type RsvpWithEvent struct {
	Rsvp  *Rsvp  `json:"rsvp"`
	Event *Event `json:"event"`
}

// RsvpRepository defines storage operations for RSVPs.
type RsvpRepository interface {
	// Upsert atomically inserts rsvp or updates the status of the existing row for
	// (EventID, AttendeeID). On return rsvp.ID and rsvp.CreatedAt hold the stored values.
	Upsert(ctx context.Context, rsvp *Rsvp) (UpsertOutcome, error)
	GetByID(ctx context.Context, id string) (*Rsvp, error)
	CountByStatus(ctx context.Context, eventID string, status RsvpStatus) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForEvent(ctx context.Context, eventID string) (int64, error)
	ListByAttendee(ctx context.Context, attendeeID string) ([]*Rsvp, error)
}
