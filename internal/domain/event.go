package domain

import (
	"context"
	"time"
)

// Event represents a hosted occasion with a time window.
// swagger:model Event
type Event struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Details   string    `json:"details"`
	Location  string    `json:"location"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Image     string    `json:"image"`
	HostID    string    `json:"host_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventInput is the raw event form as submitted by a caller. Dates are unparsed strings.
type EventInput struct {
	Category  string `json:"category"`
	Title     string `json:"title"`
	Details   string `json:"details"`
	Location  string `json:"location"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Image     string `json:"image"`
}

// EventFields is an EventInput that passed validation.
type EventFields struct {
	Category  string
	Title     string
	Details   string
	Location  string
	StartDate time.Time
	EndDate   time.Time
	Image     string
}

// NewEvent returns a new Event hosted by hostID. ID is set by the repository on create.
func NewEvent(fields EventFields, hostID string, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Category:  fields.Category,
		Title:     fields.Title,
		Details:   fields.Details,
		Location:  fields.Location,
		StartDate: fields.StartDate,
		EndDate:   fields.EndDate,
		Image:     fields.Image,
		HostID:    hostID,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// EventListing is the browse view: every event plus the distinct categories in use.
type EventListing struct {
	Events     []*Event `json:"events"`
	Categories []string `json:"categories"`
}

// EventDetails is an event together with its count of "Yes" RSVPs.
type EventDetails struct {
	Event      *Event `json:"event"`
	GoingCount int    `json:"going_count"`
}

// EventRepository defines the interface for event storage.
// Delete removes only the event row; dependent RSVPs are the service's concern.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, id string, fields EventFields, updatedAt time.Time) (*Event, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Event, error)
	DistinctCategories(ctx context.Context) ([]string, error)
}

// Transactor is implemented by storage backends that can run several repository
// calls as one atomic unit. fn receives repositories bound to the transaction;
// returning nil commits, returning an error rolls back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, events EventRepository, rsvps RsvpRepository) error) error
}

// EventService defines every event and RSVP operation available to callers.
// Each mutating method takes the acting user's id explicitly.
type EventService interface {
	ListEvents(ctx context.Context) (*EventListing, error)
	GetEvent(ctx context.Context, eventID string) (*EventDetails, error)
	CreateEvent(ctx context.Context, actorID string, input EventInput) (*Event, error)
	UpdateEvent(ctx context.Context, actorID, eventID string, input EventInput) (*Event, error)
	// DeleteEventCascade deletes the event and every RSVP referencing it. Returns the number of RSVPs removed.
	DeleteEventCascade(ctx context.Context, actorID, eventID string) (int64, error)
	// SetRsvp creates or updates the actor's single RSVP for the event.
	SetRsvp(ctx context.Context, actorID, eventID string, status RsvpStatus) (*Rsvp, UpsertOutcome, error)
	DeleteRsvp(ctx context.Context, actorID, rsvpID string) error
	ListAttendeeRsvps(ctx context.Context, actorID string) ([]*RsvpWithEvent, error)
}
