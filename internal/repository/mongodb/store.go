// Package mongodb stores events and RSVPs as MongoDB documents.
//
// MongoDB gives no cross-collection referential integrity here, so the backend
// does not implement domain.Transactor and the service falls back to its
// ordered delete-and-sweep protocol. The unique rsvps_event_attendee_key index
// is what keeps one RSVP per (event, attendee).
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"happymemories/internal/domain"
)

const (
	EventsCollection = "events"
	RsvpsCollection  = "rsvps"

	rsvpPairIndex = "rsvps_event_attendee_key"
)

// Connect dials uri and pings the primary before returning the client.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// Store binds the event and RSVP repositories to one database.
type Store struct {
	db *mongo.Database
}

func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) Events() domain.EventRepository {
	return &eventRepository{col: s.db.Collection(EventsCollection)}
}

func (s *Store) Rsvps() domain.RsvpRepository {
	return &rsvpRepository{col: s.db.Collection(RsvpsCollection)}
}

// EnsureIndexes creates the indexes the repositories depend on. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(RsvpsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "attendee_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(rsvpPairIndex),
		},
		{
			Keys: bson.D{{Key: "attendee_id", Value: 1}, {Key: "updated_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create rsvp indexes: %w", classify(err))
	}

	_, err = s.db.Collection(EventsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "start_date", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create event indexes: %w", classify(err))
	}
	return nil
}
