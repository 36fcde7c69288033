package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"happymemories/internal/domain"
)

type rsvpDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	EventID    string             `bson:"event_id"`
	AttendeeID string             `bson:"attendee_id"`
	Status     string             `bson:"status"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

func (d *rsvpDocument) toDomain() *domain.Rsvp {
	return &domain.Rsvp{
		ID:         d.ID.Hex(),
		EventID:    d.EventID,
		AttendeeID: d.AttendeeID,
		Status:     domain.RsvpStatus(d.Status),
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}
}

type rsvpRepository struct {
	col *mongo.Collection
}

// upsertAttempts bounds the retry of an upsert that lost the insert race on the pair index.
const upsertAttempts = 2

// Upsert does not check that the event exists; callers re-check after writing.
func (r *rsvpRepository) Upsert(ctx context.Context, rsvp *domain.Rsvp) (domain.UpsertOutcome, error) {
	filter := bson.M{"event_id": rsvp.EventID, "attendee_id": rsvp.AttendeeID}
	update := bson.M{
		"$set": bson.M{
			"status":     string(rsvp.Status),
			"updated_at": rsvp.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"created_at": rsvp.CreatedAt,
		},
	}
	opts := options.Update().SetUpsert(true)

	var lastErr error
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		res, err := r.col.UpdateOne(ctx, filter, update, opts)
		if err != nil {
			lastErr = err
			// Two concurrent inserts for one pair: the loser now finds the winner's row.
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return 0, classify(err)
		}
		if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
			rsvp.ID = oid.Hex()
			return domain.UpsertCreated, nil
		}

		var doc rsvpDocument
		if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
			return 0, classify(err)
		}
		rsvp.ID = doc.ID.Hex()
		rsvp.CreatedAt = doc.CreatedAt.UTC()
		return domain.UpsertUpdated, nil
	}
	return 0, classify(lastErr)
}

func (r *rsvpRepository) GetByID(ctx context.Context, id string) (*domain.Rsvp, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc rsvpDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, classify(err)
	}
	return doc.toDomain(), nil
}

func (r *rsvpRepository) CountByStatus(ctx context.Context, eventID string, status domain.RsvpStatus) (int, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"event_id": eventID, "status": string(status)})
	if err != nil {
		return 0, classify(err)
	}
	return int(n), nil
}

func (r *rsvpRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return classify(err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *rsvpRepository) DeleteAllForEvent(ctx context.Context, eventID string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return 0, classify(err)
	}
	return res.DeletedCount, nil
}

func (r *rsvpRepository) ListByAttendee(ctx context.Context, attendeeID string) ([]*domain.Rsvp, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"attendee_id": attendeeID}, opts)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	rsvps := make([]*domain.Rsvp, 0)
	for cursor.Next(ctx) {
		var doc rsvpDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, classify(err)
		}
		rsvps = append(rsvps, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, classify(err)
	}
	return rsvps, nil
}
