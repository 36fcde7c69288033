package mongodb

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"happymemories/internal/domain"
)

type eventDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Category  string             `bson:"category"`
	Title     string             `bson:"title"`
	Details   string             `bson:"details"`
	Location  string             `bson:"location"`
	StartDate time.Time          `bson:"start_date"`
	EndDate   time.Time          `bson:"end_date"`
	Image     string             `bson:"image"`
	HostID    string             `bson:"host_id"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d *eventDocument) toDomain() *domain.Event {
	return &domain.Event{
		ID:        d.ID.Hex(),
		Category:  d.Category,
		Title:     d.Title,
		Details:   d.Details,
		Location:  d.Location,
		StartDate: d.StartDate.UTC(),
		EndDate:   d.EndDate.UTC(),
		Image:     d.Image,
		HostID:    d.HostID,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type eventRepository struct {
	col *mongo.Collection
}

// objectID parses a hex id. Anything that is not an ObjectID cannot name a stored document.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return oid, nil
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	doc := eventDocument{
		ID:        primitive.NewObjectID(),
		Category:  event.Category,
		Title:     event.Title,
		Details:   event.Details,
		Location:  event.Location,
		StartDate: event.StartDate,
		EndDate:   event.EndDate,
		Image:     event.Image,
		HostID:    event.HostID,
		CreatedAt: event.CreatedAt,
		UpdatedAt: event.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return classify(err)
	}
	event.ID = doc.ID.Hex()
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc eventDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, classify(err)
	}
	return doc.toDomain(), nil
}

func (r *eventRepository) Update(ctx context.Context, id string, fields domain.EventFields, updatedAt time.Time) (*domain.Event, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{
		"category":   fields.Category,
		"title":      fields.Title,
		"details":    fields.Details,
		"location":   fields.Location,
		"start_date": fields.StartDate,
		"end_date":   fields.EndDate,
		"image":      fields.Image,
		"updated_at": updatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc eventDocument
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, classify(err)
	}
	return doc.toDomain(), nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
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

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	events := make([]*domain.Event, 0)
	for cursor.Next(ctx) {
		var doc eventDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, classify(err)
		}
		events = append(events, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, classify(err)
	}
	return events, nil
}

func (r *eventRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	values, err := r.col.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, classify(err)
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}
