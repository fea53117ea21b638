package deliverylog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	mongoconn "github.com/dmitrymomot/notifykit/pkg/mongo"
)

// MongoStorage is a MongoDB implementation of Storage. Delivery log rows
// are document-shaped and append-only, which suits a document store well.
type MongoStorage struct {
	collection *mongo.Collection
}

type mongoEntry struct {
	ID             string            `bson:"_id"`
	TenantID       string            `bson:"tenant_id"`
	Channel        string            `bson:"channel"`
	UserID         *string           `bson:"user_id,omitempty"`
	Audience       string            `bson:"audience"`
	RecipientCount int               `bson:"recipient_count"`
	SuccessCount   int               `bson:"success_count"`
	FailureCount   int               `bson:"failure_count"`
	Status         string            `bson:"status"`
	Title          string            `bson:"title,omitempty"`
	Body           string            `bson:"body,omitempty"`
	Data           map[string]string `bson:"data,omitempty"`
	Error          string            `bson:"error,omitempty"`
	CreatedAt      time.Time         `bson:"created_at"`
}

// NewMongoStorageFromConfig connects to MongoDB with the given
// configuration and stores entries in the named collection.
func NewMongoStorageFromConfig(ctx context.Context, cfg mongoconn.Config, database, collection string) (*MongoStorage, error) {
	db, err := mongoconn.NewWithDatabase(ctx, cfg, database)
	if err != nil {
		return nil, err
	}
	return NewMongoStorage(db.Collection(collection))
}

// NewMongoStorage creates a Mongo delivery log storage over the given
// collection.
func NewMongoStorage(collection *mongo.Collection) (*MongoStorage, error) {
	if collection == nil {
		return nil, ErrStorageNil
	}
	return &MongoStorage{collection: collection}, nil
}

func (s *MongoStorage) Insert(ctx context.Context, entry Entry) error {
	doc := mongoEntry{
		ID:             entry.ID.String(),
		TenantID:       entry.TenantID.String(),
		Channel:        entry.Channel,
		Audience:       entry.Audience,
		RecipientCount: entry.RecipientCount,
		SuccessCount:   entry.SuccessCount,
		FailureCount:   entry.FailureCount,
		Status:         string(entry.Status),
		Title:          entry.Title,
		Body:           entry.Body,
		Data:           entry.Data,
		Error:          entry.Error,
		CreatedAt:      entry.CreatedAt,
	}
	if entry.UserID != nil {
		id := entry.UserID.String()
		doc.UserID = &id
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("deliverylog: insert: %w", err)
	}
	return nil
}

func (s *MongoStorage) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := s.collection.Find(ctx, bson.M{"tenant_id": tenantID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("deliverylog: list: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Entry
	for cursor.Next(ctx) {
		var doc mongoEntry
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("deliverylog: decode: %w", err)
		}
		entry, err := doc.toEntry()
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, cursor.Err()
}

func (s *MongoStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.collection.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("deliverylog: prune: %w", err)
	}
	return res.DeletedCount, nil
}

func (d mongoEntry) toEntry() (Entry, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return Entry{}, fmt.Errorf("deliverylog: corrupt entry id %q: %w", d.ID, err)
	}
	tenantID, err := uuid.Parse(d.TenantID)
	if err != nil {
		return Entry{}, fmt.Errorf("deliverylog: corrupt tenant id %q: %w", d.TenantID, err)
	}

	entry := Entry{
		ID:             id,
		TenantID:       tenantID,
		Channel:        d.Channel,
		Audience:       d.Audience,
		RecipientCount: d.RecipientCount,
		SuccessCount:   d.SuccessCount,
		FailureCount:   d.FailureCount,
		Status:         Status(d.Status),
		Title:          d.Title,
		Body:           d.Body,
		Data:           d.Data,
		Error:          d.Error,
		CreatedAt:      d.CreatedAt,
	}
	if d.UserID != nil {
		userID, err := uuid.Parse(*d.UserID)
		if err != nil {
			return Entry{}, fmt.Errorf("deliverylog: corrupt user id %q: %w", *d.UserID, err)
		}
		entry.UserID = &userID
	}
	return entry, nil
}
