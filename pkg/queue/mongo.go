package queue

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	oerrors "github.com/olivekit/oliveapi/pkg/errors"
)

// MongoStore persists queue items as individual documents, one per item.
// Use it when several application instances should see the same pending
// mutations, or when operators want to inspect the queue with database
// tooling instead of a local file.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoConfig holds connection settings for the Mongo queue backend.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// NewMongoStore connects to MongoDB and verifies the connection with a ping.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, oerrors.Wrap(oerrors.ErrCodeStorage, err, "connecting to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, oerrors.Wrap(oerrors.ErrCodeStorage, err, "pinging mongo")
	}

	db := cfg.Database
	if db == "" {
		db = "oliveapi"
	}
	coll := cfg.Collection
	if coll == "" {
		coll = "offline_queue"
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(db).Collection(coll),
	}, nil
}

// All returns every item in the store, oldest first.
func (s *MongoStore) All(ctx context.Context) ([]Item, error) {
	return s.find(ctx, bson.D{})
}

// Pending returns items with status Added, oldest first.
func (s *MongoStore) Pending(ctx context.Context) ([]Item, error) {
	return s.find(ctx, bson.D{{Key: "status", Value: StatusAdded}})
}

func (s *MongoStore) find(ctx context.Context, filter bson.D) ([]Item, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "added_at", Value: 1}}))
	if err != nil {
		return nil, oerrors.Wrap(oerrors.ErrCodeStorage, err, "finding queue items")
	}
	defer cur.Close(ctx)

	var items []Item
	if err := cur.All(ctx, &items); err != nil {
		return nil, oerrors.Wrap(oerrors.ErrCodeStorage, err, "decoding queue items")
	}
	return items, nil
}

// Append adds a new item.
func (s *MongoStore) Append(ctx context.Context, item Item) error {
	if _, err := s.coll.InsertOne(ctx, item); err != nil {
		return oerrors.Wrap(oerrors.ErrCodeStorage, err, "inserting queue item")
	}
	return nil
}

// Update replaces the stored item with the same ID.
func (s *MongoStore) Update(ctx context.Context, item Item) error {
	res, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "id", Value: item.ID}}, item)
	if err != nil {
		return oerrors.Wrap(oerrors.ErrCodeStorage, err, "updating queue item")
	}
	if res.MatchedCount == 0 {
		return oerrors.New(oerrors.ErrCodeStorage, "queue item %s not in store", item.ID)
	}
	return nil
}

// Clear removes every item.
func (s *MongoStore) Clear(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return oerrors.Wrap(oerrors.ErrCodeStorage, err, "clearing queue")
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
