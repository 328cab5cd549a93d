// Package mongo implements a run store backed by a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/cratedeps/pkg/store"
)

const (
	// DefaultDatabase is used when the URI names no database.
	DefaultDatabase = "cratedeps"

	collectionName = "runs"
	closeTimeout   = 5 * time.Second
)

// Store keeps runs in the "runs" collection, indexed by crate and creation time.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects to uri, verifies the connection and ensures the index exists.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	if database == "" {
		database = DefaultDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	coll := client.Database(database).Collection(collectionName)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "crate", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Store{client: client, coll: coll}, nil
}

// Save upserts rec by ID.
func (s *Store) Save(ctx context.Context, rec *store.Record) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save run %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns the run with the given ID, or store.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*store.Record, error) {
	if !store.ValidID(id) {
		return nil, store.ErrNotFound
	}
	var rec store.Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &rec, nil
}

// List returns the newest runs of crate, or of every crate when crate is empty.
func (s *Store) List(ctx context.Context, crate string, limit int) ([]*store.Record, error) {
	filter := bson.M{}
	if crate != "" {
		filter["crate"] = crate
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	var recs []*store.Record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	return recs, nil
}

// Delete removes a run.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ store.Store = (*Store)(nil)
