// Package mongo implements the persistence KV port on a MongoDB collection.
// Each key is one document: {_id: "<namespace>:<key>", value: <bytes>}.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds MongoDB connection settings.
type Config struct {
	URI            string
	Database       string
	Collection     string
	Namespace      string
	ConnectTimeout time.Duration
}

// DefaultConfig returns defaults for a local MongoDB.
func DefaultConfig() Config {
	return Config{
		URI:            "mongodb://localhost:27017",
		Database:       "student_hub",
		Collection:     "kv",
		Namespace:      "hub",
		ConnectTimeout: 10 * time.Second,
	}
}

// ErrKeyEmpty is returned for operations on an empty key.
var ErrKeyEmpty = errors.New("mongo: key cannot be empty")

type document struct {
	ID        string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// ══════════════════════════════════════════════════════════════════════════════
// KV
// ══════════════════════════════════════════════════════════════════════════════

// KV stores values in a single collection.
type KV struct {
	client     *mongo.Client
	collection *mongo.Collection
	namespace  string
}

// Open connects to cfg.URI and pings the primary.
func Open(ctx context.Context, cfg Config) (*KV, error) {
	def := DefaultConfig()
	if cfg.Database == "" {
		cfg.Database = def.Database
	}
	if cfg.Collection == "" {
		cfg.Collection = def.Collection
	}
	if cfg.Namespace == "" {
		cfg.Namespace = def.Namespace
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	return &KV{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		namespace:  cfg.Namespace,
	}, nil
}

// Key returns the document id used for key.
func (kv *KV) Key(key string) string {
	return kv.namespace + ":" + key
}

// Get returns the value under key.
func (kv *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrKeyEmpty
	}
	var doc document
	err := kv.collection.FindOne(ctx, bson.M{"_id": kv.Key(key)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("mongo: get %s: %w", key, err)
	}
	if doc.Value == nil {
		doc.Value = []byte{}
	}
	return doc.Value, true, nil
}

// Set replaces the document for key, inserting it when missing.
func (kv *KV) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrKeyEmpty
	}
	if value == nil {
		value = []byte{}
	}
	doc := document{ID: kv.Key(key), Value: value, UpdatedAt: time.Now().UTC()}
	_, err := kv.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys in one DeleteMany.
func (kv *KV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = kv.Key(k)
	}
	if _, err := kv.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("mongo: delete: %w", err)
	}
	return nil
}

// Ping checks the connection to the primary.
func (kv *KV) Ping(ctx context.Context) error {
	return kv.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (kv *KV) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return kv.client.Disconnect(ctx)
}
