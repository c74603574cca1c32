package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "page_contents"

type pageDoc struct {
	Key       string    `bson:"key"`
	Content   any       `bson:"content"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type MongoStore struct {
	Coll *mongo.Collection
	Now  func() time.Time
}

// Connect opens a client and checks it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// NewMongoStore decodes nested documents as maps so they encode back to plain JSON.
func NewMongoStore(db *mongo.Database) *MongoStore {
	coll := db.Collection(collectionName,
		options.Collection().SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}))
	return &MongoStore{Coll: coll, Now: time.Now}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.Coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoStore) Get(ctx context.Context, key string) (*Page, error) {
	var doc pageDoc
	err := s.Coll.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("page %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("encode page %q: %w", key, err)
	}
	return &Page{Key: doc.Key, Content: raw, UpdatedAt: doc.UpdatedAt}, nil
}

func (s *MongoStore) Upsert(ctx context.Context, key string, content json.RawMessage) (*Page, error) {
	var v any
	if err := json.Unmarshal(content, &v); err != nil {
		return nil, fmt.Errorf("content is not valid JSON: %w", ErrValidation)
	}
	now := s.Now().UTC().Truncate(time.Millisecond)

	_, err := s.Coll.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{"content": v, "updatedAt": now}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert page %q: %w", key, err)
	}
	return &Page{Key: key, Content: content, UpdatedAt: now}, nil
}
