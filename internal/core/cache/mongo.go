package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "season_cache"

type mongoEntry struct {
	ID        string    `bson:"_id"`
	Kind      string    `bson:"kind"`
	Year      int       `bson:"year"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps one document per (kind, year) with the JSON payload as a string.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(CollectionName)}
}

func entryID(kind Kind, year int) string {
	return fmt.Sprintf("%s:%d", kind, year)
}

func (s *MongoStore) LoadRaw(ctx context.Context, kind Kind, year int) ([]byte, error) {
	var entry mongoEntry
	err := s.coll.FindOne(ctx, bson.M{"_id": entryID(kind, year)}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s/%d: %w", kind, year, err)
	}
	return []byte(entry.Payload), nil
}

func (s *MongoStore) Load(ctx context.Context, kind Kind, year int, out any) error {
	data, err := s.LoadRaw(ctx, kind, year)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s/%d: %w", kind, year, err)
	}
	return nil
}

func (s *MongoStore) Save(ctx context.Context, kind Kind, year int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%d: %w", kind, year, err)
	}
	entry := mongoEntry{
		ID:        entryID(kind, year),
		Kind:      string(kind),
		Year:      year,
		Payload:   string(data),
		UpdatedAt: time.Now().UTC(),
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": entry.ID}, entry, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Delete(ctx context.Context, kind Kind, year int) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": entryID(kind, year)})
	return err
}

func (s *MongoStore) Years(ctx context.Context, kind Kind) ([]int, error) {
	values, err := s.coll.Distinct(ctx, "year", bson.M{"kind": string(kind)})
	if err != nil {
		return nil, err
	}
	years := make([]int, 0, len(values))
	for _, v := range values {
		switch y := v.(type) {
		case int32:
			years = append(years, int(y))
		case int64:
			years = append(years, int(y))
		case float64:
			years = append(years, int(y))
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}
