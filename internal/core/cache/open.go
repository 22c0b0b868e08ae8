package cache

import (
	"fmt"

	"f1-pitwall/internal/core/config"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	BackendFile  = "file"
	BackendMongo = "mongo"
)

// Open returns the store selected by CACHE_BACKEND. The mongo backend needs a
// connected client.
func Open(cfg config.Config, client *mongo.Client) (Store, error) {
	switch cfg.CacheBackend {
	case "", BackendFile:
		return NewFileStore(cfg.DataDir), nil
	case BackendMongo:
		if client == nil {
			return nil, fmt.Errorf("cache backend %q needs a mongo connection", BackendMongo)
		}
		return NewMongoStore(client.Database(cfg.MongoDatabase)), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
