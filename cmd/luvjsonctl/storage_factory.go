package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/homveloper/luvjson/config"
	"github.com/homveloper/luvjson/storage"
)

// buildStorageAdapter constructs the storage.Adapter named by opts.Kind,
// connecting to whatever external service that kind requires.
func buildStorageAdapter(ctx context.Context, opts config.StorageOptions) (storage.Adapter, error) {
	switch opts.Kind {
	case "", "memory":
		return storage.NewMemoryAdapter(), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:        opts.Redis.Addr,
			Password:    opts.Redis.Password,
			DB:          opts.Redis.DB,
			DialTimeout: opts.Redis.DialTimeout,
		})
		return storage.NewRedisAdapter(client, opts.Redis.KeyPrefix), nil

	case "mongo":
		client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(opts.Mongo.URI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		collection := client.Database(opts.Mongo.Database).Collection(opts.Mongo.Collection)
		return storage.NewMongoAdapter(collection), nil

	case "badger":
		adapter, err := storage.NewBadgerAdapter(opts.Badger.Path)
		if err != nil {
			return nil, err
		}
		return adapter, nil

	case "sql":
		db, err := sql.Open(opts.SQL.Driver, opts.SQL.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sql database: %w", err)
		}
		adapter, err := storage.NewSQLAdapter(ctx, db, opts.SQL.Table)
		if err != nil {
			return nil, err
		}
		return adapter, nil

	default:
		return nil, fmt.Errorf("unknown storage kind %q", opts.Kind)
	}
}
