// Package mongo stores the case audit trail in MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Config holds the audit store connection settings.
type Config struct {
	URI      string
	Database string
	AppName  string
	Timeout  time.Duration
}

// Store owns the client backing the audit trail database.
type Store struct {
	client *mongo.Client
	DB     *mongo.Database
}

// Open dials MongoDB, pings the primary and ensures the case_events indexes.
// Audit writes are acknowledged by a majority of the replica set.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(cfg.AppName).
		SetServerSelectionTimeout(cfg.Timeout).
		SetWriteConcern(writeconcern.Majority())

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	s := &Store{client: client, DB: client.Database(cfg.Database)}

	if err := client.Ping(ctx, nil); err != nil {
		_ = s.Close(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	if err := EnsureIndexes(ctx, s.DB); err != nil {
		_ = s.Close(context.Background())
		return nil, err
	}
	return s, nil
}

// Close disconnects, giving in-flight operations up to five seconds.
func (s *Store) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
