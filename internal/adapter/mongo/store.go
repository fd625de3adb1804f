// Package mongo persists profile and metadata records in MongoDB collections.
package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/argo-profile-etl/internal/config"
	"github.com/couchcryptid/argo-profile-etl/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collection is the subset of *mongo.Collection the store uses.
type collection interface {
	DeleteMany(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	ReplaceOne(ctx context.Context, filter, replacement any, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
}

// Store implements pipeline.Sink on two collections: one for profiles and one
// for metadata.
type Store struct {
	client   *mongo.Client
	profiles collection
	metadata collection
	logger   *slog.Logger
}

// Connect dials MongoDB and selects the configured collections.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	db := client.Database(cfg.MongoDatabase)
	return &Store{
		client:   client,
		profiles: db.Collection(cfg.MongoCollection),
		metadata: db.Collection(cfg.MongoMetadataCollection),
		logger:   logger,
	}, nil
}

// Clear deletes every profile whose source_file equals source.
func (s *Store) Clear(ctx context.Context, source string) error {
	res, err := s.profiles.DeleteMany(ctx, bson.D{{Key: "source_file", Value: source}})
	if err != nil {
		return fmt.Errorf("delete profiles of %s: %w", source, err)
	}
	if res != nil && res.DeletedCount > 0 {
		s.logger.Debug("cleared stale profiles", "source_file", source, "deleted", res.DeletedCount)
	}
	return nil
}

// UpsertProfile replaces the profile document with rec's id, inserting it if absent.
func (s *Store) UpsertProfile(ctx context.Context, rec domain.ProfileRecord) error {
	return upsert(ctx, s.profiles, rec.ID, rec)
}

// UpsertMetadata replaces the metadata document with rec's id, inserting it if absent.
func (s *Store) UpsertMetadata(ctx context.Context, rec domain.MetadataRecord) error {
	return upsert(ctx, s.metadata, rec.ID, rec)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func upsert(ctx context.Context, c collection, id string, doc any) error {
	_, err := c.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", id, err)
	}
	return nil
}
