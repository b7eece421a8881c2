package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"edgealign/internal/domain"
)

const runsCollection = "optimize_runs"

// MongoRunStore keeps the run journal in a MongoDB collection.
type MongoRunStore struct {
	client *mongo.Client
	runs   *mongo.Collection
}

// OpenMongo connects to MongoDB and ensures the created_at index exists.
func OpenMongo(ctx context.Context, uri, dbName string) (*MongoRunStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	runs := client.Database(dbName).Collection(runsCollection)
	_, err = runs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &MongoRunStore{client: client, runs: runs}, nil
}

func (s *MongoRunStore) RecordRun(ctx context.Context, r *domain.OptimizeRun) error {
	prepareRun(r)
	if _, err := s.runs.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *MongoRunStore) ListRuns(ctx context.Context, limit int) ([]domain.OptimizeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	cursor, err := s.runs.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find runs: %w", err)
	}
	var runs []domain.OptimizeRun
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	for i := range runs {
		runs[i].CreatedAt = runs[i].CreatedAt.UTC()
	}
	return runs, nil
}

// PruneRuns deletes runs created before olderThan.
func (s *MongoRunStore) PruneRuns(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.runs.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": olderThan}})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoRunStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
