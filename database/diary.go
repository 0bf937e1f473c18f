package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"selfiebox/models"
)

const diaryCollection = "diary"

// created_at only keeps milliseconds; _id breaks ties in insertion order.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

type DiaryStore interface {
	Insert(ctx context.Context, entry *models.DiaryEntry) error
	FindAllNewestFirst(ctx context.Context) ([]models.DiaryEntry, error)
}

// MongoDiaryStore keeps diary entries in one collection. A store built from a
// nil client is unavailable and fails every call with ErrBackendUnavailable.
type MongoDiaryStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    *zap.Logger
}

func NewDiaryStore(client *mongo.Client, dbName string, log *zap.Logger) *MongoDiaryStore {
	s := &MongoDiaryStore{client: client, log: log}
	if client != nil {
		s.coll = client.Database(dbName).Collection(diaryCollection)
	}
	return s
}

func (s *MongoDiaryStore) Insert(ctx context.Context, entry *models.DiaryEntry) error {
	if s.coll == nil {
		return models.ErrBackendUnavailable
	}
	res, err := s.coll.InsertOne(ctx, entry)
	if err != nil {
		s.log.Error("Mongo insert error", zap.Error(err))
		return fmt.Errorf("%w: insert diary entry: %v", models.ErrBackendOperation, err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		entry.ID = id
	}
	return nil
}

func (s *MongoDiaryStore) FindAllNewestFirst(ctx context.Context) ([]models.DiaryEntry, error) {
	if s.coll == nil {
		return nil, models.ErrBackendUnavailable
	}

	opts := options.Find().SetSort(newestFirst)
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		s.log.Error("Mongo find error", zap.Error(err))
		return nil, fmt.Errorf("%w: find diary entries: %v", models.ErrBackendOperation, err)
	}
	defer cursor.Close(ctx)

	entries := []models.DiaryEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		s.log.Error("Mongo cursor error", zap.Error(err))
		return nil, fmt.Errorf("%w: decode diary entries: %v", models.ErrBackendOperation, err)
	}
	return entries, nil
}

// EnsureIndexes creates the created_at index the listing sorts on.
func (s *MongoDiaryStore) EnsureIndexes(ctx context.Context) error {
	if s.coll == nil {
		return models.ErrBackendUnavailable
	}
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	return err
}

// Close disconnects the underlying client, if any.
func (s *MongoDiaryStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
