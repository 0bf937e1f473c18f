package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

// Connect opens a client for uri and pings it. The returned client is the
// only one the process uses; there is no reconnect.
func Connect(ctx context.Context, uri string, timeout time.Duration, log *zap.Logger) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("MONGO_URI is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetTimeout(timeout))
	if err != nil {
		log.Error("Mongo connect error", zap.Error(err))
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Error("Mongo ping error", zap.Error(err))
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info("MongoDB connected successfully")
	return client, nil
}
