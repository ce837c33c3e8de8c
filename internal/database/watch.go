package repository

import (
	"WeChat/internal/feed"
	"WeChat/internal/lib/sl"
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
)

// watchQuery keeps a change stream open on the collection and re-runs query
// after every batch of changes. The stream is opened before the first query
// so no change between the two is lost. Change streams need a replica set.
func watchQuery[T any](
	ctx context.Context,
	m *MongoDB,
	collectionName string,
	pipeline mongo.Pipeline,
	query func(context.Context, *mongo.Collection) ([]T, error),
) *feed.Feed[T] {
	return feed.Start(ctx, func(ctx context.Context, emit feed.Emit[T]) {
		connection, err := m.connect()
		if err != nil {
			emit(feed.Snapshot[T]{Err: err})
			return
		}
		defer m.disconnect(connection)

		collection := connection.Database(m.database).Collection(collectionName)

		stream, err := collection.Watch(ctx, pipeline)
		if err != nil {
			emit(feed.Snapshot[T]{Err: fmt.Errorf("mongodb watch %s: %w", collectionName, err)})
			return
		}
		defer stream.Close(context.Background())

		for {
			items, err := query(ctx, collection)
			if !emit(feed.Snapshot[T]{Items: items, Err: err}) || err != nil {
				return
			}

			if !stream.Next(ctx) {
				if ctx.Err() == nil {
					m.log.Error("change stream closed", slog.String("collection", collectionName), sl.Err(stream.Err()))
					emit(feed.Snapshot[T]{Err: fmt.Errorf("mongodb change stream %s: %w", collectionName, stream.Err())})
				}
				return
			}
			// coalesce a burst of changes into one re-query
			for stream.TryNext(ctx) {
			}
		}
	})
}
