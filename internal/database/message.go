package repository

import (
	"WeChat/entity"
	"WeChat/internal/feed"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AddMessage appends a message. The timestamp is taken from this process at
// millisecond precision, matching what BSON dates can hold.
func (m *MongoDB) AddMessage(ctx context.Context, message *entity.Message) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(messagesCollection)

	doc := *message
	doc.ID = uuid.NewString()
	doc.Timestamp = time.Now().UTC().Truncate(time.Millisecond)

	_, err = collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("mongodb insert message: %w", err)
	}

	message.ID = doc.ID
	message.Timestamp = doc.Timestamp
	return nil
}

func (m *MongoDB) ListMessages(ctx context.Context, conversationID string) ([]entity.Message, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	return findMessages(ctx, connection.Database(m.database).Collection(messagesCollection), conversationID)
}

func (m *MongoDB) WatchMessages(ctx context.Context, conversationID string) *feed.Feed[entity.Message] {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "fullDocument.conversationId", Value: conversationID}}}},
	}
	return watchQuery(ctx, m, messagesCollection, pipeline, func(ctx context.Context, collection *mongo.Collection) ([]entity.Message, error) {
		return findMessages(ctx, collection, conversationID)
	})
}

func findMessages(ctx context.Context, collection *mongo.Collection, conversationID string) ([]entity.Message, error) {
	filter := bson.D{{Key: "conversationId", Value: conversationID}}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]entity.Message, 0)
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("mongodb decode messages: %w", err)
	}
	return messages, nil
}
