package repository

import (
	"WeChat/entity"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (m *MongoDB) GetConversation(ctx context.Context, id string) (*entity.Conversation, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)

	var conversation entity.Conversation
	err = collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&conversation)
	if err != nil {
		return nil, m.findError(err)
	}
	return &conversation, nil
}

// CreateConversation inserts the conversation. A concurrent first open by the
// other participant already created the same id, which is not an error.
func (m *MongoDB) CreateConversation(ctx context.Context, conversation *entity.Conversation) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)

	doc := *conversation
	doc.CreatedAt = time.Now().UTC()

	_, err = collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("mongodb insert conversation: %w", err)
	}
	return nil
}

func (m *MongoDB) UpdateConversationPreview(ctx context.Context, id, text string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "lastMessage", Value: text}}},
		{Key: "$currentDate", Value: bson.D{{Key: "lastMessageTime", Value: true}}},
	}

	result, err := collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return fmt.Errorf("mongodb update conversation preview: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("conversation %s not found", id)
	}
	return nil
}
