package repository

import (
	"WeChat/entity"
	"WeChat/internal/feed"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoDB) GetProfile(ctx context.Context, uid string) (*entity.Profile, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)
	filter := bson.D{{Key: "_id", Value: uid}}

	var profile entity.Profile
	err = collection.FindOne(ctx, filter).Decode(&profile)
	if err != nil {
		return nil, m.findError(err)
	}

	return &profile, nil
}

// CreateProfile upserts the profile; lastSeen and createdAt take the server clock.
func (m *MongoDB) CreateProfile(ctx context.Context, profile *entity.Profile) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)
	filter := bson.D{{Key: "_id", Value: profile.UID}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "name", Value: profile.Name},
			{Key: "email", Value: profile.Email},
			{Key: "displayName", Value: profile.DisplayName},
			{Key: "avatar", Value: profile.Avatar},
			{Key: "status", Value: profile.Status},
			{Key: "online", Value: profile.Online},
		}},
		{Key: "$currentDate", Value: bson.D{
			{Key: "lastSeen", Value: true},
			{Key: "createdAt", Value: true},
		}},
	}

	_, err = collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodb upsert profile: %w", err)
	}
	return nil
}

func (m *MongoDB) SetPresence(ctx context.Context, uid string, online bool) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(usersCollection)
	filter := bson.D{{Key: "_id", Value: uid}}
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "online", Value: online}}},
		{Key: "$currentDate", Value: bson.D{{Key: "lastSeen", Value: true}}},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mongodb update presence: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("profile %s not found", uid)
	}
	return nil
}

func (m *MongoDB) ListProfiles(ctx context.Context) ([]entity.Profile, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	return findProfiles(ctx, connection.Database(m.database).Collection(usersCollection))
}

func (m *MongoDB) WatchProfiles(ctx context.Context) *feed.Feed[entity.Profile] {
	return watchQuery(ctx, m, usersCollection, mongo.Pipeline{}, findProfiles)
}

func findProfiles(ctx context.Context, collection *mongo.Collection) ([]entity.Profile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find profiles: %w", err)
	}
	defer cursor.Close(ctx)

	profiles := make([]entity.Profile, 0)
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("mongodb decode profiles: %w", err)
	}
	return profiles, nil
}
