package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	// Create indexes
	err = createIndexes(client, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	// Users collection indexes
	usersCollection := db.Collection("users")
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
		},
	}
	_, err := usersCollection.Indexes().CreateMany(context.Background(), userIndexes)
	if err != nil {
		return err
	}

	// Documents collection indexes
	documentsCollection := db.Collection("documents")
	documentIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "uploaded_at", Value: -1}},
		},
	}
	_, err = documentsCollection.Indexes().CreateMany(context.Background(), documentIndexes)
	if err != nil {
		return err
	}

	// Messages collection indexes
	messagesCollection := db.Collection("messages")
	messageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "conversation_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "from_user_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
	}
	_, err = messagesCollection.Indexes().CreateMany(context.Background(), messageIndexes)
	if err != nil {
		return err
	}

	// Contacts collection indexes
	contactsCollection := db.Collection("contacts")
	contactIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}},
		},
	}
	_, err = contactsCollection.Indexes().CreateMany(context.Background(), contactIndexes)
	if err != nil {
		return err
	}

	// Reset codes expire with the document TTL
	resetCodesCollection := db.Collection("reset_codes")
	resetIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	_, err = resetCodesCollection.Indexes().CreateMany(context.Background(), resetIndexes)
	if err != nil {
		return err
	}

	return nil
}
