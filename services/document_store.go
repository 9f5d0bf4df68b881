package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Nivk0/ktpilot-rag-bot/internal/telemetry"
	"github.com/Nivk0/ktpilot-rag-bot/models"
)

// MongoDocumentStore implements DocumentStore over the documents
// collection. Chunks are embedded in the document record so a document and
// its retrieval index round-trip together.
type MongoDocumentStore struct {
	collection *mongo.Collection
	metrics    *telemetry.Metrics
}

func NewMongoDocumentStore(db *mongo.Database, metrics *telemetry.Metrics) *MongoDocumentStore {
	return &MongoDocumentStore{collection: db.Collection("documents"), metrics: metrics}
}

func (s *MongoDocumentStore) record(op string, err error) {
	if s.metrics != nil {
		s.metrics.RecordDatabaseOperation(op, "documents", err == nil)
	}
}

func (s *MongoDocumentStore) ListDocuments(ctx context.Context) ([]models.Document, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"status": models.DocStatusCompleted},
		options.Find().SetSort(bson.M{"uploaded_at": -1}))
	s.record("find", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer cursor.Close(ctx)

	docs := make([]models.Document, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return docs, nil
}

func (s *MongoDocumentStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.collection.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		s.record("find_one", nil)
		return nil, nil
	}
	s.record("find_one", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return &doc, nil
}

func (s *MongoDocumentStore) SaveDocument(ctx context.Context, doc *models.Document) error {
	_, err := s.collection.ReplaceOne(ctx, bson.M{"id": doc.ID}, doc,
		options.Replace().SetUpsert(true))
	s.record("replace_one", err)
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc.ID, err)
	}
	return nil
}

// DeleteDocument removes the document and, because chunks are embedded,
// cascades to its chunk set.
func (s *MongoDocumentStore) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"id": id})
	s.record("delete_one", err)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ReplaceChunks persists a backfilled chunk set. SetOnInsert semantics are
// not needed: replacing an equal chunk set is harmless.
func (s *MongoDocumentStore) ReplaceChunks(ctx context.Context, docID string, chunks []models.Chunk) error {
	_, err := s.collection.UpdateOne(ctx, bson.M{"id": docID},
		bson.M{"$set": bson.M{"chunks": chunks}})
	s.record("update_one", err)
	if err != nil {
		return fmt.Errorf("failed to replace chunks for %s: %w", docID, err)
	}
	return nil
}
