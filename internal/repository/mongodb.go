package repository

import (
	"context"
	"time"

	"github.com/m2tx/chat_orchestrator/internal/model"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultCollection = "transcripts"

type transcriptDocument struct {
	ID        string       `bson:"_id"`
	Turns     []model.Turn `bson:"turns"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

// MongoTranscriptRepository stores one document per conversation.
// Attachment contents are not archived, only their metadata.
type MongoTranscriptRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoTranscriptRepository uses DefaultCollection when collectionName is empty.
func NewMongoTranscriptRepository(db *mongo.Database, collectionName string) *MongoTranscriptRepository {
	if collectionName == "" {
		collectionName = DefaultCollection
	}
	return &MongoTranscriptRepository{
		collection: db.Collection(collectionName),
		now:        time.Now,
	}
}

func (r *MongoTranscriptRepository) Save(ctx context.Context, conversationID string, turns []model.Turn) error {
	doc := transcriptDocument{
		ID:        conversationID,
		Turns:     turns,
		UpdatedAt: r.now().UTC(),
	}

	filter := bson.M{"_id": conversationID}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return errors.Wrapf(err, "repository: upsert transcript %q", conversationID)
	}

	return nil
}

func (r *MongoTranscriptRepository) Load(ctx context.Context, conversationID string) ([]model.Turn, error) {
	var doc transcriptDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": conversationID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "repository: find transcript %q", conversationID)
	}

	return doc.Turns, nil
}

func (r *MongoTranscriptRepository) Delete(ctx context.Context, conversationID string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": conversationID}); err != nil {
		return errors.Wrapf(err, "repository: delete transcript %q", conversationID)
	}

	return nil
}
