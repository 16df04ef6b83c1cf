package mongodb

import (
	"context"
	"fmt"
	"time"

	"carrental/internal/models"
	"carrental/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type messageRepository struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) interfaces.MessageRepository {
	return &messageRepository{
		collection: db.Collection("messages"),
	}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, message); err != nil {
		return translateError(err, "create message")
	}
	return nil
}

func (r *messageRepository) ListConversation(ctx context.Context, a, b string) ([]*models.Message, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender_email": a, "receiver_email": b},
			{"sender_email": b, "receiver_email": a},
		},
	}

	// ObjectIDs break timestamp ties in insertion order.
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return decodeAll[models.Message](ctx, cursor)
}
