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

type favoriteRepository struct {
	collection *mongo.Collection
}

func NewFavoriteRepository(db *mongo.Database) interfaces.FavoriteRepository {
	return &favoriteRepository{
		collection: db.Collection("favorites"),
	}
}

func (r *favoriteRepository) Create(ctx context.Context, favorite *models.Favorite) error {
	favorite.ID = primitive.NewObjectID()
	favorite.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, favorite); err != nil {
		return translateError(err, "create favorite")
	}
	return nil
}

func (r *favoriteRepository) ListByUser(ctx context.Context, userEmail string) ([]*models.Favorite, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_email": userEmail}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return decodeAll[models.Favorite](ctx, cursor)
}

func (r *favoriteRepository) Delete(ctx context.Context, userEmail string, carID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"user_email": userEmail, "car_id": carID})
	if err != nil {
		return translateError(err, "delete favorite")
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *favoriteRepository) DeleteByCar(ctx context.Context, carID primitive.ObjectID) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"car_id": carID}); err != nil {
		return fmt.Errorf("failed to delete favorites of car: %w", err)
	}
	return nil
}
