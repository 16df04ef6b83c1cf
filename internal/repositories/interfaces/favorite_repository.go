package interfaces

import (
	"context"

	"carrental/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FavoriteRepository interface {
	// Create returns ErrDuplicate when the car is already a favorite.
	Create(ctx context.Context, favorite *models.Favorite) error
	ListByUser(ctx context.Context, userEmail string) ([]*models.Favorite, error)
	Delete(ctx context.Context, userEmail string, carID primitive.ObjectID) error
	DeleteByCar(ctx context.Context, carID primitive.ObjectID) error
}
