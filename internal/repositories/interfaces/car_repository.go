package interfaces

import (
	"context"

	"carrental/internal/models"
	"carrental/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CarRepository interface {
	Create(ctx context.Context, car *models.Car) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Car, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Car, int64, error)
	Search(ctx context.Context, filter *models.CarSearchFilter) ([]*models.Car, error)
	ListByOwner(ctx context.Context, ownerEmail string) ([]*models.Car, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Car, error)
}
