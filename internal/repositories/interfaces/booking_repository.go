package interfaces

import (
	"context"

	"carrental/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	DeleteByCar(ctx context.Context, carID primitive.ObjectID) error

	// FindActiveByCar returns the pending and confirmed bookings of a car,
	// leaving out excludeID when it is set.
	FindActiveByCar(ctx context.Context, carID primitive.ObjectID, excludeID *primitive.ObjectID) ([]*models.Booking, error)

	// ListByUser and ListByCars return newest first; a nil status means all.
	ListByUser(ctx context.Context, userID string, status *models.BookingStatus) ([]*models.Booking, error)
	ListByCars(ctx context.Context, carIDs []primitive.ObjectID, status *models.BookingStatus) ([]*models.Booking, error)

	// WithCarTransaction runs fn so that no other WithCarTransaction call for
	// the same car commits in between. fn must use the context it is given.
	WithCarTransaction(ctx context.Context, carID primitive.ObjectID, fn func(ctx context.Context) error) error
}
