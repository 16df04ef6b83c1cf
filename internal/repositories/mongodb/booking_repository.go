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

// TransactionRunner is satisfied by *database.MongoDB.
type TransactionRunner interface {
	SupportsTransactions() bool
	WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) (interface{}, error)) (interface{}, error)
}

type bookingRepository struct {
	collection *mongo.Collection
	cars       *mongo.Collection
	tx         TransactionRunner
}

func NewBookingRepository(db *mongo.Database, tx TransactionRunner) interfaces.BookingRepository {
	return &bookingRepository{
		collection: db.Collection("bookings"),
		cars:       db.Collection("cars"),
		tx:         tx,
	}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	now := time.Now().UTC()
	booking.ID = primitive.NewObjectID()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		return translateError(err, "create booking")
	}
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		return nil, translateError(err, "get booking")
	}
	return &booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return translateError(err, "update booking")
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *bookingRepository) DeleteByCar(ctx context.Context, carID primitive.ObjectID) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"car_id": carID}); err != nil {
		return fmt.Errorf("failed to delete bookings of car: %w", err)
	}
	return nil
}

func (r *bookingRepository) FindActiveByCar(ctx context.Context, carID primitive.ObjectID, excludeID *primitive.ObjectID) ([]*models.Booking, error) {
	filter := bson.M{
		"car_id": carID,
		"status": bson.M{"$in": models.ActiveBookingStatuses},
	}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find active bookings: %w", err)
	}
	return decodeAll[models.Booking](ctx, cursor)
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID string, status *models.BookingStatus) ([]*models.Booking, error) {
	filter := bson.M{"user_id": userID}
	if status != nil {
		filter["status"] = *status
	}
	return r.listNewestFirst(ctx, filter)
}

func (r *bookingRepository) ListByCars(ctx context.Context, carIDs []primitive.ObjectID, status *models.BookingStatus) ([]*models.Booking, error) {
	if len(carIDs) == 0 {
		return []*models.Booking{}, nil
	}

	filter := bson.M{"car_id": bson.M{"$in": carIDs}}
	if status != nil {
		filter["status"] = *status
	}
	return r.listNewestFirst(ctx, filter)
}

func (r *bookingRepository) listNewestFirst(ctx context.Context, filter bson.M) ([]*models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return decodeAll[models.Booking](ctx, cursor)
}

// WithCarTransaction bumps the car's lock_version before running fn inside
// the same transaction. Two transactions on one car then write-conflict and
// the driver retries the later one against the committed state. Without
// transaction support fn runs directly and callers rely on in-process
// locking alone.
func (r *bookingRepository) WithCarTransaction(ctx context.Context, carID primitive.ObjectID, fn func(ctx context.Context) error) error {
	if r.tx == nil || !r.tx.SupportsTransactions() {
		return fn(ctx)
	}

	_, err := r.tx.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		result, err := r.cars.UpdateOne(sessCtx,
			bson.M{"_id": carID},
			bson.M{"$inc": bson.M{"lock_version": 1}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to lock car: %w", err)
		}
		if result.MatchedCount == 0 {
			return nil, interfaces.ErrNotFound
		}
		return nil, fn(sessCtx)
	})
	return err
}
