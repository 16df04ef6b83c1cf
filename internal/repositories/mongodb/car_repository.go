package mongodb

import (
	"context"
	"fmt"
	"time"

	"carrental/internal/models"
	"carrental/internal/repositories/interfaces"
	"carrental/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type carRepository struct {
	collection *mongo.Collection
	cache      Cache
	cacheTTL   time.Duration
}

// cachedCar keeps the fields the API hides out of JSON.
type cachedCar struct {
	*models.Car
	ImageKey string `json:"image_key,omitempty"`
}

// NewCarRepository caches cars for cacheTTL, or defaultCacheTTL when it is
// not positive. A nil cache disables caching.
func NewCarRepository(db *mongo.Database, cache Cache, cacheTTL time.Duration) interfaces.CarRepository {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &carRepository{
		collection: db.Collection("cars"),
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

func (r *carRepository) Create(ctx context.Context, car *models.Car) error {
	now := time.Now().UTC()
	car.ID = primitive.NewObjectID()
	car.CreatedAt = now
	car.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, car); err != nil {
		return translateError(err, "create car")
	}
	return nil
}

func (r *carRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Car, error) {
	if car := r.getCarFromCache(ctx, id); car != nil {
		return car, nil
	}

	var car models.Car
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&car); err != nil {
		return nil, translateError(err, "get car")
	}

	r.cacheCar(ctx, &car)
	return &car, nil
}

func (r *carRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return translateError(err, "update car")
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	r.invalidateCarCache(ctx, id)
	return nil
}

func (r *carRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateError(err, "delete car")
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}

	r.invalidateCarCache(ctx, id)
	return nil
}

func (r *carRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Car, int64, error) {
	filter := params.GetSearchFilter([]string{"name", "location", "car_type"})

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count cars: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cars: %w", err)
	}
	cars, err := decodeAll[models.Car](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return cars, total, nil
}

func (r *carRepository) Search(ctx context.Context, filter *models.CarSearchFilter) ([]*models.Car, error) {
	query := bson.M{}
	if filter.Location != "" {
		query["location"] = containsRegex(filter.Location)
	}
	if filter.CarType != "" {
		query["car_type"] = containsRegex(filter.CarType)
	}
	if filter.MaxPrice != nil {
		query["price_per_day"] = bson.M{"$lte": *filter.MaxPrice}
	}

	opts := options.Find().SetSort(bson.D{{Key: "price_per_day", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search cars: %w", err)
	}
	return decodeAll[models.Car](ctx, cursor)
}

func (r *carRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]*models.Car, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"owner_email": ownerEmail}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars by owner: %w", err)
	}
	return decodeAll[models.Car](ctx, cursor)
}

func (r *carRepository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Car, error) {
	if len(ids) == 0 {
		return []*models.Car{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to list cars by id: %w", err)
	}
	return decodeAll[models.Car](ctx, cursor)
}

// Cache helpers
func carCacheKey(id primitive.ObjectID) string {
	return fmt.Sprintf("car:%s", id.Hex())
}

func (r *carRepository) cacheCar(ctx context.Context, car *models.Car) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Set(ctx, carCacheKey(car.ID), cachedCar{Car: car, ImageKey: car.ImageKey}, r.cacheTTL)
}

func (r *carRepository) getCarFromCache(ctx context.Context, id primitive.ObjectID) *models.Car {
	if r.cache == nil {
		return nil
	}
	entry := cachedCar{Car: &models.Car{}}
	if err := r.cache.Get(ctx, carCacheKey(id), &entry); err != nil {
		return nil
	}
	entry.Car.ImageKey = entry.ImageKey
	return entry.Car
}

func (r *carRepository) invalidateCarCache(ctx context.Context, id primitive.ObjectID) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Delete(ctx, carCacheKey(id))
}
