package services

import (
	"context"
	"strings"

	"carrental/internal/models"
	"carrental/internal/repositories/interfaces"
	"carrental/internal/utils"
	"carrental/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CarService interface {
	CreateCar(ctx context.Context, owner string, request *CreateCarRequest, image *ImageUpload) (*models.Car, error)
	GetCar(ctx context.Context, carID string) (*models.Car, error)
	ListCars(ctx context.Context, params *utils.PaginationParams) ([]*models.Car, int64, error)
	SearchCars(ctx context.Context, request *SearchCarsRequest) ([]*models.Car, error)
	ListOwnerCars(ctx context.Context, owner string) ([]*models.Car, error)
	UpdateCar(ctx context.Context, owner string, carID string, request *UpdateCarRequest, image *ImageUpload) (*models.Car, error)
	UploadCarImage(ctx context.Context, owner string, carID string, image *ImageUpload) (*models.Car, error)

	// DeleteCar also removes the car's bookings, favorites and image.
	DeleteCar(ctx context.Context, owner string, carID string) error
}

// Car requests arrive as multipart forms.
type CreateCarRequest struct {
	Name        string `form:"name" validate:"required,max=100"`
	PricePerDay string `form:"price_per_day" validate:"required"`
	Location    string `form:"location" validate:"required,max=100"`
	CarType     string `form:"car_type" validate:"required,max=50"`
	Description string `form:"description" validate:"max=2000"`
}

type UpdateCarRequest struct {
	Name        *string `form:"name" validate:"omitempty,min=1,max=100"`
	PricePerDay *string `form:"price_per_day"`
	Location    *string `form:"location" validate:"omitempty,min=1,max=100"`
	CarType     *string `form:"car_type" validate:"omitempty,min=1,max=50"`
	Description *string `form:"description" validate:"omitempty,max=2000"`
}

type SearchCarsRequest struct {
	Location string `form:"location"`
	CarType  string `form:"car_type"`
	MaxPrice string `form:"max_price"`
}

type carService struct {
	carRepo      interfaces.CarRepository
	bookingRepo  interfaces.BookingRepository
	favoriteRepo interfaces.FavoriteRepository
	images       ImageService
	locker       *CarLocker
	logger       *logger.Logger
}

func NewCarService(
	carRepo interfaces.CarRepository,
	bookingRepo interfaces.BookingRepository,
	favoriteRepo interfaces.FavoriteRepository,
	images ImageService,
	locker *CarLocker,
	logger *logger.Logger,
) CarService {
	return &carService{
		carRepo:      carRepo,
		bookingRepo:  bookingRepo,
		favoriteRepo: favoriteRepo,
		images:       images,
		locker:       locker,
		logger:       logger,
	}
}

func (s *carService) CreateCar(ctx context.Context, owner string, request *CreateCarRequest, image *ImageUpload) (*models.Car, error) {
	if err := validateRequest(request); err != nil {
		return nil, err
	}
	price, err := parsePrice(request.PricePerDay)
	if err != nil {
		return nil, err
	}

	car := &models.Car{
		OwnerEmail:  owner,
		Name:        strings.TrimSpace(request.Name),
		PricePerDay: price,
		Location:    strings.TrimSpace(request.Location),
		CarType:     strings.TrimSpace(request.CarType),
		Description: request.Description,
	}

	if image != nil {
		stored, err := s.images.Store(ctx, "cars", image)
		if err != nil {
			return nil, err
		}
		car.ImageURL = stored.URL
		car.ImageKey = stored.Key
	}

	if err := s.carRepo.Create(ctx, car); err != nil {
		if car.ImageKey != "" {
			s.images.Delete(ctx, car.ImageKey)
		}
		return nil, err
	}

	s.logger.WithCarID(car.ID).WithUserID(owner).Info("Car listed")
	return car, nil
}

func (s *carService) GetCar(ctx context.Context, carID string) (*models.Car, error) {
	id, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		return nil, notFound("Car not found")
	}
	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "Car not found")
	}
	return car, nil
}

func (s *carService) ListCars(ctx context.Context, params *utils.PaginationParams) ([]*models.Car, int64, error) {
	return s.carRepo.List(ctx, params)
}

func (s *carService) SearchCars(ctx context.Context, request *SearchCarsRequest) ([]*models.Car, error) {
	filter := &models.CarSearchFilter{
		Location: strings.TrimSpace(request.Location),
		CarType:  strings.TrimSpace(request.CarType),
	}
	if strings.TrimSpace(request.MaxPrice) != "" {
		maxPrice, err := models.NewMoneyFromString(strings.TrimSpace(request.MaxPrice))
		if err != nil {
			return nil, invalidInput("max_price must be a number")
		}
		filter.MaxPrice = &maxPrice
	}
	return s.carRepo.Search(ctx, filter)
}

func (s *carService) ListOwnerCars(ctx context.Context, owner string) ([]*models.Car, error) {
	return s.carRepo.ListByOwner(ctx, owner)
}

func (s *carService) UpdateCar(ctx context.Context, owner string, carID string, request *UpdateCarRequest, image *ImageUpload) (*models.Car, error) {
	if err := validateRequest(request); err != nil {
		return nil, err
	}

	car, err := s.ownedCar(ctx, owner, carID, "update")
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if request.Name != nil {
		updates["name"] = strings.TrimSpace(*request.Name)
	}
	if request.PricePerDay != nil {
		price, err := parsePrice(*request.PricePerDay)
		if err != nil {
			return nil, err
		}
		updates["price_per_day"] = price
	}
	if request.Location != nil {
		updates["location"] = strings.TrimSpace(*request.Location)
	}
	if request.CarType != nil {
		updates["car_type"] = strings.TrimSpace(*request.CarType)
	}
	if request.Description != nil {
		updates["description"] = *request.Description
	}

	oldImageKey := ""
	if image != nil {
		stored, err := s.images.Store(ctx, "cars", image)
		if err != nil {
			return nil, err
		}
		updates["image_url"] = stored.URL
		updates["image_key"] = stored.Key
		oldImageKey = car.ImageKey
	}

	if len(updates) == 0 {
		return car, nil
	}

	if err := s.carRepo.Update(ctx, car.ID, updates); err != nil {
		if key, ok := updates["image_key"].(string); ok {
			s.images.Delete(ctx, key)
		}
		return nil, translateRepoError(err, "Car not found")
	}
	s.images.Delete(ctx, oldImageKey)

	s.logger.WithCarID(car.ID).WithUserID(owner).Info("Car updated")
	return s.carRepo.GetByID(ctx, car.ID)
}

func (s *carService) UploadCarImage(ctx context.Context, owner string, carID string, image *ImageUpload) (*models.Car, error) {
	if image == nil {
		return nil, invalidInput("file is required")
	}
	return s.UpdateCar(ctx, owner, carID, &UpdateCarRequest{}, image)
}

func (s *carService) DeleteCar(ctx context.Context, owner string, carID string) error {
	car, err := s.ownedCar(ctx, owner, carID, "delete")
	if err != nil {
		return err
	}

	// Hold the booking lock so no booking lands on a car being removed.
	release := s.locker.Lock(car.ID)
	defer release()

	// Same car transaction as booking writes.
	err = s.bookingRepo.WithCarTransaction(ctx, car.ID, func(txCtx context.Context) error {
		if err := s.bookingRepo.DeleteByCar(txCtx, car.ID); err != nil {
			return err
		}
		if err := s.favoriteRepo.DeleteByCar(txCtx, car.ID); err != nil {
			return err
		}
		return s.carRepo.Delete(txCtx, car.ID)
	})
	if err != nil {
		return translateRepoError(err, "Car not found")
	}
	s.images.Delete(ctx, car.ImageKey)

	s.logger.WithCarID(car.ID).WithUserID(owner).Info("Car deleted")
	return nil
}

func (s *carService) ownedCar(ctx context.Context, owner, carID, action string) (*models.Car, error) {
	car, err := s.GetCar(ctx, carID)
	if err != nil {
		return nil, err
	}
	if !car.IsOwnedBy(owner) {
		return nil, forbidden("Not authorized to %s this car", action)
	}
	return car, nil
}

func parsePrice(raw string) (models.Money, error) {
	price, err := models.NewMoneyFromString(strings.TrimSpace(raw))
	if err != nil {
		return models.Money{}, invalidInput("price_per_day must be a number")
	}
	if !price.IsPositive() {
		return models.Money{}, invalidInput("price_per_day must be greater than zero")
	}
	return price, nil
}
