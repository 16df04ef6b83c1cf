package services

import (
	"context"
	"errors"

	"carrental/internal/models"
	"carrental/internal/repositories/interfaces"
	"carrental/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FavoriteService interface {
	ListFavorites(ctx context.Context, identity string) ([]*models.Car, error)
	AddFavorite(ctx context.Context, identity string, request *AddFavoriteRequest) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, identity string, carID string) error
}

type AddFavoriteRequest struct {
	CarID string `json:"car_id" validate:"required,object_id"`
}

type favoriteService struct {
	favoriteRepo interfaces.FavoriteRepository
	carRepo      interfaces.CarRepository
	logger       *logger.Logger
}

func NewFavoriteService(favoriteRepo interfaces.FavoriteRepository, carRepo interfaces.CarRepository, logger *logger.Logger) FavoriteService {
	return &favoriteService{
		favoriteRepo: favoriteRepo,
		carRepo:      carRepo,
		logger:       logger,
	}
}

// ListFavorites returns the favorite cars, most recently added first. Cars
// deleted since are left out.
func (s *favoriteService) ListFavorites(ctx context.Context, identity string) ([]*models.Car, error) {
	favorites, err := s.favoriteRepo.ListByUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	if len(favorites) == 0 {
		return []*models.Car{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(favorites))
	for _, favorite := range favorites {
		ids = append(ids, favorite.CarID)
	}

	cars, err := s.carRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]*models.Car, len(cars))
	for _, car := range cars {
		byID[car.ID] = car
	}

	ordered := make([]*models.Car, 0, len(cars))
	for _, id := range ids {
		if car, ok := byID[id]; ok {
			ordered = append(ordered, car)
		}
	}
	return ordered, nil
}

func (s *favoriteService) AddFavorite(ctx context.Context, identity string, request *AddFavoriteRequest) (*models.Favorite, error) {
	if err := validateRequest(request); err != nil {
		return nil, err
	}

	carID, _ := primitive.ObjectIDFromHex(request.CarID)
	if _, err := s.carRepo.GetByID(ctx, carID); err != nil {
		return nil, translateRepoError(err, "Car not found")
	}

	favorite := &models.Favorite{
		UserEmail: identity,
		CarID:     carID,
	}
	if err := s.favoriteRepo.Create(ctx, favorite); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, conflict("Car already in favorites")
		}
		return nil, err
	}

	s.logger.LogUserAction(identity, "add_favorite", map[string]interface{}{"car_id": request.CarID})
	return favorite, nil
}

func (s *favoriteService) RemoveFavorite(ctx context.Context, identity string, carID string) error {
	id, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		return notFound("Favorite not found")
	}

	if err := s.favoriteRepo.Delete(ctx, identity, id); err != nil {
		return translateRepoError(err, "Favorite not found")
	}

	s.logger.LogUserAction(identity, "remove_favorite", map[string]interface{}{"car_id": carID})
	return nil
}
