package services

import (
	"context"
	"testing"

	"carrental/internal/models"
	"carrental/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFavoriteFixture(t *testing.T) (FavoriteService, *fakeCarRepo, *models.Car, *models.Car) {
	t.Helper()
	cars := newFakeCarRepo()
	first := &models.Car{Name: "Civic", OwnerEmail: "owner@example.com", PricePerDay: mustMoney(t, "40")}
	second := &models.Car{Name: "Golf", OwnerEmail: "owner@example.com", PricePerDay: mustMoney(t, "30")}
	require.NoError(t, cars.Create(context.Background(), first))
	require.NoError(t, cars.Create(context.Background(), second))
	return NewFavoriteService(&fakeFavoriteRepo{}, cars, logger.NewNop()), cars, first, second
}

func TestAddFavorite(t *testing.T) {
	svc, _, car, _ := newFavoriteFixture(t)
	ctx := context.Background()

	favorite, err := svc.AddFavorite(ctx, "jane@example.com", &AddFavoriteRequest{CarID: car.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, car.ID, favorite.CarID)

	_, err = svc.AddFavorite(ctx, "jane@example.com", &AddFavoriteRequest{CarID: car.ID.Hex()})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.AddFavorite(ctx, "jane@example.com", &AddFavoriteRequest{CarID: "650000000000000000000000"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddFavorite(ctx, "jane@example.com", &AddFavoriteRequest{CarID: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListFavorites_SkipsDeletedCars(t *testing.T) {
	svc, cars, first, second := newFavoriteFixture(t)
	ctx := context.Background()

	_, err := svc.AddFavorite(ctx, "jane@example.com", &AddFavoriteRequest{CarID: first.ID.Hex()})
	require.NoError(t, err)
	_, err = svc.AddFavorite(ctx, "jane@example.com", &AddFavoriteRequest{CarID: second.ID.Hex()})
	require.NoError(t, err)

	favorites, err := svc.ListFavorites(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Len(t, favorites, 2)

	require.NoError(t, cars.Delete(ctx, first.ID))

	favorites, err = svc.ListFavorites(ctx, "jane@example.com")
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, second.ID, favorites[0].ID)

	empty, err := svc.ListFavorites(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRemoveFavorite(t *testing.T) {
	svc, _, car, _ := newFavoriteFixture(t)
	ctx := context.Background()

	_, err := svc.AddFavorite(ctx, "jane@example.com", &AddFavoriteRequest{CarID: car.ID.Hex()})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveFavorite(ctx, "jane@example.com", car.ID.Hex()))
	assert.ErrorIs(t, svc.RemoveFavorite(ctx, "jane@example.com", car.ID.Hex()), ErrNotFound)
	assert.ErrorIs(t, svc.RemoveFavorite(ctx, "jane@example.com", "bogus"), ErrNotFound)
}
