package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"carrental/internal/models"
	"carrental/internal/repositories/interfaces"
	"carrental/internal/utils"
	"carrental/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeImageService struct {
	mu      sync.Mutex
	stored  []string
	deleted []string
	fail    error
}

func (f *fakeImageService) Store(_ context.Context, folder string, upload *ImageUpload) (*StoredImage, error) {
	if upload == nil {
		return nil, invalidInput("file is required")
	}
	if f.fail != nil {
		return nil, f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s/%d_%s", folder, len(f.stored), upload.Filename)
	f.stored = append(f.stored, key)
	return &StoredImage{Key: key, URL: "/uploads/" + key}, nil
}

func (f *fakeImageService) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
}

func (f *fakeImageService) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func testUpload(name string) *ImageUpload {
	return &ImageUpload{Filename: name, Reader: strings.NewReader("img"), Size: 3}
}

type carFixture struct {
	svc       CarService
	cars      *fakeCarRepo
	bookings  *fakeBookingRepo
	favorites *fakeFavoriteRepo
	images    *fakeImageService
}

func newCarFixture() *carFixture {
	f := &carFixture{
		cars:      newFakeCarRepo(),
		bookings:  newFakeBookingRepo(),
		favorites: &fakeFavoriteRepo{},
		images:    &fakeImageService{},
	}
	f.svc = NewCarService(f.cars, f.bookings, f.favorites, f.images, NewCarLocker(), logger.NewNop())
	return f
}

func (f *carFixture) create(t *testing.T, owner, name, location, carType, price string) *models.Car {
	t.Helper()
	car, err := f.svc.CreateCar(context.Background(), owner, &CreateCarRequest{
		Name:        name,
		PricePerDay: price,
		Location:    location,
		CarType:     carType,
	}, nil)
	require.NoError(t, err)
	return car
}

func TestCreateCar(t *testing.T) {
	f := newCarFixture()

	car, err := f.svc.CreateCar(context.Background(), "owner@example.com", &CreateCarRequest{
		Name:        " Civic ",
		PricePerDay: "45.50",
		Location:    "Lisbon",
		CarType:     "sedan",
	}, testUpload("civic.jpg"))
	require.NoError(t, err)

	assert.Equal(t, "Civic", car.Name)
	assert.Equal(t, "owner@example.com", car.OwnerEmail)
	assert.Equal(t, "45.50", car.PricePerDay.String())
	assert.Equal(t, "/uploads/cars/0_civic.jpg", car.ImageURL)
	assert.Equal(t, "cars/0_civic.jpg", car.ImageKey)
}

func TestCreateCar_RejectsBadPrice(t *testing.T) {
	f := newCarFixture()

	for _, price := range []string{"abc", "0", "-5"} {
		_, err := f.svc.CreateCar(context.Background(), "owner@example.com", &CreateCarRequest{
			Name:        "Civic",
			PricePerDay: price,
			Location:    "Lisbon",
			CarType:     "sedan",
		}, nil)
		assert.ErrorIs(t, err, ErrInvalidInput, price)
	}
}

func TestGetCar_NotFound(t *testing.T) {
	f := newCarFixture()

	_, err := f.svc.GetCar(context.Background(), "not-hex")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.GetCar(context.Background(), "650000000000000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchCars(t *testing.T) {
	f := newCarFixture()
	f.create(t, "a@example.com", "Civic", "Lisbon", "sedan", "40")
	f.create(t, "a@example.com", "Tesla", "Lisbon", "electric", "120")
	f.create(t, "b@example.com", "Golf", "Porto", "hatchback", "35")

	cars, err := f.svc.SearchCars(context.Background(), &SearchCarsRequest{Location: "lisbon"})
	require.NoError(t, err)
	assert.Len(t, cars, 2)

	cars, err = f.svc.SearchCars(context.Background(), &SearchCarsRequest{MaxPrice: "50"})
	require.NoError(t, err)
	assert.Len(t, cars, 2)

	_, err = f.svc.SearchCars(context.Background(), &SearchCarsRequest{MaxPrice: "cheap"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListCars_Paginates(t *testing.T) {
	f := newCarFixture()
	for i := 0; i < 5; i++ {
		f.create(t, "a@example.com", fmt.Sprintf("Car %d", i), "Lisbon", "sedan", "40")
	}

	cars, total, err := f.svc.ListCars(context.Background(), &utils.PaginationParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, cars, 2)
}

func TestUpdateCar(t *testing.T) {
	f := newCarFixture()
	car := f.create(t, "owner@example.com", "Civic", "Lisbon", "sedan", "40")

	name := "Civic Hybrid"
	price := "55"
	updated, err := f.svc.UpdateCar(context.Background(), "owner@example.com", car.ID.Hex(), &UpdateCarRequest{
		Name:        &name,
		PricePerDay: &price,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Civic Hybrid", updated.Name)
	assert.Equal(t, "55.00", updated.PricePerDay.String())
	assert.Equal(t, "Lisbon", updated.Location)
}

func TestUpdateCar_OnlyOwner(t *testing.T) {
	f := newCarFixture()
	car := f.create(t, "owner@example.com", "Civic", "Lisbon", "sedan", "40")

	name := "Stolen"
	_, err := f.svc.UpdateCar(context.Background(), "thief@example.com", car.ID.Hex(), &UpdateCarRequest{Name: &name}, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	err = f.svc.DeleteCar(context.Background(), "thief@example.com", car.ID.Hex())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUploadCarImage_ReplacesOldImage(t *testing.T) {
	f := newCarFixture()
	ctx := context.Background()

	car, err := f.svc.CreateCar(ctx, "owner@example.com", &CreateCarRequest{
		Name:        "Civic",
		PricePerDay: "40",
		Location:    "Lisbon",
		CarType:     "sedan",
	}, testUpload("first.png"))
	require.NoError(t, err)

	updated, err := f.svc.UploadCarImage(ctx, "owner@example.com", car.ID.Hex(), testUpload("second.png"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/cars/1_second.png", updated.ImageURL)
	assert.Equal(t, []string{"cars/0_first.png"}, f.images.deletedKeys())

	_, err = f.svc.UploadCarImage(ctx, "owner@example.com", car.ID.Hex(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteCar_Cascades(t *testing.T) {
	f := newCarFixture()
	ctx := context.Background()
	car := f.create(t, "owner@example.com", "Civic", "Lisbon", "sedan", "40")
	other := f.create(t, "owner@example.com", "Golf", "Lisbon", "hatchback", "30")

	start := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, c := range []*models.Car{car, other} {
		require.NoError(t, f.bookings.Create(ctx, &models.Booking{
			CarID:     c.ID,
			UserID:    "renter@example.com",
			StartDate: start,
			EndDate:   start.AddDate(0, 0, 2),
			Status:    models.BookingStatusPending,
		}))
		require.NoError(t, f.favorites.Create(ctx, &models.Favorite{UserEmail: "renter@example.com", CarID: c.ID}))
	}

	require.NoError(t, f.svc.DeleteCar(ctx, "owner@example.com", car.ID.Hex()))

	// Purge and delete both run inside the car's transaction.
	assert.Equal(t, 1, f.bookings.txCalls)
	assert.Zero(t, f.bookings.purgesOutsideTx)
	assert.Zero(t, f.cars.deletesOutsideTx)

	_, err := f.svc.GetCar(ctx, car.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)

	remaining := f.bookings.all()
	require.Len(t, remaining, 1)
	assert.Equal(t, other.ID, remaining[0].CarID)

	favorites, err := f.favorites.ListByUser(ctx, "renter@example.com")
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, other.ID, favorites[0].CarID)
}

func TestDeleteCar_FailedCascadeKeepsImage(t *testing.T) {
	f := newCarFixture()
	ctx := context.Background()
	car, err := f.svc.CreateCar(ctx, "owner@example.com", &CreateCarRequest{
		Name:        "Civic",
		PricePerDay: "40",
		Location:    "Lisbon",
		CarType:     "sedan",
	}, testUpload("civic.png"))
	require.NoError(t, err)

	svc := NewCarService(&vanishingCarRepo{fakeCarRepo: f.cars}, f.bookings, f.favorites, f.images, NewCarLocker(), logger.NewNop())
	err = svc.DeleteCar(ctx, "owner@example.com", car.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.images.deletedKeys())
}

// vanishingCarRepo reports the car as already gone when deleting it.
type vanishingCarRepo struct {
	*fakeCarRepo
}

func (r *vanishingCarRepo) Delete(context.Context, primitive.ObjectID) error {
	return interfaces.ErrNotFound
}
