package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"carrental/internal/models"
	"carrental/internal/repositories/interfaces"
	"carrental/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories. Records are copied on the way in and out so tests
// observe the same isolation a database gives.

// fakeTxKey marks contexts handed out by fakeBookingRepo.WithCarTransaction;
// the value is the locked car.
type fakeTxKey struct{}

func inCarTx(ctx context.Context, carID primitive.ObjectID) bool {
	locked, ok := ctx.Value(fakeTxKey{}).(primitive.ObjectID)
	return ok && locked == carID
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[primitive.ObjectID]models.Booking
	txCalls  int

	// purgesOutsideTx counts DeleteByCar calls made outside the car's transaction.
	purgesOutsideTx int
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[primitive.ObjectID]models.Booking)}
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	booking.ID = primitive.NewObjectID()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	r.bookings[booking.ID] = *booking
	return nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &booking, nil
}

func (r *fakeBookingRepo) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	for key, value := range updates {
		switch key {
		case "status":
			booking.Status = value.(models.BookingStatus)
		case "payment_method":
			booking.PaymentMethod = value.(models.PaymentMethod)
		case "start_date":
			booking.StartDate = value.(time.Time)
		case "end_date":
			booking.EndDate = value.(time.Time)
		case "total_days":
			booking.TotalDays = value.(int)
		case "discount_percentage":
			booking.DiscountPercentage = value.(int)
		case "total_price":
			booking.TotalPrice = value.(models.Money)
		}
	}
	booking.UpdatedAt = time.Now().UTC()
	r.bookings[id] = booking
	return nil
}

func (r *fakeBookingRepo) DeleteByCar(ctx context.Context, carID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !inCarTx(ctx, carID) {
		r.purgesOutsideTx++
	}
	for id, booking := range r.bookings {
		if booking.CarID == carID {
			delete(r.bookings, id)
		}
	}
	return nil
}

func (r *fakeBookingRepo) FindActiveByCar(_ context.Context, carID primitive.ObjectID, excludeID *primitive.ObjectID) ([]*models.Booking, error) {
	return r.filter(func(b models.Booking) bool {
		if excludeID != nil && b.ID == *excludeID {
			return false
		}
		return b.CarID == carID && b.Status.IsActive()
	}), nil
}

func (r *fakeBookingRepo) ListByUser(_ context.Context, userID string, status *models.BookingStatus) ([]*models.Booking, error) {
	return r.filter(func(b models.Booking) bool {
		return b.UserID == userID && (status == nil || b.Status == *status)
	}), nil
}

func (r *fakeBookingRepo) ListByCars(_ context.Context, carIDs []primitive.ObjectID, status *models.BookingStatus) ([]*models.Booking, error) {
	wanted := make(map[primitive.ObjectID]bool, len(carIDs))
	for _, id := range carIDs {
		wanted[id] = true
	}
	return r.filter(func(b models.Booking) bool {
		return wanted[b.CarID] && (status == nil || b.Status == *status)
	}), nil
}

func (r *fakeBookingRepo) WithCarTransaction(ctx context.Context, carID primitive.ObjectID, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	r.txCalls++
	r.mu.Unlock()
	return fn(context.WithValue(ctx, fakeTxKey{}, carID))
}

// filter returns matches newest first.
func (r *fakeBookingRepo) filter(keep func(models.Booking) bool) []*models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Booking, 0)
	for _, booking := range r.bookings {
		if keep(booking) {
			b := booking
			result = append(result, &b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID.Timestamp().After(result[j].ID.Timestamp()) ||
			(result[i].ID.Timestamp().Equal(result[j].ID.Timestamp()) && result[i].ID.Hex() > result[j].ID.Hex())
	})
	return result
}

func (r *fakeBookingRepo) all() []models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]models.Booking, 0, len(r.bookings))
	for _, booking := range r.bookings {
		result = append(result, booking)
	}
	return result
}

type fakeCarRepo struct {
	mu   sync.Mutex
	cars map[primitive.ObjectID]models.Car

	deletesOutsideTx int
}

func newFakeCarRepo() *fakeCarRepo {
	return &fakeCarRepo{cars: make(map[primitive.ObjectID]models.Car)}
}

func (r *fakeCarRepo) Create(_ context.Context, car *models.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	car.ID = primitive.NewObjectID()
	car.CreatedAt = now
	car.UpdatedAt = now
	r.cars[car.ID] = *car
	return nil
}

func (r *fakeCarRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Car, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	car, ok := r.cars[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &car, nil
}

func (r *fakeCarRepo) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	car, ok := r.cars[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	for key, value := range updates {
		switch key {
		case "name":
			car.Name = value.(string)
		case "price_per_day":
			car.PricePerDay = value.(models.Money)
		case "location":
			car.Location = value.(string)
		case "car_type":
			car.CarType = value.(string)
		case "description":
			car.Description = value.(string)
		case "image_url":
			car.ImageURL = value.(string)
		case "image_key":
			car.ImageKey = value.(string)
		}
	}
	r.cars[id] = car
	return nil
}

func (r *fakeCarRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !inCarTx(ctx, id) {
		r.deletesOutsideTx++
	}
	if _, ok := r.cars[id]; !ok {
		return interfaces.ErrNotFound
	}
	delete(r.cars, id)
	return nil
}

func (r *fakeCarRepo) List(_ context.Context, params *utils.PaginationParams) ([]*models.Car, int64, error) {
	cars := r.filter(func(models.Car) bool { return true })
	total := int64(len(cars))
	start := params.GetSkip()
	if start > len(cars) {
		start = len(cars)
	}
	end := start + params.GetLimit()
	if end > len(cars) {
		end = len(cars)
	}
	return cars[start:end], total, nil
}

func (r *fakeCarRepo) Search(_ context.Context, filter *models.CarSearchFilter) ([]*models.Car, error) {
	return r.filter(func(c models.Car) bool {
		if filter.Location != "" && !strings.Contains(strings.ToLower(c.Location), strings.ToLower(filter.Location)) {
			return false
		}
		if filter.CarType != "" && !strings.Contains(strings.ToLower(c.CarType), strings.ToLower(filter.CarType)) {
			return false
		}
		if filter.MaxPrice != nil && c.PricePerDay.Decimal().GreaterThan(filter.MaxPrice.Decimal()) {
			return false
		}
		return true
	}), nil
}

func (r *fakeCarRepo) ListByOwner(_ context.Context, ownerEmail string) ([]*models.Car, error) {
	return r.filter(func(c models.Car) bool { return c.OwnerEmail == ownerEmail }), nil
}

func (r *fakeCarRepo) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.Car, error) {
	wanted := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	return r.filter(func(c models.Car) bool { return wanted[c.ID] }), nil
}

func (r *fakeCarRepo) filter(keep func(models.Car) bool) []*models.Car {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Car, 0)
	for _, car := range r.cars {
		if keep(car) {
			c := car
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.Hex() < result[j].ID.Hex() })
	return result
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return interfaces.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r *fakeUserRepo) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if username, ok := updates["username"].(string); ok {
		for otherID, other := range r.users {
			if otherID != id && other.Username == username {
				return interfaces.ErrDuplicate
			}
		}
		user.Username = username
	}
	if bio, ok := updates["bio"].(string); ok {
		user.Bio = bio
	}
	if image, ok := updates["profile_image"].(string); ok {
		user.ProfileImage = image
	}
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == interfaces.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeUserRepo) Search(_ context.Context, query string, limit int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	query = strings.ToLower(query)
	result := make([]*models.User, 0)
	for _, user := range r.users {
		if strings.Contains(strings.ToLower(user.Username), query) || strings.Contains(strings.ToLower(user.Email), query) {
			u := user
			result = append(result, &u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeUserRepo) find(match func(models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if match(user) {
			u := user
			return &u, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []models.Message
}

func (r *fakeMessageRepo) Create(_ context.Context, message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message.ID = primitive.NewObjectID()
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	r.messages = append(r.messages, *message)
	return nil
}

func (r *fakeMessageRepo) ListConversation(_ context.Context, a, b string) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Message, 0)
	for _, message := range r.messages {
		if (message.SenderEmail == a && message.ReceiverEmail == b) ||
			(message.SenderEmail == b && message.ReceiverEmail == a) {
			m := message
			result = append(result, &m)
		}
	}
	return result, nil
}

func (r *fakeMessageRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

type fakeFavoriteRepo struct {
	mu        sync.Mutex
	favorites []models.Favorite
}

func (r *fakeFavoriteRepo) Create(_ context.Context, favorite *models.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.favorites {
		if existing.UserEmail == favorite.UserEmail && existing.CarID == favorite.CarID {
			return interfaces.ErrDuplicate
		}
	}
	favorite.ID = primitive.NewObjectID()
	favorite.CreatedAt = time.Now().UTC()
	r.favorites = append(r.favorites, *favorite)
	return nil
}

func (r *fakeFavoriteRepo) ListByUser(_ context.Context, userEmail string) ([]*models.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Favorite, 0)
	for _, favorite := range r.favorites {
		if favorite.UserEmail == userEmail {
			f := favorite
			result = append(result, &f)
		}
	}
	return result, nil
}

func (r *fakeFavoriteRepo) Delete(_ context.Context, userEmail string, carID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, favorite := range r.favorites {
		if favorite.UserEmail == userEmail && favorite.CarID == carID {
			r.favorites = append(r.favorites[:i], r.favorites[i+1:]...)
			return nil
		}
	}
	return interfaces.ErrNotFound
}

func (r *fakeFavoriteRepo) DeleteByCar(_ context.Context, carID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.favorites[:0]
	for _, favorite := range r.favorites {
		if favorite.CarID != carID {
			kept = append(kept, favorite)
		}
	}
	r.favorites = kept
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, key)
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}
