package services

import (
	"context"
	"fmt"
	"time"

	"carrental/internal/models"
	"carrental/internal/repositories/interfaces"
	"carrental/internal/utils"
	"carrental/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingService interface {
	CreateBooking(ctx context.Context, renter string, request *CreateBookingRequest) (*models.Booking, error)
	UpdateBooking(ctx context.Context, actor string, bookingID string, request *UpdateBookingRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, actor string, bookingID string) (*models.Booking, error)

	GetBooking(ctx context.Context, actor string, bookingID string) (*models.Booking, error)
	ListUserBookings(ctx context.Context, renter string, status string) ([]*models.Booking, error)
	ListOwnerRequests(ctx context.Context, owner string, status string) ([]*models.Booking, error)
	CarAvailability(ctx context.Context, carID string, startRaw, endRaw string) ([]*models.UnavailablePeriod, error)
}

type CreateBookingRequest struct {
	CarID         string `json:"car_id" validate:"required,object_id"`
	StartDate     string `json:"start_date" validate:"required"`
	EndDate       string `json:"end_date" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required,payment_method"`
}

// UpdateBookingRequest fields are optional. Which of them an actor may
// change depends on whether they rent or own the car.
type UpdateBookingRequest struct {
	StartDate     *string `json:"start_date,omitempty"`
	EndDate       *string `json:"end_date,omitempty"`
	PaymentMethod *string `json:"payment_method,omitempty"`
	Status        *string `json:"status,omitempty"`
}

type BookingServiceConfig struct {
	// StrictUpdateAuth rejects fields the actor may not change instead of
	// ignoring them.
	StrictUpdateAuth bool
}

type bookingService struct {
	bookingRepo  interfaces.BookingRepository
	carRepo      interfaces.CarRepository
	availability AvailabilityChecker
	locker       *CarLocker
	publisher    EventPublisher
	config       BookingServiceConfig
	logger       *logger.Logger
	now          func() time.Time
}

func NewBookingService(
	bookingRepo interfaces.BookingRepository,
	carRepo interfaces.CarRepository,
	availability AvailabilityChecker,
	locker *CarLocker,
	publisher EventPublisher,
	config BookingServiceConfig,
	logger *logger.Logger,
) BookingService {
	if publisher == nil {
		publisher = NewNopPublisher()
	}
	return &bookingService{
		bookingRepo:  bookingRepo,
		carRepo:      carRepo,
		availability: availability,
		locker:       locker,
		publisher:    publisher,
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, renter string, request *CreateBookingRequest) (*models.Booking, error) {
	if err := validateRequest(request); err != nil {
		return nil, err
	}

	carID, _ := primitive.ObjectIDFromHex(request.CarID)
	start, end, err := parseBookingWindow(request.StartDate, request.EndDate)
	if err != nil {
		return nil, err
	}

	car, err := s.carRepo.GetByID(ctx, carID)
	if err != nil {
		return nil, translateRepoError(err, "Car not found")
	}

	if err := s.validateWindow(start, end); err != nil {
		return nil, err
	}

	release := s.locker.Lock(carID)
	defer release()

	var booking *models.Booking
	err = s.bookingRepo.WithCarTransaction(ctx, carID, func(txCtx context.Context) error {
		available, err := s.availability.IsAvailable(txCtx, carID, start, end, nil)
		if err != nil {
			return err
		}
		if !available {
			return conflict("Car is not available for the selected dates")
		}

		quote := ComputePrice(car.PricePerDay, start, end)
		candidate := &models.Booking{
			CarID:              carID,
			UserID:             renter,
			OwnerEmail:         car.OwnerEmail,
			StartDate:          start,
			EndDate:            end,
			TotalDays:          quote.Days,
			PricePerDay:        quote.PricePerDay,
			DiscountPercentage: quote.DiscountPercentage,
			TotalPrice:         quote.TotalPrice,
			PaymentMethod:      models.PaymentMethod(request.PaymentMethod),
			Status:             models.BookingStatusPending,
		}
		if err := s.bookingRepo.Create(txCtx, candidate); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		booking = candidate
		return nil
	})
	// Events go to external brokers; publish after the car is unlocked.
	release()
	if err != nil {
		return nil, translateRepoError(err, "Car not found")
	}

	s.logger.LogBookingEvent(booking.ID, utils.EventBookingCreated, map[string]interface{}{
		"car_id":      carID.Hex(),
		"renter":      renter,
		"total_days":  booking.TotalDays,
		"total_price": booking.TotalPrice.String(),
	})
	publishBookingEvent(ctx, s.publisher, s.logger, utils.EventBookingCreated, renter, booking)

	return booking, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, actor string, bookingID string, request *UpdateBookingRequest) (*models.Booking, error) {
	id, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		return nil, notFound("Booking not found")
	}

	current, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "Booking not found")
	}
	if !current.IsParty(actor) {
		return nil, forbidden("You are not allowed to update this booking")
	}

	// Reject early without taking the car lock; the plan is redone on a
	// fresh read inside the critical section.
	if _, err := s.planUpdate(current, actor, request); err != nil {
		return nil, err
	}

	release := s.locker.Lock(current.CarID)
	defer release()

	var (
		updated *models.Booking
		event   string
	)
	err = s.bookingRepo.WithCarTransaction(ctx, current.CarID, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByID(txCtx, id)
		if err != nil {
			return translateRepoError(err, "Booking not found")
		}

		plan, err := s.planUpdate(booking, actor, request)
		if err != nil {
			return err
		}
		if plan.empty() {
			updated, event = booking, ""
			return nil
		}

		if plan.datesChanged {
			available, err := s.availability.IsAvailable(txCtx, booking.CarID, plan.start, plan.end, &booking.ID)
			if err != nil {
				return err
			}
			if !available {
				return conflict("Car is not available for the selected dates")
			}

			quote := ComputePrice(booking.PricePerDay, plan.start, plan.end)
			plan.updates["start_date"] = plan.start
			plan.updates["end_date"] = plan.end
			plan.updates["total_days"] = quote.Days
			plan.updates["discount_percentage"] = quote.DiscountPercentage
			plan.updates["total_price"] = quote.TotalPrice
		}

		if err := s.bookingRepo.Update(txCtx, booking.ID, plan.updates); err != nil {
			return translateRepoError(err, "Booking not found")
		}

		updated, err = s.bookingRepo.GetByID(txCtx, booking.ID)
		if err != nil {
			return translateRepoError(err, "Booking not found")
		}
		event = plan.event()
		return nil
	})
	release()
	if err != nil {
		return nil, translateRepoError(err, "Car not found")
	}

	if event != "" {
		s.logger.LogBookingEvent(updated.ID, event, map[string]interface{}{
			"actor":  actor,
			"status": string(updated.Status),
		})
		publishBookingEvent(ctx, s.publisher, s.logger, event, actor, updated)
	}

	return updated, nil
}

// updatePlan is the validated outcome of an update request against one
// snapshot of a booking.
type updatePlan struct {
	updates       map[string]interface{}
	statusChanged bool
	newStatus     models.BookingStatus
	datesChanged  bool
	start, end    time.Time
}

func (p *updatePlan) empty() bool {
	return len(p.updates) == 0 && !p.datesChanged
}

func (p *updatePlan) event() string {
	if !p.statusChanged {
		return utils.EventBookingUpdated
	}
	switch p.newStatus {
	case models.BookingStatusConfirmed:
		return utils.EventBookingConfirmed
	case models.BookingStatusCompleted:
		return utils.EventBookingCompleted
	case models.BookingStatusCancelled:
		return utils.EventBookingCancelled
	}
	return utils.EventBookingUpdated
}

// planUpdate applies status first (owner), then dates and payment method
// (renter, pending only). Fields the actor may not touch are skipped unless
// strict mode is on.
func (s *bookingService) planUpdate(booking *models.Booking, actor string, request *UpdateBookingRequest) (*updatePlan, error) {
	isOwner := booking.OwnerEmail == actor
	isRenter := booking.UserID == actor

	plan := &updatePlan{
		updates:   make(map[string]interface{}),
		newStatus: booking.Status,
	}

	if request.Status != nil {
		switch {
		case isOwner:
			target := models.BookingStatus(*request.Status)
			if booking.Status.IsTerminal() {
				return nil, invalidInput("Cannot change the status of a %s booking", booking.Status)
			}
			if !target.IsValid() {
				return nil, invalidInput("Invalid booking status: %s", *request.Status)
			}
			if target != booking.Status {
				if !booking.Status.CanTransitionTo(target) {
					return nil, invalidInput("Cannot change booking status from %s to %s", booking.Status, target)
				}
				plan.updates["status"] = target
				plan.statusChanged = true
				plan.newStatus = target
			}
		case s.config.StrictUpdateAuth:
			return nil, forbidden("Only the car owner can change the booking status")
		}
	}

	if request.StartDate != nil || request.EndDate != nil {
		switch {
		case isRenter:
			if plan.newStatus != models.BookingStatusPending {
				return nil, invalidInput("Booking dates can only be changed while the booking is pending")
			}

			start, end := booking.StartDate, booking.EndDate
			if request.StartDate != nil {
				parsed, err := utils.ParseDateTime(*request.StartDate)
				if err != nil {
					return nil, invalidInput("Invalid date format")
				}
				start = parsed
			}
			if request.EndDate != nil {
				parsed, err := utils.ParseDateTime(*request.EndDate)
				if err != nil {
					return nil, invalidInput("Invalid date format")
				}
				end = parsed
			}
			if err := s.validateWindow(start, end); err != nil {
				return nil, err
			}

			if !start.Equal(booking.StartDate) || !end.Equal(booking.EndDate) {
				plan.datesChanged = true
				plan.start, plan.end = start, end
			}
		case s.config.StrictUpdateAuth:
			return nil, forbidden("Only the renter can change the booking dates")
		}
	}

	if request.PaymentMethod != nil {
		switch {
		case isRenter:
			if plan.newStatus != models.BookingStatusPending {
				return nil, invalidInput("Payment method can only be changed while the booking is pending")
			}
			method := models.PaymentMethod(*request.PaymentMethod)
			if !method.IsValid() {
				return nil, invalidInput("Invalid payment method: %s", *request.PaymentMethod)
			}
			if method != booking.PaymentMethod {
				plan.updates["payment_method"] = method
			}
		case s.config.StrictUpdateAuth:
			return nil, forbidden("Only the renter can change the payment method")
		}
	}

	return plan, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, actor string, bookingID string) (*models.Booking, error) {
	id, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		return nil, notFound("Booking not found")
	}

	current, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "Booking not found")
	}
	if err := checkCancellable(current, actor); err != nil {
		return nil, err
	}

	release := s.locker.Lock(current.CarID)
	defer release()

	var (
		cancelled *models.Booking
		changed   bool
	)
	err = s.bookingRepo.WithCarTransaction(ctx, current.CarID, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByID(txCtx, id)
		if err != nil {
			return translateRepoError(err, "Booking not found")
		}
		if err := checkCancellable(booking, actor); err != nil {
			return err
		}
		if booking.Status == models.BookingStatusCancelled {
			cancelled, changed = booking, false
			return nil
		}

		if err := s.bookingRepo.Update(txCtx, id, map[string]interface{}{
			"status": models.BookingStatusCancelled,
		}); err != nil {
			return translateRepoError(err, "Booking not found")
		}

		cancelled, err = s.bookingRepo.GetByID(txCtx, id)
		if err != nil {
			return translateRepoError(err, "Booking not found")
		}
		changed = true
		return nil
	})
	release()
	if err != nil {
		return nil, translateRepoError(err, "Car not found")
	}

	if changed {
		s.logger.LogBookingEvent(cancelled.ID, utils.EventBookingCancelled, map[string]interface{}{
			"actor": actor,
		})
		publishBookingEvent(ctx, s.publisher, s.logger, utils.EventBookingCancelled, actor, cancelled)
	}

	return cancelled, nil
}

func checkCancellable(booking *models.Booking, actor string) error {
	if !booking.IsParty(actor) {
		return forbidden("You are not allowed to cancel this booking")
	}
	if booking.Status == models.BookingStatusCompleted {
		return invalidInput("Cannot cancel a completed booking")
	}
	return nil
}

func (s *bookingService) GetBooking(ctx context.Context, actor string, bookingID string) (*models.Booking, error) {
	id, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		return nil, notFound("Booking not found")
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "Booking not found")
	}
	if !booking.IsParty(actor) {
		return nil, forbidden("You are not allowed to view this booking")
	}
	return booking, nil
}

func (s *bookingService) ListUserBookings(ctx context.Context, renter string, status string) ([]*models.Booking, error) {
	filter, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	return s.bookingRepo.ListByUser(ctx, renter, filter)
}

func (s *bookingService) ListOwnerRequests(ctx context.Context, owner string, status string) ([]*models.Booking, error) {
	filter, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}

	cars, err := s.carRepo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(cars) == 0 {
		return []*models.Booking{}, nil
	}

	carIDs := make([]primitive.ObjectID, 0, len(cars))
	for _, car := range cars {
		carIDs = append(carIDs, car.ID)
	}
	return s.bookingRepo.ListByCars(ctx, carIDs, filter)
}

func (s *bookingService) CarAvailability(ctx context.Context, carID string, startRaw, endRaw string) ([]*models.UnavailablePeriod, error) {
	return s.availability.UnavailablePeriods(ctx, carID, startRaw, endRaw)
}

func (s *bookingService) validateWindow(start, end time.Time) error {
	if !start.Before(end) {
		return invalidInput("End date must be after start date")
	}
	if start.Before(s.now()) {
		return invalidInput("Start date cannot be in the past")
	}
	return nil
}

func parseBookingWindow(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := utils.ParseDateTime(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, invalidInput("Invalid date format")
	}
	end, err := utils.ParseDateTime(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, invalidInput("Invalid date format")
	}
	return start, end, nil
}

func parseStatusFilter(status string) (*models.BookingStatus, error) {
	if status == "" {
		return nil, nil
	}
	parsed := models.BookingStatus(status)
	if !parsed.IsValid() {
		return nil, invalidInput("Invalid status filter: %s", status)
	}
	return &parsed, nil
}
