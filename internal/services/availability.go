package services

import (
	"context"
	"fmt"
	"time"

	"carrental/internal/models"
	"carrental/internal/repositories/interfaces"
	"carrental/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Overlaps reports whether [startA, endA) and [startB, endB) intersect.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return models.Overlaps(startA, endA, startB, endB)
}

type AvailabilityChecker interface {
	// IsAvailable reports whether no active booking of carID other than
	// excludeID overlaps [start, end). Callers guarantee start < end.
	IsAvailable(ctx context.Context, carID primitive.ObjectID, start, end time.Time, excludeID *primitive.ObjectID) (bool, error)

	// UnavailablePeriods lists the active bookings overlapping the window
	// given as raw date strings.
	UnavailablePeriods(ctx context.Context, carID string, startRaw, endRaw string) ([]*models.UnavailablePeriod, error)
}

type availabilityChecker struct {
	bookingRepo interfaces.BookingRepository
	carRepo     interfaces.CarRepository
}

func NewAvailabilityChecker(bookingRepo interfaces.BookingRepository, carRepo interfaces.CarRepository) AvailabilityChecker {
	return &availabilityChecker{
		bookingRepo: bookingRepo,
		carRepo:     carRepo,
	}
}

func (a *availabilityChecker) IsAvailable(ctx context.Context, carID primitive.ObjectID, start, end time.Time, excludeID *primitive.ObjectID) (bool, error) {
	bookings, err := a.bookingRepo.FindActiveByCar(ctx, carID, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to load bookings: %w", err)
	}

	for _, booking := range bookings {
		if excludeID != nil && booking.ID == *excludeID {
			continue
		}
		if booking.Status.IsActive() && booking.OverlapsRange(start, end) {
			return false, nil
		}
	}
	return true, nil
}

func (a *availabilityChecker) UnavailablePeriods(ctx context.Context, carID string, startRaw, endRaw string) ([]*models.UnavailablePeriod, error) {
	id, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		return nil, invalidInput("invalid car id")
	}

	start, err := utils.ParseDateTime(startRaw)
	if err != nil {
		return nil, invalidInput("Invalid date format")
	}
	end, err := utils.ParseDateTime(endRaw)
	if err != nil {
		return nil, invalidInput("Invalid date format")
	}
	if !start.Before(end) {
		return nil, invalidInput("End date must be after start date")
	}

	if _, err := a.carRepo.GetByID(ctx, id); err != nil {
		return nil, translateRepoError(err, "Car not found")
	}

	bookings, err := a.bookingRepo.FindActiveByCar(ctx, id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	periods := make([]*models.UnavailablePeriod, 0)
	for _, booking := range bookings {
		if booking.OverlapsRange(start, end) {
			periods = append(periods, &models.UnavailablePeriod{
				StartDate: booking.StartDate,
				EndDate:   booking.EndDate,
			})
		}
	}
	return periods, nil
}
