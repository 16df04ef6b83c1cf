package services

import (
	"context"
	"errors"
	"time"

	"carrental/internal/models"
	"carrental/pkg/logger"
)

// EventPublisher is satisfied by *mq.Publisher and *notify.SNSPublisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type nopPublisher struct{}

func NewNopPublisher() EventPublisher {
	return nopPublisher{}
}

func (nopPublisher) PublishJSON(context.Context, string, any) error {
	return nil
}

type multiPublisher []EventPublisher

// NewMultiPublisher publishes to every target; errors are joined.
func NewMultiPublisher(targets ...EventPublisher) EventPublisher {
	if len(targets) == 0 {
		return NewNopPublisher()
	}
	return multiPublisher(targets)
}

func (m multiPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	var errs []error
	for _, target := range m {
		if err := target.PublishJSON(ctx, key, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BookingEvent is the payload of every booking.* event.
type BookingEvent struct {
	Event      string          `json:"event"`
	BookingID  string          `json:"booking_id"`
	CarID      string          `json:"car_id"`
	RenterID   string          `json:"renter_id"`
	OwnerEmail string          `json:"owner_email"`
	Actor      string          `json:"actor"`
	Booking    *models.Booking `json:"booking"`
	OccurredAt time.Time       `json:"occurred_at"`
}

const publishTimeout = 5 * time.Second

// publishBookingEvent is best effort: booking writes never fail because a
// broker is down.
func publishBookingEvent(ctx context.Context, publisher EventPublisher, log *logger.Logger, event, actor string, booking *models.Booking) {
	payload := &BookingEvent{
		Event:      event,
		BookingID:  booking.ID.Hex(),
		CarID:      booking.CarID.Hex(),
		RenterID:   booking.UserID,
		OwnerEmail: booking.OwnerEmail,
		Actor:      actor,
		Booking:    booking,
		OccurredAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := publisher.PublishJSON(ctx, event, payload); err != nil {
		log.WithBookingID(booking.ID).WithError(err).WithField("event", event).Warn("Failed to publish booking event")
	}
}
