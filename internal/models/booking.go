package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string
type PaymentMethod string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"

	PaymentMethodCredit PaymentMethod = "credit"
	PaymentMethodDebit  PaymentMethod = "debit"
	PaymentMethodCash   PaymentMethod = "cash"
)

// ActiveBookingStatuses are the statuses that occupy a car's calendar.
var ActiveBookingStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed}

// bookingTransitions lists the statuses an owner may move a booking to.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodCredit, PaymentMethodDebit, PaymentMethodCash:
		return true
	}
	return false
}

// Booking reserves a car over the half-open interval [StartDate, EndDate).
// UserID holds the renter's identity (email).
type Booking struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CarID              primitive.ObjectID `json:"car_id" bson:"car_id"`
	UserID             string             `json:"user_id" bson:"user_id"`
	OwnerEmail         string             `json:"owner_email" bson:"owner_email"`
	StartDate          time.Time          `json:"start_date" bson:"start_date"`
	EndDate            time.Time          `json:"end_date" bson:"end_date"`
	TotalDays          int                `json:"total_days" bson:"total_days"`
	PricePerDay        Money              `json:"price_per_day" bson:"price_per_day"`
	DiscountPercentage int                `json:"discount_percentage" bson:"discount_percentage"`
	TotalPrice         Money              `json:"total_price" bson:"total_price"`
	PaymentMethod      PaymentMethod      `json:"payment_method" bson:"payment_method"`
	Status             BookingStatus      `json:"status" bson:"status"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}

// Overlaps reports whether the two half-open intervals share any instant.
// Touching endpoints do not overlap.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && startB.Before(endA)
}

func (b *Booking) OverlapsRange(start, end time.Time) bool {
	return Overlaps(b.StartDate, b.EndDate, start, end)
}

// IsParty reports whether identity is the renter or the car owner.
func (b *Booking) IsParty(identity string) bool {
	return identity != "" && (b.UserID == identity || b.OwnerEmail == identity)
}

type UnavailablePeriod struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}
