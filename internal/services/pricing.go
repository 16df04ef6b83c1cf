package services

import (
	"time"

	"carrental/internal/models"

	"github.com/shopspring/decimal"
)

const (
	// Rentals of at least this many whole days get the long-rental discount.
	LongRentalThresholdDays   = 7
	LongRentalDiscountPercent = 15
)

type Quote struct {
	Days               int          `json:"total_days"`
	DiscountPercentage int          `json:"discount_percentage"`
	PricePerDay        models.Money `json:"price_per_day"`
	TotalPrice         models.Money `json:"total_price"`
}

// RentalDays counts whole 24h periods in [start, end), never less than one.
func RentalDays(start, end time.Time) int {
	days := int(end.Sub(start) / (24 * time.Hour))
	if days < 1 {
		return 1
	}
	return days
}

// ComputePrice prices a rental. Rounding happens once, on the total.
func ComputePrice(pricePerDay models.Money, start, end time.Time) Quote {
	days := RentalDays(start, end)

	total := pricePerDay.Decimal().Mul(decimal.NewFromInt(int64(days)))
	discount := 0
	if days >= LongRentalThresholdDays {
		discount = LongRentalDiscountPercent
		factor := decimal.NewFromInt(int64(100 - discount)).Div(decimal.NewFromInt(100))
		total = total.Mul(factor)
	}

	return Quote{
		Days:               days,
		DiscountPercentage: discount,
		PricePerDay:        pricePerDay,
		TotalPrice:         models.NewMoney(total),
	}
}
