package services

import (
	"testing"
	"time"

	"carrental/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMoney(t *testing.T, s string) models.Money {
	t.Helper()
	m, err := models.NewMoneyFromString(s)
	require.NoError(t, err)
	return m
}

func TestComputePrice(t *testing.T) {
	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		rate         string
		end          time.Time
		wantDays     int
		wantDiscount int
		wantTotal    string
	}{
		{"six days no discount", "50", start.AddDate(0, 0, 6), 6, 0, "300.00"},
		{"seven days discounted", "50", start.AddDate(0, 0, 7), 7, 15, "297.50"},
		{"sub-day counts as one day", "50", start.Add(3 * time.Hour), 1, 0, "50.00"},
		{"partial days are floored", "40", start.Add(49 * time.Hour), 2, 0, "80.00"},
		{"half cent rounds up", "1.10", start.AddDate(0, 0, 7), 7, 15, "6.55"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote := ComputePrice(mustMoney(t, tt.rate), start, tt.end)

			assert.Equal(t, tt.wantDays, quote.Days)
			assert.Equal(t, tt.wantDiscount, quote.DiscountPercentage)
			assert.Equal(t, tt.wantTotal, quote.TotalPrice.String())
			assert.Equal(t, mustMoney(t, tt.rate).String(), quote.PricePerDay.String())
		})
	}
}
