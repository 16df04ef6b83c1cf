package handlers

import (
	"context"

	"carrental/internal/models"
	"carrental/internal/services"

	"github.com/stretchr/testify/mock"
)

type mockBookingService struct {
	mock.Mock
}

func (m *mockBookingService) CreateBooking(ctx context.Context, renter string, request *services.CreateBookingRequest) (*models.Booking, error) {
	args := m.Called(ctx, renter, request)
	booking, _ := args.Get(0).(*models.Booking)
	return booking, args.Error(1)
}

func (m *mockBookingService) UpdateBooking(ctx context.Context, actor string, bookingID string, request *services.UpdateBookingRequest) (*models.Booking, error) {
	args := m.Called(ctx, actor, bookingID, request)
	booking, _ := args.Get(0).(*models.Booking)
	return booking, args.Error(1)
}

func (m *mockBookingService) CancelBooking(ctx context.Context, actor string, bookingID string) (*models.Booking, error) {
	args := m.Called(ctx, actor, bookingID)
	booking, _ := args.Get(0).(*models.Booking)
	return booking, args.Error(1)
}

func (m *mockBookingService) GetBooking(ctx context.Context, actor string, bookingID string) (*models.Booking, error) {
	args := m.Called(ctx, actor, bookingID)
	booking, _ := args.Get(0).(*models.Booking)
	return booking, args.Error(1)
}

func (m *mockBookingService) ListUserBookings(ctx context.Context, renter string, status string) ([]*models.Booking, error) {
	args := m.Called(ctx, renter, status)
	bookings, _ := args.Get(0).([]*models.Booking)
	return bookings, args.Error(1)
}

func (m *mockBookingService) ListOwnerRequests(ctx context.Context, owner string, status string) ([]*models.Booking, error) {
	args := m.Called(ctx, owner, status)
	bookings, _ := args.Get(0).([]*models.Booking)
	return bookings, args.Error(1)
}

func (m *mockBookingService) CarAvailability(ctx context.Context, carID string, startRaw, endRaw string) ([]*models.UnavailablePeriod, error) {
	args := m.Called(ctx, carID, startRaw, endRaw)
	periods, _ := args.Get(0).([]*models.UnavailablePeriod)
	return periods, args.Error(1)
}

type mockChatService struct {
	mock.Mock
}

func (m *mockChatService) SendMessage(ctx context.Context, sender, receiver, text string) (*models.Message, error) {
	args := m.Called(ctx, sender, receiver, text)
	message, _ := args.Get(0).(*models.Message)
	return message, args.Error(1)
}

func (m *mockChatService) SendToUsername(ctx context.Context, sender string, request *services.SendMessageRequest) (*models.Message, error) {
	args := m.Called(ctx, sender, request)
	message, _ := args.Get(0).(*models.Message)
	return message, args.Error(1)
}

func (m *mockChatService) History(ctx context.Context, caller, otherUsername string) ([]*models.Message, error) {
	args := m.Called(ctx, caller, otherUsername)
	messages, _ := args.Get(0).([]*models.Message)
	return messages, args.Error(1)
}

func (m *mockChatService) SearchUsers(ctx context.Context, query string) ([]*models.UserSummary, error) {
	args := m.Called(ctx, query)
	users, _ := args.Get(0).([]*models.UserSummary)
	return users, args.Error(1)
}

func (m *mockChatService) OnlineUsers(ctx context.Context) []string {
	args := m.Called(ctx)
	online, _ := args.Get(0).([]string)
	return online
}

func (m *mockChatService) IdentityExists(ctx context.Context, identity string) (bool, error) {
	args := m.Called(ctx, identity)
	return args.Bool(0), args.Error(1)
}
