package handlers

import (
	"carrental/internal/services"
	"carrental/internal/utils"
	"carrental/pkg/logger"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService services.BookingService
	logger         *logger.Logger
}

func NewBookingHandler(bookingService services.BookingService, logger *logger.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// CreateBooking books a car for the caller. Overlapping an active booking of
// the same car yields 409.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request services.CreateBookingRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleBindError(c, err)
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), identity, &request)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Booking created successfully", booking)
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	bookings, err := h.bookingService.ListUserBookings(c.Request.Context(), identity, c.Query("status"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Bookings retrieved successfully", bookings, &utils.Meta{Count: len(bookings)})
}

// ListOwnerRequests lists bookings made on the caller's cars
func (h *BookingHandler) ListOwnerRequests(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	bookings, err := h.bookingService.ListOwnerRequests(c.Request.Context(), identity, c.Query("status"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Booking requests retrieved successfully", bookings, &utils.Meta{Count: len(bookings)})
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Booking retrieved successfully", booking)
}

func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request services.UpdateBookingRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleBindError(c, err)
		return
	}

	booking, err := h.bookingService.UpdateBooking(c.Request.Context(), identity, c.Param("id"), &request)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Booking updated successfully", booking)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	if _, err := h.bookingService.CancelBooking(c.Request.Context(), identity, c.Param("id")); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.NoContentResponse(c)
}

// CarAvailability lists the booked periods of a car inside the query window
func (h *BookingHandler) CarAvailability(c *gin.Context) {
	periods, err := h.bookingService.CarAvailability(
		c.Request.Context(),
		c.Param("car_id"),
		c.Query("start_date"),
		c.Query("end_date"),
	)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Availability retrieved successfully", gin.H{
		"car_id":              c.Param("car_id"),
		"unavailable_periods": periods,
	})
}
