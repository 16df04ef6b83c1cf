package routes

import (
	handlers "carrental/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(r *gin.RouterGroup, auth gin.HandlerFunc, bookingHandler *handlers.BookingHandler) {
	// Availability is public so renters can check dates before signing in
	r.GET("/bookings/car/:car_id/availability", bookingHandler.CarAvailability)

	bookings := r.Group("/bookings")
	bookings.Use(auth)
	{
		bookings.POST("", bookingHandler.CreateBooking)
		bookings.GET("", bookingHandler.ListBookings)
		bookings.GET("/owner/requests", bookingHandler.ListOwnerRequests)
		bookings.GET("/:id", bookingHandler.GetBooking)
		bookings.PUT("/:id", bookingHandler.UpdateBooking)
		bookings.DELETE("/:id", bookingHandler.CancelBooking)
	}
}
