package wire

import (
	"net/http"

	"ticket-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	auth func(http.Handler) http.Handler,
	rateLimit func(http.Handler) http.Handler,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(auth)

		// POST /api/bookings - limited per user, this is where contention lands
		r.With(rateLimit).Post("/api/bookings", bookingHandler.CreateBooking)

		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)
		r.Get("/api/bookings/{id}", bookingHandler.GetBooking)
		r.Get("/api/bookings/reference/{reference}", bookingHandler.GetBookingByReference)
		r.Post("/api/bookings/{id}/cancel", bookingHandler.CancelBooking)
	})
}
