package wire

import (
	"net/http"

	"ticket-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAdmin(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	adminHandler *adaptor.AdminHandler,
	ticketHandler *adaptor.TicketHandler,
	auth func(http.Handler) http.Handler,
	admin func(http.Handler) http.Handler,
) {
	// gate scanners are unauthenticated; the pass carries its own signature
	r.Get("/api/tickets/verify", ticketHandler.Verify)

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(admin)

		r.Get("/api/admin/bookings/{id}", bookingHandler.GetBookingByID)
		r.Post("/api/admin/sweeper/run", adminHandler.RunSweeper)
	})
}
