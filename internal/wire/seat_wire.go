package wire

import (
	"net/http"

	"ticket-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireSeat(
	r chi.Router,
	seatHandler *adaptor.SeatHandler,
	auth func(http.Handler) http.Handler,
	admin func(http.Handler) http.Handler,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/shows/{id}/seats", seatHandler.ListSeats)
	r.Get("/api/shows/{id}/availability", seatHandler.Availability)
	r.Get("/api/open-shows/{id}", seatHandler.GetOpenShow)

	// ==================== ADMIN ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(admin)

		r.Post("/api/admin/shows/{id}/seats/generate", seatHandler.GenerateSeats)
		r.Put("/api/admin/shows/{id}/pricing", seatHandler.UpdatePricing)
	})
}
