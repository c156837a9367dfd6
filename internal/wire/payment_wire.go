package wire

import (
	"net/http"

	"ticket-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	auth func(http.Handler) http.Handler,
) {
	// provider events, authenticated by the body signature
	r.Post("/api/payments/webhook", paymentHandler.Webhook)

	r.Route("/api/payments/{id}", func(r chi.Router) {
		// provider callback, authenticated by its signature
		r.Post("/verify", paymentHandler.VerifyPayment)

		r.With(auth).Post("/order", paymentHandler.CreateOrder)
		r.With(auth).Post("/cancel", paymentHandler.FailPayment)
	})
}
