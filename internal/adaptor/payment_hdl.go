package adaptor

import (
	"encoding/json"
	"io"
	"net/http"

	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/usecase"
	"ticket-booking/pkg/utils"

	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// CreateOrder handles POST /api/payments/{id}/order (protected)
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	bookingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.service.CreateOrder(r.Context(), bookingID, userID)
	if err != nil {
		handleServiceError(w, h.log, err, "create payment order")
		return
	}

	utils.ResponseSuccess(w, "success", order)
}

// VerifyPayment handles POST /api/payments/{id}/verify. The provider
// signature authenticates the call, so no session is required.
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req request.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	payment, err := h.service.ConfirmPayment(r.Context(), bookingID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "confirm payment")
		return
	}

	utils.ResponseSuccess(w, "Payment confirmed", payment)
}

// FailPayment handles POST /api/payments/{id}/cancel (protected)
func (h *PaymentHandler) FailPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	bookingID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req request.FailPaymentRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ResponseBadRequest(w, "Invalid request body", nil)
			return
		}
	}

	payment, err := h.service.FailPayment(r.Context(), bookingID, userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "fail payment")
		return
	}

	utils.ResponseSuccess(w, "Payment cancelled, seats released", payment)
}

// Webhook handles POST /api/payments/webhook. Razorpay signs the raw body
// with the webhook secret; no session is involved.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	payment, err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get("X-Razorpay-Signature"))
	if err != nil {
		handleServiceError(w, h.log, err, "payment webhook")
		return
	}
	if payment == nil {
		utils.ResponseSuccess(w, "Event ignored", nil)
		return
	}

	utils.ResponseSuccess(w, "Event processed", payment)
}
