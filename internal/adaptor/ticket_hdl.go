package adaptor

import (
	"net/http"

	"ticket-booking/internal/usecase"
	"ticket-booking/pkg/utils"

	"go.uber.org/zap"
)

type TicketHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewTicketHandler(service usecase.BookingService, log *zap.Logger) *TicketHandler {
	return &TicketHandler{
		service: service,
		log:     log.With(zap.String("handler", "ticket")),
	}
}

// Verify handles GET /api/tickets/verify?token= (public, used at the gate)
func (h *TicketHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.ResponseBadRequest(w, "Validation failed", map[string]string{"token": "This field is required"})
		return
	}

	result, err := h.service.VerifyTicket(r.Context(), token)
	if err != nil {
		handleServiceError(w, h.log, err, "verify ticket")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}
