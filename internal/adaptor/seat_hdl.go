package adaptor

import (
	"encoding/json"
	"net/http"

	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/usecase"
	"ticket-booking/pkg/utils"

	"go.uber.org/zap"
)

type SeatHandler struct {
	service usecase.SeatService
	log     *zap.Logger
}

func NewSeatHandler(service usecase.SeatService, log *zap.Logger) *SeatHandler {
	return &SeatHandler{
		service: service,
		log:     log.With(zap.String("handler", "seat")),
	}
}

// ListSeats handles GET /api/shows/{id}/seats (public)
func (h *SeatHandler) ListSeats(w http.ResponseWriter, r *http.Request) {
	showID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	seats, err := h.service.ListSeats(r.Context(), showID)
	if err != nil {
		handleServiceError(w, h.log, err, "list seats")
		return
	}

	utils.ResponseSuccess(w, "success", seats)
}

// Availability handles GET /api/shows/{id}/availability (public)
func (h *SeatHandler) Availability(w http.ResponseWriter, r *http.Request) {
	showID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	availability, err := h.service.Availability(r.Context(), showID)
	if err != nil {
		handleServiceError(w, h.log, err, "check availability")
		return
	}

	utils.ResponseSuccess(w, "success", availability)
}

// GetOpenShow handles GET /api/open-shows/{id} (public)
func (h *SeatHandler) GetOpenShow(w http.ResponseWriter, r *http.Request) {
	openShowID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	show, err := h.service.GetOpenShow(r.Context(), openShowID)
	if err != nil {
		handleServiceError(w, h.log, err, "get open show")
		return
	}

	utils.ResponseSuccess(w, "success", show)
}

// ==================== ADMIN METHODS ====================

// GenerateSeats handles POST /api/admin/shows/{id}/seats/generate
func (h *SeatHandler) GenerateSeats(w http.ResponseWriter, r *http.Request) {
	showID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req request.GenerateSeatsRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ResponseBadRequest(w, "Invalid request body", nil)
			return
		}
	}

	result, err := h.service.GenerateSeats(r.Context(), showID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "generate seats")
		return
	}

	utils.ResponseCreated(w, "Seats generated", result)
}

// UpdatePricing handles PUT /api/admin/shows/{id}/pricing
func (h *SeatHandler) UpdatePricing(w http.ResponseWriter, r *http.Request) {
	showID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req request.UpdatePricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.UpdatePricing(r.Context(), showID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update pricing")
		return
	}

	utils.ResponseSuccess(w, "Pricing updated", result)
}
