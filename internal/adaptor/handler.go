package adaptor

import (
	"context"
	"errors"
	"net/http"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/usecase"
	"ticket-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	Booking *BookingHandler
	Seat    *SeatHandler
	Payment *PaymentHandler
	Ticket  *TicketHandler
	Admin   *AdminHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Booking: NewBookingHandler(service.Booking, log),
		Seat:    NewSeatHandler(service.Seat, log),
		Payment: NewPaymentHandler(service.Payment, log),
		Ticket:  NewTicketHandler(service.Booking, log),
		Admin:   NewAdminHandler(service.Sweeper, log),
	}
}

// SweepRunner triggers one expiry pass on demand.
type SweepRunner interface {
	RunOnce(ctx context.Context) (int, error)
}

// pathID parses a UUID route parameter and answers 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid "+name, map[string]string{name: "Must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// handleServiceError maps domain errors to HTTP statuses. Conflicts carry
// the offending seats or zones so the client can re-pick.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var validation *entity.ValidationError
	var seatConflict *entity.SeatConflictError
	var zoneConflict *entity.ZoneConflictError

	switch {
	case errors.As(err, &validation):
		log.Warn(operation+" validation failed", zap.Any("errors", validation.Fields))
		utils.ResponseBadRequest(w, "Validation failed", validation.Fields)

	case errors.Is(err, entity.ErrValidation):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, entity.ErrInvalidSignature):
		utils.ResponseBadRequest(w, "Payment verification failed", nil)

	case errors.Is(err, entity.ErrForbidden):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, "You do not have access to this booking")

	case errors.Is(err, entity.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.As(err, &seatConflict):
		utils.ResponseConflict(w, "Some seats are no longer available", map[string]any{"seats": seatConflict.Labels})

	case errors.As(err, &zoneConflict):
		utils.ResponseConflict(w, "Not enough tickets left", map[string]any{"zones": zoneConflict.Zones})

	case errors.Is(err, entity.ErrSeatUnavailable),
		errors.Is(err, entity.ErrInsufficientCapacity),
		errors.Is(err, entity.ErrInvalidState),
		errors.Is(err, entity.ErrAlreadyCancelled),
		errors.Is(err, entity.ErrAlreadyBooked),
		errors.Is(err, entity.ErrConcurrentUpdate):
		log.Warn(operation+" conflict", zap.Error(err))
		utils.ResponseConflict(w, conflictMessage(err), nil)

	default:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, entity.ErrAlreadyCancelled):
		return "Booking is already cancelled"
	case errors.Is(err, entity.ErrAlreadyBooked):
		return "Show already has bookings"
	case errors.Is(err, entity.ErrConcurrentUpdate):
		return "Booking was updated concurrently, please retry"
	case errors.Is(err, entity.ErrInvalidState):
		return "Booking is not in a state that allows this"
	}
	return err.Error()
}
