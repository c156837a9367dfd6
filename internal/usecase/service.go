package usecase

import (
	"context"
	"time"

	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/gateway"
	"ticket-booking/pkg/redislock"
	"ticket-booking/pkg/utils"

	"go.uber.org/zap"
)

const notifyTimeout = 5 * time.Second

// Gateways are the external collaborators. Receipts and Tickets may be nil.
type Gateways struct {
	Payment  gateway.PaymentGateway
	Notifier gateway.Notifier
	Receipts gateway.ReceiptGenerator
	Tickets  gateway.TicketVerifier
}

type Service struct {
	Booking BookingService
	Seat    SeatService
	Payment PaymentService
	Sweeper *Sweeper
}

// NewService wires all use cases. locker is optional.
func NewService(repo *repository.Repository, config *utils.Config, gw Gateways, locker *redislock.Locker, log *zap.Logger) *Service {
	return &Service{
		Booking: NewBookingService(repo, config, gw, log),
		Seat:    NewSeatService(repo, log),
		Payment: NewPaymentService(repo, config, gw, log),
		Sweeper: NewSweeper(repo, config.Booking, locker, log),
	}
}

// notify delivers n without letting the caller's outcome depend on it.
func notify(ctx context.Context, notifier gateway.Notifier, log *zap.Logger, n gateway.Notification) {
	if notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	n.SentAt = time.Now()
	if err := notifier.Notify(ctx, n); err != nil {
		log.Warn("Notification failed",
			zap.Error(err),
			zap.String("user_id", n.UserID.String()),
			zap.String("category", string(n.Category)))
	}
}
