package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/dto/response"
	"ticket-booking/internal/gateway"
	"ticket-booking/pkg/metrics"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	CreateOrder(ctx context.Context, bookingID, userID uuid.UUID) (*response.PaymentOrderResponse, error)
	ConfirmPayment(ctx context.Context, bookingID uuid.UUID, req *request.VerifyPaymentRequest) (*response.PaymentResponse, error)
	FailPayment(ctx context.Context, bookingID, userID uuid.UUID, req *request.FailPaymentRequest) (*response.PaymentResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*response.PaymentResponse, error)
}

const eventPaymentFailed = "payment.failed"

type paymentService struct {
	repo     *repository.Repository
	inv      *inventory
	config   utils.PaymentConfig
	gateway  gateway.PaymentGateway
	notifier gateway.Notifier
	log      *zap.Logger
}

func NewPaymentService(repo *repository.Repository, config *utils.Config, gw Gateways, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:     repo,
		inv:      newInventory(repo, config.Booking.ClampCapacityOverflow, log),
		config:   config.Payment,
		gateway:  gw.Payment,
		notifier: gw.Notifier,
		log:      log.With(zap.String("service", "payment")),
	}
}

// CreateOrder opens a provider order for a pending booking. A booking
// that already has an order gets the same one back.
func (s *paymentService) CreateOrder(ctx context.Context, bookingID, userID uuid.UUID) (*response.PaymentOrderResponse, error) {
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, entity.ErrNotFound)
	}
	if booking.UserID != userID {
		return nil, fmt.Errorf("booking %s: %w", bookingID, entity.ErrForbidden)
	}
	if booking.Status != entity.BookingStatusPending {
		return nil, fmt.Errorf("booking %s is %s: %w", bookingID, booking.Status, entity.ErrInvalidState)
	}

	resp := &response.PaymentOrderResponse{
		BookingID: booking.ID.String(),
		Reference: booking.Reference,
		Amount:    utils.FormatMoney(booking.TotalAmount),
		Currency:  s.config.Currency,
		KeyID:     s.config.KeyID,
	}

	if booking.PaymentOrderID != nil {
		resp.OrderID = *booking.PaymentOrderID
		return resp, nil
	}

	order, err := s.gateway.CreateOrder(ctx, booking.TotalAmount, s.config.Currency, booking.Reference)
	if err != nil {
		s.log.Error("Failed to create payment order",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("reference", booking.Reference),
		)
		return nil, fmt.Errorf("create payment order: %w", err)
	}

	if err := s.repo.Booking.SetPaymentOrder(ctx, bookingID, order.ID); err != nil {
		return nil, fmt.Errorf("store payment order: %w", err)
	}

	s.log.Info("Payment order created",
		zap.String("booking_id", bookingID.String()),
		zap.String("order_id", order.ID),
		zap.String("amount", booking.TotalAmount.String()),
	)

	resp.OrderID = order.ID
	return resp, nil
}

// ConfirmPayment finalizes a pending booking after the provider
// signature checks out. Inventory was reserved at booking time and is
// not touched here.
func (s *paymentService) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, req *request.VerifyPaymentRequest) (*response.PaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, &entity.ValidationError{Fields: errs}
	}

	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.rejectSignature(bookingID, req, "signature mismatch")
		return nil, entity.ErrInvalidSignature
	}

	var booking *entity.Booking
	var replay bool

	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.Booking.FindByID(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("find booking: %w", err)
		}
		if b == nil {
			return fmt.Errorf("booking %s: %w", bookingID, entity.ErrNotFound)
		}
		booking = b

		// the signature only proves the provider saw this order; it must
		// be the order opened for this booking
		if b.PaymentOrderID == nil {
			s.rejectSignature(bookingID, req, "no order opened")
			return entity.ErrInvalidSignature
		}
		if *b.PaymentOrderID != req.OrderID {
			s.rejectSignature(bookingID, req, "order mismatch")
			return entity.ErrInvalidSignature
		}

		if isReplay(b, req.PaymentID) {
			replay = true
			return nil
		}
		if b.Status != entity.BookingStatusPending {
			return fmt.Errorf("booking %s is %s: %w", bookingID, b.Status, entity.ErrInvalidState)
		}

		if err := s.revalidate(ctx, b, req); err != nil {
			return err
		}

		won, err := s.inv.settle(ctx, b, entity.BookingStatusConfirmed, entity.PaymentStatusPaid, &req.PaymentID, &req.Signature)
		if err != nil {
			return err
		}
		if !won {
			current, err := s.repo.Booking.FindByID(ctx, bookingID)
			if err == nil && current != nil && isReplay(current, req.PaymentID) {
				booking, replay = current, true
				return nil
			}
			return fmt.Errorf("booking %s left pending before confirmation: %w", bookingID, entity.ErrInvalidState)
		}

		return nil
	})
	if err != nil {
		s.log.Warn("Confirm payment failed",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("order_id", req.OrderID),
		)
		return nil, err
	}

	if replay {
		s.log.Info("Payment confirmation replayed",
			zap.String("booking_id", bookingID.String()),
			zap.String("payment_id", req.PaymentID))
		return toPaymentResponse(booking), nil
	}

	metrics.BookingTransitions.WithLabelValues(string(entity.BookingStatusConfirmed), "payment").Inc()

	s.log.Info("Payment confirmed",
		zap.String("booking_id", bookingID.String()),
		zap.String("reference", booking.Reference),
		zap.String("payment_id", req.PaymentID),
	)

	notify(ctx, s.notifier, s.log, gateway.Notification{
		UserID:   booking.UserID,
		Subject:  "Payment received " + booking.Reference,
		Body:     fmt.Sprintf("Payment of %s %s confirmed for booking %s.", utils.FormatMoney(booking.TotalAmount), s.config.Currency, booking.Reference),
		Category: gateway.CategoryPayment,
	})

	return toPaymentResponse(booking), nil
}

func isReplay(b *entity.Booking, paymentID string) bool {
	return b.Status == entity.BookingStatusConfirmed && b.PaymentID != nil && *b.PaymentID == paymentID
}

// revalidate applies the optional confirmation policies.
func (s *paymentService) revalidate(ctx context.Context, b *entity.Booking, req *request.VerifyPaymentRequest) error {
	if s.config.RevalidateAmount {
		alloc, err := s.inv.load(ctx, b)
		if err != nil {
			return err
		}
		if !alloc.Total().Equal(b.TotalAmount) {
			s.log.Error("Booking total drifted from its line items",
				zap.String("booking_id", b.ID.String()),
				zap.String("total", b.TotalAmount.String()),
				zap.String("lines", alloc.Total().String()),
			)
			return fmt.Errorf("booking %s total does not match line items: %w", b.ID, entity.ErrInvariantViolation)
		}
		if req.Amount != nil && !req.Amount.Equal(b.TotalAmount) {
			return entity.NewValidationError("amount", fmt.Sprintf("Does not match booking total %s", utils.FormatMoney(b.TotalAmount)))
		}
	}

	if s.config.RequireActiveShow {
		show, err := lookupTarget(ctx, s.repo, b)
		if err != nil {
			return err
		}
		if !show.IsActive {
			return fmt.Errorf("show for booking %s is no longer active: %w", b.ID, entity.ErrInvalidState)
		}
	}

	return nil
}

func (s *paymentService) rejectSignature(bookingID uuid.UUID, req *request.VerifyPaymentRequest, reason string) {
	metrics.PaymentSignatureFailures.Inc()
	s.log.Warn("Payment signature rejected",
		zap.String("security_event", "invalid_payment_signature"),
		zap.String("reason", reason),
		zap.String("booking_id", bookingID.String()),
		zap.String("order_id", req.OrderID),
		zap.String("payment_id", req.PaymentID),
	)
}

// FailPayment is the compensating action for an abandoned or declined
// payment: the booking is cancelled and its inventory returned.
func (s *paymentService) FailPayment(ctx context.Context, bookingID, userID uuid.UUID, req *request.FailPaymentRequest) (*response.PaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, &entity.ValidationError{Fields: errs}
	}

	booking, changed, err := s.fail(ctx, func(ctx context.Context) (*entity.Booking, error) {
		b, err := s.repo.Booking.FindByID(ctx, bookingID)
		if err != nil {
			return nil, fmt.Errorf("find booking: %w", err)
		}
		if b == nil {
			return nil, fmt.Errorf("booking %s: %w", bookingID, entity.ErrNotFound)
		}
		if b.UserID != userID {
			return nil, fmt.Errorf("booking %s: %w", bookingID, entity.ErrForbidden)
		}
		if b.Status != entity.BookingStatusPending {
			return nil, fmt.Errorf("booking %s is %s: %w", bookingID, b.Status, entity.ErrInvalidState)
		}
		return b, nil
	}, "payment_cancelled", req.Reason)
	if err == nil && !changed {
		err = fmt.Errorf("booking %s left pending: %w", bookingID, entity.ErrInvalidState)
	}
	if err != nil {
		s.log.Warn("Fail payment rejected",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, err
	}

	return toPaymentResponse(booking), nil
}

// HandleWebhook reacts to provider events. Only payment.failed changes
// state; other events and failures for bookings that already left
// pending are acknowledged without effect.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*response.PaymentResponse, error) {
	if !s.gateway.VerifyWebhook(payload, signature) {
		metrics.PaymentSignatureFailures.Inc()
		s.log.Warn("Payment webhook rejected",
			zap.String("security_event", "invalid_webhook_signature"),
			zap.Int("size", len(payload)),
		)
		return nil, entity.ErrInvalidSignature
	}

	var event request.PaymentWebhookRequest
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, entity.NewValidationError("payload", "Must be a JSON webhook event")
	}
	if event.Event != eventPaymentFailed {
		s.log.Debug("Payment webhook ignored", zap.String("event", event.Event))
		return nil, nil
	}

	payment := event.Payload.Payment.Entity
	if payment.OrderID == "" {
		return nil, entity.NewValidationError("order_id", "This field is required")
	}

	reason := payment.ErrorDescription
	if reason == "" {
		reason = payment.ErrorCode
	}

	booking, changed, err := s.fail(ctx, func(ctx context.Context) (*entity.Booking, error) {
		b, err := s.repo.Booking.FindByPaymentOrder(ctx, payment.OrderID)
		if err != nil {
			return nil, fmt.Errorf("find booking: %w", err)
		}
		if b == nil {
			return nil, fmt.Errorf("payment order %s: %w", payment.OrderID, entity.ErrNotFound)
		}
		return b, nil
	}, "payment_failed", reason)
	if err != nil {
		s.log.Warn("Payment failure webhook not applied",
			zap.Error(err),
			zap.String("order_id", payment.OrderID),
			zap.String("payment_id", payment.ID),
		)
		return nil, err
	}

	if !changed {
		s.log.Info("Payment failure for settled booking ignored",
			zap.String("booking_id", booking.ID.String()),
			zap.String("status", string(booking.Status)),
			zap.String("payment_id", payment.ID),
		)
	}

	return toPaymentResponse(booking), nil
}

// fail cancels the booking returned by find and releases its inventory
// in one transaction. A booking that is no longer pending is returned
// unchanged with changed=false.
func (s *paymentService) fail(ctx context.Context, find func(ctx context.Context) (*entity.Booking, error), cause, reason string) (*entity.Booking, bool, error) {
	var booking *entity.Booking
	var changed bool

	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := find(ctx)
		if err != nil {
			return err
		}
		booking = b
		if b.Status != entity.BookingStatusPending {
			return nil
		}

		won, err := s.inv.settle(ctx, b, entity.BookingStatusCancelled, entity.PaymentStatusFailed, nil, nil)
		if err != nil {
			return err
		}
		if !won {
			current, err := s.repo.Booking.FindByID(ctx, b.ID)
			if err != nil {
				return fmt.Errorf("find booking: %w", err)
			}
			if current != nil {
				booking = current
			}
			return nil
		}

		changed = true
		return nil
	})
	if err != nil || !changed {
		return booking, false, err
	}

	metrics.BookingTransitions.WithLabelValues(string(entity.BookingStatusCancelled), cause).Inc()

	s.log.Info("Payment failed, inventory released",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("cause", cause),
		zap.String("reason", reason),
	)

	notify(ctx, s.notifier, s.log, gateway.Notification{
		UserID:   booking.UserID,
		Subject:  "Payment not completed " + booking.Reference,
		Body:     fmt.Sprintf("Booking %s was cancelled because payment did not complete.", booking.Reference),
		Category: gateway.CategoryPayment,
	})

	return booking, true, nil
}

func toPaymentResponse(b *entity.Booking) *response.PaymentResponse {
	resp := &response.PaymentResponse{
		BookingID:     b.ID.String(),
		Reference:     b.Reference,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
	}
	if b.PaymentID != nil {
		resp.PaymentID = *b.PaymentID
	}
	return resp
}
