package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/dto/response"
	"ticket-booking/internal/gateway"
	"ticket-booking/pkg/metrics"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const maxReferenceAttempts = 5

type BookingService interface {
	// Customer endpoints
	CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*response.BookingResponse, error)
	GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (*response.BookingResponse, error)
	GetBookingByReference(ctx context.Context, reference string, userID uuid.UUID) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)

	// Admin / gate
	GetBookingByID(ctx context.Context, bookingID uuid.UUID) (*response.BookingResponse, error)
	VerifyTicket(ctx context.Context, token string) (*response.TicketVerifyResponse, error)
}

type bookingService struct {
	repo     *repository.Repository
	inv      *inventory
	config   utils.BookingConfig
	currency string
	notifier gateway.Notifier
	receipts gateway.ReceiptGenerator
	tickets  gateway.TicketVerifier
	log      *zap.Logger
	now      func() time.Time
	nextRef  func(prefix string, now time.Time) string
}

func NewBookingService(repo *repository.Repository, config *utils.Config, gw Gateways, log *zap.Logger) BookingService {
	return &bookingService{
		repo:     repo,
		inv:      newInventory(repo, config.Booking.ClampCapacityOverflow, log),
		config:   config.Booking,
		currency: config.Payment.Currency,
		notifier: gw.Notifier,
		receipts: gw.Receipts,
		tickets:  gw.Tickets,
		log:      log.With(zap.String("service", "booking")),
		now:      time.Now,
		nextRef:  utils.GenerateBookingReference,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	req.SeatLabels = lo.Map(req.SeatLabels, func(l string, _ int) string {
		return strings.ToUpper(strings.TrimSpace(l))
	})

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, &entity.ValidationError{Fields: errs}
	}

	alloc, err := s.allocationFor(req)
	if err != nil {
		return nil, err
	}

	var booking *entity.Booking
	var show *target

	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.repo.User.FindByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		if user == nil || !user.IsActive {
			return fmt.Errorf("user %s: %w", userID, entity.ErrNotFound)
		}

		if show, err = alloc.resolve(ctx, s.inv); err != nil {
			return err
		}

		if err := alloc.reserve(ctx, s.inv); err != nil {
			return err
		}

		reference, err := s.newReference(ctx)
		if err != nil {
			return err
		}

		now := s.now()
		targetID := alloc.TargetID()
		booking = &entity.Booking{
			BaseNoDelete: entity.BaseNoDelete{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			Reference:     reference,
			UserID:        userID,
			Kind:          alloc.Kind(),
			TotalQuantity: alloc.Quantity(),
			TotalAmount:   alloc.Total(),
			Status:        entity.BookingStatusPending,
			PaymentStatus: entity.PaymentStatusPending,
		}
		if alloc.Kind() == entity.BookingKindSeated {
			booking.ShowID = &targetID
		} else {
			booking.OpenShowID = &targetID
		}

		if err := s.repo.Booking.Create(ctx, booking); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		return alloc.persist(ctx, s.inv, booking.ID, now)
	})
	if err != nil {
		s.recordConflict(err)
		s.log.Warn("Create booking failed",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("target_id", alloc.TargetID().String()),
		)
		return nil, err
	}

	metrics.BookingsCreated.WithLabelValues(string(booking.Kind)).Inc()

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("user_id", userID.String()),
		zap.String("kind", string(booking.Kind)),
		zap.Int("quantity", booking.TotalQuantity),
		zap.String("total_amount", booking.TotalAmount.String()),
	)

	resp := s.buildBookingResponse(booking, show, alloc)
	resp.ReceiptQR = s.receipt(booking, show, alloc)

	s.notify(ctx, gateway.Notification{
		UserID:   userID,
		Subject:  "Booking received " + booking.Reference,
		Body:     fmt.Sprintf("%s: %s. Total %s %s, awaiting payment.", show.Title, strings.Join(alloc.Items(), ", "), utils.FormatMoney(booking.TotalAmount), s.currency),
		Category: gateway.CategoryBooking,
	})

	return resp, nil
}

// allocationFor turns the request into exactly one allocation variant.
func (s *bookingService) allocationFor(req *request.CreateBookingRequest) (Allocation, error) {
	seated := req.ShowID != ""
	open := req.OpenShowID != ""
	if seated == open {
		return nil, entity.NewValidationError("show_id", "Provide exactly one of show_id and open_show_id")
	}

	if seated {
		if len(req.Zones) > 0 {
			return nil, entity.NewValidationError("zones", "Zones apply only to open_show_id")
		}
		if (len(req.SeatIDs) == 0) == (len(req.SeatLabels) == 0) {
			return nil, entity.NewValidationError("seat_ids", "Provide exactly one of seat_ids and seat_labels")
		}
		if n := len(req.SeatIDs) + len(req.SeatLabels); n > s.config.MaxSeatsPerBooking {
			return nil, entity.NewValidationError("seat_ids", fmt.Sprintf("Maximum is %d seats per booking", s.config.MaxSeatsPerBooking))
		}

		showID, err := uuid.Parse(req.ShowID)
		if err != nil {
			return nil, entity.NewValidationError("show_id", "Must be a valid UUID")
		}
		ids := make([]uuid.UUID, len(req.SeatIDs))
		for i, raw := range req.SeatIDs {
			if ids[i], err = uuid.Parse(raw); err != nil {
				return nil, entity.NewValidationError("seat_ids", "Must be a valid UUID")
			}
		}

		return &seatAllocation{showID: showID, seatIDs: ids, labels: req.SeatLabels}, nil
	}

	if len(req.SeatIDs) > 0 || len(req.SeatLabels) > 0 {
		return nil, entity.NewValidationError("seat_ids", "Seats apply only to show_id")
	}
	if len(req.Zones) == 0 {
		return nil, entity.NewValidationError("zones", "This field is required")
	}

	openShowID, err := uuid.Parse(req.OpenShowID)
	if err != nil {
		return nil, entity.NewValidationError("open_show_id", "Must be a valid UUID")
	}
	alloc := &zoneAllocation{
		openShowID: openShowID,
		lines: lo.Map(req.Zones, func(z request.ZoneRequest, _ int) zoneLine {
			return zoneLine{Name: z.Zone, Quantity: z.Quantity}
		}),
	}
	if alloc.Quantity() > s.config.MaxSeatsPerBooking {
		return nil, entity.NewValidationError("zones", fmt.Sprintf("Maximum is %d tickets per booking", s.config.MaxSeatsPerBooking))
	}

	return alloc, nil
}

// newReference checks the store rather than trusting randomness; the
// unique index still backs it.
func (s *bookingService) newReference(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		reference := s.nextRef(s.config.ReferencePrefix, s.now())

		exists, err := s.repo.Booking.ExistsReference(ctx, reference)
		if err != nil {
			return "", fmt.Errorf("check booking reference: %w", err)
		}
		if !exists {
			return reference, nil
		}

		s.log.Warn("Booking reference collision, regenerating",
			zap.String("reference", reference),
			zap.Int("attempt", attempt))
	}

	return "", fmt.Errorf("no free booking reference after %d attempts", maxReferenceAttempts)
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*response.BookingResponse, error) {
	var booking *entity.Booking

	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.Booking.FindByID(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("find booking: %w", err)
		}
		if b == nil {
			return fmt.Errorf("booking %s: %w", bookingID, entity.ErrNotFound)
		}
		if b.UserID != userID {
			return fmt.Errorf("booking %s: %w", bookingID, entity.ErrForbidden)
		}
		if b.Status == entity.BookingStatusCancelled {
			return fmt.Errorf("booking %s: %w", bookingID, entity.ErrAlreadyCancelled)
		}

		// confirmed bookings take the refund path
		payment := entity.PaymentStatusFailed
		if b.Status == entity.BookingStatusConfirmed {
			payment = entity.PaymentStatusRefunded
		}

		won, err := s.inv.settle(ctx, b, entity.BookingStatusCancelled, payment, nil, nil)
		if err != nil {
			return err
		}
		if !won {
			current, err := s.repo.Booking.FindByID(ctx, bookingID)
			if err == nil && current != nil && current.Status == entity.BookingStatusCancelled {
				return fmt.Errorf("booking %s: %w", bookingID, entity.ErrAlreadyCancelled)
			}
			return fmt.Errorf("booking %s changed during cancel: %w", bookingID, entity.ErrConcurrentUpdate)
		}

		booking = b
		return nil
	})
	if err != nil {
		s.log.Warn("Cancel booking failed",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("user_id", userID.String()),
		)
		return nil, err
	}

	metrics.BookingTransitions.WithLabelValues(string(entity.BookingStatusCancelled), "user").Inc()

	s.log.Info("Booking cancelled",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("payment_status", string(booking.PaymentStatus)),
	)

	s.notify(ctx, gateway.Notification{
		UserID:   booking.UserID,
		Subject:  "Booking cancelled " + booking.Reference,
		Body:     fmt.Sprintf("Your booking %s has been cancelled.", booking.Reference),
		Category: gateway.CategoryBooking,
	})

	return s.describe(ctx, booking)
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, fmt.Errorf("booking %s: %w", bookingID, entity.ErrForbidden)
	}

	return s.describe(ctx, booking)
}

func (s *bookingService) GetBookingByReference(ctx context.Context, reference string, userID uuid.UUID) (*response.BookingResponse, error) {
	booking, err := s.repo.Booking.FindByReference(ctx, strings.ToUpper(reference))
	if err != nil {
		return nil, fmt.Errorf("find booking by reference: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", reference, entity.ErrNotFound)
	}
	if booking.UserID != userID {
		return nil, fmt.Errorf("booking %s: %w", reference, entity.ErrForbidden)
	}

	return s.describe(ctx, booking)
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	limit := req.Limit()
	offset := req.Offset()

	bookings, err := s.repo.Booking.FindByUserID(ctx, userID, limit, offset)
	if err != nil {
		s.log.Error("Failed to get user bookings",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count user bookings: %w", err)
	}

	data := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp, err := s.describe(ctx, b)
		if err != nil {
			return nil, err
		}
		data = append(data, *resp)
	}

	return response.NewPaginatedResponse(data, req.CurrentPage(), limit, total), nil
}

func (s *bookingService) GetBookingByID(ctx context.Context, bookingID uuid.UUID) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, booking)
}

// VerifyTicket admits a pass only while its booking is confirmed.
func (s *bookingService) VerifyTicket(ctx context.Context, token string) (*response.TicketVerifyResponse, error) {
	if s.tickets == nil {
		return nil, fmt.Errorf("ticket verification disabled: %w", entity.ErrNotFound)
	}

	claims, err := s.tickets.Verify(token)
	if err != nil {
		s.log.Warn("Rejected ticket pass", zap.Error(err), zap.String("security_event", "ticket_rejected"))
		return nil, entity.NewValidationError("token", "Invalid or expired ticket")
	}

	booking, err := s.findBooking(ctx, claims.BookingID)
	if err != nil {
		return nil, err
	}

	return &response.TicketVerifyResponse{
		BookingID: booking.ID.String(),
		Reference: booking.Reference,
		ShowID:    booking.TargetID().String(),
		Items:     claims.Items,
		Status:    string(booking.Status),
		Admit:     booking.Status == entity.BookingStatusConfirmed,
	}, nil
}

func (s *bookingService) findBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, entity.ErrNotFound)
	}
	return booking, nil
}

// describe loads line items and show details for an existing booking.
func (s *bookingService) describe(ctx context.Context, booking *entity.Booking) (*response.BookingResponse, error) {
	alloc, err := s.inv.load(ctx, booking)
	if err != nil {
		return nil, err
	}

	show, err := lookupTarget(ctx, s.repo, booking)
	if err != nil {
		return nil, err
	}

	return s.buildBookingResponse(booking, show, alloc), nil
}

func lookupTarget(ctx context.Context, repo *repository.Repository, booking *entity.Booking) (*target, error) {
	switch {
	case booking.ShowID != nil:
		show, err := repo.Show.FindByID(ctx, *booking.ShowID)
		if err != nil {
			return nil, fmt.Errorf("find show: %w", err)
		}
		if show == nil {
			return &target{}, nil
		}
		t := &target{Title: show.Title, StartsAt: show.StartsAt, IsActive: show.IsActive}
		if screen, err := repo.Screen.FindByID(ctx, show.ScreenID); err == nil && screen != nil {
			t.Venue = screen.VenueName
		}
		return t, nil

	case booking.OpenShowID != nil:
		show, err := repo.OpenShow.FindByID(ctx, *booking.OpenShowID)
		if err != nil {
			return nil, fmt.Errorf("find open show: %w", err)
		}
		if show == nil {
			return &target{}, nil
		}
		return &target{Title: show.Title, Venue: show.VenueName, StartsAt: show.StartsAt, IsActive: show.IsActive}, nil
	}

	return &target{}, nil
}

func (s *bookingService) buildBookingResponse(booking *entity.Booking, show *target, alloc Allocation) *response.BookingResponse {
	resp := &response.BookingResponse{
		ID:            booking.ID.String(),
		Reference:     booking.Reference,
		Kind:          string(booking.Kind),
		Title:         show.Title,
		Venue:         show.Venue,
		TotalQuantity: booking.TotalQuantity,
		TotalAmount:   utils.FormatMoney(booking.TotalAmount),
		Currency:      s.currency,
		Status:        string(booking.Status),
		PaymentStatus: string(booking.PaymentStatus),
		CreatedAt:     booking.CreatedAt,
	}
	if !show.StartsAt.IsZero() {
		startsAt := show.StartsAt
		resp.StartsAt = &startsAt
	}
	if booking.ShowID != nil {
		resp.ShowID = booking.ShowID.String()
	}
	if booking.OpenShowID != nil {
		resp.OpenShowID = booking.OpenShowID.String()
	}
	if booking.PaymentOrderID != nil {
		resp.PaymentOrderID = *booking.PaymentOrderID
	}
	if booking.Status == entity.BookingStatusPending {
		expiresAt := booking.CreatedAt.Add(s.config.GraceWindow)
		resp.ExpiresAt = &expiresAt
	}

	switch a := alloc.(type) {
	case *seatAllocation:
		resp.Seats = lo.Map(a.lines, func(l seatLine, _ int) response.BookedSeatResponse {
			return response.BookedSeatResponse{
				SeatID:   l.SeatID.String(),
				Label:    l.Label,
				SeatType: string(l.Type),
				Price:    utils.FormatMoney(l.Price),
			}
		})
	case *zoneAllocation:
		resp.Zones = lo.Map(a.lines, func(l zoneLine, _ int) response.BookedZoneResponse {
			return response.BookedZoneResponse{
				Zone:           l.Name,
				Quantity:       l.Quantity,
				PricePerTicket: utils.FormatMoney(l.Price),
				Subtotal:       utils.FormatMoney(l.Subtotal()),
			}
		})
	}

	return resp
}

// receipt is best-effort: any failure yields an empty artifact.
func (s *bookingService) receipt(booking *entity.Booking, show *target, alloc Allocation) string {
	if s.receipts == nil {
		return ""
	}

	png, err := s.receipts.Generate(gateway.TicketData{
		BookingID: booking.ID,
		Reference: booking.Reference,
		UserID:    booking.UserID,
		ShowID:    booking.TargetID(),
		Items:     alloc.Items(),
		StartsAt:  show.StartsAt,
	})
	if err != nil {
		s.log.Warn("Receipt generation failed",
			zap.Error(err),
			zap.String("reference", booking.Reference))
		return ""
	}

	return base64.StdEncoding.EncodeToString(png)
}

func (s *bookingService) notify(ctx context.Context, n gateway.Notification) {
	notify(ctx, s.notifier, s.log, n)
}

func (s *bookingService) recordConflict(err error) {
	var seatErr *entity.SeatConflictError
	var zoneErr *entity.ZoneConflictError
	switch {
	case errors.As(err, &seatErr):
		metrics.BookingConflicts.WithLabelValues("seat").Inc()
	case errors.As(err, &zoneErr):
		metrics.BookingConflicts.WithLabelValues("zone").Inc()
	case errors.Is(err, entity.ErrInsufficientCapacity):
		metrics.BookingConflicts.WithLabelValues("capacity").Inc()
	case errors.Is(err, entity.ErrConcurrentUpdate):
		metrics.BookingConflicts.WithLabelValues("concurrent").Inc()
	}
}
