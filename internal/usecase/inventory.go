package usecase

import (
	"context"
	"fmt"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// inventory is the shared reserve/release bookkeeping used by booking,
// payment and expiry flows.
type inventory struct {
	repo  *repository.Repository
	clamp bool
	log   *zap.Logger
}

func newInventory(repo *repository.Repository, clamp bool, log *zap.Logger) *inventory {
	return &inventory{repo: repo, clamp: clamp, log: log.With(zap.String("component", "inventory"))}
}

// load rebuilds the allocation held by an existing booking.
func (inv *inventory) load(ctx context.Context, booking *entity.Booking) (Allocation, error) {
	switch booking.Kind {
	case entity.BookingKindSeated:
		if booking.ShowID == nil {
			return nil, fmt.Errorf("seated booking %s has no show: %w", booking.ID, entity.ErrInvariantViolation)
		}
		booked, err := inv.repo.BookingSeat.FindByBookingID(ctx, booking.ID)
		if err != nil {
			return nil, fmt.Errorf("load booking seats: %w", err)
		}
		return &seatAllocation{
			showID: *booking.ShowID,
			lines: lo.Map(booked, func(b *repository.BookedSeat, _ int) seatLine {
				return seatLine{SeatID: b.SeatID, Label: b.Label(), Type: b.SeatType, Price: b.SeatPrice}
			}),
		}, nil

	case entity.BookingKindOpen:
		if booking.OpenShowID == nil {
			return nil, fmt.Errorf("open booking %s has no show: %w", booking.ID, entity.ErrInvariantViolation)
		}
		items, err := inv.repo.ZoneBooking.FindByBookingID(ctx, booking.ID)
		if err != nil {
			return nil, fmt.Errorf("load zone bookings: %w", err)
		}
		return &zoneAllocation{
			openShowID: *booking.OpenShowID,
			lines: lo.Map(items, func(z *entity.ZoneBooking, _ int) zoneLine {
				return zoneLine{ZoneID: z.ZoneID, Name: z.ZoneName, Quantity: z.Quantity, Price: z.PricePerTicket}
			}),
		}, nil
	}

	return nil, fmt.Errorf("booking %s has unknown kind %q: %w", booking.ID, booking.Kind, entity.ErrInvariantViolation)
}

// settle moves booking out of its current status with a compare-and-swap
// and, when it ends up cancelled, returns the held inventory in the same
// transaction. It reports false when another writer moved the booking
// first; in that case nothing is released. Must run inside WithinTx.
func (inv *inventory) settle(ctx context.Context, booking *entity.Booking, to entity.BookingStatus, payment entity.PaymentStatus, paymentID, signature *string) (bool, error) {
	if !entity.CanTransition(booking.Status, to) {
		return false, fmt.Errorf("booking %s %s -> %s: %w", booking.ID, booking.Status, to, entity.ErrInvalidState)
	}

	won, err := inv.repo.Booking.Transition(ctx, repository.Transition{
		BookingID: booking.ID,
		From:      booking.Status,
		To:        to,
		Payment:   payment,
		PaymentID: paymentID,
		Signature: signature,
	})
	if err != nil {
		return false, fmt.Errorf("transition booking: %w", err)
	}
	if !won {
		return false, nil
	}

	if to == entity.BookingStatusCancelled {
		alloc, err := inv.load(ctx, booking)
		if err != nil {
			return false, err
		}
		if err := alloc.release(ctx, inv); err != nil {
			return false, err
		}
	}

	booking.Status = to
	booking.PaymentStatus = payment
	if paymentID != nil {
		booking.PaymentID = paymentID
	}
	if signature != nil {
		booking.PaymentSignature = signature
	}

	return true, nil
}
