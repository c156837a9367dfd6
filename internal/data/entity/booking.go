package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// BookingKind says which line-item collection a booking owns.
type BookingKind string

const (
	BookingKindSeated BookingKind = "seated"
	BookingKindOpen   BookingKind = "open"
)

type Booking struct {
	BaseNoDelete
	Reference        string          `db:"reference"`
	UserID           uuid.UUID       `db:"user_id"`
	Kind             BookingKind     `db:"kind"`
	ShowID           *uuid.UUID      `db:"show_id"`
	OpenShowID       *uuid.UUID      `db:"open_show_id"`
	TotalQuantity    int             `db:"total_quantity"`
	TotalAmount      decimal.Decimal `db:"total_amount"`
	Status           BookingStatus   `db:"status"`
	PaymentStatus    PaymentStatus   `db:"payment_status"`
	PaymentOrderID   *string         `db:"payment_order_id"`
	PaymentID        *string         `db:"payment_id"`
	PaymentSignature *string         `db:"payment_signature"`
}

// TargetID is the show or open show this booking is for.
func (b *Booking) TargetID() uuid.UUID {
	if b.ShowID != nil {
		return *b.ShowID
	}
	if b.OpenShowID != nil {
		return *b.OpenShowID
	}
	return uuid.Nil
}

// HoldsInventory is true while seats or zone tickets are held for this booking.
func (b *Booking) HoldsInventory() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

var transitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type BookingSeat struct {
	BaseSimple
	BookingID uuid.UUID       `db:"booking_id"`
	SeatID    uuid.UUID       `db:"seat_id"`
	SeatPrice decimal.Decimal `db:"seat_price"`
}

type ZoneBooking struct {
	BaseSimple
	BookingID      uuid.UUID       `db:"booking_id"`
	ZoneID         uuid.UUID       `db:"zone_id"`
	ZoneName       string          `db:"zone_name"`
	Quantity       int             `db:"quantity"`
	PricePerTicket decimal.Decimal `db:"price_per_ticket"`
}

func (z *ZoneBooking) Subtotal() decimal.Decimal {
	return z.PricePerTicket.Mul(decimal.NewFromInt(int64(z.Quantity)))
}
