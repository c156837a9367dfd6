package response

import (
	"time"
)

type BookingResponse struct {
	ID             string                `json:"id"`
	Reference      string                `json:"reference"`
	Kind           string                `json:"kind"`
	ShowID         string                `json:"show_id,omitempty"`
	OpenShowID     string                `json:"open_show_id,omitempty"`
	Title          string                `json:"title,omitempty"`
	Venue          string                `json:"venue,omitempty"`
	StartsAt       *time.Time            `json:"starts_at,omitempty"`
	Seats          []BookedSeatResponse  `json:"seats,omitempty"`
	Zones          []BookedZoneResponse  `json:"zones,omitempty"`
	TotalQuantity  int                   `json:"total_quantity"`
	TotalAmount    string                `json:"total_amount"`
	Currency       string                `json:"currency"`
	Status         string                `json:"status"`
	PaymentStatus  string                `json:"payment_status"`
	PaymentOrderID string                `json:"payment_order_id,omitempty"`
	ExpiresAt      *time.Time            `json:"expires_at,omitempty"`
	ReceiptQR      string                `json:"receipt_qr,omitempty"` // base64 PNG
	CreatedAt      time.Time             `json:"created_at"`
}

type BookedSeatResponse struct {
	SeatID   string `json:"seat_id"`
	Label    string `json:"label"`
	SeatType string `json:"seat_type"`
	Price    string `json:"price"`
}

type BookedZoneResponse struct {
	Zone           string `json:"zone"`
	Quantity       int    `json:"quantity"`
	PricePerTicket string `json:"price_per_ticket"`
	Subtotal       string `json:"subtotal"`
}
